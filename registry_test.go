package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoomCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := newRoomCode()
		assert.True(t, validRoomCode(code), "bad room code %q", code)
		seen[code] = true
	}
	// Collisions across 100 draws from a 36^6 space would be remarkable.
	assert.Greater(t, len(seen), 90)
}

func TestCreateRoomCap(t *testing.T) {
	cfg := testConfig()
	cfg.maxRooms = 1
	reg := newRegistry(cfg)

	_, err := reg.createRoom()
	require.Nil(t, err)

	_, err = reg.createRoom()
	require.NotNil(t, err)
	assert.Equal(t, ErrResource, err.Kind)
}

func TestConnMapping(t *testing.T) {
	reg := newRegistry(testConfig())

	actor, err := reg.createRoom()
	require.Nil(t, err)
	code := actor.room.Code

	_, ok := reg.roomFor("conn-1")
	assert.False(t, ok)

	reg.mapConn("conn-1", code)
	got, ok := reg.roomFor("conn-1")
	require.True(t, ok)
	assert.Same(t, actor, got)

	found, ok := reg.lookup(code)
	require.True(t, ok)
	assert.Same(t, actor, found)

	reg.unmapConn("conn-1")
	_, ok = reg.roomFor("conn-1")
	assert.False(t, ok)

	reg.mapConn("conn-2", code)
	reg.remove(code)
	_, ok = reg.lookup(code)
	assert.False(t, ok)
	_, ok = reg.roomFor("conn-2")
	assert.False(t, ok)

	rooms, players := reg.counts()
	assert.Zero(t, rooms)
	assert.Zero(t, players)
}

func TestSweepRemovesIdleRooms(t *testing.T) {
	cfg := testConfig()
	cfg.roomTimeout = 100 * time.Millisecond
	reg := newRegistry(cfg)

	actor, err := reg.createRoom()
	require.Nil(t, err)
	code := actor.room.Code

	assert.Eventually(t, func() bool {
		_, ok := reg.lookup(code)
		return !ok
	}, 2*time.Second, 20*time.Millisecond)

	// The actor was told to shut down too.
	select {
	case <-actor.stop:
	case <-time.After(time.Second):
		t.Fatal("actor was never stopped")
	}
}

func TestSweepKeepsActiveRooms(t *testing.T) {
	cfg := testConfig()
	cfg.roomTimeout = 200 * time.Millisecond
	reg := newRegistry(cfg)

	actor, err := reg.createRoom()
	require.Nil(t, err)
	code := actor.room.Code

	// Keep the room active past several sweep ticks.
	for i := 0; i < 10; i++ {
		actor.lastActive.Store(time.Now().UnixNano())
		time.Sleep(50 * time.Millisecond)
	}

	_, ok := reg.lookup(code)
	assert.True(t, ok)
}
