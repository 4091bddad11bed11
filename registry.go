package main

import (
	"crypto/rand"
	"sync"
	"time"
)

// Registry is the process-wide session directory: room code to actor, and
// connection id to room code. It is the only structure shared across
// connections, so it carries the only mutex in the server; everything inside
// a room is serialized by that room's actor instead.
type Registry struct {
	mu      sync.Mutex
	cfg     *Config
	rooms   map[string]*roomActor
	conns   map[string]string
	started time.Time
}

func newRegistry(cfg *Config) *Registry {
	reg := &Registry{
		cfg:     cfg,
		rooms:   make(map[string]*roomActor),
		conns:   make(map[string]string),
		started: time.Now(),
	}
	if cfg.roomTimeout > 0 {
		go reg.sweepLoop()
	}
	return reg
}

// createRoom makes an empty room with a fresh code and starts its actor.
// The creator still joins through the actor mailbox like everyone else.
func (reg *Registry) createRoom() (*roomActor, *GameError) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if len(reg.rooms) >= reg.cfg.maxRooms {
		return nil, errResource("The server is at capacity; try again later.")
	}

	var code string
	for {
		code = newRoomCode()
		if _, exists := reg.rooms[code]; !exists {
			break
		}
	}

	actor := newRoomActor(reg.cfg, reg, newRoom(code, reg.cfg.roomSettings()))
	reg.rooms[code] = actor
	go actor.run()

	return actor, nil
}

// newRoomCode generates a 6-char uppercase alphanumeric code via
// crypto/rand. Collisions are the caller's problem.
func newRoomCode() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	buf := make([]byte, roomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}

	out := make([]byte, roomCodeLength)
	for i := range out {
		out[i] = letters[int(buf[i])%len(letters)]
	}
	return string(out)
}

func (reg *Registry) lookup(code string) (*roomActor, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	actor, ok := reg.rooms[code]
	return actor, ok
}

// roomFor resolves a connection to the room it has joined, if any.
func (reg *Registry) roomFor(connID string) (*roomActor, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code, ok := reg.conns[connID]
	if !ok {
		return nil, false
	}
	actor, ok := reg.rooms[code]
	return actor, ok
}

func (reg *Registry) mapConn(connID, code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.conns[connID] = code
}

func (reg *Registry) unmapConn(connID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	delete(reg.conns, connID)
}

// remove drops a room and any connection mappings still pointing at it.
func (reg *Registry) remove(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	delete(reg.rooms, code)
	for connID, c := range reg.conns {
		if c == code {
			delete(reg.conns, connID)
		}
	}
}

func (reg *Registry) counts() (rooms, players int) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return len(reg.rooms), len(reg.conns)
}

func (reg *Registry) uptime() time.Duration {
	return time.Since(reg.started)
}

// sweepLoop periodically removes rooms with no activity inside the
// configured window. This is the coarse garbage-collection pass over the
// directory; per-room logic never self-destructs on idleness.
func (reg *Registry) sweepLoop() {
	ticker := time.NewTicker(reg.cfg.roomTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-reg.cfg.roomTimeout).UnixNano()

		reg.mu.Lock()
		var stale []*roomActor
		for code, actor := range reg.rooms {
			if actor.lastActive.Load() < cutoff {
				stale = append(stale, actor)
				delete(reg.rooms, code)
				for connID, c := range reg.conns {
					if c == code {
						delete(reg.conns, connID)
					}
				}
			}
		}
		reg.mu.Unlock()

		for _, actor := range stale {
			close(actor.stop)
			logf(reg.cfg, "SWEEP: Removed inactive room %s", actor.room.Code)
		}
	}
}
