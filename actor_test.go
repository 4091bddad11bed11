package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		minPlayers:  2,
		maxPlayers:  8,
		maxRooms:    16,
		maxRounds:   10,
		points:      10,
		roundTime:   time.Minute,
		messageRate: 100,
	}
}

// fakeClient is a Client without a websocket conn; messages are read
// straight off the send channel.
func fakeClient(id string) *Client {
	return &Client{
		id:   id,
		send: make(chan any, 64),
		done: make(chan struct{}),
	}
}

func toMap(t *testing.T, msg any) map[string]any {
	t.Helper()

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

// nextMessage drains a client's send channel until a message of the wanted
// type shows up.
func nextMessage(t *testing.T, c *Client, msgType string) map[string]any {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-c.send:
			m := toMap(t, msg)
			if m["type"] == msgType {
				return m
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", msgType)
		}
	}
}

func expectNoMessage(t *testing.T, c *Client, msgType string) {
	t.Helper()

	deadline := time.After(300 * time.Millisecond)
	for {
		select {
		case msg := <-c.send:
			m := toMap(t, msg)
			if m["type"] == msgType {
				t.Fatalf("unexpected %q message: %v", msgType, m)
			}
		case <-deadline:
			return
		}
	}
}

// startActorGame spins up an actor with Ana and Boro readied into letter
// selection.
func startActorGame(t *testing.T, cfg *Config) (*roomActor, *Client, *Client) {
	t.Helper()

	reg := newRegistry(cfg)
	actor, gerr := reg.createRoom()
	require.Nil(t, gerr)

	ana := fakeClient("ana")
	boro := fakeClient("boro")

	actor.post(roomEvent{kind: evJoin, client: ana, msg: ClientMessage{Type: "create_room", Username: "Ana"}})
	nextMessage(t, ana, "room_created")

	actor.post(roomEvent{kind: evJoin, client: boro, msg: ClientMessage{Type: "join_room", Username: "Boro"}})
	nextMessage(t, boro, "room_joined")

	actor.post(roomEvent{kind: evCommand, client: ana, msg: ClientMessage{Type: "ready"}})
	actor.post(roomEvent{kind: evCommand, client: boro, msg: ClientMessage{Type: "ready"}})
	nextMessage(t, ana, "game_started")
	nextMessage(t, boro, "game_started")

	return actor, ana, boro
}

func TestActorDeadlineEndsRound(t *testing.T) {
	cfg := testConfig()
	cfg.roundTime = 100 * time.Millisecond

	actor, ana, boro := startActorGame(t, cfg)

	actor.post(roomEvent{kind: evCommand, client: ana, msg: ClientMessage{Type: "select_letter", Letter: "M"}})
	nextMessage(t, ana, "round_started")

	// Nobody submits; the deadline closes the round on its own.
	ended := nextMessage(t, ana, "round_ended")
	assert.Equal(t, "M", ended["letter"])
	nextMessage(t, boro, "round_ended")
}

func TestActorSubmissionsBeatDeadline(t *testing.T) {
	actor, ana, boro := startActorGame(t, testConfig())

	actor.post(roomEvent{kind: evCommand, client: ana, msg: ClientMessage{Type: "select_letter", Letter: "M"}})
	nextMessage(t, boro, "round_started")

	actor.post(roomEvent{kind: evCommand, client: boro, msg: ClientMessage{Type: "submit_answers", Answers: map[string]string{"Grad": "Madrid"}}})
	nextMessage(t, boro, "answers_received")
	nextMessage(t, ana, "player_submitted")

	actor.post(roomEvent{kind: evCommand, client: ana, msg: ClientMessage{Type: "submit_answers", Answers: map[string]string{"Grad": "Minhen"}}})

	ended := nextMessage(t, ana, "round_ended")
	hints := ended["hints"].(map[string]any)
	assert.Equal(t, true, hints["boro"].(map[string]any)["Grad"])
	nextMessage(t, boro, "round_ended")

	// A stale deadline for the already-finished round must be dropped.
	actor.post(roomEvent{kind: evDeadline, round: 0})
	expectNoMessage(t, ana, "round_ended")
}

func TestActorValidateAndTurnRotation(t *testing.T) {
	actor, ana, boro := startActorGame(t, testConfig())

	actor.post(roomEvent{kind: evCommand, client: ana, msg: ClientMessage{Type: "select_letter", Letter: "M"}})
	actor.post(roomEvent{kind: evCommand, client: ana, msg: ClientMessage{Type: "submit_answers", Answers: map[string]string{"Grad": "Minhen"}}})
	actor.post(roomEvent{kind: evCommand, client: boro, msg: ClientMessage{Type: "submit_answers", Answers: map[string]string{"Grad": "Madrid"}}})
	nextMessage(t, ana, "round_ended")

	actor.post(roomEvent{kind: evCommand, client: ana, msg: ClientMessage{
		Type: "validate_answers",
		Validations: map[string]map[string]bool{
			"ana":  {"Grad": true},
			"boro": {"Grad": true},
		},
	}})

	validated := nextMessage(t, boro, "round_validated")
	assert.Equal(t, float64(1), validated["currentPlayerIndex"])
	current := validated["currentPlayer"].(map[string]any)
	assert.Equal(t, "Boro", current["username"])

	for _, p := range validated["players"].([]any) {
		assert.Equal(t, float64(10), p.(map[string]any)["score"])
	}
}

func TestActorRejectsOutOfTurnLetter(t *testing.T) {
	actor, ana, boro := startActorGame(t, testConfig())

	actor.post(roomEvent{kind: evCommand, client: boro, msg: ClientMessage{Type: "select_letter", Letter: "M"}})

	errMsg := nextMessage(t, boro, "error")
	assert.Equal(t, string(ErrAuthorization), errMsg["kind"])
	expectNoMessage(t, ana, "round_started")
}

func TestActorDisconnectDuringTurnAdvances(t *testing.T) {
	actor, ana, boro := startActorGame(t, testConfig())

	// Play one round so the turn belongs to Boro.
	actor.post(roomEvent{kind: evCommand, client: ana, msg: ClientMessage{Type: "select_letter", Letter: "M"}})
	actor.post(roomEvent{kind: evCommand, client: ana, msg: ClientMessage{Type: "submit_answers", Answers: map[string]string{}}})
	actor.post(roomEvent{kind: evCommand, client: boro, msg: ClientMessage{Type: "submit_answers", Answers: map[string]string{}}})
	nextMessage(t, ana, "round_ended")
	actor.post(roomEvent{kind: evCommand, client: ana, msg: ClientMessage{Type: "validate_answers", Validations: map[string]map[string]bool{}}})
	nextMessage(t, ana, "round_validated")

	actor.post(roomEvent{kind: evDisconnect, client: boro})

	changed := nextMessage(t, ana, "turn_changed")
	assert.Equal(t, float64(0), changed["currentPlayerIndex"])
	current := changed["currentPlayer"].(map[string]any)
	assert.Equal(t, "Ana", current["username"])
}

func TestActorInfoQuery(t *testing.T) {
	actor, _, _ := startActorGame(t, testConfig())

	reply := make(chan RoomInfo, 1)
	actor.post(roomEvent{kind: evInfo, info: reply})

	select {
	case info := <-reply:
		assert.Equal(t, StatusLetterSelection, info.Status)
		assert.Len(t, info.Players, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for room info")
	}
}
