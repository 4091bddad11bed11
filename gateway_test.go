package main

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T, cfg *Config) *httptest.Server {
	t.Helper()

	reg := newRegistry(cfg)
	mux := httprouter.New()
	mux.GET("/ws", serveWS(cfg, reg))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func wsSend(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

// wsRead discards messages until one of the wanted type arrives.
func wsRead(t *testing.T, conn *websocket.Conn, wantType string) map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var m map[string]any
		require.NoError(t, conn.ReadJSON(&m), "while waiting for %q", wantType)
		if m["type"] == wantType {
			return m
		}
	}
}

func playerIDByName(t *testing.T, m map[string]any, username string) string {
	t.Helper()

	for _, entry := range m["players"].([]any) {
		p := entry.(map[string]any)
		if p["username"] == username {
			return p["id"].(string)
		}
	}
	t.Fatalf("player %q not found in %v", username, m)
	return ""
}

func TestFullGameOverWebsocket(t *testing.T) {
	srv := startTestServer(t, testConfig())

	ana := dialWS(t, srv)
	wsSend(t, ana, ClientMessage{Type: "create_room", Username: "Ana"})
	created := wsRead(t, ana, "room_created")

	code := created["roomCode"].(string)
	require.True(t, validRoomCode(code))
	assert.Equal(t, true, created["isHost"])
	anaID := playerIDByName(t, created, "Ana")

	boro := dialWS(t, srv)
	wsSend(t, boro, ClientMessage{Type: "join_room", RoomCode: code, Username: "Boro"})
	joined := wsRead(t, boro, "room_joined")
	assert.Equal(t, false, joined["isHost"])
	boroID := playerIDByName(t, joined, "Boro")

	wsRead(t, ana, "player_update")

	wsSend(t, ana, ClientMessage{Type: "ready"})
	wsSend(t, boro, ClientMessage{Type: "ready"})

	started := wsRead(t, ana, "game_started")
	assert.Equal(t, "Ana", started["currentPlayer"].(map[string]any)["username"])
	wsRead(t, boro, "game_started")

	wsSend(t, ana, ClientMessage{Type: "select_letter", Letter: "M"})
	round := wsRead(t, boro, "round_started")
	assert.Equal(t, "M", round["letter"])
	wsRead(t, ana, "round_started")

	wsSend(t, boro, ClientMessage{Type: "submit_answers", Answers: map[string]string{"Grad": "Madrid"}})
	wsRead(t, boro, "answers_received")
	submitted := wsRead(t, ana, "player_submitted")
	assert.Equal(t, "Boro", submitted["username"])

	wsSend(t, ana, ClientMessage{Type: "submit_answers", Answers: map[string]string{"Grad": "Minhen"}})

	ended := wsRead(t, ana, "round_ended")
	answers := ended["answers"].(map[string]any)
	boroAnswers := answers[boroID].(map[string]any)["categories"].(map[string]any)
	assert.Equal(t, "Madrid", boroAnswers["Grad"])
	hints := ended["hints"].(map[string]any)
	assert.Equal(t, true, hints[boroID].(map[string]any)["Grad"])
	wsRead(t, boro, "round_ended")

	wsSend(t, ana, ClientMessage{
		Type: "validate_answers",
		Validations: map[string]map[string]bool{
			anaID:  {"Grad": true},
			boroID: {"Grad": true},
		},
	})

	validated := wsRead(t, boro, "round_validated")
	assert.Equal(t, float64(1), validated["currentPlayerIndex"])
	for _, entry := range validated["players"].([]any) {
		assert.Equal(t, float64(10), entry.(map[string]any)["score"])
	}
}

func TestRoundDeadlineOverWebsocket(t *testing.T) {
	cfg := testConfig()
	cfg.roundTime = 150 * time.Millisecond
	srv := startTestServer(t, cfg)

	ana := dialWS(t, srv)
	wsSend(t, ana, ClientMessage{Type: "create_room", Username: "Ana"})
	created := wsRead(t, ana, "room_created")
	code := created["roomCode"].(string)

	boro := dialWS(t, srv)
	wsSend(t, boro, ClientMessage{Type: "join_room", RoomCode: code, Username: "Boro"})
	wsRead(t, boro, "room_joined")

	wsSend(t, ana, ClientMessage{Type: "ready"})
	wsSend(t, boro, ClientMessage{Type: "ready"})
	wsRead(t, ana, "game_started")

	wsSend(t, ana, ClientMessage{Type: "select_letter", Letter: "P"})
	wsRead(t, ana, "round_started")

	// No submissions; the deadline fires and everyone is scored on empty
	// answers.
	ended := wsRead(t, ana, "round_ended")
	assert.Equal(t, "P", ended["letter"])
	wsRead(t, boro, "round_ended")
}

func TestGatewayErrors(t *testing.T) {
	srv := startTestServer(t, testConfig())

	conn := dialWS(t, srv)

	wsSend(t, conn, ClientMessage{Type: "create_room", Username: "A"})
	errMsg := wsRead(t, conn, "error")
	assert.Equal(t, string(ErrValidation), errMsg["kind"])

	wsSend(t, conn, ClientMessage{Type: "join_room", RoomCode: "nope", Username: "Ana"})
	errMsg = wsRead(t, conn, "error")
	assert.Equal(t, string(ErrValidation), errMsg["kind"])

	wsSend(t, conn, ClientMessage{Type: "join_room", RoomCode: "ZZZZZZ", Username: "Ana"})
	errMsg = wsRead(t, conn, "error")
	assert.Equal(t, string(ErrResource), errMsg["kind"])

	wsSend(t, conn, ClientMessage{Type: "ready"})
	errMsg = wsRead(t, conn, "error")
	assert.Equal(t, string(ErrResource), errMsg["kind"])
}

func TestDuplicateUsernameRejected(t *testing.T) {
	srv := startTestServer(t, testConfig())

	ana := dialWS(t, srv)
	wsSend(t, ana, ClientMessage{Type: "create_room", Username: "Ana"})
	created := wsRead(t, ana, "room_created")
	code := created["roomCode"].(string)

	impostor := dialWS(t, srv)
	wsSend(t, impostor, ClientMessage{Type: "join_room", RoomCode: code, Username: "ana"})
	errMsg := wsRead(t, impostor, "error")
	assert.Equal(t, string(ErrResource), errMsg["kind"])
}
