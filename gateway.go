package main

import (
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket connection. Its id doubles as the player id for
// the lifetime of the connection. The send channel is never closed; close()
// signals the write pump through done instead, so any goroutine may send
// without racing a close.
type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan any
	done    chan struct{}
	once    sync.Once
	limiter *rate.Limiter
}

func newClient(conn *websocket.Conn, cfg *Config) *Client {
	burst := int(cfg.messageRate)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan any, 16),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(cfg.messageRate), burst),
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// trySend drops the client rather than block the caller: a full buffer
// means the reader is gone or hopelessly behind.
func (c *Client) trySend(msg any) {
	select {
	case c.send <- msg:
	case <-c.done:
	default:
		c.close()
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// readPump decodes inbound messages, validates them at the boundary, and
// routes them to the right room mailbox. Room state is never touched here.
func (c *Client) readPump(cfg *Config, reg *Registry) {
	defer func() {
		if actor, ok := reg.roomFor(c.id); ok {
			actor.post(roomEvent{kind: evDisconnect, client: c})
		}
		c.close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		if !c.limiter.Allow() {
			c.trySend(newErrorMessage(errValidation("Too many messages; slow down.")))
			continue
		}

		switch msg.Type {
		case "create_room":
			c.handleCreate(reg, msg)
		case "join_room":
			c.handleJoin(reg, msg)
		case "ready", "select_letter", "submit_answers", "validate_answers", "new_game":
			actor, ok := reg.roomFor(c.id)
			if !ok {
				c.trySend(newErrorMessage(errResource("You are not in a room.")))
				continue
			}
			actor.post(roomEvent{kind: evCommand, client: c, msg: msg})
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) handleCreate(reg *Registry, msg ClientMessage) {
	if !validUsername(msg.Username) {
		c.trySend(newErrorMessage(errValidation("Invalid username.")))
		return
	}
	if _, ok := reg.roomFor(c.id); ok {
		c.trySend(newErrorMessage(errState("You are already in a room.")))
		return
	}

	actor, err := reg.createRoom()
	if err != nil {
		c.trySend(newErrorMessage(err))
		return
	}

	actor.post(roomEvent{kind: evJoin, client: c, msg: msg})
}

func (c *Client) handleJoin(reg *Registry, msg ClientMessage) {
	if !validUsername(msg.Username) {
		c.trySend(newErrorMessage(errValidation("Invalid username.")))
		return
	}

	code := strings.ToUpper(strings.TrimSpace(msg.RoomCode))
	if !validRoomCode(code) {
		c.trySend(newErrorMessage(errValidation("Invalid room code.")))
		return
	}
	if _, ok := reg.roomFor(c.id); ok {
		c.trySend(newErrorMessage(errState("You are already in a room.")))
		return
	}

	actor, ok := reg.lookup(code)
	if !ok {
		c.trySend(newErrorMessage(errResource("Room not found.")))
		return
	}

	actor.post(roomEvent{kind: evJoin, client: c, msg: msg})
}

func serveWS(cfg *Config, reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := newClient(conn, cfg)
		logf(cfg, "GAMES: Connection %s from %s", client.id, realIP(r))

		go client.writePump()
		client.readPump(cfg, reg)
	}
}
