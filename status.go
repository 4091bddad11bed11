package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
)

type statusResponse struct {
	Status           string `json:"status"`
	Uptime           string `json:"uptime"`
	ActiveRooms      int    `json:"activeRooms"`
	ConnectedPlayers int    `json:"connectedPlayers"`
	ServerTime       string `json:"serverTime"`
}

func serveStatus(cfg *Config, reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		rooms, players := reg.counts()

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		securityHeaders(cfg, w)

		_ = json.NewEncoder(w).Encode(statusResponse{
			Status:           "ok",
			Uptime:           reg.uptime().Round(time.Second).String(),
			ActiveRooms:      rooms,
			ConnectedPlayers: players,
			ServerTime:       time.Now().Format(time.RFC3339),
		})
	}
}

// serveRoomInfo queries a room snapshot through its actor mailbox, so the
// response is consistent with whatever the room was doing when the query
// was drained.
func serveRoomInfo(cfg *Config, reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		securityHeaders(cfg, w)

		code := strings.ToUpper(p.ByName("code"))
		actor, ok := reg.lookup(code)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Room not found."})
			return
		}

		reply := make(chan RoomInfo, 1)
		actor.post(roomEvent{kind: evInfo, info: reply})

		select {
		case info := <-reply:
			_ = json.NewEncoder(w).Encode(info)
		case <-time.After(time.Second):
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Room is busy."})
		}
	}
}

func registerStatusAPI(cfg *Config, reg *Registry, mux *httprouter.Router) {
	mux.GET(cfg.prefix+"/api/status", serveStatus(cfg, reg))

	if cfg.debugAPI {
		mux.GET(cfg.prefix+"/api/rooms/:code", serveRoomInfo(cfg, reg))
	}
}
