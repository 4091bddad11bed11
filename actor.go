package main

import (
	"sync/atomic"
	"time"
)

type eventKind int

const (
	evJoin eventKind = iota
	evCommand
	evDisconnect
	evDeadline
	evInfo
)

type roomEvent struct {
	kind   eventKind
	client *Client
	msg    ClientMessage
	round  int           // evDeadline: index of the round the timer was armed for
	info   chan RoomInfo // evInfo: buffered reply channel
}

// roomActor owns one Room. All mutation is funneled through a single
// mailbox drained by run(), so client commands and the round deadline timer
// never interleave; whichever the mailbox delivers first wins.
type roomActor struct {
	cfg     *Config
	reg     *Registry
	room    *Room
	clients map[string]*Client
	events  chan roomEvent
	stop    chan struct{}

	// Round deadline, armed on letter selection. Only touched from run().
	timer *time.Timer

	// Unix nanos of the last processed event, read by the registry sweeper.
	lastActive atomic.Int64
}

func newRoomActor(cfg *Config, reg *Registry, room *Room) *roomActor {
	a := &roomActor{
		cfg:     cfg,
		reg:     reg,
		room:    room,
		clients: make(map[string]*Client),
		events:  make(chan roomEvent, 256),
		stop:    make(chan struct{}),
	}
	a.lastActive.Store(time.Now().UnixNano())
	return a
}

// post never blocks; a full mailbox drops the event. The mailbox is the
// room's backpressure bound.
func (a *roomActor) post(ev roomEvent) {
	select {
	case a.events <- ev:
	default:
		logf(a.cfg, "GAMES: Mailbox full, dropped event for room %s", a.room.Code)
	}
}

func (a *roomActor) run() {
	for {
		select {
		case <-a.stop:
			a.stopTimer()
			a.closeAll()
			return
		case ev := <-a.events:
			a.lastActive.Store(time.Now().UnixNano())
			switch ev.kind {
			case evJoin:
				a.handleJoin(ev.client, ev.msg)
			case evCommand:
				a.handleCommand(ev.client, ev.msg)
			case evDisconnect:
				if a.handleDisconnect(ev.client) {
					a.stopTimer()
					return
				}
			case evDeadline:
				a.handleDeadline(ev.round)
			case evInfo:
				ev.info <- a.room.PublicInfo()
			}
		}
	}
}

func (a *roomActor) sendError(c *Client, err *GameError) {
	c.trySend(newErrorMessage(err))
}

func (a *roomActor) broadcast(msg any) {
	for _, client := range a.clients {
		client.trySend(msg)
	}
}

func (a *roomActor) broadcastExcept(id string, msg any) {
	for _, client := range a.clients {
		if client.id == id {
			continue
		}
		client.trySend(msg)
	}
}

// handleJoin covers both create_room (fresh empty room) and join_room.
func (a *roomActor) handleJoin(c *Client, msg ClientMessage) {
	creating := msg.Type == "create_room"

	if err := a.room.AddPlayer(c.id, msg.Username); err != nil {
		a.sendError(c, err)
		return
	}

	a.clients[c.id] = c
	a.reg.mapConn(c.id, a.room.Code)

	player := a.room.PlayerByID(c.id)
	if creating {
		c.trySend(RoomCreatedMessage{
			Type:       "room_created",
			RoomCode:   a.room.Code,
			Players:    a.room.PlayersList(),
			Categories: a.room.Categories,
			Alphabet:   a.room.Alphabet,
			IsHost:     player.IsHost,
		})
		logf(a.cfg, "GAMES: %q created room %s", player.Username, a.room.Code)
		return
	}

	c.trySend(RoomJoinedMessage{
		Type:       "room_joined",
		RoomCode:   a.room.Code,
		Players:    a.room.PlayersList(),
		Categories: a.room.Categories,
		Alphabet:   a.room.Alphabet,
		IsHost:     player.IsHost,
	})
	a.broadcastExcept(c.id, PlayerUpdateMessage{
		Type:    "player_update",
		Players: a.room.PlayersList(),
	})
	logf(a.cfg, "GAMES: %q joined room %s", player.Username, a.room.Code)
}

func (a *roomActor) handleCommand(c *Client, msg ClientMessage) {
	switch msg.Type {
	case "ready":
		a.handleReady(c)
	case "select_letter":
		a.handleSelectLetter(c, msg.Letter)
	case "submit_answers":
		a.handleSubmitAnswers(c, msg.Answers)
	case "validate_answers":
		a.handleValidateAnswers(c, msg.Validations)
	case "new_game":
		a.handleNewGame(c)
	}
}

func (a *roomActor) handleReady(c *Client) {
	started, err := a.room.SetReady(c.id)
	if err != nil {
		a.sendError(c, err)
		return
	}

	a.broadcast(PlayerUpdateMessage{
		Type:    "player_update",
		Players: a.room.PlayersList(),
	})

	if started {
		a.broadcast(GameStartedMessage{
			Type:          "game_started",
			Status:        a.room.Status,
			CurrentPlayer: *a.room.CurrentPlayer(),
			Alphabet:      a.room.Alphabet,
			UsedLetters:   a.room.UsedLetters,
		})
		logf(a.cfg, "GAMES: Game started in room %s with %d players", a.room.Code, len(a.room.Players))
	}
}

func (a *roomActor) handleSelectLetter(c *Client, letter string) {
	if !validLetter(a.room.Alphabet, letter) {
		a.sendError(c, errValidation("That letter is not in the alphabet."))
		return
	}

	if err := a.room.SelectLetter(c.id, letter); err != nil {
		a.sendError(c, err)
		return
	}

	a.armTimer(len(a.room.Rounds) - 1)

	a.broadcast(RoundStartedMessage{
		Type:       "round_started",
		Letter:     a.room.CurrentLetter,
		RoundTime:  int(a.room.settings.roundTime.Seconds()),
		Categories: a.room.Categories,
		Round:      len(a.room.Rounds),
	})
	logf(a.cfg, "GAMES: Round %d started in room %s with letter %q", len(a.room.Rounds), a.room.Code, a.room.CurrentLetter)
}

func (a *roomActor) handleSubmitAnswers(c *Client, answers map[string]string) {
	allSubmitted, err := a.room.SubmitAnswers(c.id, answers)
	if err != nil {
		a.sendError(c, err)
		return
	}

	c.trySend(AnswersReceivedMessage{Type: "answers_received"})

	if player := a.room.PlayerByID(c.id); player != nil {
		a.broadcastExcept(c.id, PlayerSubmittedMessage{
			Type:     "player_submitted",
			Username: player.Username,
		})
	}

	if allSubmitted {
		a.endRound()
	}
}

func (a *roomActor) handleValidateAnswers(c *Client, verdicts map[string]map[string]bool) {
	if !validVerdicts(verdicts, a.room.Players, a.room.Categories) {
		a.sendError(c, errValidation("Malformed validation payload."))
		return
	}

	gameEnd, err := a.room.ValidateAnswers(c.id, verdicts)
	if err != nil {
		a.sendError(c, err)
		return
	}

	round := a.room.CurrentRound()

	if gameEnd {
		a.broadcast(GameEndedMessage{
			Type:        "game_ended",
			Players:     a.room.PlayersList(),
			Results:     round.Results,
			Winner:      *a.room.Winner(),
			UsedLetters: a.room.UsedLetters,
			Rounds:      len(a.room.Rounds),
		})
		logf(a.cfg, "GAMES: Game ended in room %s after %d rounds", a.room.Code, len(a.room.Rounds))
		return
	}

	a.broadcast(RoundValidatedMessage{
		Type:               "round_validated",
		Players:            a.room.PlayersList(),
		Results:            round.Results,
		Status:             a.room.Status,
		CurrentPlayerIndex: a.room.CurrentPlayerIndex,
		CurrentPlayer:      *a.room.CurrentPlayer(),
		UsedLetters:        a.room.UsedLetters,
	})
}

func (a *roomActor) handleNewGame(c *Client) {
	if err := a.room.Reset(c.id); err != nil {
		a.sendError(c, err)
		return
	}

	a.broadcast(RoomResetMessage{
		Type:       "room_reset",
		Players:    a.room.PlayersList(),
		Categories: a.room.Categories,
	})
	logf(a.cfg, "GAMES: Room %s reset for a new game", a.room.Code)
}

// handleDeadline ends the round when the answer clock expires. A deadline
// for a round the room has already moved past is stale and dropped; the
// check is against round identity and status, not the timer handle.
func (a *roomActor) handleDeadline(round int) {
	if a.room.Status != StatusPlaying || len(a.room.Rounds)-1 != round {
		return
	}

	a.endRound()
	logf(a.cfg, "GAMES: Round %d in room %s ended by deadline", round+1, a.room.Code)
}

func (a *roomActor) endRound() {
	a.stopTimer()

	if err := a.room.EndRound(); err != nil {
		return
	}

	round := a.room.CurrentRound()

	hints := make(map[string]map[string]bool, len(round.Answers))
	for playerID, slot := range round.Answers {
		perCategory := make(map[string]bool, len(slot.Categories))
		for category, answer := range slot.Categories {
			perCategory[category] = answerMatchesLetter(answer, round.Letter)
		}
		hints[playerID] = perCategory
	}

	a.broadcast(RoundEndedMessage{
		Type:       "round_ended",
		Letter:     round.Letter,
		Categories: a.room.Categories,
		Answers:    round.Answers,
		Hints:      hints,
	})
}

func (a *roomActor) armTimer(round int) {
	a.stopTimer()
	a.timer = time.AfterFunc(a.room.settings.roundTime, func() {
		a.post(roomEvent{kind: evDeadline, round: round})
	})
}

func (a *roomActor) stopTimer() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// handleDisconnect returns true once the room is empty and the actor should
// exit.
func (a *roomActor) handleDisconnect(c *Client) bool {
	if client, ok := a.clients[c.id]; ok {
		delete(a.clients, c.id)
		client.close()
	}
	a.reg.unmapConn(c.id)

	result, ok := a.room.Disconnect(c.id)
	if !ok {
		return false
	}

	logf(a.cfg, "GAMES: %q left room %s", result.username, a.room.Code)

	if result.empty {
		a.reg.remove(a.room.Code)
		return true
	}

	a.broadcast(PlayerUpdateMessage{
		Type:    "player_update",
		Players: a.room.PlayersList(),
	})

	if result.turnAdvanced {
		a.broadcast(TurnChangedMessage{
			Type:               "turn_changed",
			CurrentPlayerIndex: a.room.CurrentPlayerIndex,
			CurrentPlayer:      *a.room.CurrentPlayer(),
		})
	}

	return false
}

// closeAll disconnects every client of this room (used by the sweeper).
func (a *roomActor) closeAll() {
	for id, client := range a.clients {
		delete(a.clients, id)
		a.reg.unmapConn(id)
		client.close()
	}
}
