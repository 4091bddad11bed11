package main

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

// Room lifecycle. Waiting is initial; GameEnd is terminal until the host
// explicitly resets the room back to Waiting.
type Status string

const (
	StatusWaiting         Status = "waiting"
	StatusLetterSelection Status = "letter_selection"
	StatusPlaying         Status = "playing"
	StatusRoundResults    Status = "round_results"
	StatusGameEnd         Status = "game_end"
)

type Player struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	IsHost    bool      `json:"isHost"`
	Score     int       `json:"score"`
	Ready     bool      `json:"ready"`
	Connected bool      `json:"connected"`
	JoinedAt  time.Time `json:"-"`
}

type PlayerAnswers struct {
	Submitted  bool              `json:"submitted"`
	Categories map[string]string `json:"categories"`
}

type CategoryResult struct {
	Answer  string `json:"answer"`
	IsValid bool   `json:"isValid"`
}

type PlayerResult struct {
	Categories map[string]CategoryResult `json:"categories"`
	Score      int                       `json:"score"`
}

type Round struct {
	Letter    string                    `json:"letter"`
	Answers   map[string]*PlayerAnswers `json:"answers"`
	Results   map[string]*PlayerResult  `json:"results"`
	StartTime time.Time                 `json:"startTime"`
	EndTime   time.Time                 `json:"endTime"`
}

type roomSettings struct {
	minPlayers int
	maxPlayers int
	maxRounds  int
	points     int
	roundTime  time.Duration
}

func (c *Config) roomSettings() roomSettings {
	return roomSettings{
		minPlayers: c.minPlayers,
		maxPlayers: c.maxPlayers,
		maxRounds:  c.maxRounds,
		points:     c.points,
		roundTime:  c.roundTime,
	}
}

// Room is one isolated game session. It is never locked: all mutation is
// serialized through the owning room actor, so methods here run one at a
// time. Every method validates fully before touching any state.
type Room struct {
	Code               string
	Players            []*Player
	Categories         []string
	Alphabet           Alphabet
	Status             Status
	Rounds             []*Round
	UsedLetters        []string
	CurrentLetter      string
	CurrentPlayerIndex int
	CreatedAt          time.Time
	LastActivity       time.Time

	settings roomSettings
}

func newRoom(code string, settings roomSettings) *Room {
	now := time.Now()
	return &Room{
		Code:         code,
		Categories:   defaultCategories(),
		Alphabet:     defaultAlphabet(),
		Status:       StatusWaiting,
		CreatedAt:    now,
		LastActivity: now,
		settings:     settings,
	}
}

func (r *Room) touch() {
	r.LastActivity = time.Now()
}

func (r *Room) PlayerByID(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) HasUsername(username string) bool {
	return lo.SomeBy(r.Players, func(p *Player) bool {
		return strings.EqualFold(p.Username, username)
	})
}

func (r *Room) CurrentPlayer() *Player {
	if len(r.Players) == 0 {
		return nil
	}
	return r.Players[r.CurrentPlayerIndex]
}

func (r *Room) CurrentRound() *Round {
	if len(r.Rounds) == 0 {
		return nil
	}
	return r.Rounds[len(r.Rounds)-1]
}

// AddPlayer registers a new player. The first player in an empty room
// becomes host.
func (r *Room) AddPlayer(id, username string) *GameError {
	if r.Status != StatusWaiting {
		return errState("The game has already started.")
	}
	if len(r.Players) >= r.settings.maxPlayers {
		return errResource("The room is full.")
	}
	if r.HasUsername(username) {
		return errResource("That username is already taken in this room.")
	}

	r.Players = append(r.Players, &Player{
		ID:        id,
		Username:  strings.TrimSpace(username),
		IsHost:    len(r.Players) == 0,
		Connected: true,
		JoinedAt:  time.Now(),
	})
	r.touch()

	return nil
}

// SetReady marks a player ready and re-checks the game-start guard.
// Idempotent. Returns whether the game started as a result.
func (r *Room) SetReady(id string) (bool, *GameError) {
	if r.Status != StatusWaiting {
		return false, errState("The game has already started.")
	}

	player := r.PlayerByID(id)
	if player == nil {
		return false, errResource("Player not found in this room.")
	}

	player.Ready = true
	r.touch()

	if len(r.Players) < r.settings.minPlayers || !r.allReady() {
		return false, nil
	}

	r.Status = StatusLetterSelection
	r.CurrentPlayerIndex = 0
	return true, nil
}

func (r *Room) allReady() bool {
	return lo.EveryBy(r.Players, func(p *Player) bool {
		return p.Ready
	})
}

// SelectLetter starts a new round. Only the current turn-holder may call it,
// and only with an unused alphabet letter. On success a Round is created
// with an empty answer slot per current player and category; the caller is
// responsible for arming the deadline timer.
func (r *Room) SelectLetter(id, letter string) *GameError {
	if r.Status != StatusLetterSelection {
		return errState("Letters cannot be selected right now.")
	}

	player := r.PlayerByID(id)
	if player == nil {
		return errResource("Player not found in this room.")
	}
	if current := r.CurrentPlayer(); current == nil || current.ID != id {
		return errAuth("It is not your turn to select a letter.")
	}

	letter = normalizeLetter(letter)
	if !r.Alphabet.Contains(letter) {
		return errValidation("That letter is not in the alphabet.")
	}
	if lo.Contains(r.UsedLetters, letter) {
		return errState("That letter has already been used.")
	}

	r.CurrentLetter = letter
	r.UsedLetters = append(r.UsedLetters, letter)
	r.Status = StatusPlaying

	round := &Round{
		Letter:    letter,
		Answers:   make(map[string]*PlayerAnswers, len(r.Players)),
		Results:   make(map[string]*PlayerResult, len(r.Players)),
		StartTime: time.Now(),
	}
	for _, p := range r.Players {
		slots := make(map[string]string, len(r.Categories))
		for _, category := range r.Categories {
			slots[category] = ""
		}
		round.Answers[p.ID] = &PlayerAnswers{Categories: slots}
	}
	r.Rounds = append(r.Rounds, round)
	r.touch()

	return nil
}

// SubmitAnswers records a player's answers for the current round. Keys that
// are not configured categories are ignored. Resubmitting overwrites earlier
// values; the submitted flag never flips back to false. Returns whether every
// player has now submitted.
func (r *Room) SubmitAnswers(id string, answers map[string]string) (bool, *GameError) {
	if r.Status != StatusPlaying {
		return false, errState("Answers cannot be submitted right now.")
	}

	player := r.PlayerByID(id)
	if player == nil {
		return false, errResource("Player not found in this room.")
	}

	round := r.CurrentRound()
	slot, ok := round.Answers[id]
	if !ok {
		// Joined after round start; no slot, nothing to score.
		return false, errState("You are not part of this round.")
	}

	slot.Submitted = true
	for category, answer := range answers {
		if _, known := slot.Categories[category]; known {
			slot.Categories[category] = strings.TrimSpace(answer)
		}
	}
	r.touch()

	allSubmitted := lo.EveryBy(lo.Values(round.Answers), func(a *PlayerAnswers) bool {
		return a.Submitted
	})
	return allSubmitted, nil
}

// EndRound closes answer collection, either because everyone submitted or
// because the deadline fired. Unsubmitted players keep their empty slots and
// are scored as if they submitted nothing.
func (r *Room) EndRound() *GameError {
	if r.Status != StatusPlaying {
		return errState("There is no round in progress.")
	}

	round := r.CurrentRound()
	round.EndTime = time.Now()
	r.Status = StatusRoundResults
	r.touch()

	return nil
}

// ValidateAnswers applies the host's verdicts and scores the round. A
// verdict missing for a (player, category) pair counts as invalid, and an
// empty answer never scores even when marked valid. Returns whether the game
// ended as a result.
func (r *Room) ValidateAnswers(id string, verdicts map[string]map[string]bool) (bool, *GameError) {
	if r.Status != StatusRoundResults {
		return false, errState("There are no round results to validate.")
	}

	player := r.PlayerByID(id)
	if player == nil {
		return false, errResource("Player not found in this room.")
	}
	if !player.IsHost {
		return false, errAuth("Only the host can validate answers.")
	}

	round := r.CurrentRound()
	for _, p := range r.Players {
		slot, ok := round.Answers[p.ID]
		if !ok {
			continue
		}

		result := &PlayerResult{
			Categories: make(map[string]CategoryResult, len(r.Categories)),
		}
		for _, category := range r.Categories {
			answer := slot.Categories[category]
			isValid := verdicts[p.ID][category]

			if isValid && answer != "" {
				result.Score += r.settings.points
			}
			result.Categories[category] = CategoryResult{
				Answer:  answer,
				IsValid: isValid,
			}
		}

		p.Score += result.Score
		round.Results[p.ID] = result
	}
	r.touch()

	if r.shouldEnd() {
		r.Status = StatusGameEnd
		return true, nil
	}

	r.advanceTurn()
	r.Status = StatusLetterSelection
	return false, nil
}

func (r *Room) shouldEnd() bool {
	return len(r.Alphabet.Remaining(r.UsedLetters)) == 0 ||
		len(r.Rounds) >= r.settings.maxRounds
}

// advanceTurn moves the turn to the next connected player, probing
// circularly at most once around. If nobody is connected it falls back to
// index 0; the game stalls, which is fine since no one can act anyway.
func (r *Room) advanceTurn() {
	if len(r.Players) == 0 {
		r.CurrentPlayerIndex = 0
		return
	}

	next := r.CurrentPlayerIndex
	for tries := 0; ; {
		next = (next + 1) % len(r.Players)
		tries++

		if tries >= len(r.Players) {
			next = 0
			break
		}
		if r.Players[next].Connected {
			break
		}
	}
	r.CurrentPlayerIndex = next
}

// Reset returns a finished room to the lobby: scores, readiness, round
// history, used letters, and the turn index are all cleared.
func (r *Room) Reset(id string) *GameError {
	if r.Status != StatusGameEnd {
		return errState("The game is still in progress.")
	}

	player := r.PlayerByID(id)
	if player == nil {
		return errResource("Player not found in this room.")
	}
	if !player.IsHost {
		return errAuth("Only the host can start a new game.")
	}

	r.Status = StatusWaiting
	r.Rounds = nil
	r.UsedLetters = nil
	r.CurrentLetter = ""
	r.CurrentPlayerIndex = 0
	for _, p := range r.Players {
		p.Score = 0
		p.Ready = false
	}
	r.touch()

	return nil
}

type disconnectResult struct {
	username     string
	removed      bool
	wasHost      bool
	turnAdvanced bool
	empty        bool
}

// Disconnect handles a player's connection going away. In the lobby the
// player is removed outright (reassigning host if needed); mid-game they are
// kept with Connected=false so the game can continue without them, and the
// turn advances if it was theirs to select a letter.
func (r *Room) Disconnect(id string) (disconnectResult, bool) {
	index := -1
	for i, p := range r.Players {
		if p.ID == id {
			index = i
			break
		}
	}
	if index == -1 {
		return disconnectResult{}, false
	}

	player := r.Players[index]
	result := disconnectResult{
		username: player.Username,
		wasHost:  player.IsHost,
	}

	if r.Status != StatusWaiting {
		player.Connected = false
		if r.Status == StatusLetterSelection && r.CurrentPlayerIndex == index {
			r.advanceTurn()
			result.turnAdvanced = true
		}
		r.touch()
		return result, true
	}

	r.Players = append(r.Players[:index], r.Players[index+1:]...)
	result.removed = true
	result.empty = len(r.Players) == 0

	if result.wasHost && len(r.Players) > 0 {
		r.Players[0].IsHost = true
	}
	r.touch()

	return result, true
}

// Winner is the highest-scoring player; ties go to whoever joined first.
func (r *Room) Winner() *Player {
	return lo.MaxBy(r.Players, func(a, b *Player) bool {
		return a.Score > b.Score
	})
}

// PlayersList copies the roster for broadcasting.
func (r *Room) PlayersList() []Player {
	return lo.Map(r.Players, func(p *Player, _ int) Player {
		return *p
	})
}

func (r *Room) ConnectedCount() int {
	return lo.CountBy(r.Players, func(p *Player) bool {
		return p.Connected
	})
}

// RoomInfo is the public snapshot served by the debug API.
type RoomInfo struct {
	Code          string    `json:"code"`
	Players       []Player  `json:"players"`
	Categories    []string  `json:"categories"`
	Status        Status    `json:"status"`
	CurrentLetter string    `json:"currentLetter,omitempty"`
	UsedLetters   []string  `json:"usedLetters"`
	RoundsPlayed  int       `json:"roundsPlayed"`
	CreatedAt     time.Time `json:"createdAt"`
	LastActivity  time.Time `json:"lastActivity"`
}

func (r *Room) PublicInfo() RoomInfo {
	return RoomInfo{
		Code:          r.Code,
		Players:       r.PlayersList(),
		Categories:    r.Categories,
		Status:        r.Status,
		CurrentLetter: r.CurrentLetter,
		UsedLetters:   append([]string(nil), r.UsedLetters...),
		RoundsPlayed:  len(r.Rounds),
		CreatedAt:     r.CreatedAt,
		LastActivity:  r.LastActivity,
	}
}
