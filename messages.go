package main

// Messages coming from clients. One tagged union; fields beyond Type are
// only meaningful for the operations that name them.
type ClientMessage struct {
	Type        string                     `json:"type"`                  // "create_room", "join_room", "ready", "select_letter", "submit_answers", "validate_answers", "new_game"
	Username    string                     `json:"username,omitempty"`    // create_room / join_room
	RoomCode    string                     `json:"roomCode,omitempty"`    // join_room
	Letter      string                     `json:"letter,omitempty"`      // select_letter
	Answers     map[string]string          `json:"answers,omitempty"`     // submit_answers
	Validations map[string]map[string]bool `json:"validations,omitempty"` // validate_answers
}

// Sent to a single client when an operation fails. Message is user-facing.
type ErrorMessage struct {
	Type    string    `json:"type"` // "error"
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func newErrorMessage(err *GameError) ErrorMessage {
	return ErrorMessage{
		Type:    "error",
		Kind:    err.Kind,
		Message: err.Message,
	}
}

// Sent to the creator once their room exists and they are its host.
type RoomCreatedMessage struct {
	Type       string   `json:"type"` // "room_created"
	RoomCode   string   `json:"roomCode"`
	Players    []Player `json:"players"`
	Categories []string `json:"categories"`
	Alphabet   Alphabet `json:"alphabet"`
	IsHost     bool     `json:"isHost"`
}

// Sent to a joining client; everyone else gets a PlayerUpdateMessage.
type RoomJoinedMessage struct {
	Type       string   `json:"type"` // "room_joined"
	RoomCode   string   `json:"roomCode"`
	Players    []Player `json:"players"`
	Categories []string `json:"categories"`
	Alphabet   Alphabet `json:"alphabet"`
	IsHost     bool     `json:"isHost"`
}

// Broadcast whenever the roster changes: joins, readiness, disconnects,
// host reassignment.
type PlayerUpdateMessage struct {
	Type    string   `json:"type"` // "player_update"
	Players []Player `json:"players"`
}

// Broadcast when the lobby guard passes and letter selection begins.
type GameStartedMessage struct {
	Type          string   `json:"type"` // "game_started"
	Status        Status   `json:"status"`
	CurrentPlayer Player   `json:"currentPlayer"`
	Alphabet      Alphabet `json:"alphabet"`
	UsedLetters   []string `json:"usedLetters"`
}

// Broadcast when the turn-holder picks a letter and the answer clock starts.
type RoundStartedMessage struct {
	Type       string   `json:"type"` // "round_started"
	Letter     string   `json:"letter"`
	RoundTime  int      `json:"roundTime"` // seconds
	Categories []string `json:"categories"`
	Round      int      `json:"round"` // 1-based
}

// Sent only to the submitter as an acknowledgement.
type AnswersReceivedMessage struct {
	Type string `json:"type"` // "answers_received"
}

// Broadcast to the rest of the room when one player has submitted.
type PlayerSubmittedMessage struct {
	Type     string `json:"type"` // "player_submitted"
	Username string `json:"username"`
}

// Broadcast when answer collection closes, by submission or deadline.
// Hints flag whether each answer starts with the round's letter; the host
// still decides validity.
type RoundEndedMessage struct {
	Type       string                     `json:"type"` // "round_ended"
	Letter     string                     `json:"letter"`
	Categories []string                   `json:"categories"`
	Answers    map[string]*PlayerAnswers  `json:"answers"`
	Hints      map[string]map[string]bool `json:"hints"`
}

// Broadcast after host validation when the game continues.
type RoundValidatedMessage struct {
	Type               string                   `json:"type"` // "round_validated"
	Players            []Player                 `json:"players"`
	Results            map[string]*PlayerResult `json:"results"`
	Status             Status                   `json:"status"`
	CurrentPlayerIndex int                      `json:"currentPlayerIndex"`
	CurrentPlayer      Player                   `json:"currentPlayer"`
	UsedLetters        []string                 `json:"usedLetters"`
}

// Broadcast after host validation when no letters remain or the round cap
// was hit.
type GameEndedMessage struct {
	Type        string                   `json:"type"` // "game_ended"
	Players     []Player                 `json:"players"`
	Results     map[string]*PlayerResult `json:"results"`
	Winner      Player                   `json:"winner"`
	UsedLetters []string                 `json:"usedLetters"`
	Rounds      int                      `json:"rounds"`
}

// Broadcast when the turn-holder disconnects during letter selection and
// the turn moves on without any player acting.
type TurnChangedMessage struct {
	Type               string `json:"type"` // "turn_changed"
	CurrentPlayerIndex int    `json:"currentPlayerIndex"`
	CurrentPlayer      Player `json:"currentPlayer"`
}

// Broadcast when the host resets a finished game back to the lobby.
type RoomResetMessage struct {
	Type       string   `json:"type"` // "room_reset"
	Players    []Player `json:"players"`
	Categories []string `json:"categories"`
}
