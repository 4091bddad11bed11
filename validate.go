package main

import (
	"regexp"
	"strings"
)

// Boundary validation for inbound payloads. Anything that fails here is
// rejected before it reaches the room state machine.

const (
	usernameMinLength = 2
	usernameMaxLength = 20
	roomCodeLength    = 6
)

var (
	usernameRegex = regexp.MustCompile(`^[\p{L}\p{N} _-]+$`)
	roomCodeRegex = regexp.MustCompile(`^[A-Z0-9]{6}$`)
)

func validUsername(username string) bool {
	trimmed := strings.TrimSpace(username)
	length := len([]rune(trimmed))
	if length < usernameMinLength || length > usernameMaxLength {
		return false
	}
	return usernameRegex.MatchString(trimmed)
}

func validRoomCode(code string) bool {
	return roomCodeRegex.MatchString(code)
}

func validLetter(alphabet Alphabet, letter string) bool {
	trimmed := strings.TrimSpace(letter)
	if trimmed == "" || len([]rune(trimmed)) > 2 {
		return false
	}
	return alphabet.Contains(trimmed)
}

// validVerdicts checks a host validation payload: every referenced player
// must be in the room and every category must be one the room plays with.
// Missing players or categories are fine; the engine treats absence as an
// invalid verdict.
func validVerdicts(verdicts map[string]map[string]bool, players []*Player, categories []string) bool {
	if verdicts == nil {
		return false
	}
	for playerID, perCategory := range verdicts {
		found := false
		for _, p := range players {
			if p.ID == playerID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
		for category := range perCategory {
			if !containsString(categories, category) {
				return false
			}
		}
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, entry := range list {
		if entry == s {
			return true
		}
	}
	return false
}
