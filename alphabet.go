package main

import (
	"strings"

	"github.com/samber/lo"
)

// Alphabet is the ordered set of letters a room draws from. Entries may be
// digraphs (LJ, NJ, DŽ), so letters are compared as whole strings, never as
// single runes.
type Alphabet []string

// Serbian Latin, 30 letters including the three digraphs.
func defaultAlphabet() Alphabet {
	return Alphabet{
		"A", "B", "C", "Č", "Ć", "D", "DŽ", "Đ", "E", "F",
		"G", "H", "I", "J", "K", "L", "LJ", "M", "N", "NJ",
		"O", "P", "R", "S", "Š", "T", "U", "V", "Z", "Ž",
	}
}

func defaultCategories() []string {
	return []string{
		"Zastava",
		"Država",
		"Grad",
		"Reka",
		"Planina",
		"Biljka",
		"Životinja",
		"Hrana",
		"Predmet",
		"Zanimanje",
	}
}

func normalizeLetter(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func (a Alphabet) Contains(letter string) bool {
	return lo.Contains(a, normalizeLetter(letter))
}

func (a Alphabet) Remaining(used []string) []string {
	return lo.Filter(a, func(letter string, _ int) bool {
		return !lo.Contains(used, letter)
	})
}

// answerMatchesLetter reports whether an answer starts with the round's
// letter. Digraph letters match on the first two runes. This is only ever a
// hint for the moderator; the server never rejects an answer based on it.
func answerMatchesLetter(answer, letter string) bool {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return false
	}
	letter = normalizeLetter(letter)
	runes := []rune(strings.ToUpper(answer))
	if len(runes) < len([]rune(letter)) {
		return false
	}
	return string(runes[:len([]rune(letter))]) == letter
}
