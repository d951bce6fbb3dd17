// Package domain holds the vocabulary bot's shared value types and error taxonomy.
package domain

import "strings"

// UserID is a Telegram user id. It partitions every vocabulary.
type UserID int64

// WordEntry is a dictionary-confirmed word with its first definition.
// Only Word and Meaning are always set.
type WordEntry struct {
	Word         string `json:"word" db:"word"`
	Meaning      string `json:"meaning" db:"meaning"`
	PartOfSpeech string `json:"part_of_speech,omitempty" db:"part_of_speech"`
	Example      string `json:"example,omitempty" db:"example"`
	Phonetic     string `json:"phonetic,omitempty" db:"phonetic"`
}

// Valid reports whether the entry has both a word and a meaning.
func (e WordEntry) Valid() bool {
	return strings.TrimSpace(e.Word) != "" && strings.TrimSpace(e.Meaning) != ""
}

// NormalizeText trims, lowercases and collapses inner whitespace runs to one space.
func NormalizeText(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}
