package models

import (
	"time"
	"unicode/utf8"
)

// DefaultTitle is assigned to every new chat until its first exchange.
const DefaultTitle = "untitled"

// titleRunes is how much of the first user message becomes the title.
const titleRunes = 30

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderBot
}

type Chat struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Message struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	CreatedAt time.Time `json:"created_at"`
}

// DeriveTitle builds a chat title from the first user message: the first
// 30 characters, with "..." appended when the message is longer. Counts
// runes, not bytes, since messages are arbitrary user text.
func DeriveTitle(text string) string {
	if utf8.RuneCountInString(text) <= titleRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:titleRunes]) + "..."
}
