package models

import (
	"time"

	"github.com/google/uuid"
)

type Chat struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	CreationDate string    `json:"creation_date"`
}

// Created parses CreationDate, which the backend sends either as RFC 3339 or
// as a naive "2006-01-02T15:04:05[.ffffff]" timestamp.
func (c Chat) Created() (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02"} {
		if t, err := time.Parse(layout, c.CreationDate); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type ChatCreate struct {
	Name   string    `json:"name"`
	UserID uuid.UUID `json:"user_id"`
}

// Message is one side of an exchange. FromUser is false for assistant replies.
type Message struct {
	Content  string `json:"content"`
	FromUser bool   `json:"from_user"`
}

// StoredMessage is a message as returned by the backend.
type StoredMessage struct {
	ID uuid.UUID `json:"id"`
	Message
}

type GenerateResponse struct {
	Response struct {
		Content string `json:"content"`
	} `json:"response"`
}

// ChatSummary is a chat with the figures shown in the history list.
type ChatSummary struct {
	Chat
	MessageCount int
	LastMessage  string
}
