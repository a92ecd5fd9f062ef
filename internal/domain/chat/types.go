package chat

// Package chat contains domain-level types for assistant conversations.

import "time"

// Chart is an optional visualisation attached to an assistant response.
// Data is kept loosely typed; the rendering surface decides what to do
// with it.
type Chart struct {
	Type  string         `json:"type"`
	Title string         `json:"title"`
	Data  map[string]any `json:"data"`
}

// Response is one generated assistant reply.
type Response struct {
	Content string  `json:"content"`
	Charts  []Chart `json:"charts,omitempty"`
}

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is a single entry in a conversation.
type Message struct {
	From    Sender
	Content string
	Charts  []Chart
	At      time.Time
}

// Conversation is a user-scoped exchange history. It is cached in memory
// only and purged whenever the session ends.
type Conversation struct {
	ID       string
	Title    string
	Messages []Message
	Started  time.Time
}
