package models

import "time"

// ChatMessage is a single community chat line.
type ChatMessage struct {
	ID             string    `json:"id"`
	SenderUsername string    `json:"senderUsername"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	IsSystem       bool      `json:"isSystem,omitempty"`
}
