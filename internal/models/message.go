package models

import (
	"strings"
	"time"
)

// Message is a direct message between two identities. Seq is a database
// sequence used to break createdAt ties so conversation order is stable.
type Message struct {
	ID             string
	Seq            int64
	ConversationID string
	SenderID       string
	SenderRole     Role
	ReceiverID     string
	ReceiverRole   Role
	Content        string
	IsRead         bool
	ReadAt         *time.Time
	CreatedAt      time.Time
}

// ConversationSummary is one inbox row per counterpart.
type ConversationSummary struct {
	ConversationID  string
	CounterpartID   string
	CounterpartName string
	CounterpartRole Role
	LastMessage     string
	LastSenderID    string
	LastActivity    time.Time
	UnreadCount     int
}

// ConversationID derives the canonical id for the pair of participants.
// Both directions map to the same id: the two ids are sorted before joining,
// and the result is never accepted from a caller.
func ConversationID(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + ":" + b
}
