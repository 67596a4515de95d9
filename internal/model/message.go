package model

import (
	"sort"
	"strings"
	"time"
)

// Conversation is a message thread between two participants, usually a buyer
// and a seller discussing a product. The thread ID is derived from the
// participant emails so the same pair always lands in the same document.
type Conversation struct {
	ID            int64         `json:"-" db:"id"`
	ThreadID      string        `json:"id" db:"thread_id"`
	Participants  []Participant `json:"participants"`
	Messages      []Message     `json:"messages"`
	LastMessage   string        `json:"last_message" db:"last_message"`
	LastTimestamp time.Time     `json:"last_timestamp" db:"last_timestamp"`
	ProductID     string        `json:"product_id,omitempty" db:"product_id"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// Participant is one side of a conversation with its unread counter.
type Participant struct {
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	UnreadCount int    `json:"unread_count"`
}

// Message is a single message within a conversation.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Subject   string    `json:"subject,omitempty"`
	Content   string    `json:"content"`
	ProductID string    `json:"product_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// ThreadID returns the deterministic conversation ID for a participant pair:
// the two emails sorted and joined with an underscore.
func ThreadID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, "_")
}

// UnreadFor counts messages addressed to email that have not been read.
func (c *Conversation) UnreadFor(email string) int {
	n := 0
	for _, m := range c.Messages {
		if m.Receiver == email && !m.Read {
			n++
		}
	}
	return n
}
