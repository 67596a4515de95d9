package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ecoloopkenya/ecoloop/internal/model"
)

// conversationRow maps 1:1 to the conversations table. The sorted participant
// pair is duplicated into two indexed columns so threads can be found by
// either side without unpacking the JSON.
type conversationRow struct {
	ID               int64     `db:"id"`
	ThreadID         string    `db:"thread_id"`
	ParticipantA     string    `db:"participant_a"`
	ParticipantB     string    `db:"participant_b"`
	ParticipantsJSON string    `db:"participants_json"`
	MessagesJSON     string    `db:"messages_json"`
	LastMessage      string    `db:"last_message"`
	LastTimestamp    time.Time `db:"last_timestamp"`
	ProductID        string    `db:"product_id"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r conversationRow) toModel() (model.Conversation, error) {
	c := model.Conversation{
		ID:            r.ID,
		ThreadID:      r.ThreadID,
		LastMessage:   r.LastMessage,
		LastTimestamp: r.LastTimestamp,
		ProductID:     r.ProductID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(r.ParticipantsJSON), &c.Participants); err != nil {
		return model.Conversation{}, fmt.Errorf("unmarshal participants: %w", err)
	}
	if err := json.Unmarshal([]byte(r.MessagesJSON), &c.Messages); err != nil {
		return model.Conversation{}, fmt.Errorf("unmarshal messages: %w", err)
	}
	return c, nil
}

// GetConversation returns a thread by its deterministic ID.
func (s *Store) GetConversation(ctx context.Context, threadID string) (*model.Conversation, error) {
	var row conversationRow
	q := s.rebind("SELECT * FROM conversations WHERE thread_id = ?")
	if err := s.db.GetContext(ctx, &row, q, threadID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	c, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListConversations returns every thread the given email participates in,
// most recently active first.
func (s *Store) ListConversations(ctx context.Context, email string) ([]model.Conversation, error) {
	var rows []conversationRow
	q := s.rebind(`SELECT * FROM conversations
		WHERE participant_a = ? OR participant_b = ?
		ORDER BY last_timestamp DESC`)
	if err := s.db.SelectContext(ctx, &rows, q, email, email); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	conversations := make([]model.Conversation, 0, len(rows))
	for _, r := range rows {
		c, err := r.toModel()
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}
	return conversations, nil
}

// AppendMessage adds a message to the thread between sender and receiver,
// creating the thread if this is the first message. Returns the updated
// conversation.
func (s *Store) AppendMessage(ctx context.Context, msg model.Message) (*model.Conversation, error) {
	threadID := model.ThreadID(msg.Sender, msg.Receiver)

	conv, err := s.GetConversation(ctx, threadID)
	switch {
	case errors.Is(err, ErrNotFound):
		now := time.Now().UTC()
		conv = &model.Conversation{
			ThreadID: threadID,
			Participants: []model.Participant{
				{Email: msg.Sender},
				{Email: msg.Receiver, UnreadCount: 1},
			},
			Messages:      []model.Message{msg},
			LastMessage:   msg.Content,
			LastTimestamp: msg.Timestamp,
			ProductID:     msg.ProductID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.insertConversation(ctx, conv); err != nil {
			return nil, err
		}
		return conv, nil

	case err != nil:
		return nil, err
	}

	conv.Messages = append(conv.Messages, msg)
	conv.LastMessage = msg.Content
	conv.LastTimestamp = msg.Timestamp
	for i := range conv.Participants {
		if conv.Participants[i].Email == msg.Receiver {
			conv.Participants[i].UnreadCount++
		}
	}
	if err := s.saveConversation(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// MarkConversationRead marks every message addressed to reader as read and
// clears the reader's unread counter.
func (s *Store) MarkConversationRead(ctx context.Context, threadID, reader string) error {
	conv, err := s.GetConversation(ctx, threadID)
	if err != nil {
		return err
	}

	for i := range conv.Messages {
		if conv.Messages[i].Receiver == reader {
			conv.Messages[i].Read = true
		}
	}
	for i := range conv.Participants {
		if conv.Participants[i].Email == reader {
			conv.Participants[i].UnreadCount = 0
		}
	}
	return s.saveConversation(ctx, conv)
}

// UnreadCount returns the number of unread messages addressed to email across
// all threads.
func (s *Store) UnreadCount(ctx context.Context, email string) (int, error) {
	conversations, err := s.ListConversations(ctx, email)
	if err != nil {
		return 0, err
	}
	total := 0
	for i := range conversations {
		total += conversations[i].UnreadFor(email)
	}
	return total, nil
}

func (s *Store) insertConversation(ctx context.Context, c *model.Conversation) error {
	participants, err := json.Marshal(c.Participants)
	if err != nil {
		return fmt.Errorf("marshal participants: %w", err)
	}
	messages, err := json.Marshal(c.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}

	// participant_a/participant_b hold the sorted pair, same order as the
	// thread ID derivation.
	a, b := c.Participants[0].Email, c.Participants[1].Email
	if a > b {
		a, b = b, a
	}

	q := s.rebind(`INSERT INTO conversations
		(thread_id, participant_a, participant_b, participants_json, messages_json,
		 last_message, last_timestamp, product_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	if err := s.db.QueryRowxContext(ctx, q,
		c.ThreadID, a, b, string(participants), string(messages),
		c.LastMessage, c.LastTimestamp, c.ProductID, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID); err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

func (s *Store) saveConversation(ctx context.Context, c *model.Conversation) error {
	participants, err := json.Marshal(c.Participants)
	if err != nil {
		return fmt.Errorf("marshal participants: %w", err)
	}
	messages, err := json.Marshal(c.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}

	c.UpdatedAt = time.Now().UTC()
	q := s.rebind(`UPDATE conversations SET
		participants_json = ?, messages_json = ?, last_message = ?,
		last_timestamp = ?, updated_at = ?
		WHERE thread_id = ?`)
	result, err := s.db.ExecContext(ctx, q,
		string(participants), string(messages), c.LastMessage,
		c.LastTimestamp, c.UpdatedAt, c.ThreadID)
	if err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return requireRow(result)
}
