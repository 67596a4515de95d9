package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ecoloopkenya/ecoloop/internal/model"
	"github.com/ecoloopkenya/ecoloop/internal/server/middleware"
	"github.com/ecoloopkenya/ecoloop/internal/store"
)

// MessageHandler serves buyer-seller messaging threads.
type MessageHandler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(st *store.Store, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{store: st, logger: logger}
}

// Conversations lists the caller's threads, most recent first.
// GET /api/messages/conversations
func (h *MessageHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		writeFail(w, http.StatusUnauthorized, "authentication required")
		return
	}

	conversations, err := h.store.ListConversations(r.Context(), principal.Email)
	if err != nil {
		h.logger.Error("conversation list failed", "email", principal.Email, "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	writeOK(w, http.StatusOK, envelope{"conversations": conversations})
}

// Conversation returns the thread between the caller and another account.
// GET /api/messages/conversation/{otherEmail}
func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		writeFail(w, http.StatusUnauthorized, "authentication required")
		return
	}

	other := normalizeEmail(chi.URLParam(r, "otherEmail"))
	if other == "" {
		writeFail(w, http.StatusBadRequest, "other participant email is required")
		return
	}

	conversation, err := h.store.GetConversation(r.Context(), model.ThreadID(principal.Email, other))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// An empty thread rather than an error, so clients can
			// render a fresh conversation view.
			writeOK(w, http.StatusOK, envelope{"messages": []model.Message{}})
			return
		}
		h.logger.Error("conversation fetch failed", "email", principal.Email, "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to fetch conversation")
		return
	}

	writeOK(w, http.StatusOK, envelope{
		"conversationId": conversation.ThreadID,
		"messages":       conversation.Messages,
	})
}

// sendMessageRequest is the expected payload for sending a message.
type sendMessageRequest struct {
	Receiver  string `json:"receiver"`
	Subject   string `json:"subject"`
	Content   string `json:"content"`
	ProductID string `json:"productId"`
}

// Send appends a message to the thread between the caller and the
// receiver, creating the thread if it does not exist yet.
// POST /api/messages/send
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		writeFail(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req sendMessageRequest
	if err := readJSON(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Receiver = normalizeEmail(req.Receiver)
	req.Content = strings.TrimSpace(req.Content)
	if req.Receiver == "" || req.Content == "" {
		writeFail(w, http.StatusBadRequest, "receiver and content are required")
		return
	}
	if req.Receiver == principal.Email {
		writeFail(w, http.StatusBadRequest, "cannot message yourself")
		return
	}

	msg := model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Sender:    principal.Email,
		Receiver:  req.Receiver,
		Subject:   strings.TrimSpace(req.Subject),
		Content:   req.Content,
		ProductID: req.ProductID,
		Timestamp: time.Now().UTC(),
	}
	conversation, err := h.store.AppendMessage(r.Context(), msg)
	if err != nil {
		h.logger.Error("message send failed", "sender", principal.Email, "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to send message")
		return
	}

	writeOK(w, http.StatusCreated, envelope{
		"message":        "Message sent.",
		"conversationId": conversation.ThreadID,
		"messageId":      msg.ID,
	})
}

// MarkRead clears the caller's unread counter on a thread.
// POST /api/messages/read/{conversationId}
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		writeFail(w, http.StatusUnauthorized, "authentication required")
		return
	}

	threadID := chi.URLParam(r, "conversationId")
	if !strings.Contains(threadID, principal.Email) {
		writeFail(w, http.StatusForbidden, "not a participant in this conversation")
		return
	}

	if err := h.store.MarkConversationRead(r.Context(), threadID, principal.Email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeFail(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.Error("mark read failed", "email", principal.Email, "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to mark conversation read")
		return
	}

	writeOK(w, http.StatusOK, envelope{"message": "Conversation marked read."})
}

// Unread returns the caller's total unread message count.
// GET /api/messages/unread
func (h *MessageHandler) Unread(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		writeFail(w, http.StatusUnauthorized, "authentication required")
		return
	}

	count, err := h.store.UnreadCount(r.Context(), principal.Email)
	if err != nil {
		h.logger.Error("unread count failed", "email", principal.Email, "error", err)
		writeFail(w, http.StatusInternalServerError, "failed to fetch unread count")
		return
	}

	writeOK(w, http.StatusOK, envelope{"unreadCount": count})
}
