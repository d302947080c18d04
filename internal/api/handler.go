package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"saturn-chat/internal/chat"
	"saturn-chat/internal/db"
	"saturn-chat/internal/models"

	"go.uber.org/zap"
)

type Handler struct {
	db     *db.Database
	chat   *chat.Service
	logger *zap.Logger
}

func NewHandler(database *db.Database, chatService *chat.Service, logger *zap.Logger) *Handler {
	return &Handler{
		db:     database,
		chat:   chatService,
		logger: logger,
	}
}

// Routes builds the full API surface with middleware applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.Health)
	mux.HandleFunc("GET /api/chats", h.ListChats)
	mux.HandleFunc("POST /api/chats", h.CreateChat)
	mux.HandleFunc("GET /api/chats/{id}", h.GetChat)
	mux.HandleFunc("DELETE /api/chats/{id}", h.DeleteChat)
	mux.HandleFunc("POST /api/chat", h.SendMessage)

	return chainMiddlewares(mux, withRequestID(h.logger), withCORS)
}

type chatSummary struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	UpdatedAt string `json:"updatedAt"`
}

type messageView struct {
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	CreatedAt string `json:"created_at"`
}

type chatDetail struct {
	ID        int64         `json:"id"`
	Title     string        `json:"title"`
	CreatedAt string        `json:"created_at"`
	UpdatedAt string        `json:"updated_at"`
	Messages  []messageView `json:"messages"`
}

type sendMessageRequest struct {
	Message string `json:"message"`
	ChatID  *int64 `json:"chatId"`
}

func summarize(c models.Chat) chatSummary {
	return chatSummary{
		ID:        c.ID,
		Title:     c.Title,
		UpdatedAt: c.UpdatedAt.Format(timeLayout),
	}
}

const timeLayout = "2006-01-02 15:04:05"

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Saturn chat server is running\n"))
}

func (h *Handler) ListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.db.ListChats()
	if err != nil {
		h.logger.Error("failed to list chats", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to list chats")
		return
	}

	summaries := make([]chatSummary, 0, len(chats))
	for _, c := range chats {
		summaries = append(summaries, summarize(c))
	}
	h.writeJSON(w, http.StatusOK, summaries)
}

func (h *Handler) CreateChat(w http.ResponseWriter, r *http.Request) {
	c, err := h.db.CreateChat()
	if err != nil {
		h.logger.Error("failed to create chat", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to create chat")
		return
	}
	h.writeJSON(w, http.StatusCreated, summarize(*c))
}

func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	id, ok := h.chatID(w, r)
	if !ok {
		return
	}

	c, messages, err := h.db.GetChatWithMessages(id)
	if errors.Is(err, db.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "chat not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get chat", zap.Int64("chat_id", id), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to get chat")
		return
	}

	detail := chatDetail{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt.Format(timeLayout),
		UpdatedAt: c.UpdatedAt.Format(timeLayout),
		Messages:  make([]messageView, 0, len(messages)),
	}
	for _, m := range messages {
		detail.Messages = append(detail.Messages, messageView{
			Text:      m.Text,
			Sender:    string(m.Sender),
			CreatedAt: m.CreatedAt.Format(timeLayout),
		})
	}
	h.writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	id, ok := h.chatID(w, r)
	if !ok {
		return
	}

	err := h.db.DeleteChat(id)
	if errors.Is(err, db.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "chat not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to delete chat", zap.Int64("chat_id", id), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to delete chat")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.chat.CompleteTurn(r.Context(), req.ChatID, req.Message)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		h.writeError(w, http.StatusBadRequest, "no message provided")
		return
	case errors.Is(err, chat.ErrGeneration):
		h.logger.Error("failed to generate reply", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to generate reply")
		return
	case err != nil:
		h.logger.Error("failed to complete turn", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"reply": result.Reply})
}

func (h *Handler) chatID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid chat id")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
