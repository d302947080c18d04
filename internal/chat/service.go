package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"saturn-chat/internal/models"

	"go.uber.org/zap"
)

var (
	// ErrEmptyMessage is returned when the user text is empty after
	// trimming. Nothing is persisted on this path.
	ErrEmptyMessage = errors.New("empty message")
	// ErrGeneration wraps failures of the generation service.
	ErrGeneration = errors.New("generation failed")
)

// Store is the slice of the database the orchestrator needs. The sqlite
// store satisfies it; tests may substitute their own.
type Store interface {
	CreateChat() (*models.Chat, error)
	GetChat(id int64) (*models.Chat, error)
	SaveMessage(chatID int64, text string, sender models.Sender) (*models.Message, error)
	UpdateChatTitle(id int64, title string) error
}

// Generator produces a reply for a prompt. May fail or time out.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Service struct {
	store  Store
	gen    Generator
	logger *zap.Logger
}

func NewService(store Store, gen Generator, logger *zap.Logger) *Service {
	return &Service{store: store, gen: gen, logger: logger}
}

// TurnResult is what a completed turn hands back to the caller.
type TurnResult struct {
	ChatID int64
	Reply  string
}

// CompleteTurn runs one full exchange: resolve the chat (creating one when
// chatID is nil), generate a reply for the user text, persist the
// user/bot message pair, and derive the chat title on the first exchange.
//
// A generation failure leaves the message tables untouched. A persistence
// failure after generation succeeded is logged but does not withhold the
// reply from the caller; that inconsistency window is accepted.
func (s *Service) CompleteTurn(ctx context.Context, chatID *int64, userText string) (*TurnResult, error) {
	text := strings.TrimSpace(userText)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	var created *models.Chat
	var id int64
	if chatID == nil {
		chat, err := s.store.CreateChat()
		if err != nil {
			return nil, fmt.Errorf("create chat: %w", err)
		}
		created = chat
		id = chat.ID
	} else {
		// Trusted here; validated against the store when persisting.
		id = *chatID
	}

	reply, err := s.gen.Generate(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	s.persistExchange(id, created, text, reply)

	return &TurnResult{ChatID: id, Reply: reply}, nil
}

// persistExchange appends the user/bot pair and updates the title on a
// chat's first exchange. Errors are logged, never returned: by this point
// the reply already exists and belongs to the caller.
func (s *Service) persistExchange(id int64, created *models.Chat, text, reply string) {
	if _, err := s.store.SaveMessage(id, text, models.SenderUser); err != nil {
		s.logger.Error("failed to save user message",
			zap.Int64("chat_id", id), zap.Error(err))
		return
	}
	if _, err := s.store.SaveMessage(id, reply, models.SenderBot); err != nil {
		s.logger.Error("failed to save bot message",
			zap.Int64("chat_id", id), zap.Error(err))
		return
	}

	title := ""
	if created != nil {
		title = created.Title
	} else {
		chat, err := s.store.GetChat(id)
		if err != nil {
			s.logger.Error("failed to load chat for title check",
				zap.Int64("chat_id", id), zap.Error(err))
			return
		}
		title = chat.Title
	}

	// The sentinel title survives exactly until the first exchange.
	if title == models.DefaultTitle {
		if err := s.store.UpdateChatTitle(id, models.DeriveTitle(text)); err != nil {
			s.logger.Error("failed to update chat title",
				zap.Int64("chat_id", id), zap.Error(err))
		}
	}
}
