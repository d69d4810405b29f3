package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"mentorly/api/internal/ids"
	"mentorly/api/internal/models"
	"mentorly/api/internal/repository"
)

var (
	ErrEmptyContent   = errors.New("message content required")
	ErrContentTooLong = errors.New("message content too long")
	ErrSelfMessage    = errors.New("cannot message yourself")
	ErrNotAuthorized  = errors.New("not authorized")
	ErrMessageNotFound = errors.New("message not found")
)

// MessageStore is what the messaging service needs from persistence. The
// store does not enforce who may flip read state; this service is the sole
// authorization boundary for that.
type MessageStore interface {
	Insert(ctx context.Context, msg models.Message) (models.Message, error)
	GetByID(ctx context.Context, id string) (models.Message, error)
	MarkRead(ctx context.Context, id string, readAt time.Time) (models.Message, error)
	ListConversation(ctx context.Context, conversationID string, afterSeq int64, limit int) ([]models.Message, error)
	ListConversationsFor(ctx context.Context, identityID string) ([]models.ConversationSummary, error)
	CountUnread(ctx context.Context, identityID string) (int, error)
}

type MessagingService struct {
	store      MessageStore
	maxContent int
	pageSize   int
	log        zerolog.Logger
}

func NewMessagingService(store MessageStore, maxContent, pageSize int, log zerolog.Logger) *MessagingService {
	if maxContent <= 0 {
		maxContent = 2000
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	return &MessagingService{store: store, maxContent: maxContent, pageSize: pageSize, log: log}
}

// Send validates and persists a message. The conversation id is always
// recomputed from the participant pair here; a caller-supplied value is
// never trusted.
func (s *MessagingService) Send(ctx context.Context, senderID string, senderRole models.Role, receiverID string, receiverRole models.Role, content string) (models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return models.Message{}, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > s.maxContent {
		return models.Message{}, ErrContentTooLong
	}
	if senderID == receiverID {
		return models.Message{}, ErrSelfMessage
	}

	msg := models.Message{
		ID:             ids.New(),
		ConversationID: models.ConversationID(senderID, receiverID),
		SenderID:       senderID,
		SenderRole:     senderRole,
		ReceiverID:     receiverID,
		ReceiverRole:   receiverRole,
		Content:        content,
	}

	return s.store.Insert(ctx, msg)
}

// ListConversationWith pages through the conversation between the requester
// and a counterpart, chronological ascending. The returned cursor is the seq
// of the last message, or 0 when the page was empty.
func (s *MessagingService) ListConversationWith(ctx context.Context, requesterID, counterpartID string, afterSeq int64) ([]models.Message, int64, error) {
	conversationID := models.ConversationID(requesterID, counterpartID)

	messages, err := s.store.ListConversation(ctx, conversationID, afterSeq, s.pageSize)
	if err != nil {
		return nil, 0, err
	}

	var next int64
	if len(messages) > 0 {
		next = messages[len(messages)-1].Seq
	}
	return messages, next, nil
}

// MarkRead flips a message to read. Only the receiver may do so; a repeat
// call by the receiver is a successful no-op and returns the message as-is.
func (s *MessagingService) MarkRead(ctx context.Context, messageID, readerID string) (models.Message, error) {
	msg, err := s.store.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return models.Message{}, ErrMessageNotFound
		}
		return models.Message{}, err
	}

	if msg.ReceiverID != readerID {
		return models.Message{}, ErrNotAuthorized
	}
	if msg.IsRead {
		return msg, nil
	}

	updated, err := s.store.MarkRead(ctx, messageID, time.Now())
	if err != nil {
		// Lost the race against another mark of the same message; the end
		// state is what matters.
		if errors.Is(err, repository.ErrMessageNotFound) {
			return s.store.GetByID(ctx, messageID)
		}
		return models.Message{}, err
	}
	return updated, nil
}

func (s *MessagingService) Conversations(ctx context.Context, identityID string) ([]models.ConversationSummary, error) {
	return s.store.ListConversationsFor(ctx, identityID)
}

// CountUnread is the polled unread counter: recomputed per call, never
// cached server-side.
func (s *MessagingService) CountUnread(ctx context.Context, identityID string) (int, error) {
	return s.store.CountUnread(ctx, identityID)
}
