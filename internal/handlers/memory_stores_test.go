package handlers

import (
	"context"
	"sort"
	"sync"
	"time"

	"mentorly/api/internal/models"
	"mentorly/api/internal/repository"
)

// memoryMessageStore mirrors the conditional-update semantics of the pgx
// store so the full service path can run against it.
type memoryMessageStore struct {
	mu       sync.Mutex
	messages []models.Message
	nextSeq  int64
}

func (m *memoryMessageStore) Insert(_ context.Context, msg models.Message) (models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSeq++
	msg.Seq = m.nextSeq
	msg.CreatedAt = time.Now()
	m.messages = append(m.messages, msg)
	return msg, nil
}

func (m *memoryMessageStore) GetByID(_ context.Context, id string) (models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ID == id {
			return msg, nil
		}
	}
	return models.Message{}, repository.ErrMessageNotFound
}

func (m *memoryMessageStore) MarkRead(_ context.Context, id string, readAt time.Time) (models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, msg := range m.messages {
		if msg.ID == id && !msg.IsRead {
			m.messages[i].IsRead = true
			m.messages[i].ReadAt = &readAt
			return m.messages[i], nil
		}
	}
	return models.Message{}, repository.ErrMessageNotFound
}

func (m *memoryMessageStore) ListConversation(_ context.Context, conversationID string, afterSeq int64, limit int) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Message
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID && msg.Seq > afterSeq {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryMessageStore) ListConversationsFor(_ context.Context, identityID string) ([]models.ConversationSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := make(map[string]models.Message)
	unread := make(map[string]int)
	for _, msg := range m.messages {
		if msg.SenderID != identityID && msg.ReceiverID != identityID {
			continue
		}
		if cur, ok := latest[msg.ConversationID]; !ok || msg.Seq > cur.Seq {
			latest[msg.ConversationID] = msg
		}
		if msg.ReceiverID == identityID && !msg.IsRead {
			unread[msg.ConversationID]++
		}
	}

	var out []models.ConversationSummary
	for id, msg := range latest {
		counterpart := msg.SenderID
		if counterpart == identityID {
			counterpart = msg.ReceiverID
		}
		out = append(out, models.ConversationSummary{
			ConversationID: id,
			CounterpartID:  counterpart,
			LastMessage:    msg.Content,
			LastActivity:   msg.CreatedAt,
			UnreadCount:    unread[id],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActivity.After(out[j].LastActivity) })
	return out, nil
}

func (m *memoryMessageStore) CountUnread(_ context.Context, identityID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, msg := range m.messages {
		if msg.ReceiverID == identityID && !msg.IsRead {
			count++
		}
	}
	return count, nil
}

type memoryForumStore struct {
	mu    sync.Mutex
	posts []models.Post
}

func (m *memoryForumStore) Create(_ context.Context, post models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	post.CreatedAt = time.Now()
	m.posts = append(m.posts, post)
	return nil
}

func (m *memoryForumStore) List(_ context.Context, limit, offset int) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sorted := make([]models.Post, len(m.posts))
	copy(sorted, m.posts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	if offset >= len(sorted) {
		return nil, nil
	}
	sorted = sorted[offset:]
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (m *memoryForumStore) GetByID(_ context.Context, id string) (models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, post := range m.posts {
		if post.ID == id {
			return post, nil
		}
	}
	return models.Post{}, repository.ErrPostNotFound
}

func (m *memoryForumStore) SetFlagged(_ context.Context, id string, flagged bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, post := range m.posts {
		if post.ID == id {
			m.posts[i].Flagged = flagged
			return nil
		}
	}
	return repository.ErrPostNotFound
}

func (m *memoryForumStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, post := range m.posts {
		if post.ID == id {
			m.posts = append(m.posts[:i], m.posts[i+1:]...)
			return nil
		}
	}
	return repository.ErrPostNotFound
}
