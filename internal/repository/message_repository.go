package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mentorly/api/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

const messageColumns = `
	id, seq, conversation_id, sender_id, sender_role, receiver_id, receiver_role,
	content, is_read, read_at, created_at
`

// Insert persists a new message and returns it with the database-assigned
// seq and created_at, so callers see the ordering the store committed.
func (r *MessageRepository) Insert(ctx context.Context, msg models.Message) (models.Message, error) {
	const query = `
		INSERT INTO messages (
			id, conversation_id, sender_id, sender_role, receiver_id, receiver_role,
			content, is_read, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, FALSE, NOW()
		)
		RETURNING seq, created_at
	`

	row := r.pool.QueryRow(ctx, query,
		msg.ID,
		msg.ConversationID,
		msg.SenderID,
		msg.SenderRole,
		msg.ReceiverID,
		msg.ReceiverRole,
		msg.Content,
	)
	if err := row.Scan(&msg.Seq, &msg.CreatedAt); err != nil {
		return models.Message{}, err
	}
	msg.IsRead = false
	msg.ReadAt = nil
	return msg, nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id string) (models.Message, error) {
	const query = `
		SELECT ` + messageColumns + `
		FROM messages WHERE id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// MarkRead flips is_read false→true as a single conditional update. A row
// that is already read is not matched; the caller treats that as the
// idempotent no-op case after re-reading the row.
func (r *MessageRepository) MarkRead(ctx context.Context, id string, readAt time.Time) (models.Message, error) {
	const query = `
		UPDATE messages SET is_read = TRUE, read_at = $2
		WHERE id = $1 AND is_read = FALSE
		RETURNING ` + messageColumns + `
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id, readAt))
}

// ListConversation returns one chronological page. The cursor is the seq of
// the last message of the previous page; seq also breaks created_at ties.
func (r *MessageRepository) ListConversation(ctx context.Context, conversationID string, afterSeq int64, limit int) ([]models.Message, error) {
	const query = `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = $1 AND seq > $2
		ORDER BY created_at ASC, seq ASC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, conversationID, afterSeq, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		msg, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// ListConversationsFor builds the inbox: one row per counterpart with the
// latest message and that conversation's unread count, most recent first.
func (r *MessageRepository) ListConversationsFor(ctx context.Context, identityID string) ([]models.ConversationSummary, error) {
	const latest = `
		SELECT DISTINCT ON (m.conversation_id)
			m.conversation_id,
			CASE WHEN m.sender_id = $1 THEN m.receiver_id ELSE m.sender_id END,
			CASE WHEN m.sender_id = $1 THEN m.receiver_role ELSE m.sender_role END,
			COALESCE(u.display_name, ''),
			m.content,
			m.sender_id,
			m.created_at
		FROM messages m
		LEFT JOIN users u
			ON u.id = CASE WHEN m.sender_id = $1 THEN m.receiver_id ELSE m.sender_id END
		WHERE m.sender_id = $1 OR m.receiver_id = $1
		ORDER BY m.conversation_id, m.seq DESC
	`

	rows, err := r.pool.Query(ctx, latest, identityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []models.ConversationSummary
	for rows.Next() {
		var s models.ConversationSummary
		if err := rows.Scan(
			&s.ConversationID,
			&s.CounterpartID,
			&s.CounterpartRole,
			&s.CounterpartName,
			&s.LastMessage,
			&s.LastSenderID,
			&s.LastActivity,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	unread, err := r.unreadByConversation(ctx, identityID)
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		summaries[i].UnreadCount = unread[summaries[i].ConversationID]
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastActivity.After(summaries[j].LastActivity)
	})
	return summaries, nil
}

func (r *MessageRepository) unreadByConversation(ctx context.Context, identityID string) (map[string]int, error) {
	const query = `
		SELECT conversation_id, COUNT(*)
		FROM messages
		WHERE receiver_id = $1 AND is_read = FALSE
		GROUP BY conversation_id
	`

	rows, err := r.pool.Query(ctx, query, identityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			conversationID string
			count          int
		)
		if err := rows.Scan(&conversationID, &count); err != nil {
			return nil, err
		}
		counts[conversationID] = count
	}
	return counts, rows.Err()
}

// CountUnread recomputes the receiver's unread total on every call; the
// result is eventually consistent with concurrent sends and reads.
func (r *MessageRepository) CountUnread(ctx context.Context, identityID string) (int, error) {
	const query = `
		SELECT COUNT(*) FROM messages
		WHERE receiver_id = $1 AND is_read = FALSE
	`
	var count int
	if err := r.pool.QueryRow(ctx, query, identityID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MessageRepository) scanOne(row pgx.Row) (models.Message, error) {
	var msg models.Message
	if err := row.Scan(
		&msg.ID,
		&msg.Seq,
		&msg.ConversationID,
		&msg.SenderID,
		&msg.SenderRole,
		&msg.ReceiverID,
		&msg.ReceiverRole,
		&msg.Content,
		&msg.IsRead,
		&msg.ReadAt,
		&msg.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Message{}, ErrMessageNotFound
		}
		return models.Message{}, err
	}
	return msg, nil
}
