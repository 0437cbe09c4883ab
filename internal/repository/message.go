package repository

import (
	"context"

	"github.com/IlyaM70/JustMessanger/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// Insert stores a single message and returns its store-assigned id.
func (r *MessageRepository) Insert(ctx context.Context, msg *model.Message) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO messages (sender_id, recipient_id, text, sent_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, msg.SenderID, msg.RecipientID, msg.Text, msg.SentAt).Scan(&id)
	return id, err
}

// GetConversation returns every message between the two users, in either
// direction, oldest first. Ties on sent_at fall back to insertion order.
func (r *MessageRepository) GetConversation(ctx context.Context, userID, otherUserID string) ([]model.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, sender_id, recipient_id, text, sent_at
		FROM messages
		WHERE (sender_id = $1 AND recipient_id = $2)
		   OR (sender_id = $2 AND recipient_id = $1)
		ORDER BY sent_at ASC, id ASC
	`, userID, otherUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Text, &m.SentAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// GetContacts returns each conversation partner of the user with the latest
// message exchanged, most recent conversation first.
func (r *MessageRepository) GetContacts(ctx context.Context, userID string) ([]model.Contact, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (partner) partner, text, sent_at
		FROM (
			SELECT CASE WHEN sender_id = $1 THEN recipient_id ELSE sender_id END AS partner,
			       text, sent_at, id
			FROM messages
			WHERE sender_id = $1 OR recipient_id = $1
		) m
		ORDER BY partner, sent_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.UserID, &c.LastMessage, &c.LastMessageAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (r *MessageRepository) CountTotal(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}
