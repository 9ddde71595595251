package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// MessageRepository manages the append-only chat log.
type MessageRepository interface {
	// Append locks the chat, lets fn apply the reply transition, inserts msg
	// and persists the chat in one unit.
	Append(ctx context.Context, msg *domain.Message, fn func(chat *domain.Chat) error) (*domain.Chat, error)
	// List returns messages with id > afterID in ascending id order.
	List(ctx context.Context, chatID, afterID int64, limit int) ([]domain.Message, error)
	GetByID(ctx context.Context, chatID, messageID int64) (*domain.Message, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository builds repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Append(ctx context.Context, msg *domain.Message, fn func(chat *domain.Chat) error) (*domain.Chat, error) {
	var chat *domain.Chat
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		locked, err := lockChat(ctx, tx, msg.ChatID)
		if err != nil {
			return err
		}
		if fn != nil {
			if err := fn(locked); err != nil {
				return err
			}
		}
		if err := insertMessage(ctx, tx, msg); err != nil {
			return err
		}
		locked.LastMessageAt = msg.CreatedAt
		if err := updateChat(ctx, tx, locked); err != nil {
			return err
		}
		chat = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chat, nil
}

func insertMessage(ctx context.Context, tx pgx.Tx, msg *domain.Message) error {
	const query = `
        INSERT INTO messages (chat_id, sender_id, text, attachment_type, attachment_filename, attachment_size)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`

	var (
		attType *domain.AttachmentType
		handle  *string
		size    *int64
	)
	if a := msg.Attachment; a != nil {
		attType, handle, size = &a.Type, &a.Handle, &a.SizeBytes
	}
	if err := tx.QueryRow(ctx, query,
		msg.ChatID,
		msg.SenderID,
		msg.Text,
		attType,
		handle,
		size,
	).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

const messageColumns = `id, chat_id, sender_id, text, attachment_type, attachment_filename, attachment_size, created_at`

func (r *messageRepository) List(ctx context.Context, chatID, afterID int64, limit int) ([]domain.Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT ` + messageColumns + `
        FROM messages WHERE chat_id=$1 AND id>$2 ORDER BY id ASC LIMIT $3`
	rows, err := r.pool.Query(ctx, query, chatID, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *msg)
	}
	return result, rows.Err()
}

func (r *messageRepository) GetByID(ctx context.Context, chatID, messageID int64) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE chat_id=$1 AND id=$2`
	msg, err := scanMessage(r.pool.QueryRow(ctx, query, chatID, messageID))
	if err != nil {
		return nil, notFound(err)
	}
	return msg, nil
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var (
		msg     domain.Message
		attType *string
		handle  *string
		size    *int64
	)
	if err := row.Scan(
		&msg.ID,
		&msg.ChatID,
		&msg.SenderID,
		&msg.Text,
		&attType,
		&handle,
		&size,
		&msg.CreatedAt,
	); err != nil {
		return nil, err
	}
	if handle != nil {
		att := &domain.Attachment{Handle: *handle, Type: domain.AttachmentFile}
		if attType != nil {
			att.Type = domain.AttachmentType(*attType)
		}
		if size != nil {
			att.SizeBytes = *size
		}
		msg.Attachment = att
	}
	return &msg, nil
}
