package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// ChatFilter captures listing parameters.
type ChatFilter struct {
	ClientID     *int64
	Status       *domain.ChatStatus
	WaitingFirst bool
	Page         Page
}

// ChatRepository encapsulates chat persistence.
type ChatRepository interface {
	// Create stores the chat and, when first is non-nil, its opening message in one unit.
	Create(ctx context.Context, chat *domain.Chat, first *domain.Message) error
	GetByID(ctx context.Context, id int64) (*domain.Chat, error)
	List(ctx context.Context, filter ChatFilter) ([]domain.ChatSummary, error)
	// Mutate locks the chat row, applies fn and persists the result. Nothing
	// is written when fn fails.
	Mutate(ctx context.Context, id int64, fn func(chat *domain.Chat) error) (*domain.Chat, error)
}

type chatRepository struct {
	pool *pgxpool.Pool
}

// NewChatRepository instantiates repository.
func NewChatRepository(pool *pgxpool.Pool) ChatRepository {
	return &chatRepository{pool: pool}
}

const chatColumns = `id, client_id, staff_id, service_name, status, order_price_cents, payment_status, created_at, last_message_at`

func (r *chatRepository) Create(ctx context.Context, chat *domain.Chat, first *domain.Message) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
        INSERT INTO chats (client_id, service_name, status, payment_status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, last_message_at`
		if err := tx.QueryRow(ctx, query,
			chat.ClientID,
			chat.ServiceName,
			chat.Status,
			chat.PaymentStatus,
		).Scan(&chat.ID, &chat.CreatedAt, &chat.LastMessageAt); err != nil {
			return fmt.Errorf("insert chat: %w", err)
		}
		if first == nil {
			return nil
		}
		first.ChatID = chat.ID
		return insertMessage(ctx, tx, first)
	})
}

func (r *chatRepository) GetByID(ctx context.Context, id int64) (*domain.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id=$1`
	return scanChat(r.pool.QueryRow(ctx, query, id))
}

func (r *chatRepository) Mutate(ctx context.Context, id int64, fn func(chat *domain.Chat) error) (*domain.Chat, error) {
	var chat *domain.Chat
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		locked, err := lockChat(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(locked); err != nil {
			return err
		}
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

func (r *chatRepository) List(ctx context.Context, filter ChatFilter) ([]domain.ChatSummary, error) {
	base := `SELECT c.id, c.client_id, c.staff_id, c.service_name, c.status, c.order_price_cents,
                    c.payment_status, c.created_at, c.last_message_at, u.username,
                    (SELECT COUNT(*) FROM messages m WHERE m.chat_id = c.id),
                    (SELECT m.text FROM messages m WHERE m.chat_id = c.id ORDER BY m.id DESC LIMIT 1)
             FROM chats c JOIN users u ON u.id = c.client_id`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		clauses = append(clauses, fmt.Sprintf("c.client_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("c.status=$%d", len(args)))
	}

	order := "c.last_message_at DESC, c.id DESC"
	if filter.WaitingFirst {
		order = "(c.status = 'waiting') DESC, " + order
	}
	limit, offset := filter.Page.Normalized()

	query := fmt.Sprintf(`%s WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), order, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ChatSummary
	for rows.Next() {
		var s domain.ChatSummary
		if err := rows.Scan(
			&s.ID,
			&s.ClientID,
			&s.StaffID,
			&s.ServiceName,
			&s.Status,
			&s.OrderPriceCents,
			&s.PaymentStatus,
			&s.CreatedAt,
			&s.LastMessageAt,
			&s.ClientUsername,
			&s.MessageCount,
			&s.LastMessage,
		); err != nil {
			return nil, err
		}
		s.LastActivityAt = s.LastMessageAt
		result = append(result, s)
	}
	return result, rows.Err()
}

func lockChat(ctx context.Context, tx pgx.Tx, id int64) (*domain.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id=$1 FOR UPDATE`
	return scanChat(tx.QueryRow(ctx, query, id))
}

func updateChat(ctx context.Context, tx pgx.Tx, chat *domain.Chat) error {
	const query = `
        UPDATE chats SET staff_id=$1, status=$2, order_price_cents=$3, payment_status=$4, last_message_at=$5
        WHERE id=$6`
	cmd, err := tx.Exec(ctx, query,
		chat.StaffID,
		chat.Status,
		chat.OrderPriceCents,
		chat.PaymentStatus,
		chat.LastMessageAt,
		chat.ID,
	)
	if err != nil {
		return fmt.Errorf("update chat: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanChat(row pgx.Row) (*domain.Chat, error) {
	var chat domain.Chat
	if err := row.Scan(
		&chat.ID,
		&chat.ClientID,
		&chat.StaffID,
		&chat.ServiceName,
		&chat.Status,
		&chat.OrderPriceCents,
		&chat.PaymentStatus,
		&chat.CreatedAt,
		&chat.LastMessageAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &chat, nil
}
