package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

const pendingPaymentIndex = "uq_payments_pending_per_chat"

// PaymentFilter captures admin listing parameters.
type PaymentFilter struct {
	Status *domain.PaymentAttemptStatus
	ChatID *int64
	Page   Page
}

// PaymentRepository persists client payment attempts together with the chat payment axis.
type PaymentRepository interface {
	// Submit locks the chat, lets fn build the attempt and stores both.
	Submit(ctx context.Context, chatID int64, fn func(chat *domain.Chat) (*domain.Payment, error)) (*domain.Payment, *domain.Chat, error)
	// Resolve locks the payment and its chat, applies fn and stores both.
	Resolve(ctx context.Context, paymentID int64, fn func(payment *domain.Payment, chat *domain.Chat) error) (*domain.Payment, *domain.Chat, error)
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	List(ctx context.Context, filter PaymentFilter) ([]domain.PaymentRecord, error)
}

type paymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository instantiates repository.
func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepository{pool: pool}
}

const paymentColumns = `id, chat_id, client_id, amount_cents, card_snapshot, status, resolved_by, resolved_at, created_at`

func (r *paymentRepository) Submit(ctx context.Context, chatID int64, fn func(chat *domain.Chat) (*domain.Payment, error)) (*domain.Payment, *domain.Chat, error) {
	var (
		payment *domain.Payment
		chat    *domain.Chat
	)
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		locked, err := lockChat(ctx, tx, chatID)
		if err != nil {
			return err
		}
		p, err := fn(locked)
		if err != nil {
			return err
		}

		const query = `
        INSERT INTO payments (chat_id, client_id, amount_cents, card_snapshot, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
		if err := tx.QueryRow(ctx, query,
			p.ChatID,
			p.ClientID,
			p.AmountCents,
			p.CardSnapshot,
			p.Status,
		).Scan(&p.ID, &p.CreatedAt); err != nil {
			if isUniqueViolation(err, pendingPaymentIndex) {
				return ErrPendingPaymentExists
			}
			return fmt.Errorf("insert payment: %w", err)
		}
		if err := updateChat(ctx, tx, locked); err != nil {
			return err
		}
		payment, chat = p, locked
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return payment, chat, nil
}

func (r *paymentRepository) Resolve(ctx context.Context, paymentID int64, fn func(payment *domain.Payment, chat *domain.Chat) error) (*domain.Payment, *domain.Chat, error) {
	var (
		payment *domain.Payment
		chat    *domain.Chat
	)
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1 FOR UPDATE`
		p, err := scanPayment(tx.QueryRow(ctx, query, paymentID))
		if err != nil {
			return notFound(err)
		}
		c, err := lockChat(ctx, tx, p.ChatID)
		if err != nil {
			return err
		}
		if err := fn(p, c); err != nil {
			return err
		}

		const update = `UPDATE payments SET status=$1, resolved_by=$2, resolved_at=$3 WHERE id=$4`
		if _, err := tx.Exec(ctx, update, p.Status, p.ResolvedBy, p.ResolvedAt, p.ID); err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		if err := updateChat(ctx, tx, c); err != nil {
			return err
		}
		payment, chat = p, c
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return payment, chat, nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	p, err := scanPayment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *paymentRepository) List(ctx context.Context, filter PaymentFilter) ([]domain.PaymentRecord, error) {
	base := `SELECT p.id, p.chat_id, p.client_id, p.amount_cents, p.card_snapshot, p.status,
                    p.resolved_by, p.resolved_at, p.created_at, u.username, c.service_name, c.payment_status
             FROM payments p
             JOIN chats c ON c.id = p.chat_id
             JOIN users u ON u.id = p.client_id`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("p.status=$%d", len(args)))
	}
	if filter.ChatID != nil {
		args = append(args, *filter.ChatID)
		clauses = append(clauses, fmt.Sprintf("p.chat_id=$%d", len(args)))
	}
	limit, offset := filter.Page.Normalized()

	query := fmt.Sprintf(`%s WHERE %s ORDER BY p.created_at DESC, p.id DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PaymentRecord
	for rows.Next() {
		var rec domain.PaymentRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.ChatID,
			&rec.ClientID,
			&rec.AmountCents,
			&rec.CardSnapshot,
			&rec.Status,
			&rec.ResolvedBy,
			&rec.ResolvedAt,
			&rec.CreatedAt,
			&rec.ClientUsername,
			&rec.ServiceName,
			&rec.ChatPaymentStatus,
		); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	if err := row.Scan(
		&p.ID,
		&p.ChatID,
		&p.ClientID,
		&p.AmountCents,
		&p.CardSnapshot,
		&p.Status,
		&p.ResolvedBy,
		&p.ResolvedAt,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
