package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// PaymentCardRepository stores the destination card clients pay to.
type PaymentCardRepository interface {
	// Current returns the most recently updated card.
	Current(ctx context.Context) (*domain.PaymentCard, error)
	Upsert(ctx context.Context, card *domain.PaymentCard) error
}

type paymentCardRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentCardRepository instantiates repository.
func NewPaymentCardRepository(pool *pgxpool.Pool) PaymentCardRepository {
	return &paymentCardRepository{pool: pool}
}

func (r *paymentCardRepository) Current(ctx context.Context) (*domain.PaymentCard, error) {
	const query = `
        SELECT admin_id, card_number, card_holder, updated_at
        FROM payment_cards ORDER BY updated_at DESC LIMIT 1`
	var card domain.PaymentCard
	if err := r.pool.QueryRow(ctx, query).Scan(
		&card.AdminID,
		&card.CardNumber,
		&card.CardHolder,
		&card.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &card, nil
}

func (r *paymentCardRepository) Upsert(ctx context.Context, card *domain.PaymentCard) error {
	const query = `
        INSERT INTO payment_cards (admin_id, card_number, card_holder, updated_at)
        VALUES ($1,$2,$3,NOW())
        ON CONFLICT (admin_id) DO UPDATE
        SET card_number=EXCLUDED.card_number, card_holder=EXCLUDED.card_holder, updated_at=NOW()
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, card.AdminID, card.CardNumber, card.CardHolder).Scan(&card.UpdatedAt)
}
