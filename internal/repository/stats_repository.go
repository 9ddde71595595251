package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// StatsRepository computes read-only aggregates for the admin overview.
type StatsRepository interface {
	Overview(ctx context.Context) (*domain.Overview, error)
}

type statsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository instantiates the repository.
func NewStatsRepository(pool *pgxpool.Pool) StatsRepository {
	return &statsRepository{pool: pool}
}

func (r *statsRepository) Overview(ctx context.Context) (*domain.Overview, error) {
	batch := &pgx.Batch{}
	batch.Queue(`SELECT status, COUNT(*) FROM chats GROUP BY status`)
	batch.Queue(`SELECT payment_status, COUNT(*) FROM chats GROUP BY payment_status`)
	batch.Queue(`SELECT COUNT(*), COALESCE(SUM(amount_cents), 0) FROM payments WHERE status='completed'`)
	batch.Queue(`SELECT COALESCE(SUM(total_earned_cents), 0) FROM team_members`)
	batch.Queue(`SELECT COUNT(*) FROM team_members WHERE status='pending'`)

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	out := &domain.Overview{
		ChatsByStatus:        map[domain.ChatStatus]int64{},
		ChatsByPaymentStatus: map[domain.PaymentStatus]int64{},
	}

	rows, err := br.Query()
	if err != nil {
		return nil, fmt.Errorf("chats by status: %w", err)
	}
	for rows.Next() {
		var (
			status domain.ChatStatus
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, err
		}
		out.ChatsByStatus[status] = count
	}
	rows.Close()

	rows, err = br.Query()
	if err != nil {
		return nil, fmt.Errorf("chats by payment status: %w", err)
	}
	for rows.Next() {
		var (
			status domain.PaymentStatus
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, err
		}
		out.ChatsByPaymentStatus[status] = count
	}
	rows.Close()

	if err := br.QueryRow().Scan(&out.CompletedPayments, &out.CompletedPaymentsCents); err != nil {
		return nil, fmt.Errorf("completed payments: %w", err)
	}
	if err := br.QueryRow().Scan(&out.StaffEarnedCents); err != nil {
		return nil, fmt.Errorf("staff earned: %w", err)
	}
	if err := br.QueryRow().Scan(&out.PendingRegistrations); err != nil {
		return nil, fmt.Errorf("pending registrations: %w", err)
	}
	return out, nil
}
