package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CompensationRepository owns the staff payout ledger. Every write re-derives
// the member's total_earned from the ledger inside the same transaction.
type CompensationRepository interface {
	Credit(ctx context.Context, memberID int64, fn func(member *domain.StaffMember) (*domain.StaffPayment, error)) (*domain.StaffPayment, *domain.StaffMember, error)
	Reverse(ctx context.Context, paymentID int64) (*domain.StaffPayment, *domain.StaffMember, error)
	Recompute(ctx context.Context, memberID int64) (*domain.StaffMember, error)
	ListByMember(ctx context.Context, memberID int64) ([]domain.StaffPayment, error)
}

type compensationRepository struct {
	pool *pgxpool.Pool
}

// NewCompensationRepository instantiates the repository.
func NewCompensationRepository(pool *pgxpool.Pool) CompensationRepository {
	return &compensationRepository{pool: pool}
}

func (r *compensationRepository) Credit(ctx context.Context, memberID int64, fn func(member *domain.StaffMember) (*domain.StaffPayment, error)) (*domain.StaffPayment, *domain.StaffMember, error) {
	var (
		entry  *domain.StaffPayment
		member *domain.StaffMember
	)
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		locked, err := lockMember(ctx, tx, memberID)
		if err != nil {
			return err
		}
		e, err := fn(locked)
		if err != nil {
			return err
		}
		const query = `
        INSERT INTO staff_payments (member_id, amount_cents, description, admin_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
		if err := tx.QueryRow(ctx, query,
			e.MemberID,
			e.AmountCents,
			e.Description,
			e.AdminID,
		).Scan(&e.ID, &e.CreatedAt); err != nil {
			return fmt.Errorf("insert staff payment: %w", err)
		}
		if err := refreshTotal(ctx, tx, locked); err != nil {
			return err
		}
		entry, member = e, locked
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return entry, member, nil
}

func (r *compensationRepository) Reverse(ctx context.Context, paymentID int64) (*domain.StaffPayment, *domain.StaffMember, error) {
	var (
		entry  *domain.StaffPayment
		member *domain.StaffMember
	)
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var memberID int64
		if err := tx.QueryRow(ctx, `SELECT member_id FROM staff_payments WHERE id=$1`, paymentID).Scan(&memberID); err != nil {
			return notFound(err)
		}
		locked, err := lockMember(ctx, tx, memberID)
		if err != nil {
			return err
		}

		const query = `
        DELETE FROM staff_payments WHERE id=$1 AND member_id=$2
        RETURNING id, member_id, amount_cents, description, admin_id, created_at`
		var e domain.StaffPayment
		if err := tx.QueryRow(ctx, query, paymentID, memberID).Scan(
			&e.ID,
			&e.MemberID,
			&e.AmountCents,
			&e.Description,
			&e.AdminID,
			&e.CreatedAt,
		); err != nil {
			return notFound(err)
		}
		if err := refreshTotal(ctx, tx, locked); err != nil {
			return err
		}
		entry, member = &e, locked
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return entry, member, nil
}

func (r *compensationRepository) Recompute(ctx context.Context, memberID int64) (*domain.StaffMember, error) {
	var member *domain.StaffMember
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		locked, err := lockMember(ctx, tx, memberID)
		if err != nil {
			return err
		}
		if err := refreshTotal(ctx, tx, locked); err != nil {
			return err
		}
		member = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (r *compensationRepository) ListByMember(ctx context.Context, memberID int64) ([]domain.StaffPayment, error) {
	const query = `
        SELECT id, member_id, amount_cents, description, admin_id, created_at
        FROM staff_payments WHERE member_id=$1 ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, query, memberID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.StaffPayment, error) {
		var e domain.StaffPayment
		err := row.Scan(&e.ID, &e.MemberID, &e.AmountCents, &e.Description, &e.AdminID, &e.CreatedAt)
		return e, err
	})
}

func refreshTotal(ctx context.Context, tx pgx.Tx, member *domain.StaffMember) error {
	const query = `
        UPDATE team_members
        SET total_earned_cents = (SELECT COALESCE(SUM(amount_cents), 0) FROM staff_payments WHERE member_id=$1)
        WHERE id=$1
        RETURNING total_earned_cents`
	if err := tx.QueryRow(ctx, query, member.ID).Scan(&member.TotalEarnedCents); err != nil {
		return fmt.Errorf("refresh total earned: %w", err)
	}
	return nil
}
