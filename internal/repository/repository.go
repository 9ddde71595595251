package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrHandleTaken is returned when a username is already used by a user or staff member.
	ErrHandleTaken = errors.New("username already taken")
	// ErrPendingPaymentExists is returned when a chat already has a pending payment row.
	ErrPendingPaymentExists = errors.New("chat already has a pending payment")
)

// Repositories bundles every store the services depend on.
type Repositories struct {
	Users        UserRepository
	Chats        ChatRepository
	Messages     MessageRepository
	Payments     PaymentRepository
	Cards        PaymentCardRepository
	Staff        StaffRepository
	Documents    StaffDocumentRepository
	Compensation CompensationRepository
	Stats        StatsRepository
}

// NewPostgresRepositories wires the Postgres-backed implementations.
func NewPostgresRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Users:        NewUserRepository(pool),
		Chats:        NewChatRepository(pool),
		Messages:     NewMessageRepository(pool),
		Payments:     NewPaymentRepository(pool),
		Cards:        NewPaymentCardRepository(pool),
		Staff:        NewStaffRepository(pool),
		Documents:    NewStaffDocumentRepository(pool),
		Compensation: NewCompensationRepository(pool),
		Stats:        NewStatsRepository(pool),
	}
}

// Page bounds a listing query.
type Page struct {
	Limit  int
	Offset int
}

// Normalized returns the effective limit and offset.
func (p Page) Normalized() (limit, offset int) {
	limit = p.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset = p.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func inTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
