package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// StaffFilter defines query params for member listing.
type StaffFilter struct {
	Status *domain.StaffStatus
	Page   Page
}

// StaffRepository handles persistence for onboarding profiles.
type StaffRepository interface {
	Create(ctx context.Context, member *domain.StaffMember) error
	GetByID(ctx context.Context, id int64) (*domain.StaffMember, error)
	GetByUsername(ctx context.Context, username string) (*domain.StaffMember, error)
	List(ctx context.Context, filter StaffFilter) ([]domain.StaffMember, error)
	// Review locks the member and applies fn. A returned user is inserted and
	// linked in the same unit; a username collision rolls everything back.
	Review(ctx context.Context, id int64, fn func(member *domain.StaffMember) (*domain.User, error)) (*domain.StaffMember, error)
	// Delete removes the member, its documents, ledger and identity, and
	// returns the blob handles it referenced.
	Delete(ctx context.Context, id int64) ([]string, error)
}

type staffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{pool: pool}
}

const memberColumns = `id, first_name, last_name, position, contract_handle, username, email, password_hash,
               status, total_earned_cents, user_id, created_at`

func (r *staffRepository) Create(ctx context.Context, member *domain.StaffMember) error {
	const query = `
        INSERT INTO team_members (first_name, last_name, position, contract_handle, username, email, password_hash, status)
        SELECT $1,$2,$3,$4,$5,$6,$7,$8
        WHERE NOT EXISTS (SELECT 1 FROM users WHERE username=$5)
        RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		member.FirstName,
		member.LastName,
		member.Position,
		member.ContractHandle,
		member.Username,
		member.Email,
		member.PasswordHash,
		member.Status,
	).Scan(&member.ID, &member.CreatedAt)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows), isUniqueViolation(err, ""):
		return ErrHandleTaken
	default:
		return fmt.Errorf("insert member: %w", err)
	}
}

func (r *staffRepository) GetByID(ctx context.Context, id int64) (*domain.StaffMember, error) {
	query := `SELECT ` + memberColumns + ` FROM team_members WHERE id=$1`
	return scanMember(r.pool.QueryRow(ctx, query, id))
}

func (r *staffRepository) GetByUsername(ctx context.Context, username string) (*domain.StaffMember, error) {
	query := `SELECT ` + memberColumns + ` FROM team_members WHERE username=$1`
	return scanMember(r.pool.QueryRow(ctx, query, username))
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.StaffMember, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	limit, offset := filter.Page.Normalized()

	query := fmt.Sprintf(`SELECT %s FROM team_members WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		memberColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StaffMember
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *member)
	}
	return result, rows.Err()
}

func (r *staffRepository) Review(ctx context.Context, id int64, fn func(member *domain.StaffMember) (*domain.User, error)) (*domain.StaffMember, error) {
	var member *domain.StaffMember
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		locked, err := lockMember(ctx, tx, id)
		if err != nil {
			return err
		}
		user, err := fn(locked)
		if err != nil {
			return err
		}
		if user != nil {
			if err := tx.QueryRow(ctx, insertUserQuery,
				user.Username,
				user.Email,
				user.PasswordHash,
				user.Role,
				user.MemberID,
			).Scan(&user.ID, &user.CreatedAt); err != nil {
				if isUniqueViolation(err, "") {
					return ErrHandleTaken
				}
				return fmt.Errorf("insert staff user: %w", err)
			}
			locked.UserID = &user.ID
		}
		const update = `UPDATE team_members SET status=$1, user_id=$2 WHERE id=$3`
		if _, err := tx.Exec(ctx, update, locked.Status, locked.UserID, locked.ID); err != nil {
			return fmt.Errorf("update member: %w", err)
		}
		member = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (r *staffRepository) Delete(ctx context.Context, id int64) ([]string, error) {
	var handles []string
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		member, err := lockMember(ctx, tx, id)
		if err != nil {
			return err
		}
		handles = append(handles, member.ContractHandle)

		rows, err := tx.Query(ctx, `SELECT handle FROM staff_documents WHERE member_id=$1`, id)
		if err != nil {
			return err
		}
		docHandles, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("collect document handles: %w", err)
		}
		handles = append(handles, docHandles...)

		if _, err := tx.Exec(ctx, `DELETE FROM team_members WHERE id=$1`, id); err != nil {
			return fmt.Errorf("delete member: %w", err)
		}
		if member.UserID != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id=$1`, *member.UserID); err != nil {
				return fmt.Errorf("delete staff user: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return handles, nil
}

func lockMember(ctx context.Context, tx pgx.Tx, id int64) (*domain.StaffMember, error) {
	query := `SELECT ` + memberColumns + ` FROM team_members WHERE id=$1 FOR UPDATE`
	return scanMember(tx.QueryRow(ctx, query, id))
}

func scanMember(row pgx.Row) (*domain.StaffMember, error) {
	var m domain.StaffMember
	if err := row.Scan(
		&m.ID,
		&m.FirstName,
		&m.LastName,
		&m.Position,
		&m.ContractHandle,
		&m.Username,
		&m.Email,
		&m.PasswordHash,
		&m.Status,
		&m.TotalEarnedCents,
		&m.UserID,
		&m.CreatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}
