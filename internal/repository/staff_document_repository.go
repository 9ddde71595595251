package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// StaffDocumentRepository stores documents uploaded by staff members.
type StaffDocumentRepository interface {
	Create(ctx context.Context, doc *domain.StaffDocument) error
	GetByID(ctx context.Context, id int64) (*domain.StaffDocument, error)
	ListByMember(ctx context.Context, memberID int64) ([]domain.StaffDocument, error)
}

type staffDocumentRepository struct {
	pool *pgxpool.Pool
}

// NewStaffDocumentRepository instantiates the repository.
func NewStaffDocumentRepository(pool *pgxpool.Pool) StaffDocumentRepository {
	return &staffDocumentRepository{pool: pool}
}

func (r *staffDocumentRepository) Create(ctx context.Context, doc *domain.StaffDocument) error {
	const query = `
        INSERT INTO staff_documents (member_id, name, document_type, handle, description)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, uploaded_at`
	return r.pool.QueryRow(ctx, query,
		doc.MemberID,
		doc.Name,
		doc.DocumentType,
		doc.Handle,
		doc.Description,
	).Scan(&doc.ID, &doc.UploadedAt)
}

func (r *staffDocumentRepository) GetByID(ctx context.Context, id int64) (*domain.StaffDocument, error) {
	const query = `
        SELECT id, member_id, name, document_type, handle, description, uploaded_at
        FROM staff_documents WHERE id=$1`
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	doc, err := pgx.CollectExactlyOneRow(rows, scanDocument)
	if err != nil {
		return nil, notFound(err)
	}
	return &doc, nil
}

func (r *staffDocumentRepository) ListByMember(ctx context.Context, memberID int64) ([]domain.StaffDocument, error) {
	const query = `
        SELECT id, member_id, name, document_type, handle, description, uploaded_at
        FROM staff_documents WHERE member_id=$1 ORDER BY uploaded_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, query, memberID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanDocument)
}

func scanDocument(row pgx.CollectableRow) (domain.StaffDocument, error) {
	var doc domain.StaffDocument
	err := row.Scan(
		&doc.ID,
		&doc.MemberID,
		&doc.Name,
		&doc.DocumentType,
		&doc.Handle,
		&doc.Description,
		&doc.UploadedAt,
	)
	return doc, err
}
