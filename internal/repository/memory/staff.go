package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

type staffRepo struct{ s *Store }

func (r *staffRepo) Create(_ context.Context, member *domain.StaffMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.handleTaken(member.Username) {
		return repository.ErrHandleTaken
	}
	member.ID = r.s.next("members")
	member.CreatedAt = r.s.now()
	r.s.members[member.ID] = cloneMember(member)
	return nil
}

func (r *staffRepo) GetByID(_ context.Context, id int64) (*domain.StaffMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.members[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneMember(m), nil
}

func (r *staffRepo) GetByUsername(_ context.Context, username string) (*domain.StaffMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m := r.s.memberByName(username)
	if m == nil {
		return nil, repository.ErrNotFound
	}
	return cloneMember(m), nil
}

func (r *staffRepo) List(_ context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.StaffMember
	for _, m := range r.s.members {
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		out = append(out, *cloneMember(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, filter.Page), nil
}

func (r *staffRepo) Review(_ context.Context, id int64, fn func(member *domain.StaffMember) (*domain.User, error)) (*domain.StaffMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.members[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	working := cloneMember(m)
	user, err := fn(working)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if r.s.userByName(user.Username) != nil {
			return nil, repository.ErrHandleTaken
		}
		r.s.insertUser(user)
		working.UserID = &user.ID
	}
	r.s.members[id] = cloneMember(working)
	return working, nil
}

func (r *staffRepo) Delete(_ context.Context, id int64) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.members[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	handles := []string{m.ContractHandle}
	for docID, d := range r.s.docs {
		if d.MemberID == id {
			handles = append(handles, d.Handle)
			delete(r.s.docs, docID)
		}
	}
	for payoutID, p := range r.s.payouts {
		if p.MemberID == id {
			delete(r.s.payouts, payoutID)
		}
	}
	if m.UserID != nil {
		delete(r.s.users, *m.UserID)
	}
	delete(r.s.members, id)
	return handles, nil
}

type documentRepo struct{ s *Store }

func (r *documentRepo) Create(_ context.Context, doc *domain.StaffDocument) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.members[doc.MemberID]; !ok {
		return repository.ErrNotFound
	}
	doc.ID = r.s.next("documents")
	doc.UploadedAt = r.s.now()
	cp := *doc
	r.s.docs[doc.ID] = &cp
	return nil
}

func (r *documentRepo) GetByID(_ context.Context, id int64) (*domain.StaffDocument, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *documentRepo) ListByMember(_ context.Context, memberID int64) ([]domain.StaffDocument, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.StaffDocument
	for _, d := range r.s.docs {
		if d.MemberID == memberID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}
