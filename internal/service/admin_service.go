package service

import (
	"context"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

// AdminService serves dashboard aggregates.
type AdminService struct {
	stats repository.StatsRepository
}

// NewAdminService constructs the service.
func NewAdminService(stats repository.StatsRepository) *AdminService {
	return &AdminService{stats: stats}
}

// Overview returns counts across chats, payments and onboarding.
func (s *AdminService) Overview(ctx context.Context, actor domain.Actor) (*domain.Overview, error) {
	if err := auth.Authorize(actor, auth.OpOverview, auth.Target{}); err != nil {
		return nil, err
	}
	overview, err := s.stats.Overview(ctx)
	if err != nil {
		return nil, mapError(err, "overview")
	}
	return overview, nil
}
