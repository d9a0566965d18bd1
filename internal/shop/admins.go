package shop

import (
	"context"

	"chatshop/internal/domain"
	"chatshop/internal/repo"
)

// Admin returns nil, nil for users without admin rights.
func (s *Service) Admin(ctx context.Context, userID int64) (*domain.Admin, error) {
	return repo.NewAdminRepo(s.conn(ctx)).FindByUserID(userID)
}

func (s *Service) SaveAdmin(ctx context.Context, a *domain.Admin) error {
	return repo.NewAdminRepo(s.conn(ctx)).Save(a)
}

func (s *Service) SetLiveMode(ctx context.Context, userID int64, on bool) error {
	return repo.NewAdminRepo(s.conn(ctx)).SetLiveMode(userID, on)
}

// ResetLiveModes clears every live flag left over from a previous run.
func (s *Service) ResetLiveModes(ctx context.Context) error {
	return repo.NewAdminRepo(s.conn(ctx)).ResetLiveMode()
}

// LiveAdmins are the admins currently receiving order notifications.
func (s *Service) LiveAdmins(ctx context.Context) ([]domain.Admin, error) {
	return repo.NewAdminRepo(s.conn(ctx)).ListLive()
}

// Shopkeepers are the admins listed on the help screen.
func (s *Service) Shopkeepers(ctx context.Context) ([]domain.Admin, error) {
	return repo.NewAdminRepo(s.conn(ctx)).ListOnHelp()
}
