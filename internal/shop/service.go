// Package shop holds the storefront rules shared by every conversation: user
// bootstrap, the catalog, orders and their settlement, and ledger writes.
package shop

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"chatshop/internal/core/cache"
	"chatshop/internal/domain"
	"chatshop/internal/repo"
)

const catalogKey = "catalog:active"

type Service struct {
	db       *gorm.DB
	cache    *cache.Cache
	cacheTTL time.Duration
	now      func() time.Time
	log      *zap.Logger
}

type Option func(*Service)

// WithCache serves the catalog through c; a nil cache disables caching.
func WithCache(c *cache.Cache, ttl time.Duration) Option {
	return func(s *Service) { s.cache, s.cacheTTL = c, ttl }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(db *gorm.DB, opts ...Option) *Service {
	s := &Service{db: db, cacheTTL: 5 * time.Minute, now: time.Now, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Session returns a Service bound to its own gorm session, so statements of
// one conversation never share builder state with another.
func (s *Service) Session() *Service {
	cp := *s
	cp.db = s.db.Session(&gorm.Session{NewDB: true})
	return &cp
}

func (s *Service) conn(ctx context.Context) *gorm.DB { return s.db.WithContext(ctx) }

func (s *Service) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.conn(ctx).Transaction(fn)
}

// Profile is what the chat platform tells us about a person.
type Profile struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
}

type Identity struct {
	User     *domain.User
	Admin    *domain.Admin
	Created  bool
	Promoted bool
}

// Bootstrap loads or creates the user behind a conversation. The very first
// user of an installation with no admins becomes the owner. An existing
// admin starts with live mode off.
func (s *Service) Bootstrap(ctx context.Context, p Profile, language string) (*Identity, error) {
	id := &Identity{}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		users := repo.NewUserRepo(tx)
		u, err := users.FindByID(p.ID)
		if err != nil {
			return err
		}
		if u == nil {
			u = &domain.User{
				ID:        p.ID,
				FirstName: p.FirstName,
				LastName:  p.LastName,
				Username:  p.Username,
				Language:  language,
			}
			if err := users.Create(u); err != nil {
				return err
			}
			id.Created = true
		} else if u.FirstName != p.FirstName || u.LastName != p.LastName || u.Username != p.Username {
			u.FirstName, u.LastName, u.Username = p.FirstName, p.LastName, p.Username
			if err := users.UpdateProfile(u); err != nil {
				return err
			}
		}
		id.User = u

		admins := repo.NewAdminRepo(tx)
		a, err := admins.FindByUserID(u.ID)
		if err != nil {
			return err
		}
		if a == nil {
			n, err := admins.Count()
			if err != nil {
				return err
			}
			if n > 0 {
				return nil
			}
			a = domain.NewOwner(u.ID)
			if err := admins.Create(a); err != nil {
				return err
			}
			a.User = *u
			id.Promoted = true
		} else if a.LiveMode {
			if err := admins.SetLiveMode(u.ID, false); err != nil {
				return err
			}
			a.LiveMode = false
		}
		id.Admin = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return id, nil
}

func (s *Service) User(ctx context.Context, id int64) (*domain.User, error) {
	return repo.NewUserRepo(s.conn(ctx)).FindByID(id)
}

func (s *Service) Users(ctx context.Context) ([]domain.User, error) {
	return repo.NewUserRepo(s.conn(ctx)).List()
}

func (s *Service) SetLanguage(ctx context.Context, userID int64, lang string) error {
	return repo.NewUserRepo(s.conn(ctx)).SetLanguage(userID, lang)
}
