package shop

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"chatshop/internal/core/cache"
	"chatshop/internal/domain"
	"chatshop/internal/repo"
)

// Catalog returns every product that is not deleted, including those not for sale.
func (s *Service) Catalog(ctx context.Context) ([]domain.Product, error) {
	return cache.GetOrLoadJSON(s.cache, ctx, catalogKey, s.cacheTTL, func(ctx context.Context) ([]domain.Product, error) {
		return repo.NewProductRepo(s.conn(ctx)).ListActive()
	})
}

// ForSale filters the catalog down to products with a price.
func ForSale(products []domain.Product) []domain.Product {
	var out []domain.Product
	for _, p := range products {
		if p.ForSale() {
			out = append(out, p)
		}
	}
	return out
}

func (s *Service) Product(ctx context.Context, id uint64) (*domain.Product, error) {
	return repo.NewProductRepo(s.conn(ctx)).FindByID(id)
}

// NameTaken reports whether another active product already uses name.
func (s *Service) NameTaken(ctx context.Context, name string, exceptID uint64) (bool, error) {
	p, err := repo.NewProductRepo(s.conn(ctx)).FindActiveByName(name)
	if err != nil {
		return false, err
	}
	return p != nil && p.ID != exceptID, nil
}

// SaveProduct creates or updates p, refusing names used by another active product.
func (s *Service) SaveProduct(ctx context.Context, p *domain.Product) error {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		products := repo.NewProductRepo(tx)
		other, err := products.FindActiveByName(p.Name)
		if err != nil {
			return err
		}
		if other != nil && other.ID != p.ID {
			return ErrDuplicateProductName
		}
		return products.Save(p)
	})
	if err != nil {
		return err
	}
	s.invalidateCatalog(ctx)
	return nil
}

// DeleteProduct hides a product; past orders keep referring to it.
func (s *Service) DeleteProduct(ctx context.Context, id uint64) error {
	ok, err := repo.NewProductRepo(s.conn(ctx)).SoftDelete(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.invalidateCatalog(ctx)
	return nil
}

// invalidateCatalog only logs failures; a stale entry expires with its TTL.
func (s *Service) invalidateCatalog(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, catalogKey); err != nil {
		s.log.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}
