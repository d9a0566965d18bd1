package repo

import (
	"errors"

	"gorm.io/gorm"

	"chatshop/internal/domain"
)

type ProductRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) *ProductRepo { return &ProductRepo{db: db} }

// ListActive returns products that are not soft-deleted, oldest first.
func (r *ProductRepo) ListActive() ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Where("deleted = ?", false).Order("id asc").Find(&out).Error
	return out, err
}

func (r *ProductRepo) FindByID(id uint64) (*domain.Product, error) {
	var p domain.Product
	err := r.db.First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindActiveByName ignores soft-deleted rows.
func (r *ProductRepo) FindActiveByName(name string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.Where("name = ? AND deleted = ?", name, false).Order("id asc").First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Save inserts when ID is zero and otherwise overwrites every column.
func (r *ProductRepo) Save(p *domain.Product) error {
	if p.ID == 0 {
		return r.db.Create(p).Error
	}
	return r.db.Save(p).Error
}

func (r *ProductRepo) SoftDelete(id uint64) (bool, error) {
	res := r.db.Model(&domain.Product{}).Where("id = ? AND deleted = ?", id, false).Update("deleted", true)
	return res.RowsAffected > 0, res.Error
}
