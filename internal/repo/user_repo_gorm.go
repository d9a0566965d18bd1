package repo

import (
	"errors"

	"gorm.io/gorm"

	"chatshop/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(u *domain.User) error { return r.db.Create(u).Error }

// FindByID returns nil, nil when the user does not exist.
func (r *UserRepo) FindByID(id int64) (*domain.User, error) {
	var u domain.User
	err := r.db.First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) List() ([]domain.User, error) {
	var users []domain.User
	err := r.db.Order("id asc").Find(&users).Error
	return users, err
}

// UpdateProfile refreshes the chat-provided names without touching credit.
func (r *UserRepo) UpdateProfile(u *domain.User) error {
	return r.db.Model(&domain.User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"username":   u.Username,
	}).Error
}

func (r *UserRepo) SetLanguage(id int64, lang string) error {
	return r.db.Model(&domain.User{}).Where("id = ?", id).Update("language", lang).Error
}

type AdminRepo struct{ db *gorm.DB }

func NewAdminRepo(db *gorm.DB) *AdminRepo { return &AdminRepo{db: db} }

func (r *AdminRepo) FindByUserID(userID int64) (*domain.Admin, error) {
	var a domain.Admin
	err := r.db.Preload("User").First(&a, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AdminRepo) Count() (int64, error) {
	var n int64
	err := r.db.Model(&domain.Admin{}).Count(&n).Error
	return n, err
}

func (r *AdminRepo) Create(a *domain.Admin) error { return r.db.Omit("User").Create(a).Error }

// Save writes every capability flag, including false ones.
func (r *AdminRepo) Save(a *domain.Admin) error { return r.db.Omit("User").Save(a).Error }

func (r *AdminRepo) SetLiveMode(userID int64, on bool) error {
	return r.db.Model(&domain.Admin{}).Where("user_id = ?", userID).Update("live_mode", on).Error
}

// ResetLiveMode clears live mode for everyone, used at process start.
func (r *AdminRepo) ResetLiveMode() error {
	return r.db.Model(&domain.Admin{}).Where("live_mode = ?", true).Update("live_mode", false).Error
}

func (r *AdminRepo) ListLive() ([]domain.Admin, error) {
	var out []domain.Admin
	err := r.db.Preload("User").Where("live_mode = ? AND can_receive_orders = ?", true, true).Find(&out).Error
	return out, err
}

func (r *AdminRepo) ListOnHelp() ([]domain.Admin, error) {
	var out []domain.Admin
	err := r.db.Preload("User").Where("can_display_on_help = ?", true).Order("user_id asc").Find(&out).Error
	return out, err
}
