package store

import (
	"context"
	"time"

	"bioauth/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserStore struct{ db *gorm.DB }

func (s *Store) Users() *UserStore { return &UserStore{db: s.DB} }

func (u *UserStore) Create(ctx context.Context, usr *domain.User) error {
	if usr.ID == uuid.Nil {
		usr.ID = uuid.New()
	}
	return u.db.WithContext(ctx).Create(usr).Error
}

func (u *UserStore) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (u *UserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// SetEnrollment writes the template and its salt in one update so the pair is
// never half-set. Enrollment also resets is_paired: a fresh template must be
// re-delivered to a device before login is allowed again.
func (u *UserStore) SetEnrollment(ctx context.Context, userID domain.UserID, ct, siteSalt []byte) error {
	return u.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"ct_web":        ct,
			"site_salt":     siteSalt,
			"has_biometric": true,
			"is_paired":     false,
			"updated_at":    time.Now().UTC(),
		}).Error
}

func (u *UserStore) SetPaired(ctx context.Context, userID domain.UserID) error {
	return u.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"is_paired":  true,
			"updated_at": time.Now().UTC(),
		}).Error
}
