package store

import (
	"context"
	"time"

	"bioauth/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RecoveryCodeStore struct{ db *gorm.DB }

func (s *Store) RecoveryCodes() *RecoveryCodeStore { return &RecoveryCodeStore{db: s.DB} }

func (r *RecoveryCodeStore) AddBatch(ctx context.Context, codes []*domain.RecoveryCode) error {
	if len(codes) == 0 {
		return nil
	}
	for _, c := range codes {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(codes).Error
}

// ListUnused returns the codes still eligible for a recovery login.
func (r *RecoveryCodeStore) ListUnused(ctx context.Context, userID domain.UserID) ([]*domain.RecoveryCode, error) {
	var codes []*domain.RecoveryCode
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND used_at IS NULL", userID).
		Order("created_at asc").
		Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *RecoveryCodeStore) MarkUsed(ctx context.Context, id domain.RecoveryCodeID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.RecoveryCode{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", at).Error
}

func (r *RecoveryCodeStore) CountByUser(ctx context.Context, userID domain.UserID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.RecoveryCode{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}
