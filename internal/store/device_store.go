package store

import (
	"context"
	"time"

	"bioauth/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeviceStore struct{ db *gorm.DB }

func (s *Store) Devices() *DeviceStore { return &DeviceStore{db: s.DB} }

// Upsert binds a device to a user. A repeated confirm for the same
// (user_id, device_id) replaces the public key instead of adding a row.
func (d *DeviceStore) Upsert(ctx context.Context, device *domain.Device) error {
	if device.ID == uuid.Nil {
		device.ID = uuid.New()
	}
	if device.Name == "" {
		device.Name = domain.DefaultDeviceName
	}
	if device.PairedAt.IsZero() {
		device.PairedAt = time.Now().UTC()
	}
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "device_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "public_key", "paired_at"}),
		}).
		Create(device).Error
}

func (d *DeviceStore) GetByUserAndDeviceID(ctx context.Context, userID domain.UserID, deviceID string) (*domain.Device, error) {
	var device domain.Device
	if err := d.db.WithContext(ctx).
		First(&device, "user_id = ? AND device_id = ?", userID, deviceID).Error; err != nil {
		return nil, translate(err)
	}
	return &device, nil
}

func (d *DeviceStore) ListByUser(ctx context.Context, userID domain.UserID) ([]*domain.Device, error) {
	var devices []*domain.Device
	if err := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("paired_at asc").
		Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}
