package domain

import (
	"time"

	"github.com/google/uuid"
)

const DefaultDeviceName = "Mobile device"

// Device is a phone bound to a user during pairing. DeviceID is supplied by
// the device itself and is unique per user; binding is additive, re-confirming
// the same DeviceID replaces the public key rather than appending a row.
type Device struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	UserID    UserID    `gorm:"type:uuid;uniqueIndex:ux_devices_user_device,priority:1" db:"user_id" json:"userId"`
	DeviceID  string    `gorm:"type:text;not null;uniqueIndex:ux_devices_user_device,priority:2" db:"device_id" json:"deviceId"`
	Name      string    `gorm:"type:text;not null" db:"name" json:"name"`
	PublicKey string    `gorm:"type:text;not null" db:"public_key" json:"-"`
	PairedAt  time.Time `gorm:"not null" db:"paired_at" json:"pairedAt"`
}

func (Device) TableName() string { return "devices" }
