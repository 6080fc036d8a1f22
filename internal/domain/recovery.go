package domain

import "time"

// RecoveryCode is a single-use fallback credential minted when pairing first
// completes. Only the argon2id hash is stored; the plaintext is shown once.
type RecoveryCode struct {
	ID         RecoveryCodeID `gorm:"type:uuid;primaryKey" db:"id"`
	UserID     UserID         `gorm:"type:uuid;index" db:"user_id"`
	Algo       string         `gorm:"type:text;not null" db:"algo"`
	CodeHash   []byte         `gorm:"type:bytea;not null" db:"code_hash"`
	Salt       []byte         `gorm:"type:bytea;not null" db:"salt"`
	ParamsJSON []byte         `gorm:"type:jsonb;not null" db:"params_json"`
	UsedAt     *time.Time     `gorm:"type:timestamp" db:"used_at"`
	CreatedAt  time.Time      `gorm:"not null" db:"created_at"`
}

func (RecoveryCode) TableName() string { return "recovery_codes" }
