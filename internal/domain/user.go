package domain

import "time"

type User struct {
	ID           UserID    `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Username     string    `gorm:"type:citext;uniqueIndex:ux_users_username" db:"username" json:"username"`
	Email        *string   `gorm:"type:citext" db:"email" json:"email"`
	CTWeb        []byte    `gorm:"type:bytea" db:"ct_web" json:"-"`
	SiteSalt     []byte    `gorm:"type:bytea" db:"site_salt" json:"-"`
	HasBiometric bool      `gorm:"not null;default:false" db:"has_biometric" json:"hasBiometric"`
	IsPaired     bool      `gorm:"not null;default:false" db:"is_paired" json:"isPaired"`
	CreatedAt    time.Time `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"not null" db:"updated_at" json:"updatedAt"`
	Devices      []Device  `gorm:"foreignKey:UserID" json:"devices"`
}

func (User) TableName() string { return "users" }

// Enrolled reports whether the user has a cancellable template and the salt
// that seeded it. Both are written in a single update, so either both are
// present or neither is.
func (u *User) Enrolled() bool {
	return len(u.CTWeb) > 0 && len(u.SiteSalt) > 0 && u.HasBiometric
}
