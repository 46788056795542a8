package models

import (
	"time"
)

type User struct {
	ID                   uint64     `gorm:"primarykey" json:"id"`
	Username             string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Email                string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash         *string    `gorm:"type:varchar(255)" json:"-"`
	GoogleID             *string    `gorm:"type:varchar(255);uniqueIndex" json:"-"`
	Role                 string     `gorm:"type:varchar(50);not null;default:'member'" json:"role"`
	Avatar               string     `gorm:"type:varchar(512)" json:"avatar"`
	PasswordResetToken   *string    `gorm:"type:varchar(128);index" json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// HasPassword reports whether the account can sign in with a local password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
