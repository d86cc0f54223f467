package model

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name         string `gorm:"column:name;not null"`
	Surname      string `gorm:"column:surname;not null"`
	MobileNumber string `gorm:"column:mobile_number"`
	Email        string `gorm:"column:email;unique;not null"`
	Password     string `gorm:"column:password;not null"`
	Role         string `gorm:"column:role;not null;default:employee"`
	ManagerID    *uint  `gorm:"column:id_manager;index"`
	// Refresh session state: both set or both null.
	RefreshTokenHash   *string `gorm:"column:refresh_token_hash;default:null"`
	RefreshTokenFamily *string `gorm:"column:refresh_token_family;default:null"`
}

// HasSession reports whether a refresh chain is currently live.
func (u *User) HasSession() bool {
	return u.RefreshTokenHash != nil && *u.RefreshTokenHash != ""
}
