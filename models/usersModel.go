package models

import (
	"time"
)

// Profile is the identity record of an authenticated account.
type Profile struct {
	ID        string    `gorm:"primaryKey;column:id;size:36" json:"id"`
	Name      string    `gorm:"column:name;size:255;not null" json:"name"`
	Email     string    `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// Credential backs the built-in identity provider.
type Credential struct {
	UserID       string    `gorm:"primaryKey;column:user_id;size:36" json:"user_id"`
	PasswordHash string    `gorm:"column:password_hash;size:255;not null" json:"-"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	Profile      *Profile  `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (Credential) TableName() string {
	return "credentials"
}

// RoleAssignment grants one role to one profile.
type RoleAssignment struct {
	ID        string    `gorm:"primaryKey;column:id;size:36" json:"id"`
	UserID    string    `gorm:"column:user_id;size:36;not null;uniqueIndex:idx_user_role" json:"user_id"`
	Role      Role      `gorm:"column:role;type:varchar(20);not null;uniqueIndex:idx_user_role" json:"role"`
	CreatedBy string    `gorm:"column:created_by;size:36" json:"created_by"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Profile   *Profile  `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (RoleAssignment) TableName() string {
	return "user_roles"
}
