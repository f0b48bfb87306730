package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleFarmer Role = "farmer"
	RoleDealer Role = "dealer"
)

func (r Role) Valid() bool {
	return r == RoleFarmer || r == RoleDealer
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"size:255"`
	Email        string    `gorm:"size:191;not null;uniqueIndex"`
	PasswordHash string    `gorm:"size:255;not null"`
	Role         Role      `gorm:"type:varchar(16);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
