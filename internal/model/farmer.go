package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Farmer is a produce-grower profile. It may exist before the farmer has a
// login; the link to User is the email address.
type Farmer struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name       string    `gorm:"size:255;not null"`
	Email      string    `gorm:"size:191;not null;uniqueIndex"`
	Location   string    `gorm:"size:255"`
	Produce    string    `gorm:"size:255"`
	Experience int
	Contact    string `gorm:"size:64"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (f *Farmer) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
