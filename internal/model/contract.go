package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContractStatus string

const (
	ContractStatusPending  ContractStatus = "pending"
	ContractStatusAccepted ContractStatus = "accepted"
	ContractStatusRejected ContractStatus = "rejected"
)

// Terminal reports whether no further transition may leave the status.
func (s ContractStatus) Terminal() bool {
	return s == ContractStatusAccepted || s == ContractStatusRejected
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to ContractStatus) bool {
	return from == ContractStatusPending && to.Terminal()
}

type Contract struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey"`
	FarmerID        uuid.UUID      `gorm:"type:uuid;not null;index"`
	CompanyName     string         `gorm:"size:255;not null;index"`
	ContractDetails string         `gorm:"type:text;not null"`
	StartDate       time.Time      `gorm:"not null"`
	EndDate         time.Time      `gorm:"not null"`
	Duration        float64        // years, stored for display only
	PricePerUnit    float64        `gorm:"not null"`
	GSTNumber       string         `gorm:"column:gst_number;size:32"`
	Status          ContractStatus `gorm:"type:varchar(16);not null;default:pending;index"`
	CreatedBy       uuid.UUID      `gorm:"type:uuid;not null;index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (c *Contract) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ContractDetail is a contract joined with the farmer it is addressed to.
// Farmer is nil when the profile no longer exists.
type ContractDetail struct {
	Contract Contract
	Farmer   *Farmer
}

type StatusSummary struct {
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}

func Summarize(contracts []Contract) StatusSummary {
	var s StatusSummary
	for _, c := range contracts {
		switch c.Status {
		case ContractStatusPending:
			s.Pending++
		case ContractStatusAccepted:
			s.Accepted++
		case ContractStatusRejected:
			s.Rejected++
		}
		s.Total++
	}
	return s
}
