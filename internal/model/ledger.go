package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LedgerEvent is the record appended to the external ledger after a
// contract is created or accepted.
type LedgerEvent struct {
	ContractID      uuid.UUID      `json:"contractId"`
	CompanyName     string         `json:"companyName"`
	ContractDetails string         `json:"contractDetails"`
	StartTimestamp  int64          `json:"startTimestamp"`
	EndTimestamp    int64          `json:"endTimestamp"`
	Status          ContractStatus `json:"status"`
}

func NewLedgerEvent(c Contract) LedgerEvent {
	return LedgerEvent{
		ContractID:      c.ID,
		CompanyName:     c.CompanyName,
		ContractDetails: c.ContractDetails,
		StartTimestamp:  c.StartDate.Unix(),
		EndTimestamp:    c.EndDate.Unix(),
		Status:          c.Status,
	}
}

type LedgerOutcome string

const (
	LedgerOutcomeRecorded LedgerOutcome = "recorded"
	LedgerOutcomeFailed   LedgerOutcome = "failed"
)

// LedgerReceipt keeps the result of one ledger write attempt.
type LedgerReceipt struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ContractID uuid.UUID      `gorm:"type:uuid;not null;index"`
	Status     ContractStatus `gorm:"type:varchar(16);not null"`
	Outcome    LedgerOutcome  `gorm:"type:varchar(16);not null"`
	TxHash     string         `gorm:"size:80"`
	Error      string         `gorm:"type:text"`
	Payload    datatypes.JSON
	CreatedAt  time.Time
}

func (r *LedgerReceipt) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
