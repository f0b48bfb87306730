package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/HGakash/agrihub/internal/model"
)

var models = []interface{}{
	&model.User{},
	&model.Farmer{},
	&model.Contract{},
	&model.LedgerReceipt{},
}

// Statements run after the schema is in place. They must stay portable
// between postgres and sqlite.
var migrationStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_contracts_farmer_status ON contracts (farmer_id, status);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_created_by_company ON contracts (created_by, company_name);`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_receipts_contract_created ON ledger_receipts (contract_id, created_at);`,
}

func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return runMigrations(database)
}

func runMigrations(database *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := database.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
