package model

import "time"

type ReportFormat string

const (
	ReportFormatXLSX ReportFormat = "xlsx"
	ReportFormatPDF  ReportFormat = "pdf"
)

// DealerReport is the export of a dealer's contract book.
type DealerReport struct {
	DealerEmail string
	CompanyName string
	GeneratedAt time.Time
	Summary     StatusSummary
	Contracts   []ContractDetail
}
