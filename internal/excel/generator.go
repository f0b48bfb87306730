package excel

import (
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/HGakash/agrihub/internal/model"
)

const (
	summarySheet   = "Summary"
	contractsSheet = "Contracts"
)

var contractHeaders = []string{
	"Contract ID",
	"Company",
	"Farmer",
	"Farmer email",
	"Location",
	"Produce",
	"Details",
	"Start date",
	"End date",
	"Duration, years",
	"Price per unit",
	"GST number",
	"Status",
	"Created at",
}

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(report model.DealerReport) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	g.writeSummary(file, report)

	if _, err := file.NewSheet(contractsSheet); err != nil {
		return nil, err
	}
	if err := g.writeContracts(file, report); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, report model.DealerReport) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(summarySheet, cell, value)
	}

	scope := report.CompanyName
	if scope == "" {
		scope = "All companies"
	}

	set("A1", "Dealer")
	set("B1", report.DealerEmail)
	set("A2", "Company")
	set("B2", scope)
	set("A3", "Generated at")
	set("B3", formatDateTime(report.GeneratedAt))

	set("A5", "Status")
	set("B5", "Contracts")
	set("A6", string(model.ContractStatusPending))
	set("B6", report.Summary.Pending)
	set("A7", string(model.ContractStatusAccepted))
	set("B7", report.Summary.Accepted)
	set("A8", string(model.ContractStatusRejected))
	set("B8", report.Summary.Rejected)
	set("A9", "total")
	set("B9", report.Summary.Total)

	_ = file.SetColWidth(summarySheet, "A", "A", 20)
	_ = file.SetColWidth(summarySheet, "B", "B", 36)
}

func (g *Generator) writeContracts(file *excelize.File, report model.DealerReport) error {
	for i, header := range contractHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		_ = file.SetCellValue(contractsSheet, cell, header)
	}

	for i, detail := range report.Contracts {
		row := i + 2
		c := detail.Contract
		farmerName, farmerEmail, location, produce := farmerColumns(detail.Farmer)

		values := []interface{}{
			c.ID.String(),
			c.CompanyName,
			farmerName,
			farmerEmail,
			location,
			produce,
			c.ContractDetails,
			formatDate(c.StartDate),
			formatDate(c.EndDate),
			c.Duration,
			c.PricePerUnit,
			c.GSTNumber,
			string(c.Status),
			formatDateTime(c.CreatedAt),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := file.SetSheetRow(contractsSheet, cell, &values); err != nil {
			return err
		}
	}

	_ = file.SetColWidth(contractsSheet, "A", "A", 38)
	_ = file.SetColWidth(contractsSheet, "B", "G", 24)
	_ = file.SetColWidth(contractsSheet, "H", "L", 14)
	_ = file.SetColWidth(contractsSheet, "M", "N", 18)
	return nil
}

func farmerColumns(f *model.Farmer) (string, string, string, string) {
	if f == nil {
		return "", "", "", ""
	}
	return f.Name, f.Email, f.Location, f.Produce
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
