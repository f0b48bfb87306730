package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/HGakash/agrihub/internal/model"
)

const fontName = "Helvetica"

var (
	tableHeaders = []string{"Company", "Farmer", "Produce", "Start", "End", "Years", "Price/unit", "GST", "Status"}
	tableWidths  = []float64{45, 40, 35, 24, 24, 16, 26, 38, 22}
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(report model.DealerReport) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.SetTitle("Contract report", true)
	pdf.AddPage()
	// Core fonts are cp1252.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	scope := report.CompanyName
	if scope == "" {
		scope = "All companies"
	}

	pdf.SetFont(fontName, "B", 14)
	pdf.CellFormat(0, 10, "Contract report", "", 1, "C", false, 0, "")

	pdf.SetFont(fontName, "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Dealer: %s", safeValue(report.DealerEmail))), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Company: %s", scope)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", formatDateTime(report.GeneratedAt)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Pending: %d   Accepted: %d   Rejected: %d   Total: %d",
		report.Summary.Pending,
		report.Summary.Accepted,
		report.Summary.Rejected,
		report.Summary.Total,
	), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	drawTableRow(pdf, tableHeaders, true)
	for _, detail := range report.Contracts {
		c := detail.Contract
		farmer, produce := "-", "-"
		if detail.Farmer != nil {
			farmer = safeValue(detail.Farmer.Name)
			produce = safeValue(detail.Farmer.Produce)
		}
		row := []string{
			c.CompanyName,
			farmer,
			produce,
			formatDate(c.StartDate),
			formatDate(c.EndDate),
			formatAmount(c.Duration, 2),
			formatAmount(c.PricePerUnit, 2),
			safeValue(c.GSTNumber),
			string(c.Status),
		}
		for i := range row {
			row[i] = truncate(pdf, tr(row[i]), tableWidths[i]-2)
		}
		drawTableRow(pdf, row, false)
	}
	if len(report.Contracts) == 0 {
		pdf.SetFont(fontName, "I", 10)
		pdf.CellFormat(0, 8, "No contracts.", "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, cols []string, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 9)
	pdf.SetFillColor(230, 230, 230)
	for i, col := range cols {
		align := "L"
		if i == 5 || i == 6 {
			align = "R"
		}
		pdf.CellFormat(tableWidths[i], 7, col, "1", 0, align, header, 0, "")
	}
	pdf.Ln(-1)
}

// truncate shortens value with an ellipsis until it fits width.
func truncate(pdf *gofpdf.Fpdf, value string, width float64) string {
	if pdf.GetStringWidth(value) <= width {
		return value
	}
	for len(value) > 0 && pdf.GetStringWidth(value+"...") > width {
		value = value[:len(value)-1]
	}
	return value + "..."
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatAmount(value float64, precision int) string {
	return fmt.Sprintf("%.*f", precision, value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02.01.2006")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("02.01.2006 15:04 UTC")
}
