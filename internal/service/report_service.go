package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/HGakash/agrihub/internal/model"
)

type ReportGenerator interface {
	Generate(report model.DealerReport) ([]byte, error)
}

type DealerReportSource interface {
	DealerReport(ctx context.Context, principal model.Principal, companyName string) (*model.DealerReport, error)
}

type ReportService struct {
	source DealerReportSource
	excel  ReportGenerator
	pdf    ReportGenerator
}

type GenerateReportInput struct {
	Principal   model.Principal
	CompanyName string
	Format      model.ReportFormat
}

type GenerateReportResult struct {
	FileName    string
	ContentType string
	Content     []byte
}

func NewReportService(source DealerReportSource, excel, pdf ReportGenerator) *ReportService {
	return &ReportService{
		source: source,
		excel:  excel,
		pdf:    pdf,
	}
}

func (s *ReportService) GenerateReport(ctx context.Context, input GenerateReportInput) (*GenerateReportResult, error) {
	var (
		generator   ReportGenerator
		contentType string
	)
	switch input.Format {
	case model.ReportFormatXLSX:
		generator = s.excel
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case model.ReportFormatPDF:
		generator = s.pdf
		contentType = "application/pdf"
	default:
		return nil, fmt.Errorf("%w: format must be xlsx or pdf", ErrInvalidInput)
	}

	report, err := s.source.DealerReport(ctx, input.Principal, input.CompanyName)
	if err != nil {
		return nil, err
	}

	content, err := generator.Generate(*report)
	if err != nil {
		return nil, err
	}

	return &GenerateReportResult{
		FileName:    buildFileName(*report, input.Format),
		ContentType: contentType,
		Content:     content,
	}, nil
}

func buildFileName(report model.DealerReport, format model.ReportFormat) string {
	scope := sanitizeFileName(report.CompanyName)
	if scope == "" {
		scope = "all"
	}
	return fmt.Sprintf("contracts-%s-%s.%s", scope, report.GeneratedAt.Format("20060102"), format)
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
