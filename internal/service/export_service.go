package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-api/internal/dto"
	appErrors "github.com/noah-isme/sma-fee-api/pkg/errors"
	"github.com/noah-isme/sma-fee-api/pkg/export"
)

type overviewProvider interface {
	Overview(ctx context.Context) (*dto.FeeOverviewResponse, bool, error)
}

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportResult carries rendered bytes with their content type and filename.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders the fee overview as downloadable documents.
type ExportService struct {
	overview overviewProvider
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(overview overviewProvider, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		overview: overview,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// RenderOverview produces the fee overview in the requested format.
func (s *ExportService) RenderOverview(ctx context.Context, format ExportFormat) (*ExportResult, error) {
	summary, _, err := s.overview.Overview(ctx)
	if err != nil {
		return nil, err
	}

	dataset := overviewDataset(summary)

	switch format {
	case FormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{Content: content, ContentType: "text/csv", Filename: "fee-overview.csv"}, nil
	case FormatPDF:
		content, err := s.pdf.Render(dataset, "Fee Collection Overview")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{Content: content, ContentType: "application/pdf", Filename: "fee-overview.pdf"}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func overviewDataset(summary *dto.FeeOverviewResponse) export.Dataset {
	headers := []string{"Class", "Section", "Expected", "Collected", "Pending"}
	rows := make([]map[string]string, 0, len(summary.Classes)+1)
	for _, class := range summary.Classes {
		rows = append(rows, map[string]string{
			"Class":     class.ClassName,
			"Section":   class.Section,
			"Expected":  formatCurrency(class.Expected),
			"Collected": formatCurrency(class.Collected),
			"Pending":   formatCurrency(class.Pending),
		})
	}
	rows = append(rows, map[string]string{
		"Class":     "TOTAL",
		"Section":   "",
		"Expected":  formatCurrency(summary.Totals.Expected),
		"Collected": formatCurrency(summary.Totals.Collected),
		"Pending":   formatCurrency(summary.Totals.Pending),
	})
	return export.Dataset{Headers: headers, Rows: rows}
}

func formatCurrency(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}
