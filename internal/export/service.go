package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jmaine-gray/invoice-extractor/internal/entity"
	"github.com/jmaine-gray/invoice-extractor/internal/repository"
)

// Service is a tiny façade over the template store that produces XLSX bytes
// for inspection exports.
type Service struct {
	store  repository.TemplateRepository
	logger *slog.Logger
}

func NewService(store repository.TemplateRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// ExportTemplatesXLSX returns a workbook listing every learned template with
// its usage history and learned layout.
func (s *Service) ExportTemplatesXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	ts, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Templates"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Template ID",
		"Vendor",
		"Structure Hash",
		"Fields Learned",
		"Item Columns",
		"Usage Count",
		"Created",
		"Last Used",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for row, t := range ts {
		values := []any{
			t.TemplateID,
			t.VendorName,
			t.StructureHash,
			fieldList(t),
			strings.Join(t.ItemPattern.Columns, ", "),
			t.UsageCount,
			t.CreatedAt.Format(time.RFC3339),
			t.LastUsed.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Info("templates exported",
		"count", len(ts), "elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

// ExportResultXLSX writes one extraction result's line items to a workbook,
// with the scalar fields on a summary sheet.
func (s *Service) ExportResultXLSX(res *entity.ExtractionResult) ([]byte, error) {
	f := excelize.NewFile()
	const summary = "Invoice"
	const items = "Items"

	activeIndex, _ := f.GetSheetIndex("Sheet1")
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, err
	}
	f.SetActiveSheet(activeIndex)

	summaryRows := [][]any{
		{"Invoice Number", res.InvoiceNumber},
		{"PO Number", res.PONumber},
		{"Issue Date", res.IssueDate},
		{"Due Date", res.DueDate},
		{"Amount Due", deref(res.AmountDue)},
		{"Subtotal", deref(res.Subtotal)},
		{"Tax", deref(res.Tax)},
		{"Vendor", res.Vendor.Name},
		{"Customer", res.Customer.Name},
		{"Currency", res.Currency},
		{"Completeness", res.Completeness},
		{"Provenance", res.Provenance},
	}
	for row, pair := range summaryRows {
		for col, v := range pair {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+1)
			if err := f.SetCellValue(summary, cell, v); err != nil {
				return nil, err
			}
		}
	}

	if _, err := f.NewSheet(items); err != nil {
		return nil, err
	}
	itemHeaders := []string{"Description", "Unit Price", "Quantity", "Amount"}
	for i, h := range itemHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(items, cell, h); err != nil {
			return nil, err
		}
	}
	for row, it := range res.Items {
		values := []any{it.Description, it.UnitPrice, it.Quantity, it.Amount}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(items, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func fieldList(t *entity.Template) string {
	names := make([]string, 0, len(t.FieldPositions))
	for name := range t.FieldPositions {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
