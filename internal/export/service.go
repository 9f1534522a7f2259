package export

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/fichas/constants"
	"github.com/joseph-ayodele/fichas/internal/entity"
)

const sheet = "Fichas"

// Service renders extracted records as XLSX workbooks.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// Columns returns the header for rows: schema keys in canonical order, then any
// other key found in rows (sorted), minus drop.
func Columns(rows []map[string]any, drop ...string) []string {
	cols := constants.FieldNames()
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		seen[c] = struct{}{}
	}
	var extra []string
	for _, row := range rows {
		for k := range row {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	cols = append(cols, extra...)
	return slices.DeleteFunc(cols, func(c string) bool { return slices.Contains(drop, c) })
}

// RecordRows flattens accepted records into export rows.
func RecordRows(records []entity.Record) []map[string]any {
	rows := make([]map[string]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Row())
	}
	return rows
}

// WriteXLSX returns an XLSX workbook (as bytes) with one header row and one row
// per input row. Missing cells are left empty; an empty input yields a header-only sheet.
func (s *Service) WriteXLSX(ctx context.Context, rows []map[string]any, drop ...string) ([]byte, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_error", "error", err)
		}
	}()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	cols := Columns(rows, drop...)
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}
	for i, h := range cols {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("xlsx header: %w", err)
		}
	}
	if len(cols) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(cols), 1)
		_ = f.SetCellStyle(sheet, "A1", last, header)
	}

	for r, row := range rows {
		for c, col := range cols {
			v, ok := row[col]
			if !ok || v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, cellValue(v)); err != nil {
				return nil, fmt.Errorf("xlsx row %d: %w", r+1, err)
			}
		}
	}

	for i, col := range cols {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			continue
		}
		_ = f.SetColWidth(sheet, name, name, columnWidth(col))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"columns", len(cols),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// cellValue keeps scalars as-is and renders nested JSON values as text.
// Text is cut to the cell character limit.
func cellValue(v any) any {
	switch t := v.(type) {
	case string:
		return truncate(t, excelize.TotalCellChars)
	case bool, float64, float32, int, int64, int32:
		return t
	default:
		return truncate(fmt.Sprint(t), excelize.TotalCellChars)
	}
}

func columnWidth(col string) float64 {
	switch col {
	case constants.FieldServico, constants.FieldGarantia:
		return 48
	case constants.FieldCliente, constants.FieldModelo:
		return 28
	default:
		return 16
	}
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
