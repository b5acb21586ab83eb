package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/tealeg/xlsx/v3"
	"gopkg.in/yaml.v3"

	"github.com/vichambarde/serverroom/internal/models"
)

// ImportOptions defines the configuration for Excel import operations
type ImportOptions struct {
	MappingPath string // optional; DefaultMapping is used when empty
	DryRun      bool
	MaxErrors   int // default 50
}

// RowError represents an error that occurred during row processing
type RowError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// SheetSummary contains the import statistics for a single sheet
type SheetSummary struct {
	Name      string     `json:"name"`
	Created   int        `json:"created"`
	Restocked int        `json:"restocked"`
	Valid     int        `json:"valid"`
	Skipped   int        `json:"skipped"`
	Errors    int        `json:"errors"`
	Samples   []RowError `json:"errorSamples,omitempty"`
}

// ImportSummary contains the overall import statistics
type ImportSummary struct {
	Created   int            `json:"created"`
	Restocked int            `json:"restocked"`
	Valid     int            `json:"valid"`
	Skipped   int            `json:"skipped"`
	Errors    int            `json:"errors"`
	Sheets    []SheetSummary `json:"sheets"`
	DryRun    bool           `json:"dryRun"`
}

// Mapping tells the importer which header names carry the item name and
// quantity. Sheets restricts the import to the named sheets; empty means all.
type Mapping struct {
	Version int                 `yaml:"version"`
	Sheets  []string            `yaml:"sheets"`
	Columns map[string][]string `yaml:"columns"`
}

const (
	FieldName     = "name"
	FieldQuantity = "quantity"
)

// maxSamples caps the error samples kept per sheet.
const maxSamples = 10

// ErrTooManyErrors is returned once the error budget is exhausted.
var ErrTooManyErrors = errors.New("too many errors, stopping import")

// DefaultMapping accepts the headers used by the lab's stock sheets.
func DefaultMapping() *Mapping {
	return &Mapping{
		Version: 1,
		Columns: map[string][]string{
			FieldName:     {"Name", "Item", "Item Name", "Component"},
			FieldQuantity: {"Quantity", "Qty", "Count", "Stock"},
		},
	}
}

// Restocker adds qty units to the named item, creating it when missing.
type Restocker interface {
	Restock(ctx context.Context, name string, qty int) (created bool, err error)
}

// RestockFunc adapts a function to Restocker.
type RestockFunc func(ctx context.Context, name string, qty int) (bool, error)

func (f RestockFunc) Restock(ctx context.Context, name string, qty int) (bool, error) {
	return f(ctx, name, qty)
}

// LoadMapping reads a YAML mapping file.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mapping %s: %w", path, err)
	}
	if len(m.Columns[FieldName]) == 0 || len(m.Columns[FieldQuantity]) == 0 {
		return nil, fmt.Errorf("mapping %s must define %q and %q columns", path, FieldName, FieldQuantity)
	}
	return &m, nil
}

// ImportExcel reads every mapped sheet of the workbook and restocks one item
// per data row. The first row of each sheet is the header.
func ImportExcel(ctx context.Context, dst Restocker, r io.Reader, opts ImportOptions) (ImportSummary, error) {
	summary := ImportSummary{
		DryRun: opts.DryRun,
		Sheets: []SheetSummary{},
	}

	if opts.MaxErrors == 0 {
		opts.MaxErrors = 50
	}

	mapping := DefaultMapping()
	if opts.MappingPath != "" {
		m, err := LoadMapping(opts.MappingPath)
		if err != nil {
			return summary, fmt.Errorf("failed to load mapping config: %w", err)
		}
		mapping = m
	}

	// xlsx.OpenReaderAt needs io.ReaderAt, so buffer the upload.
	data, err := io.ReadAll(r)
	if err != nil {
		return summary, fmt.Errorf("failed to read Excel file: %w", err)
	}

	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return summary, fmt.Errorf("failed to open Excel file: %w", err)
	}

	for _, sheet := range xlFile.Sheets {
		if !mapping.includes(sheet.Name) {
			continue
		}

		sheetSummary := processSheet(ctx, dst, sheet, mapping, opts)
		summary.Sheets = append(summary.Sheets, sheetSummary)

		summary.Created += sheetSummary.Created
		summary.Restocked += sheetSummary.Restocked
		summary.Valid += sheetSummary.Valid
		summary.Skipped += sheetSummary.Skipped
		summary.Errors += sheetSummary.Errors

		if summary.Errors > opts.MaxErrors {
			return summary, fmt.Errorf("%w (%d)", ErrTooManyErrors, summary.Errors)
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

func (m *Mapping) includes(sheet string) bool {
	if len(m.Sheets) == 0 {
		return true
	}
	for _, s := range m.Sheets {
		if strings.EqualFold(s, sheet) {
			return true
		}
	}
	return false
}

// field resolves a header to a mapped field, case-insensitively.
func (m *Mapping) field(header string) (string, bool) {
	for field, aliases := range m.Columns {
		for _, alias := range aliases {
			if strings.EqualFold(strings.TrimSpace(alias), header) {
				return field, true
			}
		}
	}
	return "", false
}

func processSheet(ctx context.Context, dst Restocker, sheet *xlsx.Sheet, mapping *Mapping, opts ImportOptions) SheetSummary {
	summary := SheetSummary{Name: sheet.Name}

	fail := func(row int, msg string) {
		summary.Errors++
		if len(summary.Samples) < maxSamples {
			summary.Samples = append(summary.Samples, RowError{Sheet: sheet.Name, Row: row, Message: msg})
		}
	}

	columns := map[int]string{}
	header := true

	err := sheet.ForEachRow(func(row *xlsx.Row) error {
		rowNum := row.GetCoordinate() + 1

		values := map[string]string{}
		err := row.ForEachCell(func(cell *xlsx.Cell) error {
			col, _ := cell.GetCoordinates()
			text := strings.TrimSpace(cell.String())
			if header {
				if field, ok := mapping.field(text); ok {
					columns[col] = field
				}
				return nil
			}
			if field, ok := columns[col]; ok && text != "" {
				values[field] = text
			}
			return nil
		})
		if err != nil {
			return err
		}

		if header {
			header = false
			if !hasField(columns, FieldName) || !hasField(columns, FieldQuantity) {
				return fmt.Errorf("header row must contain item name and quantity columns")
			}
			return nil
		}

		if len(values) == 0 {
			summary.Skipped++
			return nil
		}

		name := values[FieldName]
		if name == "" {
			fail(rowNum, "missing item name")
			return nil
		}
		qty, err := parseQuantity(values[FieldQuantity])
		if err != nil {
			fail(rowNum, fmt.Sprintf("%s: %v", name, err))
			return nil
		}

		summary.Valid++
		if opts.DryRun {
			return nil
		}

		created, err := dst.Restock(ctx, name, qty)
		if err != nil {
			fail(rowNum, fmt.Sprintf("%s: %v", name, err))
			return nil
		}
		if created {
			summary.Created++
		} else {
			summary.Restocked++
		}
		return ctx.Err()
	}, xlsx.SkipEmptyRows)

	if err != nil {
		fail(1, err.Error())
	}
	return summary
}

func hasField(columns map[int]string, field string) bool {
	for _, f := range columns {
		if f == field {
			return true
		}
	}
	return false
}

// parseQuantity accepts whole numbers, including spreadsheet floats like "12.0".
func parseQuantity(raw string) (int, error) {
	if raw == "" {
		return 0, errors.New("missing quantity")
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != math.Trunc(f) {
			return 0, fmt.Errorf("invalid quantity %q", raw)
		}
		if f < 0 || f > models.MaxQuantity {
			return 0, fmt.Errorf("%w: %s", models.ErrQuantityOutOfRange, raw)
		}
		n = int(f)
	}
	if err := models.CheckStockQuantity(n); err != nil {
		return 0, err
	}
	return n, nil
}
