// Package export renders ledger entries as an Excel workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/vichambarde/serverroom/internal/models"
)

const (
	SheetName   = "Entries"
	FileName    = "entries.xlsx"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// TimeLayout is how Date & Time cells are written.
	TimeLayout = "2006-01-02 15:04:05"
)

type column struct {
	header string
	value  func(e models.Entry, loc *time.Location) string
}

var columns = []column{
	{"Full Name", func(e models.Entry, _ *time.Location) string { return e.FullName }},
	{"Department", func(e models.Entry, _ *time.Location) string { return e.Department }},
	{"Mobile Number", func(e models.Entry, _ *time.Location) string { return e.MobileNumber }},
	{"Item Taken", func(e models.Entry, _ *time.Location) string { return e.ItemTaken }},
	{"Quantity", nil},
	{"Date & Time", func(e models.Entry, loc *time.Location) string { return e.Timestamp.In(loc).Format(TimeLayout) }},
	{"Purpose", func(e models.Entry, _ *time.Location) string { return e.Purpose }},
}

// Headers returns the column titles in sheet order.
func Headers() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.header
	}
	return out
}

// WriteEntries writes one header row followed by one row per entry, in the
// order given. Times are rendered in loc, or UTC when loc is nil.
func WriteEntries(w io.Writer, entries []models.Entry, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, c := range columns {
		header.AddCell().SetString(c.header)
	}

	for _, e := range entries {
		row := sheet.AddRow()
		for _, c := range columns {
			cell := row.AddCell()
			if c.value == nil {
				cell.SetInt(e.Quantity)
				continue
			}
			cell.SetString(c.value(e, loc))
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
