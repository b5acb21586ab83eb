package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"

	"github.com/vichambarde/serverroom/internal/models"
)

func cellText(t *testing.T, sh *xlsx.Sheet, row, col int) string {
	t.Helper()
	c, err := sh.Cell(row, col)
	require.NoError(t, err)
	return c.String()
}

func TestWriteEntries(t *testing.T) {
	ts := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)
	entries := []models.Entry{
		{FullName: "Asha Rao", Department: "EEE", MobileNumber: "9876543210", ItemTaken: "Arduino", Quantity: 4, Purpose: "Project", Timestamp: ts},
		{FullName: "Ravi K", Department: "CSE", MobileNumber: "9123456780", ItemTaken: "LED", Quantity: 10, Timestamp: ts.Add(-time.Hour)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteEntries(&buf, entries, nil))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	sh := f.Sheets[0]
	assert.Equal(t, SheetName, sh.Name)
	assert.Equal(t, 3, sh.MaxRow)

	for i, h := range Headers() {
		assert.Equal(t, h, cellText(t, sh, 0, i))
	}
	assert.Equal(t, "Asha Rao", cellText(t, sh, 1, 0))
	assert.Equal(t, "4", cellText(t, sh, 1, 4))
	assert.Equal(t, "2024-05-02 09:30:00", cellText(t, sh, 1, 5))
	assert.Equal(t, "Project", cellText(t, sh, 1, 6))
	assert.Equal(t, "LED", cellText(t, sh, 2, 3))
	assert.Equal(t, "", cellText(t, sh, 2, 6))
}

func TestWriteEntriesEmptyHasHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteEntries(&buf, nil, nil))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, f.Sheets[0].MaxRow)
}

func TestWriteEntriesUsesLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	entries := []models.Entry{{FullName: "A", Quantity: 1, Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}}

	var buf bytes.Buffer
	require.NoError(t, WriteEntries(&buf, entries, loc))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 05:30:00", cellText(t, f.Sheets[0], 1, 5))
}

func TestHeaders(t *testing.T) {
	assert.Equal(t, []string{"Full Name", "Department", "Mobile Number", "Item Taken", "Quantity", "Date & Time", "Purpose"}, Headers())
}
