package internal

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vichambarde/serverroom/internal/models"
)

const (
	dateLayout = "2006-01-02"
	maxLimit   = 1000
)

// parseEntryFilter reads department, item, startDate, endDate, limit and
// offset from the query string. Dates may be RFC 3339 timestamps or plain
// dates; a plain endDate covers the whole day. The range is only applied
// when both ends are present. limit defaults to 0 (no limit) and is capped.
func parseEntryFilter(r *http.Request) (models.EntryFilter, error) {
	values := r.URL.Query()

	f := models.EntryFilter{
		Department: strings.TrimSpace(values.Get("department")),
		Item:       strings.TrimSpace(values.Get("item")),
	}

	start := strings.TrimSpace(values.Get("startDate"))
	end := strings.TrimSpace(values.Get("endDate"))
	if start != "" && end != "" {
		from, _, err := parseDate(start)
		if err != nil {
			return f, fmt.Errorf("startDate: %w", err)
		}
		to, dateOnly, err := parseDate(end)
		if err != nil {
			return f, fmt.Errorf("endDate: %w", err)
		}
		if dateOnly {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		if to.Before(from) {
			return f, fmt.Errorf("endDate is before startDate")
		}
		f.From, f.To = &from, &to
	}

	if s := strings.TrimSpace(values.Get("limit")); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return f, fmt.Errorf("limit must be a non-negative integer")
		}
		if v > maxLimit {
			v = maxLimit
		}
		f.Limit = v
	}

	if s := strings.TrimSpace(values.Get("offset")); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return f, fmt.Errorf("offset must be a non-negative integer")
		}
		f.Offset = v
	}

	return f, nil
}

// parseDate returns the instant and whether s was a bare calendar date.
func parseDate(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), false, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC 3339", s)
}
