package models

import "time"

// Entry is one issuance of an item to a requester. Entries are append-only.
type Entry struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	Department   string    `json:"department"`
	MobileNumber string    `json:"mobileNumber"`
	ItemTaken    string    `json:"itemTaken"`
	Quantity     int       `json:"quantity"`
	Purpose      string    `json:"purpose,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// SubmitRequest is the body posted by the request form.
type SubmitRequest struct {
	FullName     string `json:"fullName"`
	Department   string `json:"department"`
	MobileNumber string `json:"mobileNumber"`
	ItemTaken    string `json:"itemTaken"`
	Quantity     int    `json:"quantity"`
	Purpose      string `json:"purpose,omitempty"`
}

// EntryFilter narrows a ledger listing. Zero values mean "no constraint".
// The date range only applies when both From and To are set.
type EntryFilter struct {
	Department string
	Item       string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// HasRange reports whether the filter carries a complete date range.
func (f EntryFilter) HasRange() bool {
	return f.From != nil && f.To != nil
}

// Matches reports whether e satisfies every constraint of the filter except
// paging.
func (f EntryFilter) Matches(e Entry) bool {
	if f.Department != "" && e.Department != f.Department {
		return false
	}
	if f.Item != "" && e.ItemTaken != f.Item {
		return false
	}
	if f.HasRange() {
		if e.Timestamp.Before(*f.From) || e.Timestamp.After(*f.To) {
			return false
		}
	}
	return true
}
