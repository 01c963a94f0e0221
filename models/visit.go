package models

import (
	"fmt"
	"sort"
	"time"
)

// TimestampLayout is the canonical string form of stored timestamps
// (millisecond ISO-8601 in UTC, e.g. 2025-03-01T14:30:00.000Z).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// VisitRecord is the stored form of a visit inside the clients.visits column.
type VisitRecord struct {
	ID        string   `json:"id"`
	Date      string   `json:"date"`
	Services  []string `json:"services"`
	Amount    float64  `json:"amount"`
	Paid      bool     `json:"paid"`
	Notes     string   `json:"notes,omitempty"`
	NextVisit *string  `json:"nextVisit"`
}

type Visit struct {
	ID        string     `json:"id"`
	Date      time.Time  `json:"date"`
	Services  []string   `json:"services"`
	Amount    float64    `json:"amount"`
	Paid      bool       `json:"paid"`
	Notes     string     `json:"notes,omitempty"`
	NextVisit *time.Time `json:"nextVisit"`
}

// FormatTimestamp renders t in the canonical stored form.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts any RFC 3339 timestamp, with or without fraction.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

// Record converts a visit to its stored form.
func (v Visit) Record() VisitRecord {
	rec := VisitRecord{
		ID:       v.ID,
		Date:     FormatTimestamp(v.Date),
		Services: v.Services,
		Amount:   v.Amount,
		Paid:     v.Paid,
		Notes:    v.Notes,
	}
	if rec.Services == nil {
		rec.Services = []string{}
	}
	if v.NextVisit != nil {
		next := FormatTimestamp(*v.NextVisit)
		rec.NextVisit = &next
	}
	return rec
}

// Visit converts a stored record back to a visit.
func (r VisitRecord) Visit() (Visit, error) {
	date, err := ParseTimestamp(r.Date)
	if err != nil {
		return Visit{}, fmt.Errorf("visit %s: %w", r.ID, err)
	}
	v := Visit{
		ID:       r.ID,
		Date:     date,
		Services: r.Services,
		Amount:   r.Amount,
		Paid:     r.Paid,
		Notes:    r.Notes,
	}
	if v.Services == nil {
		v.Services = []string{}
	}
	if r.NextVisit != nil && *r.NextVisit != "" {
		next, err := ParseTimestamp(*r.NextVisit)
		if err != nil {
			return Visit{}, fmt.Errorf("visit %s: %w", r.ID, err)
		}
		v.NextVisit = &next
	}
	return v, nil
}

// Records serializes visits, keeping their order.
func Records(visits []Visit) VisitRecords {
	out := make(VisitRecords, 0, len(visits))
	for _, v := range visits {
		out = append(out, v.Record())
	}
	return out
}

// Visits deserializes records, keeping their stored order.
func (v VisitRecords) Visits() ([]Visit, error) {
	out := make([]Visit, 0, len(v))
	for _, rec := range v {
		visit, err := rec.Visit()
		if err != nil {
			return nil, err
		}
		out = append(out, visit)
	}
	return out, nil
}

// SortVisitsNewestFirst orders visits by date descending.
func SortVisitsNewestFirst(visits []Visit) {
	sort.SliceStable(visits, func(i, j int) bool {
		return visits[i].Date.After(visits[j].Date)
	})
}

// ToClient deserializes a stored client document. Visits are returned
// newest first regardless of stored order.
func (d ClientDocument) ToClient() (Client, error) {
	visits, err := d.Visits.Visits()
	if err != nil {
		return Client{}, fmt.Errorf("client %s: %w", d.ID, err)
	}
	SortVisitsNewestFirst(visits)
	return Client{
		ID:        d.ID.String(),
		DisplayID: d.DisplayID,
		Name:      d.Name,
		Phone:     d.Phone,
		Visits:    visits,
		CreatedAt: d.CreatedAt,
	}, nil
}
