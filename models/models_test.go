package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimestamp(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	at := time.Date(2025, 3, 1, 16, 30, 0, 123456789, loc)
	assert.Equal(t, "2025-03-01T14:30:00.123Z", FormatTimestamp(at))

	parsed, err := ParseTimestamp("2025-03-01T14:30:00Z")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC)))

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestVisitRecordConversion(t *testing.T) {
	next := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	v := Visit{
		ID:        "v1-1",
		Date:      time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Services:  []string{"Cut"},
		Amount:    40,
		NextVisit: &next,
	}

	rec := v.Record()
	assert.Equal(t, "2025-03-01T10:00:00.000Z", rec.Date)
	require.NotNil(t, rec.NextVisit)
	assert.Equal(t, "2025-04-01T10:00:00.000Z", *rec.NextVisit)

	back, err := rec.Visit()
	require.NoError(t, err)
	assert.Equal(t, v.ID, back.ID)
	assert.True(t, back.Date.Equal(v.Date))
	assert.True(t, back.NextVisit.Equal(next))

	empty := ""
	back, err = VisitRecord{ID: "x", Date: rec.Date, NextVisit: &empty}.Visit()
	require.NoError(t, err)
	assert.Nil(t, back.NextVisit)
	assert.NotNil(t, back.Services)

	_, err = VisitRecord{ID: "bad", Date: "not a date"}.Visit()
	assert.Error(t, err)
}

func TestVisitRecordsColumn(t *testing.T) {
	var nilRecords VisitRecords
	value, err := nilRecords.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", value)

	records := VisitRecords{{ID: "v1", Date: "2025-03-01T10:00:00.000Z", Services: []string{"Cut"}, Amount: 10}}
	value, err = records.Value()
	require.NoError(t, err)

	var scanned VisitRecords
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, records, scanned)

	require.NoError(t, scanned.Scan([]byte(value.(string))))
	assert.Equal(t, records, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.NotNil(t, scanned)
	assert.Empty(t, scanned)

	require.NoError(t, scanned.Scan("null"))
	assert.NotNil(t, scanned)

	assert.Error(t, scanned.Scan(42))
	assert.Error(t, scanned.Scan("{not json"))
}

func TestToClientSortsNewestFirst(t *testing.T) {
	doc := ClientDocument{
		ID:        uuid.New(),
		DisplayID: "0003",
		Name:      "Jane",
		Visits: Records([]Visit{
			{ID: "a", Date: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)},
			{ID: "b", Date: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
			{ID: "c", Date: time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)},
		}),
	}

	client, err := doc.ToClient()
	require.NoError(t, err)
	assert.Equal(t, doc.ID.String(), client.ID)
	ids := []string{client.Visits[0].ID, client.Visits[1].ID, client.Visits[2].ID}
	assert.Equal(t, []string{"b", "c", "a"}, ids)

	// stored order is untouched
	assert.Equal(t, "a", doc.Visits[0].ID)
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleOwner.Valid())
	assert.True(t, RoleAssistant.Valid())
	assert.False(t, Role("admin").Valid())
	assert.False(t, Role("").Valid())
}
