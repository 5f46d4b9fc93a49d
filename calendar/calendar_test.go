package calendar

import (
	"testing"
	"time"

	"b0ase/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(title, category string, y int, m time.Month, d int) models.CalendarEvent {
	return models.CalendarEvent{Title: title, Category: category, EventDate: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func TestMonthGrid(t *testing.T) {
	view, err := Month(2024, time.February, nil)
	require.NoError(t, err)
	assert.Equal(t, 29, view.Days)
	assert.Equal(t, time.Thursday, view.FirstWeekday)
	assert.Len(t, view.Cells, 29)
	assert.Equal(t, 1, view.Cells[0].Day)
	assert.Empty(t, view.Cells[0].Events)

	view, err = Month(2025, time.June, nil)
	require.NoError(t, err)
	assert.Equal(t, 30, view.Days)
	assert.Equal(t, time.Sunday, view.FirstWeekday)
}

func TestMonthPlacesEvents(t *testing.T) {
	events := []models.CalendarEvent{
		event("launch", "work", 2025, time.May, 20),
		event("standup", "work", 2025, time.May, 20),
		event("holiday", "personal", 2025, time.May, 31),
		event("next month", "work", 2025, time.June, 1),
	}
	view, err := Month(2025, time.May, events)
	require.NoError(t, err)

	assert.Len(t, view.Cells[19].Events, 2)
	assert.Equal(t, "holiday", view.Cells[30].Events[0].Title)
	total := 0
	for _, c := range view.Cells {
		total += len(c.Events)
	}
	assert.Equal(t, 3, total)
}

func TestMonthRejectsInvalidMonth(t *testing.T) {
	_, err := Month(2025, 13, nil)
	assert.ErrorIs(t, err, ErrInvalidMonth)
	_, err = Month(2025, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestFilterByCategory(t *testing.T) {
	events := []models.CalendarEvent{
		event("a", "Work", 2025, time.May, 1),
		event("b", "personal", 2025, time.May, 2),
	}
	assert.Len(t, FilterByCategory(events, ""), 2)
	assert.Len(t, FilterByCategory(events, "all"), 2)

	work := FilterByCategory(events, "work")
	require.Len(t, work, 1)
	assert.Equal(t, "a", work[0].Title)
	assert.Empty(t, FilterByCategory(events, "travel"))
}

func TestBounds(t *testing.T) {
	start, end := Bounds(2025, time.December)
	assert.Equal(t, time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), end)
}
