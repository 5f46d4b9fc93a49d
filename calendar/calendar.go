package calendar

import (
	"errors"
	"strings"
	"time"

	"b0ase/models"
)

var ErrInvalidMonth = errors.New("month must be between 1 and 12")

type Day struct {
	Day    int                    `json:"day"`
	Events []models.CalendarEvent `json:"events"`
}

// MonthView is a month grid. FirstWeekday is the number of blank cells
// before the 1st when weeks start on Sunday.
type MonthView struct {
	Year         int          `json:"year"`
	Month        time.Month   `json:"month"`
	FirstWeekday time.Weekday `json:"first_weekday"`
	Days         int          `json:"days"`
	Cells        []Day        `json:"cells"`
}

func Month(year int, month time.Month, events []models.CalendarEvent) (MonthView, error) {
	if month < time.January || month > time.December {
		return MonthView{}, ErrInvalidMonth
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()

	view := MonthView{
		Year:         year,
		Month:        month,
		FirstWeekday: first.Weekday(),
		Days:         days,
		Cells:        make([]Day, days),
	}
	for i := range view.Cells {
		view.Cells[i] = Day{Day: i + 1, Events: []models.CalendarEvent{}}
	}

	for _, e := range events {
		y, m, d := e.EventDate.Date()
		if y != year || m != month {
			continue
		}
		view.Cells[d-1].Events = append(view.Cells[d-1].Events, e)
	}
	return view, nil
}

// FilterByCategory keeps events in category. An empty category or "all"
// keeps everything.
func FilterByCategory(events []models.CalendarEvent, category string) []models.CalendarEvent {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, "all") {
		return events
	}
	out := make([]models.CalendarEvent, 0, len(events))
	for _, e := range events {
		if strings.EqualFold(e.Category, category) {
			out = append(out, e)
		}
	}
	return out
}

// Bounds returns the half-open [start, end) range covering the month, for
// querying stored events.
func Bounds(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
