package handlers

import (
	"net/http"
	"testing"
	"time"

	"b0ase/calendar"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarMonth(t *testing.T) {
	env := newTestEnv(t)
	h := NewCalendarHandler(env.deps)

	rec := serve(h.Month, jsonRequest(http.MethodGet, "/api/calendar?year=2025&month=13", ""), memberUser(), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, calendar.ErrInvalidMonth.Error(), errorOf(t, rec))

	env.mock.ExpectQuery(`FROM "calendar_events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "category", "event_date"}).
			AddRow(1, 1, "Launch", "release", time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)).
			AddRow(2, 1, "Retro", "meeting", time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC)))

	rec = serve(h.Month, jsonRequest(http.MethodGet, "/api/calendar?year=2025&month=3&category=release", ""), memberUser(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, float64(6), out["first_weekday"])
	assert.Equal(t, float64(31), out["days"])

	cells := out["cells"].([]interface{})
	require.Len(t, cells, 31)
	launch := cells[13].(map[string]interface{})["events"].([]interface{})
	require.Len(t, launch, 1)
	assert.Equal(t, "Launch", launch[0].(map[string]interface{})["title"])
	assert.Empty(t, cells[19].(map[string]interface{})["events"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateCalendarEvent(t *testing.T) {
	env := newTestEnv(t)
	h := NewCalendarHandler(env.deps)

	rec := serve(h.Create, jsonRequest(http.MethodPost, "/api/calendar/events", `{"title":"Launch","event_date":"14/03/2025"}`), memberUser(), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "event_date must be a date (YYYY-MM-DD)", errorOf(t, rec))

	env.mock.ExpectQuery(`INSERT INTO "calendar_events"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	rec = serve(h.Create, jsonRequest(http.MethodPost, "/api/calendar/events", `{"title":"Launch","category":"Release","event_date":"2025-03-14"}`), memberUser(), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "release", decode(t, rec)["category"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestDeleteSomeoneElsesEvent(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery(`FROM "calendar_events"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec := serve(NewCalendarHandler(env.deps).Delete, jsonRequest(http.MethodDelete, "/", ""), memberUser(), map[string]string{"id": "4"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "event not found", errorOf(t, rec))
}
