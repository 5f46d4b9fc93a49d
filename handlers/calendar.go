package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"b0ase/calendar"
	"b0ase/models"
)

type CalendarHandler struct {
	*Deps
}

func NewCalendarHandler(d *Deps) *CalendarHandler {
	return &CalendarHandler{Deps: d}
}

type calendarEventRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"max=50"`
	EventDate   string `json:"event_date" validate:"required"`
}

func (req *calendarEventRequest) apply(e *models.CalendarEvent) error {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(req.EventDate))
	if err != nil {
		return errors.New("event_date must be a date (YYYY-MM-DD)")
	}
	e.Title = strings.TrimSpace(req.Title)
	e.Description = req.Description
	e.Category = strings.ToLower(strings.TrimSpace(req.Category))
	e.EventDate = date
	return nil
}

// Month answers the caller's calendar grid for ?year=&month=, defaulting to
// the current month. ?category= narrows the events shown.
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	year, month := now.Year(), now.Month()
	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			writeError(w, http.StatusBadRequest, "year must be a number")
			return
		}
		year = y
	}
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			writeError(w, http.StatusBadRequest, calendar.ErrInvalidMonth.Error())
			return
		}
		month = time.Month(m)
	}

	start, end := calendar.Bounds(year, month)
	var events []models.CalendarEvent
	err := h.DB.WithContext(r.Context()).
		Where("user_id = ? AND event_date >= ? AND event_date < ?", currentUser(r).ID, start, end).
		Order("event_date, id").
		Find(&events).Error
	if err != nil {
		h.storeError(w, err, "event")
		return
	}

	view, err := calendar.Month(year, month, calendar.FilterByCategory(events, q.Get("category")))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CalendarHandler) List(w http.ResponseWriter, r *http.Request) {
	events := []models.CalendarEvent{}
	err := h.DB.WithContext(r.Context()).Where("user_id = ?", currentUser(r).ID).Order("event_date DESC").Limit(500).Find(&events).Error
	if err != nil {
		h.storeError(w, err, "event")
		return
	}
	writeJSON(w, http.StatusOK, calendar.FilterByCategory(events, r.URL.Query().Get("category")))
}

func (h *CalendarHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req calendarEventRequest
	if !bind(w, r, &req) {
		return
	}
	event := models.CalendarEvent{UserID: currentUser(r).ID}
	if err := req.apply(&event); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.DB.WithContext(r.Context()).Create(&event).Error; err != nil {
		h.storeError(w, err, "event")
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *CalendarHandler) event(w http.ResponseWriter, r *http.Request) (*models.CalendarEvent, bool) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	var event models.CalendarEvent
	err = h.DB.WithContext(r.Context()).Where("id = ? AND user_id = ?", id, currentUser(r).ID).First(&event).Error
	if err != nil {
		h.storeError(w, err, "event")
		return nil, false
	}
	return &event, true
}

func (h *CalendarHandler) Update(w http.ResponseWriter, r *http.Request) {
	event, ok := h.event(w, r)
	if !ok {
		return
	}
	var req calendarEventRequest
	if !bind(w, r, &req) {
		return
	}
	if err := req.apply(event); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.DB.WithContext(r.Context()).Save(event).Error; err != nil {
		h.storeError(w, err, "event")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *CalendarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	event, ok := h.event(w, r)
	if !ok {
		return
	}
	if err := h.DB.WithContext(r.Context()).Delete(event).Error; err != nil {
		h.storeError(w, err, "event")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
