package handlers

import (
	"net/http"
	"strings"
	"time"

	"b0ase/models"

	"gorm.io/gorm"
)

type DiaryHandler struct {
	*Deps
}

func NewDiaryHandler(d *Deps) *DiaryHandler {
	return &DiaryHandler{Deps: d}
}

type diaryEntryRequest struct {
	Title       string   `json:"title" validate:"max=200"`
	Summary     string   `json:"summary" validate:"max=20000"`
	ActionItems []string `json:"action_items" validate:"max=50,dive,max=1000"`
}

// List returns the caller's entries newest first with their action items.
func (h *DiaryHandler) List(w http.ResponseWriter, r *http.Request) {
	entries := []models.DiaryEntry{}
	err := h.DB.WithContext(r.Context()).
		Preload("ActionItems", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("user_id = ?", currentUser(r).ID).
		Order("entry_timestamp DESC").
		Limit(200).
		Find(&entries).Error
	if err != nil {
		h.storeError(w, err, "diary entry")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Create stores an entry and its non-blank action items together.
func (h *DiaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req diaryEntryRequest
	if !bind(w, r, &req) {
		return
	}
	entry := models.DiaryEntry{
		UserID:         user.ID,
		EntryTimestamp: time.Now().UTC(),
		Title:          strings.TrimSpace(req.Title),
		Summary:        strings.TrimSpace(req.Summary),
	}
	if entry.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if entry.Summary == "" {
		writeError(w, http.StatusBadRequest, "summary is required")
		return
	}

	items := []models.DiaryActionItem{}
	for _, text := range req.ActionItems {
		if text = strings.TrimSpace(text); text != "" {
			items = append(items, models.DiaryActionItem{UserID: user.ID, Text: text})
		}
	}

	err := h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].DiaryEntryID = entry.ID
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		h.storeError(w, err, "diary entry")
		return
	}
	entry.ActionItems = items
	writeJSON(w, http.StatusCreated, entry)
}

type actionItemRequest struct {
	IsCompleted *bool `json:"is_completed" validate:"required"`
}

func (h *DiaryHandler) UpdateActionItem(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req actionItemRequest
	if !bind(w, r, &req) {
		return
	}

	var item models.DiaryActionItem
	db := h.DB.WithContext(r.Context())
	if err := db.Where("id = ? AND user_id = ?", id, currentUser(r).ID).First(&item).Error; err != nil {
		h.storeError(w, err, "action item")
		return
	}
	if err := db.Model(&item).Update("is_completed", *req.IsCompleted).Error; err != nil {
		h.storeError(w, err, "action item")
		return
	}
	item.IsCompleted = *req.IsCompleted
	writeJSON(w, http.StatusOK, item)
}
