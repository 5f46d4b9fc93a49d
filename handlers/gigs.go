package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"b0ase/events"
	"b0ase/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultGigPageSize = 20
	maxGigPageSize     = 50
)

type GigHandler struct {
	*Deps
}

func NewGigHandler(d *Deps) *GigHandler {
	return &GigHandler{Deps: d}
}

type gigRequest struct {
	Title              string              `json:"title" validate:"required,max=120"`
	Description        string              `json:"description" validate:"max=5000"`
	Category           string              `json:"category" validate:"max=100"`
	SubCategory        string              `json:"sub_category" validate:"max=100"`
	SkillsRequired     string              `json:"skills_required"`
	Tags               string              `json:"tags"`
	BudgetType         string              `json:"budget_type"`
	BudgetAmountMin    decimal.NullDecimal `json:"budget_amount_min"`
	BudgetAmountMax    decimal.NullDecimal `json:"budget_amount_max"`
	Currency           string              `json:"currency"`
	LocationPreference string              `json:"location_preference"`
	Deadline           string              `json:"deadline"`
	Status             string              `json:"status"`
	IsPublished        bool                `json:"is_published"`
}

// apply copies the form onto g. Skills and tags arrive as comma separated
// text and the deadline as YYYY-MM-DD.
func (req *gigRequest) apply(g *models.Gig) error {
	g.Title = req.Title
	g.Description = req.Description
	g.Category = strings.TrimSpace(req.Category)
	g.SubCategory = strings.TrimSpace(req.SubCategory)
	g.SkillsRequired = models.ParseList(req.SkillsRequired)
	g.Tags = models.ParseList(req.Tags)
	g.BudgetType = req.BudgetType
	g.BudgetAmountMin = req.BudgetAmountMin
	g.BudgetAmountMax = req.BudgetAmountMax
	g.Currency = req.Currency
	g.LocationPreference = req.LocationPreference
	g.Status = models.GigStatus(req.Status)
	g.IsPublished = req.IsPublished

	g.Deadline = nil
	if d := strings.TrimSpace(req.Deadline); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			return errBadDeadline
		}
		g.Deadline = &t
	}

	g.Normalize()
	return g.Validate()
}

var errBadDeadline = errors.New("deadline must be a date (YYYY-MM-DD)")

type gigPage struct {
	Gigs    []models.Gig `json:"gigs"`
	Page    int          `json:"page"`
	PerPage int          `json:"per_page"`
	Total   int64        `json:"total"`
}

// Browse lists published gigs. Pages are cached by their normalised query
// until any gig changes.
func (h *GigHandler) Browse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", defaultGigPageSize)
	if perPage > maxGigPageSize {
		perPage = maxGigPageSize
	}

	var status models.GigStatus
	if s := q.Get("status"); s != "" {
		st, err := models.ParseGigStatus(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "status must be one of: draft, open, in_progress, closed, completed")
			return
		}
		status = st
	}

	key := url.Values{
		"category": {q.Get("category")},
		"status":   {string(status)},
		"tag":      {q.Get("tag")},
		"q":        {strings.TrimSpace(q.Get("q"))},
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}.Encode()

	cacheKey, cached, ok, err := h.Cache.GetGigPage(r.Context(), key)
	if err != nil {
		h.Log.Warn("read gig cache failed", zap.Error(err))
	} else if ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.WriteHeader(http.StatusOK)
		w.Write(cached)
		return
	}

	db := h.DB.WithContext(r.Context()).Model(&models.Gig{}).Where("is_published = ?", true)
	if c := q.Get("category"); c != "" {
		db = db.Where("category = ?", c)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if tag := q.Get("tag"); tag != "" {
		db = db.Where("? = ANY(tags)", tag)
	}
	if term := strings.TrimSpace(q.Get("q")); term != "" {
		like := "%" + escapeLike(term) + "%"
		db = db.Where("(title ILIKE ? OR description ILIKE ?)", like, like)
	}

	db = db.Session(&gorm.Session{})

	result := gigPage{Gigs: []models.Gig{}, Page: page, PerPage: perPage}
	if err := db.Count(&result.Total).Error; err != nil {
		h.storeError(w, err, "gig")
		return
	}
	if err := db.Order("created_at DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&result.Gigs).Error; err != nil {
		h.storeError(w, err, "gig")
		return
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(result); err != nil {
		h.Log.Error("encode gig page", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if err := h.Cache.SetGigPage(r.Context(), cacheKey, buf.Bytes(), h.Config.Redis.GigTTL); err != nil {
		h.Log.Warn("write gig cache failed", zap.Error(err))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (h *GigHandler) Mine(w http.ResponseWriter, r *http.Request) {
	gigs := []models.Gig{}
	err := h.DB.WithContext(r.Context()).Where("user_id = ?", currentUser(r).ID).Order("updated_at DESC").Find(&gigs).Error
	if err != nil {
		h.storeError(w, err, "gig")
		return
	}
	writeJSON(w, http.StatusOK, gigs)
}

func (h *GigHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req gigRequest
	if !bind(w, r, &req) {
		return
	}
	gig := models.Gig{UserID: user.ID}
	if err := req.apply(&gig); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.DB.WithContext(r.Context()).Create(&gig).Error; err != nil {
		h.storeError(w, err, "gig")
		return
	}
	h.gigChanged(r, &gig, false)
	writeJSON(w, http.StatusCreated, gig)
}

func (h *GigHandler) find(w http.ResponseWriter, r *http.Request) (*models.Gig, bool) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	var gig models.Gig
	if err := h.DB.WithContext(r.Context()).First(&gig, id).Error; err != nil {
		h.storeError(w, err, "gig")
		return nil, false
	}
	return &gig, true
}

// owned loads the {id} gig for a caller allowed to change it.
func (h *GigHandler) owned(w http.ResponseWriter, r *http.Request) (*models.Gig, bool) {
	gig, ok := h.find(w, r)
	if !ok {
		return nil, false
	}
	if !currentUser(r).CanManageGig(gig) {
		writeError(w, http.StatusForbidden, "only the gig owner can do that")
		return nil, false
	}
	return gig, true
}

// Get answers 404 for drafts the caller does not own.
func (h *GigHandler) Get(w http.ResponseWriter, r *http.Request) {
	gig, ok := h.find(w, r)
	if !ok {
		return
	}
	if !gig.VisibleTo(currentUser(r)) {
		writeError(w, http.StatusNotFound, "gig not found")
		return
	}
	writeJSON(w, http.StatusOK, gig)
}

func (h *GigHandler) Update(w http.ResponseWriter, r *http.Request) {
	gig, ok := h.owned(w, r)
	if !ok {
		return
	}
	wasPublished := gig.IsPublished

	var req gigRequest
	if !bind(w, r, &req) {
		return
	}
	if err := req.apply(gig); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.DB.WithContext(r.Context()).Save(gig).Error; err != nil {
		h.storeError(w, err, "gig")
		return
	}
	h.gigChanged(r, gig, wasPublished)
	writeJSON(w, http.StatusOK, gig)
}

func (h *GigHandler) Delete(w http.ResponseWriter, r *http.Request) {
	gig, ok := h.owned(w, r)
	if !ok {
		return
	}
	if err := h.DB.WithContext(r.Context()).Delete(gig).Error; err != nil {
		h.storeError(w, err, "gig")
		return
	}
	h.invalidateGigs(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *GigHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, true)
}

func (h *GigHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, false)
}

func (h *GigHandler) setPublished(w http.ResponseWriter, r *http.Request, publish bool) {
	gig, ok := h.owned(w, r)
	if !ok {
		return
	}
	wasPublished := gig.IsPublished
	if publish {
		gig.Publish()
	} else {
		gig.Unpublish()
	}

	err := h.DB.WithContext(r.Context()).Model(gig).Updates(map[string]interface{}{
		"is_published": gig.IsPublished,
		"status":       gig.Status,
	}).Error
	if err != nil {
		h.storeError(w, err, "gig")
		return
	}
	h.gigChanged(r, gig, wasPublished)
	writeJSON(w, http.StatusOK, gig)
}

// gigChanged drops cached browse pages and announces a newly published gig.
func (h *GigHandler) gigChanged(r *http.Request, gig *models.Gig, wasPublished bool) {
	h.invalidateGigs(r.Context())
	if gig.IsPublished && !wasPublished {
		h.publish(events.New(events.GigPublished, gig.ID, gig.UserID, map[string]any{
			"title":    gig.Title,
			"category": gig.Category,
		}))
	}
}
