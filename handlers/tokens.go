package handlers

import (
	"net/http"
	"time"

	"b0ase/events"
	"b0ase/models"

	"github.com/shopspring/decimal"
)

type TokenHandler struct {
	*Deps
}

func NewTokenHandler(d *Deps) *TokenHandler {
	return &TokenHandler{Deps: d}
}

type tokenRequest struct {
	Name              string              `json:"name" validate:"required,max=100"`
	TickerSymbol      string              `json:"ticker_symbol" validate:"required"`
	Category          string              `json:"token_category" validate:"required,oneof=profile project team"`
	Chain             string              `json:"token_chain"`
	TotalSupply       decimal.NullDecimal `json:"total_supply"`
	DividendBearing   bool                `json:"dividend_bearing"`
	MintPublicAddress string              `json:"mint_public_address" validate:"max=200"`
}

func (req *tokenRequest) apply(t *models.Token) error {
	t.Name = req.Name
	t.TickerSymbol = req.TickerSymbol
	t.Category = models.TokenCategory(req.Category)
	t.Chain = req.Chain
	t.TotalSupply = req.TotalSupply
	t.DividendBearing = req.DividendBearing
	t.MintPublicAddress = req.MintPublicAddress
	t.Normalize()
	return t.Validate()
}

// List groups the caller's tokens by category.
func (h *TokenHandler) List(w http.ResponseWriter, r *http.Request) {
	var tokens []models.Token
	err := h.DB.WithContext(r.Context()).Where("user_id = ?", currentUser(r).ID).Order("created_at").Find(&tokens).Error
	if err != nil {
		h.storeError(w, err, "token")
		return
	}

	grouped := map[models.TokenCategory][]models.Token{
		models.TokenProfile: {},
		models.TokenProject: {},
		models.TokenTeam:    {},
	}
	for _, t := range tokens {
		grouped[t.Category] = append(grouped[t.Category], t)
	}
	writeJSON(w, http.StatusOK, grouped)
}

func (h *TokenHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !bind(w, r, &req) {
		return
	}
	token := models.Token{UserID: currentUser(r).ID}
	if err := req.apply(&token); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.DB.WithContext(r.Context()).Create(&token).Error; err != nil {
		h.storeError(w, err, "token")
		return
	}
	writeJSON(w, http.StatusCreated, token)
}

func (h *TokenHandler) token(w http.ResponseWriter, r *http.Request) (*models.Token, bool) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	var token models.Token
	if err := h.DB.WithContext(r.Context()).First(&token, id).Error; err != nil {
		h.storeError(w, err, "token")
		return nil, false
	}
	// other users' tokens are not acknowledged
	if !currentUser(r).CanManageToken(&token) {
		writeError(w, http.StatusNotFound, "token not found")
		return nil, false
	}
	return &token, true
}

func (h *TokenHandler) Get(w http.ResponseWriter, r *http.Request) {
	token, ok := h.token(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (h *TokenHandler) Update(w http.ResponseWriter, r *http.Request) {
	token, ok := h.token(w, r)
	if !ok {
		return
	}
	if token.Status != models.TokenDraft {
		writeError(w, http.StatusConflict, "token can no longer be edited once minting is requested")
		return
	}

	var req tokenRequest
	if !bind(w, r, &req) {
		return
	}
	if err := req.apply(token); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.DB.WithContext(r.Context()).Save(token).Error; err != nil {
		h.storeError(w, err, "token")
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// Mint records the request only; nothing is sent to a chain.
func (h *TokenHandler) Mint(w http.ResponseWriter, r *http.Request) {
	token, ok := h.token(w, r)
	if !ok {
		return
	}
	if token.Status != models.TokenDraft {
		writeError(w, http.StatusConflict, "minting has already been requested")
		return
	}
	if err := token.RequestMint(time.Now().UTC()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.DB.WithContext(r.Context()).Model(token).Updates(map[string]interface{}{
		"status":            token.Status,
		"mint_requested_at": token.MintRequestedAt,
	}).Error
	if err != nil {
		h.storeError(w, err, "token")
		return
	}

	h.publish(events.New(events.TokenMintRequested, token.ID, token.UserID, map[string]any{
		"ticker": token.TickerSymbol,
		"chain":  token.Chain,
		"supply": token.TotalSupply.Decimal.String(),
	}))
	writeJSON(w, http.StatusAccepted, token)
}
