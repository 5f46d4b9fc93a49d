package models

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TokenCategory string

const (
	TokenProfile TokenCategory = "profile"
	TokenProject TokenCategory = "project"
	TokenTeam    TokenCategory = "team"
)

type TokenStatus string

const (
	TokenDraft         TokenStatus = "draft"
	TokenMintRequested TokenStatus = "mint_requested"
)

var (
	tickerPattern   = regexp.MustCompile(`^[A-Z0-9]{2,6}$`)
	supportedChains = []string{"BSV", "SOL", "ETH"}
)

// Token is a placeholder record for a profile, project or team token. Nothing
// here talks to a chain; minting only records the request.
type Token struct {
	ID                uint                `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	UserID            uint                `gorm:"not null;index" json:"user_id"`
	Name              string              `gorm:"not null;size:100" json:"name"`
	TickerSymbol      string              `gorm:"not null;size:6" json:"ticker_symbol"`
	Category          TokenCategory       `gorm:"not null;size:20" json:"token_category"`
	Chain             string              `gorm:"size:10" json:"token_chain"`
	TotalSupply       decimal.NullDecimal `gorm:"type:numeric(38,0)" json:"total_supply"`
	DividendBearing   bool                `gorm:"default:false" json:"dividend_bearing"`
	MintPublicAddress string              `gorm:"size:200" json:"mint_public_address,omitempty"`
	Status            TokenStatus         `gorm:"not null;size:20;default:draft" json:"status"`
	MintRequestedAt   *time.Time          `json:"mint_requested_at,omitempty"`
}

func (t *Token) Normalize() {
	t.Name = strings.TrimSpace(t.Name)
	t.TickerSymbol = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(t.TickerSymbol), "$"))
	t.Chain = strings.ToUpper(strings.TrimSpace(t.Chain))
	if t.Status == "" {
		t.Status = TokenDraft
	}
}

func (t *Token) Validate() error {
	if t.Name == "" {
		return errors.New("name is required")
	}
	if !tickerPattern.MatchString(t.TickerSymbol) {
		return errors.New("ticker_symbol must be 2-6 letters or digits")
	}
	switch t.Category {
	case TokenProfile, TokenProject, TokenTeam:
	default:
		return errors.New("token_category must be profile, project or team")
	}
	if t.Chain != "" && !isSupportedChain(t.Chain) {
		return errors.New("token_chain must be BSV, SOL or ETH")
	}
	if t.TotalSupply.Valid && !t.TotalSupply.Decimal.IsPositive() {
		return errors.New("total_supply must be positive")
	}
	return nil
}

// RequestMint records a mint request. A token needs a chain and a supply
// before it can be minted, and can only be requested once.
func (t *Token) RequestMint(at time.Time) error {
	if t.Status != TokenDraft {
		return ErrInvalidTransition
	}
	if t.Chain == "" || !t.TotalSupply.Valid {
		return errors.New("token_chain and total_supply are required before minting")
	}
	t.Status = TokenMintRequested
	t.MintRequestedAt = &at
	return nil
}

func isSupportedChain(chain string) bool {
	for _, c := range supportedChains {
		if c == chain {
			return true
		}
	}
	return false
}
