package pricing

import (
	"sort"
	"strings"

	"github.com/georgemunganga/printa-fulfillment/internal/apperr"
	"github.com/shopspring/decimal"
)

// HistoryMode selects how prior sale prices are summarised for drift checks.
type HistoryMode string

const (
	HistoryMean   HistoryMode = "mean"
	HistoryLatest HistoryMode = "latest"
)

// Tier is a quantity breakpoint: orders of at least MinQuantity units get
// DiscountPercent off the catalog price.
type Tier struct {
	Name            string          `json:"name" yaml:"name"`
	MinQuantity     int             `json:"min_quantity" yaml:"min_quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent" yaml:"discount_percent"`
}

// Policy is the pricing configuration.
type Policy struct {
	Currency       string          `json:"currency" yaml:"currency"`
	MinorUnits     int32           `json:"minor_units" yaml:"minor_units"`
	Tiers          []Tier          `json:"tiers" yaml:"tiers"`
	DriftTolerance decimal.Decimal `json:"drift_tolerance" yaml:"drift_tolerance"` // relative, 0.25 = 25%
	HistoryMode    HistoryMode     `json:"history_mode" yaml:"history_mode"`
	HistoryWindow  int             `json:"history_window" yaml:"history_window"` // prior sales considered, 0 = all
}

// DefaultPolicy is a single 10% bulk tier for orders over 500 units.
func DefaultPolicy() Policy {
	return Policy{
		Currency:   "USD",
		MinorUnits: 2,
		Tiers: []Tier{
			{Name: "bulk", MinQuantity: 501, DiscountPercent: decimal.NewFromInt(10)},
		},
		DriftTolerance: decimal.RequireFromString("0.25"),
		HistoryMode:    HistoryMean,
	}
}

// NewPolicy validates p and returns a copy with tiers sorted by MinQuantity.
// Discounts must never decrease as the breakpoint grows, which keeps the unit
// price non-increasing in quantity.
func NewPolicy(p Policy) (Policy, error) {
	if strings.TrimSpace(p.Currency) == "" {
		return Policy{}, apperr.InvalidRequest("pricing currency is required")
	}
	if p.MinorUnits < 0 || p.MinorUnits > 4 {
		return Policy{}, apperr.InvalidRequest("minor units must be between 0 and 4, got %d", p.MinorUnits)
	}
	if p.DriftTolerance.IsNegative() {
		return Policy{}, apperr.InvalidRequest("drift tolerance must not be negative")
	}
	if p.HistoryMode == "" {
		p.HistoryMode = HistoryMean
	}
	if p.HistoryMode != HistoryMean && p.HistoryMode != HistoryLatest {
		return Policy{}, apperr.InvalidRequest("unknown history mode %q", p.HistoryMode)
	}
	if p.HistoryWindow < 0 {
		return Policy{}, apperr.InvalidRequest("history window must not be negative")
	}

	tiers := append([]Tier(nil), p.Tiers...)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinQuantity < tiers[j].MinQuantity })
	hundred := decimal.NewFromInt(100)
	for i, t := range tiers {
		if t.Name == "" {
			return Policy{}, apperr.InvalidRequest("tier at %d units has no name", t.MinQuantity)
		}
		if t.MinQuantity < 1 {
			return Policy{}, apperr.InvalidRequest("tier %q: min quantity must be positive", t.Name)
		}
		if t.DiscountPercent.IsNegative() || t.DiscountPercent.GreaterThanOrEqual(hundred) {
			return Policy{}, apperr.InvalidRequest("tier %q: discount must be in [0, 100)", t.Name)
		}
		if i == 0 {
			continue
		}
		prev := tiers[i-1]
		if t.MinQuantity == prev.MinQuantity {
			return Policy{}, apperr.InvalidRequest("tiers %q and %q share breakpoint %d", prev.Name, t.Name, t.MinQuantity)
		}
		if t.DiscountPercent.LessThan(prev.DiscountPercent) {
			return Policy{}, apperr.InvalidRequest("tier %q discounts less than smaller tier %q", t.Name, prev.Name)
		}
	}
	p.Tiers = tiers
	return p, nil
}

// TierFor returns the highest tier quantity qualifies for, or nil. Tiers
// never combine.
func (p Policy) TierFor(quantity int) *Tier {
	var best *Tier
	for i := range p.Tiers {
		if p.Tiers[i].MinQuantity <= quantity {
			best = &p.Tiers[i]
		}
	}
	return best
}

// UnitPrice applies the qualifying tier to base.
func (p Policy) UnitPrice(base decimal.Decimal, quantity int) (decimal.Decimal, *Tier) {
	tier := p.TierFor(quantity)
	if tier == nil {
		return base, nil
	}
	factor := decimal.NewFromInt(100).Sub(tier.DiscountPercent).Div(decimal.NewFromInt(100))
	return base.Mul(factor), tier
}

// Total is quantity x unit rounded half-to-even to the currency minor unit.
func (p Policy) Total(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity))).RoundBank(p.MinorUnits)
}
