package config

import (
	"fmt"
	"os"
	"time"

	"github.com/georgemunganga/printa-fulfillment/internal/modules/catalog"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/ledger"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/pricing"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/restock"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Policy is the business configuration: the catalog, opening position and
// the pricing and restocking rules.
type Policy struct {
	StartDate   string          `yaml:"start_date"`
	InitialCash decimal.Decimal `yaml:"initial_cash"`
	Pricing     pricing.Policy  `yaml:"pricing"`
	Restock     restock.Policy  `yaml:"restock"`
	Items       []catalog.Item  `yaml:"items"`

	start time.Time
}

// DefaultPolicy carries the built-in pricing and restocking rules and an
// empty catalog.
func DefaultPolicy() Policy {
	return Policy{
		StartDate:   "2025-01-01",
		InitialCash: decimal.Zero,
		Pricing:     pricing.DefaultPolicy(),
		Restock:     restock.DefaultPolicy(),
	}
}

// LoadPolicy reads and validates a YAML policy file.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	p, err := ParsePolicy(data)
	if err != nil {
		return nil, fmt.Errorf("policy file %s: %w", path, err)
	}
	return p, nil
}

// ParsePolicy decodes YAML over DefaultPolicy, so omitted sections keep their
// defaults.
func ParsePolicy(data []byte) (*Policy, error) {
	p := DefaultPolicy()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the policy and normalises its pricing tiers. Items are
// validated by catalog.Load.
func (p *Policy) Validate() error {
	start, err := ledger.ParseDate(p.StartDate)
	if err != nil {
		return fmt.Errorf("start_date %q: expected YYYY-MM-DD", p.StartDate)
	}
	p.start = start
	if p.InitialCash.IsNegative() {
		return fmt.Errorf("initial_cash must not be negative, got %s", p.InitialCash)
	}
	pricingPolicy, err := pricing.NewPolicy(p.Pricing)
	if err != nil {
		return fmt.Errorf("pricing: %w", err)
	}
	p.Pricing = pricingPolicy
	p.Restock.MinorUnits = pricingPolicy.MinorUnits
	if len(p.Restock.LeadTimes) == 0 {
		p.Restock.LeadTimes = restock.DefaultPolicy().LeadTimes
	}
	if err := catalog.ValidateLeadTimes(p.Restock.LeadTimes); err != nil {
		return fmt.Errorf("restock: %w", err)
	}
	return nil
}

// Start is the parsed StartDate. It is zero until Validate succeeds.
func (p *Policy) Start() time.Time { return p.start }
