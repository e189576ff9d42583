package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/georgemunganga/printa-fulfillment/internal/apperr"
)

// Service defines catalog lookups. The catalog is configuration: it is
// loaded once at start and never mutated by sales.
type Service interface {
	// Load validates and registers the items. Names must be unique.
	Load(ctx context.Context, items []Item) error

	// Get returns the item with exactly this name, or an UnknownItem error.
	Get(ctx context.Context, name string) (*Item, error)

	// List returns items sorted by name, optionally filtered by category.
	List(ctx context.Context, category string) ([]*Item, error)
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) Load(ctx context.Context, items []Item) error {
	seen := make(map[string]bool, len(items))
	for i := range items {
		item := items[i]
		if err := Validate(&item); err != nil {
			return err
		}
		if seen[item.Name] {
			return apperr.InvalidRequest("duplicate catalog item %q", item.Name)
		}
		seen[item.Name] = true
		if item.FulfillmentUnit < 1 {
			item.FulfillmentUnit = 1
		}
		if err := s.repo.Upsert(ctx, &item); err != nil {
			return fmt.Errorf("store catalog item %q: %w", item.Name, err)
		}
	}
	return nil
}

// Get matches names exactly; "glossy paper" does not find "Glossy paper".
func (s *service) Get(ctx context.Context, name string) (*Item, error) {
	item, err := s.repo.GetByName(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.UnknownItem(name)
	}
	if err != nil {
		return nil, apperr.Internal("load catalog item", err)
	}
	return item, nil
}

func (s *service) List(ctx context.Context, category string) ([]*Item, error) {
	return s.repo.List(ctx, category)
}

// Validate checks one item's configuration.
func Validate(item *Item) error {
	if strings.TrimSpace(item.Name) == "" {
		return apperr.InvalidRequest("catalog item name is required")
	}
	if item.Name != strings.TrimSpace(item.Name) {
		return apperr.InvalidRequest("catalog item name %q has surrounding whitespace", item.Name)
	}
	if !item.UnitPrice.IsPositive() {
		return apperr.InvalidRequest("item %q: unit price must be positive", item.Name)
	}
	if item.UnitCost.IsNegative() {
		return apperr.InvalidRequest("item %q: unit cost must not be negative", item.Name)
	}
	if item.InitialStock < 0 || item.ReorderThreshold < 0 || item.ReorderQuantity < 0 {
		return apperr.InvalidRequest("item %q: stock, threshold and reorder quantity must not be negative", item.Name)
	}
	if item.FulfillmentUnit < 0 {
		return apperr.InvalidRequest("item %q: fulfillment unit must not be negative", item.Name)
	}
	if err := ValidateLeadTimes(item.LeadTimes); err != nil {
		return fmt.Errorf("item %q: %w", item.Name, err)
	}
	return nil
}

// ValidateLeadTimes requires distinct non-negative breakpoints whose days
// never shrink as the order grows, so lead time is monotonic in quantity.
func ValidateLeadTimes(steps []LeadTime) error {
	sorted := append([]LeadTime(nil), steps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinQuantity < sorted[j].MinQuantity })
	for i, step := range sorted {
		if step.MinQuantity < 0 || step.Days < 0 {
			return apperr.InvalidRequest("lead time step %+v has negative values", step)
		}
		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		if step.MinQuantity == prev.MinQuantity {
			return apperr.InvalidRequest("lead time breakpoint %d is listed twice", step.MinQuantity)
		}
		if step.Days < prev.Days {
			return apperr.InvalidRequest("lead time for %d units (%d days) is shorter than for %d units (%d days)",
				step.MinQuantity, step.Days, prev.MinQuantity, prev.Days)
		}
	}
	return nil
}
