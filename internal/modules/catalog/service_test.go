package catalog

import (
	"context"
	"testing"

	"github.com/georgemunganga/printa-fulfillment/internal/apperr"
	"github.com/shopspring/decimal"
)

func glossy() Item {
	return Item{
		Name:             "Glossy paper",
		Category:         "paper",
		UnitCost:         decimal.RequireFromString("0.05"),
		UnitPrice:        decimal.RequireFromString("0.20"),
		InitialStock:     500,
		ReorderThreshold: 100,
		ReorderQuantity:  1000,
	}
}

func TestGetIsExactMatch(t *testing.T) {
	s := NewService(NewMemoryRepository())
	ctx := context.Background()
	if err := s.Load(ctx, []Item{glossy()}); err != nil {
		t.Fatalf("load: %v", err)
	}

	item, err := s.Get(ctx, "Glossy paper")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if item.Unit() != 1 {
		t.Fatalf("unit = %d, want default 1", item.Unit())
	}

	for _, name := range []string{"glossy paper", "Glossy paper ", "Glossy", "Glossy papers"} {
		if _, err := s.Get(ctx, name); !apperr.Is(err, apperr.KindUnknownItem) {
			t.Errorf("Get(%q) err = %v, want UnknownItem", name, err)
		}
	}
}

func TestLoadRejectsBadItems(t *testing.T) {
	dup := glossy()
	noPrice := glossy()
	noPrice.UnitPrice = decimal.Zero
	negStock := glossy()
	negStock.InitialStock = -1
	padded := glossy()
	padded.Name = " Glossy paper"
	badLead := glossy()
	badLead.LeadTimes = []LeadTime{{MinQuantity: 0, Days: 3}, {MinQuantity: 100, Days: 1}}

	cases := map[string][]Item{
		"duplicate":      {glossy(), dup},
		"zero price":     {noPrice},
		"negative stock": {negStock},
		"padded name":    {padded},
		"shrinking lead": {badLead},
	}
	for name, items := range cases {
		s := NewService(NewMemoryRepository())
		if err := s.Load(context.Background(), items); !apperr.Is(err, apperr.KindInvalidRequest) {
			t.Errorf("%s: err = %v, want InvalidRequest", name, err)
		}
	}
}

func TestListFiltersByCategory(t *testing.T) {
	s := NewService(NewMemoryRepository())
	ctx := context.Background()
	envelopes := Item{Name: "Envelopes", Category: "office", UnitPrice: decimal.RequireFromString("0.05")}
	if err := s.Load(ctx, []Item{glossy(), envelopes}); err != nil {
		t.Fatalf("load: %v", err)
	}

	all, _ := s.List(ctx, "")
	if len(all) != 2 || all[0].Name != "Envelopes" {
		t.Fatalf("List(\"\") = %d items, first %q", len(all), all[0].Name)
	}
	office, _ := s.List(ctx, "office")
	if len(office) != 1 || office[0].Name != "Envelopes" {
		t.Fatalf("List(office) = %+v", office)
	}
}

func TestValidateLeadTimesAcceptsUnsortedMonotonicSchedule(t *testing.T) {
	steps := []LeadTime{{MinQuantity: 1001, Days: 7}, {MinQuantity: 0, Days: 0}, {MinQuantity: 101, Days: 4}, {MinQuantity: 11, Days: 1}}
	if err := ValidateLeadTimes(steps); err != nil {
		t.Fatalf("ValidateLeadTimes: %v", err)
	}
}
