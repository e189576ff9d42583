package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of every business date.
const DateLayout = "2006-01-02"

// Kind classifies a stock or cash movement.
type Kind string

const (
	KindSale     Kind = "SALE"     // stock out, cash in
	KindPurchase Kind = "PURCHASE" // supplier delivery, cash out
	KindRestock  Kind = "RESTOCK"  // opening stock and corrections, no cash
)

// Transaction is an immutable ledger entry. Quantity is signed: negative
// withdraws stock.
type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	Seq       int64           `json:"seq"`
	Kind      Kind            `json:"kind"`
	Item      string          `json:"item"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ListPrice decimal.Decimal `json:"list_price"` // catalog price before discount, SALE only
	CashDelta decimal.Decimal `json:"cash_delta"`
	Date      time.Time       `json:"date"`
	Deferred  bool            `json:"deferred"` // scheduled supplier delivery
	Rationale string          `json:"rationale"`
	CreatedAt time.Time       `json:"created_at"`
}

// Snapshot is derived state as of a date.
type Snapshot struct {
	AsOf  time.Time       `json:"as_of"`
	Stock map[string]int  `json:"stock"`
	Cash  decimal.Decimal `json:"cash"`
}

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD business date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// before reports whether a precedes b in causal order.
func before(a, b *Transaction) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.Seq < b.Seq
}

// SortCausal orders transactions by date, then insertion sequence.
func SortCausal(txs []*Transaction) {
	sort.SliceStable(txs, func(i, j int) bool { return before(txs[i], txs[j]) })
}

// Fold replays txs (any order) up to and including asOf over an initial cash
// balance.
func Fold(txs []*Transaction, initialCash decimal.Decimal, asOf time.Time) *Snapshot {
	asOf = Day(asOf)
	snap := &Snapshot{AsOf: asOf, Stock: map[string]int{}, Cash: initialCash}
	for _, tx := range txs {
		if tx.Date.After(asOf) {
			continue
		}
		snap.Stock[tx.Item] += tx.Quantity
		snap.Cash = snap.Cash.Add(tx.CashDelta)
	}
	return snap
}

// Headroom returns how many units of the item can be withdrawn at asOf
// without any point of the item's causal history going negative. history
// must hold only that item's transactions.
func Headroom(history []*Transaction, asOf time.Time) int {
	asOf = Day(asOf)
	txs := append([]*Transaction(nil), history...)
	SortCausal(txs)

	running := 0
	i := 0
	for ; i < len(txs) && !txs[i].Date.After(asOf); i++ {
		running += txs[i].Quantity
	}
	room := running
	for ; i < len(txs); i++ {
		running += txs[i].Quantity
		if running < room {
			room = running
		}
	}
	if room < 0 {
		return 0
	}
	return room
}
