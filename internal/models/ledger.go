// Package models defines data structures for perfstrip
package models

import (
	"sort"
	"strings"
	"time"
)

// TransactionKind is the action recorded on a ledger row.
type TransactionKind string

const (
	KindBuy  TransactionKind = "buy"
	KindSell TransactionKind = "sell"
)

// ParseTransactionKind maps a ledger action ("Buy", "SELL", ...) to a kind.
// The second return is false for any other action.
func ParseTransactionKind(s string) (TransactionKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return KindBuy, true
	case "sell":
		return KindSell, true
	default:
		return "", false
	}
}

// LedgerRow is one raw row of the transaction ledger before normalization.
// Numeric fields are kept as text so the normalizer can apply its own
// currency and quantity rules.
type LedgerRow struct {
	Line            int    `json:"line"` // 1-based line in the source file, 0 when unknown
	Date            string `json:"date"`
	Instrument      string `json:"instrument"`
	Type            string `json:"type"`
	Units           string `json:"units"`
	UnitPrice       string `json:"unit_price"`
	CumulativeUnits string `json:"cumulative_units"`
	Category        string `json:"category,omitempty"`
}

// Transaction is a single validated buy or sell of one instrument.
type Transaction struct {
	Seq       int             `json:"seq"` // ledger order, used to break same-day ties
	Date      time.Time       `json:"date"`
	Kind      TransactionKind `json:"kind"`
	Units     float64         `json:"units"`
	UnitPrice float64         `json:"unit_price"`
}

// IsBuy reports whether the transaction adds to the position.
func (t Transaction) IsBuy() bool { return t.Kind == KindBuy }

// TransactionSet is the chronologically ordered transactions of one instrument.
// It is immutable once built; accessors hand out copies.
type TransactionSet struct {
	instrument   string
	transactions []Transaction
}

// NewTransactionSet sorts txns ascending by date, keeping ledger order
// (Seq) for transactions on the same date.
func NewTransactionSet(instrument string, txns []Transaction) TransactionSet {
	sorted := make([]Transaction, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].Seq < sorted[j].Seq
	})
	return TransactionSet{instrument: instrument, transactions: sorted}
}

// Instrument returns the instrument code.
func (s TransactionSet) Instrument() string { return s.instrument }

// Len returns the number of transactions.
func (s TransactionSet) Len() int { return len(s.transactions) }

// At returns the i-th transaction in chronological order.
func (s TransactionSet) At(i int) Transaction { return s.transactions[i] }

// Transactions returns a copy of the ordered transactions.
func (s TransactionSet) Transactions() []Transaction {
	out := make([]Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

// FirstBuy returns the earliest buy and true, or false when there is none.
func (s TransactionSet) FirstBuy() (Transaction, bool) {
	for _, t := range s.transactions {
		if t.IsBuy() {
			return t, true
		}
	}
	return Transaction{}, false
}

// BuyCount returns the number of buy transactions.
func (s TransactionSet) BuyCount() int {
	n := 0
	for _, t := range s.transactions {
		if t.IsBuy() {
			n++
		}
	}
	return n
}
