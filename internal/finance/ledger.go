// Package finance holds the budget ledger and the reinvestment policy.
package finance

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/shopspring/decimal"
)

// Ledger is the single budget scalar. The cycle orchestrator is its only
// writer while a cycle runs; the mutex only guards readers such as the ops
// endpoints.
//
// There is no floor at zero: a debit larger than the balance drives it
// negative.
type Ledger struct {
	mu      sync.Mutex
	balance decimal.Decimal
	logger  *slog.Logger
}

// NewLedger seeds the ledger with an initial amount. A NaN or infinite seed
// starts the ledger at zero.
func NewLedger(initial float64, logger *slog.Logger) *Ledger {
	l := &Ledger{logger: logger}
	if finite(initial) {
		l.balance = decimal.NewFromFloat(initial)
	} else if logger != nil {
		logger.Warn("non-finite initial budget ignored", "initial", initial)
	}
	return l
}

// Get returns the current balance.
func (l *Ledger) Get() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance.InexactFloat64()
}

// Set overwrites the balance. Non-finite amounts are rejected.
func (l *Ledger) Set(amount float64) error {
	if !finite(amount) {
		return fmt.Errorf("budget must be finite, got %v", amount)
	}
	l.mu.Lock()
	l.balance = decimal.NewFromFloat(amount)
	l.mu.Unlock()
	l.info("budget set", "balance", amount)
	return nil
}

// Debit subtracts a generation cost.
func (l *Ledger) Debit(amount float64) error {
	if err := checkAmount("debit", amount); err != nil {
		return err
	}
	l.mu.Lock()
	l.balance = l.balance.Sub(decimal.NewFromFloat(amount))
	balance := l.balance.InexactFloat64()
	l.mu.Unlock()
	l.info("budget debited", "amount", amount, "balance", balance)
	return nil
}

// Credit adds realized revenue or reinvested profit.
func (l *Ledger) Credit(amount float64) error {
	if err := checkAmount("credit", amount); err != nil {
		return err
	}
	l.mu.Lock()
	l.balance = l.balance.Add(decimal.NewFromFloat(amount))
	balance := l.balance.InexactFloat64()
	l.mu.Unlock()
	l.info("budget credited", "amount", amount, "balance", balance)
	return nil
}

func checkAmount(op string, amount float64) error {
	if !finite(amount) {
		return fmt.Errorf("%s amount must be finite, got %v", op, amount)
	}
	if amount < 0 {
		return fmt.Errorf("%s amount must be non-negative, got %v", op, amount)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (l *Ledger) info(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Info(msg, args...)
	}
}

// ROI is (revenue - cost) / cost, or 0 when nothing was spent.
func ROI(cost, revenue float64) float64 {
	if cost == 0 || !finite(cost) || !finite(revenue) {
		return 0
	}
	roi := decimal.NewFromFloat(revenue).Sub(decimal.NewFromFloat(cost)).
		DivRound(decimal.NewFromFloat(cost), 4)
	return roi.InexactFloat64()
}

// Round2 rounds a currency amount to cents.
func Round2(v float64) float64 {
	if !finite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
