package finance

import (
	"log/slog"
	"math"

	"github.com/shopspring/decimal"
)

// ReinvestPolicy is the configured reinvestment switch and percentage.
type ReinvestPolicy struct {
	Enabled    bool
	Percentage float64
}

// Reinvestment splits a profit between the budget and the reserve.
type Reinvestment struct {
	ReinvestAmount float64
	ReserveAmount  float64
	Percentage     float64
}

// Suggestion is an advisory reinvestment percentage. It is never applied
// automatically.
type Suggestion struct {
	CurrentPercentage     float64
	RecommendedPercentage float64
	AvgProfitPerOperation float64
	Message               string
}

// Reinvestor turns cycle profit into a budget top-up.
type Reinvestor struct {
	ledger *Ledger
	policy ReinvestPolicy
	logger *slog.Logger
}

// NewReinvestor wires the policy to the ledger it credits.
func NewReinvestor(ledger *Ledger, policy ReinvestPolicy, logger *slog.Logger) *Reinvestor {
	return &Reinvestor{ledger: ledger, policy: policy, logger: logger}
}

// Calculate splits profit. With reinvestment disabled or no profit the whole
// amount stays in reserve.
func (r *Reinvestor) Calculate(profit float64) Reinvestment {
	if !r.policy.Enabled || profit <= 0 || !finite(profit) || !finite(r.policy.Percentage) {
		return Reinvestment{ReinvestAmount: 0, ReserveAmount: profit, Percentage: 0}
	}

	p := decimal.NewFromFloat(profit)
	reinvest := p.Mul(decimal.NewFromFloat(r.policy.Percentage)).Div(decimal.NewFromInt(100)).Round(2)
	reserve := p.Sub(reinvest)

	return Reinvestment{
		ReinvestAmount: reinvest.InexactFloat64(),
		ReserveAmount:  reserve.InexactFloat64(),
		Percentage:     r.policy.Percentage,
	}
}

// Execute credits the reinvested share to the ledger and returns it.
func (r *Reinvestor) Execute(profit float64) (float64, error) {
	calc := r.Calculate(profit)
	if calc.ReinvestAmount <= 0 {
		return 0, nil
	}
	if err := r.ledger.Credit(calc.ReinvestAmount); err != nil {
		return 0, err
	}
	if r.logger != nil {
		r.logger.Info("profit reinvested",
			"amount", calc.ReinvestAmount,
			"percentage", calc.Percentage,
			"profit", profit,
			"budget", r.ledger.Get())
	}
	return calc.ReinvestAmount, nil
}

// SuggestPercentage recommends a percentage from lifetime profitability.
func (r *Reinvestor) SuggestPercentage(totalProfit float64, operations int) Suggestion {
	avg := 0.0
	if operations > 0 {
		avg = totalProfit / float64(operations)
	}

	current := r.policy.Percentage
	s := Suggestion{CurrentPercentage: current, AvgProfitPerOperation: Round2(avg)}
	switch {
	case avg > 10:
		s.RecommendedPercentage = math.Min(current+10, 80)
		s.Message = "high profitability, consider increasing reinvestment"
	case avg > 5:
		s.RecommendedPercentage = current
		s.Message = "good profitability, maintain current reinvestment"
	default:
		s.RecommendedPercentage = math.Max(current-10, 30)
		s.Message = "lower profitability, consider decreasing reinvestment"
	}
	return s
}
