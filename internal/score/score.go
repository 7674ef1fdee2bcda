// Package score computes a heuristic credit score in [300, 850] from a
// transaction history. The result depends only on the transactions and the
// as-of date, never on the wall clock.
package score

import (
	"math"
	"time"

	"github.com/insightdelivered/extrato-analyzer/internal/categorize"
	"github.com/insightdelivered/extrato-analyzer/internal/models"
)

const (
	Min  = 300
	Max  = 850
	base = 500

	// DefaultRecencyDays is the trailing window counted as recent activity.
	DefaultRecencyDays = 30
)

// Risk levels reported next to a score.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Engine holds the tunable parts of the score.
type Engine struct {
	RecencyWindow time.Duration
}

// NewEngine returns an engine counting transactions from the last
// recencyDays days as recent. Non-positive values use the default.
func NewEngine(recencyDays int) Engine {
	if recencyDays <= 0 {
		recencyDays = DefaultRecencyDays
	}
	return Engine{RecencyWindow: time.Duration(recencyDays) * 24 * time.Hour}
}

// Score is NewEngine(DefaultRecencyDays).Score.
func Score(txns []models.Transaction, asOf time.Time) int {
	return NewEngine(DefaultRecencyDays).Score(txns, asOf)
}

// Score rates txns, which should be in chronological order for the balance
// term to be meaningful. An empty history scores Min.
func (e Engine) Score(txns []models.Transaction, asOf time.Time) int {
	if len(txns) == 0 {
		return Min
	}

	var incomes []float64
	var income, expenses, total, gamblingAmount float64
	gamblingCount := 0
	for _, t := range txns {
		v := t.Amount.InexactFloat64()
		abs := math.Abs(v)
		total += abs
		switch {
		case v > 0:
			incomes = append(incomes, v)
			income += v
		case v < 0:
			expenses += abs
		}
		if categorize.IsGambling(t.Description) {
			gamblingCount++
			gamblingAmount += abs
		}
	}

	s := float64(base)
	s += incomeConsistency(incomes)
	if expenses > 0 && len(incomes) > 0 {
		s += expenseControl(expenses, income)
	}

	switch {
	case len(txns) > 10:
		s += 50
	case len(txns) > 5:
		s += 30
	}

	if gamblingCount > 0 {
		ratio := 0.0
		if total > 0 {
			ratio = gamblingAmount / total
		}
		s -= math.Min(200, ratio*500+float64(gamblingCount)*10)
	}

	s += balanceHealth(txns)
	s += e.recency(txns, asOf)

	s = math.Max(Min, math.Min(Max, s))
	return int(s)
}

// incomeConsistency rewards steady income: 100 minus the coefficient of
// variation (sample standard deviation over mean) in percent.
func incomeConsistency(incomes []float64) float64 {
	if len(incomes) < 2 {
		return 0
	}
	var sum float64
	for _, v := range incomes {
		sum += v
	}
	mean := sum / float64(len(incomes))

	var sq float64
	for _, v := range incomes {
		sq += (v - mean) * (v - mean)
	}
	std := math.Sqrt(sq / float64(len(incomes)-1))

	cv := 1.0
	if mean > 0 {
		cv = std / mean
	}
	return math.Max(0, 100-cv*100)
}

func expenseControl(expenses, income float64) float64 {
	ratio := 1.0
	if income > 0 {
		ratio = expenses / income
	}
	switch {
	case ratio < 0.5:
		return 100
	case ratio < 0.7:
		return 80
	case ratio < 0.9:
		return 60
	case ratio < 1.0:
		return 40
	default:
		return -50
	}
}

// balanceHealth replays the signed amounts as a running balance starting
// from zero.
func balanceHealth(txns []models.Transaction) float64 {
	var balance float64
	negative := 0
	for _, t := range txns {
		balance += t.Amount.InexactFloat64()
		if balance < 0 {
			negative++
		}
	}
	switch {
	case negative == 0:
		return 50
	case float64(negative) < float64(len(txns))*0.1:
		return 30
	default:
		return 0
	}
}

func (e Engine) recency(txns []models.Transaction, asOf time.Time) float64 {
	cutoff := asOf.Add(-e.RecencyWindow)
	recent := 0
	for _, t := range txns {
		if !t.Date.Before(cutoff) {
			recent++
		}
	}
	return math.Min(30, float64(recent)*3)
}

// RiskLevel buckets a score: 700 and up is low risk, 550 and up medium.
func RiskLevel(score int) string {
	switch {
	case score >= 700:
		return RiskLow
	case score >= 550:
		return RiskMedium
	default:
		return RiskHigh
	}
}
