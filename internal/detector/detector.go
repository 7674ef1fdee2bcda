// Package detector flags suspicious activity in a chronologically ordered
// transaction sequence. Each heuristic is independent, so one transaction
// may show up in several findings.
package detector

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/extrato-analyzer/internal/categorize"
	"github.com/insightdelivered/extrato-analyzer/internal/models"
)

// Thresholds tune the heuristics. The zero value is not useful; start from
// DefaultThresholds.
type Thresholds struct {
	// MuleLookahead is how many following transactions are scanned for the
	// outgoing leg of a relay.
	MuleLookahead int           `json:"muleLookahead" yaml:"mule_lookahead" validate:"gte=1,lte=1000"`
	MuleWindow    time.Duration `json:"muleWindow" yaml:"mule_window" validate:"gte=0"`

	StructuringFloor decimal.Decimal `json:"structuringFloor" yaml:"structuring_floor" validate:"decimalGreaterThan=0"`
	StructuringCount int             `json:"structuringCount" yaml:"structuring_count" validate:"gte=2"`

	LaunderingMovement decimal.Decimal `json:"launderingMovement" yaml:"laundering_movement" validate:"decimalGreaterThan=0"`
	LaunderingRatio    decimal.Decimal `json:"launderingRatio" yaml:"laundering_ratio" validate:"decimalGreaterThan=0"`
}

// DefaultThresholds returns the stock tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MuleLookahead:      10,
		MuleWindow:         time.Hour,
		StructuringFloor:   decimal.NewFromInt(1000),
		StructuringCount:   5,
		LaunderingMovement: decimal.NewFromInt(50000),
		LaunderingRatio:    decimal.RequireFromString("0.95"),
	}
}

var hundred = decimal.NewFromInt(100)

// Detect runs every heuristic over txns, which must already be sorted by
// date. The result always has an entry for every models.FindingKinds value.
func Detect(txns []models.Transaction, th Thresholds) map[models.FindingKind][]models.Finding {
	return map[models.FindingKind][]models.Finding{
		models.MuleRelay:       MuleRelays(txns, th),
		models.Structuring:     StructuringBuckets(txns, th),
		models.LaunderingRatio: LaunderingRatio(txns, th),
		models.Gambling:        GamblingTransactions(txns),
	}
}

// MuleRelays pairs each incoming transfer with the first later debit of the
// same absolute amount found within the lookahead. The scan for a credit
// stops at that first match; the pair is reported only when the two are no
// more than MuleWindow apart.
func MuleRelays(txns []models.Transaction, th Thresholds) []models.Finding {
	findings := []models.Finding{}
	for i, in := range txns {
		if !in.IsCredit() || categorize.Categorize(in.Description) != models.CategoryTransfers {
			continue
		}
		end := i + 1 + th.MuleLookahead
		if end > len(txns) {
			end = len(txns)
		}
		for _, out := range txns[i+1 : end] {
			if out.IsCredit() || !out.Abs().Equal(in.Abs()) {
				continue
			}
			gap := out.Date.Sub(in.Date)
			if gap < 0 {
				gap = -gap
			}
			if gap <= th.MuleWindow {
				findings = append(findings, models.Finding{
					Kind:     models.MuleRelay,
					Evidence: []models.Transaction{in, out},
					Metrics: map[string]decimal.Decimal{
						"amount":      in.Abs(),
						"gap_minutes": decimal.NewFromFloat(gap.Minutes()),
					},
					Description: fmt.Sprintf("%s received and sent on within %s", in.Abs().StringFixed(2), gap),
				})
			}
			break
		}
	}
	return findings
}

// StructuringBuckets groups absolute amounts rounded to the nearest hundred,
// halves to even, and reports every bucket at or above StructuringFloor that holds at least
// StructuringCount transactions. Buckets are reported in ascending order.
func StructuringBuckets(txns []models.Transaction, th Thresholds) []models.Finding {
	buckets := make(map[string][]models.Transaction)
	values := make(map[string]decimal.Decimal)
	for _, t := range txns {
		v := t.Abs().RoundBank(-2)
		key := v.String()
		buckets[key] = append(buckets[key], t)
		values[key] = v
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return values[keys[i]].LessThan(values[keys[j]])
	})

	findings := []models.Finding{}
	for _, k := range keys {
		v, group := values[k], buckets[k]
		if v.LessThan(th.StructuringFloor) || len(group) < th.StructuringCount {
			continue
		}
		findings = append(findings, models.Finding{
			Kind:     models.Structuring,
			Evidence: group,
			Metrics: map[string]decimal.Decimal{
				"value":     v,
				"frequency": decimal.NewFromInt(int64(len(group))),
			},
			Description: fmt.Sprintf("%d transactions of about %s", len(group), v.StringFixed(2)),
		})
	}
	return findings
}

// LaunderingRatio is computed once over the whole sequence: heavy movement
// where nearly everything that came in went back out.
func LaunderingRatio(txns []models.Transaction, th Thresholds) []models.Finding {
	findings := []models.Finding{}
	credits, debits := decimal.Zero, decimal.Zero
	for _, t := range txns {
		if t.IsCredit() {
			credits = credits.Add(t.Amount)
		} else {
			debits = debits.Add(t.Abs())
		}
	}
	movement := credits.Add(debits)
	if !movement.GreaterThan(th.LaunderingMovement) || !credits.IsPositive() {
		return findings
	}

	ratio := debits.Div(credits)
	if !ratio.GreaterThan(th.LaunderingRatio) {
		return findings
	}
	return append(findings, models.Finding{
		Kind:     models.LaunderingRatio,
		Evidence: []models.Transaction{},
		Metrics: map[string]decimal.Decimal{
			"ratio":          ratio.Round(4),
			"total_movement": movement,
			"total_credits":  credits,
			"total_debits":   debits,
		},
		Description: fmt.Sprintf("%s%% of credited funds left the account", ratio.Mul(hundred).StringFixed(1)),
	})
}

// GamblingTransactions flags each transaction paid to or from a betting
// operator.
func GamblingTransactions(txns []models.Transaction) []models.Finding {
	findings := []models.Finding{}
	for _, t := range txns {
		if !categorize.IsGambling(t.Description) {
			continue
		}
		findings = append(findings, models.Finding{
			Kind:     models.Gambling,
			Evidence: []models.Transaction{t},
			Metrics: map[string]decimal.Decimal{
				"amount": t.Abs(),
			},
			Description: t.Description,
		})
	}
	return findings
}
