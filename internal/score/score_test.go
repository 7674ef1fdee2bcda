package score

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/insightdelivered/extrato-analyzer/internal/models"
)

var asOf = time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)

func txn(desc string, amount float64, at time.Time) models.Transaction {
	a := decimal.NewFromFloat(amount)
	return models.Transaction{Date: at, Description: desc, Amount: a, Direction: models.DirectionOf(a)}
}

func TestScoreEmpty(t *testing.T) {
	assert.Equal(t, Min, Score(nil, asOf))
	assert.Equal(t, Min, Score([]models.Transaction{}, asOf))
}

func TestScoreComponents(t *testing.T) {
	old := asOf.AddDate(0, -6, 0)

	tests := []struct {
		name string
		txns []models.Transaction
		want int
	}{
		{
			// base 500 + balance 50
			name: "single old credit",
			txns: []models.Transaction{txn("Salario", 1000, old)},
			want: 550,
		},
		{
			// 500 + consistency 100 + expense ratio 0.25 → 100 + balance 50
			name: "steady income low spending",
			txns: []models.Transaction{
				txn("Salario", 1000, old),
				txn("Salario", 1000, old.AddDate(0, 0, 1)),
				txn("Mercado", -500, old.AddDate(0, 0, 2)),
			},
			want: 750,
		},
		{
			// 500 + expense ratio 2.0 → -50; balance: 1 of 2 steps negative → 0
			name: "overspending",
			txns: []models.Transaction{
				txn("Salario", 100, old),
				txn("Aluguel", -200, old.AddDate(0, 0, 1)),
			},
			want: 450,
		},
		{
			// 500 - min(200, 500*1 + 10) + balance 0
			name: "gambling only",
			txns: []models.Transaction{txn("Pix Betano", -300, old)},
			want: 300,
		},
		{
			// 500 + balance 50 + recency 3
			name: "recent credit",
			txns: []models.Transaction{txn("Pix Recebido", 50, asOf.AddDate(0, 0, -2))},
			want: 553,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.txns, asOf))
		})
	}
}

func TestScoreEndToEndLines(t *testing.T) {
	day := time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC)
	txns := []models.Transaction{
		txn("Envio Pix", -6, day),
		txn("Cred Pix", 1106, day.AddDate(0, 0, 3)),
		txn("Pag Boleto", -1106, day.AddDate(0, 0, 3)),
	}
	// 500 + expense ratio 1112/1106 → -50; the running balance is negative
	// after two of three steps → 0. Nothing within 30 days of 10/06.
	assert.Equal(t, 450, Score(txns, asOf))
}

func TestScoreBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		n := rng.Intn(40)
		txns := make([]models.Transaction, n)
		for j := range txns {
			amount := float64(rng.Intn(200000)-100000) / 100
			desc := "Pix"
			if rng.Intn(10) == 0 {
				desc = "Aposta Blaze"
			}
			txns[j] = txn(desc, amount, asOf.AddDate(0, 0, -rng.Intn(90)))
		}
		s := Score(txns, asOf)
		assert.GreaterOrEqual(t, s, Min)
		assert.LessOrEqual(t, s, Max)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	txns := []models.Transaction{
		txn("Salario", 3200, asOf.AddDate(0, 0, -20)),
		txn("Salario", 3100, asOf.AddDate(0, 0, -50)),
		txn("Mercado", -800, asOf.AddDate(0, 0, -10)),
	}
	assert.Equal(t, Score(txns, asOf), Score(txns, asOf))
}

func TestRecencyWindow(t *testing.T) {
	txns := []models.Transaction{txn("Pix", 10, asOf.AddDate(0, 0, -45))}
	assert.Equal(t, 550, NewEngine(30).Score(txns, asOf))
	assert.Equal(t, 553, NewEngine(60).Score(txns, asOf))
}

func TestRiskLevel(t *testing.T) {
	assert.Equal(t, RiskLow, RiskLevel(850))
	assert.Equal(t, RiskLow, RiskLevel(700))
	assert.Equal(t, RiskMedium, RiskLevel(699))
	assert.Equal(t, RiskMedium, RiskLevel(550))
	assert.Equal(t, RiskHigh, RiskLevel(549))
	assert.Equal(t, RiskHigh, RiskLevel(300))
}

func TestEvaluate(t *testing.T) {
	resp := NewEngine(0).Evaluate(Request{
		Transactions: []models.Transaction{txn("Salario", 1000, asOf)},
		PersonalData: map[string]any{"name": "ignored"},
		AsOf:         asOf,
	})
	assert.True(t, resp.Success)
	assert.Equal(t, 553, resp.CreditScore)
	assert.Equal(t, RiskMedium, resp.RiskLevel)

	resp = NewEngine(0).Evaluate(Request{})
	assert.False(t, resp.Success)
	assert.Equal(t, Min, resp.CreditScore)
}
