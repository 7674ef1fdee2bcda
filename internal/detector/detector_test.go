package detector

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/extrato-analyzer/internal/models"
)

var day = time.Date(2025, time.May, 8, 0, 0, 0, 0, time.UTC)

func txn(desc, amount string, at time.Time) models.Transaction {
	a := decimal.RequireFromString(amount)
	return models.Transaction{
		Date:        at,
		Description: desc,
		Amount:      a,
		Direction:   models.DirectionOf(a),
	}
}

func TestDetectAlwaysReportsEveryKind(t *testing.T) {
	got := Detect(nil, DefaultThresholds())
	for _, kind := range models.FindingKinds {
		findings, ok := got[kind]
		assert.True(t, ok, "missing %s", kind)
		assert.NotNil(t, findings, "%s should be an empty list, not nil", kind)
		assert.Empty(t, findings)
	}
}

func TestMuleRelayPairsCreditWithMatchingDebit(t *testing.T) {
	txns := []models.Transaction{
		txn("Envio Pix", "-6.00", day.AddDate(0, 0, -3)),
		txn("Cred Pix", "1106.00", day),
		txn("Pag Boleto", "-1106.00", day),
	}

	got := MuleRelays(txns, DefaultThresholds())
	require.Len(t, got, 1)
	assert.Equal(t, models.MuleRelay, got[0].Kind)
	require.Len(t, got[0].Evidence, 2)
	assert.Equal(t, "Cred Pix", got[0].Evidence[0].Description)
	assert.Equal(t, "Pag Boleto", got[0].Evidence[1].Description)
	assert.True(t, got[0].Metrics["amount"].Equal(decimal.NewFromInt(1106)))
}

func TestMuleRelayRespectsWindow(t *testing.T) {
	txns := []models.Transaction{
		txn("Pix Recebido", "500.00", day),
		txn("Pix Enviado", "-500.00", day.Add(2*time.Hour)),
	}
	assert.Empty(t, MuleRelays(txns, DefaultThresholds()))

	th := DefaultThresholds()
	th.MuleWindow = 3 * time.Hour
	assert.Len(t, MuleRelays(txns, th), 1)
}

func TestMuleRelayStopsAtFirstAmountMatch(t *testing.T) {
	// The first matching debit is outside the window, so the credit is not
	// paired with the later one either.
	txns := []models.Transaction{
		txn("Pix Recebido", "500.00", day),
		txn("Pix Enviado", "-500.00", day.Add(5*time.Hour)),
		txn("Pix Enviado", "-500.00", day.Add(5*time.Hour)),
	}
	th := DefaultThresholds()
	th.MuleWindow = 4 * time.Hour
	assert.Empty(t, MuleRelays(txns, th))
}

func TestMuleRelayLookahead(t *testing.T) {
	txns := []models.Transaction{txn("Pix Recebido", "250.00", day)}
	for i := 0; i < 10; i++ {
		txns = append(txns, txn("Compra Mercado", "-10.00", day))
	}
	txns = append(txns, txn("Pix Enviado", "-250.00", day))

	assert.Empty(t, MuleRelays(txns, DefaultThresholds()), "debit is the 11th transaction after the credit")

	th := DefaultThresholds()
	th.MuleLookahead = 11
	assert.Len(t, MuleRelays(txns, th), 1)
}

func TestMuleRelayIgnoresNonTransferCredits(t *testing.T) {
	txns := []models.Transaction{
		txn("Salario Empresa", "1106.00", day),
		txn("Pag Boleto", "-1106.00", day),
	}
	assert.Empty(t, MuleRelays(txns, DefaultThresholds()))
}

func TestStructuring(t *testing.T) {
	var txns []models.Transaction
	for i := 0; i < 5; i++ {
		txns = append(txns, txn("Deposito", "1000.00", day.AddDate(0, 0, i)))
	}

	got := StructuringBuckets(txns, DefaultThresholds())
	require.Len(t, got, 1)
	assert.True(t, got[0].Metrics["frequency"].Equal(decimal.NewFromInt(5)))
	assert.True(t, got[0].Metrics["value"].Equal(decimal.NewFromInt(1000)))
	assert.Len(t, got[0].Evidence, 5)
}

func TestStructuringRoundsToNearestHundred(t *testing.T) {
	amounts := []string{"1950.00", "-2049.99", "2000.00", "1990.10", "-2010.00", "900.00"}
	var txns []models.Transaction
	for _, a := range amounts {
		txns = append(txns, txn("Pix", a, day))
	}

	got := StructuringBuckets(txns, DefaultThresholds())
	require.Len(t, got, 1)
	assert.True(t, got[0].Metrics["value"].Equal(decimal.NewFromInt(2000)))
	assert.True(t, got[0].Metrics["frequency"].Equal(decimal.NewFromInt(5)))
}

func TestStructuringRoundsHalvesToEven(t *testing.T) {
	var txns []models.Transaction
	for i := 0; i < 5; i++ {
		txns = append(txns, txn("Deposito", "1050.00", day))
		txns = append(txns, txn("Deposito", "1150.00", day))
	}

	got := StructuringBuckets(txns, DefaultThresholds())
	require.Len(t, got, 2)
	assert.True(t, got[0].Metrics["value"].Equal(decimal.NewFromInt(1000)), "1050 bucket %s", got[0].Metrics["value"])
	assert.True(t, got[1].Metrics["value"].Equal(decimal.NewFromInt(1200)), "1150 bucket %s", got[1].Metrics["value"])
}

func TestStructuringBelowFloor(t *testing.T) {
	var txns []models.Transaction
	for i := 0; i < 8; i++ {
		txns = append(txns, txn("Pix", "900.00", day))
	}
	assert.Empty(t, StructuringBuckets(txns, DefaultThresholds()))
}

func TestLaunderingRatio(t *testing.T) {
	txns := []models.Transaction{
		txn("Ted Recebida", "30000.00", day),
		txn("Pix Enviado", "-29000.00", day),
	}

	got := LaunderingRatio(txns, DefaultThresholds())
	require.Len(t, got, 1)
	m := got[0].Metrics
	assert.True(t, m["total_movement"].Equal(decimal.NewFromInt(59000)))
	assert.True(t, m["total_credits"].Equal(decimal.NewFromInt(30000)))
	assert.True(t, m["total_debits"].Equal(decimal.NewFromInt(29000)))
	assert.True(t, m["ratio"].Equal(decimal.RequireFromString("0.9667")), "ratio %s", m["ratio"])
}

func TestLaunderingRatioNotTriggered(t *testing.T) {
	tests := []struct {
		name string
		txns []models.Transaction
	}{
		{"small movement", []models.Transaction{txn("Pix", "100.00", day), txn("Pix", "-100.00", day)}},
		{"money stays", []models.Transaction{txn("Ted", "60000.00", day), txn("Pix", "-10000.00", day)}},
		{"no credits", []models.Transaction{txn("Pix", "-60000.00", day)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, LaunderingRatio(tt.txns, DefaultThresholds()))
		})
	}
}

func TestGambling(t *testing.T) {
	txns := []models.Transaction{
		txn("Pix Enviado Betano", "-50.00", day),
		txn("Mercado", "-20.00", day),
		txn("Bet365 Premio", "120.00", day),
	}

	got := GamblingTransactions(txns)
	require.Len(t, got, 2)
	assert.Equal(t, "Pix Enviado Betano", got[0].Evidence[0].Description)
	assert.Equal(t, "Bet365 Premio", got[1].Evidence[0].Description)
}
