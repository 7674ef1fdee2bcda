package writer

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/extrato-analyzer/internal/models"
)

func sampleResult() *models.ProcessingResult {
	balance := decimal.RequireFromString("1100.00")
	return &models.ProcessingResult{
		Success:      true,
		Bank:         models.BankCaixa,
		BankName:     "Caixa Econômica Federal",
		DocumentType: models.Statement,
		AccountRef:   "02475/1288/000757299314-2",
		Transactions: []models.Transaction{
			{
				Date:        time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC),
				Description: "Transferência Pix",
				Amount:      decimal.RequireFromString("-6"),
				Direction:   models.Debit,
				Category:    models.CategoryTransfers,
			},
			{
				Date:        time.Date(2025, time.May, 8, 0, 0, 0, 0, time.UTC),
				Description: "Recebimento Pix, Joao",
				Amount:      decimal.RequireFromString("1106"),
				Direction:   models.Credit,
				Category:    models.CategoryTransfers,
				Balance:     &balance,
			},
		},
		TotalIncome:   decimal.RequireFromString("1106"),
		TotalExpenses: decimal.RequireFromString("6"),
		NetBalance:    decimal.RequireFromString("1100"),
		CreditScore:   553,
		RiskLevel:     "medium",
	}
}

func TestCSVWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: true}
	if err := w.Write(&buf, sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "# Bank,Caixa Econômica Federal") {
		t.Error("expected bank metadata header")
	}
	if !strings.Contains(output, "# Account,02475/1288/000757299314-2") {
		t.Error("expected account metadata")
	}
	if !strings.Contains(output, "# Credit Score,553") {
		t.Error("expected score metadata")
	}
	if !strings.Contains(output, "Date,Description,Category,Direction,Amount,Balance") {
		t.Error("expected column headers")
	}
	if !strings.Contains(output, "2025-05-05,Transferência Pix,Transfers,debit,-6.00,\n") {
		t.Error("expected first transaction row with empty balance")
	}
	if !strings.Contains(output, `"Recebimento Pix, Joao"`) {
		t.Error("expected description with comma to be quoted")
	}
	if !strings.Contains(output, "1106.00,1100.00") {
		t.Error("expected amount and balance on second row")
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	// 8 metadata lines + 1 header + 2 transactions = 11
	if len(lines) != 11 {
		t.Errorf("expected 11 lines, got %d", len(lines))
	}
}

func TestCSVWriter_NoHeader(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: false}
	if err := w.Write(&buf, sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if strings.Contains(output, "#") {
		t.Error("did not expect metadata rows")
	}
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 3 {
		t.Errorf("expected 3 lines, got %d", len(lines))
	}
}

func TestCSVWriter_InvoiceMetadata(t *testing.T) {
	res := sampleResult()
	res.DocumentType = models.CardInvoice
	total := decimal.RequireFromString("1234.56")
	due := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	res.Invoice = &models.InvoiceSummary{Total: &total, DueDate: &due}

	var buf bytes.Buffer
	if err := (&CSVWriter{IncludeHeader: true}).Write(&buf, res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "# Invoice Total,1234.56") {
		t.Error("expected invoice total")
	}
	if !strings.Contains(buf.String(), "# Due Date,2025-06-15") {
		t.Error("expected due date")
	}
}

func TestCSVWriter_WriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := (&CSVWriter{}).WriteToFile(path, sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "Date,Description") {
		t.Errorf("unexpected file contents: %q", data)
	}
}

func TestJSONWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONWriter{Indent: true}).Write(&buf, sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["bank"] != "caixa" {
		t.Errorf("expected bank caixa, got %v", decoded["bank"])
	}
	if decoded["creditScore"] != float64(553) {
		t.Errorf("expected creditScore 553, got %v", decoded["creditScore"])
	}
	if !strings.Contains(buf.String(), "\n  \"") {
		t.Error("expected indented output")
	}
}
