// Package writer renders processing results for the command line.
package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/insightdelivered/extrato-analyzer/internal/models"
)

// CSVWriter writes transactions to CSV format.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes the result to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, res *models.ProcessingResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, res)
}

// Write writes the transactions of res in CSV format. With IncludeHeader
// the document summary is emitted first as "# key,value" rows.
func (w *CSVWriter) Write(out io.Writer, res *models.ProcessingResult) error {
	writer := csv.NewWriter(out)

	if w.IncludeHeader {
		for _, row := range metadata(res) {
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV metadata: %w", err)
			}
		}
	}

	header := []string{"Date", "Description", "Category", "Direction", "Amount", "Balance"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, txn := range res.Transactions {
		balance := ""
		if txn.Balance != nil {
			balance = txn.Balance.StringFixed(2)
		}
		row := []string{
			txn.Date.Format("2006-01-02"),
			txn.Description,
			string(txn.Category),
			string(txn.Direction),
			txn.Amount.StringFixed(2),
			balance,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func metadata(res *models.ProcessingResult) [][]string {
	bank := string(res.Bank)
	if res.BankName != "" {
		bank = res.BankName
	}
	rows := [][]string{
		{"# Bank", bank},
		{"# Document Type", string(res.DocumentType)},
	}
	if res.AccountRef != "" {
		rows = append(rows, []string{"# Account", res.AccountRef})
	}
	if inv := res.Invoice; inv != nil {
		if inv.Total != nil {
			rows = append(rows, []string{"# Invoice Total", inv.Total.StringFixed(2)})
		}
		if inv.DueDate != nil {
			rows = append(rows, []string{"# Due Date", inv.DueDate.Format("2006-01-02")})
		}
	}
	return append(rows,
		[]string{"# Total Income", res.TotalIncome.StringFixed(2)},
		[]string{"# Total Expenses", res.TotalExpenses.StringFixed(2)},
		[]string{"# Net Balance", res.NetBalance.StringFixed(2)},
		[]string{"# Credit Score", strconv.Itoa(res.CreditScore)},
		[]string{"# Risk Level", res.RiskLevel},
	)
}
