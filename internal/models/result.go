package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FindingKind names a suspicious-activity heuristic.
type FindingKind string

const (
	MuleRelay       FindingKind = "mule_relay"
	Structuring     FindingKind = "structuring"
	LaunderingRatio FindingKind = "laundering_ratio"
	Gambling        FindingKind = "gambling"
)

// FindingKinds lists every kind in reporting order.
var FindingKinds = []FindingKind{MuleRelay, Structuring, LaunderingRatio, Gambling}

// Finding is one piece of suspicious-activity evidence.
type Finding struct {
	Kind        FindingKind                `json:"kind"`
	Evidence    []Transaction              `json:"evidence"`
	Metrics     map[string]decimal.Decimal `json:"metrics,omitempty"`
	Description string                     `json:"description,omitempty"`
}

// InvoiceSummary holds card-invoice header values when they can be found.
type InvoiceSummary struct {
	Total   *decimal.Decimal `json:"total,omitempty"`
	DueDate *time.Time       `json:"dueDate,omitempty"`
}

// ProcessingResult is the aggregate produced for one document.
type ProcessingResult struct {
	Success            bool                      `json:"success"`
	Bank               BankID                    `json:"bank"`
	BankName           string                    `json:"bankName,omitempty"`
	DocumentType       DocumentType              `json:"documentType"`
	AccountRef         string                    `json:"accountRef,omitempty"`
	Transactions       []Transaction             `json:"transactions"`
	TotalIncome        decimal.Decimal           `json:"totalIncome"`
	TotalExpenses      decimal.Decimal           `json:"totalExpenses"`
	NetBalance         decimal.Decimal           `json:"netBalance"`
	SuspiciousPatterns map[FindingKind][]Finding `json:"suspiciousPatterns"`
	CreditScore        int                       `json:"creditScore"`
	RiskLevel          string                    `json:"riskLevel"`
	Invoice            *InvoiceSummary           `json:"invoice,omitempty"`
	TextPreview        string                    `json:"textPreview,omitempty"`
}

// HasFindings reports whether any heuristic produced evidence.
func (r *ProcessingResult) HasFindings() bool {
	for _, f := range r.SuspiciousPatterns {
		if len(f) > 0 {
			return true
		}
	}
	return false
}
