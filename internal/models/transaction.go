package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single statement or invoice line.
// Amount is signed: positive is money in, negative is money out.
type Transaction struct {
	Date           time.Time        `json:"date"`
	Description    string           `json:"description"`
	Amount         decimal.Decimal  `json:"amount"`
	Direction      Direction        `json:"direction"`
	Category       Category         `json:"category"`
	Bank           BankID           `json:"bank"`
	DocumentType   DocumentType     `json:"documentType"`
	DocumentNumber string           `json:"documentNumber,omitempty"`
	AccountRef     string           `json:"accountRef,omitempty"`
	Balance        *decimal.Decimal `json:"balance,omitempty"`
	RawLine        string           `json:"rawLine,omitempty"`
}

// IsCredit reports whether the transaction brought money in.
func (t Transaction) IsCredit() bool {
	return t.Amount.IsPositive()
}

// Abs returns the unsigned amount.
func (t Transaction) Abs() decimal.Decimal {
	return t.Amount.Abs()
}

// Direction is derived from the amount sign.
type Direction string

const (
	Debit  Direction = "debit"
	Credit Direction = "credit"
)

// DirectionOf returns Credit for positive amounts and Debit otherwise.
func DirectionOf(amount decimal.Decimal) Direction {
	if amount.IsPositive() {
		return Credit
	}
	return Debit
}

// Category represents the semantic grouping of a transaction.
type Category string

const (
	CategoryTransfers   Category = "Transfers"
	CategoryWithdrawals Category = "Withdrawals"
	CategoryDeposits    Category = "Deposits"
	CategoryPurchases   Category = "Purchases/Payments"
	CategoryFees        Category = "Fees"
	CategoryYield       Category = "Yield/Interest"
	CategoryOther       Category = "Other"
)

// BankID identifies a supported institution.
type BankID string

const (
	BankUnknown   BankID = "unknown"
	BankItau      BankID = "itau"
	BankBradesco  BankID = "bradesco"
	BankSantander BankID = "santander"
	BankCaixa     BankID = "caixa"
	BankBB        BankID = "bb"
	BankNubank    BankID = "nubank"
	BankInter     BankID = "inter"
	BankC6        BankID = "c6"
	BankOriginal  BankID = "original"
	BankNext      BankID = "next"
	BankPicPay    BankID = "picpay"
	BankBTG       BankID = "btg"
	BankXP        BankID = "xp"
)

// DocumentType distinguishes account statements from card invoices.
type DocumentType string

const (
	Statement   DocumentType = "statement"
	CardInvoice DocumentType = "card_invoice"
)

// ParseDocumentType accepts the canonical names plus the Portuguese ones
// used by upstream tooling. The second return is false for anything else.
func ParseDocumentType(s string) (DocumentType, bool) {
	switch s {
	case "statement", "extrato", "extrato_bancario":
		return Statement, true
	case "card_invoice", "invoice", "fatura", "fatura_cartao":
		return CardInvoice, true
	}
	return "", false
}
