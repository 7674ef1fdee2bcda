package parser

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/extrato-analyzer/internal/models"
	"github.com/insightdelivered/extrato-analyzer/internal/normalize"
)

// caixaStrategy reads the "Extrato por período" export of Caixa Econômica
// Federal:
//
//	Data Mov.  Nr. Doc.  Histórico     Valor         Saldo
//	05/05/2025 041904    ENVIO PIX     6,00 D        0,00 C
//
// The balance column is sometimes wrapped onto the following line, and an
// overdrawn balance carries D instead of C.
type caixaStrategy struct{}

var caixaIndicators = []string{
	"CAIXA ECONOMICA FEDERAL",
	"SAC CAIXA:",
	"ALO CAIXA:",
	"EXTRATO POR PERIODO",
	"CONTA:",
	"SALDO ANTERIOR",
	"SALDO DIA",
}

var (
	caixaLine      = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})\s+(\d+)\s+(.+?)\s+([\d.,]+)\s+([DC])\s+([\d.,]+)\s+([DC])\b`)
	caixaLineShort = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})\s+(\d+)\s+(.+?)\s+([\d.,]+)\s+([DC])\s*$`)
	caixaBalance   = regexp.MustCompile(`^([\d.,]+)\s+([DC])\b`)
)

// Caixa abbreviations and their readable form, applied in order.
var caixaDescriptions = []struct{ code, text string }{
	{"CRED PIX", "Recebimento PIX"},
	{"ENVIO PIX", "Transferência PIX"},
	{"PAG BOLETO", "Pagamento de Boleto"},
	{"DP DIN LOT", "Depósito em Dinheiro"},
	{"SAQUE LOT", "Saque"},
	{"CRED FGTS", "Crédito FGTS"},
	{"COMPRA", "Compra com Cartão"},
}

func (caixaStrategy) Name() string { return "caixa_extract" }

// isCaixaExtract requires at least three layout markers before the
// dedicated reader is trusted.
func isCaixaExtract(text string) bool {
	folded := normalize.Fold(text)
	n := 0
	for _, ind := range caixaIndicators {
		if strings.Contains(folded, ind) {
			n++
		}
	}
	return n >= 3
}

func (caixaStrategy) Extract(doc *Document) []models.Transaction {
	if !isCaixaExtract(doc.Text) {
		return nil
	}

	var txns []models.Transaction
	for i, line := range doc.Lines {
		if line == "" || shouldSkip(line, doc.Grammar.skip) {
			continue
		}

		var f lineFields
		if m := caixaLine.FindStringSubmatch(line); m != nil {
			f = lineFields{date: m[1], doc: m[2], desc: m[3], amount: m[4], marker: m[5], balance: m[6], balanceMarker: m[7]}
		} else if m := caixaLineShort.FindStringSubmatch(line); m != nil {
			f = lineFields{date: m[1], doc: m[2], desc: m[3], amount: m[4], marker: m[5]}
			if i+1 < len(doc.Lines) {
				if b := caixaBalance.FindStringSubmatch(doc.Lines[i+1]); b != nil {
					f.balance = b[1]
				}
			}
		} else {
			continue
		}

		f.desc = expandCaixaDescription(f.desc)
		if t, ok := doc.build(f, line); ok {
			txns = append(txns, t)
		}
	}
	return txns
}

func expandCaixaDescription(desc string) string {
	upper := strings.ToUpper(strings.TrimSpace(desc))
	for _, d := range caixaDescriptions {
		if strings.Contains(upper, d.code) {
			return strings.Replace(upper, d.code, d.text, 1)
		}
	}
	return desc
}
