// Package categorize assigns semantic categories to transaction
// descriptions using an ordered keyword table.
package categorize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/insightdelivered/extrato-analyzer/internal/models"
	"github.com/insightdelivered/extrato-analyzer/internal/normalize"
)

// Rule maps keywords to a category. Rules are evaluated in order and the
// first match wins.
type Rule struct {
	Category models.Category
	Keywords []string
}

// Rules is the priority table. Transfer words come first because PIX, TED
// and DOC lines frequently also carry deposit-like words.
var Rules = []Rule{
	{models.CategoryTransfers, []string{"PIX", "TRANSFERENCIA", "TRANSF", "TED", "DOC"}},
	{models.CategoryWithdrawals, []string{"SAQUE", "RETIRADA"}},
	{models.CategoryDeposits, []string{"DEPOSITO", "CREDITO", "DP DIN"}},
	{models.CategoryPurchases, []string{"COMPRA", "PAGAMENTO", "PAG BOLETO", "BOLETO"}},
	{models.CategoryFees, []string{"TARIFA", "TAXA"}},
	{models.CategoryYield, []string{"JUROS", "RENDIMENTO"}},
}

// "CASA" alone is left out; it names too many ordinary merchants.
var gamblingKeywords = []string{
	"BET365", "BETANO", "BETFAIR", "SPORTINGBET", "PIXBET", "RIVALO",
	"BLAZE", "STAKE", "BET", "JOGO", "APOSTA", "CASSINO", "CASINO", "BINGO",
	"POKER", "LOTERIA", "RASPADINHA", "MEGA SENA", "SLOT", "GAMBLING",
}

var (
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}_\s\-.]`)
	whitespace  = regexp.MustCompile(`\s+`)
	titleCaser  = cases.Title(language.BrazilianPortuguese)
)

// Categorize returns the category of the first rule whose keyword appears
// in desc, or CategoryOther.
func Categorize(desc string) models.Category {
	folded := normalize.Fold(desc)
	for _, rule := range Rules {
		if ContainsAny(folded, rule.Keywords) {
			return rule.Category
		}
	}
	return models.CategoryOther
}

// Clean collapses whitespace, drops punctuation other than '-' and '.', and
// title-cases the result.
func Clean(desc string) string {
	cleaned := punctuation.ReplaceAllString(desc, " ")
	cleaned = whitespace.ReplaceAllString(cleaned, " ")
	return titleCaser.String(strings.TrimSpace(cleaned))
}

// IsGambling reports whether desc names a betting or casino operator.
func IsGambling(desc string) bool {
	return ContainsAny(normalize.Fold(desc), gamblingKeywords)
}

// ContainsAny reports whether folded text contains any keyword. Keywords of
// three characters or fewer must match a whole word, so "DOC" does not fire
// on "DOCERIA". folded must already be upper-cased and accent-free.
func ContainsAny(folded string, keywords []string) bool {
	var words []string
	for _, kw := range keywords {
		if len(kw) > 3 {
			if strings.Contains(folded, kw) {
				return true
			}
			continue
		}
		if words == nil {
			words = strings.FieldsFunc(folded, isSeparator)
		}
		for _, w := range words {
			if w == kw {
				return true
			}
		}
	}
	return false
}

func isSeparator(r rune) bool {
	return !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9')
}
