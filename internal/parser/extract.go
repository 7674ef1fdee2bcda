package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/extrato-analyzer/internal/categorize"
	"github.com/insightdelivered/extrato-analyzer/internal/models"
	"github.com/insightdelivered/extrato-analyzer/internal/normalize"
)

// lineStrategy applies a single grammar pattern to every line.
type lineStrategy struct {
	name    string
	pattern *regexp.Regexp
}

func (s lineStrategy) Name() string { return s.name }

func (s lineStrategy) Extract(doc *Document) []models.Transaction {
	return extractLines(doc, []*regexp.Regexp{s.pattern})
}

// genericStrategy tries each of a fixed list of layout-agnostic patterns
// and takes the first that matches a line.
type genericStrategy struct {
	patterns []*regexp.Regexp
}

func (genericStrategy) Name() string { return "generic" }

func (s genericStrategy) Extract(doc *Document) []models.Transaction {
	return extractLines(doc, s.patterns)
}

func extractLines(doc *Document, patterns []*regexp.Regexp) []models.Transaction {
	var txns []models.Transaction
	for _, line := range doc.Lines {
		if line == "" || shouldSkip(line, doc.Grammar.skip) {
			continue
		}
		for _, re := range patterns {
			f, ok := matchLine(re, line)
			if !ok {
				continue
			}
			if t, ok := doc.build(f, line); ok {
				txns = append(txns, t)
			}
			break
		}
	}
	return txns
}

// lineFields holds the named captures of a transaction line.
type lineFields struct {
	date    string
	desc    string
	amount  string
	marker  string
	balance string
	doc     string

	// balanceMarker is "D" when the running balance is overdrawn.
	balanceMarker string
}

func matchLine(re *regexp.Regexp, line string) (lineFields, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return lineFields{}, false
	}
	group := func(name string) string {
		if i := re.SubexpIndex(name); i >= 0 && i < len(m) {
			return strings.TrimSpace(m[i])
		}
		return ""
	}
	f := lineFields{
		date:    group("date"),
		desc:    group("desc"),
		amount:  group("amount"),
		marker:  group("marker"),
		balance: group("balance"),
		doc:     group("doc"),

		balanceMarker: group("balance_marker"),
	}
	if f.marker == "" {
		f.marker = group("sign")
	}
	return f, true
}

// build turns captured fields into a transaction. Lines whose date or
// amount do not parse are dropped.
func (d *Document) build(f lineFields, line string) (models.Transaction, bool) {
	date, err := normalize.ParseDateString(f.date, d.Reference)
	if err != nil {
		return models.Transaction{}, false
	}
	amount, ok := normalize.ParseAmountStrict(f.amount)
	if !ok {
		return models.Transaction{}, false
	}
	desc := categorize.Clean(f.desc)
	if desc == "" {
		return models.Transaction{}, false
	}

	amount = d.sign(amount, f.marker, f.desc)
	t := models.Transaction{
		Date:           date,
		Description:    desc,
		Amount:         amount,
		Direction:      models.DirectionOf(amount),
		Bank:           d.Grammar.ID,
		DocumentType:   d.Type,
		DocumentNumber: f.doc,
		AccountRef:     d.AccountRef,
		RawLine:        line,
	}
	if f.balance != "" {
		if b, ok := normalize.ParseAmountStrict(f.balance); ok {
			if strings.EqualFold(f.balanceMarker, "D") {
				b = b.Neg()
			}
			t.Balance = &b
		}
	}
	return t, true
}

// sign applies the document's sign convention to an unsigned amount.
// Invoice purchases are always money out. On statements an explicit marker
// decides; without one the description is checked for debit keywords.
func (d *Document) sign(amount decimal.Decimal, marker, desc string) decimal.Decimal {
	amount = amount.Abs()
	if d.Type == models.CardInvoice {
		return amount.Neg()
	}
	switch strings.ToUpper(marker) {
	case "D", "-":
		return amount.Neg()
	case "C", "+":
		return amount
	}
	if containsAny(normalize.Fold(desc), d.Grammar.debit) {
		return amount.Neg()
	}
	return amount
}
