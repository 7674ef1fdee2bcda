package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/insightdelivered/extrato-analyzer/internal/models"
	"github.com/insightdelivered/extrato-analyzer/internal/normalize"
)

// Header lines that carry the statement year, in order of preference.
var (
	monthHeader    = regexp.MustCompile(`(?im)^\s*m[êe]s:?\s*([A-Za-zÀ-ÿ]+)\s*/\s*(\d{4})`)
	periodHeader   = regexp.MustCompile(`(?im)per[íi]odo[^\n]*?\d{2}/\d{2}/(\d{4})`)
	dueDateHeader  = regexp.MustCompile(`(?im)vencimento[^\n]*?\d{2}/\d{2}/(\d{4})`)
	issueDateLabel = regexp.MustCompile(`(?im)^\s*(?:data|emiss[ãa]o|emitido em):?\s*\d{2}/\d{2}/(\d{4})`)
)

// ReferenceYear finds the year a document covers from its header, such as
// "Mês: Maio/2025" or "Período: 01/05/2025 a 31/05/2025".
func ReferenceYear(text string) (int, bool) {
	if m := monthHeader.FindStringSubmatch(text); m != nil {
		if _, ok := normalize.MonthFromName(m[1]); ok {
			if y, err := strconv.Atoi(m[2]); err == nil {
				return y, true
			}
		}
	}
	for _, re := range []*regexp.Regexp{periodHeader, dueDateHeader, issueDateLabel} {
		if m := re.FindStringSubmatch(text); m != nil {
			if y, err := strconv.Atoi(m[1]); err == nil {
				return y, true
			}
		}
	}
	return 0, false
}

// AccountRef returns branch and account numbers found with g's account
// pattern, joined with "/". It returns "" when the pattern is absent or
// does not match.
func AccountRef(text string, g *Grammar) string {
	if g == nil || g.account == nil {
		return ""
	}
	m := g.account.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	var parts []string
	for _, p := range m[1:] {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "/")
}

// InvoiceSummary reads the total due and due date printed on a card
// invoice. Either field may be nil when not found.
func InvoiceSummary(text string, g *Grammar, ref time.Time) *models.InvoiceSummary {
	if g == nil {
		return nil
	}
	s := &models.InvoiceSummary{}
	if g.total != nil {
		if m := g.total.FindStringSubmatch(text); m != nil && len(m) > 1 {
			if total, ok := normalize.ParseAmountStrict(m[1]); ok {
				s.Total = &total
			}
		}
	}
	if g.dueDate != nil {
		if m := g.dueDate.FindStringSubmatch(text); m != nil && len(m) > 1 {
			if due, err := normalize.ParseDateString(m[1], ref); err == nil {
				s.DueDate = &due
			}
		}
	}
	return s
}
