// Package parser turns extracted document text into transactions. A
// Registry holds one Grammar per institution; a Strategy walks the lines of
// a document using either a grammar's own patterns or the generic ones.
package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/insightdelivered/extrato-analyzer/internal/models"
	"github.com/insightdelivered/extrato-analyzer/internal/normalize"
)

// Strategy extracts transactions from a prepared document.
type Strategy interface {
	Name() string
	Extract(doc *Document) []models.Transaction
}

// Document is the text of one statement or invoice plus everything known
// about it before line extraction starts.
type Document struct {
	Text       string
	Lines      []string
	Grammar    *Grammar
	Type       models.DocumentType
	AccountRef string
	// Reference supplies the year for dates printed without one.
	Reference time.Time
}

// Registry holds compiled grammars in detection order.
type Registry struct {
	grammars          []*Grammar
	byID              map[models.BankID]*Grammar
	generic           *Grammar
	genericStatement  []*regexp.Regexp
	genericInvoice    []*regexp.Regexp
	invoiceKeywords   []string
	statementKeywords []string
}

// Grammars returns the registered grammars in detection order.
func (r *Registry) Grammars() []*Grammar {
	out := make([]*Grammar, len(r.grammars))
	copy(out, r.grammars)
	return out
}

// Grammar returns the grammar for id. Unknown ids, including
// models.BankUnknown, resolve to the generic grammar.
func (r *Registry) Grammar(id models.BankID) *Grammar {
	if g, ok := r.byID[id]; ok {
		return g
	}
	return r.generic
}

// Lookup reports whether id names a registered institution.
func (r *Registry) Lookup(id models.BankID) (*Grammar, bool) {
	g, ok := r.byID[id]
	return g, ok
}

// DetectBank returns the first grammar, in registry order, with an
// identifier present in text. Accents and case are ignored. Identifiers of
// three characters or fewer ("BB", "XP", "341") must appear as whole words.
func (r *Registry) DetectBank(text string) models.BankID {
	folded := normalize.Fold(text)
	for _, g := range r.grammars {
		if containsAny(folded, g.identifiers) {
			return g.ID
		}
	}
	return models.BankUnknown
}

// DetectDocumentType counts how many invoice keywords and how many
// statement keywords occur in text. Invoice wins only on a strict majority.
func (r *Registry) DetectDocumentType(text string) models.DocumentType {
	folded := normalize.Fold(text)
	invoice, statement := 0, 0
	for _, kw := range r.invoiceKeywords {
		if strings.Contains(folded, kw) {
			invoice++
		}
	}
	for _, kw := range r.statementKeywords {
		if strings.Contains(folded, kw) {
			statement++
		}
	}
	if invoice > statement {
		return models.CardInvoice
	}
	return models.Statement
}

// NewDocument prepares text for extraction with grammar g. The reference
// year is taken from the document header when one is printed, otherwise
// from ref.
func (r *Registry) NewDocument(text string, g *Grammar, docType models.DocumentType, ref time.Time) *Document {
	if g == nil {
		g = r.generic
	}
	if year, ok := ReferenceYear(text); ok {
		ref = time.Date(year, ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	}
	return &Document{
		Text:       text,
		Lines:      splitLines(text),
		Grammar:    g,
		Type:       docType,
		AccountRef: AccountRef(text, g),
		Reference:  ref,
	}
}

// Strategies returns the extraction strategies for doc in the order they
// are tried. The first one that yields any transaction wins; the generic
// strategy is always last.
func (r *Registry) Strategies(doc *Document) []Strategy {
	var out []Strategy
	g := doc.Grammar
	switch doc.Type {
	case models.CardInvoice:
		if g.invoice != nil {
			out = append(out, lineStrategy{name: string(g.ID), pattern: g.invoice})
		}
		out = append(out, genericStrategy{patterns: r.genericInvoice})
	default:
		if g.Strategy == "caixa" {
			out = append(out, caixaStrategy{})
		}
		if g.transaction != nil {
			out = append(out, lineStrategy{name: string(g.ID), pattern: g.transaction})
		}
		out = append(out, genericStrategy{patterns: r.genericStatement})
	}
	return out
}

// Extract runs the strategies for the document and returns its
// transactions in chronological order, along with the name of the
// strategy that produced them.
func (r *Registry) Extract(doc *Document) ([]models.Transaction, string) {
	for _, s := range r.Strategies(doc) {
		txns := s.Extract(doc)
		if len(txns) == 0 {
			continue
		}
		sortChronological(txns)
		return txns, s.Name()
	}
	return []models.Transaction{}, ""
}
