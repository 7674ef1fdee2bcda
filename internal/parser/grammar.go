package parser

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/insightdelivered/extrato-analyzer/internal/models"
	"github.com/insightdelivered/extrato-analyzer/internal/normalize"
)

//go:embed grammars.yaml
var builtinGrammars []byte

// Grammar describes how one institution lays out its documents. Patterns are
// stored raw as loaded and compiled once by the Registry.
type Grammar struct {
	ID                 models.BankID `yaml:"id"`
	Name               string        `yaml:"name"`
	Strategy           string        `yaml:"strategy"`
	Identifiers        []string      `yaml:"identifiers"`
	AccountPattern     string        `yaml:"account_pattern"`
	DatePattern        string        `yaml:"date_pattern"`
	AmountPattern      string        `yaml:"amount_pattern"`
	TransactionPattern string        `yaml:"transaction_pattern"`
	InvoicePattern     string        `yaml:"invoice_pattern"`
	TotalPattern       string        `yaml:"total_pattern"`
	DueDatePattern     string        `yaml:"due_date_pattern"`
	DebitKeywords      []string      `yaml:"debit_keywords"`
	SkipKeywords       []string      `yaml:"skip_keywords"`

	identifiers []string
	account     *regexp.Regexp
	transaction *regexp.Regexp
	invoice     *regexp.Regexp
	total       *regexp.Regexp
	dueDate     *regexp.Regexp
	debit       []string
	skip        []string
}

type grammarFile struct {
	Defaults struct {
		DatePattern    string   `yaml:"date_pattern"`
		AmountPattern  string   `yaml:"amount_pattern"`
		TotalPattern   string   `yaml:"total_pattern"`
		DueDatePattern string   `yaml:"due_date_pattern"`
		DebitKeywords  []string `yaml:"debit_keywords"`
		SkipKeywords   []string `yaml:"skip_keywords"`
	} `yaml:"defaults"`
	DocumentTypes struct {
		InvoiceKeywords   []string `yaml:"invoice_keywords"`
		StatementKeywords []string `yaml:"statement_keywords"`
	} `yaml:"document_types"`
	Generic struct {
		StatementPatterns []string `yaml:"statement_patterns"`
		InvoicePatterns   []string `yaml:"invoice_patterns"`
	} `yaml:"generic"`
	Grammars []*Grammar `yaml:"grammars"`
}

// DisplayName returns the display name, falling back to the identifier.
func (g *Grammar) DisplayName() string {
	if g.Name != "" {
		return g.Name
	}
	return string(g.ID)
}

// compile fills in defaults and compiles every pattern of g.
func (g *Grammar) compile(f *grammarFile) error {
	if g.DatePattern == "" {
		g.DatePattern = f.Defaults.DatePattern
	}
	if g.AmountPattern == "" {
		g.AmountPattern = f.Defaults.AmountPattern
	}
	if g.TotalPattern == "" {
		g.TotalPattern = f.Defaults.TotalPattern
	}
	if g.DueDatePattern == "" {
		g.DueDatePattern = f.Defaults.DueDatePattern
	}

	var err error
	if g.account, err = compileOptional(g.AccountPattern, g); err != nil {
		return fmt.Errorf("grammar %s: account_pattern: %w", g.ID, err)
	}
	if g.transaction, err = compileOptional(g.TransactionPattern, g); err != nil {
		return fmt.Errorf("grammar %s: transaction_pattern: %w", g.ID, err)
	}
	if g.invoice, err = compileOptional(g.InvoicePattern, g); err != nil {
		return fmt.Errorf("grammar %s: invoice_pattern: %w", g.ID, err)
	}
	if g.total, err = compileOptional(g.TotalPattern, g); err != nil {
		return fmt.Errorf("grammar %s: total_pattern: %w", g.ID, err)
	}
	if g.dueDate, err = compileOptional(g.DueDatePattern, g); err != nil {
		return fmt.Errorf("grammar %s: due_date_pattern: %w", g.ID, err)
	}
	for _, re := range []*regexp.Regexp{g.transaction, g.invoice} {
		if re != nil && (re.SubexpIndex("date") < 0 || re.SubexpIndex("desc") < 0 || re.SubexpIndex("amount") < 0) {
			return fmt.Errorf("grammar %s: line patterns need date, desc and amount groups", g.ID)
		}
	}

	g.identifiers = foldAll(g.Identifiers)
	g.debit = append(foldAll(f.Defaults.DebitKeywords), foldAll(g.DebitKeywords)...)
	g.skip = append(foldAll(f.Defaults.SkipKeywords), foldAll(g.SkipKeywords)...)
	return nil
}

// expand substitutes the {date} and {amount} placeholders.
func (g *Grammar) expand(pattern string) string {
	r := strings.NewReplacer(
		"{date}", "(?:"+g.DatePattern+")",
		"{amount}", "(?:"+g.AmountPattern+")",
	)
	return r.Replace(pattern)
}

func compileOptional(pattern string, g *Grammar) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	return regexp.Compile(g.expand(pattern))
}

func foldAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, normalize.Fold(s))
		}
	}
	return out
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Default returns the registry built from the embedded grammar table. The
// table is parsed and compiled on first use and shared read-only afterwards.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = Load(builtinGrammars)
	})
	return defaultRegistry, defaultErr
}

// MustDefault is Default for callers that treat a broken embedded table as
// a programming error.
func MustDefault() *Registry {
	r, err := Default()
	if err != nil {
		panic(err)
	}
	return r
}

// Load parses a YAML grammar table and compiles it into a Registry.
func Load(data []byte) (*Registry, error) {
	var f grammarFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing grammar table: %w", err)
	}

	r := &Registry{
		byID:              make(map[models.BankID]*Grammar, len(f.Grammars)),
		invoiceKeywords:   foldAll(f.DocumentTypes.InvoiceKeywords),
		statementKeywords: foldAll(f.DocumentTypes.StatementKeywords),
	}

	for _, g := range f.Grammars {
		if g.ID == "" || g.ID == models.BankUnknown {
			return nil, fmt.Errorf("grammar with missing or reserved id %q", g.ID)
		}
		if _, dup := r.byID[g.ID]; dup {
			return nil, fmt.Errorf("duplicate grammar %q", g.ID)
		}
		if err := g.compile(&f); err != nil {
			return nil, err
		}
		r.grammars = append(r.grammars, g)
		r.byID[g.ID] = g
	}

	r.generic = &Grammar{ID: models.BankUnknown, Name: "Generic"}
	if err := r.generic.compile(&f); err != nil {
		return nil, err
	}

	var err error
	if r.genericStatement, err = compileAll(r.generic, f.Generic.StatementPatterns); err != nil {
		return nil, fmt.Errorf("generic statement pattern: %w", err)
	}
	if r.genericInvoice, err = compileAll(r.generic, f.Generic.InvoicePatterns); err != nil {
		return nil, fmt.Errorf("generic invoice pattern: %w", err)
	}
	return r, nil
}

func compileAll(g *Grammar, patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(g.expand(p))
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}
