// Package processor runs the full analysis of one document: classify,
// extract, categorize, detect, score and aggregate.
package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/insightdelivered/extrato-analyzer/internal/categorize"
	"github.com/insightdelivered/extrato-analyzer/internal/config"
	"github.com/insightdelivered/extrato-analyzer/internal/detector"
	"github.com/insightdelivered/extrato-analyzer/internal/models"
	"github.com/insightdelivered/extrato-analyzer/internal/normalize"
	"github.com/insightdelivered/extrato-analyzer/internal/parser"
	"github.com/insightdelivered/extrato-analyzer/internal/score"
)

// PreviewLength caps the echo of the input text in a result.
const PreviewLength = 1000

// Options steer a single Process call. Zero values mean auto-detect.
type Options struct {
	Bank         models.BankID
	DocumentType models.DocumentType
	// ReferenceDate resolves year-less dates and anchors the recency term
	// of the score. Zero means the processor's clock.
	ReferenceDate time.Time
}

// Input is one document of a batch.
type Input struct {
	Name string
	Text string
}

// Processor is safe for concurrent use.
type Processor struct {
	registry    *parser.Registry
	thresholds  detector.Thresholds
	scorer      score.Engine
	concurrency int
	log         zerolog.Logger
	now         func() time.Time
}

// New builds a processor on the embedded grammar table.
func New(cfg config.Config, log zerolog.Logger) (*Processor, error) {
	reg, err := parser.Default()
	if err != nil {
		return nil, fmt.Errorf("loading grammars: %w", err)
	}
	return NewWithRegistry(reg, cfg, log), nil
}

// NewWithRegistry builds a processor on an explicit grammar registry.
func NewWithRegistry(reg *parser.Registry, cfg config.Config, log zerolog.Logger) *Processor {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Processor{
		registry:    reg,
		thresholds:  cfg.Detector,
		scorer:      score.NewEngine(cfg.RecencyDays),
		concurrency: concurrency,
		log:         log,
		now:         time.Now,
	}
}

// Registry exposes the grammar registry the processor was built with.
func (p *Processor) Registry() *parser.Registry { return p.registry }

// Process analyses one document. It never fails: a document with no
// recognizable transactions comes back with Success false.
func (p *Processor) Process(text string, opts Options) models.ProcessingResult {
	ref := opts.ReferenceDate
	if ref.IsZero() {
		ref = p.now()
	}
	ref = time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)

	bank := opts.Bank
	if bank == "" {
		bank = p.registry.DetectBank(text)
	}
	docType := opts.DocumentType
	if docType == "" {
		docType = p.registry.DetectDocumentType(text)
	}

	g := p.registry.Grammar(bank)
	doc := p.registry.NewDocument(text, g, docType, ref)
	txns, strategy := p.registry.Extract(doc)
	for i := range txns {
		txns[i].Category = categorize.Categorize(txns[i].Description)
	}

	income, expenses := totals(txns)
	result := models.ProcessingResult{
		Success:            len(txns) > 0,
		Bank:               bank,
		DocumentType:       docType,
		AccountRef:         doc.AccountRef,
		Transactions:       txns,
		TotalIncome:        income,
		TotalExpenses:      expenses,
		NetBalance:         income.Sub(expenses),
		SuspiciousPatterns: detector.Detect(txns, p.thresholds),
		TextPreview:        normalize.Truncate(text, PreviewLength),
	}
	if bank != models.BankUnknown {
		result.BankName = g.DisplayName()
	}
	if docType == models.CardInvoice {
		result.Invoice = parser.InvoiceSummary(text, g, doc.Reference)
	}
	if result.Success {
		result.CreditScore = p.scorer.Score(txns, ref)
	} else {
		result.CreditScore = score.Min
	}
	result.RiskLevel = score.RiskLevel(result.CreditScore)

	p.log.Debug().
		Str("bank", string(bank)).
		Str("document_type", string(docType)).
		Str("strategy", strategy).
		Int("lines", len(doc.Lines)).
		Int("transactions", len(txns)).
		Bool("findings", result.HasFindings()).
		Msg("document processed")

	return result
}

// ProcessBatch processes docs concurrently and returns results in input
// order. Cancellation is checked before each document starts; a document
// already in progress runs to completion.
func (p *Processor) ProcessBatch(ctx context.Context, docs []Input, opts Options) ([]models.ProcessingResult, error) {
	if opts.ReferenceDate.IsZero() {
		opts.ReferenceDate = p.now()
	}

	results := make([]models.ProcessingResult, len(docs))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(p.concurrency)

	for i, d := range docs {
		i, d := i, d
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("document %q: %w", d.Name, err)
			}
			results[i] = p.Process(d.Text, opts)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func totals(txns []models.Transaction) (income, expenses decimal.Decimal) {
	for _, t := range txns {
		if t.IsCredit() {
			income = income.Add(t.Amount)
		} else {
			expenses = expenses.Add(t.Abs())
		}
	}
	return income, expenses
}
