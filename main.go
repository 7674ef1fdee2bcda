package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/extrato-analyzer/internal/api"
	"github.com/insightdelivered/extrato-analyzer/internal/config"
	"github.com/insightdelivered/extrato-analyzer/internal/extractor"
	"github.com/insightdelivered/extrato-analyzer/internal/logger"
	"github.com/insightdelivered/extrato-analyzer/internal/models"
	"github.com/insightdelivered/extrato-analyzer/internal/processor"
	"github.com/insightdelivered/extrato-analyzer/internal/writer"
)

const version = "2.0.0"

type cliOptions struct {
	format        string
	output        string
	includeHeader bool
	opts          processor.Options
}

func main() {
	typeFlag := flag.String("type", "", "Document type: statement or card_invoice (auto-detected if omitted)")
	bankFlag := flag.String("bank", "", "Bank id, e.g. caixa, itau, nubank (auto-detected if omitted)")
	formatFlag := flag.String("format", "json", "Output format: json or csv")
	outputFlag := flag.String("output", "", "Output file path, or - for stdout (defaults to input filename with the format extension)")
	refFlag := flag.String("reference-date", "", "Reference date YYYY-MM-DD used to resolve years (defaults to today)")
	headerFlag := flag.Bool("header", true, "Include summary metadata rows in CSV")
	serveFlag := flag.String("serve", "", "Start the HTTP API on this address, e.g. :8080")
	configFlag := flag.String("config", "", "YAML configuration file")
	logLevelFlag := flag.String("log-level", "", "Log level: trace, debug, info, warn, error, disabled")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Extrato Analyzer
by Insight Delivered

Extracts transactions from Brazilian bank statements and credit-card
invoices, flags suspicious activity and computes a credit score.

Usage:
  extrato-analyzer [flags] <input.pdf|input.txt> [input2 ...]
  extrato-analyzer --serve=:8080

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Auto-detect bank and document type, write extrato.json
  extrato-analyzer extrato.pdf

  # CSV to stdout for a Caixa statement exported as text
  extrato-analyzer --bank=caixa --format=csv --output=- extrato.txt

  # Card invoice from last year
  extrato-analyzer --type=card_invoice --reference-date=2024-12-31 fatura.pdf

  # HTTP API
  extrato-analyzer --serve=:8080 --config=analyzer.yaml
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("extrato-analyzer v%s\n", version)
		os.Exit(0)
	}

	cfg := config.Default()
	if *configFlag != "" {
		loaded, err := config.Load(*configFlag)
		if err != nil {
			fatalf("Invalid configuration: %v\n", err)
		}
		cfg = loaded
	}
	if *logLevelFlag != "" {
		cfg.LogLevel = *logLevelFlag
	}
	if *serveFlag != "" {
		cfg.Listen = *serveFlag
	}
	if err := cfg.Validate(); err != nil {
		fatalf("Invalid configuration: %v\n", err)
	}

	log := logger.WithLevel(logger.New(), cfg.LogLevel)

	proc, err := processor.New(cfg, log)
	if err != nil {
		fatalf("%v\n", err)
	}

	if *serveFlag != "" {
		if err := serve(proc, cfg, log); err != nil {
			fatalf("Server error: %v\n", err)
		}
		return
	}

	if *helpFlag || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	cli := cliOptions{
		format:        strings.ToLower(*formatFlag),
		output:        *outputFlag,
		includeHeader: *headerFlag,
	}
	if cli.format != "json" && cli.format != "csv" {
		fatalf("Unknown format %q. Supported: json, csv\n", *formatFlag)
	}
	if cli.output != "" && cli.output != "-" && flag.NArg() > 1 {
		fatalf("--output can only name a file when a single input is given\n")
	}

	if *typeFlag != "" {
		dt, ok := models.ParseDocumentType(strings.ToLower(*typeFlag))
		if !ok {
			fatalf("Unknown document type %q. Supported: statement, card_invoice\n", *typeFlag)
		}
		cli.opts.DocumentType = dt
	}
	if *bankFlag != "" {
		id := models.BankID(strings.ToLower(*bankFlag))
		if _, ok := proc.Registry().Lookup(id); !ok {
			fatalf("Unknown bank %q. Supported: %s\n", *bankFlag, supportedBanks(proc))
		}
		cli.opts.Bank = id
	}
	if *refFlag != "" {
		ref, err := time.Parse("2006-01-02", *refFlag)
		if err != nil {
			fatalf("Invalid reference date %q, expected YYYY-MM-DD\n", *refFlag)
		}
		cli.opts.ReferenceDate = ref
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, proc, flag.Args(), cli, log); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// run reads every input, processes them as a batch and writes one output
// per input. A failing input does not stop the others; all failures are
// reported together.
func run(ctx context.Context, proc *processor.Processor, paths []string, cli cliOptions, log zerolog.Logger) error {
	var errs *multierror.Error

	var docs []processor.Input
	for _, path := range paths {
		fmt.Fprintf(os.Stderr, "Processing: %s\n", path)
		text, err := readInput(path)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		docs = append(docs, processor.Input{Name: path, Text: text})
	}

	results, err := proc.ProcessBatch(ctx, docs, cli.opts)
	if err != nil {
		return multierror.Append(errs, err)
	}

	for i, res := range results {
		path := docs[i].Name
		log.Debug().Str("file", path).Str("bank", string(res.Bank)).Msg("writing result")

		fmt.Fprintf(os.Stderr, "  %s: bank %s, %s, %d transaction(s), score %d (%s risk)\n",
			path, res.Bank, res.DocumentType, len(res.Transactions), res.CreditScore, res.RiskLevel)
		if !res.Success {
			fmt.Fprintln(os.Stderr, "  Warning: No transactions found. Try --bank or --type if auto-detection was used.")
		}
		if res.HasFindings() {
			for _, kind := range models.FindingKinds {
				if n := len(res.SuspiciousPatterns[kind]); n > 0 {
					fmt.Fprintf(os.Stderr, "  Suspicious: %d %s finding(s)\n", n, kind)
				}
			}
		}

		if err := writeResult(path, &res, cli); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}

	return errs.ErrorOrNil()
}

func readInput(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		text, err := extractor.ExtractTextCombined(path)
		if err != nil {
			return "", fmt.Errorf("PDF extraction failed: %w", err)
		}
		return text, nil
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("expected .pdf or .txt file, got %q", ext)
	}
}

func writeResult(inputPath string, res *models.ProcessingResult, cli cliOptions) error {
	outPath := cli.output
	if outPath == "" {
		outPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + "." + cli.format
	}

	if cli.format == "csv" {
		w := &writer.CSVWriter{IncludeHeader: cli.includeHeader}
		if outPath == "-" {
			return w.Write(os.Stdout, res)
		}
		if err := w.WriteToFile(outPath, res); err != nil {
			return fmt.Errorf("CSV write failed: %w", err)
		}
	} else {
		w := &writer.JSONWriter{Indent: true}
		if outPath == "-" {
			return w.Write(os.Stdout, res)
		}
		if err := w.WriteToFile(outPath, res); err != nil {
			return fmt.Errorf("JSON write failed: %w", err)
		}
	}

	fmt.Fprintf(os.Stderr, "  Output: %s\n", outPath)
	return nil
}

// serve runs the HTTP API until SIGINT or SIGTERM.
func serve(proc *processor.Processor, cfg config.Config, log zerolog.Logger) error {
	app := api.NewApp(api.NewHandler(proc, cfg, log), cfg)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", cfg.Listen).Msg("starting HTTP API")
		errCh <- app.Listen(cfg.Listen)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sig:
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			return err
		}
		return <-errCh
	}
}

func supportedBanks(proc *processor.Processor) string {
	var ids []string
	for _, g := range proc.Registry().Grammars() {
		ids = append(ids, string(g.ID))
	}
	return strings.Join(ids, ", ")
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
