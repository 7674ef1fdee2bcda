// Package api exposes the document processor over HTTP using fiber.
package api

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/extrato-analyzer/internal/config"
	"github.com/insightdelivered/extrato-analyzer/internal/extractor"
	"github.com/insightdelivered/extrato-analyzer/internal/logger"
	"github.com/insightdelivered/extrato-analyzer/internal/models"
	"github.com/insightdelivered/extrato-analyzer/internal/processor"
	"github.com/insightdelivered/extrato-analyzer/internal/score"
)

// Version is reported by the health endpoint.
const Version = "2.0.0"

const requestIDKey = "requestId"

// ProcessRequest is the JSON body of POST /api/process. ReferenceDate is
// YYYY-MM-DD; empty means today.
type ProcessRequest struct {
	Text          string `json:"text"`
	DocumentType  string `json:"documentType"`
	ReferenceDate string `json:"referenceDate"`
	Bank          string `json:"bank"`
}

// ProcessResponse wraps a processing result with the request id.
type ProcessResponse struct {
	RequestID string `json:"requestId"`
	models.ProcessingResult
}

// BatchDocument is one entry of a batch request.
type BatchDocument struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// BatchRequest is the JSON body of POST /api/process/batch. The options
// apply to every document.
type BatchRequest struct {
	Documents     []BatchDocument `json:"documents"`
	DocumentType  string          `json:"documentType"`
	ReferenceDate string          `json:"referenceDate"`
	Bank          string          `json:"bank"`
}

// BatchResponse carries one result per document, in request order.
type BatchResponse struct {
	RequestID string                    `json:"requestId"`
	Success   bool                      `json:"success"`
	Count     int                       `json:"count"`
	Results   []models.ProcessingResult `json:"results"`
}

// ScoreResponse wraps a score envelope with the request id.
type ScoreResponse struct {
	RequestID string `json:"requestId"`
	score.Response
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	RequestID string `json:"requestId,omitempty"`
	Success   bool   `json:"success"`
	Error     string `json:"error"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	proc   *processor.Processor
	scorer score.Engine
	log    zerolog.Logger

	// Now resolves the as-of date for score requests that omit one.
	Now func() time.Time
}

// NewHandler builds handlers around proc.
func NewHandler(proc *processor.Processor, cfg config.Config, log zerolog.Logger) *Handler {
	return &Handler{
		proc:   proc,
		scorer: score.NewEngine(cfg.RecencyDays),
		log:    log,
		Now:    time.Now,
	}
}

// NewApp returns a fiber app with the body limit from cfg, JSON error
// envelopes and every route registered.
func NewApp(h *Handler, cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "extrato-analyzer",
		BodyLimit:             cfg.BodyLimitMB << 20,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(router fiber.Router) {
	api := router.Group("/api", h.requestContext)
	api.Get("/health", h.HandleHealth)
	api.Post("/process", h.HandleProcess)
	api.Post("/process/batch", h.HandleBatch)
	api.Post("/score", h.HandleScore)
}

// requestContext assigns a request id, stores a request-scoped logger in
// the user context and logs one line when the handler returns.
func (h *Handler) requestContext(c *fiber.Ctx) error {
	id := uuid.NewString()
	c.Locals(requestIDKey, id)
	c.Set("X-Request-ID", id)

	reqLog := logger.WithFields(h.log, map[string]interface{}{
		"request_id": id,
		"method":     c.Method(),
		"path":       c.Path(),
	})
	c.SetUserContext(logger.WithContext(c.UserContext(), reqLog))

	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	} else if err != nil {
		status = fiber.StatusInternalServerError
	}
	reqLog.Info().
		Int("status", status).
		Dur("duration", time.Since(start)).
		Msg("request handled")
	return err
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}

// HandleHealth reports liveness and the number of loaded grammars.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"engine":    "fiber",
		"version":   Version,
		"grammars":  len(h.proc.Registry().Grammars()),
		"requestId": requestID(c),
	})
}

// HandleProcess analyses one document given either as JSON text or as a
// multipart upload with a "file" PDF or a "text" field.
func (h *Handler) HandleProcess(c *fiber.Ctx) error {
	var req ProcessRequest
	if isMultipart(c) {
		text, err := multipartText(c)
		if err != nil {
			return err
		}
		req = ProcessRequest{
			Text:          text,
			DocumentType:  c.FormValue("documentType"),
			ReferenceDate: c.FormValue("referenceDate"),
			Bank:          c.FormValue("bank"),
		}
	} else if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}

	if strings.TrimSpace(req.Text) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "no document text provided; send 'text' or a PDF in 'file'")
	}
	opts, err := h.options(req.DocumentType, req.Bank, req.ReferenceDate)
	if err != nil {
		return err
	}

	result := h.proc.Process(req.Text, opts)
	reqLog := logger.FromContext(c.UserContext())
	reqLog.Debug().
		Str("bank", string(result.Bank)).
		Int("transactions", len(result.Transactions)).
		Msg("process request")

	return c.JSON(ProcessResponse{RequestID: requestID(c), ProcessingResult: result})
}

// HandleBatch analyses several documents concurrently.
func (h *Handler) HandleBatch(c *fiber.Ctx) error {
	var req BatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}
	if len(req.Documents) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no documents provided")
	}
	opts, err := h.options(req.DocumentType, req.Bank, req.ReferenceDate)
	if err != nil {
		return err
	}

	docs := make([]processor.Input, len(req.Documents))
	for i, d := range req.Documents {
		name := d.Name
		if name == "" {
			name = fmt.Sprintf("document-%d", i+1)
		}
		docs[i] = processor.Input{Name: name, Text: d.Text}
	}

	results, err := h.proc.ProcessBatch(c.UserContext(), docs, opts)
	if err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, fmt.Sprintf("batch aborted: %v", err))
	}
	return c.JSON(BatchResponse{
		RequestID: requestID(c),
		Success:   true,
		Count:     len(results),
		Results:   results,
	})
}

// HandleScore scores a caller-supplied transaction list.
func (h *Handler) HandleScore(c *fiber.Ctx) error {
	var req score.Request
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}
	if req.AsOf.IsZero() {
		req.AsOf = h.Now()
	}
	return c.JSON(ScoreResponse{RequestID: requestID(c), Response: h.scorer.Evaluate(req)})
}

// options converts request hints into processor options. Empty values
// leave detection to the processor.
func (h *Handler) options(docType, bank, ref string) (processor.Options, error) {
	var opts processor.Options
	if docType != "" {
		dt, ok := models.ParseDocumentType(strings.ToLower(docType))
		if !ok {
			return opts, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown documentType %q; use statement or card_invoice", docType))
		}
		opts.DocumentType = dt
	}
	if bank != "" {
		id := models.BankID(strings.ToLower(bank))
		if _, ok := h.proc.Registry().Lookup(id); !ok {
			return opts, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown bank %q", bank))
		}
		opts.Bank = id
	}
	if ref != "" {
		t, err := time.Parse("2006-01-02", ref)
		if err != nil {
			return opts, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid referenceDate %q; use YYYY-MM-DD", ref))
		}
		opts.ReferenceDate = t
	}
	return opts, nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

// multipartText prefers an uploaded PDF over the plain "text" field.
func multipartText(c *fiber.Ctx) (string, error) {
	header, err := c.FormFile("file")
	if err != nil {
		if text := c.FormValue("text"); text != "" {
			return text, nil
		}
		return "", fiber.NewError(fiber.StatusBadRequest, "no file uploaded; use form field 'file' or 'text'")
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		return "", fiber.NewError(fiber.StatusBadRequest, "only PDF files are supported")
	}

	f, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	pages, err := extractor.ExtractFromBytes(data)
	if err != nil {
		return "", fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	return strings.Join(pages, "\n"), nil
}

// errorHandler renders every error as an ErrorResponse.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(ErrorResponse{
		RequestID: requestID(c),
		Success:   false,
		Error:     err.Error(),
	})
}
