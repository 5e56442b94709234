package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/iwvelando/loan-risk/internal/ingest"
	"github.com/iwvelando/loan-risk/internal/risk"
	"github.com/iwvelando/loan-risk/pkg/constants"
	"github.com/iwvelando/loan-risk/pkg/metrics"
	"github.com/iwvelando/loan-risk/pkg/output"
	"github.com/iwvelando/loan-risk/pkg/validation"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Options configures the HTTP handler.
type Options struct {
	// MaxUploadSize bounds request bodies in bytes. Zero uses the default.
	MaxUploadSize int64
	Version       string
	Evaluation    risk.Options
	// Extractor handles PDF uploads. When nil, PDF uploads are answered
	// with 503.
	Extractor ingest.Extractor
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	evaluation    risk.Options
	extractor     ingest.Extractor
}

// NewHandler constructs the HTTP handler that serves the evaluation API and
// the Prometheus metrics endpoint.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		evaluation:    opts.Evaluation,
		extractor:     opts.Extractor,
	}

	mux := http.NewServeMux()

	// Borrower file upload (CSV or PDF)
	mux.HandleFunc("/api/evaluate", h.handleEvaluate)

	// Borrower rows as JSON
	mux.HandleFunc("/api/evaluate/records", h.handleEvaluateRecords)

	mux.HandleFunc("/api/version", h.handleVersion)
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

type evaluateResponse struct {
	BatchID  string                    `json:"batchId"`
	Results  []risk.Result             `json:"results"`
	CSV      string                    `json:"csv"`
	Issues   map[int][]risk.FieldIssue `json:"issues,omitempty"`
	Duration string                    `json:"duration"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
	Found   []string `json:"found,omitempty"`
}

func (h *handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleEvaluate"

	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, http.MethodPost)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.reject(w, http.StatusRequestEntityTooLarge, metrics.ReasonInvalidInput,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.reject(w, http.StatusBadRequest, metrics.ReasonInvalidInput,
			fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.reject(w, http.StatusBadRequest, metrics.ReasonInvalidInput, "missing borrower file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	table, err := ingest.Decode(r.Context(), header.Filename, file, h.extractor)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrNoExtractor):
			h.reject(w, http.StatusServiceUnavailable, metrics.ReasonExtraction, err.Error(), op)
		case errors.Is(err, ingest.ErrUnsupportedFormat):
			h.reject(w, http.StatusBadRequest, metrics.ReasonInvalidInput, err.Error(), op)
		case strings.EqualFold(filepath.Ext(header.Filename), ".pdf"):
			h.reject(w, http.StatusBadGateway, metrics.ReasonExtraction,
				fmt.Sprintf("document extraction failed: %v", err), op)
		default:
			h.reject(w, http.StatusBadRequest, metrics.ReasonInvalidInput, err.Error(), op)
		}
		return
	}

	h.evaluate(w, table, start, op, "upload")
}

func (h *handler) handleEvaluateRecords(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleEvaluateRecords"

	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, http.MethodPost)
		return
	}

	start := time.Now()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadSize))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.reject(w, http.StatusRequestEntityTooLarge, metrics.ReasonInvalidInput,
				fmt.Sprintf("payload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.reject(w, http.StatusBadRequest, metrics.ReasonInvalidInput,
			fmt.Sprintf("failed to read payload: %v", err), op)
		return
	}

	table, err := ingest.ParseRecordsJSON(body)
	if err != nil {
		h.reject(w, http.StatusBadRequest, metrics.ReasonInvalidInput, err.Error(), op)
		return
	}

	h.evaluate(w, table, start, op, "records")
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, http.MethodGet)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// evaluate validates the table, evaluates it and writes the response.
func (h *handler) evaluate(w http.ResponseWriter, table ingest.Table, start time.Time, op, source string) {
	if err := validation.ValidateBatch(table.Fields, table.Rows); err != nil {
		var missingErr *validation.MissingColumnsError
		switch {
		case errors.As(err, &missingErr):
			metrics.BatchesRejected.WithLabelValues(metrics.ReasonMissingColumns).Inc()
			h.respondError(w, http.StatusUnprocessableEntity, errorResponse{
				Error:   err.Error(),
				Missing: missingErr.Missing,
				Found:   missingErr.Found,
			}, op)
		case errors.Is(err, validation.ErrEmptyBatch):
			metrics.BatchesRejected.WithLabelValues(metrics.ReasonEmptyBatch).Inc()
			h.respondError(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()}, op)
		default:
			h.reject(w, http.StatusBadRequest, metrics.ReasonInvalidInput, err.Error(), op)
		}
		return
	}

	batch := risk.EvaluateBatch(h.logger, table.Rows, h.evaluation)

	csvText, err := output.CsvString(table.Rows, batch.Results)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError,
			errorResponse{Error: fmt.Sprintf("failed to render csv: %v", err)}, op)
		return
	}

	elapsed := time.Since(start)
	metrics.BatchDuration.WithLabelValues(source).Observe(elapsed.Seconds())

	response := evaluateResponse{
		BatchID:  batch.ID,
		Results:  batch.Results,
		CSV:      csvText,
		Issues:   batch.Issues,
		Duration: elapsed.String(),
	}
	if len(response.Issues) == 0 {
		response.Issues = nil
	}

	counts := batch.Counts()
	h.logger.Info("batch evaluated",
		zap.String("op", op),
		zap.String("batch", batch.ID),
		zap.Int("rows", len(batch.Results)),
		zap.Int("high", counts[risk.TierHigh]),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

// reject records a rejected batch and writes a plain error body.
func (h *handler) reject(w http.ResponseWriter, status int, reason, msg, op string) {
	metrics.BatchesRejected.WithLabelValues(reason).Inc()
	h.respondError(w, status, errorResponse{Error: msg}, op)
}

func (h *handler) respondError(w http.ResponseWriter, status int, body errorResponse, op string) {
	h.logger.Error("evaluation request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", body.Error),
	)

	h.writeJSON(w, status, body)
}

// writeJSON encodes payload before committing the status so an encoding
// failure still produces a well-formed 500.
func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		h.logger.Error("failed to encode JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(errorResponse{Error: "failed to encode response"})
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("failed to write JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}
