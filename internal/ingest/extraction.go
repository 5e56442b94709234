package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/loan-risk/pkg/constants"
	"go.uber.org/zap"
)

// maxExtractionResponseBytes caps how much of a backend answer is read.
const maxExtractionResponseBytes = 4 << 20

// ExtractionClient forwards PDF documents to the extraction backend and
// converts its answer into borrower rows.
type ExtractionClient struct {
	logger     *zap.Logger
	endpoint   string
	httpClient *http.Client
}

// NewExtractionClient builds a client for the backend at baseURL. A timeout of
// zero uses the default.
func NewExtractionClient(logger *zap.Logger, baseURL string, timeout time.Duration) *ExtractionClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = constants.DefaultExtractionTimeoutSeconds * time.Second
	}
	return &ExtractionClient{
		logger:     logger,
		endpoint:   strings.TrimRight(baseURL, "/") + constants.ExtractionPath,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Extract uploads the document as multipart field "file" and parses the
// backend's JSON answer with ParseRecordsJSON.
func (c *ExtractionClient) Extract(ctx context.Context, filename string, r io.Reader) (Table, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return Table{}, fmt.Errorf("failed to build extraction request: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return Table{}, fmt.Errorf("failed to read document: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Table{}, fmt.Errorf("failed to build extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return Table{}, fmt.Errorf("failed to build extraction request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Table{}, fmt.Errorf("extraction request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close extraction response",
				zap.String("op", "ingest.Extract"),
				zap.Error(closeErr),
			)
		}
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxExtractionResponseBytes))
	if err != nil {
		return Table{}, fmt.Errorf("failed to read extraction response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Table{}, fmt.Errorf("extraction backend returned %s: %s",
			resp.Status, strings.TrimSpace(truncate(string(payload), 200)))
	}

	table, err := ParseRecordsJSON(payload)
	if err != nil {
		return Table{}, fmt.Errorf("unexpected extraction response: %w", err)
	}

	c.logger.Debug("document extracted",
		zap.String("op", "ingest.Extract"),
		zap.String("file", filename),
		zap.Int("rows", len(table.Rows)),
		zap.Duration("duration", time.Since(start)),
	)
	return table, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
