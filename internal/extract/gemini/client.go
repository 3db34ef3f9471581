package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/google/uuid"

	"github.com/facturaia/invoice-pipeline/internal/extract"
)

// Extract implements extract.FieldExtractor over Gemini vision. It never
// surfaces a Go error: every failure mode is folded into the Extraction so a
// bad file or a model outage costs one log entry, not the batch.
func (c *Client) Extract(ctx context.Context, imagePath string) extract.Extraction {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"path", imagePath,
	)

	// Reject unsupported or corrupt files before spending quota.
	if err := extract.ValidateImage(imagePath); err != nil {
		c.logger.Error("extract.invalid_image", "req_id", rid, "path", imagePath, "error", err)
		return extract.Failure(fmt.Sprintf("invalid or unsupported file %s: %v", imagePath, err))
	}

	content, err := os.ReadFile(imagePath)
	if err != nil {
		c.logger.Error("extract.read_error", "req_id", rid, "path", imagePath, "error", err)
		return extract.Failure(fmt.Sprintf("read image: %v", err))
	}

	mimeType := mime.TypeByExtension(filepath.Ext(imagePath))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.model.GenerateContent(ctx,
		genai.Text(extract.InvoicePrompt),
		genai.Blob{MIMEType: mimeType, Data: content},
	)
	if err != nil {
		c.logger.Error("extract.model_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return extract.Failure(err.Error())
	}

	raw := collectText(resp)

	// Raw response is always recorded for audit, success or failure.
	c.logger.Info("extract.raw_response",
		"req_id", rid,
		"raw", raw,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	cleaned, found := extract.IsolateJSON(raw)
	if !found {
		c.logger.Error("extract.no_json", "req_id", rid, "raw_len", len(raw))
		return extract.Failure("no JSON object found in model response")
	}

	var fields extract.RawFields
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		c.logger.Error("extract.decode_error", "req_id", rid, "error", err)
		return extract.Failure(fmt.Sprintf("JSON decode error: %v", err))
	}

	// Shape audit only; the normalizer degrades per field regardless.
	if err := extract.ValidateJSONAgainstSchema(extract.BuildInvoiceJSONSchema(), []byte(cleaned)); err != nil {
		c.logger.Warn("extract.schema_mismatch", "req_id", rid, "error", err)
	}

	c.logger.Info("extract.ok",
		"req_id", rid,
		"fields", len(fields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return extract.Extraction{OK: true, Fields: fields, RawResponse: cleaned}
}

// collectText concatenates the text parts of the first candidate.
func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}
