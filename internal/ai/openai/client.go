package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jmaine-gray/invoice-extractor/internal/ai"
	"github.com/jmaine-gray/invoice-extractor/internal/entity"
)

// ExtractFields implements ai.FieldExtractor against an OpenAI-compatible
// chat/completions endpoint. The call is idempotent (stateless POST) and
// carries its own retry budget with exponential backoff; retry exhaustion or
// timeout surfaces as a plain error the pipeline treats as "AI unavailable".
func (c *Client) ExtractFields(ctx context.Context, req ai.ExtractRequest) (entity.InvoiceFields, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("ai.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.RawText),
		"source", req.SourceFilename,
	)

	schema := ai.BuildInvoiceJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": buildSystemPrompt(req)},
			{"role": "user", "content": buildUserPrompt(req) + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.postWithRetry(ctx, rid, endpoint, body)
	if err != nil {
		c.log.Error("ai.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.InvoiceFields{}, nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return entity.InvoiceFields{}, raw, fmt.Errorf("decode completions response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return entity.InvoiceFields{}, raw, fmt.Errorf("no choices in completions response")
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	if err := ai.ValidateJSONAgainstSchema(schema, content); err != nil {
		if !c.cfg.LenientOptional {
			return entity.InvoiceFields{}, content, fmt.Errorf("schema validation failed: %w", err)
		}
		cleaned, dropped, sErr := ai.SanitizeOptionalFields(content)
		if sErr != nil {
			return entity.InvoiceFields{}, content, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := ai.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			return entity.InvoiceFields{}, content, fmt.Errorf("schema validation failed: %w", vErr)
		}
		c.log.Warn("ai.extract.lenient_sanitize_applied", "req_id", rid, "dropped", dropped)
		content = cleaned
	}

	var out entity.InvoiceFields
	if err := json.Unmarshal(content, &out); err != nil {
		return entity.InvoiceFields{}, content, fmt.Errorf("unmarshal fields: %w", err)
	}

	c.log.Info("ai.extract.ok",
		"req_id", rid,
		"invoice_number", out.InvoiceNumber,
		"amount_due", out.AmountDue,
		"currency", out.Currency,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, content, nil
}

// postWithRetry retries transient failures (transport errors and 5xx/429)
// with exponential backoff. 4xx responses other than 429 fail immediately.
func (c *Client) postWithRetry(ctx context.Context, rid, url string, body map[string]any) ([]byte, error) {
	var lastErr error
	backoff := time.Second
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		raw, retryable, err := c.post(ctx, url, body)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !retryable || attempt == c.cfg.MaxAttempts {
			break
		}
		c.log.Warn("ai.extract.retrying", "req_id", rid, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, lastErr
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, bool, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, false, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("completions http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.log.Warn("completions response body close error", "error", cerr)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, retryable, fmt.Errorf("completions status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), false, nil
}

func buildSystemPrompt(req ai.ExtractRequest) string {
	defCur := strings.TrimSpace(req.DefaultCurrency)
	if defCur == "" {
		defCur = "USD"
	}
	parts := []string{
		"You are an invoice parser. Return ONLY JSON that matches the provided JSON Schema.",
		"Use ISO-8601 dates (YYYY-MM-DD).",
		"Amounts are plain decimal numbers with no symbols or thousands separators.",
		"Currency must be a 3-letter ISO 4217 code; default to " + defCur + " if uncertain.",
		"Omit fields you cannot find; never invent values.",
		"List every visible line item under 'items' with description, unit_price, quantity and amount.",
	}
	return strings.Join(parts, " ")
}

func buildUserPrompt(req ai.ExtractRequest) string {
	var sb strings.Builder
	if req.SourceFilename != "" {
		sb.WriteString("Source file: " + req.SourceFilename + "\n\n")
	}
	sb.WriteString("Recognized invoice text:\n")
	sb.WriteString(req.RawText)
	return sb.String()
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
