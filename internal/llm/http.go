package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docparser/internal/common"
)

// HTTPError is returned by SendJSON for non-2xx responses.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("non-2xx status: %d", e.Status)
	}
	return fmt.Sprintf("non-2xx status: %d: %s", e.Status, e.Body)
}

// SendJSON posts body as JSON to url with optional headers and returns the raw response body.
// It does not assume any provider. Callers decide the URL and headers.
func SendJSON(ctx context.Context, client *http.Client, url string, body any, headers map[string]string, logger *slog.Logger) ([]byte, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{}
	}

	reqID := common.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
	}
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		logger.Error("llm.http.encode_error", "req_id", reqID, "error", err)
		return nil, 0, fmt.Errorf("encode json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		logger.Error("llm.http.build_request_error", "req_id", reqID, "error", err)
		return nil, 0, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	logger.Debug("llm.http.request",
		"req_id", reqID,
		"url", url,
		"content_length", len(bs),
	)

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("llm.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logger.Warn("llm.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("llm.http.read_error", "req_id", reqID, "error", err)
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	logger.Info("llm.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return raw, resp.StatusCode, &HTTPError{Status: resp.StatusCode, Body: truncateBody(raw, 512)}
	}
	return raw, resp.StatusCode, nil
}

func truncateBody(b []byte, max int) string {
	if len(b) <= max {
		return string(bytes.TrimSpace(b))
	}
	return string(bytes.TrimSpace(b[:max])) + "...(truncated)"
}
