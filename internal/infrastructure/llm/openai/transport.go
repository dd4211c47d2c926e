package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openai %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

type statusCaptureKey struct{}

// statusCapture remembers the last HTTP status seen for one model call, so
// errors coming back through the eino client can be classified by status.
type statusCapture struct {
	code   int
	status string
}

func withStatusCapture(ctx context.Context, capture *statusCapture) context.Context {
	return context.WithValue(ctx, statusCaptureKey{}, capture)
}

func (s *statusCapture) wrap(operation string, err error) error {
	if s == nil || s.code < 300 {
		return err
	}
	return &HTTPStatusError{
		Operation:  operation,
		StatusCode: s.code,
		Status:     s.status,
		Body:       err.Error(),
		Err:        err,
	}
}

type statusCapturingTransport struct {
	next http.RoundTripper
}

func (t statusCapturingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if resp != nil {
		if capture, ok := req.Context().Value(statusCaptureKey{}).(*statusCapture); ok {
			capture.code = resp.StatusCode
			capture.status = resp.Status
		}
	}
	return resp, err
}
