// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the agent drivers.
package httputil

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of an error response body is read back into
// an error message.
const maxErrorBody = 8 * 1024

// ErrorFromResponse builds an error from a non-2xx API response. The agent
// APIs return a JSON envelope {"type":"error","error":{"type","message"}};
// when the body is not that shape, the raw body (truncated) is used instead.
// The body is consumed but not closed.
func ErrorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var envelope struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return fmt.Errorf("api error %d (%s): %s", resp.StatusCode, envelope.Error.Type, envelope.Error.Message)
	}
	return fmt.Errorf("api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// DrainClose discards any unread portion of body and closes it, so the
// underlying connection can be reused.
func DrainClose(body io.ReadCloser) {
	io.Copy(io.Discard, body)
	body.Close()
}

// SSEScanner reads server-sent event data frames from a stream. Only data
// fields are surfaced; event names, comments, and blank keep-alive lines are
// skipped.
type SSEScanner struct {
	sc *bufio.Scanner
}

// NewSSEScanner wraps r. The scan buffer starts at 64 KiB and may grow to
// 1 MiB; web tool result frames routinely exceed the bufio default.
func NewSSEScanner(r io.Reader) *SSEScanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &SSEScanner{sc: sc}
}

// Next returns the payload of the next data frame. It returns io.EOF at the
// end of the stream or on the "[DONE]" sentinel.
func (s *SSEScanner) Next() (string, error) {
	for s.sc.Scan() {
		line := s.sc.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return "", io.EOF
		}
		return data, nil
	}
	if err := s.sc.Err(); err != nil {
		return "", fmt.Errorf("reading event stream: %w", err)
	}
	return "", io.EOF
}
