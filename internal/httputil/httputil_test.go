// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFromResponse_APIEnvelope(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`)
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	got := ErrorFromResponse(resp)
	require.Error(t, got)
	assert.Contains(t, got.Error(), "429")
	assert.Contains(t, got.Error(), "rate_limit_error")
	assert.Contains(t, got.Error(), "slow down")
}

func TestErrorFromResponse_PlainBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "upstream exploded\n")
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	got := ErrorFromResponse(resp)
	require.Error(t, got)
	assert.Contains(t, got.Error(), "502")
	assert.Contains(t, got.Error(), "upstream exploded")
}

func TestSSEScanner_DataFrames(t *testing.T) {
	stream := strings.Join([]string{
		"event: message_start",
		`data: {"type":"message_start"}`,
		"",
		": keep-alive comment",
		`data: {"type":"content_block_delta"}`,
		"",
		"data: [DONE]",
		`data: {"type":"never_reached"}`,
	}, "\n")

	sc := NewSSEScanner(strings.NewReader(stream))

	first, err := sc.Next()
	require.NoError(t, err)
	assert.Equal(t, `{"type":"message_start"}`, first)

	second, err := sc.Next()
	require.NoError(t, err)
	assert.Equal(t, `{"type":"content_block_delta"}`, second)

	_, err = sc.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSSEScanner_EOFWithoutDone(t *testing.T) {
	sc := NewSSEScanner(strings.NewReader("data: {\"a\":1}\n"))

	_, err := sc.Next()
	require.NoError(t, err)

	_, err = sc.Next()
	assert.ErrorIs(t, err, io.EOF)

	// Subsequent calls stay at EOF.
	_, err = sc.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSSEScanner_LargeFrame(t *testing.T) {
	big := strings.Repeat("x", 256*1024)
	sc := NewSSEScanner(strings.NewReader("data: " + big + "\n"))

	got, err := sc.Next()
	require.NoError(t, err)
	assert.Len(t, got, len(big))
}
