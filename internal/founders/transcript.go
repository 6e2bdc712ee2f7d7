// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package founders

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/founder-finder/internal/agent"
	"github.com/pdiddy/founder-finder/pkg/types"
)

// maxResultExcerpt caps how much of a tool result payload lands in the log.
const maxResultExcerpt = 512

// Transcript writes one company's research session to a plain-text log as
// the events arrive. A nil Transcript ignores all calls, so callers record
// unconditionally whether or not logging is enabled.
type Transcript struct {
	f   *os.File
	err error
}

// NewTranscript opens <dir>/<name with underscores>_conversation.log and
// writes the session header.
func NewTranscript(dir string, company types.Company, cfg types.Config, runID string) (*Transcript, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating logs directory: %w", err)
	}
	name := strings.ReplaceAll(company.Name, " ", "_") + "_conversation.log"
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating transcript: %w", err)
	}

	t := &Transcript{f: f}
	t.writef("company: %s\n", company.Name)
	if company.URL != "" {
		t.writef("url: %s\n", company.URL)
	}
	t.writef("provider: %s\n", cfg.Provider)
	t.writef("model: %s\n", cfg.Model)
	if runID != "" {
		t.writef("run: %s\n", runID)
	}
	t.writef("started: %s\n\n", time.Now().UTC().Format(time.RFC3339))
	return t, nil
}

// Prompt records the rendered research prompt.
func (t *Transcript) Prompt(prompt string) {
	if t == nil {
		return
	}
	t.writef("prompt:\n%s\n\n", prompt)
}

// Event records one stream event. Text is written verbatim; tool calls get
// a line naming the search query or fetched URL.
func (t *Transcript) Event(ev agent.Event) {
	if t == nil {
		return
	}
	switch e := ev.(type) {
	case agent.TextChunk:
		t.writef("%s", e.Text)
	case agent.ToolCall:
		if q, ok := e.Input["query"].(string); ok && e.Name == "web_search" {
			t.writef("\nsearching: %q\n", q)
		} else if u, ok := e.Input["url"].(string); ok && e.Name == "web_fetch" {
			t.writef("\nfetching: %s\n", u)
		} else {
			t.writef("\ntool: %s\n", e.Name)
		}
	case agent.ToolResult:
		t.writef("tool result: %s\n", excerpt(e.Content, maxResultExcerpt))
	}
}

// Outcome records the extraction result and which payload produced it.
func (t *Transcript) Outcome(list types.FounderList, src Source) {
	if t == nil {
		return
	}
	if src == SourceNone {
		t.writef("\n\nextracted: nothing decodable\n")
		return
	}
	t.writef("\n\nextracted (%s): %d founders %v\n", src, len(list), []string(list))
}

// Fail records a session error.
func (t *Transcript) Fail(err error) {
	if t == nil {
		return
	}
	t.writef("\n\nsession error: %v\n", err)
}

// Close flushes the log. The returned error covers any earlier write
// failure as well.
func (t *Transcript) Close() error {
	if t == nil {
		return nil
	}
	cerr := t.f.Close()
	if t.err != nil {
		return t.err
	}
	return cerr
}

func (t *Transcript) writef(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.f, format, args...)
}

func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
