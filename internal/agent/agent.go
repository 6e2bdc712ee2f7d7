// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent defines the boundary to the external research agent: the
// request contract and the streamed session events, plus the provider
// drivers that implement them.
package agent

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pdiddy/founder-finder/pkg/types"
)

// Event is one message event from the agent's streamed response. The set of
// kinds is closed: TextChunk, ToolCall, ToolResult. Consumers discriminate
// with a type switch, never by attribute probing.
type Event interface {
	isEvent()
}

// TextChunk is a fragment of assistant text.
type TextChunk struct {
	Text string
}

// ToolCall records the agent invoking one of its research tools.
type ToolCall struct {
	ID    string
	Name  string
	Input map[string]any
}

// ToolResult carries the outcome of a tool invocation back into the stream.
// Content is the raw result payload, kept only for transcripts.
type ToolResult struct {
	ID      string
	Content string
}

func (TextChunk) isEvent()  {}
func (ToolCall) isEvent()   {}
func (ToolResult) isEvent() {}

// Stream is a lazy, finite sequence of events produced by one research
// session. It is not restartable and is consumed exactly once; Next returns
// io.EOF after the last event, or the session's terminal error. Close
// releases the session early and may be called at any time.
type Stream interface {
	Next() (Event, error)
	Close() error
}

// Agent issues one research request for a company and streams back the
// session's events. Implementations make no retries: one request is one
// attempt. A session is bounded by cfg.MaxTurns; running out of turns ends
// the stream normally, it is not an error.
type Agent interface {
	Research(ctx context.Context, company types.Company, cfg types.Config) (Stream, error)
}

// New returns the driver for cfg.Provider. An empty provider selects the
// Anthropic driver.
func New(cfg types.Config) (Agent, error) {
	switch cfg.Provider {
	case types.ProviderAnthropic, "":
		return NewAnthropicAgent(nil), nil
	case types.ProviderGemini:
		return NewGeminiAgent(), nil
	default:
		return nil, fmt.Errorf("unknown agent provider %q", cfg.Provider)
	}
}

// eventStream is the channel-backed Stream the drivers feed from a producer
// goroutine. finish ends the stream with an optional terminal error; emit
// blocks until the consumer takes the event or the stream is closed.
type eventStream struct {
	events chan Event
	done   chan struct{}

	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

func newEventStream() *eventStream {
	return &eventStream{
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}
}

// emit delivers ev to the consumer. It reports false when the stream was
// closed before delivery, which tells the producer to stop.
func (s *eventStream) emit(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// finish terminates the stream. A nil err ends it normally (Next returns
// io.EOF once drained); a non-nil err is returned from Next after the last
// delivered event.
func (s *eventStream) finish(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	close(s.events)
}

func (s *eventStream) Next() (Event, error) {
	ev, ok := <-s.events
	if !ok {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	return ev, nil
}

func (s *eventStream) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}
