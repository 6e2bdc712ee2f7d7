// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/founder-finder/internal/httputil"
	"github.com/pdiddy/founder-finder/pkg/types"
)

// anthropicAPIBase is the Messages API base URL. Package-level var for test
// substitution.
var anthropicAPIBase = "https://api.anthropic.com/v1"

const (
	anthropicVersion = "2023-06-01"

	// web_fetch is still gated behind a beta flag.
	anthropicBeta = "web-fetch-2025-09-10"
)

// errStreamClosed signals that the consumer closed the stream while the
// session was still producing events.
var errStreamClosed = errors.New("stream closed by consumer")

// AnthropicAgent drives a research session over the Anthropic Messages API
// with the server-side web_search and web_fetch tools. One conversational
// turn is one streaming API call; the session continues while the model
// pauses its turn and the turn budget allows.
type AnthropicAgent struct {
	Client *http.Client
}

// NewAnthropicAgent returns an agent using client, or http.DefaultClient
// when client is nil.
func NewAnthropicAgent(client *http.Client) *AnthropicAgent {
	if client == nil {
		client = http.DefaultClient
	}
	return &AnthropicAgent{Client: client}
}

// anthropicRequest is the request body for the Messages API.
type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	Tools     []anthropicTool    `json:"tools,omitempty"`
	Stream    bool               `json:"stream,omitempty"`
}

// anthropicMessage is one conversation message. Content is a string for user
// prompts and []anthropicBlock when handing assistant output back to resume
// a paused turn.
type anthropicMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// anthropicTool declares a server-side tool by versioned type and name.
type anthropicTool struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// anthropicBlock is a content block of an assistant message.
type anthropicBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
}

// sseEvent is one decoded frame of the Messages streaming protocol.
type sseEvent struct {
	Type         string          `json:"type"`
	Index        int             `json:"index"`
	ContentBlock *anthropicBlock `json:"content_block,omitempty"`
	Delta        *struct {
		Type        string `json:"type"`
		Text        string `json:"text,omitempty"`
		PartialJSON string `json:"partial_json,omitempty"`
		StopReason  string `json:"stop_reason,omitempty"`
	} `json:"delta,omitempty"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// blockState accumulates one content block across its start/delta/stop frames.
type blockState struct {
	block anthropicBlock
	text  strings.Builder
	input strings.Builder
}

// finalize folds the accumulated deltas into the block.
func (b *blockState) finalize() anthropicBlock {
	blk := b.block
	if b.text.Len() > 0 {
		blk.Text += b.text.String()
	}
	if b.input.Len() > 0 {
		blk.Input = json.RawMessage(b.input.String())
	}
	return blk
}

// Research starts one research session for company. The returned Stream ends
// when the model concludes its answer or the turn budget runs out.
func (a *AnthropicAgent) Research(ctx context.Context, company types.Company, cfg types.Config) (Stream, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key not set")
	}
	prompt, err := RenderPrompt(company)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	s := newEventStream()
	go a.run(ctx, s, prompt, cfg)
	return s, nil
}

// run drives the session loop. Each iteration is one conversational turn;
// on pause_turn the assistant content is handed back so the next call
// resumes where the model stopped. Exhausting the budget ends the stream
// normally, leaving whatever progress payloads were emitted.
func (a *AnthropicAgent) run(ctx context.Context, s *eventStream, prompt string, cfg types.Config) {
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = types.DefaultMaxTurns
	}

	messages := []anthropicMessage{{Role: "user", Content: prompt}}

	for turn := 0; turn < maxTurns; turn++ {
		blocks, stopReason, err := a.streamTurn(ctx, s, messages, cfg)
		if errors.Is(err, errStreamClosed) {
			s.finish(nil)
			return
		}
		if err != nil {
			s.finish(fmt.Errorf("agent turn %d: %w", turn+1, err))
			return
		}

		if stopReason != "pause_turn" {
			break
		}
		messages = append(messages, anthropicMessage{Role: "assistant", Content: blocks})
	}
	s.finish(nil)
}

// streamTurn issues one streaming Messages call, emits stream events as the
// frames arrive, and returns the assistant content blocks plus stop reason.
func (a *AnthropicAgent) streamTurn(ctx context.Context, s *eventStream, messages []anthropicMessage, cfg types.Config) ([]anthropicBlock, string, error) {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = types.DefaultMaxTokens
	}

	reqBody := anthropicRequest{
		Model:     cfg.Model,
		MaxTokens: maxTokens,
		System:    systemPrompt,
		Messages:  messages,
		Tools: []anthropicTool{
			{Type: "web_search_20250305", Name: "web_search"},
			{Type: "web_fetch_20250910", Name: "web_fetch"},
		},
		Stream: true,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicAPIBase+"/messages", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("anthropic-beta", anthropicBeta)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("calling messages API: %w", err)
	}
	defer httputil.DrainClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, "", httputil.ErrorFromResponse(resp)
	}

	var (
		blocks     []anthropicBlock
		cur        *blockState
		stopReason string
	)

	sc := httputil.NewSSEScanner(resp.Body)
	for {
		data, err := sc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", err
		}

		var evt sseEvent
		if err := json.Unmarshal([]byte(data), &evt); err != nil {
			continue
		}

		switch evt.Type {
		case "error":
			if evt.Error != nil {
				return nil, "", fmt.Errorf("stream error (%s): %s", evt.Error.Type, evt.Error.Message)
			}
			return nil, "", fmt.Errorf("stream error")

		case "content_block_start":
			if evt.ContentBlock != nil {
				cur = &blockState{block: *evt.ContentBlock}
			}

		case "content_block_delta":
			if cur == nil || evt.Delta == nil {
				continue
			}
			switch evt.Delta.Type {
			case "text_delta":
				cur.text.WriteString(evt.Delta.Text)
				if !s.emit(TextChunk{Text: evt.Delta.Text}) {
					return nil, "", errStreamClosed
				}
			case "input_json_delta":
				cur.input.WriteString(evt.Delta.PartialJSON)
			}

		case "content_block_stop":
			if cur == nil {
				continue
			}
			blk := cur.finalize()
			cur = nil
			blocks = append(blocks, blk)

			switch blk.Type {
			case "server_tool_use", "tool_use":
				if !s.emit(ToolCall{ID: blk.ID, Name: blk.Name, Input: decodeToolInput(blk.Input)}) {
					return nil, "", errStreamClosed
				}
			case "web_search_tool_result", "web_fetch_tool_result":
				if !s.emit(ToolResult{ID: blk.ToolUseID, Content: string(blk.Content)}) {
					return nil, "", errStreamClosed
				}
			}

		case "message_delta":
			if evt.Delta != nil && evt.Delta.StopReason != "" {
				stopReason = evt.Delta.StopReason
			}
		}
	}

	return blocks, stopReason, nil
}

// decodeToolInput parses a tool input document into a map for the ToolCall
// event. Unparseable or empty input yields nil.
func decodeToolInput(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
