// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/pdiddy/founder-finder/pkg/types"
)

// GeminiAgent drives a research session through the Gemini API with the
// GoogleSearch built-in tool. The whole answer arrives as one generation and
// is surfaced as a single-event stream; search happens server-side, so no
// tool events are observable.
type GeminiAgent struct{}

// NewGeminiAgent returns the Gemini driver.
func NewGeminiAgent() *GeminiAgent {
	return &GeminiAgent{}
}

// Research starts one research session for company.
func (g *GeminiAgent) Research(ctx context.Context, company types.Company, cfg types.Config) (Stream, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key not set")
	}
	prompt, err := RenderPrompt(company)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	s := newEventStream()
	go func() {
		genCfg := &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{genai.NewPartFromText(systemPrompt)},
			},
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
		}

		resp, err := client.Models.GenerateContent(ctx, cfg.Model, genai.Text(prompt), genCfg)
		if err != nil {
			s.finish(fmt.Errorf("gemini generate: %w", err))
			return
		}

		if text := resp.Text(); text != "" {
			if !s.emit(TextChunk{Text: text}) {
				s.finish(nil)
				return
			}
		}
		s.finish(nil)
	}()
	return s, nil
}
