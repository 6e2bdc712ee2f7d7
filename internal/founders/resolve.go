// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package founders turns agent research sessions into founder lists. It
// resolves each company through one session and fans out concurrently over
// the input list; extraction of the tagged payloads sits in between.
package founders

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/founder-finder/internal/agent"
	"github.com/pdiddy/founder-finder/pkg/types"
)

// Cache persists resolved founder lists between runs. Only non-empty lists
// are stored; an empty research result is retried on the next run.
type Cache interface {
	Get(company string) (*types.CachedResult, error)
	Put(res types.CachedResult) error
}

// Options carries the per-run knobs for resolution.
type Options struct {
	// LogsDir receives one conversation log per company. Empty disables
	// transcripts.
	LogsDir string
	// RunID tags transcripts and cache rows for this invocation.
	RunID string
	// Cache serves hits before any agent run and stores new results. Nil
	// disables caching.
	Cache Cache
	// Refresh skips cache reads, forcing fresh research.
	Refresh bool
}

// Summary counts the outcomes of a batch run.
type Summary struct {
	WithFounders int
	Empty        int
	Cached       int
}

// Total returns the number of companies processed.
func (s Summary) Total() int {
	return s.WithFounders + s.Empty
}

// Resolve researches one company and returns its founders. It never fails:
// a session or transport error is reported as a warning on w and mapped to
// an empty list. A session that merely runs out of turns is not an error;
// whatever text arrived still goes through extraction.
func Resolve(ctx context.Context, a agent.Agent, company types.Company, cfg types.Config, opts Options, w io.Writer) types.FounderList {
	tr := openTranscript(company, cfg, opts, w)
	defer func() {
		if err := tr.Close(); err != nil {
			fmt.Fprintf(w, "warning: %s: transcript: %v\n", company.Name, err)
		}
	}()

	if prompt, err := agent.RenderPrompt(company); err == nil {
		tr.Prompt(prompt)
	}

	stream, err := a.Research(ctx, company, cfg)
	if err != nil {
		fmt.Fprintf(w, "warning: %s: starting research: %v\n", company.Name, err)
		tr.Fail(err)
		return types.FounderList{}
	}
	defer stream.Close()

	var text strings.Builder
	for {
		ev, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(w, "warning: %s: research failed: %v\n", company.Name, err)
			tr.Fail(err)
			return types.FounderList{}
		}
		tr.Event(ev)
		if chunk, ok := ev.(agent.TextChunk); ok {
			text.WriteString(chunk.Text)
		}
	}

	list, src := Extract(text.String())
	tr.Outcome(list, src)
	return list
}

// openTranscript opens the company's conversation log when logging is
// enabled. Failure to open is a warning, not a resolution failure.
func openTranscript(company types.Company, cfg types.Config, opts Options, w io.Writer) *Transcript {
	if opts.LogsDir == "" {
		return nil
	}
	tr, err := NewTranscript(opts.LogsDir, company, cfg, opts.RunID)
	if err != nil {
		fmt.Fprintf(w, "warning: %s: %v\n", company.Name, err)
		return nil
	}
	return tr
}

// ResolveAll researches every company concurrently and aggregates the
// results. One goroutine per company; outcomes are collected over a channel
// behind a WaitGroup barrier and the map is only touched in the collection
// loop. The returned map has exactly one entry per input company.
//
// Cache reads happen before launch and cache writes after collection, both
// single-threaded.
func ResolveAll(ctx context.Context, a agent.Agent, companies []types.Company, cfg types.Config, opts Options, w io.Writer) (types.ResultMap, Summary) {
	sw := &syncWriter{w: w}
	results := make(types.ResultMap, len(companies))
	var summary Summary

	type outcome struct {
		index int
		name  string
		list  types.FounderList
	}

	total := len(companies)
	pending := make([]int, 0, total)
	for i, c := range companies {
		if list := cacheLookup(opts, c.Name, sw); list != nil {
			results[c.Name] = list
			summary.WithFounders++
			summary.Cached++
			fmt.Fprintf(sw, "[%d/%d] %s: cached (%d founders)\n", i+1, total, c.Name, len(list))
			continue
		}
		pending = append(pending, i)
	}

	ch := make(chan outcome, len(pending))
	var wg sync.WaitGroup

	for _, i := range pending {
		c := companies[i]
		fmt.Fprintf(sw, "[%d/%d] researching: %s\n", i+1, total, c.Name)
		wg.Add(1)
		go func(i int, c types.Company) {
			defer wg.Done()
			list := Resolve(ctx, a, c, cfg, opts, sw)
			ch <- outcome{index: i, name: c.Name, list: list}
		}(i, c)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	for out := range ch {
		results[out.name] = out.list
		if len(out.list) == 0 {
			summary.Empty++
			fmt.Fprintf(sw, "[%d/%d] %s: no founders found\n", out.index+1, total, out.name)
			continue
		}
		summary.WithFounders++
		fmt.Fprintf(sw, "[%d/%d] %s: %d founders\n", out.index+1, total, out.name, len(out.list))
		cacheStore(opts, out.name, out.list, cfg, sw)
	}

	return results, summary
}

// cacheLookup returns the cached list for name, or nil on a miss, disabled
// cache, refresh, or read error. Empty cached lists are treated as misses.
func cacheLookup(opts Options, name string, w io.Writer) types.FounderList {
	if opts.Cache == nil || opts.Refresh {
		return nil
	}
	res, err := opts.Cache.Get(name)
	if err != nil {
		fmt.Fprintf(w, "warning: %s: cache read: %v\n", name, err)
		return nil
	}
	if res == nil || len(res.Founders) == 0 {
		return nil
	}
	return res.Founders
}

// cacheStore persists a non-empty result. Write errors are warnings.
func cacheStore(opts Options, name string, list types.FounderList, cfg types.Config, w io.Writer) {
	if opts.Cache == nil {
		return
	}
	err := opts.Cache.Put(types.CachedResult{
		Company:    name,
		Founders:   list,
		Model:      cfg.Model,
		RunID:      opts.RunID,
		ResolvedAt: time.Now().UTC(),
	})
	if err != nil {
		fmt.Fprintf(w, "warning: %s: cache write: %v\n", name, err)
	}
}

// syncWriter serializes progress and warning lines coming from concurrent
// resolution tasks.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (sw *syncWriter) Write(p []byte) (n int, err error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.w.Write(p)
}
