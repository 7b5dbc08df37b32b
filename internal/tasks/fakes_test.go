package tasks

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"wikibot/internal/mediawiki"
	"wikibot/internal/taskrun"
)

type wiki struct {
	mu      sync.Mutex
	pages   map[string]string
	saves   []mediawiki.SaveRequest
	readErr error
	saveErr map[string]error
}

func newWiki(pages map[string]string) *wiki {
	if pages == nil {
		pages = map[string]string{}
	}
	return &wiki{pages: pages, saveErr: map[string]error{}}
}

func (w *wiki) Read(_ context.Context, title string) (mediawiki.Page, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.readErr != nil {
		return mediawiki.Page{}, w.readErr
	}
	text, ok := w.pages[title]
	return mediawiki.Page{Title: title, Exists: ok, Text: text}, nil
}

func (w *wiki) Create(ctx context.Context, title, text, summary string) (mediawiki.EditResult, error) {
	return w.Save(ctx, mediawiki.SaveRequest{Title: title, Text: text, Summary: summary, CreateOnly: true})
}

func (w *wiki) Save(_ context.Context, req mediawiki.SaveRequest) (mediawiki.EditResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.saveErr[req.Title]; err != nil {
		return mediawiki.EditResult{Outcome: mediawiki.OutcomeFailure}, err
	}
	cur, exists := w.pages[req.Title]
	if req.CreateOnly && exists {
		return mediawiki.EditResult{Outcome: mediawiki.OutcomeConflict}, mediawiki.ErrExists
	}
	if req.NoCreate && !exists {
		return mediawiki.EditResult{Outcome: mediawiki.OutcomeFailure}, mediawiki.ErrMissing
	}
	if exists && cur == req.Text {
		return mediawiki.EditResult{Outcome: mediawiki.OutcomeNoChange}, nil
	}
	w.saves = append(w.saves, req)
	w.pages[req.Title] = req.Text
	return mediawiki.EditResult{Outcome: mediawiki.OutcomeSuccess, RevisionID: int64(len(w.saves))}, nil
}

type counter struct {
	live, deleted map[string]int
	err           error
}

func (c counter) RevisionCount(_ context.Context, title string) (int, error) {
	return c.live[title], c.err
}

func (c counter) DeletedRevisionCount(_ context.Context, title string) (int, error) {
	if c.err != nil {
		return 0, fmt.Errorf("deleted: %w", c.err)
	}
	return c.deleted[title], nil
}

func observed() (taskrun.Invocation, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return taskrun.Invocation{ID: "run-1", Task: "test", Log: zap.New(core)}, logs
}
