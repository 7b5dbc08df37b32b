package mediawiki

import (
	"context"

	"go.uber.org/zap"

	"wikibot/internal/textdiff"
)

// DryRun reads through to a real Store but only logs the writes it would
// make, as line diffs against the current text.
type DryRun struct {
	Store Store
	Log   *zap.Logger
}

var _ Store = (*DryRun)(nil)

func (d *DryRun) Read(ctx context.Context, title string) (Page, error) {
	return d.Store.Read(ctx, title)
}

func (d *DryRun) Create(ctx context.Context, title, text, summary string) (EditResult, error) {
	return d.Save(ctx, SaveRequest{Title: title, Text: text, Summary: summary, CreateOnly: true})
}

func (d *DryRun) Save(ctx context.Context, req SaveRequest) (EditResult, error) {
	cur, err := d.Store.Read(ctx, req.Title)
	if err != nil {
		return EditResult{Outcome: OutcomeFailure}, err
	}
	if req.CreateOnly && cur.Exists {
		return EditResult{Outcome: OutcomeConflict}, ErrExists
	}
	if cur.Exists && cur.Text == req.Text {
		return EditResult{Outcome: OutcomeNoChange}, nil
	}
	added, removed := textdiff.Stats(textdiff.Lines(cur.Text, req.Text))
	d.logger().Info("dry run: edit not submitted",
		zap.String("title", req.Title),
		zap.String("summary", req.Summary),
		zap.Int("added", added),
		zap.Int("removed", removed),
		zap.String("diff", textdiff.Unified(cur.Text, req.Text, 2)))
	return EditResult{Outcome: OutcomeSuccess}, nil
}

func (d *DryRun) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}
