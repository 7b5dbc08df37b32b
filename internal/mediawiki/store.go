package mediawiki

import (
	"context"
	"errors"
	"fmt"
)

// Reader reads the latest revision of a page.
type Reader interface {
	Read(ctx context.Context, title string) (Page, error)
}

// Writer submits edits.
type Writer interface {
	Create(ctx context.Context, title, text, summary string) (EditResult, error)
	Save(ctx context.Context, req SaveRequest) (EditResult, error)
}

// Store is the document store used by the tasks.
type Store interface {
	Reader
	Writer
}

var _ Store = (*Client)(nil)

// Transform computes new page text from the current text. It must be pure:
// Edit may call it more than once with refreshed text.
type Transform func(current string) (string, error)

// EditOptions controls Edit.
type EditOptions struct {
	Summary string
	Minor   bool
	Bot     bool
	// CreateMissing lets Edit create the page; otherwise a missing page
	// fails with ErrMissing before the transform runs.
	CreateMissing bool
	// MaxAttempts bounds read-transform-save rounds on edit conflicts.
	MaxAttempts int
}

// Edit runs read -> transform -> save, re-reading and re-applying the
// transform when the save reports an edit conflict. A transform returning
// ErrSkipEdit, or producing unchanged text, ends with OutcomeNoChange and
// no write.
func Edit(ctx context.Context, s Store, title string, fn Transform, opts EditOptions) (EditResult, error) {
	attempts := opts.MaxAttempts
	if attempts < 1 {
		attempts = 3
	}
	var last error
	for i := 1; i <= attempts; i++ {
		page, err := s.Read(ctx, title)
		if err != nil {
			return EditResult{Outcome: OutcomeFailure, Attempts: i}, err
		}
		if !page.Exists && !opts.CreateMissing {
			return EditResult{Outcome: OutcomeFailure, Attempts: i}, fmt.Errorf("%w: %s", ErrMissing, title)
		}
		next, err := fn(page.Text)
		if errors.Is(err, ErrSkipEdit) {
			return EditResult{Outcome: OutcomeNoChange, Attempts: i}, nil
		}
		if err != nil {
			return EditResult{Outcome: OutcomeFailure, Attempts: i}, fmt.Errorf("transform %q: %w", title, err)
		}
		if page.Exists && next == page.Text {
			return EditResult{Outcome: OutcomeNoChange, Attempts: i}, nil
		}
		res, err := s.Save(ctx, SaveRequest{
			Title:          title,
			Text:           next,
			Summary:        opts.Summary,
			Minor:          opts.Minor,
			Bot:            opts.Bot,
			NoCreate:       page.Exists,
			CreateOnly:     !page.Exists,
			BaseTimestamp:  page.Timestamp,
			StartTimestamp: page.StartTimestamp,
		})
		res.Attempts = i
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, ErrConflict) && !errors.Is(err, ErrExists) {
			return res, err
		}
		last = err
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
	}
	return EditResult{Outcome: OutcomeConflict, Attempts: attempts}, last
}
