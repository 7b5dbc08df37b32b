package mediawiki

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Outcome summarizes a write.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeNoChange Outcome = "nochange"
	OutcomeConflict Outcome = "conflict"
	OutcomeFailure  Outcome = "failure"
)

// SaveRequest is a single edit submission.
type SaveRequest struct {
	Title   string
	Text    string
	Summary string
	Minor   bool
	Bot     bool
	// CreateOnly fails with ErrExists if the page exists.
	CreateOnly bool
	// NoCreate fails with ErrMissing if the page does not exist.
	NoCreate bool
	// BaseTimestamp and StartTimestamp enable server-side conflict detection.
	BaseTimestamp  time.Time
	StartTimestamp time.Time
}

type EditResult struct {
	Outcome    Outcome
	RevisionID int64
	Attempts   int
}

// Save submits one edit. An edit conflict is reported as ErrConflict with
// OutcomeConflict; callers wanting a retry use Edit.
func (c *Client) Save(ctx context.Context, req SaveRequest) (EditResult, error) {
	if err := c.writes.Acquire(ctx); err != nil {
		return EditResult{Outcome: OutcomeFailure}, err
	}
	res, err := c.save(ctx, req, false)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == "badtoken" {
		res, err = c.save(ctx, req, true)
	}
	return res, err
}

func (c *Client) save(ctx context.Context, req SaveRequest, refreshToken bool) (EditResult, error) {
	token, err := c.csrfToken(ctx, refreshToken)
	if err != nil {
		return EditResult{Outcome: OutcomeFailure}, err
	}
	params := url.Values{
		"action":  {"edit"},
		"title":   {req.Title},
		"text":    {req.Text},
		"summary": {req.Summary},
		"token":   {token},
		"assert":  {"user"},
	}
	if req.Minor {
		params.Set("minor", "1")
	} else {
		params.Set("notminor", "1")
	}
	if req.Bot {
		params.Set("bot", "1")
	}
	if req.CreateOnly {
		params.Set("createonly", "1")
	}
	if req.NoCreate {
		params.Set("nocreate", "1")
	}
	if !req.BaseTimestamp.IsZero() {
		params.Set("basetimestamp", req.BaseTimestamp.UTC().Format(time.RFC3339))
	}
	if !req.StartTimestamp.IsZero() {
		params.Set("starttimestamp", req.StartTimestamp.UTC().Format(time.RFC3339))
	}

	var resp struct {
		Edit struct {
			Result   string `json:"result"`
			NewRevID int64  `json:"newrevid"`
			NoChange bool   `json:"nochange"`
		} `json:"edit"`
	}
	err = c.post(ctx, params, &resp)
	var apiErr *APIError
	switch {
	case err == nil:
	case errors.As(err, &apiErr) && apiErr.Code == "editconflict":
		return EditResult{Outcome: OutcomeConflict}, fmt.Errorf("%w: %s", ErrConflict, req.Title)
	case errors.As(err, &apiErr) && apiErr.Code == "articleexists":
		return EditResult{Outcome: OutcomeConflict}, fmt.Errorf("%w: %s", ErrExists, req.Title)
	case errors.As(err, &apiErr) && apiErr.Code == "missingtitle":
		return EditResult{Outcome: OutcomeFailure}, fmt.Errorf("%w: %s", ErrMissing, req.Title)
	default:
		return EditResult{Outcome: OutcomeFailure}, fmt.Errorf("save %q: %w", req.Title, err)
	}
	if resp.Edit.Result != "Success" {
		return EditResult{Outcome: OutcomeFailure}, fmt.Errorf("save %q: result %q", req.Title, resp.Edit.Result)
	}
	if resp.Edit.NoChange {
		return EditResult{Outcome: OutcomeNoChange}, nil
	}
	c.log.Info("page saved", zap.String("title", req.Title), zap.Int64("revid", resp.Edit.NewRevID))
	return EditResult{Outcome: OutcomeSuccess, RevisionID: resp.Edit.NewRevID}, nil
}

// Create makes a new page and never overwrites an existing one.
func (c *Client) Create(ctx context.Context, title, text, summary string) (EditResult, error) {
	return c.Save(ctx, SaveRequest{Title: title, Text: text, Summary: summary, CreateOnly: true})
}
