// Package tasks holds the scheduled bot jobs. Page text is always computed
// by pure functions from the wikitext package; the jobs only fetch, log
// and submit.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"wikibot/internal/logging"
	"wikibot/internal/mediawiki"
	"wikibot/internal/taskrun"
)

// PageMake creates tomorrow's dated discussion page from a template page.
type PageMake struct {
	Store        mediawiki.Store
	TemplatePage string
	TitleBase    string
	Summary      string
	Location     *time.Location
	Now          func() time.Time
}

// DatedTitle is base + "/<Y>年/<M>月<D>日" for day.
func DatedTitle(base string, day time.Time) string {
	return fmt.Sprintf("%s/%d年/%d月%d日", base, day.Year(), int(day.Month()), day.Day())
}

// FillPlaceholders substitutes {year}, {month}, {day} and {page_name}.
func FillPlaceholders(tmpl string, day time.Time, title string) string {
	return strings.NewReplacer(
		"{year}", strconv.Itoa(day.Year()),
		"{month}", strconv.Itoa(int(day.Month())),
		"{day}", strconv.Itoa(day.Day()),
		"{page_name}", title,
	).Replace(tmpl)
}

// Target returns the day the next page is for: tomorrow in p.Location.
func (p *PageMake) Target() time.Time {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc).AddDate(0, 0, 1)
}

// Run creates the page unless it already exists. The existence check and
// the create are separate requests; a page created in between is reported
// by the API as ErrExists, which is logged and treated as done.
func (p *PageMake) Run(ctx context.Context, inv taskrun.Invocation) (string, error) {
	log := inv.Log
	day := p.Target()
	title := DatedTitle(p.TitleBase, day)

	cur, err := p.Store.Read(ctx, title)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", title, err)
	}
	if cur.Exists {
		log.Info("page already exists", zap.String("title", title), logging.Public())
		return "exists: " + title, nil
	}

	tmpl, err := p.Store.Read(ctx, p.TemplatePage)
	if err != nil {
		return "", fmt.Errorf("read template %s: %w", p.TemplatePage, err)
	}
	if !tmpl.Exists || tmpl.Text == "" {
		log.Error("template page is missing or empty", zap.String("title", p.TemplatePage), logging.Public())
		return "", fmt.Errorf("template %s: %w", p.TemplatePage, mediawiki.ErrMissing)
	}

	text := FillPlaceholders(tmpl.Text, day, title)
	log.Debug("page text", zap.String("title", title), zap.String("text", text))

	res, err := p.Store.Create(ctx, title, text, p.Summary)
	switch {
	case errors.Is(err, mediawiki.ErrExists):
		log.Info("page was created concurrently", zap.String("title", title), logging.Public())
		return "exists: " + title, nil
	case err != nil:
		log.Error("creating page failed", zap.String("title", title), zap.Error(err), logging.Public())
		return "", err
	}
	log.Info("created discussion page", zap.String("title", title),
		zap.Int64("revision", res.RevisionID), logging.Public())
	return "created: " + title, nil
}
