package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"wikibot/internal/archive"
	"wikibot/internal/logging"
	"wikibot/internal/mediawiki"
	"wikibot/internal/replica"
	"wikibot/internal/taskrun"
)

// RankFunc runs the revision ranking query.
type RankFunc func(ctx context.Context, q replica.Query) ([]replica.PageCount, error)

// HighRevs publishes the list of pages with the most revisions.
type HighRevs struct {
	Store        mediawiki.Store
	Rank         RankFunc
	Query        replica.Query
	ReportPage   string
	Summary      string
	EditAttempts int
	// Archive, when set, keeps each report under the run id.
	Archive  archive.Store
	Location *time.Location
	Now      func() time.Time
}

// RenderReport formats pages as a sortable wikitable headed by the update
// time.
func RenderReport(pages []replica.PageCount, q replica.Query, updated time.Time) string {
	var b strings.Builder
	b.WriteString("最終更新: ")
	b.WriteString(jaTimestamp(updated))
	b.WriteString("\n\n")
	if len(pages) >= q.Limit {
		fmt.Fprintf(&b, "版数%d以上のページは%d件以上ありました。\n", q.MinRevisions, q.Limit)
	}
	if len(pages) == 0 {
		fmt.Fprintf(&b, "版数%d以上のページはありませんでした。", q.MinRevisions)
		return b.String()
	}
	b.WriteString("{| class=\"wikitable sortable\"\n|-\n! ページID !! ページ名 !! 版数\n")
	for _, p := range pages {
		fmt.Fprintf(&b, "|-\n| %d || [[%s]] || %d\n", p.ID, replica.FullTitle(p.Namespace, p.Title), p.Count)
	}
	b.WriteString("|}\n")
	return b.String()
}

// jaTimestamp renders t like the ja-JP locale: 2025/1/2 3:04:05.
func jaTimestamp(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d %d:%02d:%02d", t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
}

func (h *HighRevs) Run(ctx context.Context, inv taskrun.Invocation) (string, error) {
	log := inv.Log
	started := time.Now()
	pages, err := h.Rank(ctx, h.Query)
	if err != nil {
		return "", fmt.Errorf("rank pages: %w", err)
	}
	log.Info("ranked pages", zap.Int("pages", len(pages)), zap.Duration("took", time.Since(started)))

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	loc := h.Location
	if loc == nil {
		loc = time.UTC
	}
	report := RenderReport(pages, h.Query, now().In(loc))

	res, err := mediawiki.Edit(ctx, h.Store, h.ReportPage, func(string) (string, error) {
		return report, nil
	}, mediawiki.EditOptions{
		Summary:       h.Summary,
		CreateMissing: true,
		MaxAttempts:   h.EditAttempts,
	})
	if err != nil {
		return "", fmt.Errorf("save %s: %w", h.ReportPage, err)
	}
	log.Info("report saved", zap.String("title", h.ReportPage),
		zap.String("outcome", string(res.Outcome)), zap.Int("pages", len(pages)), logging.Public())

	if h.Archive != nil {
		if err := h.archive(ctx, inv.ID, report, pages); err != nil {
			log.Warn("archiving report failed", zap.Error(err))
		}
	}
	return fmt.Sprintf("%d pages", len(pages)), nil
}

func (h *HighRevs) archive(ctx context.Context, runID, report string, pages []replica.PageCount) error {
	if err := h.Archive.Put(ctx, runID, "highrevs.wiki", []byte(report)); err != nil {
		return err
	}
	rows, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		return err
	}
	return h.Archive.Put(ctx, runID, "highrevs.json", rows)
}
