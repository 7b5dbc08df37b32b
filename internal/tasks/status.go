package tasks

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"wikibot/internal/logging"
	"wikibot/internal/mediawiki"
	"wikibot/internal/taskgate"
	"wikibot/internal/taskrun"
)

// TasksCompact trims the status page to its last status block.
type TasksCompact struct {
	Store        mediawiki.Store
	Page         string
	Prefix       string
	EditAttempts int
}

const compactSummary = "稼働状況更新"

func (c *TasksCompact) Run(ctx context.Context, inv taskrun.Invocation) (string, error) {
	res, err := mediawiki.Edit(ctx, c.Store, c.Page, taskgate.CompactTransform(c.Prefix), mediawiki.EditOptions{
		Summary:     compactSummary,
		MaxAttempts: c.EditAttempts,
	})
	if err != nil {
		return "", fmt.Errorf("compact %s: %w", c.Page, err)
	}
	if res.Outcome == mediawiki.OutcomeNoChange {
		inv.Log.Info("status page needs no compaction", zap.String("title", c.Page))
		return "unchanged", nil
	}
	inv.Log.Info("status page compacted", zap.String("title", c.Page), logging.Public())
	return "compacted", nil
}

// TasksStatus reports a task's flag value without writing anything.
func TasksStatus(ctx context.Context, g *taskgate.Gate, taskID string) (string, error) {
	return g.Flag(ctx, taskID)
}
