package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"wikibot/internal/logging"
	"wikibot/internal/mediawiki"
	"wikibot/internal/taskrun"
	"wikibot/internal/wikitext"
)

// summaryCountCap is the largest revision count spelled out in a reset
// summary.
const summaryCountCap = 5000

// Sandbox is one page the bot keeps clean.
type Sandbox struct {
	Title    string
	Template string
	// Section is the level-2 noticeboard section that collects history
	// archival requests for this sandbox.
	Section   string
	SkipReset bool
}

// RevisionCounter counts live and deleted revisions of a page.
type RevisionCounter interface {
	RevisionCount(ctx context.Context, title string) (int, error)
	DeletedRevisionCount(ctx context.Context, title string) (int, error)
}

// ArchiveRequest asks administrators to move a sandbox's history away.
type ArchiveRequest struct {
	Title     string
	Section   string
	Revisions int
}

func (r ArchiveRequest) heading() string { return r.Title + "の貝塚送り" }

func (r ArchiveRequest) block() string {
	return wikitext.Heading(r.heading(), 3) + "\n" +
		fmt.Sprintf("* {{Page|%s}} (%d版)の貝塚送りをお願い致します。--~~~~\n", r.Title, r.Revisions)
}

// NoticeboardTransform adds one request subsection per sandbox. A request
// goes at the end of its level-2 section, which is created at the end of
// the page if needed; a request whose subsection already exists under that
// section is skipped.
func NoticeboardTransform(reqs []ArchiveRequest) mediawiki.Transform {
	return func(text string) (string, error) {
		for _, r := range reqs {
			secs := wikitext.ParseSections(text, 3)
			parent, err := wikitext.FindSection(secs, r.Section, 2, wikitext.MatchFirst)
			if errors.Is(err, wikitext.ErrNotFound) {
				text += "\n\n" + wikitext.Heading(r.Section, 2) + "\n" + r.block()
				continue
			}
			if err != nil {
				return "", err
			}
			if _, err := wikitext.FindSection(wikitext.Children(secs, parent.Index), r.heading(), 3, wikitext.MatchFirst); err == nil {
				continue
			}
			add := r.block()
			if !strings.HasSuffix(parent.Text(text), "\n") {
				add = "\n" + add
			}
			text, err = wikitext.AppendToSection(text, parent, add)
			if err != nil {
				return "", err
			}
		}
		return text, nil
	}
}

// ResetSummary is the edit summary of a sandbox reset.
func ResetSummary(total int) string {
	count := fmt.Sprint(total)
	if total >= summaryCountCap {
		count = fmt.Sprintf("%d以上", summaryCountCap)
	}
	return fmt.Sprintf("Bot： 砂場ならし（削除済みを含めた版数: %s）", count)
}

// SandboxClean resets sandboxes and, for those whose history has grown too
// long to reset safely, files archival requests on a noticeboard.
type SandboxClean struct {
	Store        mediawiki.Store
	Counter      RevisionCounter
	Sandboxes    []Sandbox
	RevLimit     int
	Noticeboard  string
	EditAttempts int
}

func (s *SandboxClean) count(ctx context.Context, title string) (int, error) {
	var live, deleted int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.Counter.RevisionCount(gctx, title)
		live = n
		return err
	})
	g.Go(func() error {
		n, err := s.Counter.DeletedRevisionCount(gctx, title)
		deleted = n
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("count revisions of %s: %w", title, err)
	}
	return live + deleted, nil
}

func (s *SandboxClean) Run(ctx context.Context, inv taskrun.Invocation) (string, error) {
	log := inv.Log
	var (
		reqs   []ArchiveRequest
		failed []error
		reset  int
	)
	for _, sb := range s.Sandboxes {
		total, err := s.count(ctx, sb.Title)
		if err != nil {
			log.Error("revision count failed", zap.String("title", sb.Title), zap.Error(err), logging.Public())
			return "", err
		}
		log.Debug("revision count", zap.String("title", sb.Title), zap.Int("total", total))

		if total >= s.RevLimit {
			log.Info("history too long, requesting archival",
				zap.String("title", sb.Title), zap.Int("total", total), zap.Int("limit", s.RevLimit), logging.Public())
			reqs = append(reqs, ArchiveRequest{Title: sb.Title, Section: sb.Section, Revisions: total})
			continue
		}
		if sb.SkipReset {
			continue
		}

		res, err := s.Store.Save(ctx, mediawiki.SaveRequest{
			Title:   sb.Title,
			Text:    "{{subst:" + sb.Template + "}}",
			Summary: ResetSummary(total),
			Minor:   true,
			Bot:     true,
		})
		switch {
		case err != nil:
			log.Error("sandbox reset failed", zap.String("title", sb.Title), zap.Int("total", total), zap.Error(err), logging.Public())
			failed = append(failed, fmt.Errorf("reset %s: %w", sb.Title, err))
		case res.Outcome == mediawiki.OutcomeNoChange:
			log.Info("sandbox already clean", zap.String("title", sb.Title), zap.Int("total", total), logging.Public())
		default:
			reset++
			log.Info("sandbox reset", zap.String("title", sb.Title), zap.Int("total", total), logging.Public())
		}
	}

	if len(reqs) > 0 {
		res, err := mediawiki.Edit(ctx, s.Store, s.Noticeboard, NoticeboardTransform(reqs), mediawiki.EditOptions{
			Summary:     fmt.Sprintf("Bot： サンドボックスの初期化依頼（%d件）", len(reqs)),
			MaxAttempts: s.EditAttempts,
		})
		if err != nil {
			log.Error("filing archival requests failed", zap.Error(err), logging.Public())
			failed = append(failed, fmt.Errorf("noticeboard %s: %w", s.Noticeboard, err))
		} else {
			log.Info("archival requests filed", zap.Int("requests", len(reqs)),
				zap.String("outcome", string(res.Outcome)), logging.Public())
		}
	}
	return fmt.Sprintf("%d reset, %d archival requests", reset, len(reqs)), errors.Join(failed...)
}
