package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"wikibot/internal/archive"
	"wikibot/internal/replica"
	"wikibot/internal/tasks"
	"wikibot/internal/taskrun"
)

var (
	highRevsMin   int
	highRevsLimit int
	runsLimit     int
)

var pageMakeCmd = &cobra.Command{
	Use:   "pagemake",
	Short: "Create tomorrow's dated discussion page from its template",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.close()
		pc := a.cfg.Tasks.PageMake
		pm := &tasks.PageMake{
			Store:        a.store,
			TemplatePage: pc.TemplatePage,
			TitleBase:    pc.TitleBase,
			Summary:      pc.Summary,
			Location:     a.cfg.Location(),
		}
		return a.run(cmd.Context(), taskrun.Task{Name: "pagemake", GateID: pc.TaskID, Fn: pm.Run})
	},
}

var highRevsCmd = &cobra.Command{
	Use:   "highrevs",
	Short: "Publish the list of pages with the most revisions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.close()
		hc := a.cfg.Tasks.HighRevs

		q := replica.DefaultQuery()
		q.MinRevisions = firstPositive(highRevsMin, hc.MinRevisions, q.MinRevisions)
		q.Limit = firstPositive(highRevsLimit, hc.Limit, q.Limit)

		h := &tasks.HighRevs{
			Store:        a.store,
			Query:        q,
			ReportPage:   hc.ReportPage,
			Summary:      hc.Summary,
			EditAttempts: a.cfg.Wiki.EditAttempts,
			Archive:      a.archive,
			Location:     a.cfg.Location(),
			Rank: func(ctx context.Context, q replica.Query) ([]replica.PageCount, error) {
				db, err := replica.Open(ctx, a.replicaConfig())
				if err != nil {
					return nil, err
				}
				defer db.Close()
				return replica.HighRevisionPages(ctx, db, q)
			},
		}
		return a.run(cmd.Context(), taskrun.Task{Name: "highrevs", GateID: hc.TaskID, Fn: h.Run})
	},
}

var sandboxCleanCmd = &cobra.Command{
	Use:   "sandbox-clean",
	Short: "Reset sandboxes and request archival of overlong histories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.close()
		sc := a.cfg.Tasks.Sandbox
		boxes := make([]tasks.Sandbox, 0, len(a.cfg.Sandboxes))
		for _, sb := range a.cfg.Sandboxes {
			boxes = append(boxes, tasks.Sandbox{Title: sb.Title, Template: sb.Template, Section: sb.Section, SkipReset: sb.SkipReset})
		}
		s := &tasks.SandboxClean{
			Store:        a.store,
			Counter:      a.client,
			Sandboxes:    boxes,
			RevLimit:     sc.RevLimit,
			Noticeboard:  sc.Noticeboard,
			EditAttempts: a.cfg.Wiki.EditAttempts,
		}
		return a.run(cmd.Context(), taskrun.Task{Name: "sandbox-clean", GateID: sc.TaskID, Fn: s.Run})
	},
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Inspect or tidy the run-control status page",
}

var tasksStatusCmd = &cobra.Command{
	Use:   "status <taskId>",
	Short: "Print a task's run-control flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.close()
		v, err := tasks.TasksStatus(cmd.Context(), a.gate, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], v)
		return nil
	},
}

var tasksCompactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Reduce the status page to its last status block",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.close()
		c := &tasks.TasksCompact{
			Store:        a.store,
			Page:         a.cfg.Tasks.StatusPage,
			Prefix:       a.cfg.Tasks.StatusTemplate,
			EditAttempts: a.cfg.Wiki.EditAttempts,
		}
		return a.run(cmd.Context(), taskrun.Task{Name: "tasks-compact", Fn: c.Run})
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs [task]",
	Short: "Show recent task runs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.close()
		task := ""
		if len(args) == 1 {
			task = args[0]
		}
		runs, err := a.runs.Recent(cmd.Context(), task, runsLimit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tTASK\tOUTCOME\tTOOK\tNOTE")
		for _, r := range runs {
			note := r.Note
			if r.Error != "" {
				note = r.Error
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				r.Started.Local().Format(time.DateTime), r.Task, r.Outcome, r.Duration().Round(time.Millisecond), note)
		}
		return w.Flush()
	},
}

var reportsCmd = &cobra.Command{
	Use:   "reports <run-id> [file]",
	Short: "List or print the report files archived for a run",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.close()
		if a.archive == nil {
			return errors.New("report archive is not configured")
		}
		name := ""
		if len(args) == 2 {
			name = args[1]
		}
		return showReports(cmd.Context(), cmd.OutOrStdout(), a.archive, args[0], name)
	},
}

// showReports prints the named file of a run, or its file list when name is
// empty.
func showReports(ctx context.Context, w io.Writer, store archive.Store, runID, name string) error {
	if name != "" {
		raw, err := store.Get(ctx, runID, name)
		if errors.Is(err, archive.ErrNotFound) {
			return fmt.Errorf("run %s has no report %q", runID, name)
		}
		if err != nil {
			return err
		}
		_, err = w.Write(raw)
		return err
	}
	names, err := store.List(ctx, runID)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("no reports archived for run %s", runID)
	}
	for _, n := range names {
		fmt.Fprintln(w, n)
	}
	return nil
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
