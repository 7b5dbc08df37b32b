package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wikibot/internal/taskgate"
	"wikibot/internal/taskrun"
)

var (
	// Global flags
	configPath string
	verbose    bool
	dryRun     bool
)

var rootCmd = &cobra.Command{
	Use:   "wikibot",
	Short: "Scheduled maintenance tasks for a MediaWiki wiki",
	Long: `wikibot runs maintenance jobs against a MediaWiki wiki.

Each job checks its run-control flag on the status page first; a flag other
than "1" stops the job cleanly. With --dry-run, edits are logged as diffs
instead of being saved.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default wikibot.yaml or $WIKIBOT_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "log edits as diffs instead of saving them")

	highRevsCmd.Flags().IntVar(&highRevsMin, "min", 0, "minimum revision count (default from config)")
	highRevsCmd.Flags().IntVar(&highRevsLimit, "limit", 0, "maximum number of pages (default from config)")
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "number of runs to show")

	tasksCmd.AddCommand(tasksStatusCmd)
	tasksCmd.AddCommand(tasksCompactCmd)

	rootCmd.AddCommand(pageMakeCmd)
	rootCmd.AddCommand(highRevsCmd)
	rootCmd.AddCommand(sandboxCleanCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(reportsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	code := taskrun.ExitCode(err)
	switch {
	case errors.Is(err, taskgate.ErrDisabled):
		fmt.Fprintln(os.Stderr, err)
	case code != 0:
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(code)
}
