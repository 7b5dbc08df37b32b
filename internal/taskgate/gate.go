// Package taskgate reads the run-control flags that let operators switch
// bot tasks on and off from a wiki page.
//
// The status page carries one or more template blocks with lines of the
// form "| taskId = value". A task runs only when its value is exactly "1".
package taskgate

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"wikibot/internal/mediawiki"
	"wikibot/internal/wikitext"
)

// Enabled is the only flag value that lets a task run.
const Enabled = "1"

var (
	// ErrDisabled means the operator switched the task off. It is a clean
	// stop, not a failure.
	ErrDisabled = errors.New("taskgate: task disabled")
	// ErrFlagUnavailable means the flag could not be read. Tasks must not
	// run in that case.
	ErrFlagUnavailable = errors.New("taskgate: flag unavailable")
	// ErrNothingToCompact is returned by Compact when the page holds fewer
	// than two status blocks.
	ErrNothingToCompact = errors.New("taskgate: nothing to compact")
)

// DisabledError carries the flag value that stopped the task.
type DisabledError struct {
	TaskID string
	Value  string
}

func (e *DisabledError) Error() string {
	return fmt.Sprintf("taskgate: task %s disabled (value %q)", e.TaskID, e.Value)
}

func (e *DisabledError) Unwrap() error { return ErrDisabled }

// ParseFlag extracts the value of "| taskID = value" from text. The key
// match is case-insensitive; the value runs to the end of the line or the
// next pipe and is trimmed.
func ParseFlag(text, taskID string) (string, bool) {
	if strings.TrimSpace(taskID) == "" {
		return "", false
	}
	re := regexp.MustCompile(`(?i)\|\s*` + wikitext.Escape(taskID) + `\s*=\s*([^\n|]+)`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// Gate checks flags on a status page.
type Gate struct {
	Reader mediawiki.Reader
	Page   string
	// Prefix opens a status block, e.g. "{{User:Bot/tasks/template". When
	// the page holds several blocks only the last one is read.
	Prefix string
}

// Block returns the part of text that decides flag values: the last status
// block, or the whole text when no block opens there.
func (g *Gate) Block(text string) (string, error) {
	if g.Prefix == "" {
		return text, nil
	}
	t, err := wikitext.FindTemplate(text, g.Prefix, wikitext.Last)
	switch {
	case errors.Is(err, wikitext.ErrNotFound):
		return text, nil
	case err != nil:
		return "", fmt.Errorf("%w: last status block on %s: %v", ErrFlagUnavailable, g.Page, err)
	}
	return t.Raw(text), nil
}

// Flag returns the raw flag value for taskID.
func (g *Gate) Flag(ctx context.Context, taskID string) (string, error) {
	page, err := g.Reader.Read(ctx, g.Page)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrFlagUnavailable, g.Page, err)
	}
	if !page.Exists {
		return "", fmt.Errorf("%w: %s does not exist", ErrFlagUnavailable, g.Page)
	}
	block, err := g.Block(page.Text)
	if err != nil {
		return "", err
	}
	v, ok := ParseFlag(block, taskID)
	if !ok {
		return "", fmt.Errorf("%w: no entry for %s on %s", ErrFlagUnavailable, taskID, g.Page)
	}
	return v, nil
}

// Check returns nil when taskID may run, a *DisabledError when it is
// switched off, and an error wrapping ErrFlagUnavailable otherwise. It
// never writes.
func (g *Gate) Check(ctx context.Context, taskID string) error {
	v, err := g.Flag(ctx, taskID)
	if err != nil {
		return err
	}
	if v != Enabled {
		return &DisabledError{TaskID: taskID, Value: v}
	}
	return nil
}

// Compact reduces a status page that has accumulated several status
// blocks to its last one. prefix is the opening of the status template,
// e.g. "{{User:Bot/tasks/template".
func Compact(text, prefix string) (string, error) {
	if wikitext.CountPrefix(text, prefix) < 2 {
		return "", ErrNothingToCompact
	}
	t, err := wikitext.FindTemplate(text, prefix, wikitext.Last)
	if err != nil {
		return "", err
	}
	return t.Raw(text), nil
}

// CompactTransform adapts Compact to mediawiki.Edit. A page with nothing
// to compact is left alone.
func CompactTransform(prefix string) mediawiki.Transform {
	return func(current string) (string, error) {
		out, err := Compact(current, prefix)
		if errors.Is(err, ErrNothingToCompact) {
			return "", mediawiki.ErrSkipEdit
		}
		return out, err
	}
}
