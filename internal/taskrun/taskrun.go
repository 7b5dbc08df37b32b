// Package taskrun wraps a bot task with its run-control check, logging and
// run history, and maps the result to a process exit status.
package taskrun

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wikibot/internal/logging"
	"wikibot/internal/runstore"
	"wikibot/internal/taskgate"
)

// Gate decides whether a task may run.
type Gate interface {
	Check(ctx context.Context, taskID string) error
}

// Recorder stores finished runs.
type Recorder interface {
	Put(ctx context.Context, r runstore.Run) error
}

type Deps struct {
	Gate   Gate
	Runs   Recorder
	Logger *zap.Logger
	Now    func() time.Time
}

// Invocation is what a task body sees of its run.
type Invocation struct {
	ID   string
	Task string
	Log  *zap.Logger
}

// Func is a task body. The returned note is stored with the run.
type Func func(ctx context.Context, inv Invocation) (string, error)

// Task names a task body and the flag that gates it. An empty GateID runs
// unconditionally.
type Task struct {
	Name   string
	GateID string
	Fn     Func
}

// Run checks the gate, runs t.Fn when allowed and records the run. A
// disabled gate returns an error wrapping taskgate.ErrDisabled without
// calling t.Fn.
func Run(ctx context.Context, d Deps, t Task) error {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.NewString()
	log = log.With(zap.String("task", t.Name), zap.String("run_id", id))

	rec := runstore.Run{ID: id, Task: t.Name, Started: now()}
	var (
		note string
		err  error
	)
	if t.GateID != "" && d.Gate != nil {
		err = d.Gate.Check(ctx, t.GateID)
	}
	if err == nil {
		log.Debug("task started", zap.String("gate", t.GateID))
		note, err = t.Fn(ctx, Invocation{ID: id, Task: t.Name, Log: log})
	}
	rec.Finished = now()
	rec.Note = note

	switch {
	case err == nil:
		rec.Outcome = runstore.OutcomeOK
		log.Info("task finished", zap.String("note", note), zap.Duration("took", rec.Duration()))
	case errors.Is(err, taskgate.ErrDisabled):
		rec.Outcome = runstore.OutcomeDisabled
		rec.Error = err.Error()
		log.Info("task is switched off", zap.Error(err))
	default:
		rec.Outcome = runstore.OutcomeFailed
		rec.Error = err.Error()
		log.Error("task failed", zap.Error(err), logging.Public())
	}

	if d.Runs != nil {
		// The run's own context may already be cancelled.
		if perr := d.Runs.Put(context.WithoutCancel(ctx), rec); perr != nil {
			log.Warn("recording run failed", zap.Error(perr))
		}
	}
	return err
}

// ExitCode is 0 for success and for a disabled task, 1 otherwise.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, taskgate.ErrDisabled) {
		return 0
	}
	return 1
}
