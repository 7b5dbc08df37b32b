package taskrun

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"wikibot/internal/mediawiki"
	"wikibot/internal/runstore"
	"wikibot/internal/taskgate"
)

type statusPage struct {
	text string
	err  error
}

func (s statusPage) Read(context.Context, string) (mediawiki.Page, error) {
	if s.err != nil {
		return mediawiki.Page{}, s.err
	}
	return mediawiki.Page{Exists: true, Text: s.text}, nil
}

type runs struct{ got []runstore.Run }

func (r *runs) Put(_ context.Context, run runstore.Run) error {
	r.got = append(r.got, run)
	return nil
}

func fixedClock() func() time.Time {
	t := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestRun_DisabledFlagSkipsTask(t *testing.T) {
	rec := &runs{}
	called := false
	err := Run(context.Background(), Deps{
		Gate: &taskgate.Gate{Reader: statusPage{text: "| nnId1 = 0"}, Page: "S"},
		Runs: rec,
		Now:  fixedClock(),
	}, Task{Name: "pagemake", GateID: "nnId1", Fn: func(context.Context, Invocation) (string, error) {
		called = true
		return "", nil
	}})

	assert.ErrorIs(t, err, taskgate.ErrDisabled)
	assert.False(t, called)
	assert.Equal(t, 0, ExitCode(err))
	require.Len(t, rec.got, 1)
	assert.Equal(t, runstore.OutcomeDisabled, rec.got[0].Outcome)
}

func TestRun_FlagReadFailureIsFatal(t *testing.T) {
	rec := &runs{}
	called := false
	err := Run(context.Background(), Deps{
		Gate: &taskgate.Gate{Reader: statusPage{err: errors.New("timeout")}, Page: "S"},
		Runs: rec,
	}, Task{Name: "pagemake", GateID: "nnId1", Fn: func(context.Context, Invocation) (string, error) {
		called = true
		return "", nil
	}})

	assert.ErrorIs(t, err, taskgate.ErrFlagUnavailable)
	assert.False(t, called)
	assert.Equal(t, 1, ExitCode(err))
	require.Len(t, rec.got, 1)
	assert.Equal(t, runstore.OutcomeFailed, rec.got[0].Outcome)
}

func TestRun_Success(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rec := &runs{}
	var inv Invocation
	err := Run(context.Background(), Deps{
		Gate:   &taskgate.Gate{Reader: statusPage{text: "| nnId3 = 1"}, Page: "S"},
		Runs:   rec,
		Logger: zap.New(core),
		Now:    fixedClock(),
	}, Task{Name: "sandbox-clean", GateID: "nnId3", Fn: func(_ context.Context, i Invocation) (string, error) {
		inv = i
		return "2 sandboxes reset", nil
	}})

	require.NoError(t, err)
	assert.Equal(t, 0, ExitCode(err))
	assert.NotEmpty(t, inv.ID)
	require.Len(t, rec.got, 1)
	assert.Equal(t, inv.ID, rec.got[0].ID)
	assert.Equal(t, "2 sandboxes reset", rec.got[0].Note)
	assert.Equal(t, runstore.OutcomeOK, rec.got[0].Outcome)
	assert.Equal(t, time.Second, rec.got[0].Duration())

	finished := logs.FilterMessage("task finished").All()
	require.Len(t, finished, 1)
	assert.Equal(t, inv.ID, finished[0].ContextMap()["run_id"])
}

func TestRun_NoGate(t *testing.T) {
	err := Run(context.Background(), Deps{}, Task{Name: "highrevs", Fn: func(context.Context, Invocation) (string, error) {
		return "", errors.New("replica down")
	}})
	assert.Error(t, err)
	assert.Equal(t, 1, ExitCode(err))
}
