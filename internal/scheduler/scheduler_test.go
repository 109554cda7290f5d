package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/mfracassi/clubdesk/internal/reminder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	report   *reminder.RunReport
	err      error
	runs     int
	lastMode reminder.Mode
}

func (f *fakeRunner) Run(_ context.Context, _ reminder.Policy, mode reminder.Mode) (*reminder.RunReport, error) {
	f.runs++
	f.lastMode = mode
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

type fakeNotifier struct {
	reports []*reminder.RunReport
	err     error
}

func (f *fakeNotifier) NotifyReminderRun(_ context.Context, report *reminder.RunReport) error {
	if f.err != nil {
		return f.err
	}
	f.reports = append(f.reports, report)
	return nil
}

func TestRunOnceNotifiesWithReport(t *testing.T) {
	runner := &fakeRunner{report: &reminder.RunReport{CandidateCount: 2, SentCount: 2}}
	notifier := &fakeNotifier{}
	s := New(Config{Runner: runner, Notifier: notifier, Spec: "0 9 * * *"})

	s.runOnce()

	assert.Equal(t, 1, runner.runs)
	assert.Equal(t, reminder.ModeApply, runner.lastMode)
	require.Len(t, notifier.reports, 1)
	assert.Equal(t, 2, notifier.reports[0].SentCount)
}

func TestRunOnceDryRunUsesPreviewMode(t *testing.T) {
	runner := &fakeRunner{report: &reminder.RunReport{}}
	s := New(Config{Runner: runner, DryRun: true, Spec: "0 9 * * *"})

	s.runOnce()

	assert.Equal(t, reminder.ModePreview, runner.lastMode)
}

func TestRunOnceSkipsNotifyOnRunFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("scan failed")}
	notifier := &fakeNotifier{}
	s := New(Config{Runner: runner, Notifier: notifier, Spec: "0 9 * * *"})

	s.runOnce()

	assert.Empty(t, notifier.reports, "a failed run has no report to summarize")
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := New(Config{Runner: &fakeRunner{report: &reminder.RunReport{}}, Spec: "not a cron spec"})

	err := s.Start()
	assert.Error(t, err)
}

func TestNewPanicsWithoutRunner(t *testing.T) {
	assert.Panics(t, func() { New(Config{Spec: "0 9 * * *"}) })
}
