package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/rss-seek/app/seedr"
)

type Offloader interface {
	Offload(ctx context.Context, magnet string) (*seedr.Outcome, error)
}

type OffloadTask struct {
	Task
	Magnet    string
	offloader Offloader
	jobs      *Jobs
}

// NewOffloadTask creates the task and registers its job as pending.
func NewOffloadTask(magnet string, offloader Offloader, jobs *Jobs) *OffloadTask {
	task := &OffloadTask{
		Task:      NewTask(TaskTypeOffload),
		Magnet:    magnet,
		offloader: offloader,
		jobs:      jobs,
	}
	jobs.Create(task.ID, magnet)
	return task
}

func (t *OffloadTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	t.jobs.MarkRunning(t.ID)

	outcome, err := t.offloader.Offload(ctx, t.Magnet)
	if err != nil {
		return fmt.Errorf("failed to offload magnet: %w", err)
	}

	t.jobs.Complete(t.ID, outcome)

	slog.Info("Task completed",
		"type", string(t.Type),
		"id", t.ID,
		"outcome", outcome.Kind,
		"duration", t.GetDuration())

	return nil
}

// Retryable allows another attempt only while the magnet has certainly not
// been submitted; a second submission could start a duplicate download.
func (t *OffloadTask) Retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	var flowErr *seedr.FlowError
	if errors.As(err, &flowErr) {
		return !flowErr.Submitted()
	}
	return false
}

func (t *OffloadTask) Finish(err error, retrying bool) {
	switch {
	case err == nil:
	case retrying:
		t.jobs.MarkPending(t.ID, err)
	default:
		t.jobs.Fail(t.ID, err)
	}
}
