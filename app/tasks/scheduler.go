package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/rss-seek/app/metrics"
)

const (
	DefaultQueueSize    = 100
	DefaultTaskTimeout  = 5 * time.Minute
	DefaultJobRetention = time.Hour
	maxRetryDelay       = 30 * time.Second
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	jobs        *Jobs
	workerCount int
	interval    time.Duration
	retention   time.Duration
	taskTimeout time.Duration
	retryDelay  func(retry int) time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(jobs *Jobs, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		jobs:        jobs,
		workerCount: workerCount,
		interval:    time.Minute,
		retention:   DefaultJobRetention,
		taskTimeout: DefaultTaskTimeout,
		retryDelay:  backoff,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, DefaultQueueSize),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				if removed := s.jobs.Prune(time.Now().Add(-s.retention)); removed > 0 {
					slog.Debug("Pruned finished jobs", "count", removed)
				}
			}
		}
	}()
}

// Stop cancels running tasks and waits for workers and pending retries to exit.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, s.taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		metrics.TaskExecutionsTotal.WithLabelValues(string(task.GetType()), "success").Inc()
		task.Finish(nil, false)
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.Retryable(err) || !task.CanRetry() || s.ctx.Err() != nil {
		metrics.TaskExecutionsTotal.WithLabelValues(string(task.GetType()), "failed").Inc()
		task.Finish(err, false)
		slog.Error("Task failed", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	metrics.TaskExecutionsTotal.WithLabelValues(string(task.GetType()), "retry").Inc()
	task.IncrementRetryCount()
	task.Finish(err, true)

	retryDelay := s.retryDelay(task.GetRetryCount())
	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(retryDelay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			task.Finish(s.ctx.Err(), false)
		case <-timer.C:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
				task.Finish(retryErr, false)
			}
		}
	}()
}

// backoff doubles from one second and caps at maxRetryDelay.
func backoff(retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}
	delay := time.Duration(1<<uint(retry-1)) * time.Second
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}
