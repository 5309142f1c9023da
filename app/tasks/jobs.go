package tasks

import (
	"sync"
	"time"

	"github.com/lysyi3m/rss-seek/app/seedr"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job is the externally visible state of one background offload.
type Job struct {
	ID        string         `json:"id"`
	Status    JobStatus      `json:"status"`
	Magnet    string         `json:"magnet"`
	Attempts  int            `json:"attempts"`
	Outcome   *seedr.Outcome `json:"-"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (j *Job) finished() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}

// Jobs keeps job state in memory; it is lost on restart.
type Jobs struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	now  func() time.Time
}

func NewJobs() *Jobs {
	return &Jobs{
		jobs: make(map[string]*Job),
		now:  time.Now,
	}
}

func (s *Jobs) Create(id, magnet string) Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	job := &Job{ID: id, Status: JobPending, Magnet: magnet, CreatedAt: now, UpdatedAt: now}
	s.jobs[id] = job
	return *job
}

// Get returns a copy of the job.
func (s *Jobs) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

func (s *Jobs) MarkRunning(id string) {
	s.update(id, func(j *Job) {
		j.Status = JobRunning
		j.Attempts++
		j.Error = ""
	})
}

func (s *Jobs) MarkPending(id string, err error) {
	s.update(id, func(j *Job) {
		j.Status = JobPending
		j.Error = err.Error()
	})
}

func (s *Jobs) Complete(id string, outcome *seedr.Outcome) {
	s.update(id, func(j *Job) {
		j.Status = JobCompleted
		j.Outcome = outcome
		j.Error = ""
	})
}

func (s *Jobs) Fail(id string, err error) {
	s.update(id, func(j *Job) {
		j.Status = JobFailed
		j.Error = err.Error()
	})
}

// Prune drops finished jobs last updated before cutoff and returns how many were removed.
func (s *Jobs) Prune(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, job := range s.jobs {
		if job.finished() && job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

func (s *Jobs) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func (s *Jobs) update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return
	}
	fn(job)
	job.UpdatedAt = s.now()
}
