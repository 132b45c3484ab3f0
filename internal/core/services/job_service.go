package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spincycle/backend/internal/domain"
	"github.com/spincycle/backend/internal/infrastructure/logger"
)

var ErrJobNotFound = errors.New("job: not found")

const defaultJobHistory = 100

// JobFunc does the work of a background job. The returned JSONB is stored as
// the job result.
type JobFunc func(ctx context.Context, report func(progress int, msg string)) (domain.JSONB, error)

type JobService struct {
	logger  *logger.Logger
	history int

	mu   sync.RWMutex
	jobs map[string]*domain.Job
	wg   sync.WaitGroup
}

func NewJobService(log *logger.Logger) *JobService {
	if log == nil {
		log = logger.NewNop()
	}
	return &JobService{
		logger:  log,
		history: defaultJobHistory,
		jobs:    make(map[string]*domain.Job),
	}
}

func (s *JobService) CreateJob(jobType string) *domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	job := &domain.Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    domain.JobStatusPending,
		Message:   "Job initialized",
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.jobs[job.ID] = job
	s.pruneLocked()
	jobCopy := *job
	return &jobCopy
}

func (s *JobService) UpdateJob(id string, status domain.JobStatus, progress int, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return ErrJobNotFound
	}
	job.Status = status
	job.Progress = progress
	job.Message = msg
	job.UpdatedAt = time.Now()
	return nil
}

func (s *JobService) CompleteJob(id string, result domain.JSONB) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return ErrJobNotFound
	}
	job.Status = domain.JobStatusCompleted
	job.Progress = 100
	job.Message = "Job completed"
	job.Result = result
	job.UpdatedAt = time.Now()
	return nil
}

func (s *JobService) FailJob(id string, errStr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return ErrJobNotFound
	}
	job.Status = domain.JobStatusFailed
	job.Error = errStr
	job.Message = "Job failed"
	job.UpdatedAt = time.Now()
	return nil
}

func (s *JobService) GetJob(id string) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	// Return a copy to avoid race conditions
	jobCopy := *job
	return &jobCopy, nil
}

// Start runs fn on its own goroutine and returns the job right away. ctx
// bounds the job and must outlive the caller: pass a server-lifetime
// context, never a request context, which fiber recycles once the handler
// returns.
func (s *JobService) Start(ctx context.Context, jobType string, timeout time.Duration, fn JobFunc) *domain.Job {
	job := s.CreateJob(jobType)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		_ = s.UpdateJob(job.ID, domain.JobStatusRunning, 0, "Job running")
		result, err := fn(runCtx, func(progress int, msg string) {
			_ = s.UpdateJob(job.ID, domain.JobStatusRunning, progress, msg)
		})
		if err != nil {
			s.logger.Errorw("job_failed", "job_id", job.ID, "type", jobType, "error", err)
			_ = s.FailJob(job.ID, err.Error())
			return
		}
		s.logger.Infow("job_completed", "job_id", job.ID, "type", jobType)
		_ = s.CompleteJob(job.ID, result)
	}()
	return job
}

// Wait blocks until every started job has returned.
func (s *JobService) Wait() {
	s.wg.Wait()
}

// pruneLocked drops the oldest finished jobs beyond the history limit.
func (s *JobService) pruneLocked() {
	if len(s.jobs) <= s.history {
		return
	}
	finished := make([]*domain.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		if j.Status == domain.JobStatusCompleted || j.Status == domain.JobStatusFailed {
			finished = append(finished, j)
		}
	}
	sort.Slice(finished, func(i, k int) bool { return finished[i].CreatedAt.Before(finished[k].CreatedAt) })
	for _, j := range finished {
		if len(s.jobs) <= s.history {
			return
		}
		delete(s.jobs, j.ID)
	}
}
