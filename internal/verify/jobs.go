package verify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mvickers/citecheck/internal/model"
)

// ErrQueueFull is returned by Submit when the runner's queue is at capacity.
var ErrQueueFull = errors.New("verification queue full")

// ErrRunnerStopped is returned by Submit after Stop.
var ErrRunnerStopped = errors.New("verification runner stopped")

// JobStore holds verification jobs up to a fixed capacity, evicting the
// oldest terminal job when full. It is constructor-injected wherever jobs
// are tracked; there is no package-level store.
type JobStore struct {
	mu       sync.Mutex
	jobs     map[string]*model.VerificationJob
	order    []string
	capacity int
}

// NewJobStore creates a bounded job store.
func NewJobStore(capacity int) *JobStore {
	if capacity <= 0 {
		capacity = 128
	}
	return &JobStore{
		jobs:     make(map[string]*model.VerificationJob, capacity),
		capacity: capacity,
	}
}

// Get returns a snapshot of the job, safe to read while the worker keeps
// mutating the original.
func (s *JobStore) Get(id string) (model.VerificationJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return model.VerificationJob{}, false
	}
	return job.Clone(), true
}

func (s *JobStore) put(job *model.VerificationJob) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.jobs) >= s.capacity {
		s.evictLocked()
	}
	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)
}

// evictLocked drops the oldest terminal job, or the oldest job outright
// when nothing has finished yet.
func (s *JobStore) evictLocked() {
	for i, id := range s.order {
		if job, ok := s.jobs[id]; ok && job.Status.Terminal() {
			delete(s.jobs, id)
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
	if len(s.order) > 0 {
		delete(s.jobs, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *JobStore) update(id string, fn func(*model.VerificationJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.jobs[id]; ok {
		fn(job)
	}
}

type jobTask struct {
	id        string
	citations []string
	ctx       context.Context
}

// Runner executes verification jobs asynchronously: Submit returns a job ID
// immediately and pollers read progress through the store.
type Runner struct {
	orch    *Orchestrator
	store   *JobStore
	timeout time.Duration
	logger  *zap.Logger

	queue   chan *jobTask
	cancels map[string]context.CancelFunc
	mu      sync.Mutex
	wg      sync.WaitGroup
	stopped bool
}

// NewRunner creates a job runner over the orchestrator. Jobs exceeding
// jobTimeout are marked timed out.
func NewRunner(orch *Orchestrator, store *JobStore, workers int, jobTimeout time.Duration, logger *zap.Logger) *Runner {
	if workers <= 0 {
		workers = 1
	}
	if jobTimeout <= 0 {
		jobTimeout = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Runner{
		orch:    orch,
		store:   store,
		timeout: jobTimeout,
		logger:  logger,
		queue:   make(chan *jobTask, store.capacity),
		cancels: make(map[string]context.CancelFunc),
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	return r
}

// Submit enqueues a verification job and returns its ID.
func (r *Runner) Submit(citations []string) (string, error) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return "", ErrRunnerStopped
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	r.cancels[id] = cancel
	r.mu.Unlock()

	job := &model.VerificationJob{
		ID:             id,
		Status:         model.JobQueued,
		CitationsTotal: len(dedupe(citations)),
	}
	r.store.put(job)

	select {
	case r.queue <- &jobTask{id: id, citations: citations, ctx: ctx}:
		return id, nil
	default:
		cancel()
		r.removeCancel(id)
		r.store.update(id, func(j *model.VerificationJob) {
			j.Status = model.JobFailed
			j.ErrorMessage = ErrQueueFull.Error()
		})
		return "", ErrQueueFull
	}
}

// Status returns a snapshot of the job.
func (r *Runner) Status(id string) (model.VerificationJob, bool) {
	return r.store.Get(id)
}

// Cancel requests cooperative cancellation of a queued or running job.
func (r *Runner) Cancel(id string) bool {
	r.mu.Lock()
	cancel, ok := r.cancels[id]
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Stop rejects new submissions and waits for in-flight jobs to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.queue)
	r.wg.Wait()
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for task := range r.queue {
		r.runJob(task)
	}
}

func (r *Runner) runJob(task *jobTask) {
	defer r.removeCancel(task.id)

	ctx, cancel := context.WithTimeout(task.ctx, r.timeout)
	defer cancel()

	// The submitter may have canceled while the job sat in the queue.
	if ctx.Err() != nil {
		r.finish(task.id, model.JobFailed, nil, "canceled before start")
		return
	}

	started := time.Now()
	r.store.update(task.id, func(j *model.VerificationJob) {
		j.Status = model.JobRunning
		j.StartedAt = &started
	})

	progress := func(processed, total int, method string) {
		r.store.update(task.id, func(j *model.VerificationJob) {
			j.CitationsProcessed = processed
			j.CitationsTotal = total
			j.CurrentMethod = method
			if total > 0 {
				j.Progress = processed * 100 / total
			}
		})
	}

	results, err := r.orch.Verify(ctx, task.citations, progress)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		r.finish(task.id, model.JobTimeout, results, "job deadline exceeded")
	case errors.Is(err, context.Canceled):
		r.finish(task.id, model.JobFailed, results, "canceled")
	case err != nil:
		r.logger.Error("verification job failed", zap.String("job_id", task.id), zap.Error(err))
		r.finish(task.id, model.JobFailed, results, err.Error())
	default:
		r.finish(task.id, model.JobCompleted, results, "")
	}
}

func (r *Runner) finish(id string, status model.JobStatus, results map[string]model.VerificationRecord, errMsg string) {
	completed := time.Now()
	r.store.update(id, func(j *model.VerificationJob) {
		j.Status = status
		j.CompletedAt = &completed
		j.Results = results
		j.ErrorMessage = errMsg
		if status == model.JobCompleted {
			j.Progress = 100
			j.CitationsProcessed = j.CitationsTotal
		}
	})
}

func (r *Runner) removeCancel(id string) {
	r.mu.Lock()
	delete(r.cancels, id)
	r.mu.Unlock()
}
