package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/product-feeds/app/database"
	"github.com/lysyi3m/product-feeds/app/template"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

var ErrAlreadyPending = errors.New("generation already pending")

const (
	taskQueueSize = 300
	taskTimeout   = 5 * time.Minute
	maxRetryDelay = 30 * time.Second
)

type Scheduler struct {
	templates   TemplateSource
	historyRepo database.HistoryRepository
	runner      RunnerInterface
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface

	// pending holds templates with a queued or running task so the ticker
	// does not stack duplicates behind a slow run.
	pendingMu sync.Mutex
	pending   map[string]bool
}

func NewScheduler(templates TemplateSource, historyRepo database.HistoryRepository, runner RunnerInterface,
	interval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if workerCount < 1 {
		workerCount = 1
	}

	return &Scheduler{
		templates:   templates,
		historyRepo: historyRepo,
		runner:      runner,
		interval:    interval,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, taskQueueSize),
		pending:     make(map[string]bool),
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

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) enqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueueTemplate queues a generation task for the template. It fails with
// ErrAlreadyPending while another task for the same template is queued or
// running.
func (s *Scheduler) EnqueueTemplate(name string) (TaskInterface, error) {
	s.pendingMu.Lock()
	if s.pending[name] {
		s.pendingMu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrAlreadyPending, name)
	}
	s.pending[name] = true
	s.pendingMu.Unlock()

	task := NewGenerateFeedTask(name, s.templates, s.runner)
	if err := s.enqueueTask(task); err != nil {
		s.release(name)
		return nil, err
	}
	return task, nil
}

func (s *Scheduler) enqueueTemplate(name string) {
	_, err := s.EnqueueTemplate(name)
	switch {
	case errors.Is(err, ErrAlreadyPending):
		slog.Debug("Generation already pending, skipping", "template", name)
	case err != nil:
		slog.Warn("Failed to enqueue GenerateFeedTask", "template", name, "error", err)
	}
}

func (s *Scheduler) release(name string) {
	s.pendingMu.Lock()
	delete(s.pending, name)
	s.pendingMu.Unlock()
}

func (s *Scheduler) enqueueStartupTasks() {
	active := s.templates.Active()
	if len(active) == 0 {
		slog.Debug("No active templates found")
		return
	}

	slog.Debug("Generating active templates on startup", "count", len(active))

	for _, tmpl := range active {
		s.enqueueTemplate(tmpl.Name)
	}
}

func (s *Scheduler) enqueueTasks() {
	active := s.templates.Active()
	if len(active) == 0 {
		slog.Debug("No active templates found")
		return
	}

	now := time.Now().UTC()
	for _, tmpl := range active {
		due, err := s.isDue(tmpl, now)
		if err != nil {
			slog.Warn("Failed to get generation history, skipping", "template", tmpl.Name, "error", err)
			continue
		}
		if !due {
			slog.Debug("Template not due for generation yet", "template", tmpl.Name)
			continue
		}
		s.enqueueTemplate(tmpl.Name)
	}
}

func (s *Scheduler) isDue(tmpl *template.Template, now time.Time) (bool, error) {
	latest, err := s.historyRepo.Latest(tmpl.Name)
	if err != nil {
		return false, err
	}
	if latest == nil {
		return true, nil
	}

	next := latest.GeneratedAt.Add(time.Duration(tmpl.Settings.RefreshInterval) * time.Second)
	return !next.After(now), nil
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

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		s.release(task.GetTemplateName())
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		s.release(task.GetTemplateName())
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := retryBackoff(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "template", task.GetTemplateName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			return
		case <-time.After(retryDelay):
		}
		if retryErr := s.enqueueTask(task); retryErr != nil {
			s.release(task.GetTemplateName())
			slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
		}
	}()
}

// retryBackoff doubles from one second per attempt, capped at maxRetryDelay.
func retryBackoff(retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}
	if retry > 6 {
		return maxRetryDelay
	}
	return min(time.Duration(1<<uint(retry-1))*time.Second, maxRetryDelay)
}
