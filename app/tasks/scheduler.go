package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/lysyi3m/story-feed/app/database"
	"github.com/lysyi3m/story-feed/app/feed"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Options struct {
	SheetURL           string
	UserAgent          string
	FetchTimeout       time.Duration
	Interval           time.Duration
	WorkerCount        int
	ExtractContent     bool
	ExtractMaxAttempts int
}

type Scheduler struct {
	policy           StoryPolicy
	state            *feed.State
	extractRepo      database.ExtractRepository
	httpClient       *http.Client
	contentExtractor TextExtractor
	opts             Options
	refreshMu        sync.Mutex
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	taskQueue        chan TaskInterface
}

func NewScheduler(policy StoryPolicy, state *feed.State, extractRepo database.ExtractRepository,
	httpClient *http.Client, contentExtractor TextExtractor, opts Options) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		policy:           policy,
		state:            state,
		extractRepo:      extractRepo,
		httpClient:       httpClient,
		contentExtractor: contentExtractor,
		opts:             opts,
		ctx:              ctx,
		cancel:           cancel,
		taskQueue:        make(chan TaskInterface, 100),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.opts.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.opts.Interval)
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

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) EnqueueRefresh() error {
	return s.EnqueueTask(s.newRefreshTask())
}

func (s *Scheduler) newRefreshTask() *RefreshStoriesTask {
	return NewRefreshStoriesTask(s.opts.SheetURL, s.policy, s.state, &s.refreshMu)
}

func (s *Scheduler) enqueueStartupTasks() {
	if err := s.EnqueueRefresh(); err != nil {
		slog.Warn("Failed to enqueue RefreshStoriesTask", "error", err)
	}
}

func (s *Scheduler) enqueueTasks() {
	if err := s.EnqueueRefresh(); err != nil {
		slog.Warn("Failed to enqueue RefreshStoriesTask", "error", err)
	}

	if !s.opts.ExtractContent {
		return
	}

	extractTask := NewExtractContentTask(s.state, s.httpClient, s.contentExtractor, s.extractRepo,
		s.opts.UserAgent, s.opts.FetchTimeout, s.opts.ExtractMaxAttempts)
	if err := s.EnqueueTask(extractTask); err != nil {
		slog.Warn("Failed to enqueue ExtractContentTask", "error", err)
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

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := retryDelay(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source", task.GetSource(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-time.After(retryDelay):
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}

// retryDelay doubles from one second and caps at thirty.
func retryDelay(retryCount int) time.Duration {
	delay := time.Duration(1<<uint(retryCount-1)) * time.Second
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	return delay
}
