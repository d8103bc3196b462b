package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lysyi3m/story-feed/app/database"
	"github.com/lysyi3m/story-feed/app/feed"
)

type stubPolicy struct {
	mu    sync.Mutex
	calls []string
	c     feed.Collection
}

func (p *stubPolicy) Run(ctx context.Context, sourceURL string) feed.Collection {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, sourceURL)
	return p.c
}

func (p *stubPolicy) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type stubExtractor struct {
	err error
}

func (e *stubExtractor) Run(data []byte, pageURL *url.URL) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return "extracted from " + pageURL.Path, nil
}

type memExtractRepo struct {
	mu       sync.Mutex
	extracts map[string]*database.Extract
}

func newMemExtractRepo() *memExtractRepo {
	return &memExtractRepo{extracts: make(map[string]*database.Extract)}
}

func (r *memExtractRepo) GetExtract(sourceURL string) (*database.Extract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.extracts[sourceURL], nil
}

func (r *memExtractRepo) UpsertExtract(sourceURL, content, status, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.extracts[sourceURL]
	if !ok {
		e = &database.Extract{SourceURL: sourceURL}
		r.extracts[sourceURL] = e
	}
	if status == database.ExtractStatusSuccess {
		e.Content = content
	}
	e.Status = status
	e.Error = errorMsg
	e.Attempts++
	return nil
}

func (r *memExtractRepo) GetPendingURLs(sourceURLs []string, maxAttempts int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []string
	for _, u := range sourceURLs {
		e := r.extracts[u]
		if e == nil || (e.Status != database.ExtractStatusSuccess && e.Attempts < maxAttempts) {
			pending = append(pending, u)
		}
	}
	return pending, nil
}

func TestNewTask(t *testing.T) {
	a := NewTask(TaskTypeRefreshStories, "https://example.com/sheet.csv")
	b := NewTask(TaskTypeRefreshStories, "https://example.com/sheet.csv")

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("Expected unique task IDs, got '%s' and '%s'", a.ID, b.ID)
	}
	if a.GetMaxRetries() != DefaultMaxRetries {
		t.Errorf("Expected %d max retries, got %d", DefaultMaxRetries, a.GetMaxRetries())
	}
	if a.GetDuration() != 0 {
		t.Error("Expected zero duration before start")
	}

	a.Start()
	if a.StartedAt == nil {
		t.Error("Expected start time to be recorded")
	}

	for a.CanRetry() {
		a.IncrementRetryCount()
	}
	if a.GetRetryCount() != DefaultMaxRetries {
		t.Errorf("Expected retry count %d, got %d", DefaultMaxRetries, a.GetRetryCount())
	}
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		retry    int
		expected time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{6, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := retryDelay(tt.retry); got != tt.expected {
			t.Errorf("retryDelay(%d) = %v, expected %v", tt.retry, got, tt.expected)
		}
	}
}

func TestRefreshStoriesTask_ReplacesState(t *testing.T) {
	policy := &stubPolicy{c: feed.Collection{
		Stories:  []feed.Story{{ID: 1, Headline: "Offline"}},
		Fallback: true,
	}}
	state := feed.NewState()
	var mu sync.Mutex

	task := NewRefreshStoriesTask("https://example.com/sheet.csv", policy, state, &mu)
	if task.CanRetry() {
		t.Error("Expected refresh task not to retry")
	}

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected refresh to succeed, got: %v", err)
	}

	c, ready := state.Snapshot()
	if !ready {
		t.Fatal("Expected state to be ready after refresh")
	}
	if !c.Fallback || len(c.Stories) != 1 {
		t.Errorf("Unexpected collection: %+v", c)
	}
	if policy.calls[0] != "https://example.com/sheet.csv" {
		t.Errorf("Expected policy to receive sheet URL, got '%s'", policy.calls[0])
	}
}

func TestRefreshStoriesTask_CancelledContext(t *testing.T) {
	policy := &stubPolicy{}
	var mu sync.Mutex
	task := NewRefreshStoriesTask("", policy, feed.NewState(), &mu)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := task.Execute(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
	if policy.callCount() != 0 {
		t.Error("Expected policy not to run on a cancelled context")
	}
}

func TestExtractContentTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/article":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, "<html><body><p>Article</p></body></html>")
		case "/json":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, "{}")
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	state := feed.NewState()
	state.Replace(feed.Collection{Stories: []feed.Story{
		{ID: 1000, Headline: "A", SourceURL: server.URL + "/article"},
		{ID: 1001, Headline: "B", SourceURL: server.URL + "/json"},
		{ID: 1002, Headline: "C", SourceURL: server.URL + "/missing"},
		{ID: 1003, Headline: "D", SourceURL: server.URL + "/article", DeepDive: "Already written"},
		{ID: 1004, Headline: "E"},
	}})

	repo := newMemExtractRepo()
	task := NewExtractContentTask(state, server.Client(), &stubExtractor{}, repo, "Test Agent", 5*time.Second, 2)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected extraction to succeed, got: %v", err)
	}

	article, _ := repo.GetExtract(server.URL + "/article")
	if article == nil || article.Status != database.ExtractStatusSuccess {
		t.Fatalf("Expected successful extract, got %+v", article)
	}
	if article.Content != "extracted from /article" {
		t.Errorf("Unexpected content '%s'", article.Content)
	}

	for _, path := range []string{"/json", "/missing"} {
		e, _ := repo.GetExtract(server.URL + path)
		if e == nil || e.Status != database.ExtractStatusFailed || e.Error == "" {
			t.Errorf("Expected failed extract for %s, got %+v", path, e)
		}
	}

	// Second run only retries failures.
	if err := task.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}
	if article, _ := repo.GetExtract(server.URL + "/article"); article.Attempts != 1 {
		t.Errorf("Expected successful URL not to be retried, got %d attempts", article.Attempts)
	}
	if failed, _ := repo.GetExtract(server.URL + "/json"); failed.Attempts != 2 {
		t.Errorf("Expected failed URL to be retried once, got %d attempts", failed.Attempts)
	}
}

func TestExtractContentTask_NoTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><p>Article</p></body></html>")
	}))
	defer server.Close()

	state := feed.NewState()
	state.Replace(feed.Collection{Stories: []feed.Story{{ID: 1000, Headline: "A", SourceURL: server.URL + "/article"}}})

	repo := newMemExtractRepo()
	task := NewExtractContentTask(state, server.Client(), &stubExtractor{}, repo, "Test Agent", 0, 3)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	e, _ := repo.GetExtract(server.URL + "/article")
	if e == nil || e.Status != database.ExtractStatusSuccess {
		t.Errorf("Expected extraction to succeed without a timeout, got %+v", e)
	}
}

func TestExtractContentTask_NotReady(t *testing.T) {
	repo := newMemExtractRepo()
	task := NewExtractContentTask(feed.NewState(), http.DefaultClient, &stubExtractor{}, repo, "Test Agent", time.Second, 3)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error before first load, got: %v", err)
	}
	if len(repo.extracts) != 0 {
		t.Error("Expected nothing to be extracted before first load")
	}
}

type failingTask struct {
	Task
	runs atomic.Int32
	done chan struct{}
}

func (f *failingTask) Execute(ctx context.Context) error {
	if f.runs.Add(1) == int32(f.MaxRetries+1) {
		close(f.done)
	}
	return errors.New("boom")
}

func newTestScheduler(policy StoryPolicy, state *feed.State, interval time.Duration) *Scheduler {
	return NewScheduler(policy, state, newMemExtractRepo(), http.DefaultClient, &stubExtractor{}, Options{
		SheetURL:           "https://example.com/sheet.csv",
		UserAgent:          "Test Agent",
		FetchTimeout:       time.Second,
		Interval:           interval,
		WorkerCount:        2,
		ExtractMaxAttempts: 3,
	})
}

func TestScheduler_StartupRefresh(t *testing.T) {
	policy := &stubPolicy{c: feed.Collection{Stories: []feed.Story{{ID: 1000, Headline: "Live"}}}}
	state := feed.NewState()

	scheduler := newTestScheduler(policy, state, time.Hour)
	scheduler.Start()
	defer scheduler.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, ready := state.Snapshot(); ready {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatal("Expected startup refresh to populate state")
}

func TestScheduler_RetriesFailingTask(t *testing.T) {
	scheduler := newTestScheduler(&stubPolicy{}, feed.NewState(), time.Hour)
	scheduler.Start()
	defer scheduler.Stop()

	task := &failingTask{Task: NewTask(TaskTypeExtractContent, "test"), done: make(chan struct{})}
	task.MaxRetries = 1

	if err := scheduler.EnqueueTask(task); err != nil {
		t.Fatal(err)
	}

	select {
	case <-task.done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Expected task to be retried, ran %d times", task.runs.Load())
	}
}

func TestScheduler_EnqueueAfterStop(t *testing.T) {
	scheduler := newTestScheduler(&stubPolicy{}, feed.NewState(), time.Hour)
	scheduler.Start()
	scheduler.Stop()

	if err := scheduler.EnqueueRefresh(); err == nil {
		t.Error("Expected enqueue to fail after stop")
	}
}
