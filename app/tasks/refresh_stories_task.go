package tasks

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lysyi3m/story-feed/app/feed"
)

// RefreshStoriesTask loads the sheet through the fallback policy and swaps
// the result into the shared state. Loads never overlap.
type RefreshStoriesTask struct {
	Task
	policy StoryPolicy
	state  *feed.State
	mu     *sync.Mutex
}

func NewRefreshStoriesTask(sheetURL string, policy StoryPolicy, state *feed.State, mu *sync.Mutex) *RefreshStoriesTask {
	task := &RefreshStoriesTask{
		Task:   NewTask(TaskTypeRefreshStories, sheetURL),
		policy: policy,
		state:  state,
		mu:     mu,
	}
	// Failures already resolve to the fallback set.
	task.MaxRetries = 0
	return task
}

func (t *RefreshStoriesTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	collection := t.policy.Run(ctx, t.Source)
	t.state.Replace(collection)

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"stories", len(collection.Stories),
		"fallback", collection.Fallback)

	return nil
}
