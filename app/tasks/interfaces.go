package tasks

import (
	"context"
	"net/url"

	"github.com/lysyi3m/story-feed/app/feed"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API to manage background processing.
// Example usage:
//
//	scheduler := NewScheduler(fallback, state, extractRepo, httpClient, contentExtractor, opts)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueRefresh()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueRefresh() error
}

// StoryPolicy produces a collection for a source URL and never fails.
type StoryPolicy interface {
	Run(ctx context.Context, sourceURL string) feed.Collection
}

type TextExtractor interface {
	Run(data []byte, pageURL *url.URL) (string, error)
}
