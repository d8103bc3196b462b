package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lysyi3m/story-feed/app/database"
	"github.com/lysyi3m/story-feed/app/feed"
)

// ExtractContentTask fills the extract cache for stories that ship without a
// deep dive, using their source pages.
type ExtractContentTask struct {
	Task
	state            *feed.State
	httpClient       *http.Client
	contentExtractor TextExtractor
	extractRepo      database.ExtractRepository
	userAgent        string
	timeout          time.Duration
	maxAttempts      int
}

func NewExtractContentTask(state *feed.State, httpClient *http.Client, contentExtractor TextExtractor,
	extractRepo database.ExtractRepository, userAgent string, timeout time.Duration, maxAttempts int) *ExtractContentTask {
	return &ExtractContentTask{
		Task:             NewTask(TaskTypeExtractContent, "stories"),
		state:            state,
		httpClient:       httpClient,
		contentExtractor: contentExtractor,
		extractRepo:      extractRepo,
		userAgent:        userAgent,
		timeout:          timeout,
		maxAttempts:      maxAttempts,
	}
}

func (t *ExtractContentTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	collection, ready := t.state.Snapshot()
	if !ready {
		slog.Debug("Stories not loaded yet, skipping content extraction")
		return nil
	}

	var candidates []string
	for _, story := range collection.Stories {
		if story.DeepDive == "" && story.SourceURL != "" {
			candidates = append(candidates, story.SourceURL)
		}
	}

	urls, err := t.extractRepo.GetPendingURLs(candidates, t.maxAttempts)
	if err != nil {
		return fmt.Errorf("failed to get URLs for content extraction: %w", err)
	}

	if len(urls) == 0 {
		slog.Debug("No stories need content extraction")
		return nil
	}

	successCount := 0
	errorCount := 0

	for _, sourceURL := range urls {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		content, err := t.extractContent(ctx, sourceURL)
		if err != nil {
			slog.Error("Failed to extract content for story", "url", sourceURL, "error", err)
			errorCount++

			if err := t.extractRepo.UpsertExtract(sourceURL, "", database.ExtractStatusFailed, err.Error()); err != nil {
				slog.Error("Failed to update content extraction status", "url", sourceURL, "error", err)
			}
			continue
		}

		if err := t.extractRepo.UpsertExtract(sourceURL, content, database.ExtractStatusSuccess, ""); err != nil {
			return fmt.Errorf("failed to store extracted content: %w", err)
		}

		successCount++
		slog.Debug("Content extracted successfully", "url", sourceURL, "content_length", len(content))
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"success", successCount,
		"errors", errorCount)

	return nil
}

func (t *ExtractContentTask) extractContent(ctx context.Context, sourceURL string) (string, error) {
	pageURL, err := url.Parse(sourceURL)
	if err != nil || (pageURL.Scheme != "http" && pageURL.Scheme != "https") {
		return "", fmt.Errorf("invalid source URL: %s", sourceURL)
	}

	data, err := t.fetchArticleContent(ctx, sourceURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article content: %w", err)
	}

	content, err := t.contentExtractor.Run(data, pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	return content, nil
}

func (t *ExtractContentTask) fetchArticleContent(ctx context.Context, sourceURL string) ([]byte, error) {
	timeoutCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		timeoutCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
