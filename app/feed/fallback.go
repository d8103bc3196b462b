package feed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed fallback.yml
var fallbackData []byte

// SourceLoader produces stories from a configured source or fails.
type SourceLoader interface {
	Run(ctx context.Context, sourceURL string) ([]Story, error)
}

// Notifier receives the "using fallback" signal after every load.
type Notifier interface {
	Notify(usingFallback bool, reason string)
}

var _ SourceLoader = (*Loader)(nil)

type Fallback struct {
	loader   SourceLoader
	notifier Notifier
	stories  []Story
	now      func() time.Time
}

// NewFallback wraps loader with the embedded fallback story set.
func NewFallback(loader SourceLoader, notifier Notifier) (*Fallback, error) {
	stories, err := ParseFallbackStories(fallbackData)
	if err != nil {
		return nil, err
	}

	return &Fallback{
		loader:   loader,
		notifier: notifier,
		stories:  stories,
		now:      time.Now,
	}, nil
}

// Run never fails: any loader error is replaced by the fallback set.
func (f *Fallback) Run(ctx context.Context, sourceURL string) Collection {
	loadedAt := f.now().UTC()

	stories, err := f.loader.Run(ctx, sourceURL)
	if err == nil && len(stories) > 0 {
		f.notify(false, "")
		return Collection{Stories: stories, LoadedAt: loadedAt}
	}

	reason := "loader returned no stories"
	if err != nil {
		reason = err.Error()
	}
	slog.Warn("Using fallback stories", "source", sourceURL, "reason", reason)
	f.notify(true, reason)

	return Collection{
		Stories:  f.Stories(loadedAt),
		Fallback: true,
		LoadedAt: loadedAt,
		Reason:   reason,
	}
}

// Stories returns a copy of the fallback set stamped with ingestedAt.
func (f *Fallback) Stories(ingestedAt time.Time) []Story {
	stories := make([]Story, len(f.stories))
	for i, s := range f.stories {
		s.Timestamp = ingestedAt
		stories[i] = s
	}
	return stories
}

func (f *Fallback) notify(usingFallback bool, reason string) {
	if f.notifier != nil {
		f.notifier.Notify(usingFallback, reason)
	}
}

// ParseFallbackStories decodes and validates a YAML fallback set.
func ParseFallbackStories(data []byte) ([]Story, error) {
	var set struct {
		Stories []Story `yaml:"stories"`
	}
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse fallback YAML: %w", err)
	}

	if len(set.Stories) == 0 {
		return nil, fmt.Errorf("fallback set is empty")
	}

	seen := make(map[int]bool, len(set.Stories))
	for i := range set.Stories {
		s := &set.Stories[i]
		if s.Headline == "" {
			return nil, fmt.Errorf("fallback story at index %d has no headline", i)
		}
		if s.ID <= 0 || s.ID >= BaseOffset {
			return nil, fmt.Errorf("fallback story at index %d has id %d outside 1..%d", i, s.ID, BaseOffset-1)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate fallback story id %d", s.ID)
		}
		seen[s.ID] = true
		s.Theme = normalizeTheme(s.Theme)
	}

	return set.Stories, nil
}
