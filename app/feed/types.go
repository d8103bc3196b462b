package feed

import (
	"net/url"
	"strings"
	"time"
)

// BaseOffset is added to the row index of every loaded story. Fallback
// stories use ids below it.
const BaseOffset = 1000

const (
	ThemeRed   = "red"
	ThemeBlue  = "blue"
	ThemeGreen = "green"
)

type Story struct {
	ID        int       `json:"id" yaml:"id"`
	Category  string    `json:"category" yaml:"category"`
	Headline  string    `json:"headline" yaml:"headline"`
	Hook      string    `json:"hook" yaml:"hook"`
	Body      string    `json:"body" yaml:"body"`
	DeepDive  string    `json:"deep_dive" yaml:"deep_dive"`
	SourceURL string    `json:"source_url" yaml:"source_url"`
	Image     string    `json:"image" yaml:"image"`
	Theme     string    `json:"theme" yaml:"theme"`
	Timestamp time.Time `json:"timestamp" yaml:"-"`
}

// ImageURL returns the story image if it looks like an absolute http(s) URL,
// otherwise placeholder.
func (s Story) ImageURL(placeholder string) string {
	u, err := url.Parse(strings.TrimSpace(s.Image))
	if err != nil || u.Host == "" {
		return placeholder
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return placeholder
	}
	return u.String()
}

type Collection struct {
	Stories  []Story
	Fallback bool
	LoadedAt time.Time
	Reason   string // cause of the fallback, diagnostics only
}

// Find returns the story with the given id.
func (c Collection) Find(id int) (Story, bool) {
	for _, s := range c.Stories {
		if s.ID == id {
			return s, true
		}
	}
	return Story{}, false
}

func normalizeTheme(theme string) string {
	switch t := strings.ToLower(strings.TrimSpace(theme)); t {
	case ThemeRed, ThemeBlue, ThemeGreen:
		return t
	default:
		return ThemeBlue
	}
}
