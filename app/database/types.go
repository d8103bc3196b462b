package database

import "time"

// Extract caches readable text pulled from a story's source page.
type Extract struct {
	SourceURL   string
	Content     string
	Status      string // success, failed
	Error       string
	Attempts    int
	ExtractedAt time.Time
}

const (
	ExtractStatusSuccess = "success"
	ExtractStatusFailed  = "failed"
)
