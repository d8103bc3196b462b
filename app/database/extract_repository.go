package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type ExtractRepo struct {
	db *DB
}

func NewExtractRepository(db *DB) *ExtractRepo {
	return &ExtractRepo{db: db}
}

func (r *ExtractRepo) GetExtract(sourceURL string) (*Extract, error) {
	var e Extract
	var extractedAt int64
	err := r.db.QueryRow(`
		SELECT source_url, content, status, error, attempts, extracted_at
		FROM extracts
		WHERE source_url = ?
	`, sourceURL).Scan(&e.SourceURL, &e.Content, &e.Status, &e.Error, &e.Attempts, &extractedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get extract: %w", err)
	}

	e.ExtractedAt = time.Unix(extractedAt, 0).UTC()
	return &e, nil
}

// UpsertExtract records an extraction attempt. Content is only replaced on
// success so a later failure keeps previously extracted text.
func (r *ExtractRepo) UpsertExtract(sourceURL, content, status, errorMsg string) error {
	_, err := r.db.Exec(`
		INSERT INTO extracts (source_url, content, status, error, attempts, extracted_at)
		VALUES (?, ?, ?, ?, 1, ?)
		ON CONFLICT (source_url) DO UPDATE SET
			content = CASE WHEN excluded.status = 'success' THEN excluded.content ELSE extracts.content END,
			status = excluded.status,
			error = excluded.error,
			attempts = extracts.attempts + 1,
			extracted_at = excluded.extracted_at
	`, sourceURL, content, status, errorMsg, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert extract: %w", err)
	}

	return nil
}

// GetPendingURLs returns the URLs from sourceURLs that have no successful
// extract and fewer than maxAttempts failed attempts, in input order.
func (r *ExtractRepo) GetPendingURLs(sourceURLs []string, maxAttempts int) ([]string, error) {
	pending := make([]string, 0, len(sourceURLs))
	seen := make(map[string]bool, len(sourceURLs))

	for _, sourceURL := range sourceURLs {
		if sourceURL == "" || seen[sourceURL] {
			continue
		}
		seen[sourceURL] = true

		extract, err := r.GetExtract(sourceURL)
		if err != nil {
			return nil, err
		}

		if extract == nil || (extract.Status != ExtractStatusSuccess && extract.Attempts < maxAttempts) {
			pending = append(pending, sourceURL)
		}
	}

	return pending, nil
}
