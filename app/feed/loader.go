package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	ErrTransport = errors.New("transport failure")
	ErrStatus    = errors.New("non-success response status")
	ErrEmptyBody = errors.New("empty response body")
	ErrNoRecords = errors.New("no valid records")
)

type Loader struct {
	httpClient *http.Client
	decoder    *Decoder
	mapper     *Mapper
	userAgent  string
	timeout    time.Duration
	now        func() time.Time
}

func NewLoader(httpClient *http.Client, userAgent string, timeout time.Duration) *Loader {
	return &Loader{
		httpClient: httpClient,
		decoder:    NewDecoder(),
		mapper:     NewMapper(),
		userAgent:  userAgent,
		timeout:    timeout,
		now:        time.Now,
	}
}

// Run retrieves the CSV at sourceURL and maps every data row. It fails when
// the retrieval fails or when no row yields a valid story.
func (l *Loader) Run(ctx context.Context, sourceURL string) ([]Story, error) {
	body, err := l.fetch(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	return l.Parse(body)
}

// Parse maps raw CSV text to stories. The first line is a header and is
// discarded without being read.
func (l *Loader) Parse(body string) ([]Story, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyBody
	}

	lines := strings.Split(body, "\n")
	ingestedAt := l.now().UTC()

	stories := make([]Story, 0, len(lines)-1)
	rejected := 0
	for i, line := range lines[1:] {
		line = strings.TrimSuffix(line, "\r")
		story, ok := l.mapper.Run(l.decoder.Run(line), i, ingestedAt)
		if !ok {
			rejected++
			continue
		}
		stories = append(stories, story)
	}

	slog.Debug("CSV parsed", "rows", len(lines)-1, "stories", len(stories), "rejected", rejected)

	if len(stories) == 0 {
		return nil, fmt.Errorf("%w: %d rows rejected", ErrNoRecords, rejected)
	}

	return stories, nil
}

func (l *Loader) fetch(ctx context.Context, sourceURL string) (string, error) {
	if sourceURL == "" {
		return "", fmt.Errorf("%w: source URL is not configured", ErrTransport)
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", ErrTransport, err)
	}

	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %d %s", ErrStatus, resp.StatusCode, resp.Status)
	}

	// Spreadsheet exports may start with a UTF-8 byte order mark.
	reader := transform.NewReader(resp.Body, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response body: %v", ErrTransport, err)
	}

	return string(data), nil
}
