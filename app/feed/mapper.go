package feed

import (
	"strings"
	"time"
)

// Column positions of the published spreadsheet. Column 0 holds an external
// identifier that is never read.
const (
	colCategory = iota + 1
	colHeadline
	colHook
	colBody
	colDeepDive
	colSourceURL
	colImage
	colTheme
)

// minFields is the number of columns needed to populate category through body.
const minFields = colBody + 1

type Mapper struct{}

func NewMapper() *Mapper {
	return &Mapper{}
}

// Run maps a decoded row onto a Story. The second return value is false when
// the row is rejected: fewer than minFields columns or an empty headline.
func (m *Mapper) Run(fields []string, rowIndex int, ingestedAt time.Time) (Story, bool) {
	if len(fields) < minFields {
		return Story{}, false
	}

	story := Story{
		ID:        BaseOffset + rowIndex,
		Category:  field(fields, colCategory),
		Headline:  field(fields, colHeadline),
		Hook:      field(fields, colHook),
		Body:      field(fields, colBody),
		DeepDive:  field(fields, colDeepDive),
		SourceURL: field(fields, colSourceURL),
		Image:     field(fields, colImage),
		Theme:     normalizeTheme(field(fields, colTheme)),
		Timestamp: ingestedAt,
	}

	if strings.TrimSpace(story.Headline) == "" {
		return Story{}, false
	}

	return story, true
}

func field(fields []string, i int) string {
	if i >= len(fields) {
		return ""
	}
	return fields[i]
}
