package feed

import (
	"strings"

	"golang.org/x/text/cases"
)

// AllCategories disables category filtering.
const AllCategories = "ALL"

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run keeps stories whose category matches category, ignoring case and
// surrounding whitespace. An empty category or ALL keeps everything.
func (f *Filterer) Run(stories []Story, category string) []Story {
	if f.isAll(category) {
		return stories
	}

	key := f.key(category)
	filtered := make([]Story, 0, len(stories))
	for _, story := range stories {
		if f.key(story.Category) == key {
			filtered = append(filtered, story)
		}
	}

	return filtered
}

// Categories returns distinct categories in first-seen order. Categories that
// differ only in case or spacing are grouped under the first spelling seen.
func (f *Filterer) Categories(stories []Story) []string {
	seen := make(map[string]bool)
	categories := make([]string, 0)

	for _, story := range stories {
		category := strings.TrimSpace(story.Category)
		if category == "" {
			continue
		}
		key := f.key(category)
		if seen[key] {
			continue
		}
		seen[key] = true
		categories = append(categories, category)
	}

	return categories
}

func (f *Filterer) isAll(category string) bool {
	category = strings.TrimSpace(category)
	return category == "" || f.key(category) == f.key(AllCategories)
}

// key folds case with a fresh Caser per call; Casers are stateful.
func (f *Filterer) key(category string) string {
	return cases.Fold().String(strings.TrimSpace(category))
}
