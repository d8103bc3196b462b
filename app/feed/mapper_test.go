package feed

import (
	"testing"
	"time"
)

func TestMapper_MinimalRow(t *testing.T) {
	mapper := NewMapper()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	story, ok := mapper.Run([]string{"x", "MARKETS", "Title", "Hook", "Body"}, 0, now)
	if !ok {
		t.Fatal("Expected row to be accepted")
	}

	if story.Category != "MARKETS" {
		t.Errorf("Expected category 'MARKETS', got '%s'", story.Category)
	}
	if story.Headline != "Title" {
		t.Errorf("Expected headline 'Title', got '%s'", story.Headline)
	}
	if story.Hook != "Hook" || story.Body != "Body" {
		t.Errorf("Unexpected hook/body: '%s' / '%s'", story.Hook, story.Body)
	}
	if story.DeepDive != "" || story.SourceURL != "" || story.Image != "" {
		t.Errorf("Expected optional fields to be empty, got %+v", story)
	}
	if story.Theme != ThemeBlue {
		t.Errorf("Expected theme 'blue', got '%s'", story.Theme)
	}
	if story.ID != BaseOffset {
		t.Errorf("Expected id %d, got %d", BaseOffset, story.ID)
	}
	if !story.Timestamp.Equal(now) {
		t.Errorf("Expected timestamp %v, got %v", now, story.Timestamp)
	}
}

func TestMapper_FullRow(t *testing.T) {
	mapper := NewMapper()

	fields := []string{"ext-7", "Tech", "Headline", "Hook", "Body", "Deep", "https://example.com/a", "https://example.com/a.jpg", " RED "}
	story, ok := mapper.Run(fields, 4, time.Now())
	if !ok {
		t.Fatal("Expected row to be accepted")
	}

	if story.ID != BaseOffset+4 {
		t.Errorf("Expected id %d, got %d", BaseOffset+4, story.ID)
	}
	if story.DeepDive != "Deep" {
		t.Errorf("Expected deep dive 'Deep', got '%s'", story.DeepDive)
	}
	if story.SourceURL != "https://example.com/a" {
		t.Errorf("Expected source URL, got '%s'", story.SourceURL)
	}
	if story.Image != "https://example.com/a.jpg" {
		t.Errorf("Expected image URL, got '%s'", story.Image)
	}
	if story.Theme != ThemeRed {
		t.Errorf("Expected theme 'red', got '%s'", story.Theme)
	}
}

func TestMapper_Rejections(t *testing.T) {
	mapper := NewMapper()

	tests := []struct {
		name   string
		fields []string
	}{
		{"too few fields", []string{"x", "MARKETS", "Title", "Hook"}},
		{"single empty field", []string{""}},
		{"empty headline", []string{"x", "MARKETS", "", "Hook", "Body", "Deep", "url", "img", "red"}},
		{"whitespace headline", []string{"x", "MARKETS", "   ", "Hook", "Body"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := mapper.Run(tt.fields, 0, time.Now()); ok {
				t.Errorf("Expected %v to be rejected", tt.fields)
			}
		})
	}
}

func TestMapper_ThemeDefaults(t *testing.T) {
	mapper := NewMapper()

	tests := map[string]string{
		"":       ThemeBlue,
		"purple": ThemeBlue,
		"Green":  ThemeGreen,
		"blue":   ThemeBlue,
		"red":    ThemeRed,
	}

	for theme, want := range tests {
		fields := []string{"x", "c", "h", "k", "b", "", "", "", theme}
		story, ok := mapper.Run(fields, 0, time.Now())
		if !ok {
			t.Fatalf("Expected row with theme %q to be accepted", theme)
		}
		if story.Theme != want {
			t.Errorf("Theme %q: expected '%s', got '%s'", theme, want, story.Theme)
		}
	}
}

func TestStory_ImageURL(t *testing.T) {
	const placeholder = "https://example.com/placeholder.png"

	tests := map[string]string{
		"https://cdn.example.com/a.jpg": "https://cdn.example.com/a.jpg",
		"http://cdn.example.com/b.png":  "http://cdn.example.com/b.png",
		"":                              placeholder,
		"not an image":                  placeholder,
		"javascript:alert(1)":           placeholder,
		"/relative/path.jpg":            placeholder,
		"ftp://example.com/c.jpg":       placeholder,
	}

	for image, want := range tests {
		got := Story{Image: image}.ImageURL(placeholder)
		if got != want {
			t.Errorf("ImageURL(%q) = %q, want %q", image, got, want)
		}
	}
}
