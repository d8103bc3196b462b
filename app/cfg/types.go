package cfg

import "time"

type Cfg struct {
	// Source configuration
	SheetURL     string
	FetchTimeout time.Duration

	// Storage configuration
	DBPath string

	// Application configuration
	Port             string
	BaseUrl          string
	WorkerCount      int
	RefreshInterval  time.Duration
	APIAccessKey     string
	PlaceholderImage string

	// Deep-dive extraction
	ExtractContent     bool
	ExtractMaxLength   int
	ExtractMaxAttempts int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
