package api

import (
	"bytes"
	"time"

	"github.com/lysyi3m/story-feed/app/database"
	"github.com/lysyi3m/story-feed/app/feed"
	"github.com/lysyi3m/story-feed/app/tasks"
)

type GeneratorInterface interface {
	Run(c feed.Collection) (string, error)
}

type ExporterInterface interface {
	Run(stories []feed.Story) (*bytes.Buffer, error)
}

// StoryStore is the read side of the shared story state.
type StoryStore interface {
	Snapshot() (feed.Collection, bool)
	Notice() feed.Notice
}

var (
	_ GeneratorInterface = (*feed.Generator)(nil)
	_ ExporterInterface  = (*feed.Exporter)(nil)
	_ StoryStore         = (*feed.State)(nil)
)

type Handler struct {
	store          StoryStore
	likeRepo       database.LikeRepository
	subscriberRepo database.SubscriberRepository
	extractRepo    database.ExtractRepository
	filterer       *feed.Filterer
	generator      GeneratorInterface
	exporter       ExporterInterface
	scheduler      tasks.TaskSchedulerInterface
	baseURL        string
	placeholder    string
}

// BaseLikeCount is shown for every story; a like from the device adds one.
const BaseLikeCount = 100

type StoryResponse struct {
	ID        int       `json:"id"`
	Category  string    `json:"category"`
	Headline  string    `json:"headline"`
	Hook      string    `json:"hook"`
	Body      string    `json:"body"`
	Image     string    `json:"image"`
	Theme     string    `json:"theme"`
	Timestamp time.Time `json:"timestamp"`
	Liked     bool      `json:"liked"`
	LikeCount int       `json:"like_count"`
}

type StoryDetailResponse struct {
	StoryResponse
	DeepDive  string `json:"deep_dive"`
	SourceURL string `json:"source_url"`
	Extracted bool   `json:"extracted"`
}

type FeedResponse struct {
	Stories  []StoryResponse `json:"stories"`
	Fallback bool            `json:"fallback"`
	LoadedAt time.Time       `json:"loaded_at"`
	Total    int             `json:"total"`
	Category string          `json:"category"`
}

type ShareResponse struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type LikeResponse struct {
	ID        int  `json:"id"`
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

type SubscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
}
