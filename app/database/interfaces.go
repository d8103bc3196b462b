package database

type LikeRepository interface {
	ToggleLike(deviceID string, storyID int) (bool, error)
	IsLiked(deviceID string, storyID int) (bool, error)
	GetLikedIDs(deviceID string) ([]int, error)
}

type SubscriberRepository interface {
	// AddSubscriber returns false when the email was already subscribed.
	AddSubscriber(email string) (bool, error)
	GetSubscriberCount() (int, error)
}

type ExtractRepository interface {
	GetExtract(sourceURL string) (*Extract, error)
	UpsertExtract(sourceURL, content, status, errorMsg string) error
	GetPendingURLs(sourceURLs []string, maxAttempts int) ([]string, error)
}

var (
	_ LikeRepository       = (*LikeRepo)(nil)
	_ SubscriberRepository = (*SubscriberRepo)(nil)
	_ ExtractRepository    = (*ExtractRepo)(nil)
)
