package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/story-feed/app/database"
	"github.com/lysyi3m/story-feed/app/feed"
	"github.com/lysyi3m/story-feed/app/tasks"
)

const deviceHeader = "X-Device-ID"

func NewHandler(store StoryStore, likeRepo database.LikeRepository, subscriberRepo database.SubscriberRepository,
	extractRepo database.ExtractRepository, generator GeneratorInterface, exporter ExporterInterface,
	scheduler tasks.TaskSchedulerInterface, baseURL, placeholder string) *Handler {
	return &Handler{
		store:          store,
		likeRepo:       likeRepo,
		subscriberRepo: subscriberRepo,
		extractRepo:    extractRepo,
		filterer:       feed.NewFilterer(),
		generator:      generator,
		exporter:       exporter,
		scheduler:      scheduler,
		baseURL:        strings.TrimRight(baseURL, "/"),
		placeholder:    placeholder,
	}
}

func (h *Handler) GetFeed(c *gin.Context) {
	collection, ok := h.snapshot(c)
	if !ok {
		return
	}

	category := c.Query("category")
	stories := h.filterer.Run(collection.Stories, category)

	liked, err := h.likedSet(deviceID(c))
	if err != nil {
		slog.Error("Database error", "operation", "get_likes", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]StoryResponse, 0, len(stories))
	for _, story := range stories {
		items = append(items, h.storyResponse(story, liked[story.ID]))
	}

	c.Header("X-Feed-Fallback", strconv.FormatBool(collection.Fallback))
	c.JSON(http.StatusOK, FeedResponse{
		Stories:  items,
		Fallback: collection.Fallback,
		LoadedAt: collection.LoadedAt,
		Total:    len(items),
		Category: strings.ToUpper(strings.TrimSpace(category)),
	})
}

func (h *Handler) GetCategories(c *gin.Context) {
	collection, ok := h.snapshot(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, h.filterer.Categories(collection.Stories))
}

func (h *Handler) GetStory(c *gin.Context) {
	story, ok := h.findStory(c)
	if !ok {
		return
	}

	liked, err := h.likeRepo.IsLiked(deviceID(c), story.ID)
	if err != nil {
		slog.Error("Database error", "operation", "is_liked", "story_id", story.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	detail := StoryDetailResponse{
		StoryResponse: h.storyResponse(story, liked),
		DeepDive:      story.DeepDive,
		SourceURL:     story.SourceURL,
	}

	if detail.DeepDive == "" && story.SourceURL != "" {
		extract, err := h.extractRepo.GetExtract(story.SourceURL)
		if err != nil {
			slog.Warn("Failed to read extracted content", "url", story.SourceURL, "error", err)
		} else if extract != nil && extract.Status == database.ExtractStatusSuccess {
			detail.DeepDive = extract.Content
			detail.Extracted = true
		}
	}

	c.JSON(http.StatusOK, detail)
}

func (h *Handler) ShareStory(c *gin.Context) {
	story, ok := h.findStory(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, ShareResponse{
		Title: story.Headline,
		URL:   fmt.Sprintf("%s/#story-%d", h.baseURL, story.ID),
	})
}

func (h *Handler) ToggleLike(c *gin.Context) {
	story, ok := h.findStory(c)
	if !ok {
		return
	}

	liked, err := h.likeRepo.ToggleLike(deviceID(c), story.ID)
	if err != nil {
		slog.Error("Database error", "operation", "toggle_like", "story_id", story.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, LikeResponse{
		ID:        story.ID,
		Liked:     liked,
		LikeCount: likeCount(liked),
	})
}

func (h *Handler) GetLikes(c *gin.Context) {
	ids, err := h.likeRepo.GetLikedIDs(deviceID(c))
	if err != nil {
		slog.Error("Database error", "operation", "get_likes", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ids":   ids,
		"total": len(ids),
	})
}

func (h *Handler) Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid email is required"})
		return
	}

	created, err := h.subscriberRepo.AddSubscriber(req.Email)
	if err != nil {
		slog.Error("Database error", "operation", "add_subscriber", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}

	c.JSON(status, gin.H{
		"subscribed":         true,
		"already_subscribed": !created,
	})
}

func (h *Handler) GetRSS(c *gin.Context) {
	collection, ok := h.snapshot(c)
	if !ok {
		return
	}

	rss, err := h.generator.Run(collection)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("X-Feed-Items", strconv.Itoa(len(collection.Stories)))
	c.Header("X-Feed-Fallback", strconv.FormatBool(collection.Fallback))
	c.Header("X-Last-Updated", collection.LoadedAt.Format(time.RFC3339))

	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(rss))
}

func (h *Handler) ExportStories(c *gin.Context) {
	collection, ok := h.snapshot(c)
	if !ok {
		return
	}

	stories := h.filterer.Run(collection.Stories, c.Query("category"))

	buf, err := h.exporter.Run(stories)
	if err != nil {
		slog.Error("Export error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export stories"})
		return
	}

	filename := fmt.Sprintf("stories-%s.xlsx", collection.LoadedAt.Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	collection, ready := h.store.Snapshot()
	health["ready"] = ready
	if ready {
		health["stories"] = len(collection.Stories)
		health["fallback"] = collection.Fallback
		health["loaded_at"] = collection.LoadedAt
	}

	health["notice"] = h.store.Notice()

	if count, err := h.subscriberRepo.GetSubscriberCount(); err == nil {
		health["subscribers"] = count
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIRefresh(c *gin.Context) {
	if err := h.scheduler.EnqueueRefresh(); err != nil {
		slog.Error("Error enqueueing refresh task", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue refresh task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Refresh task enqueued",
	})
}

func (h *Handler) snapshot(c *gin.Context) (feed.Collection, bool) {
	collection, ready := h.store.Snapshot()
	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Stories are still loading"})
		return feed.Collection{}, false
	}
	return collection, true
}

func (h *Handler) findStory(c *gin.Context) (feed.Story, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid story id"})
		return feed.Story{}, false
	}

	collection, ok := h.snapshot(c)
	if !ok {
		return feed.Story{}, false
	}

	story, found := collection.Find(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Story not found"})
		return feed.Story{}, false
	}

	return story, true
}

func (h *Handler) likedSet(device string) (map[int]bool, error) {
	ids, err := h.likeRepo.GetLikedIDs(device)
	if err != nil {
		return nil, err
	}

	liked := make(map[int]bool, len(ids))
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

func (h *Handler) storyResponse(story feed.Story, liked bool) StoryResponse {
	return StoryResponse{
		ID:        story.ID,
		Category:  story.Category,
		Headline:  story.Headline,
		Hook:      story.Hook,
		Body:      story.Body,
		Image:     story.ImageURL(h.placeholder),
		Theme:     story.Theme,
		Timestamp: story.Timestamp,
		Liked:     liked,
		LikeCount: likeCount(liked),
	}
}

func likeCount(liked bool) int {
	if liked {
		return BaseLikeCount + 1
	}
	return BaseLikeCount
}

// deviceID identifies the client for per-device likes. Clients without the
// header share likes by IP.
func deviceID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(deviceHeader)); id != "" {
		return id
	}
	return c.ClientIP()
}
