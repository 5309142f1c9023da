package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-seek/app/feed"
	"github.com/lysyi3m/rss-seek/app/match"
	"github.com/lysyi3m/rss-seek/app/metrics"
	"github.com/lysyi3m/rss-seek/app/tasks"
)

const noLinksMessage = "🎥 Found it! 😔 Sadly, no working download links. Please try again"

func NewHandler(matcher MatcherInterface, extractor LinkExtractorInterface, seedr SeedrInterface,
	scheduler tasks.TaskSchedulerInterface, jobs *tasks.Jobs, configCache *feed.ConfigCache, version string) *Handler {
	return &Handler{
		matcher:     matcher,
		extractor:   extractor,
		seedr:       seedr,
		scheduler:   scheduler,
		jobs:        jobs,
		configCache: configCache,
		version:     version,
	}
}

func (h *Handler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Debug("Invalid search request body", "error", err)
	}

	result, err := h.matcher.Run(c.Request.Context(), req.Query)
	if err != nil {
		status, message, outcome := searchError(err)
		metrics.SearchOutcomesTotal.WithLabelValues(outcome).Inc()
		if status == http.StatusInternalServerError {
			slog.Error("Search failed", "query", req.Query, "error", err)
		} else {
			slog.Info("Search returned no result", "query", req.Query, "reason", err)
		}
		c.JSON(status, gin.H{"error": message, "success": false})
		return
	}

	files := h.extractor.Run(c.Request.Context(), result.Item.Link)

	rating := result.Item.Rating
	if rating == "" {
		rating = "N/A"
	}

	response := gin.H{
		"title":   result.Item.Title,
		"score":   result.Score * 100,
		"files":   files,
		"link":    result.Item.Link,
		"image":   result.Item.Image,
		"rating":  rating,
		"success": true,
	}

	if len(files) == 0 {
		response["message"] = noLinksMessage
		metrics.SearchOutcomesTotal.WithLabelValues("no_links").Inc()
	} else {
		metrics.SearchOutcomesTotal.WithLabelValues("match").Inc()
	}

	slog.Info("Search matched", "query", req.Query, "title", result.Item.Title, "score", result.Score, "files", len(files))

	c.JSON(http.StatusOK, response)
}

func searchError(err error) (status int, message, outcome string) {
	switch {
	case errors.Is(err, match.ErrEmptyQuery):
		return http.StatusBadRequest, "No query provided", "invalid"
	case errors.Is(err, match.ErrNoItems):
		return http.StatusNotFound, "No movies in feed", "no_items"
	case errors.Is(err, match.ErrNoGoodMatch):
		return http.StatusNotFound, "No good matches found for your query", "no_match"
	default:
		return http.StatusInternalServerError, "Server error while processing request", "error"
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":                "ok",
		"version":               h.version,
		"timestamp":             time.Now().In(time.Local).Format(time.RFC3339),
		"loaded_configurations": h.configCache.GetConfigCount(),
		"seedr_enabled":         h.seedr != nil,
	}

	if h.jobs != nil {
		health["jobs"] = h.jobs.Count()
	}

	c.JSON(http.StatusOK, health)
}
