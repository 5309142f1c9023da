package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-seek/app/seedr"
	"github.com/lysyi3m/rss-seek/app/tasks"
)

const (
	msgSeedrDisabled  = "Seedr account is not configured"
	msgSeedrFailed    = "Seedr request failed"
	msgNoMagnet       = "No magnet link provided"
	msgInvalidFolder  = "Invalid folder id"
	msgSpaceRejected  = "Not enough space available. Please upgrade your plan."
	msgNoLink         = "Files found but could not get download links. Try accessing files directly from seedr.cc"
	msgNoFiles        = "Could not find any files. There may be an issue with the magnet link."
	msgNoDownloadable = "No downloadable files found in the specified folder"
)

func (h *Handler) SeedrDownload(c *gin.Context) {
	if !h.requireSeedr(c) {
		return
	}

	magnetURI, ok := bindMagnet(c)
	if !ok {
		return
	}

	outcome, err := h.seedr.Offload(c.Request.Context(), magnetURI)
	if err != nil {
		status, message := offloadError(err)
		slog.Error("Offload failed", "error", err)
		c.JSON(status, gin.H{"status": "error", "message": message})
		return
	}

	c.JSON(http.StatusOK, outcomeBody(outcome))
}

func (h *Handler) CreateOffloadJob(c *gin.Context) {
	if !h.requireSeedr(c) {
		return
	}

	magnetURI, ok := bindMagnet(c)
	if !ok {
		return
	}

	task := tasks.NewOffloadTask(magnetURI, h.seedr, h.jobs)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing offload task", "id", task.ID, "error", err)
		h.jobs.Fail(task.ID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "Failed to enqueue offload task",
			"job_id":  task.ID,
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"job_id":  task.ID,
		"job_url": "/seedr-download/jobs/" + task.ID,
	})
}

func (h *Handler) GetOffloadJob(c *gin.Context) {
	id := c.Param("id")

	job, ok := h.jobs.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Job not found"})
		return
	}

	response := gin.H{
		"job_id":     job.ID,
		"job_status": job.Status,
		"attempts":   job.Attempts,
		"created_at": job.CreatedAt,
		"updated_at": job.UpdatedAt,
	}
	if job.Error != "" {
		response["error"] = job.Error
	}
	if job.Outcome != nil {
		response["result"] = outcomeBody(job.Outcome)
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) SeedrStatus(c *gin.Context) {
	if !h.requireSeedr(c) {
		return
	}

	status, err := h.seedr.Status(c.Request.Context())
	if err != nil {
		slog.Error("Failed to get Seedr status", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": msgSeedrFailed})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "success",
		"space_info":     spaceBody(status.Space),
		"wishlist_count": len(status.Wishlist),
		"wishlist":       status.Wishlist,
		"folders_count":  len(status.Folders),
		"folders":        status.Folders,
	})
}

func (h *Handler) SeedrFolderDownload(c *gin.Context) {
	if !h.requireSeedr(c) {
		return
	}

	folderID, ok := folderParam(c)
	if !ok {
		return
	}

	download, err := h.seedr.ResolveFolder(c.Request.Context(), folderID)
	if errors.Is(err, seedr.ErrNoDownloadableFiles) {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": msgNoDownloadable})
		return
	}
	if err != nil {
		slog.Error("Failed to resolve folder", "folder_id", folderID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": msgSeedrFailed})
		return
	}

	c.JSON(http.StatusOK, downloadBody(download))
}

func (h *Handler) SeedrDeleteFolder(c *gin.Context) {
	if !h.requireSeedr(c) {
		return
	}

	folderID, ok := folderParam(c)
	if !ok {
		return
	}

	result, err := h.seedr.DeleteFolder(c.Request.Context(), folderID)
	if err != nil {
		slog.Error("Failed to delete folder", "folder_id", folderID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": msgSeedrFailed})
		return
	}

	if !result.Deleted {
		reason := result.Response.ErrorMessage()
		if reason == "" {
			reason = "Unknown error"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":        "error",
			"message":       "Failed to delete folder: " + reason,
			"error_details": result.Response,
		})
		return
	}

	slog.Info("Folder deleted", "folder_id", folderID)

	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"message":       fmt.Sprintf("Folder %d deleted successfully", folderID),
		"folders_count": len(result.Folders),
		"folders":       result.Folders,
	})
}

func (h *Handler) requireSeedr(c *gin.Context) bool {
	if h.seedr == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": msgSeedrDisabled})
		return false
	}
	return true
}

func bindMagnet(c *gin.Context) (string, bool) {
	var req MagnetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Debug("Invalid magnet request body", "error", err)
	}

	magnetURI := strings.TrimSpace(req.Magnet)
	if !strings.HasPrefix(magnetURI, "magnet:?") {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": msgNoMagnet})
		return "", false
	}
	return magnetURI, true
}

func folderParam(c *gin.Context) (int, bool) {
	folderID, err := strconv.Atoi(c.Param("folderId"))
	if err != nil || folderID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": msgInvalidFolder})
		return 0, false
	}
	return folderID, true
}

func offloadError(err error) (int, string) {
	if errors.Is(err, seedr.ErrSpaceUnavailable) {
		return http.StatusBadGateway, "Failed to get account space information"
	}
	return http.StatusInternalServerError, msgSeedrFailed
}

func outcomeBody(outcome *seedr.Outcome) gin.H {
	switch outcome.Kind {
	case seedr.OutcomeSuccess:
		return downloadBody(outcome.Download)
	case seedr.OutcomeSpaceRejected:
		return gin.H{
			"status":        "error",
			"outcome":       outcome.Kind,
			"message":       msgSpaceRejected,
			"space_info":    spaceBody(outcome.Space),
			"folders_count": len(outcome.Folders),
			"folders":       outcome.Folders,
		}
	case seedr.OutcomeNoLink:
		return gin.H{
			"status":        "error",
			"outcome":       outcome.Kind,
			"message":       msgNoLink,
			"folders_count": len(outcome.Folders),
			"folders":       outcome.Folders,
		}
	default:
		return gin.H{
			"status":        "error",
			"outcome":       seedr.OutcomeNoFiles,
			"message":       msgNoFiles,
			"space_info":    spaceBody(outcome.Space),
			"folders_count": 0,
			"folders":       []seedr.Folder{},
		}
	}
}

func downloadBody(d *seedr.Download) gin.H {
	return gin.H{
		"status":          "success",
		"download_url":    d.URL,
		"file_name":       d.FileName,
		"file_size":       d.FileSize,
		"file_size_human": humanBytes(d.FileSize),
	}
}

func spaceBody(space *seedr.SpaceInfo) gin.H {
	if space == nil {
		return nil
	}
	return gin.H{
		"space_used":            space.SpaceUsed,
		"space_max":             space.SpaceMax,
		"space_available":       space.SpaceAvailable,
		"percent_used":          space.PercentUsed,
		"space_used_human":      humanBytes(space.SpaceUsed),
		"space_max_human":       humanBytes(space.SpaceMax),
		"space_available_human": humanBytes(space.SpaceAvailable),
	}
}

func humanBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}
