package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"babylog/internal/models"
	"babylog/internal/relay"
	"babylog/internal/tempstore"
	"babylog/internal/worker"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// JobRunner accepts a submission for detached background processing.
type JobRunner interface {
	Enqueue(models.Submission) error
}

// Relay forwards one entry synchronously; used by the button endpoint where
// there is no slow step to push into the background.
type Relay interface {
	Submit(ctx context.Context, date, timeOfDay, logType, transcript string) error
}

// SheetFetcher returns the raw CSV of the downstream spreadsheet.
type SheetFetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Handler wires HTTP routes to the temp store, the job runner, and the relay.
type Handler struct {
	store     *tempstore.Store
	jobs      JobRunner
	relay     Relay
	sheet     SheetFetcher
	maxUpload int64
}

func NewHandler(store *tempstore.Store, jobs JobRunner, relay Relay, sheet SheetFetcher, maxUpload int64) *Handler {
	return &Handler{
		store:     store,
		jobs:      jobs,
		relay:     relay,
		sheet:     sheet,
		maxUpload: maxUpload,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.health)
	router.POST("/log-baby", h.logBaby)
	router.POST("/log-button", h.logButton)
	router.GET("/api/data", h.sheetData)
}

func (h *Handler) health(c *gin.Context) {
	c.String(http.StatusOK, "Baby Log API is Online")
}

// logBaby accepts a voice clip, parks it on disk and acknowledges
// immediately. The response never reflects the classification outcome;
// accepted is not the same as fully processed.
func (h *Handler) logBaby(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No audio file provided"})
		return
	}
	if strings.TrimSpace(file.Filename) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No selected file"})
		return
	}
	if h.maxUpload > 0 && file.Size > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "open uploaded file failed"})
		return
	}
	defer src.Close()

	path, err := h.store.Save(file.Filename, src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save file failed"})
		return
	}

	now := time.Now()
	sub := models.Submission{
		FilePath: path,
		Activity: strings.TrimSpace(c.PostForm("activity")),
		Date:     now.Format(dateLayout),
		Time:     now.Format(timeLayout),
	}
	if err := h.jobs.Enqueue(sub); err != nil {
		// Nothing will ever consume the file once enqueue fails.
		if removeErr := h.store.Remove(path); removeErr != nil {
			log.Printf("remove unqueued temp file %s failed: %v", path, removeErr)
		}
		if errors.Is(err, worker.ErrQueueFull) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "server is busy, please retry"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Processing..."})
}

type buttonRequest struct {
	Type string `json:"type"`
	Note string `json:"note"`
}

// logButton relays a pre-classified entry synchronously; the response
// reflects the single relay call's outcome.
func (h *Handler) logButton(c *gin.Context) {
	var req buttonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	logType := strings.TrimSpace(req.Type)
	if logType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type is required"})
		return
	}
	transcript := strings.TrimSpace(req.Note)
	if transcript == "" {
		transcript = relay.ManualFallbackNote
	}

	now := time.Now()
	if err := h.relay.Submit(c.Request.Context(), now.Format(dateLayout), now.Format(timeLayout), logType, transcript); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Logged " + logType})
}

func (h *Handler) sheetData(c *gin.Context) {
	data, err := h.sheet.Fetch(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/csv", data)
}
