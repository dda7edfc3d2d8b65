package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/channelboard/youtube-channel-dashboard-go/internal/sync"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/youtube"
)

// Refresher is the slice of the refresh service the handler consumes.
type Refresher interface {
	FullSync(ctx context.Context) (*sync.FullRefreshResult, error)
	Refresh(ctx context.Context) (*sync.IncrementalResult, error)
}

// SyncHandler triggers refreshes over HTTP.
type SyncHandler struct {
	refresher Refresher
}

// NewSyncHandler creates a new SyncHandler instance.
func NewSyncHandler(refresher Refresher) *SyncHandler {
	return &SyncHandler{refresher: refresher}
}

// FullSync runs a full refresh synchronously and reports its outcome.
func (h *SyncHandler) FullSync(c *gin.Context) {
	startTime := time.Now()

	result, err := h.refresher.FullSync(c.Request.Context())
	if err != nil {
		h.refreshError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":           "Full sync completed successfully",
		"videoCount":        result.VideoCount,
		"startTime":         startTime.UTC(),
		"endTime":           time.Now().UTC(),
		"refreshCompletion": fmt.Sprintf("%.2f", result.Elapsed.Seconds()),
	})
}

// Refresh runs an incremental refresh synchronously and reports its outcome.
func (h *SyncHandler) Refresh(c *gin.Context) {
	startTime := time.Now()

	result, err := h.refresher.Refresh(c.Request.Context())
	if err != nil {
		h.refreshError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":           "Data refreshed successfully",
		"newVideoCount":     result.NewVideoCount,
		"channelUpdated":    result.ChannelUpdated,
		"startTime":         startTime.UTC(),
		"endTime":           time.Now().UTC(),
		"refreshCompletion": fmt.Sprintf("%.2f", result.Elapsed.Seconds()),
	})
}

func (h *SyncHandler) refreshError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sync.ErrRefreshInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, youtube.ErrQuotaOrForbidden):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
