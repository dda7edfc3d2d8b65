package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/channelboard/youtube-channel-dashboard-go/internal/middleware"
	"github.com/channelboard/youtube-channel-dashboard-go/internal/websocket"
)

// NewRouter wires every endpoint. The refresh-trigger endpoints sit behind
// API key auth; everything else is public.
func NewRouter(
	dashboard *DashboardHandler,
	syncHandler *SyncHandler,
	health *HealthHandler,
	hub *websocket.Hub,
	auth *middleware.APIKeyAuth,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	{
		api.GET("/channel", dashboard.GetChannel)
		api.GET("/stats", dashboard.GetStats)
		api.GET("/channel-stats", dashboard.GetChannelStats)
		api.GET("/videos", dashboard.ListVideos)
		api.GET("/years", dashboard.GetYears)
		api.GET("/monthly-channel-stats", dashboard.GetMonthlyStats)
		api.GET("/yearly-stats", dashboard.GetYearlyStats)
		api.GET("/highlight-videos", dashboard.GetHighlightVideos)
		api.GET("/top-videos", dashboard.GetTopVideos)
		api.GET("/top-videos-by-month", dashboard.GetTopVideosByMonth)
		api.GET("/most-viewed-videos", dashboard.GetMostViewedVideos)
		api.GET("/monthly-stats-all", dashboard.GetMonthlyStatsAll)

		api.POST("/full-sync", auth.Middleware(), syncHandler.FullSync)
		api.POST("/refresh", auth.Middleware(), syncHandler.Refresh)
	}

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWS(hub, c.Writer, c.Request)
	})

	router.GET("/health", health.LivenessProbe)
	router.GET("/health/ready", health.ReadinessProbe)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
