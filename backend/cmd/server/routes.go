package main

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"vouch-graph/backend/internal/metrics"
	"vouch-graph/backend/internal/names"
	"vouch-graph/backend/internal/render"
	"vouch-graph/backend/internal/source"
	"vouch-graph/backend/internal/view"
)

const (
	requestIDHeader = "X-Request-ID"

	// Preview image size used by social embeds
	previewWidth  = 1200
	previewHeight = 630
	previewTicks  = 300
)

type server struct {
	fetcher   source.Fetcher
	publicURL string
	log       *zap.Logger
}

// frameAction is the body a social client posts when a frame button is pressed
type frameAction struct {
	UntrustedData struct {
		Fid         int    `json:"fid"`
		ButtonIndex int    `json:"buttonIndex"`
		URL         string `json:"url"`
	} `json:"untrustedData"`
	TrustedData struct {
		MessageBytes string `json:"messageBytes"`
	} `json:"trustedData"`
}

type frameButton struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

type frameResponse struct {
	Image   string        `json:"image"`
	Buttons []frameButton `json:"buttons"`
	PostURL string        `json:"post_url"`
}

func newRouter(s *server) *gin.Engine {
	router := gin.New()
	router.Use(requestID())
	router.Use(ginLogger(s.log))
	router.Use(requestMetrics())
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/vouching-data", s.vouchingData)
		api.POST("/frame", s.frame)
		api.GET("/og", s.preview)
	}

	return router
}

func (s *server) vouchingData(c *gin.Context) {
	data, err := s.fetcher.Fetch(c.Request.Context())
	if err != nil {
		s.log.Error("Error fetching vouching data", zap.Error(err), zap.String("request_id", c.GetString("request_id")))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch vouching data"})
		return
	}
	c.JSON(http.StatusOK, data)
}

// frame answers every button press with a redirect to the interactive graph
func (s *server) frame(c *gin.Context) {
	var req frameAction
	if err := c.ShouldBindJSON(&req); err != nil {
		s.log.Error("Error processing frame action", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process frame action"})
		return
	}

	s.log.Debug("Frame request",
		zap.Int("fid", req.UntrustedData.Fid),
		zap.Int("button", req.UntrustedData.ButtonIndex),
	)

	c.JSON(http.StatusOK, frameResponse{
		Image: s.publicURL + "/api/og",
		Buttons: []frameButton{
			{Label: "View Interactive Graph", Action: "post_redirect"},
		},
		PostURL: s.publicURL,
	})
}

// preview renders a settled layout of the current graph as SVG. Names are
// shown as shortened addresses so the request never waits on a provider.
func (s *server) preview(c *gin.Context) {
	ctx := c.Request.Context()
	data, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.log.Error("Error fetching vouching data", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch vouching data"})
		return
	}

	v := view.New(
		view.WithMode(names.ModeAddresses),
		view.WithoutAnimation(),
		view.WithLogger(s.log),
	)
	defer v.Close()

	v.Load(ctx, data)
	v.Simulation().Settle(previewTicks)
	if err := v.WaitResolved(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render graph"})
		return
	}

	frame := v.Frame()
	var buf bytes.Buffer
	if err := render.WriteSVG(&buf, &frame, previewWidth, previewHeight); err != nil {
		s.log.Error("Error rendering preview", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render graph"})
		return
	}
	c.Header("Cache-Control", "public, max-age=60")
	c.Data(http.StatusOK, "image/svg+xml", buf.Bytes())
}

// requestID tags every request with an id, reusing the caller's when present
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")),
		)
	}
}
