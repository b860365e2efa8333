package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/entity-extractor/internal/common"
	"github.com/joseph-ayodele/entity-extractor/internal/metrics"
	"github.com/joseph-ayodele/entity-extractor/internal/pipeline"
	"github.com/joseph-ayodele/entity-extractor/internal/report"
	"github.com/joseph-ayodele/entity-extractor/internal/repository"
)

const (
	headerRequestID    = "X-Request-ID"
	defaultPageSize    = 20
	healthCheckTimeout = 2 * time.Second
)

// BatchProcessor runs uploads and serves stored batch summaries.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, b pipeline.Batch) (*pipeline.BatchOutcome, error)
	LoadSummary(batchID string) (report.BatchSummary, error)
	OutputDir() string
}

// Deps are the collaborators the HTTP API is built from. DB and the
// repositories may be nil; the matching endpoints then report unavailable.
type Deps struct {
	Processor   BatchProcessor
	Logs        repository.ExtractionLogRepository
	Feedback    repository.FeedbackRepository
	DB          *entsql.Driver
	UploadDir   string
	MaxUploadMB int
	Logger      *slog.Logger
}

type Server struct {
	proc        BatchProcessor
	logs        repository.ExtractionLogRepository
	feedback    repository.FeedbackRepository
	db          *entsql.Driver
	uploadDir   string
	maxUploadMB int
	logger      *slog.Logger
}

func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxMB := d.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 32
	}
	return &Server{
		proc:        d.Processor,
		logs:        d.Logs,
		feedback:    d.Feedback,
		db:          d.DB,
		uploadDir:   d.UploadDir,
		maxUploadMB: maxMB,
		logger:      logger,
	}
}

// SetupRouter wires every route onto a fresh gin engine.
func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestContext())
	r.MaxMultipartMemory = int64(s.maxUploadMB) << 20

	r.POST("/upload", s.Upload)
	r.GET("/results/:batch_id", s.Results)
	r.GET("/download/:filename", s.Download)
	r.GET("/history", s.History)
	r.POST("/feedback", s.SubmitFeedback)
	r.GET("/feedback", s.ListFeedback)
	r.GET("/healthz", s.Health)

	prom := promhttp.Handler()
	r.GET("/metrics", func(c *gin.Context) {
		metrics.UpdateSystemMetrics()
		prom.ServeHTTP(c.Writer, c.Request)
	})
	return r
}

// requestContext tags each request with an ID and a request-scoped logger,
// and logs the request once it completes.
func (s *Server) requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(headerRequestID, reqID)

		log := s.logger.With("request_id", reqID)
		ctx := common.WithRequestID(c.Request.Context(), reqID)
		ctx = common.WithLogger(ctx, log)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		log.Info("http.request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"client_ip", c.ClientIP(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (s *Server) log(c *gin.Context) *slog.Logger {
	return common.LoggerFromContext(c.Request.Context(), s.logger)
}

// fail writes err as {"error": msg} with the status its kind maps to.
// Internal errors never leak their cause.
func (s *Server) fail(c *gin.Context, err error) {
	status := common.HTTPStatus(err)
	msg := common.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.log(c).Error("http.request.failed", "path", c.FullPath(), "error", err)
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// Health pings the database when one is configured.
func (s *Server) Health(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "disabled"})
		return
	}
	if err := repository.HealthCheck(c.Request.Context(), s.db, healthCheckTimeout, s.log(c)); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": common.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok"})
}
