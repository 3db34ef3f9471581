package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/facturaia/invoice-pipeline/internal/common"
	"github.com/facturaia/invoice-pipeline/internal/pipeline"
	"github.com/facturaia/invoice-pipeline/internal/repository"
	"github.com/facturaia/invoice-pipeline/internal/storage"
)

// HealthChecker reports whether the backing document store is reachable.
type HealthChecker func(ctx *gin.Context) error

// Server wires the HTTP surface over the pipeline and repositories.
type Server struct {
	orchestrator *pipeline.Orchestrator
	invoices     repository.InvoiceRepository
	images       repository.InvoiceImageRepository
	accounting   repository.RunAccountingStore
	storage      storage.ObjectStorage
	health       HealthChecker
	logger       *slog.Logger
}

func New(
	orchestrator *pipeline.Orchestrator,
	invoices repository.InvoiceRepository,
	images repository.InvoiceImageRepository,
	accounting repository.RunAccountingStore,
	store storage.ObjectStorage,
	health HealthChecker,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		orchestrator: orchestrator,
		invoices:     invoices,
		images:       images,
		accounting:   accounting,
		storage:      store,
		health:       health,
		logger:       logger,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")

	process := api.Group("/process")
	process.GET("/health", s.healthCheck)
	process.POST("", s.processBatch)
	process.GET("/runs", s.listRuns)
	process.GET("/download/:run_id", s.downloadReport)

	invoices := api.Group("/invoices")
	invoices.GET("", s.listInvoices)
	invoices.GET("/:id", s.getInvoice)
	invoices.POST("", s.createInvoice)
	invoices.PUT("/:id", s.updateInvoice)
	invoices.DELETE("/:id", s.deleteInvoice)

	images := api.Group("/images")
	images.GET("", s.listImages)
	images.GET("/:id", s.getImage)
	images.POST("", s.uploadImages)
	images.PUT("/:id", s.replaceImage)
	images.DELETE("/:id", s.deleteImage)

	api.GET("/logs", s.listLogs)
	api.GET("/statistics", s.listStatistics)

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		rid := uuid.New().String()
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), rid))
		c.Header("X-Request-ID", rid)
		c.Next()
		s.logger.Info("http.request",
			"req_id", rid,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	if s.health != nil {
		if err := s.health(c); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondLookup translates a repository lookup into the standard HTTP shapes.
// onFound runs only for the found case.
func respondLookup[T any](c *gin.Context, l repository.Lookup[T], notFoundMsg string, onFound func(record T)) {
	switch l.Status {
	case repository.LookupFound:
		onFound(l.Record)
	case repository.LookupNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
	default:
		respondError(c, l.Err)
	}
}

func respondError(c *gin.Context, err error) {
	if errors.Is(err, common.ErrInvalidInput) || errors.Is(err, common.ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, common.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, common.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
