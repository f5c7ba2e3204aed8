// Package api implements the HTTP surface of the import service.
//
// Routes:
//
//	POST /import-now                  → fetch one feed and enqueue its items
//	POST /import-all                  → enqueue a process-feed task per configured feed
//	GET  /import-logs                 → paginated import history, newest first
//	GET  /import-logs/:id             → one import log with its failed items
//	POST /import-logs/:id/requeue     → requeue failed items that kept a payload
//	GET  /jobs                        → paginated, searchable job records
//	GET  /jobs/:id                    → one job record
//	GET  /health                      → database and Redis liveness
//	GET  /metrics                     → Prometheus exposition
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shivambatholiya/knovator-job-import/internal/feed"
	"github.com/shivambatholiya/knovator-job-import/internal/importer"
	"github.com/shivambatholiya/knovator-job-import/internal/logger"
	"github.com/shivambatholiya/knovator-job-import/internal/model"
	"github.com/shivambatholiya/knovator-job-import/internal/store"
)

// ─── Dependencies ─────────────────────────────────────────────────────────────

// Importer starts and requeues import runs.
type Importer interface {
	StartImport(ctx context.Context, feedURL string, trigger model.Trigger) (*model.ImportLogEntry, error)
	StartImportAll(ctx context.Context) (int, error)
	RequeueFailed(ctx context.Context, importLogID string) (int, error)
}

// LogReader reads the import ledger.
type LogReader interface {
	Get(ctx context.Context, id string) (*model.ImportLogEntry, error)
	List(ctx context.Context, f store.LogFilter) ([]model.ImportLogEntry, error)
	Count(ctx context.Context, f store.LogFilter) (int, error)
}

// JobReader reads stored job records.
type JobReader interface {
	Get(ctx context.Context, id string) (*model.JobRecord, error)
	List(ctx context.Context, f store.JobFilter) ([]model.JobRecord, error)
	Count(ctx context.Context, f store.JobFilter) (int, error)
}

// Check pings one backing service for /health.
type Check func(ctx context.Context) error

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler holds shared dependencies.
type Handler struct {
	importer Importer
	logs     LogReader
	jobs     JobReader
	checks   map[string]Check
	version  string
	log      logger.Logger
}

// NewHandler returns a configured Handler. checks may be nil.
func NewHandler(imp Importer, logs LogReader, jobs JobReader, checks map[string]Check, version string, log logger.Logger) *Handler {
	return &Handler{
		importer: imp,
		logs:     logs,
		jobs:     jobs,
		checks:   checks,
		version:  version,
		log:      log.With(logger.String("component", "api")),
	}
}

// NewRouter builds a gin engine with the service middleware and all routes.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.log), cors())
	h.RegisterRoutes(router)
	return router
}

// RegisterRoutes mounts all import-service routes on router.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/import-now", h.importNow)
	router.POST("/import-all", h.importAll)

	router.GET("/import-logs", h.listImportLogs)
	router.GET("/import-logs/:id", h.getImportLog)
	router.POST("/import-logs/:id/requeue", h.requeue)

	router.GET("/jobs", h.listJobs)
	router.GET("/jobs/:id", h.getJob)
}

// ─── Import triggers ──────────────────────────────────────────────────────────

func (h *Handler) importNow(c *gin.Context) {
	var body struct {
		FeedURL string `json:"feedUrl"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.FeedURL == "" {
		jsonError(c, http.StatusBadRequest, "feedUrl required in body")
		return
	}

	entry, err := h.importer.StartImport(c.Request.Context(), body.FeedURL, model.TriggerImportNow)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":      "enqueued",
		"totalFetched": entry.TotalFetched,
		"importLogId":  entry.ID,
	})
}

func (h *Handler) importAll(c *gin.Context) {
	n, err := h.importer.StartImportAll(c.Request.Context())
	if err != nil {
		if n == 0 {
			h.fail(c, err)
			return
		}
		h.log.Warn("import-all partially enqueued", logger.Int("enqueued", n), logger.Error(err))
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":    "enqueued",
		"totalFeeds": n,
	})
}

func (h *Handler) requeue(c *gin.Context) {
	n, err := h.importer.RequeueFailed(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "enqueued": n})
}

// ─── Import logs ──────────────────────────────────────────────────────────────

func (h *Handler) listImportLogs(c *gin.Context) {
	p := parsePage(c, defaultLogLimit)
	filter := store.LogFilter{FeedURL: c.Query("feedUrl"), Limit: p.Limit, Offset: p.offset()}

	ctx := c.Request.Context()
	items, err := h.logs.List(ctx, filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	total, err := h.logs.Count(ctx, filter)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page":  p.Page,
		"limit": p.Limit,
		"total": total,
		"pages": ceilDiv(total, p.Limit),
		"items": items,
	})
}

func (h *Handler) getImportLog(c *gin.Context) {
	entry, err := h.logs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// ─── Jobs ─────────────────────────────────────────────────────────────────────

func (h *Handler) listJobs(c *gin.Context) {
	p := parsePage(c, defaultJobLimit)
	filter := store.JobFilter{
		Query:   c.Query("q"),
		FeedURL: c.Query("feedUrl"),
		Limit:   p.Limit,
		Offset:  p.offset(),
	}

	ctx := c.Request.Context()
	items, err := h.jobs.List(ctx, filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	total, err := h.jobs.Count(ctx, filter)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"page":  p.Page,
		"pages": max(1, ceilDiv(total, p.Limit)),
		"total": total,
	})
}

func (h *Handler) getJob(c *gin.Context) {
	rec, err := h.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ─── Errors ───────────────────────────────────────────────────────────────────

// fail maps err onto a status code and writes the error body.
func (h *Handler) fail(c *gin.Context, err error) {
	var (
		ve *importer.ValidationError
		fe *feed.FetchError
		pe *feed.ParseError
	)
	switch {
	case errors.As(err, &ve):
		jsonError(c, http.StatusBadRequest, ve.Msg)
	case errors.Is(err, store.ErrNotFound):
		jsonError(c, http.StatusNotFound, "not found")
	case errors.As(err, &fe), errors.As(err, &pe):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "failed to fetch or enqueue",
			"detail": err.Error(),
		})
	default:
		h.log.Error("request failed",
			logger.String("path", c.FullPath()),
			logger.Error(err),
		)
		jsonError(c, http.StatusInternalServerError, "internal server error")
	}
}

func jsonError(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"error": msg})
}
