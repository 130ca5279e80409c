package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-insight-api/internal/service"
	"github.com/noah-isme/lms-insight-api/internal/store"
	"github.com/noah-isme/lms-insight-api/pkg/response"
)

// SystemHandler exposes health, observability and snapshot administration.
type SystemHandler struct {
	store   *store.Store
	cache   *service.CacheService
	metrics *service.MetricsService
	logger  *zap.Logger
}

// NewSystemHandler constructs the system handler.
func NewSystemHandler(st *store.Store, cache *service.CacheService, metrics *service.MetricsService, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{store: st, cache: cache, metrics: metrics, logger: logger}
}

// Health responds with a generic OK payload for liveness usage.
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports readiness; the service is ready once a snapshot is published.
func (h *SystemHandler) Ready(c *gin.Context) {
	if h.store == nil || h.store.Current() == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *SystemHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Metrics returns the aggregated instrumentation snapshot.
func (h *SystemHandler) Metrics(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot())
}

// ReloadSnapshot re-reads the data directory and publishes a fresh snapshot.
// The previous snapshot stays live when the reload fails. Cached reports are
// invalidated after a successful swap.
func (h *SystemHandler) ReloadSnapshot(c *gin.Context) {
	if err := h.store.Reload(); err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordSnapshotLoad()
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(c.Request.Context(), "*"); err != nil && h.logger != nil {
			h.logger.Warn("cache invalidation after reload failed", zap.Error(err))
		}
	}

	snap := h.store.Current()
	response.JSON(c, http.StatusOK, gin.H{
		"status":    "reloaded",
		"loaded_at": snap.LoadedAt,
		"students":  len(snap.Students),
		"courses":   len(snap.Courses),
	})
}
