package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/incidentstack/incident-resolve/internal/models"
)

// Resolver is the service surface the handlers depend on.
type Resolver interface {
	Resolve(ctx context.Context, raw []byte) models.Envelope
}

// Handlers holds the HTTP endpoint implementations.
type Handlers struct {
	logger         *slog.Logger
	service        Resolver
	requestTimeout time.Duration
}

// NewHandlers constructs the endpoint handlers. requestTimeout bounds the
// end-to-end processing of a single resolution request.
func NewHandlers(logger *slog.Logger, service Resolver, requestTimeout time.Duration) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	if requestTimeout <= 0 {
		requestTimeout = 3 * time.Second
	}
	return &Handlers{
		logger:         logger,
		service:        service,
		requestTimeout: requestTimeout,
	}
}

// Resolve accepts a raw incident payload and returns the resolution
// envelope. The envelope's status code doubles as the HTTP status.
func (h *Handlers) Resolve(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorBody{
			Error:      "Invalid incident data format",
			Details:    "unable to read request body",
			IncidentID: "unknown",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	envelope := h.service.Resolve(ctx, raw)
	c.JSON(envelope.StatusCode, envelope.Body)
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
