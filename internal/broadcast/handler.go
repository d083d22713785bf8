package broadcast

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	httperr "github.com/powergrid-labs/gridtrack/internal/core/errors"
)

// DefaultSubscriberTimeout bounds the total lifetime of one stream
// connection. Clients are expected to reconnect.
const DefaultSubscriberTimeout = 60 * time.Second

// Handler serves the live update stream.
type Handler struct {
	scheduler *Scheduler
	timeout   time.Duration
}

func NewHandler(scheduler *Scheduler, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = DefaultSubscriberTimeout
	}
	return &Handler{scheduler: scheduler, timeout: timeout}
}

// RegisterRoutes registers the stream endpoint.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/activities/stream", h.StreamHandler)
}

// StreamHandler handles GET /v1/activities/stream. It writes serialized
// ChangeEvents as server-sent events until the subscriber terminates: client
// disconnect, scheduler shutdown, delivery failure or lifetime timeout.
func (h *Handler) StreamHandler(c *gin.Context) {
	sub, err := h.scheduler.Subscribe()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Live updates are unavailable",
			Details:   err.Error(),
		})
		return
	}
	defer h.scheduler.Unsubscribe(sub)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	deadline := time.NewTimer(h.timeout)
	defer deadline.Stop()
	clientGone := c.Request.Context().Done()

	c.Stream(func(w io.Writer) bool {
		select {
		case data := <-sub.Events():
			if err := sse.Encode(w, sse.Event{Data: json.RawMessage(data)}); err != nil {
				return false
			}
			return true
		case <-sub.Done():
			return false
		case <-deadline.C:
			sub.timeout()
			return false
		case <-clientGone:
			return false
		}
	})
}
