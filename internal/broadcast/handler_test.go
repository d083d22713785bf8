package broadcast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// closeNotifyRecorder adds the http.CloseNotifier method that
// gin.Context.Stream requires but httptest.ResponseRecorder lacks.
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func newCloseNotifyRecorder() *closeNotifyRecorder {
	return &closeNotifyRecorder{httptest.NewRecorder(), make(chan bool, 1)}
}

func (c *closeNotifyRecorder) CloseNotify() <-chan bool { return c.closed }

func TestStreamHandler_DeliversEventsUntilTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewScheduler(NewRegistry(), Options{HeartbeatInterval: time.Hour})
	h := NewHandler(s, 100*time.Millisecond)

	r := gin.New()
	h.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/v1/activities/stream", nil)
	w := newCloseNotifyRecorder()
	r.ServeHTTP(w, req) // returns once the lifetime deadline fires

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	// The synchronous heartbeat is the first frame on every stream.
	require.Contains(t, w.Body.String(), `"action":"HEARTBEAT"`)
	require.Equal(t, 0, s.Registry().Len())
}

func TestStreamHandler_UnavailableAfterShutdown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewScheduler(NewRegistry(), Options{HeartbeatInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, s.Start(ctx))

	h := NewHandler(s, time.Second)
	r := gin.New()
	h.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/v1/activities/stream", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
