package reporting

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	v1 "github.com/powergrid-labs/gridtrack/internal/api/v1"
	httperr "github.com/powergrid-labs/gridtrack/internal/core/errors"
	"github.com/powergrid-labs/gridtrack/internal/core/storage"
)

const maxPageSize = 1000

// RegisterRoutes registers the read-path routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/activities", s.ListHandler)
	r.GET("/v1/activities/:id", s.GetHandler)
	r.GET("/v1/activities/distinct", s.DistinctHandler)

	r.POST("/v1/query/calculate", s.CalculateHandler)
	r.POST("/v1/query/date-range", s.DateRangeHandler)
	r.POST("/v1/query/batch", s.BatchHandler)

	r.GET("/v1/dashboard/stats", s.DashboardStatsHandler)
	r.GET("/v1/dashboard/summary", s.SummaryHandler)
	r.GET("/v1/dashboard/suggestion", s.SuggestionHandler)
}

// ListHandler handles GET /v1/activities.
// Query parameters: page, size, search, state, category, dateRange
// ("YYYY-MM-DD to YYYY-MM-DD"), sortBy, sortDir.
func (s *Service) ListHandler(c *gin.Context) {
	filter := storage.ListFilter{
		Search:  c.Query("search"),
		SortBy:  c.Query("sortBy"),
		SortDir: c.Query("sortDir"),
		Page:    intQuery(c, "page", 0),
		Size:    intQuery(c, "size", 20),
	}
	if filter.Size < 1 {
		filter.Size = 1
	}
	if filter.Size > maxPageSize {
		filter.Size = maxPageSize
	}
	if v := c.Query("state"); v != "" {
		filter.States = splitCSV(v)
	}
	if v := c.Query("category"); v != "" {
		filter.Categories = splitCSV(v)
	}
	if v := c.Query("dateRange"); v != "" {
		parts := strings.SplitN(v, " to ", 2)
		filter.DateStart = strings.TrimSpace(parts[0])
		if len(parts) == 2 {
			filter.DateEnd = strings.TrimSpace(parts[1])
		}
	}

	page, err := s.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activities":    page.Activities,
		"currentPage":   filter.Page,
		"pageSize":      filter.Size,
		"totalPages":    page.TotalPages,
		"totalElements": page.TotalElements,
	})
}

// GetHandler handles GET /v1/activities/:id.
func (s *Service) GetHandler(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpValidationError,
			Message:   "Invalid id",
			Details:   c.Param("id"),
		})
		return
	}

	a, err := s.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// DistinctHandler handles GET /v1/activities/distinct?field=.
func (s *Service) DistinctHandler(c *gin.Context) {
	field := c.Query("field")
	values, err := s.Distinct(c.Request.Context(), field)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"field": field, "values": values})
}

// CalculateHandler handles POST /v1/query/calculate. The result payload
// carries evaluation errors in errorMessage; the HTTP status stays 200 so
// clients always parse one shape.
func (s *Service) CalculateHandler(c *gin.Context) {
	var req CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Calculate(c.Request.Context(), req))
}

// DateRangeHandler handles POST /v1/query/date-range.
func (s *Service) DateRangeHandler(c *gin.Context) {
	var req DateRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, s.DateRange(c.Request.Context(), req))
}

// BatchHandler handles POST /v1/query/batch.
func (s *Service) BatchHandler(c *gin.Context) {
	var body struct {
		Queries []BatchQueryInput `json:"queries"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeBadJSON(c, err)
		return
	}
	if len(body.Queries) == 0 {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpValidationError,
			Message:   "at least one query is required",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": s.Batch(c.Request.Context(), body.Queries)})
}

// DashboardStatsHandler handles GET /v1/dashboard/stats?start=&end=.
// Missing bounds default to the acceptance window.
func (s *Service) DashboardStatsHandler(c *gin.Context) {
	start := s.window.Start
	end := s.window.End
	if v := c.Query("start"); v != "" {
		t, err := time.Parse(v1.DateLayout, v)
		if err != nil {
			writeError(c, httperr.NewValidation("start", v, "must be a valid date in YYYY-MM-DD format"))
			return
		}
		start = t
	}
	if v := c.Query("end"); v != "" {
		t, err := time.Parse(v1.DateLayout, v)
		if err != nil {
			writeError(c, httperr.NewValidation("end", v, "must be a valid date in YYYY-MM-DD format"))
			return
		}
		end = t
	}
	if end.Before(start) {
		writeError(c, httperr.NewValidation("end", c.Query("end"), "must not be before start"))
		return
	}

	stats, err := s.DashboardStats(c.Request.Context(), start, end)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SummaryHandler handles GET /v1/dashboard/summary.
func (s *Service) SummaryHandler(c *gin.Context) {
	sum, err := s.Summary(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// SuggestionHandler handles GET /v1/dashboard/suggestion.
func (s *Service) SuggestionHandler(c *gin.Context) {
	sug, err := s.Suggestion(c.Request.Context())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, httperr.ErrorResponse{
				ErrorType: httperr.HttpNotFoundError,
				Message:   "No dated activities inside the acceptance window",
			})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sug)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeBadJSON(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
		ErrorType: httperr.HttpInvalidJsonError,
		Message:   "Invalid JSON body",
		Details:   err.Error(),
	})
}

// writeError maps service errors onto the HTTP error taxonomy.
func writeError(c *gin.Context, err error) {
	switch {
	case httperr.IsValidation(err):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpValidationError,
			Message:   err.Error(),
		})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   "Activity not found",
		})
	default:
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Internal error",
			Details:   err.Error(),
		})
	}
}
