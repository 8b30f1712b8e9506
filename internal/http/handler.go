package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/reanalysis-maps/internal/adapter/interp"
	"go.ngs.io/reanalysis-maps/internal/domain"
	"go.ngs.io/reanalysis-maps/internal/usecase"
)

// Handler handles HTTP requests for temperature maps.
type Handler struct {
	mapUC *usecase.MapUseCase
}

// NewHandler creates a new HTTP handler.
func NewHandler(mapUC *usecase.MapUseCase) *Handler {
	return &Handler{
		mapUC: mapUC,
	}
}

// bindMapURI binds and validates the variant and date path parameters.
// It writes a 400 response and returns false on failure.
func bindMapURI(c *gin.Context) (usecase.MapRequest, bool) {
	var uri mapURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return usecase.MapRequest{}, false
	}
	if err := validate.Struct(uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return usecase.MapRequest{}, false
	}
	variant, date := uri.request()
	return usecase.MapRequest{Date: date, Variant: variant}, true
}

// GetMap handles GET /v1/maps/:variant/:date.
func (h *Handler) GetMap(c *gin.Context) {
	req, ok := bindMapURI(c)
	if !ok {
		return
	}

	fig, err := h.mapUC.Render(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	png, err := fig.PNG()
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}

// GetGrid handles GET /v1/grids/:variant/:date.
func (h *Handler) GetGrid(c *gin.Context) {
	req, ok := bindMapURI(c)
	if !ok {
		return
	}

	withValues := false
	if s := c.Query("values"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid values parameter (expected true or false)"})
			return
		}
		withValues = b
	}

	preview, err := h.mapUC.Preview(c.Request.Context(), req, withValues)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, preview)
}

// GetPoint handles GET /v1/grids/:variant/:date/point?lat=..&lon=..
func (h *Handler) GetPoint(c *gin.Context) {
	req, ok := bindMapURI(c)
	if !ok {
		return
	}

	var q pointQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid coordinates: %v", err)})
		return
	}
	if err := validate.Struct(q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	point, err := h.mapUC.Point(c.Request.Context(), req, *q.Lat, *q.Lon)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, point)
}

// GetDates handles GET /v1/dates.
func (h *Handler) GetDates(c *gin.Context) {
	c.JSON(http.StatusOK, h.mapUC.Dates())
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Index handles GET / by redirecting to the first variant's page.
func (h *Handler) Index(c *gin.Context) {
	c.Redirect(http.StatusFound, "/"+domain.Variants()[0].Name)
}

// statusOf maps use case errors to HTTP status codes.
func statusOf(err error) int {
	var fetchErr *domain.FetchError
	switch {
	case errors.Is(err, domain.ErrDateOutOfRange), errors.Is(err, interp.ErrOutsideGrid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNoData):
		return http.StatusNotFound
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes the JSON error response for err.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	body := gin.H{"error": err.Error()}
	var fetchErr *domain.FetchError
	if errors.As(err, &fetchErr) {
		body["hint"] = fetchErr.Hint()
	}
	c.JSON(statusOf(err), body)
}
