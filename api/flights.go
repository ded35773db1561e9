package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/flightsearch/internal/apperr"
	"github.com/Domenick1991/flightsearch/internal/domain"
	"github.com/Domenick1991/flightsearch/internal/service/flights"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FlightHandler struct {
	service flights.FlightUseCase
	logger  *zap.Logger
}

func NewFlightHandler(service flights.FlightUseCase, logger *zap.Logger) *FlightHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FlightHandler{service: service, logger: logger}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.roundTrip)
	router.GET("/featured", h.featured)
	router.GET("/:id", h.get)
	router.POST("", h.create)
	router.PUT("/:id", h.update)
	router.DELETE("/:id", h.delete)
}

type searchQuery struct {
	Origin        string `form:"origin"`
	Destination   string `form:"destination"`
	DepartureDate string `form:"departureDate"`
	ReturningDate string `form:"returningDate"`
	Passengers    *int   `form:"passengers"`
	Sort          string `form:"sort"`
	Order         string `form:"order"`
	Offset        *int   `form:"offset"`
	Limit         *int   `form:"limit"`
}

func (q searchQuery) criteria() (domain.SearchCriteria, error) {
	departure, err := parseDate(q.DepartureDate)
	if err != nil {
		return domain.SearchCriteria{}, apperr.Wrap(apperr.KindBadRequest, "invalid departureDate", err)
	}
	returning, err := parseDate(q.ReturningDate)
	if err != nil {
		return domain.SearchCriteria{}, apperr.Wrap(apperr.KindBadRequest, "invalid returningDate", err)
	}
	return domain.SearchCriteria{
		Origin:        q.Origin,
		Destination:   q.Destination,
		DepartureDate: departure,
		ReturningDate: returning,
		Passengers:    q.Passengers,
		Sort:          domain.SortKey(q.Sort),
		Order:         domain.Order(q.Order),
	}, nil
}

func (q searchQuery) pagination() domain.Pagination {
	p := domain.DefaultPagination()
	if q.Offset != nil {
		p.Offset = *q.Offset
	}
	if q.Limit != nil {
		p.Limit = *q.Limit
	}
	return p
}

// parseDate accepts a calendar date in local time or an RFC3339 timestamp.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, time.Local); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *FlightHandler) featured(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.writeError(c, apperr.Wrap(apperr.KindBadRequest, "invalid query", err))
		return
	}
	criteria, err := q.criteria()
	if err != nil {
		h.writeError(c, err)
		return
	}
	result, err := h.service.FindAllFeaturedFlights(c.Request.Context(), criteria, q.pagination())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *FlightHandler) roundTrip(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.writeError(c, apperr.Wrap(apperr.KindBadRequest, "invalid query", err))
		return
	}
	criteria, err := q.criteria()
	if err != nil {
		h.writeError(c, err)
		return
	}
	result, err := h.service.FindAllFlights(c.Request.Context(), criteria)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, ok := h.flightID(c)
	if !ok {
		return
	}
	flight, err := h.service.FindFlightByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) create(c *gin.Context) {
	var input domain.FlightInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.writeError(c, apperr.Wrap(apperr.KindBadRequest, "invalid request body", err))
		return
	}
	flight, err := h.service.CreateFlight(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, flight)
}

func (h *FlightHandler) update(c *gin.Context) {
	id, ok := h.flightID(c)
	if !ok {
		return
	}
	var input domain.FlightInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.writeError(c, apperr.Wrap(apperr.KindBadRequest, "invalid request body", err))
		return
	}
	flight, err := h.service.UpdateFlight(c.Request.Context(), id, input)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) delete(c *gin.Context) {
	id, ok := h.flightID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteFlight(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FlightHandler) flightID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *FlightHandler) writeError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		body := gin.H{"error": appErr.Message}
		if appErr.Details != nil {
			body["details"] = appErr.Details
		}
		c.JSON(appErr.HTTPStatus(), body)
		return
	}
	h.logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
