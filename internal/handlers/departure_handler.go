package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jmpboard/jmp-tracker-backend/internal/config"
	"github.com/jmpboard/jmp-tracker-backend/internal/models"
	"github.com/jmpboard/jmp-tracker-backend/internal/services"
	"github.com/jmpboard/jmp-tracker-backend/pkg/geo"
)

// DepartureHandler handles departure and arrival HTTP requests
type DepartureHandler struct {
	departureService *services.DepartureService
	personnelService *services.PersonnelService
	config           *config.Config
	logger           *logrus.Logger
}

// NewDepartureHandler creates a new departure handler
func NewDepartureHandler(
	departureService *services.DepartureService,
	personnelService *services.PersonnelService,
	cfg *config.Config,
	logger *logrus.Logger,
) *DepartureHandler {
	return &DepartureHandler{
		departureService: departureService,
		personnelService: personnelService,
		config:           cfg,
		logger:           logger,
	}
}

// CreateDepartureRequest represents the request to log an individual departure
type CreateDepartureRequest struct {
	PersonName     string  `json:"person_name" binding:"required"`
	Destination    string  `json:"destination" binding:"required"`
	DurationHours  float64 `json:"duration_hours"`
	ExpectedReturn string  `json:"expected_return"` // RFC3339; overrides duration_hours
	Coordinates    string  `json:"coordinates"`     // "lat, lon"
}

// CreateGroupDepartureRequest represents the request to log a group departure
type CreateGroupDepartureRequest struct {
	GroupID        int64   `json:"group_id" binding:"required"`
	Destination    string  `json:"destination" binding:"required"`
	DurationHours  float64 `json:"duration_hours"`
	ExpectedReturn string  `json:"expected_return"`
	Coordinates    string  `json:"coordinates"`
}

// ExtendRequest represents the request to extend an active departure
type ExtendRequest struct {
	Hours       int    `json:"hours" binding:"required"`
	Coordinates string `json:"coordinates"`
}

// UpdateLocationRequest represents a location check-in for an active departure
type UpdateLocationRequest struct {
	Lat float64 `json:"lat" binding:"required"`
	Lon float64 `json:"lon" binding:"required"`
}

// Create handles POST /api/v1/departures
func (h *DepartureHandler) Create(c *gin.Context) {
	var req CreateDepartureRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	expectedReturn, ok := h.resolveExpectedReturn(c, req.ExpectedReturn, req.DurationHours)
	if !ok {
		return
	}

	location, ok := h.resolveCoordinates(c, req.Coordinates)
	if !ok {
		return
	}

	person, err := h.personnelService.Get(c.Request.Context(), req.PersonName)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "person_not_found",
				Message: "Person is not registered. Add them to the personnel list first.",
				Code:    "PERSON_NOT_FOUND",
			})
			return
		}
		h.respondServiceError(c, err)
		return
	}

	departure, err := h.departureService.Add(c.Request.Context(), services.AddDepartureInput{
		PersonName:      person.Name,
		Destination:     req.Destination,
		ExpectedReturn:  expectedReturn,
		Phone:           person.Phone,
		Supervisor:      person.Supervisor,
		Company:         person.Company,
		InitialLocation: location,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, departure)
}

// CreateGroup handles POST /api/v1/departures/group
func (h *DepartureHandler) CreateGroup(c *gin.Context) {
	var req CreateGroupDepartureRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	expectedReturn, ok := h.resolveExpectedReturn(c, req.ExpectedReturn, req.DurationHours)
	if !ok {
		return
	}

	location, ok := h.resolveCoordinates(c, req.Coordinates)
	if !ok {
		return
	}

	contacts, err := h.personnelService.ContactsByName(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	result, err := h.departureService.AddGroupDeparture(c.Request.Context(), req.GroupID, req.Destination, expectedReturn, contacts, location)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if len(result.Failed) > 0 {
		// Some members were logged, some were not
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}

// ListActive handles GET /api/v1/departures/active
func (h *DepartureHandler) ListActive(c *gin.Context) {
	active, err := h.departureService.ListActive(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"departures": active,
		"count":      len(active),
	})
}

// Return handles POST /api/v1/departures/:id/return
func (h *DepartureHandler) Return(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	result, err := h.departureService.MarkReturned(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ReturnGroup handles POST /api/v1/departures/group/:id/return
func (h *DepartureHandler) ReturnGroup(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	result, err := h.departureService.MarkGroupReturned(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Extend handles POST /api/v1/departures/:id/extend
func (h *DepartureHandler) Extend(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	var req ExtendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	location, coordsOK := h.resolveCoordinates(c, req.Coordinates)
	if !coordsOK {
		return
	}

	departure, err := h.departureService.Extend(c.Request.Context(), id, req.Hours, location)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, departure)
}

// UpdateLocation handles POST /api/v1/departures/:id/location
func (h *DepartureHandler) UpdateLocation(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	if err := h.departureService.UpdateLocation(c.Request.Context(), id, req.Lat, req.Lon); err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Location updated"})
}

// ListExtensions handles GET /api/v1/departures/:id/extensions
func (h *DepartureHandler) ListExtensions(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	extensions, err := h.departureService.Extensions(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"extensions": extensions,
		"count":      len(extensions),
	})
}

func (h *DepartureHandler) idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid id parameter",
		})
		return 0, false
	}
	return id, true
}

// resolveExpectedReturn picks the explicit timestamp when given, otherwise
// now + duration_hours (falling back to the configured default duration).
func (h *DepartureHandler) resolveExpectedReturn(c *gin.Context, explicit string, durationHours float64) (time.Time, bool) {
	if explicit != "" {
		t, err := time.Parse(time.RFC3339, explicit)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "expected_return must be RFC3339",
			})
			return time.Time{}, false
		}
		return t, true
	}

	hours := durationHours
	if hours <= 0 {
		hours = float64(h.config.Tracker.DefaultDepartureHours)
	}
	return time.Now().Add(time.Duration(hours * float64(time.Hour))), true
}

func (h *DepartureHandler) resolveCoordinates(c *gin.Context, coords string) (*geo.Location, bool) {
	if coords == "" {
		return nil, true
	}

	lat, lon, err := geo.ParseCoordinates(coords)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_coordinates",
			Message: err.Error(),
		})
		return nil, false
	}

	return &geo.Location{Lat: lat, Lon: lon, Timestamp: time.Now()}, true
}

func (h *DepartureHandler) respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrStoreUnavailable):
		h.logger.WithError(err).Error("Sheet store unavailable")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "store_unavailable",
			Message: "The tracking sheet is unreachable. Try again shortly.",
			Code:    "STORE_UNAVAILABLE",
		})
	default:
		h.logger.WithError(err).Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Something went wrong",
		})
	}
}
