package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jmpboard/jmp-tracker-backend/internal/config"
	"github.com/jmpboard/jmp-tracker-backend/internal/models"
	"github.com/jmpboard/jmp-tracker-backend/internal/services"
)

// PersonnelHandler handles personnel management HTTP requests
type PersonnelHandler struct {
	personnelService *services.PersonnelService
	config           *config.Config
	logger           *logrus.Logger
}

// NewPersonnelHandler creates a new personnel handler
func NewPersonnelHandler(personnelService *services.PersonnelService, cfg *config.Config, logger *logrus.Logger) *PersonnelHandler {
	return &PersonnelHandler{
		personnelService: personnelService,
		config:           cfg,
		logger:           logger,
	}
}

// UpsertPersonRequest represents the request to add or update a person
type UpsertPersonRequest struct {
	Name            string `json:"name" binding:"required"`
	Phone           string `json:"phone"`
	Supervisor      string `json:"supervisor"`
	SupervisorPhone string `json:"supervisor_phone"`
	Company         string `json:"company"`
}

// List handles GET /api/v1/personnel
func (h *PersonnelHandler) List(c *gin.Context) {
	people, err := h.personnelService.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"personnel": people,
		"count":     len(people),
	})
}

// Get handles GET /api/v1/personnel/:name
func (h *PersonnelHandler) Get(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))

	person, err := h.personnelService.Get(c.Request.Context(), name)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, person)
}

// Upsert handles POST /api/v1/personnel
func (h *PersonnelHandler) Upsert(c *gin.Context) {
	var req UpsertPersonRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	person := models.Person{
		Name:            strings.TrimSpace(req.Name),
		Phone:           strings.TrimSpace(req.Phone),
		Supervisor:      strings.TrimSpace(req.Supervisor),
		SupervisorPhone: strings.TrimSpace(req.SupervisorPhone),
		Company:         strings.TrimSpace(req.Company),
	}

	if err := h.personnelService.Upsert(c.Request.Context(), person); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Person saved", "name": person.Name})
}

// ImportCSV handles POST /api/v1/personnel/import - multipart upload of a
// contact roster exported from another site.
func (h *PersonnelHandler) ImportCSV(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "A CSV file upload named 'file' is required",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Could not read the uploaded file",
		})
		return
	}
	defer file.Close()

	imported, skipped, err := h.personnelService.ImportCSV(c.Request.Context(), file)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"imported": imported,
		"skipped":  skipped,
		"filename": fileHeader.Filename,
	}).Info("Personnel roster imported")

	c.JSON(http.StatusOK, gin.H{
		"imported": imported,
		"skipped":  skipped,
	})
}

// ExportCSV handles GET /api/v1/personnel/export
func (h *PersonnelHandler) ExportCSV(c *gin.Context) {
	data, err := h.personnelService.ExportCSV(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("personnel_%s.csv", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

// QRLink handles GET /api/v1/personnel/:name/qr - returns the pre-filled
// departure link for the person plus a QR image URL for printing on badges.
func (h *PersonnelHandler) QRLink(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))

	person, err := h.personnelService.Get(c.Request.Context(), name)
	if err != nil {
		h.respondError(c, err)
		return
	}

	departureURL := fmt.Sprintf("%s/depart?person=%s", h.config.Tracker.AppBaseURL, url.QueryEscape(person.Name))

	c.JSON(http.StatusOK, gin.H{
		"name":          person.Name,
		"departure_url": departureURL,
		"qr_image_url":  h.config.Tracker.QRBaseURL + url.QueryEscape(departureURL),
	})
}

func (h *PersonnelHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "person_not_found",
			Message: "No person with that name is registered",
			Code:    "PERSON_NOT_FOUND",
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
