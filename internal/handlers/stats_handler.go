package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jmpboard/jmp-tracker-backend/internal/models"
	"github.com/jmpboard/jmp-tracker-backend/internal/services"
)

// StatsHandler handles trip statistics and workbook export requests
type StatsHandler struct {
	statsService  *services.StatsService
	exportService *services.ExportService
	logger        *logrus.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService *services.StatsService, exportService *services.ExportService, logger *logrus.Logger) *StatsHandler {
	return &StatsHandler{
		statsService:  statsService,
		exportService: exportService,
		logger:        logger,
	}
}

// Statistics handles GET /api/v1/statistics
func (h *StatsHandler) Statistics(c *gin.Context) {
	stats, err := h.statsService.Compute(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportWorkbook handles GET /api/v1/export - an Excel workbook with the
// full departure history and the personnel roster.
func (h *StatsHandler) ExportWorkbook(c *gin.Context) {
	data, err := h.exportService.Workbook(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("jmp_export_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *StatsHandler) respondError(c *gin.Context, err error) {
	if errors.Is(err, models.ErrStoreUnavailable) {
		h.logger.WithError(err).Error("Sheet store unavailable")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "store_unavailable",
			Message: "The tracking sheet is unreachable. Try again shortly.",
			Code:    "STORE_UNAVAILABLE",
		})
		return
	}

	h.logger.WithError(err).Error("Unexpected error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "Something went wrong",
	})
}
