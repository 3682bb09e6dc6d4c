package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jmpboard/jmp-tracker-backend/internal/i18n"
	"github.com/jmpboard/jmp-tracker-backend/internal/models"
	"github.com/jmpboard/jmp-tracker-backend/internal/services"
)

// BoardHandler serves the live departure board: who is out, who is overdue,
// group rollups and map markers for the wall display.
type BoardHandler struct {
	departureService *services.DepartureService
	logger           *logrus.Logger
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(departureService *services.DepartureService, logger *logrus.Logger) *BoardHandler {
	return &BoardHandler{
		departureService: departureService,
		logger:           logger,
	}
}

// BoardSummary holds the headline counts shown at the top of the board
type BoardSummary struct {
	ActiveCount  int  `json:"active_count"`
	OverdueCount int  `json:"overdue_count"`
	DueSoonCount int  `json:"due_soon_count"`
	AllClear     bool `json:"all_clear"`
}

// MapPoint is a map marker for an active departure with a known location
type MapPoint struct {
	DepartureID int64                  `json:"departure_id"`
	PersonName  string                 `json:"person_name"`
	Destination string                 `json:"destination"`
	Lat         float64                `json:"lat"`
	Lon         float64                `json:"lon"`
	Status      models.DepartureStatus `json:"status"`
}

// BoardResponse is the full board payload
type BoardResponse struct {
	Summary     BoardSummary             `json:"summary"`
	Departures  []models.ActiveDeparture `json:"departures"`
	Groups      []models.GroupStatus     `json:"groups"`
	MapPoints   []MapPoint               `json:"map_points"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// Board handles GET /api/v1/board
func (h *BoardHandler) Board(c *gin.Context) {
	ctx := c.Request.Context()

	departures, err := h.departureService.ListActive(ctx)
	if err != nil {
		respondBoardError(c, h.logger, err)
		return
	}

	groups, err := h.departureService.ActiveGroups(ctx)
	if err != nil {
		respondBoardError(c, h.logger, err)
		return
	}

	summary := BoardSummary{ActiveCount: len(departures)}
	points := make([]MapPoint, 0, len(departures))
	for _, d := range departures {
		switch d.Status {
		case models.StatusOverdue:
			summary.OverdueCount++
		case models.StatusDueSoon:
			summary.DueSoonCount++
		}
		if d.LastLocation != nil {
			points = append(points, MapPoint{
				DepartureID: d.ID,
				PersonName:  d.PersonName,
				Destination: d.Destination,
				Lat:         d.LastLocation.Lat,
				Lon:         d.LastLocation.Lon,
				Status:      d.Status,
			})
		}
	}
	summary.AllClear = len(departures) == 0

	c.JSON(http.StatusOK, BoardResponse{
		Summary:     summary,
		Departures:  departures,
		Groups:      groups,
		MapPoints:   points,
		GeneratedAt: time.Now(),
	})
}

// Messages handles GET /api/v1/board/messages - the UI string table for a locale
func (h *BoardHandler) Messages(c *gin.Context) {
	locale := c.DefaultQuery("locale", i18n.DefaultLocale)

	c.JSON(http.StatusOK, gin.H{
		"locale":   locale,
		"locales":  i18n.Locales(),
		"messages": i18n.Table(locale),
	})
}

func respondBoardError(c *gin.Context, logger *logrus.Logger, err error) {
	logger.WithError(err).Error("Failed to build board payload")
	c.JSON(http.StatusServiceUnavailable, ErrorResponse{
		Error:   "store_unavailable",
		Message: "The tracking sheet is unreachable. Try again shortly.",
		Code:    "STORE_UNAVAILABLE",
	})
}
