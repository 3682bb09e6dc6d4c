package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jmpboard/jmp-tracker-backend/internal/models"
	"github.com/jmpboard/jmp-tracker-backend/internal/services"
)

// GroupHandler handles team roster HTTP requests
type GroupHandler struct {
	groupService *services.GroupService
	logger       *logrus.Logger
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groupService *services.GroupService, logger *logrus.Logger) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
		logger:       logger,
	}
}

// CreateGroupRequest represents the request to create a team
type CreateGroupRequest struct {
	GroupName         string   `json:"group_name" binding:"required"`
	Members           []string `json:"members" binding:"required"`
	ResponsiblePerson string   `json:"responsible_person"`
}

// UpdateGroupRequest represents the request to edit a team roster
type UpdateGroupRequest struct {
	Members           []string `json:"members"`
	ResponsiblePerson string   `json:"responsible_person"`
}

// List handles GET /api/v1/groups
func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.groupService.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"groups": groups,
		"count":  len(groups),
	})
}

// Get handles GET /api/v1/groups/:id
func (h *GroupHandler) Get(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	group, err := h.groupService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

// Create handles POST /api/v1/groups
func (h *GroupHandler) Create(c *gin.Context) {
	var req CreateGroupRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	group, err := h.groupService.Add(c.Request.Context(), req.GroupName, req.Members, req.ResponsiblePerson)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, group)
}

// Update handles PUT /api/v1/groups/:id
func (h *GroupHandler) Update(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	var req UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	group, err := h.groupService.Update(c.Request.Context(), id, req.Members, req.ResponsiblePerson)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

func (h *GroupHandler) idParam(c *gin.Context) (int64, bool) {
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

func (h *GroupHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "group_not_found",
			Message: "No group with that id",
			Code:    "GROUP_NOT_FOUND",
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
