package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/HomieRX/schedule-core/internal/model"
	"github.com/HomieRX/schedule-core/internal/paging"
	"github.com/HomieRX/schedule-core/internal/service"
)

type checkConflictsRequest struct {
	Start      time.Time                `json:"start" binding:"required"`
	End        time.Time                `json:"end" binding:"required"`
	EntityKind model.ConflictEntityKind `json:"entity_kind" binding:"required"`
	EntityID   uuid.UUID                `json:"entity_id" binding:"required"`
}

// CheckConflicts — POST /api/contractors/:contractor_id/conflicts/check.
// Прогоняет детектор для кандидата; найденные конфликты фиксируются.
func (h *Handler) CheckConflicts(c *gin.Context) {
	contractorID, ok := pathUUID(c, "contractor_id")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req checkConflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	iv, ok := parseInterval(c, req.Start, req.End)
	if !ok {
		return
	}

	conflicts, err := h.detector.DetectConflicts(
		c.Request.Context(),
		contractorID,
		iv,
		service.ScheduleContext{Kind: req.EntityKind, ID: req.EntityID},
		actor,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conflicts": conflicts})
}

// ListConflicts — GET /api/contractors/:contractor_id/conflicts?status=&page=&page_size=.
func (h *Handler) ListConflicts(c *gin.Context) {
	contractorID, ok := pathUUID(c, "contractor_id")
	if !ok {
		return
	}

	status := model.ConflictStatus(c.Query("status"))
	conflicts, err := h.detector.ListConflictsForContractor(c.Request.Context(), contractorID, status)
	if err != nil {
		writeError(c, err)
		return
	}

	page := paging.Paginate(conflicts, intQuery(c, "page", 1), intQuery(c, "page_size", 0))
	c.JSON(http.StatusOK, page)
}

type resolveRescheduleRequest struct {
	WinningEntityID uuid.UUID `json:"winning_entity_id" binding:"required"`
	Start           time.Time `json:"start" binding:"required"`
	End             time.Time `json:"end" binding:"required"`
}

// ResolveByReschedule — POST /api/conflicts/:id/reschedule.
func (h *Handler) ResolveByReschedule(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req resolveRescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	iv, ok := parseInterval(c, req.Start, req.End)
	if !ok {
		return
	}

	conflict, followups, err := h.resolver.ResolveByReschedule(c.Request.Context(), id, req.WinningEntityID, iv, actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conflict": conflict, "conflicts": followups})
}

type resolveCancelRequest struct {
	CancelledEntityID uuid.UUID `json:"cancelled_entity_id" binding:"required"`
}

// ResolveByCancellation — POST /api/conflicts/:id/cancel.
func (h *Handler) ResolveByCancellation(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req resolveCancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conflict, err := h.resolver.ResolveByCancellation(c.Request.Context(), id, req.CancelledEntityID, actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conflict": conflict})
}

type dismissRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Dismiss — POST /api/conflicts/:id/dismiss.
func (h *Handler) Dismiss(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req dismissRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conflict, err := h.resolver.Dismiss(c.Request.Context(), id, req.Reason, actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conflict": conflict})
}
