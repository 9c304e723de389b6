package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HomieRX/schedule-core/internal/model"
)

type createSlotRequest struct {
	Start time.Time      `json:"start" binding:"required"`
	End   time.Time      `json:"end" binding:"required"`
	Kind  model.SlotKind `json:"kind" binding:"required"`
}

// CreateSlot — POST /api/contractors/:contractor_id/slots.
func (h *Handler) CreateSlot(c *gin.Context) {
	contractorID, ok := pathUUID(c, "contractor_id")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req createSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	iv, ok := parseInterval(c, req.Start, req.End)
	if !ok {
		return
	}

	slot, conflicts, err := h.slots.CreateSlot(c.Request.Context(), contractorID, iv, req.Kind, actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"slot": slot, "conflicts": conflicts})
}

type declareAvailabilityRequest struct {
	Start           time.Time `json:"start" binding:"required"`
	End             time.Time `json:"end" binding:"required"`
	SlotDurationMin int       `json:"slot_duration_min" binding:"required"`
	AlignMinutes    int       `json:"align_minutes"`
}

// DeclareAvailability — POST /api/contractors/:contractor_id/slots/declare.
// Разбивает окно на слоты доступности фиксированной длительности.
func (h *Handler) DeclareAvailability(c *gin.Context) {
	contractorID, ok := pathUUID(c, "contractor_id")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req declareAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	iv, ok := parseInterval(c, req.Start, req.End)
	if !ok {
		return
	}

	slots, err := h.slots.DeclareAvailability(
		c.Request.Context(),
		contractorID,
		iv,
		time.Duration(req.SlotDurationMin)*time.Minute,
		req.AlignMinutes,
		actor,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"slots": slots})
}

type updateSlotRequest struct {
	Start time.Time `json:"start" binding:"required"`
	End   time.Time `json:"end" binding:"required"`
}

// UpdateSlot — PUT /api/slots/:id.
func (h *Handler) UpdateSlot(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req updateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	iv, ok := parseInterval(c, req.Start, req.End)
	if !ok {
		return
	}

	slot, conflicts, err := h.slots.UpdateSlot(c.Request.Context(), id, iv, actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slot": slot, "conflicts": conflicts})
}

// DeleteSlot — DELETE /api/slots/:id.
func (h *Handler) DeleteSlot(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	if err := h.slots.DeleteSlot(c.Request.Context(), id, actor); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListSlots — GET /api/contractors/:contractor_id/slots?from=&to=.
func (h *Handler) ListSlots(c *gin.Context) {
	contractorID, ok := pathUUID(c, "contractor_id")
	if !ok {
		return
	}

	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
			return
		}
		from = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
			return
		}
		to = &t
	}

	slots, err := h.slots.ListSlotsForContractor(c.Request.Context(), contractorID, from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}
