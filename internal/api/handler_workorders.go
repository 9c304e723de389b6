package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/HomieRX/schedule-core/internal/service"
)

type registerWorkOrderRequest struct {
	ContractorID     uuid.UUID `json:"contractor_id" binding:"required"`
	ServiceRequestID uuid.UUID `json:"service_request_id" binding:"required"`
}

// RegisterWorkOrder — POST /api/work-orders.
// Заводит проекцию наряда из внешней системы заявок; график не трогает.
func (h *Handler) RegisterWorkOrder(c *gin.Context) {
	if _, ok := actorID(c); !ok {
		return
	}

	var req registerWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.scheduler.RegisterWorkOrder(c.Request.Context(), req.ContractorID, req.ServiceRequestID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"work_order": order})
}

type scheduleWorkOrderRequest struct {
	ContractorID uuid.UUID `json:"contractor_id" binding:"required"`
	Start        time.Time `json:"start" binding:"required"`
	End          time.Time `json:"end" binding:"required"`
	Strict       bool      `json:"strict"`
}

// ScheduleWorkOrder — POST /api/work-orders/:id/schedule.
// Успешный ответ может содержать непустой список конфликтов:
// для вызывающей стороны это предупреждение, а не отказ.
func (h *Handler) ScheduleWorkOrder(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req scheduleWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	iv, ok := parseInterval(c, req.Start, req.End)
	if !ok {
		return
	}

	order, conflicts, err := h.scheduler.ScheduleWorkOrder(
		c.Request.Context(), id, req.ContractorID, iv, actor, req.Strict,
	)
	if err != nil {
		if errors.Is(err, service.ErrScheduleConflict) {
			// Строгий режим: график откатан, конфликты возвращаем как справку.
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "conflicts": conflicts})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"work_order": order, "conflicts": conflicts})
}

type rescheduleWorkOrderRequest struct {
	Start  time.Time `json:"start" binding:"required"`
	End    time.Time `json:"end" binding:"required"`
	Strict bool      `json:"strict"`
}

// RescheduleWorkOrder — POST /api/work-orders/:id/reschedule.
func (h *Handler) RescheduleWorkOrder(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req rescheduleWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	iv, ok := parseInterval(c, req.Start, req.End)
	if !ok {
		return
	}

	order, conflicts, err := h.scheduler.RescheduleWorkOrder(c.Request.Context(), id, iv, actor, req.Strict)
	if err != nil {
		if errors.Is(err, service.ErrScheduleConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "conflicts": conflicts})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"work_order": order, "conflicts": conflicts})
}

// UnscheduleWorkOrder — POST /api/work-orders/:id/unschedule.
func (h *Handler) UnscheduleWorkOrder(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	order, err := h.scheduler.UnscheduleWorkOrder(c.Request.Context(), id, actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"work_order": order})
}

// GetWorkOrder — GET /api/work-orders/:id.
func (h *Handler) GetWorkOrder(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	order, err := h.scheduler.GetWorkOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"work_order": order})
}
