package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type syncContractorRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
	Active      *bool  `json:"active" binding:"required"`
}

// SyncContractor — PUT /api/contractors/:contractor_id.
// Принимает проекцию подрядчика от внешней системы справочника.
func (h *Handler) SyncContractor(c *gin.Context) {
	contractorID, ok := pathUUID(c, "contractor_id")
	if !ok {
		return
	}
	if _, ok := actorID(c); !ok {
		return
	}

	var req syncContractorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contractor, err := h.contractors.Sync(c.Request.Context(), contractorID, req.DisplayName, *req.Active)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contractor": contractor})
}

// GetContractor — GET /api/contractors/:contractor_id.
func (h *Handler) GetContractor(c *gin.Context) {
	contractorID, ok := pathUUID(c, "contractor_id")
	if !ok {
		return
	}

	contractor, err := h.contractors.Get(c.Request.Context(), contractorID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contractor": contractor})
}

// ListWorkOrders — GET /api/contractors/:contractor_id/work-orders.
func (h *Handler) ListWorkOrders(c *gin.Context) {
	contractorID, ok := pathUUID(c, "contractor_id")
	if !ok {
		return
	}

	orders, err := h.scheduler.ListWorkOrdersForContractor(c.Request.Context(), contractorID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"work_orders": orders})
}
