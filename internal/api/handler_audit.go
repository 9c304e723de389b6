package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/HomieRX/schedule-core/internal/model"
)

// GetAuditTrail — GET /api/audit.
// Либо entity_type + entity_id, либо actor_id; постранично.
func (h *Handler) GetAuditTrail(c *gin.Context) {
	page := intQuery(c, "page", 1)
	pageSize := intQuery(c, "page_size", 0)

	if rawActor := c.Query("actor_id"); rawActor != "" {
		actor, err := uuid.Parse(rawActor)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid actor_id"})
			return
		}
		trail, err := h.audit.ListForActor(c.Request.Context(), actor, page, pageSize)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, trail)
		return
	}

	entityType := model.AuditEntityType(c.Query("entity_type"))
	entityID, err := uuid.Parse(c.Query("entity_id"))
	if entityType == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entity_type and entity_id (or actor_id) are required"})
		return
	}

	trail, err := h.audit.GetAuditTrail(c.Request.Context(), entityType, entityID, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, trail)
}

func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
