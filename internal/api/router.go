package api

import (
	"github.com/gin-gonic/gin"
)

// NewRouter собирает HTTP-поверхность ядра планирования.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	api := r.Group("/api")
	{
		api.PUT("/contractors/:contractor_id", h.SyncContractor)
		api.GET("/contractors/:contractor_id", h.GetContractor)
		api.GET("/contractors/:contractor_id/work-orders", h.ListWorkOrders)

		api.POST("/contractors/:contractor_id/slots", h.CreateSlot)
		api.POST("/contractors/:contractor_id/slots/declare", h.DeclareAvailability)
		api.GET("/contractors/:contractor_id/slots", h.ListSlots)
		api.PUT("/slots/:id", h.UpdateSlot)
		api.DELETE("/slots/:id", h.DeleteSlot)

		api.POST("/work-orders", h.RegisterWorkOrder)
		api.GET("/work-orders/:id", h.GetWorkOrder)
		api.POST("/work-orders/:id/schedule", h.ScheduleWorkOrder)
		api.POST("/work-orders/:id/reschedule", h.RescheduleWorkOrder)
		api.POST("/work-orders/:id/unschedule", h.UnscheduleWorkOrder)

		api.POST("/contractors/:contractor_id/conflicts/check", h.CheckConflicts)
		api.GET("/contractors/:contractor_id/conflicts", h.ListConflicts)
		api.POST("/conflicts/:id/reschedule", h.ResolveByReschedule)
		api.POST("/conflicts/:id/cancel", h.ResolveByCancellation)
		api.POST("/conflicts/:id/dismiss", h.Dismiss)

		api.GET("/audit", h.GetAuditTrail)
	}

	return r
}
