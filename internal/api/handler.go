package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/HomieRX/schedule-core/internal/interval"
	"github.com/HomieRX/schedule-core/internal/service"
)

// Handler связывает HTTP-поверхность с сервисами ядра планирования.
type Handler struct {
	contractors *service.ContractorService
	slots       *service.SlotService
	scheduler   *service.SchedulerService
	detector    *service.DetectorService
	resolver    *service.ResolverService
	audit       *service.AuditService
}

func NewHandler(
	contractors *service.ContractorService,
	slots *service.SlotService,
	scheduler *service.SchedulerService,
	detector *service.DetectorService,
	resolver *service.ResolverService,
	audit *service.AuditService,
) *Handler {
	return &Handler{
		contractors: contractors,
		slots:       slots,
		scheduler:   scheduler,
		detector:    detector,
		resolver:    resolver,
		audit:       audit,
	}
}

// actorID вытаскивает идентификатор актора из заголовка X-Actor-ID.
// Аутентификация — забота внешнего слоя; здесь только атрибуция аудита.
func actorID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetHeader("X-Actor-ID")
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid X-Actor-ID header"})
		return uuid.Nil, false
	}
	return id, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func parseInterval(c *gin.Context, start, end time.Time) (interval.Interval, bool) {
	iv, err := interval.New(start, end)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return interval.Interval{}, false
	}
	return iv, true
}

// writeError переводит ошибки ядра в HTTP-статусы.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, interval.ErrInvalidInterval), errors.Is(err, interval.ErrSlotDuration):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrContractorMismatch):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrContractorInactive):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrConflictAlreadyResolved):
		status = http.StatusConflict
	case errors.Is(err, service.ErrConcurrentModification):
		// Повторы исчерпаны; клиенту стоит перечитать и ретраить.
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
