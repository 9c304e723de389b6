package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HomieRX/schedule-core/internal/model"
	"github.com/HomieRX/schedule-core/internal/paging"
	"github.com/HomieRX/schedule-core/internal/repository"
)

// AuditService — путь чтения журнала для внешней отчётности.
// Запись идёт только через recordAudit внутри транзакций мутаций.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// GetAuditTrail возвращает историю сущности постранично, от новых к старым.
func (s *AuditService) GetAuditTrail(
	ctx context.Context,
	entityType model.AuditEntityType,
	entityID uuid.UUID,
	page, pageSize int,
) (paging.Page[model.ScheduleAuditLog], error) {
	page, pageSize = paging.Normalize(page, pageSize)

	entries, total, err := repository.NewGormAuditRepository(s.db).
		ListForEntity(ctx, entityType, entityID, pageSize, (page-1)*pageSize)
	if err != nil {
		return paging.Page[model.ScheduleAuditLog]{}, err
	}
	return paging.FromTotal(entries, page, pageSize, int(total)), nil
}

// ListForActor возвращает действия актора постранично, от новых к старым.
func (s *AuditService) ListForActor(
	ctx context.Context,
	actorID uuid.UUID,
	page, pageSize int,
) (paging.Page[model.ScheduleAuditLog], error) {
	page, pageSize = paging.Normalize(page, pageSize)

	entries, total, err := repository.NewGormAuditRepository(s.db).
		ListForActor(ctx, actorID, pageSize, (page-1)*pageSize)
	if err != nil {
		return paging.Page[model.ScheduleAuditLog]{}, err
	}
	return paging.FromTotal(entries, page, pageSize, int(total)), nil
}
