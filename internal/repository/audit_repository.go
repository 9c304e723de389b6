package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HomieRX/schedule-core/internal/model"
)

// Журнал аудита только пополняется: Update/Delete не предусмотрены.
type AuditRepository interface {
	// Добавить запись.
	Append(ctx context.Context, entry *model.ScheduleAuditLog) error
	// История по сущности, от новых к старым.
	ListForEntity(ctx context.Context, entityType model.AuditEntityType, entityID uuid.UUID, limit, offset int) ([]model.ScheduleAuditLog, int64, error)
	// История действий актора, от новых к старым.
	ListForActor(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]model.ScheduleAuditLog, int64, error)
}

// Реализация на GORM.
type GormAuditRepository struct {
	db *gorm.DB
}

func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

func (r *GormAuditRepository) Append(ctx context.Context, entry *model.ScheduleAuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *GormAuditRepository) ListForEntity(
	ctx context.Context,
	entityType model.AuditEntityType,
	entityID uuid.UUID,
	limit, offset int,
) ([]model.ScheduleAuditLog, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.ScheduleAuditLog{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID)

	return listAuditPage(q, limit, offset)
}

func (r *GormAuditRepository) ListForActor(
	ctx context.Context,
	actorID uuid.UUID,
	limit, offset int,
) ([]model.ScheduleAuditLog, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.ScheduleAuditLog{}).
		Where("actor_id = ?", actorID)

	return listAuditPage(q, limit, offset)
}

func listAuditPage(q *gorm.DB, limit, offset int) ([]model.ScheduleAuditLog, int64, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var entries []model.ScheduleAuditLog
	if err := q.Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
