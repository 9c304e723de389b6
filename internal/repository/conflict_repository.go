package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HomieRX/schedule-core/internal/model"
)

type ConflictRepository interface {
	// Создать конфликт.
	Create(ctx context.Context, conflict *model.ScheduleConflict) error
	// Найти конфликт по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.ScheduleConflict, error)
	// Открытый конфликт для канонически упорядоченной пары сторон.
	FindOpenByPair(ctx context.Context, contractorID uuid.UUID, a, b model.ConflictSide) (*model.ScheduleConflict, error)
	// Обновить зафиксированное пересечение открытого конфликта.
	UpdateOverlap(ctx context.Context, id uuid.UUID, overlapStart, overlapEnd time.Time) error
	// Конфликты подрядчика; status — необязательный фильтр.
	ListByContractor(ctx context.Context, contractorID uuid.UUID, status model.ConflictStatus) ([]model.ScheduleConflict, error)
	// Перевести открытый конфликт в терминальный статус.
	// Возвращает количество затронутых строк: 0 — конфликт уже терминален.
	ClaimTerminal(ctx context.Context, id uuid.UUID, status model.ConflictStatus, note string, resolvedBy uuid.UUID, resolvedAt time.Time) (int64, error)
	// Вернуть конфликт в open, очистив метаданные разрешения.
	Reopen(ctx context.Context, id uuid.UUID) error
}

// Реализация на GORM.
type GormConflictRepository struct {
	db *gorm.DB
}

func NewGormConflictRepository(db *gorm.DB) *GormConflictRepository {
	return &GormConflictRepository{db: db}
}

func (r *GormConflictRepository) Create(ctx context.Context, conflict *model.ScheduleConflict) error {
	return r.db.WithContext(ctx).Create(conflict).Error
}

func (r *GormConflictRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ScheduleConflict, error) {
	var conflict model.ScheduleConflict
	if err := r.db.WithContext(ctx).First(&conflict, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &conflict, nil
}

func (r *GormConflictRepository) FindOpenByPair(
	ctx context.Context,
	contractorID uuid.UUID,
	a, b model.ConflictSide,
) (*model.ScheduleConflict, error) {
	var conflict model.ScheduleConflict
	err := r.db.WithContext(ctx).
		Where("contractor_id = ?", contractorID).
		Where("side_a_kind = ? AND side_a_id = ?", a.Kind, a.ID).
		Where("side_b_kind = ? AND side_b_id = ?", b.Kind, b.ID).
		Where("status = ?", model.ConflictStatusOpen).
		First(&conflict).Error
	if err != nil {
		return nil, err
	}
	return &conflict, nil
}

func (r *GormConflictRepository) UpdateOverlap(ctx context.Context, id uuid.UUID, overlapStart, overlapEnd time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.ScheduleConflict{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"overlap_start": overlapStart,
			"overlap_end":   overlapEnd,
		}).
		Error
}

func (r *GormConflictRepository) ListByContractor(
	ctx context.Context,
	contractorID uuid.UUID,
	status model.ConflictStatus,
) ([]model.ScheduleConflict, error) {
	q := r.db.WithContext(ctx).
		Model(&model.ScheduleConflict{}).
		Where("contractor_id = ?", contractorID)

	if status != "" {
		q = q.Where("status = ?", status)
	}

	var conflicts []model.ScheduleConflict
	if err := q.Order("created_at ASC").Find(&conflicts).Error; err != nil {
		return nil, err
	}
	return conflicts, nil
}

func (r *GormConflictRepository) ClaimTerminal(
	ctx context.Context,
	id uuid.UUID,
	status model.ConflictStatus,
	note string,
	resolvedBy uuid.UUID,
	resolvedAt time.Time,
) (int64, error) {
	// Guarded update: переход возможен только из open.
	res := r.db.WithContext(ctx).
		Model(&model.ScheduleConflict{}).
		Where("id = ? AND status = ?", id, model.ConflictStatusOpen).
		Updates(map[string]any{
			"status":          status,
			"resolution_note": note,
			"resolved_by":     resolvedBy,
			"resolved_at":     resolvedAt,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// Reopen — компенсация неудавшегося разрешения: конфликт возвращается
// в open, метаданные разрешения очищаются.
func (r *GormConflictRepository) Reopen(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.ScheduleConflict{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":          model.ConflictStatusOpen,
			"resolution_note": "",
			"resolved_by":     nil,
			"resolved_at":     nil,
		}).
		Error
}
