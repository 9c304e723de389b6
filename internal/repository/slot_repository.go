package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HomieRX/schedule-core/internal/model"
)

type SlotRepository interface {
	// Создать слот.
	Create(ctx context.Context, slot *model.TimeSlot) error
	// Найти слот по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error)
	// Обновить границы слота.
	UpdateInterval(ctx context.Context, id uuid.UUID, startsAt, endsAt time.Time) error
	// Удалить слот.
	Delete(ctx context.Context, id uuid.UUID) error
	// Слоты подрядчика; from/to — необязательный фильтр по диапазону.
	ListByContractor(ctx context.Context, contractorID uuid.UUID, from, to *time.Time) ([]model.TimeSlot, error)
	// Слоты подрядчика, пересекающиеся с [start, end) по широкому префильтру.
	// Точный полуоткрытый предикат применяет вызывающая сторона.
	ListOverlapping(ctx context.Context, contractorID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]model.TimeSlot, error)
}

// Реализация на GORM.
type GormSlotRepository struct {
	db *gorm.DB
}

func NewGormSlotRepository(db *gorm.DB) *GormSlotRepository {
	return &GormSlotRepository{db: db}
}

func (r *GormSlotRepository) Create(ctx context.Context, slot *model.TimeSlot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *GormSlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TimeSlot, error) {
	var slot model.TimeSlot
	if err := r.db.WithContext(ctx).First(&slot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *GormSlotRepository) UpdateInterval(ctx context.Context, id uuid.UUID, startsAt, endsAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.TimeSlot{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"starts_at": startsAt,
			"ends_at":   endsAt,
		}).
		Error
}

func (r *GormSlotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.TimeSlot{}, "id = ?", id).Error
}

func (r *GormSlotRepository) ListByContractor(
	ctx context.Context,
	contractorID uuid.UUID,
	from, to *time.Time,
) ([]model.TimeSlot, error) {
	q := r.db.WithContext(ctx).
		Model(&model.TimeSlot{}).
		Where("contractor_id = ?", contractorID)

	if from != nil {
		q = q.Where("ends_at > ?", *from)
	}
	if to != nil {
		q = q.Where("starts_at < ?", *to)
	}

	var slots []model.TimeSlot
	if err := q.Order("starts_at ASC").Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *GormSlotRepository) ListOverlapping(
	ctx context.Context,
	contractorID uuid.UUID,
	start, end time.Time,
	excludeID uuid.UUID,
) ([]model.TimeSlot, error) {
	q := r.db.WithContext(ctx).
		Model(&model.TimeSlot{}).
		Where("contractor_id = ?", contractorID).
		Where("starts_at <= ? AND ends_at >= ?", end, start)

	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}

	var slots []model.TimeSlot
	if err := q.Order("starts_at ASC").Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}
