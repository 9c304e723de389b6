package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HomieRX/schedule-core/internal/model"
)

type WorkOrderRepository interface {
	// Создать проекцию наряда (приходит из внешней системы заявок).
	Create(ctx context.Context, order *model.WorkOrder) error
	// Найти наряд по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.WorkOrder, error)
	// Обновить график наряда; nil-границы снимают наряд с графика.
	UpdateSchedule(ctx context.Context, id uuid.UUID, startsAt, endsAt *time.Time, status model.WorkOrderStatus) error
	// Наряды подрядчика.
	ListByContractor(ctx context.Context, contractorID uuid.UUID) ([]model.WorkOrder, error)
	// Запланированные наряды подрядчика, пересекающиеся с [start, end)
	// по широкому префильтру. Точный предикат применяет вызывающая сторона.
	ListScheduledOverlapping(ctx context.Context, contractorID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]model.WorkOrder, error)
}

// Реализация на GORM.
type GormWorkOrderRepository struct {
	db *gorm.DB
}

func NewGormWorkOrderRepository(db *gorm.DB) *GormWorkOrderRepository {
	return &GormWorkOrderRepository{db: db}
}

func (r *GormWorkOrderRepository) Create(ctx context.Context, order *model.WorkOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *GormWorkOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.WorkOrder, error) {
	var order model.WorkOrder
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormWorkOrderRepository) UpdateSchedule(
	ctx context.Context,
	id uuid.UUID,
	startsAt, endsAt *time.Time,
	status model.WorkOrderStatus,
) error {
	return r.db.WithContext(ctx).
		Model(&model.WorkOrder{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"starts_at": startsAt,
			"ends_at":   endsAt,
			"status":    status,
		}).
		Error
}

func (r *GormWorkOrderRepository) ListByContractor(ctx context.Context, contractorID uuid.UUID) ([]model.WorkOrder, error) {
	var orders []model.WorkOrder
	err := r.db.WithContext(ctx).
		Where("contractor_id = ?", contractorID).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormWorkOrderRepository) ListScheduledOverlapping(
	ctx context.Context,
	contractorID uuid.UUID,
	start, end time.Time,
	excludeID uuid.UUID,
) ([]model.WorkOrder, error) {
	q := r.db.WithContext(ctx).
		Model(&model.WorkOrder{}).
		Where("contractor_id = ?", contractorID).
		Where("status = ?", model.WorkOrderStatusScheduled).
		Where("starts_at <= ? AND ends_at >= ?", end, start)

	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}

	var orders []model.WorkOrder
	if err := q.Order("starts_at ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
