package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/HomieRX/schedule-core/internal/interval"
)

// Статус наряда на работу.
type WorkOrderStatus string

const (
	WorkOrderStatusPending   WorkOrderStatus = "pending"
	WorkOrderStatusScheduled WorkOrderStatus = "scheduled"
	WorkOrderStatusCompleted WorkOrderStatus = "completed"
	WorkOrderStatusCancelled WorkOrderStatus = "cancelled"
)

// work_orders — проекция наряда, релевантная планированию.
// Сам наряд (цена, описание, заявка) живёт во внешней системе.
type WorkOrder struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	ContractorID     uuid.UUID `gorm:"type:uuid;not null;index:idx_work_orders_contractor_range,priority:1" json:"contractor_id"`
	ServiceRequestID uuid.UUID `gorm:"type:uuid;not null;index" json:"service_request_id"`

	// Запланированный интервал; nil — наряд ещё не поставлен в график.
	StartsAt *time.Time `gorm:"type:timestamp with time zone;index:idx_work_orders_contractor_range,priority:2" json:"starts_at"`
	EndsAt   *time.Time `gorm:"type:timestamp with time zone;index:idx_work_orders_contractor_range,priority:3" json:"ends_at"`

	Status WorkOrderStatus `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`

	Contractor *Contractor `gorm:"foreignKey:ContractorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"contractor,omitempty"`
}

// Scheduled — стоит ли наряд в графике.
func (w *WorkOrder) Scheduled() bool {
	return w.Status == WorkOrderStatusScheduled && w.StartsAt != nil && w.EndsAt != nil
}

// Interval возвращает запланированный интервал наряда.
// Для незапланированного наряда — второй результат false.
func (w *WorkOrder) Interval() (interval.Interval, bool) {
	if !w.Scheduled() {
		return interval.Interval{}, false
	}
	return interval.Interval{Start: *w.StartsAt, End: *w.EndsAt}, true
}
