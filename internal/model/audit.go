package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Действие, зафиксированное в журнале аудита.
type AuditAction string

const (
	AuditActionSlotCreated          AuditAction = "slot_created"
	AuditActionSlotUpdated          AuditAction = "slot_updated"
	AuditActionSlotDeleted          AuditAction = "slot_deleted"
	AuditActionWorkOrderScheduled   AuditAction = "work_order_scheduled"
	AuditActionWorkOrderRescheduled AuditAction = "work_order_rescheduled"
	AuditActionWorkOrderUnscheduled AuditAction = "work_order_unscheduled"
	AuditActionConflictOpened       AuditAction = "conflict_opened"
	AuditActionConflictResolved     AuditAction = "conflict_resolved"
	AuditActionConflictDismissed    AuditAction = "conflict_dismissed"
)

// Тип сущности в журнале аудита.
type AuditEntityType string

const (
	AuditEntityTimeSlot  AuditEntityType = "time_slot"
	AuditEntityWorkOrder AuditEntityType = "work_order"
	AuditEntityConflict  AuditEntityType = "schedule_conflict"
)

// schedule_audit_log — журнал всех мутаций планирования.
// Только добавление: записи никогда не обновляются и не удаляются.
type ScheduleAuditLog struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	EntityType AuditEntityType `gorm:"type:varchar(32);not null;index:idx_audit_entity,priority:1" json:"entity_type"`
	EntityID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_audit_entity,priority:2" json:"entity_id"`

	ActorID uuid.UUID `gorm:"type:uuid;not null;index" json:"actor_id"`

	Action AuditAction `gorm:"type:varchar(64);not null;index" json:"action"`

	// Снимки состояния до и после мутации. Before пуст для создания.
	BeforeState datatypes.JSON `gorm:"type:jsonb" json:"before_state,omitempty"`
	AfterState  datatypes.JSON `gorm:"type:jsonb" json:"after_state"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

// TableName фиксирует единственное число: журнал — одна сущность.
func (ScheduleAuditLog) TableName() string {
	return "schedule_audit_log"
}
