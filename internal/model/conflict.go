package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Статус конфликта расписания.
type ConflictStatus string

const (
	ConflictStatusOpen      ConflictStatus = "open"
	ConflictStatusResolved  ConflictStatus = "resolved"
	ConflictStatusDismissed ConflictStatus = "dismissed"
)

// Terminal — допускает ли статус дальнейшие переходы.
func (s ConflictStatus) Terminal() bool {
	return s == ConflictStatusResolved || s == ConflictStatusDismissed
}

// Вид сущности, участвующей в конфликте.
type ConflictEntityKind string

const (
	ConflictEntityWorkOrder ConflictEntityKind = "work_order"
	ConflictEntityTimeSlot  ConflictEntityKind = "time_slot"
)

// ConflictSide — одна сторона конфликта: наряд или слот.
// Ровно одна интерпретация валидна, определяется полем Kind.
type ConflictSide struct {
	Kind ConflictEntityKind
	ID   uuid.UUID
}

// Less задаёт канонический порядок сторон: сначала по виду, потом по ID.
// Благодаря ему пара (A, B) всегда записывается одинаково,
// независимо от того, какая сторона планировалась последней.
func (s ConflictSide) Less(other ConflictSide) bool {
	if s.Kind != other.Kind {
		return s.Kind < other.Kind
	}
	return strings.Compare(s.ID.String(), other.ID.String()) < 0
}

// OrderSides возвращает стороны в каноническом порядке.
func OrderSides(a, b ConflictSide) (ConflictSide, ConflictSide) {
	if b.Less(a) {
		return b, a
	}
	return a, b
}

// schedule_conflicts — зафиксированное пересечение двух занятостей подрядчика.
// Конфликт не блокирует график: это помеченная несогласованность,
// решение о дальнейших действиях принимает вызывающая сторона.
type ScheduleConflict struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	// Частичный уникальный индекс по открытой паре: даже при гонке двух
	// экземпляров сервиса второй insert той же открытой пары отклоняется,
	// ошибка уходит в ретраи планировщика как ConcurrentModification.
	ContractorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conflicts_open_pair,priority:1,where:status = 'open'" json:"contractor_id"`

	// Стороны в каноническом порядке (см. OrderSides).
	SideAKind ConflictEntityKind `gorm:"type:varchar(32);not null;uniqueIndex:idx_conflicts_open_pair,priority:2" json:"side_a_kind"`
	SideAID   uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_conflicts_open_pair,priority:3" json:"side_a_id"`
	SideBKind ConflictEntityKind `gorm:"type:varchar(32);not null;uniqueIndex:idx_conflicts_open_pair,priority:4" json:"side_b_kind"`
	SideBID   uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_conflicts_open_pair,priority:5" json:"side_b_id"`

	// Пересекающаяся часть интервалов на момент обнаружения.
	OverlapStart time.Time `gorm:"type:timestamp with time zone;not null" json:"overlap_start"`
	OverlapEnd   time.Time `gorm:"type:timestamp with time zone;not null" json:"overlap_end"`

	Status ConflictStatus `gorm:"type:varchar(32);not null;default:'open';index" json:"status"`

	// Метаданные разрешения; заполняются один раз при переходе в терминальный статус.
	ResolutionNote string     `gorm:"type:text" json:"resolution_note,omitempty"`
	ResolvedBy     *uuid.UUID `gorm:"type:uuid" json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time `gorm:"type:timestamp with time zone" json:"resolved_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`

	Contractor *Contractor `gorm:"foreignKey:ContractorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"contractor,omitempty"`
}

// SideA возвращает первую сторону конфликта.
func (c *ScheduleConflict) SideA() ConflictSide {
	return ConflictSide{Kind: c.SideAKind, ID: c.SideAID}
}

// SideB возвращает вторую сторону конфликта.
func (c *ScheduleConflict) SideB() ConflictSide {
	return ConflictSide{Kind: c.SideBKind, ID: c.SideBID}
}

// References — участвует ли сущность с данным ID в конфликте.
func (c *ScheduleConflict) References(id uuid.UUID) bool {
	return c.SideAID == id || c.SideBID == id
}
