package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/HomieRX/schedule-core/internal/interval"
)

// Тип слота: доступность или заблокированное время.
type SlotKind string

const (
	SlotKindAvailable SlotKind = "available"
	SlotKindBlocked   SlotKind = "blocked"
)

// time_slots — объявленные подрядчиком окна времени.
type TimeSlot struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	ContractorID uuid.UUID `gorm:"type:uuid;not null;index:idx_time_slots_contractor_range,priority:1" json:"contractor_id"`

	StartsAt time.Time `gorm:"type:timestamp with time zone;not null;index:idx_time_slots_contractor_range,priority:2" json:"starts_at"`
	EndsAt   time.Time `gorm:"type:timestamp with time zone;not null;index:idx_time_slots_contractor_range,priority:3" json:"ends_at"`

	Kind SlotKind `gorm:"type:varchar(32);not null;index" json:"kind"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`

	// Навигационные поля (опционально, но удобно для Preload).
	Contractor *Contractor `gorm:"foreignKey:ContractorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"contractor,omitempty"`
}

// Interval возвращает границы слота как доменный интервал.
func (s *TimeSlot) Interval() interval.Interval {
	return interval.Interval{Start: s.StartsAt, End: s.EndsAt}
}

// IsCommitment — считается ли слот занятостью подрядчика.
// Окна доступности занятостью не являются.
func (s *TimeSlot) IsCommitment() bool {
	return s.Kind == SlotKindBlocked
}
