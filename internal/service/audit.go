package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/HomieRX/schedule-core/internal/model"
	"github.com/HomieRX/schedule-core/internal/repository"
)

// Снимки состояния для журнала аудита. Держим их компактными:
// ровно те поля, по которым можно воспроизвести "кто что поменял".

type slotSnapshot struct {
	ContractorID uuid.UUID      `json:"contractor_id"`
	StartsAt     time.Time      `json:"starts_at"`
	EndsAt       time.Time      `json:"ends_at"`
	Kind         model.SlotKind `json:"kind"`
}

func slotState(s *model.TimeSlot) *slotSnapshot {
	if s == nil {
		return nil
	}
	return &slotSnapshot{
		ContractorID: s.ContractorID,
		StartsAt:     s.StartsAt,
		EndsAt:       s.EndsAt,
		Kind:         s.Kind,
	}
}

type workOrderSnapshot struct {
	ContractorID uuid.UUID             `json:"contractor_id"`
	StartsAt     *time.Time            `json:"starts_at"`
	EndsAt       *time.Time            `json:"ends_at"`
	Status       model.WorkOrderStatus `json:"status"`
}

func workOrderState(w *model.WorkOrder) *workOrderSnapshot {
	if w == nil {
		return nil
	}
	return &workOrderSnapshot{
		ContractorID: w.ContractorID,
		StartsAt:     w.StartsAt,
		EndsAt:       w.EndsAt,
		Status:       w.Status,
	}
}

type conflictSnapshot struct {
	ContractorID uuid.UUID            `json:"contractor_id"`
	Status       model.ConflictStatus `json:"status"`
	OverlapStart time.Time            `json:"overlap_start"`
	OverlapEnd   time.Time            `json:"overlap_end"`
	Note         string               `json:"resolution_note,omitempty"`
}

func conflictState(c *model.ScheduleConflict) *conflictSnapshot {
	if c == nil {
		return nil
	}
	return &conflictSnapshot{
		ContractorID: c.ContractorID,
		Status:       c.Status,
		OverlapStart: c.OverlapStart,
		OverlapEnd:   c.OverlapEnd,
		Note:         c.ResolutionNote,
	}
}

// recordAudit добавляет одну запись журнала в рамках транзакции вызывающего.
// before == nil допустим (создание сущности), запись тогда без снимка "до".
func recordAudit(
	ctx context.Context,
	tx *gorm.DB,
	entityType model.AuditEntityType,
	entityID uuid.UUID,
	actorID uuid.UUID,
	action model.AuditAction,
	before, after any,
) error {
	beforeJSON, err := snapshotJSON(before)
	if err != nil {
		return fmt.Errorf("marshal before state: %w", err)
	}
	afterJSON, err := snapshotJSON(after)
	if err != nil {
		return fmt.Errorf("marshal after state: %w", err)
	}

	entry := &model.ScheduleAuditLog{
		ID:          uuid.New(),
		EntityType:  entityType,
		EntityID:    entityID,
		ActorID:     actorID,
		Action:      action,
		BeforeState: beforeJSON,
		AfterState:  afterJSON,
	}
	return repository.NewGormAuditRepository(tx).Append(ctx, entry)
}

func snapshotJSON(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	// Типизированные nil-указатели тоже трактуем как отсутствие снимка.
	switch s := v.(type) {
	case *slotSnapshot:
		if s == nil {
			return nil, nil
		}
	case *workOrderSnapshot:
		if s == nil {
			return nil, nil
		}
	case *conflictSnapshot:
		if s == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
