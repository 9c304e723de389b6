package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HomieRX/schedule-core/internal/interval"
	"github.com/HomieRX/schedule-core/internal/model"
	"github.com/HomieRX/schedule-core/internal/repository"
)

// SlotService управляет окнами доступности и блокировками подрядчика.
// Все мутации проходят в сериализованной по подрядчику транзакции
// и оставляют ровно одну запись в журнале аудита.
type SlotService struct {
	db    *gorm.DB
	locks *ContractorLocks
}

func NewSlotService(db *gorm.DB, locks *ContractorLocks) *SlotService {
	return &SlotService{db: db, locks: locks}
}

// CreateSlot создаёт слот. Для блокировки сразу прогоняется детектор:
// пересечения с занятостями фиксируются, но создание не отклоняется.
func (s *SlotService) CreateSlot(
	ctx context.Context,
	contractorID uuid.UUID,
	iv interval.Interval,
	kind model.SlotKind,
	actorID uuid.UUID,
) (*model.TimeSlot, []model.ScheduleConflict, error) {
	if kind != model.SlotKindAvailable && kind != model.SlotKindBlocked {
		return nil, nil, fmt.Errorf("unknown slot kind %q", kind)
	}

	slot := &model.TimeSlot{
		ID:           uuid.New(),
		ContractorID: contractorID,
		StartsAt:     iv.Start,
		EndsAt:       iv.End,
		Kind:         kind,
	}

	var conflicts []model.ScheduleConflict
	err := runSerialized(ctx, s.db, s.locks, contractorID, func(tx *gorm.DB) error {
		if err := checkContractorActive(ctx, tx, contractorID); err != nil {
			return err
		}
		if err := repository.NewGormSlotRepository(tx).Create(ctx, slot); err != nil {
			return fmt.Errorf("create slot: %w", err)
		}
		if err := recordAudit(
			ctx, tx, model.AuditEntityTimeSlot, slot.ID, actorID,
			model.AuditActionSlotCreated, nil, slotState(slot),
		); err != nil {
			return err
		}
		if slot.IsCommitment() {
			var detectErr error
			conflicts, detectErr = detectConflictsTx(ctx, tx, contractorID, iv,
				ScheduleContext{Kind: model.ConflictEntityTimeSlot, ID: slot.ID}, actorID)
			return detectErr
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return slot, conflicts, nil
}

// DeclareAvailability разбивает окно на слоты фиксированной длительности
// и создаёт их одной сериализованной транзакцией.
func (s *SlotService) DeclareAvailability(
	ctx context.Context,
	contractorID uuid.UUID,
	window interval.Interval,
	slotDuration time.Duration,
	alignMinutes int,
	actorID uuid.UUID,
) ([]model.TimeSlot, error) {
	parts, err := window.Split(slotDuration, alignMinutes)
	if err != nil {
		return nil, err
	}

	slots := make([]model.TimeSlot, 0, len(parts))
	for _, part := range parts {
		slots = append(slots, model.TimeSlot{
			ID:           uuid.New(),
			ContractorID: contractorID,
			StartsAt:     part.Start,
			EndsAt:       part.End,
			Kind:         model.SlotKindAvailable,
		})
	}

	err = runSerialized(ctx, s.db, s.locks, contractorID, func(tx *gorm.DB) error {
		if err := checkContractorActive(ctx, tx, contractorID); err != nil {
			return err
		}
		repo := repository.NewGormSlotRepository(tx)
		for i := range slots {
			if err := repo.Create(ctx, &slots[i]); err != nil {
				return fmt.Errorf("create slot: %w", err)
			}
			if err := recordAudit(
				ctx, tx, model.AuditEntityTimeSlot, slots[i].ID, actorID,
				model.AuditActionSlotCreated, nil, slotState(&slots[i]),
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// UpdateSlot меняет границы слота. Состояние перечитывается внутри
// сериализованной транзакции, чтобы не работать по устаревшим данным.
func (s *SlotService) UpdateSlot(
	ctx context.Context,
	id uuid.UUID,
	iv interval.Interval,
	actorID uuid.UUID,
) (*model.TimeSlot, []model.ScheduleConflict, error) {
	contractorID, err := s.slotContractor(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	var (
		updated   *model.TimeSlot
		conflicts []model.ScheduleConflict
	)
	err = runSerialized(ctx, s.db, s.locks, contractorID, func(tx *gorm.DB) error {
		repo := repository.NewGormSlotRepository(tx)

		slot, err := repo.GetByID(ctx, id)
		if err != nil {
			return mapNotFound(err, "time slot")
		}
		before := slotState(slot)

		if err := repo.UpdateInterval(ctx, id, iv.Start, iv.End); err != nil {
			return fmt.Errorf("update slot: %w", err)
		}
		slot.StartsAt = iv.Start
		slot.EndsAt = iv.End

		if err := recordAudit(
			ctx, tx, model.AuditEntityTimeSlot, slot.ID, actorID,
			model.AuditActionSlotUpdated, before, slotState(slot),
		); err != nil {
			return err
		}

		if slot.IsCommitment() {
			conflicts, err = detectConflictsTx(ctx, tx, slot.ContractorID, iv,
				ScheduleContext{Kind: model.ConflictEntityTimeSlot, ID: slot.ID}, actorID)
			if err != nil {
				return err
			}
		}

		updated = slot
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, conflicts, nil
}

// DeleteSlot удаляет слот и пишет его последнее состояние в аудит.
func (s *SlotService) DeleteSlot(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	contractorID, err := s.slotContractor(ctx, id)
	if err != nil {
		return err
	}

	return runSerialized(ctx, s.db, s.locks, contractorID, func(tx *gorm.DB) error {
		repo := repository.NewGormSlotRepository(tx)

		slot, err := repo.GetByID(ctx, id)
		if err != nil {
			return mapNotFound(err, "time slot")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete slot: %w", err)
		}
		return recordAudit(
			ctx, tx, model.AuditEntityTimeSlot, id, actorID,
			model.AuditActionSlotDeleted, slotState(slot), nil,
		)
	})
}

// ListSlotsForContractor возвращает слоты подрядчика;
// from/to — необязательный фильтр по диапазону.
func (s *SlotService) ListSlotsForContractor(
	ctx context.Context,
	contractorID uuid.UUID,
	from, to *time.Time,
) ([]model.TimeSlot, error) {
	return repository.NewGormSlotRepository(s.db).ListByContractor(ctx, contractorID, from, to)
}

// FindOverlapping возвращает слоты подрядчика, точно пересекающиеся
// с интервалом; excludeID исключает слот из проверки против самого себя.
func (s *SlotService) FindOverlapping(
	ctx context.Context,
	contractorID uuid.UUID,
	iv interval.Interval,
	excludeID uuid.UUID,
) ([]model.TimeSlot, error) {
	candidates, err := repository.NewGormSlotRepository(s.db).
		ListOverlapping(ctx, contractorID, iv.Start, iv.End, excludeID)
	if err != nil {
		return nil, err
	}

	// Префильтр широкий; отбираем по точному полуоткрытому предикату.
	out := candidates[:0]
	for _, slot := range candidates {
		if iv.Overlaps(slot.Interval()) {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *SlotService) slotContractor(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	slot, err := repository.NewGormSlotRepository(s.db).GetByID(ctx, id)
	if err != nil {
		return uuid.Nil, mapNotFound(err, "time slot")
	}
	return slot.ContractorID, nil
}

func mapNotFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}
