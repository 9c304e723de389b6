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

// Закрытый набор стратегий разрешения. Добавление новой стратегии —
// изменение, проверяемое компилятором: switch в apply исчерпывающий.
type resolutionKind int

const (
	resolutionReschedule resolutionKind = iota
	resolutionCancel
	resolutionDismiss
)

type resolution struct {
	kind        resolutionKind
	target      model.ConflictSide // проигравшая/отменяемая сторона
	newInterval interval.Interval  // только для reschedule
	note        string
}

// ResolverService проводит конфликты через машину состояний
// open -> resolved | dismissed. Терминальный переход выполняется
// guarded-обновлением (только из open) ДО мутации графика, поэтому
// блокировка подрядчика здесь не нужна: из гонки двух разрешений
// мутацию выполняет ровно один победитель, проигравший выходит
// с ErrConflictAlreadyResolved, не тронув графиков.
type ResolverService struct {
	db        *gorm.DB
	scheduler *SchedulerService
	slots     *SlotService
}

func NewResolverService(db *gorm.DB, scheduler *SchedulerService, slots *SlotService) *ResolverService {
	return &ResolverService{db: db, scheduler: scheduler, slots: slots}
}

// ResolveByReschedule двигает проигравшую сторону на новый интервал
// и помечает конфликт разрешённым с пометкой "rescheduled".
// Второй результат — конфликты, обнаруженные уже на новом интервале
// проигравшего: перенос сам может породить новые пересечения.
func (s *ResolverService) ResolveByReschedule(
	ctx context.Context,
	conflictID uuid.UUID,
	winningEntityID uuid.UUID,
	newIntervalForLoser interval.Interval,
	actorID uuid.UUID,
) (*model.ScheduleConflict, []model.ScheduleConflict, error) {
	conflict, err := s.openConflict(ctx, conflictID)
	if err != nil {
		return nil, nil, err
	}

	loser, err := otherSide(conflict, winningEntityID)
	if err != nil {
		return nil, nil, err
	}

	return s.apply(ctx, conflict, resolution{
		kind:        resolutionReschedule,
		target:      loser,
		newInterval: newIntervalForLoser,
		note:        "rescheduled",
	}, actorID)
}

// ResolveByCancellation отменяет указанную сторону (наряд снимается
// с графика, слот удаляется) и помечает конфликт разрешённым.
func (s *ResolverService) ResolveByCancellation(
	ctx context.Context,
	conflictID uuid.UUID,
	cancelledEntityID uuid.UUID,
	actorID uuid.UUID,
) (*model.ScheduleConflict, error) {
	conflict, err := s.openConflict(ctx, conflictID)
	if err != nil {
		return nil, err
	}

	target, err := sideByID(conflict, cancelledEntityID)
	if err != nil {
		return nil, err
	}

	resolved, _, err := s.apply(ctx, conflict, resolution{
		kind:   resolutionCancel,
		target: target,
		note:   "cancelled",
	}, actorID)
	return resolved, err
}

// Dismiss закрывает конфликт без изменения графиков — для легитимных
// пересечений, которые подрядчик принимает осознанно.
func (s *ResolverService) Dismiss(
	ctx context.Context,
	conflictID uuid.UUID,
	reason string,
	actorID uuid.UUID,
) (*model.ScheduleConflict, error) {
	conflict, err := s.openConflict(ctx, conflictID)
	if err != nil {
		return nil, err
	}

	dismissed, _, err := s.apply(ctx, conflict, resolution{
		kind: resolutionDismiss,
		note: reason,
	}, actorID)
	return dismissed, err
}

// GetConflict возвращает конфликт по ID.
func (s *ResolverService) GetConflict(ctx context.Context, id uuid.UUID) (*model.ScheduleConflict, error) {
	conflict, err := repository.NewGormConflictRepository(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "conflict")
	}
	return conflict, nil
}

func (s *ResolverService) apply(
	ctx context.Context,
	conflict *model.ScheduleConflict,
	r resolution,
	actorID uuid.UUID,
) (*model.ScheduleConflict, []model.ScheduleConflict, error) {
	status := model.ConflictStatusResolved
	action := model.AuditActionConflictResolved
	if r.kind == resolutionDismiss {
		status = model.ConflictStatusDismissed
		action = model.AuditActionConflictDismissed
	}

	before := conflictState(conflict)
	resolvedAt := time.Now().UTC()
	repo := repository.NewGormConflictRepository(s.db)

	// Сначала guarded-переход: проигравший гонку за конфликт выходит
	// здесь, не тронув ни одного графика.
	rows, err := repo.ClaimTerminal(ctx, conflict.ID, status, r.note, actorID, resolvedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("claim conflict: %w", err)
	}
	if rows == 0 {
		return nil, nil, ErrConflictAlreadyResolved
	}

	// Мутация графика идёт через сериализованные сервисы и сама пишет
	// свой аудит. Новые пересечения на новом интервале проигравшего
	// фиксируются детектором и возвращаются вызывающей стороне.
	var followups []model.ScheduleConflict
	var mutErr error
	switch r.kind {
	case resolutionReschedule:
		switch r.target.Kind {
		case model.ConflictEntityWorkOrder:
			if _, followups, mutErr = s.scheduler.RescheduleWorkOrder(ctx, r.target.ID, r.newInterval, actorID, false); mutErr != nil {
				mutErr = fmt.Errorf("reschedule losing work order: %w", mutErr)
			}
		case model.ConflictEntityTimeSlot:
			if _, followups, mutErr = s.slots.UpdateSlot(ctx, r.target.ID, r.newInterval, actorID); mutErr != nil {
				mutErr = fmt.Errorf("reschedule losing slot: %w", mutErr)
			}
		}
	case resolutionCancel:
		switch r.target.Kind {
		case model.ConflictEntityWorkOrder:
			if _, err := s.scheduler.UnscheduleWorkOrder(ctx, r.target.ID, actorID); err != nil {
				mutErr = fmt.Errorf("cancel losing work order: %w", err)
			}
		case model.ConflictEntityTimeSlot:
			if err := s.slots.DeleteSlot(ctx, r.target.ID, actorID); err != nil {
				mutErr = fmt.Errorf("cancel losing slot: %w", err)
			}
		}
	case resolutionDismiss:
		// Графики не трогаем.
	}

	if mutErr != nil {
		// Компенсация: мутация откатилась в своей транзакции, конфликт
		// возвращаем в open, чтобы разрешение можно было повторить.
		if reopenErr := repo.Reopen(ctx, conflict.ID); reopenErr != nil {
			return nil, nil, errors.Join(mutErr, fmt.Errorf("reopen conflict: %w", reopenErr))
		}
		return nil, nil, mutErr
	}

	conflict.Status = status
	conflict.ResolutionNote = r.note
	conflict.ResolvedBy = &actorID
	conflict.ResolvedAt = &resolvedAt

	if err := recordAudit(
		ctx, s.db, model.AuditEntityConflict, conflict.ID, actorID,
		action, before, conflictState(conflict),
	); err != nil {
		return nil, nil, err
	}
	return conflict, followups, nil
}

func (s *ResolverService) openConflict(ctx context.Context, id uuid.UUID) (*model.ScheduleConflict, error) {
	conflict, err := repository.NewGormConflictRepository(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("conflict: %w", ErrNotFound)
		}
		return nil, err
	}
	if conflict.Status.Terminal() {
		return nil, ErrConflictAlreadyResolved
	}
	return conflict, nil
}

func sideByID(conflict *model.ScheduleConflict, id uuid.UUID) (model.ConflictSide, error) {
	switch id {
	case conflict.SideAID:
		return conflict.SideA(), nil
	case conflict.SideBID:
		return conflict.SideB(), nil
	default:
		return model.ConflictSide{}, fmt.Errorf("entity %s is not part of conflict: %w", id, ErrNotFound)
	}
}

func otherSide(conflict *model.ScheduleConflict, winnerID uuid.UUID) (model.ConflictSide, error) {
	switch winnerID {
	case conflict.SideAID:
		return conflict.SideB(), nil
	case conflict.SideBID:
		return conflict.SideA(), nil
	default:
		return model.ConflictSide{}, fmt.Errorf("entity %s is not part of conflict: %w", winnerID, ErrNotFound)
	}
}
