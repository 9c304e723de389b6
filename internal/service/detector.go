package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HomieRX/schedule-core/internal/interval"
	"github.com/HomieRX/schedule-core/internal/model"
	"github.com/HomieRX/schedule-core/internal/repository"
)

// ScheduleContext идентифицирует планируемую сущность:
// при сканировании она исключается из собственной проверки.
type ScheduleContext struct {
	Kind model.ConflictEntityKind
	ID   uuid.UUID
}

// DetectorService ищет пересечения кандидата с занятостями подрядчика
// и материализует записи ScheduleConflict.
type DetectorService struct {
	db    *gorm.DB
	locks *ContractorLocks
}

func NewDetectorService(db *gorm.DB, locks *ContractorLocks) *DetectorService {
	return &DetectorService{db: db, locks: locks}
}

// DetectConflicts — публичная точка входа: прогоняет обнаружение
// в собственной сериализованной транзакции.
func (s *DetectorService) DetectConflicts(
	ctx context.Context,
	contractorID uuid.UUID,
	iv interval.Interval,
	sctx ScheduleContext,
	actorID uuid.UUID,
) ([]model.ScheduleConflict, error) {
	var conflicts []model.ScheduleConflict
	err := runSerialized(ctx, s.db, s.locks, contractorID, func(tx *gorm.DB) error {
		var detectErr error
		conflicts, detectErr = detectConflictsTx(ctx, tx, contractorID, iv, sctx, actorID)
		return detectErr
	})
	if err != nil {
		return nil, err
	}
	return conflicts, nil
}

// ListConflictsForContractor возвращает конфликты подрядчика,
// опционально отфильтрованные по статусу.
func (s *DetectorService) ListConflictsForContractor(
	ctx context.Context,
	contractorID uuid.UUID,
	status model.ConflictStatus,
) ([]model.ScheduleConflict, error) {
	return repository.NewGormConflictRepository(s.db).ListByContractor(ctx, contractorID, status)
}

// detectConflictsTx — ядро детектора, работает в транзакции вызывающего.
// Двухступенчатый фильтр: широкий префильтр в SQL по (contractor_id,
// starts_at, ends_at), затем точный полуоткрытый предикат в Go.
// Идемпотентность: открытый конфликт той же пары переиспользуется,
// дубликат не создаётся; сериализация по подрядчику закрывает гонку
// между поиском и созданием.
func detectConflictsTx(
	ctx context.Context,
	tx *gorm.DB,
	contractorID uuid.UUID,
	iv interval.Interval,
	sctx ScheduleContext,
	actorID uuid.UUID,
) ([]model.ScheduleConflict, error) {
	var excludeOrder, excludeSlot uuid.UUID
	switch sctx.Kind {
	case model.ConflictEntityWorkOrder:
		excludeOrder = sctx.ID
	case model.ConflictEntityTimeSlot:
		excludeSlot = sctx.ID
	}

	orders, err := repository.NewGormWorkOrderRepository(tx).
		ListScheduledOverlapping(ctx, contractorID, iv.Start, iv.End, excludeOrder)
	if err != nil {
		return nil, fmt.Errorf("scan work orders: %w", err)
	}

	slots, err := repository.NewGormSlotRepository(tx).
		ListOverlapping(ctx, contractorID, iv.Start, iv.End, excludeSlot)
	if err != nil {
		return nil, fmt.Errorf("scan time slots: %w", err)
	}

	self := model.ConflictSide{Kind: sctx.Kind, ID: sctx.ID}

	var conflicts []model.ScheduleConflict
	for _, order := range orders {
		orderIv, ok := order.Interval()
		if !ok || !iv.Overlaps(orderIv) {
			continue
		}
		overlap, _ := iv.Intersect(orderIv)
		other := model.ConflictSide{Kind: model.ConflictEntityWorkOrder, ID: order.ID}
		conflict, err := upsertConflict(ctx, tx, contractorID, self, other, overlap, actorID)
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, *conflict)
	}

	for _, slot := range slots {
		// Окна доступности занятостью не считаются.
		if !slot.IsCommitment() || !iv.Overlaps(slot.Interval()) {
			continue
		}
		overlap, _ := iv.Intersect(slot.Interval())
		other := model.ConflictSide{Kind: model.ConflictEntityTimeSlot, ID: slot.ID}
		conflict, err := upsertConflict(ctx, tx, contractorID, self, other, overlap, actorID)
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, *conflict)
	}

	return conflicts, nil
}

func upsertConflict(
	ctx context.Context,
	tx *gorm.DB,
	contractorID uuid.UUID,
	a, b model.ConflictSide,
	overlap interval.Interval,
	actorID uuid.UUID,
) (*model.ScheduleConflict, error) {
	a, b = model.OrderSides(a, b)
	repo := repository.NewGormConflictRepository(tx)

	existing, err := repo.FindOpenByPair(ctx, contractorID, a, b)
	switch {
	case err == nil:
		// Пара уже сконфликтована; освежаем зафиксированное пересечение.
		if !existing.OverlapStart.Equal(overlap.Start) || !existing.OverlapEnd.Equal(overlap.End) {
			if err := repo.UpdateOverlap(ctx, existing.ID, overlap.Start, overlap.End); err != nil {
				return nil, fmt.Errorf("refresh conflict overlap: %w", err)
			}
			existing.OverlapStart = overlap.Start
			existing.OverlapEnd = overlap.End
		}
		return existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("find open conflict: %w", err)
	}

	conflict := &model.ScheduleConflict{
		ID:           uuid.New(),
		ContractorID: contractorID,
		SideAKind:    a.Kind,
		SideAID:      a.ID,
		SideBKind:    b.Kind,
		SideBID:      b.ID,
		OverlapStart: overlap.Start,
		OverlapEnd:   overlap.End,
		Status:       model.ConflictStatusOpen,
	}
	if err := repo.Create(ctx, conflict); err != nil {
		return nil, fmt.Errorf("create conflict: %w", err)
	}

	if err := recordAudit(
		ctx,
		tx,
		model.AuditEntityConflict,
		conflict.ID,
		actorID,
		model.AuditActionConflictOpened,
		nil,
		conflictState(conflict),
	); err != nil {
		return nil, err
	}

	return conflict, nil
}
