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

// SchedulerService назначает и переназначает график нарядов.
// Каждая мутация: проверка владения и активности подрядчика, запись
// графика, синхронный прогон детектора — всё в одной сериализованной
// транзакции. Конфликты фиксируются, но не блокируют график, кроме
// строгого режима.
type SchedulerService struct {
	db    *gorm.DB
	locks *ContractorLocks
}

func NewSchedulerService(db *gorm.DB, locks *ContractorLocks) *SchedulerService {
	return &SchedulerService{db: db, locks: locks}
}

// ScheduleWorkOrder ставит наряд в график подрядчика.
// strict = true — при любом найденном конфликте транзакция откатывается
// и возвращается ErrScheduleConflict вместе со списком конфликтов.
func (s *SchedulerService) ScheduleWorkOrder(
	ctx context.Context,
	workOrderID uuid.UUID,
	contractorID uuid.UUID,
	iv interval.Interval,
	actorID uuid.UUID,
	strict bool,
) (*model.WorkOrder, []model.ScheduleConflict, error) {
	return s.applySchedule(ctx, workOrderID, &contractorID, iv, actorID, strict, model.AuditActionWorkOrderScheduled)
}

// RescheduleWorkOrder меняет запланированный интервал наряда.
func (s *SchedulerService) RescheduleWorkOrder(
	ctx context.Context,
	workOrderID uuid.UUID,
	iv interval.Interval,
	actorID uuid.UUID,
	strict bool,
) (*model.WorkOrder, []model.ScheduleConflict, error) {
	return s.applySchedule(ctx, workOrderID, nil, iv, actorID, strict, model.AuditActionWorkOrderRescheduled)
}

// applySchedule — общий путь schedule/reschedule. claimedContractor != nil
// означает, что вызывающая сторона заявляет владельца и он сверяется.
func (s *SchedulerService) applySchedule(
	ctx context.Context,
	workOrderID uuid.UUID,
	claimedContractor *uuid.UUID,
	iv interval.Interval,
	actorID uuid.UUID,
	strict bool,
	action model.AuditAction,
) (*model.WorkOrder, []model.ScheduleConflict, error) {
	contractorID, err := s.workOrderContractor(ctx, workOrderID)
	if err != nil {
		return nil, nil, err
	}
	if claimedContractor != nil && *claimedContractor != contractorID {
		return nil, nil, ErrContractorMismatch
	}

	var (
		updated   *model.WorkOrder
		conflicts []model.ScheduleConflict
	)
	err = runSerialized(ctx, s.db, s.locks, contractorID, func(tx *gorm.DB) error {
		orderRepo := repository.NewGormWorkOrderRepository(tx)

		order, err := orderRepo.GetByID(ctx, workOrderID)
		if err != nil {
			return mapNotFound(err, "work order")
		}
		// Повторная сверка внутри транзакции: наряд мог быть переназначен.
		if order.ContractorID != contractorID {
			return ErrContractorMismatch
		}

		if err := checkContractorActive(ctx, tx, contractorID); err != nil {
			return err
		}

		before := workOrderState(order)

		if err := orderRepo.UpdateSchedule(ctx, workOrderID, &iv.Start, &iv.End, model.WorkOrderStatusScheduled); err != nil {
			return fmt.Errorf("update schedule: %w", err)
		}
		order.StartsAt = &iv.Start
		order.EndsAt = &iv.End
		order.Status = model.WorkOrderStatusScheduled

		if err := recordAudit(
			ctx, tx, model.AuditEntityWorkOrder, order.ID, actorID,
			action, before, workOrderState(order),
		); err != nil {
			return err
		}

		conflicts, err = detectConflictsTx(ctx, tx, contractorID, iv,
			ScheduleContext{Kind: model.ConflictEntityWorkOrder, ID: order.ID}, actorID)
		if err != nil {
			return err
		}

		if strict && len(conflicts) > 0 {
			// Откат всей транзакции: ни график, ни конфликты не сохраняются.
			return ErrScheduleConflict
		}

		updated = order
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrScheduleConflict) {
			// Список возвращаем как справку — в БД его нет.
			return nil, conflicts, err
		}
		return nil, nil, err
	}
	return updated, conflicts, nil
}

// UnscheduleWorkOrder снимает наряд с графика. Открытые конфликты наряда
// остаются открытыми до явного разрешения.
func (s *SchedulerService) UnscheduleWorkOrder(
	ctx context.Context,
	workOrderID uuid.UUID,
	actorID uuid.UUID,
) (*model.WorkOrder, error) {
	contractorID, err := s.workOrderContractor(ctx, workOrderID)
	if err != nil {
		return nil, err
	}

	var updated *model.WorkOrder
	err = runSerialized(ctx, s.db, s.locks, contractorID, func(tx *gorm.DB) error {
		orderRepo := repository.NewGormWorkOrderRepository(tx)

		order, err := orderRepo.GetByID(ctx, workOrderID)
		if err != nil {
			return mapNotFound(err, "work order")
		}
		before := workOrderState(order)

		if err := orderRepo.UpdateSchedule(ctx, workOrderID, nil, nil, model.WorkOrderStatusPending); err != nil {
			return fmt.Errorf("unschedule: %w", err)
		}
		order.StartsAt = nil
		order.EndsAt = nil
		order.Status = model.WorkOrderStatusPending

		updated = order
		return recordAudit(
			ctx, tx, model.AuditEntityWorkOrder, order.ID, actorID,
			model.AuditActionWorkOrderUnscheduled, before, workOrderState(order),
		)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// FindOverlappingWorkOrders возвращает запланированные наряды подрядчика,
// точно пересекающиеся с интервалом.
func (s *SchedulerService) FindOverlappingWorkOrders(
	ctx context.Context,
	contractorID uuid.UUID,
	iv interval.Interval,
	excludeID uuid.UUID,
) ([]model.WorkOrder, error) {
	candidates, err := repository.NewGormWorkOrderRepository(s.db).
		ListScheduledOverlapping(ctx, contractorID, iv.Start, iv.End, excludeID)
	if err != nil {
		return nil, err
	}

	out := candidates[:0]
	for _, order := range candidates {
		if orderIv, ok := order.Interval(); ok && iv.Overlaps(orderIv) {
			out = append(out, order)
		}
	}
	return out, nil
}

// ListWorkOrdersForContractor возвращает все наряды подрядчика.
func (s *SchedulerService) ListWorkOrdersForContractor(
	ctx context.Context,
	contractorID uuid.UUID,
) ([]model.WorkOrder, error) {
	return repository.NewGormWorkOrderRepository(s.db).ListByContractor(ctx, contractorID)
}

// GetWorkOrder возвращает проекцию наряда.
func (s *SchedulerService) GetWorkOrder(ctx context.Context, id uuid.UUID) (*model.WorkOrder, error) {
	order, err := repository.NewGormWorkOrderRepository(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "work order")
	}
	return order, nil
}

// RegisterWorkOrder заводит проекцию наряда из внешней системы заявок.
func (s *SchedulerService) RegisterWorkOrder(
	ctx context.Context,
	contractorID, serviceRequestID uuid.UUID,
) (*model.WorkOrder, error) {
	order := &model.WorkOrder{
		ID:               uuid.New(),
		ContractorID:     contractorID,
		ServiceRequestID: serviceRequestID,
		Status:           model.WorkOrderStatusPending,
	}
	if err := repository.NewGormWorkOrderRepository(s.db).Create(ctx, order); err != nil {
		return nil, fmt.Errorf("register work order: %w", err)
	}
	return order, nil
}

func (s *SchedulerService) workOrderContractor(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	order, err := repository.NewGormWorkOrderRepository(s.db).GetByID(ctx, id)
	if err != nil {
		return uuid.Nil, mapNotFound(err, "work order")
	}
	return order.ContractorID, nil
}

// checkContractorActive сверяет проекцию подрядчика внутри транзакции
// мутации: несуществующий или деактивированный подрядчик не получает
// новых назначений.
func checkContractorActive(ctx context.Context, tx *gorm.DB, contractorID uuid.UUID) error {
	contractor, err := repository.NewGormContractorRepository(tx).GetByID(ctx, contractorID)
	if err != nil {
		return mapNotFound(err, "contractor")
	}
	if !contractor.Active {
		return ErrContractorInactive
	}
	return nil
}
