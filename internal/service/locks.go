package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Количество попыток при конкурентной модификации:
// последовательность detect-then-write каждый раз перегоняется заново.
const maxScheduleRetries = 3

// ContractorLocks сериализует мутации расписания одного подрядчика
// в пределах процесса. Разные подрядчики независимы и идут параллельно.
type ContractorLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewContractorLocks() *ContractorLocks {
	return &ContractorLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *ContractorLocks) lock(contractorID uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[contractorID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[contractorID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// runSerialized выполняет fn в транзакции, сериализованной по подрядчику.
// Два уровня: внутрипроцессный мьютекс плюс advisory-блокировка Postgres
// на время транзакции — она сериализует подрядчика между экземплярами
// сервиса. Конкурентная модификация ретраится с чистого листа.
func runSerialized(
	ctx context.Context,
	db *gorm.DB,
	locks *ContractorLocks,
	contractorID uuid.UUID,
	fn func(tx *gorm.DB) error,
) error {
	unlock := locks.lock(contractorID)
	defer unlock()

	var err error
	for attempt := 0; attempt < maxScheduleRetries; attempt++ {
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if lockErr := acquireContractorLock(tx, contractorID); lockErr != nil {
				return lockErr
			}
			return fn(tx)
		})
		if !isConcurrentModification(err) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrConcurrentModification, err)
}

// На других диалектах (sqlite в тестах) достаточно внутрипроцессного мьютекса.
func acquireContractorLock(tx *gorm.DB, contractorID uuid.UUID) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec(
		"SELECT pg_advisory_xact_lock(hashtextextended(?::text, 0))",
		contractorID.String(),
	).Error
}

func isConcurrentModification(err error) bool {
	return err != nil && errors.Is(err, gorm.ErrDuplicatedKey)
}
