package service

import "errors"

// Ошибки ядра планирования.
var (
	// Сущность (слот, наряд, конфликт) не найдена.
	ErrNotFound = errors.New("not found")
	// Наряд принадлежит другому подрядчику.
	ErrContractorMismatch = errors.New("work order does not belong to contractor")
	// Подрядчик деактивирован во внешней системе.
	ErrContractorInactive = errors.New("contractor is not active")
	// Попытка перехода из терминального статуса конфликта.
	ErrConflictAlreadyResolved = errors.New("conflict already resolved")
	// Конкурентная модификация; повторы исчерпаны, можно ретраить снаружи.
	ErrConcurrentModification = errors.New("concurrent modification")
	// Строгий режим: планирование отклонено из-за обнаруженных конфликтов.
	ErrScheduleConflict = errors.New("schedule conflict detected")
)
