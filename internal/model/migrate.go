package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей ядра планирования.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Contractor{},
		&TimeSlot{},
		&WorkOrder{},
		&ScheduleConflict{},
		&ScheduleAuditLog{},
	)
}
