package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/HomieRX/schedule-core/internal/interval"
	"github.com/HomieRX/schedule-core/internal/model"
)

// Общий харнесс сервисных тестов: sqlite в памяти и вручную созданная
// sqlite-совместимая схема (default gen_random_uuid() здесь не работает).

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	schema := []string{
		`CREATE TABLE contractors (
			id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			active BOOLEAN NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE time_slots (
			id TEXT PRIMARY KEY,
			contractor_id TEXT NOT NULL,
			starts_at DATETIME NOT NULL,
			ends_at DATETIME NOT NULL,
			kind TEXT NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE work_orders (
			id TEXT PRIMARY KEY,
			contractor_id TEXT NOT NULL,
			service_request_id TEXT NOT NULL,
			starts_at DATETIME,
			ends_at DATETIME,
			status TEXT NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE schedule_conflicts (
			id TEXT PRIMARY KEY,
			contractor_id TEXT NOT NULL,
			side_a_kind TEXT NOT NULL,
			side_a_id TEXT NOT NULL,
			side_b_kind TEXT NOT NULL,
			side_b_id TEXT NOT NULL,
			overlap_start DATETIME NOT NULL,
			overlap_end DATETIME NOT NULL,
			status TEXT NOT NULL,
			resolution_note TEXT,
			resolved_by TEXT,
			resolved_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE schedule_audit_log (
			id TEXT PRIMARY KEY,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			action TEXT NOT NULL,
			before_state TEXT,
			after_state TEXT,
			created_at DATETIME
		);`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	return db
}

type testEnv struct {
	db        *gorm.DB
	locks     *ContractorLocks
	slots     *SlotService
	scheduler *SchedulerService
	detector  *DetectorService
	resolver  *ResolverService
	audit     *AuditService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	locks := NewContractorLocks()
	slots := NewSlotService(db, locks)
	scheduler := NewSchedulerService(db, locks)

	return &testEnv{
		db:        db,
		locks:     locks,
		slots:     slots,
		scheduler: scheduler,
		detector:  NewDetectorService(db, locks),
		resolver:  NewResolverService(db, scheduler, slots),
		audit:     NewAuditService(db),
	}
}

func seedContractor(t *testing.T, db *gorm.DB, active bool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	contractor := &model.Contractor{ID: id, DisplayName: "contractor", Active: active}
	if err := db.Create(contractor).Error; err != nil {
		t.Fatalf("seed contractor: %v", err)
	}
	return id
}

func seedWorkOrder(t *testing.T, db *gorm.DB, contractorID uuid.UUID) uuid.UUID {
	t.Helper()
	id := uuid.New()
	order := &model.WorkOrder{
		ID:               id,
		ContractorID:     contractorID,
		ServiceRequestID: uuid.New(),
		Status:           model.WorkOrderStatusPending,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed work order: %v", err)
	}
	return id
}

// at возвращает момент 2025-01-15 hh:mm UTC.
func at(t *testing.T, hour, min int) time.Time {
	t.Helper()
	return time.Date(2025, 1, 15, hour, min, 0, 0, time.UTC)
}

func ivAt(t *testing.T, startHour, startMin, endHour, endMin int) interval.Interval {
	t.Helper()
	iv, err := interval.New(at(t, startHour, startMin), at(t, endHour, endMin))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return iv
}

func conflictCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&model.ScheduleConflict{}).Count(&n).Error; err != nil {
		t.Fatalf("count conflicts: %v", err)
	}
	return n
}

func auditCount(t *testing.T, db *gorm.DB, action model.AuditAction) int64 {
	t.Helper()
	q := db.Model(&model.ScheduleAuditLog{})
	if action != "" {
		q = q.Where("action = ?", action)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count audit entries: %v", err)
	}
	return n
}

func getWorkOrder(t *testing.T, db *gorm.DB, id uuid.UUID) *model.WorkOrder {
	t.Helper()
	var order model.WorkOrder
	if err := db.First(&order, "id = ?", id).Error; err != nil {
		t.Fatalf("fetch work order: %v", err)
	}
	return &order
}

func ctx() context.Context {
	return context.Background()
}
