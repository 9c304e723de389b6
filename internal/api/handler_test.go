package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/HomieRX/schedule-core/internal/model"
	"github.com/HomieRX/schedule-core/internal/service"
)

// Харнесс HTTP-тестов: реальный стек сервисов поверх sqlite в памяти.
// Схема создаётся вручную (default gen_random_uuid() в sqlite не работает).

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

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
		require.NoError(t, db.Exec(stmt).Error)
	}

	locks := service.NewContractorLocks()
	contractors := service.NewContractorService(db)
	slots := service.NewSlotService(db, locks)
	scheduler := service.NewSchedulerService(db, locks)
	detector := service.NewDetectorService(db, locks)
	resolver := service.NewResolverService(db, scheduler, slots)
	audit := service.NewAuditService(db)

	return NewRouter(NewHandler(contractors, slots, scheduler, detector, resolver, audit)), db
}

func createContractor(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	c := &model.Contractor{ID: uuid.New(), DisplayName: "Test Contractor", Active: true}
	require.NoError(t, db.Create(c).Error)
	return c.ID
}

func createWorkOrder(t *testing.T, db *gorm.DB, contractorID uuid.UUID) uuid.UUID {
	t.Helper()
	w := &model.WorkOrder{
		ID:               uuid.New(),
		ContractorID:     contractorID,
		ServiceRequestID: uuid.New(),
		Status:           model.WorkOrderStatusPending,
	}
	require.NoError(t, db.Create(w).Error)
	return w.ID
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, actor uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if actor != uuid.Nil {
		req.Header.Set("X-Actor-ID", actor.String())
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func hour(h int) time.Time {
	return time.Date(2025, 1, 15, h, 0, 0, 0, time.UTC)
}

func TestSyncContractor_UpsertsProjection(t *testing.T) {
	router, _ := newTestRouter(t)
	contractorID := uuid.New()
	actor := uuid.New()

	w := doJSON(t, router, "PUT", "/api/contractors/"+contractorID.String(), actor, gin.H{
		"display_name": "Plumbing Pros",
		"active":       true,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// Деактивация через повторный Sync.
	w = doJSON(t, router, "PUT", "/api/contractors/"+contractorID.String(), actor, gin.H{
		"display_name": "Plumbing Pros",
		"active":       false,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "GET", "/api/contractors/"+contractorID.String(), uuid.Nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Contractor model.Contractor `json:"contractor"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Contractor.Active)
}

func TestListWorkOrders_ByContractor(t *testing.T) {
	router, db := newTestRouter(t)
	contractorID := createContractor(t, db)
	createWorkOrder(t, db, contractorID)
	createWorkOrder(t, db, contractorID)

	w := doJSON(t, router, "GET", "/api/contractors/"+contractorID.String()+"/work-orders", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		WorkOrders []model.WorkOrder `json:"work_orders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.WorkOrders, 2)
}

func TestCreateSlot_Created(t *testing.T) {
	router, db := newTestRouter(t)
	contractorID := createContractor(t, db)
	actor := uuid.New()

	w := doJSON(t, router, "POST", "/api/contractors/"+contractorID.String()+"/slots", actor, gin.H{
		"start": hour(9),
		"end":   hour(12),
		"kind":  "blocked",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Slot model.TimeSlot `json:"slot"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, contractorID, resp.Slot.ContractorID)
	assert.Equal(t, model.SlotKindBlocked, resp.Slot.Kind)
}

func TestCreateSlot_MissingActorHeader(t *testing.T) {
	router, db := newTestRouter(t)
	contractorID := createContractor(t, db)

	w := doJSON(t, router, "POST", "/api/contractors/"+contractorID.String()+"/slots", uuid.Nil, gin.H{
		"start": hour(9),
		"end":   hour(12),
		"kind":  "blocked",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"missing or invalid X-Actor-ID header"}`, w.Body.String())
}

func TestCreateSlot_InvertedInterval(t *testing.T) {
	router, db := newTestRouter(t)
	contractorID := createContractor(t, db)

	w := doJSON(t, router, "POST", "/api/contractors/"+contractorID.String()+"/slots", uuid.New(), gin.H{
		"start": hour(12),
		"end":   hour(9),
		"kind":  "blocked",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeclareAvailability_SplitsWindow(t *testing.T) {
	router, db := newTestRouter(t)
	contractorID := createContractor(t, db)

	w := doJSON(t, router, "POST", "/api/contractors/"+contractorID.String()+"/slots/declare", uuid.New(), gin.H{
		"start":             hour(9),
		"end":               hour(13),
		"slot_duration_min": 60,
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Slots []model.TimeSlot `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Slots, 4)
}

func TestRegisterWorkOrder_Created(t *testing.T) {
	router, db := newTestRouter(t)
	contractorID := createContractor(t, db)

	w := doJSON(t, router, "POST", "/api/work-orders", uuid.New(), gin.H{
		"contractor_id":      contractorID,
		"service_request_id": uuid.New(),
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		WorkOrder model.WorkOrder `json:"work_order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.WorkOrderStatusPending, resp.WorkOrder.Status)
	assert.Equal(t, contractorID, resp.WorkOrder.ContractorID)
}

func TestScheduleWorkOrder_OK(t *testing.T) {
	router, db := newTestRouter(t)
	contractorID := createContractor(t, db)
	orderID := createWorkOrder(t, db, contractorID)

	w := doJSON(t, router, "POST", "/api/work-orders/"+orderID.String()+"/schedule", uuid.New(), gin.H{
		"contractor_id": contractorID,
		"start":         hour(10),
		"end":           hour(12),
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		WorkOrder model.WorkOrder          `json:"work_order"`
		Conflicts []model.ScheduleConflict `json:"conflicts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.WorkOrderStatusScheduled, resp.WorkOrder.Status)
	assert.Empty(t, resp.Conflicts)
}

func TestScheduleWorkOrder_ConflictWarningInBody(t *testing.T) {
	router, db := newTestRouter(t)
	contractorID := createContractor(t, db)
	w1 := createWorkOrder(t, db, contractorID)
	w2 := createWorkOrder(t, db, contractorID)
	actor := uuid.New()

	resp := doJSON(t, router, "POST", "/api/work-orders/"+w1.String()+"/schedule", actor, gin.H{
		"contractor_id": contractorID,
		"start":         hour(13),
		"end":           hour(15),
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doJSON(t, router, "POST", "/api/work-orders/"+w2.String()+"/schedule", actor, gin.H{
		"contractor_id": contractorID,
		"start":         hour(14),
		"end":           hour(16),
	})

	// Мягкий режим: запись прошла, конфликт вернулся предупреждением.
	assert.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Conflicts []model.ScheduleConflict `json:"conflicts"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Conflicts, 1)
	assert.Equal(t, model.ConflictStatusOpen, body.Conflicts[0].Status)
}

func TestScheduleWorkOrder_StrictConflictIs409(t *testing.T) {
	router, db := newTestRouter(t)
	contractorID := createContractor(t, db)
	w1 := createWorkOrder(t, db, contractorID)
	w2 := createWorkOrder(t, db, contractorID)
	actor := uuid.New()

	resp := doJSON(t, router, "POST", "/api/work-orders/"+w1.String()+"/schedule", actor, gin.H{
		"contractor_id": contractorID,
		"start":         hour(13),
		"end":           hour(15),
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doJSON(t, router, "POST", "/api/work-orders/"+w2.String()+"/schedule", actor, gin.H{
		"contractor_id": contractorID,
		"start":         hour(14),
		"end":           hour(16),
		"strict":        true,
	})

	assert.Equal(t, http.StatusConflict, resp.Code)

	// Наряд не остался запланированным.
	resp = doJSON(t, router, "GET", "/api/work-orders/"+w2.String(), uuid.Nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		WorkOrder model.WorkOrder `json:"work_order"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, model.WorkOrderStatusPending, body.WorkOrder.Status)
}

func TestScheduleWorkOrder_WrongContractorIs403(t *testing.T) {
	router, db := newTestRouter(t)
	owner := createContractor(t, db)
	other := createContractor(t, db)
	orderID := createWorkOrder(t, db, owner)

	w := doJSON(t, router, "POST", "/api/work-orders/"+orderID.String()+"/schedule", uuid.New(), gin.H{
		"contractor_id": other,
		"start":         hour(10),
		"end":           hour(12),
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetWorkOrder_UnknownIs404(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, "GET", "/api/work-orders/"+uuid.NewString(), uuid.Nil, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckConflicts_ReportsAndLists(t *testing.T) {
	router, db := newTestRouter(t)
	contractorID := createContractor(t, db)
	w1 := createWorkOrder(t, db, contractorID)
	w2 := createWorkOrder(t, db, contractorID)
	actor := uuid.New()

	resp := doJSON(t, router, "POST", "/api/work-orders/"+w1.String()+"/schedule", actor, gin.H{
		"contractor_id": contractorID,
		"start":         hour(13),
		"end":           hour(15),
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doJSON(t, router, "POST", "/api/contractors/"+contractorID.String()+"/conflicts/check", actor, gin.H{
		"start":       hour(14),
		"end":         hour(16),
		"entity_kind": "work_order",
		"entity_id":   w2,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Conflicts []model.ScheduleConflict `json:"conflicts"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Conflicts, 1)

	resp = doJSON(t, router, "GET", "/api/contractors/"+contractorID.String()+"/conflicts?status=open", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var page struct {
		Items []model.ScheduleConflict `json:"items"`
		Total int                      `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
}

func TestDismissConflict_SecondTransitionIs409(t *testing.T) {
	router, db := newTestRouter(t)
	contractorID := createContractor(t, db)
	w1 := createWorkOrder(t, db, contractorID)
	w2 := createWorkOrder(t, db, contractorID)
	actor := uuid.New()

	resp := doJSON(t, router, "POST", "/api/work-orders/"+w1.String()+"/schedule", actor, gin.H{
		"contractor_id": contractorID,
		"start":         hour(13),
		"end":           hour(15),
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doJSON(t, router, "POST", "/api/work-orders/"+w2.String()+"/schedule", actor, gin.H{
		"contractor_id": contractorID,
		"start":         hour(14),
		"end":           hour(16),
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Conflicts []model.ScheduleConflict `json:"conflicts"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Conflicts, 1)
	conflictID := body.Conflicts[0].ID

	resp = doJSON(t, router, "POST", "/api/conflicts/"+conflictID.String()+"/dismiss", actor, gin.H{
		"reason": "client approved",
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = doJSON(t, router, "POST", "/api/conflicts/"+conflictID.String()+"/dismiss", actor, gin.H{
		"reason": "again",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestAuditTrail_ByEntity(t *testing.T) {
	router, db := newTestRouter(t)
	contractorID := createContractor(t, db)
	orderID := createWorkOrder(t, db, contractorID)
	actor := uuid.New()

	resp := doJSON(t, router, "POST", "/api/work-orders/"+orderID.String()+"/schedule", actor, gin.H{
		"contractor_id": contractorID,
		"start":         hour(10),
		"end":           hour(12),
	})
	require.Equal(t, http.StatusOK, resp.Code)

	path := fmt.Sprintf("/api/audit?entity_type=work_order&entity_id=%s", orderID)
	resp = doJSON(t, router, "GET", path, uuid.Nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var page struct {
		Items []model.ScheduleAuditLog `json:"items"`
		Total int                      `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, model.AuditActionWorkOrderScheduled, page.Items[0].Action)
	assert.Equal(t, actor, page.Items[0].ActorID)
}
