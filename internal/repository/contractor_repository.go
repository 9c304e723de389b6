package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HomieRX/schedule-core/internal/model"
)

// Проекция подрядчиков: данные синхронизирует внешняя система,
// ядро планирования их только читает.
type ContractorRepository interface {
	// Найти подрядчика по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Contractor, error)
	// Создать или обновить проекцию (для синхронизации и тестов).
	Upsert(ctx context.Context, contractor *model.Contractor) error
}

// Реализация на GORM.
type GormContractorRepository struct {
	db *gorm.DB
}

func NewGormContractorRepository(db *gorm.DB) *GormContractorRepository {
	return &GormContractorRepository{db: db}
}

func (r *GormContractorRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Contractor, error) {
	var contractor model.Contractor
	if err := r.db.WithContext(ctx).First(&contractor, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &contractor, nil
}

func (r *GormContractorRepository) Upsert(ctx context.Context, contractor *model.Contractor) error {
	return r.db.WithContext(ctx).Save(contractor).Error
}
