package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HomieRX/schedule-core/internal/model"
	"github.com/HomieRX/schedule-core/internal/repository"
)

// ContractorService держит локальную проекцию справочника подрядчиков.
// Источник истины — внешняя система; она пушит изменения через Sync.
type ContractorService struct {
	db *gorm.DB
}

func NewContractorService(db *gorm.DB) *ContractorService {
	return &ContractorService{db: db}
}

// Sync создаёт или обновляет проекцию подрядчика.
// Деактивация (active = false) не трогает существующий график:
// она лишь запрещает новые назначения.
func (s *ContractorService) Sync(
	ctx context.Context,
	id uuid.UUID,
	displayName string,
	active bool,
) (*model.Contractor, error) {
	contractor := &model.Contractor{
		ID:          id,
		DisplayName: displayName,
		Active:      active,
	}
	if err := repository.NewGormContractorRepository(s.db).Upsert(ctx, contractor); err != nil {
		return nil, err
	}
	return contractor, nil
}

// Get возвращает проекцию подрядчика.
func (s *ContractorService) Get(ctx context.Context, id uuid.UUID) (*model.Contractor, error) {
	contractor, err := repository.NewGormContractorRepository(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "contractor")
	}
	return contractor, nil
}
