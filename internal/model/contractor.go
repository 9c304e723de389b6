package model

import (
	"time"

	"github.com/google/uuid"
)

// contractors — минимальная проекция подрядчика.
// Источник данных — внешняя система управления подрядчиками;
// здесь храним ровно то, что нужно для проверок планирования.
type Contractor struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	DisplayName string `gorm:"type:varchar(255);not null" json:"display_name"`

	Active bool `gorm:"not null;default:true;index" json:"active"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}
