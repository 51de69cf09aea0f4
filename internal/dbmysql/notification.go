package dbmysql

import (
	"time"

	"gorm.io/datatypes"
)

type Notification struct {
	ID            string            `gorm:"primaryKey;size:36"`
	UserID        uint64            `gorm:"not null;index"`
	Header        string            `gorm:"not null;size:255"`
	Content       string            `gorm:"not null;type:text"`
	ReadAt        *time.Time
	Type          string            `gorm:"not null;size:50"`
	Status        string            `gorm:"default:'pending';size:50"`
	TriggerUserID *uint64
	Metadata      datatypes.JSONMap `gorm:"type:json"`
	CreatedAt     time.Time         `gorm:"autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"autoUpdateTime"`
}
