package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DataSource 数据源，记录以 JSONB 数组形式随数据源一起保存
type DataSource struct {
	ID          string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string     `gorm:"type:varchar(200);not null" json:"name"`
	SourceType  string     `gorm:"type:varchar(30);not null" json:"source_type"` // insurance, banking, custom
	Description *string    `gorm:"type:text" json:"description"`
	RecordCount int        `json:"record_count"`
	Data        JSONBArray `gorm:"type:jsonb" json:"-"`
	OwnerID     string     `gorm:"type:varchar(36);index" json:"owner_id"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TableName 指定表名
func (DataSource) TableName() string {
	return "data_sources"
}

// BeforeCreate 创建前钩子
func (d *DataSource) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}
