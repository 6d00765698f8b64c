package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AlertType 告警通道类型
type AlertType string

const (
	AlertTypeWebhook AlertType = "webhook"
	AlertTypeEmail   AlertType = "email"
)

// ParseAlertType 解析告警通道类型，slack 视为 webhook 的别名
func ParseAlertType(raw string) (AlertType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "webhook", "slack":
		return AlertTypeWebhook, true
	case "email":
		return AlertTypeEmail, true
	}
	return "", false
}

// AlertConfig 告警通道配置
type AlertConfig struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	AlertType AlertType `gorm:"type:varchar(20);not null" json:"alert_type"`
	Config    JSONB     `gorm:"type:jsonb" json:"config"` // webhook_url / email
	Enabled   bool      `gorm:"not null" json:"enabled"`
	OwnerID   string    `gorm:"type:varchar(36);index" json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名
func (AlertConfig) TableName() string {
	return "alert_configs"
}

// BeforeCreate 创建前钩子
func (a *AlertConfig) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// Destination 返回通道目标地址（webhook URL 或邮箱），未配置时返回空串
func (a *AlertConfig) Destination() string {
	keys := []string{"email"}
	if a.AlertType == AlertTypeWebhook {
		keys = []string{"webhook_url", "url"}
	}
	for _, key := range keys {
		if v, ok := a.Config[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
