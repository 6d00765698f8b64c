/*
 * @module service/monitoring/alert_config_service
 * @description 告警通道配置管理，提供按归属范围的增删改查以及流水线告警的通道查找
 * @architecture 分层架构 - 业务服务层
 * @documentReference DESIGN.md
 * @stateFlow 配置创建 -> 启用/禁用 -> 告警分发时查找
 * @rules 所有按 ID 的操作都限定在调用者的归属范围内；匿名范围为空字符串
 * @dependencies watchtower-service/service/models, gorm.io/gorm
 * @refs alert_manager.go, api/controllers/alert_controller.go
 */

package monitoring

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"watchtower-service/service/models"
)

// ErrAlertConfigNotFound 告警配置不存在或不属于当前归属范围
var ErrAlertConfigNotFound = errors.New("告警配置不存在")

// ErrInvalidAlertType 不支持的告警通道类型
var ErrInvalidAlertType = errors.New("不支持的告警通道类型")

// ChannelFinder 按归属范围查找告警通道
type ChannelFinder interface {
	FindChannelsForOwner(ctx context.Context, ownerScope string) ([]models.AlertConfig, error)
}

// AlertConfigInput 创建/更新告警配置的输入
type AlertConfigInput struct {
	AlertType string                 `json:"alert_type" example:"webhook"`
	Config    map[string]interface{} `json:"config"`
	Enabled   *bool                  `json:"enabled,omitempty"`
}

func (in *AlertConfigInput) normalize() (models.AlertType, bool, error) {
	alertType, ok := models.ParseAlertType(in.AlertType)
	if !ok {
		return "", false, fmt.Errorf("%w: %s", ErrInvalidAlertType, in.AlertType)
	}
	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}
	return alertType, enabled, nil
}

// AlertConfigService 告警配置服务
type AlertConfigService struct {
	db *gorm.DB
}

// NewAlertConfigService 创建告警配置服务实例
func NewAlertConfigService(db *gorm.DB) *AlertConfigService {
	return &AlertConfigService{db: db}
}

// Create 创建告警配置
func (s *AlertConfigService) Create(ctx context.Context, ownerScope string, in AlertConfigInput) (*models.AlertConfig, error) {
	alertType, enabled, err := in.normalize()
	if err != nil {
		return nil, err
	}
	cfg := &models.AlertConfig{
		AlertType: alertType,
		Config:    models.JSONB(in.Config),
		Enabled:   enabled,
		OwnerID:   ownerScope,
	}
	if cfg.Config == nil {
		cfg.Config = models.JSONB{}
	}
	if err := s.db.WithContext(ctx).Create(cfg).Error; err != nil {
		return nil, fmt.Errorf("保存告警配置失败: %w", err)
	}
	return cfg, nil
}

// List 列出归属范围内的告警配置
func (s *AlertConfigService) List(ctx context.Context, ownerScope string) ([]models.AlertConfig, error) {
	var configs []models.AlertConfig
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerScope).
		Order("created_at ASC").
		Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("查询告警配置失败: %w", err)
	}
	return configs, nil
}

// Get 获取单个告警配置
func (s *AlertConfigService) Get(ctx context.Context, ownerScope, id string) (*models.AlertConfig, error) {
	var cfg models.AlertConfig
	err := s.db.WithContext(ctx).First(&cfg, "id = ? AND owner_id = ?", id, ownerScope).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAlertConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询告警配置失败: %w", err)
	}
	return &cfg, nil
}

// Update 整体替换告警配置的类型、参数与启用状态
func (s *AlertConfigService) Update(ctx context.Context, ownerScope, id string, in AlertConfigInput) (*models.AlertConfig, error) {
	alertType, enabled, err := in.normalize()
	if err != nil {
		return nil, err
	}
	cfg, err := s.Get(ctx, ownerScope, id)
	if err != nil {
		return nil, err
	}

	cfg.AlertType = alertType
	cfg.Config = models.JSONB(in.Config)
	if cfg.Config == nil {
		cfg.Config = models.JSONB{}
	}
	cfg.Enabled = enabled

	// Select 保证 enabled=false 也会被写入
	if err := s.db.WithContext(ctx).Model(cfg).
		Select("alert_type", "config", "enabled").
		Updates(cfg).Error; err != nil {
		return nil, fmt.Errorf("更新告警配置失败: %w", err)
	}
	return cfg, nil
}

// Delete 删除告警配置
func (s *AlertConfigService) Delete(ctx context.Context, ownerScope, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.AlertConfig{}, "id = ? AND owner_id = ?", id, ownerScope)
	if result.Error != nil {
		return fmt.Errorf("删除告警配置失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlertConfigNotFound
	}
	return nil
}

// FindChannelsForOwner 查找归属范围内所有启用的告警通道
func (s *AlertConfigService) FindChannelsForOwner(ctx context.Context, ownerScope string) ([]models.AlertConfig, error) {
	var configs []models.AlertConfig
	if err := s.db.WithContext(ctx).
		Where("owner_id = ? AND enabled = ?", ownerScope, true).
		Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("查询告警通道失败: %w", err)
	}
	return configs, nil
}
