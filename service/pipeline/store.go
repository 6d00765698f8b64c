/*
 * @module service/pipeline/store
 * @description 流水线结果存储，负责检查结果与流水线运行记录的持久化与查询
 * @architecture 分层架构 - 数据访问层
 * @documentReference DESIGN.md
 * @stateFlow 编排任务 -> 事务内落库 -> 查询接口读取
 * @rules 查询均按归属范围过滤；列表按时间倒序并限制条数
 * @dependencies gorm.io/gorm, watchtower-service/service/models
 * @refs runner.go, api/controllers/quality_controller.go, api/controllers/pipeline_controller.go
 */

package pipeline

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"watchtower-service/service/models"
)

const (
	maxListedChecks = 500
	maxListedRuns   = 100
)

var (
	// ErrSourceNotFound 数据源不存在
	ErrSourceNotFound = errors.New("数据源不存在")
	// ErrRunNotFound 流水线运行不存在
	ErrRunNotFound = errors.New("流水线运行不存在")
)

// ResultStore 编排任务的持久化协作者
type ResultStore interface {
	SaveCheckResult(ctx context.Context, check *models.CheckResult) error
	SavePipelineRun(ctx context.Context, run *models.PipelineRun) error
	DeleteChecksForSource(ctx context.Context, sourceID string) error
	// InTx 在同一事务内执行 fn，fn 返回错误时回滚
	InTx(ctx context.Context, fn func(tx ResultStore) error) error
}

// SourceLoader 按 ID 加载数据源（含记录）
type SourceLoader interface {
	LoadSource(ctx context.Context, sourceID string) (*models.DataSource, error)
}

// GormStore 基于 gorm 的结果存储
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 创建结果存储
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// SaveCheckResult 保存检查结果
func (s *GormStore) SaveCheckResult(ctx context.Context, check *models.CheckResult) error {
	if err := s.db.WithContext(ctx).Create(check).Error; err != nil {
		return fmt.Errorf("保存检查结果失败: %w", err)
	}
	return nil
}

// SavePipelineRun 保存流水线运行
func (s *GormStore) SavePipelineRun(ctx context.Context, run *models.PipelineRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("保存流水线运行失败: %w", err)
	}
	return nil
}

// DeleteChecksForSource 删除数据源的全部历史检查结果
func (s *GormStore) DeleteChecksForSource(ctx context.Context, sourceID string) error {
	if err := s.db.WithContext(ctx).
		Where("data_source_id = ?", sourceID).
		Delete(&models.CheckResult{}).Error; err != nil {
		return fmt.Errorf("删除历史检查结果失败: %w", err)
	}
	return nil
}

// InTx 在事务内执行
func (s *GormStore) InTx(ctx context.Context, fn func(tx ResultStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// LoadSource 加载数据源，不做归属过滤（任务自身携带归属范围）
func (s *GormStore) LoadSource(ctx context.Context, sourceID string) (*models.DataSource, error) {
	var source models.DataSource
	err := s.db.WithContext(ctx).First(&source, "id = ?", sourceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("加载数据源失败: %w", err)
	}
	return &source, nil
}

// ListSourceIDs 列出所有数据源及其归属，用于定时重跑
func (s *GormStore) ListSourceIDs(ctx context.Context) ([]models.DataSource, error) {
	var sources []models.DataSource
	if err := s.db.WithContext(ctx).
		Select("id", "owner_id").
		Order("created_at ASC").
		Find(&sources).Error; err != nil {
		return nil, fmt.Errorf("查询数据源失败: %w", err)
	}
	return sources, nil
}

// ListChecks 列出归属范围内的检查结果，sourceID 非空时按数据源过滤
func (s *GormStore) ListChecks(ctx context.Context, ownerScope, sourceID string) ([]models.CheckResult, error) {
	query := s.db.WithContext(ctx).Where("owner_id = ?", ownerScope)
	if sourceID != "" {
		query = query.Where("data_source_id = ?", sourceID)
	}

	var checks []models.CheckResult
	if err := query.Order("executed_at DESC").Limit(maxListedChecks).Find(&checks).Error; err != nil {
		return nil, fmt.Errorf("查询检查结果失败: %w", err)
	}
	for i := range checks {
		fillLegacyRuleDefinition(&checks[i])
	}
	return checks, nil
}

// ListChecksForSource 列出某数据源的检查结果（用于血缘视图）
func (s *GormStore) ListChecksForSource(ctx context.Context, sourceID string, limit int) ([]models.CheckResult, error) {
	var checks []models.CheckResult
	if err := s.db.WithContext(ctx).
		Where("data_source_id = ?", sourceID).
		Order("executed_at DESC").
		Limit(limit).
		Find(&checks).Error; err != nil {
		return nil, fmt.Errorf("查询检查结果失败: %w", err)
	}
	for i := range checks {
		fillLegacyRuleDefinition(&checks[i])
	}
	return checks, nil
}

// ListRuns 列出归属范围内的流水线运行
func (s *GormStore) ListRuns(ctx context.Context, ownerScope string) ([]models.PipelineRun, error) {
	var runs []models.PipelineRun
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerScope).
		Order("started_at DESC").
		Limit(maxListedRuns).
		Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("查询流水线运行失败: %w", err)
	}
	return runs, nil
}

// ListRunsForSource 列出某数据源最近的流水线运行
func (s *GormStore) ListRunsForSource(ctx context.Context, sourceID string, limit int) ([]models.PipelineRun, error) {
	var runs []models.PipelineRun
	if err := s.db.WithContext(ctx).
		Where("data_source_id = ?", sourceID).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("查询流水线运行失败: %w", err)
	}
	return runs, nil
}

// GetRun 获取归属范围内的单个流水线运行
func (s *GormStore) GetRun(ctx context.Context, ownerScope, runID string) (*models.PipelineRun, error) {
	var run models.PipelineRun
	err := s.db.WithContext(ctx).First(&run, "id = ? AND owner_id = ?", runID, ownerScope).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询流水线运行失败: %w", err)
	}
	return &run, nil
}

// fillLegacyRuleDefinition 早期记录没有规则定义，补一个占位
func fillLegacyRuleDefinition(check *models.CheckResult) {
	if len(check.RuleDefinition) == 0 {
		ruleName := check.RuleName
		if ruleName == "" {
			ruleName = "Unknown"
		}
		check.RuleDefinition = models.JSONB{"type": "legacy", "rule": ruleName}
	}
}
