/*
 * @module service/dashboard/dashboard_service
 * @description 仪表盘统计、质量汇总、时间线与数据血缘视图
 * @architecture 分层架构 - 业务服务层（只读聚合）
 * @documentReference DESIGN.md
 * @stateFlow 查询检查结果/流水线运行 -> 按归属范围聚合 -> 返回视图
 * @rules 无检查结果时总体质量分为 100；通过率为 0；血缘视图以最新一次运行为准
 * @dependencies gorm.io/gorm, service/data_quality, service/pipeline
 * @refs api/controllers/dashboard_controller.go
 */

package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"watchtower-service/service/data_quality"
	"watchtower-service/service/models"
	"watchtower-service/service/pipeline"
)

const (
	DefaultTimelineDays = 7
	recentAlertWindow   = 24 * time.Hour
	lineageCheckLimit   = 100
	lineageRunLimit     = 10
)

// ErrSourceNotFound 血缘视图的数据源不存在
var ErrSourceNotFound = errors.New("Data source not found")

// Stats 仪表盘总览
type Stats struct {
	TotalDataSources    int64   `json:"total_data_sources"`
	TotalQualityChecks  int64   `json:"total_quality_checks"`
	TotalPipelineRuns   int64   `json:"total_pipeline_runs"`
	OverallQualityScore float64 `json:"overall_quality_score"`
	RecentAlerts        int64   `json:"recent_alerts"`
	ChecksPassed        int     `json:"checks_passed"`
	ChecksFailed        int     `json:"checks_failed"`
	ChecksWarning       int     `json:"checks_warning"`
}

// QualitySummary 检查结果汇总
type QualitySummary struct {
	Total    int                                  `json:"total"`
	Passed   int                                  `json:"passed"`
	Failed   int                                  `json:"failed"`
	Warning  int                                  `json:"warning"`
	PassRate float64                              `json:"pass_rate"`
	ByType   map[string]data_quality.StatusCounts `json:"by_type"`
}

// Timeline 按日期（UTC，YYYY-MM-DD）分组的检查结论
type Timeline struct {
	Timeline map[string]data_quality.StatusCounts `json:"timeline"`
}

// LayerView 血缘中的单层视图
type LayerView struct {
	Status        models.StageStatus `json:"status"`
	Description   string             `json:"description"`
	RecordCount   *int               `json:"record_count,omitempty"`
	ChecksApplied *int               `json:"checks_applied,omitempty"`
	QualityScore  *float64           `json:"quality_score,omitempty"`
}

// Lineage 数据血缘视图（Bronze -> Silver -> Gold）
type Lineage struct {
	Source        *models.DataSource   `json:"source"`
	Layers        map[string]LayerView `json:"layers"`
	QualityChecks []models.CheckResult `json:"quality_checks"`
	PipelineRuns  []models.PipelineRun `json:"pipeline_runs"`
}

// Service 仪表盘服务
type Service struct {
	db    *gorm.DB
	store *pipeline.GormStore
	now   func() time.Time
}

// NewService 创建仪表盘服务
func NewService(db *gorm.DB, store *pipeline.GormStore) *Service {
	return &Service{db: db, store: store, now: time.Now}
}

type statusRow struct {
	CheckType string
	Status    string
	Count     int
}

// statusBreakdown 按检查类型与结论分组计数
func (s *Service) statusBreakdown(ctx context.Context, ownerScope string) ([]statusRow, error) {
	var rows []statusRow
	err := s.db.WithContext(ctx).
		Model(&models.CheckResult{}).
		Select("check_type, status, COUNT(*) AS count").
		Where("owner_id = ?", ownerScope).
		Group("check_type, status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("统计检查结果失败: %w", err)
	}
	return rows, nil
}

// Stats 仪表盘总览
func (s *Service) Stats(ctx context.Context, ownerScope string) (*Stats, error) {
	stats := &Stats{}
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.DataSource{}).Where("owner_id = ?", ownerScope).Count(&stats.TotalDataSources).Error; err != nil {
		return nil, fmt.Errorf("统计数据源失败: %w", err)
	}
	if err := db.Model(&models.PipelineRun{}).Where("owner_id = ?", ownerScope).Count(&stats.TotalPipelineRuns).Error; err != nil {
		return nil, fmt.Errorf("统计流水线运行失败: %w", err)
	}

	rows, err := s.statusBreakdown(ctx, ownerScope)
	if err != nil {
		return nil, err
	}
	var counts data_quality.StatusCounts
	for _, row := range rows {
		addCount(&counts, row.Status, row.Count)
	}
	stats.TotalQualityChecks = int64(counts.Total())
	stats.ChecksPassed = counts.Passed
	stats.ChecksFailed = counts.Failed
	stats.ChecksWarning = counts.Warning
	stats.OverallQualityScore = data_quality.QualityScore(counts, 100)

	since := s.now().UTC().Add(-recentAlertWindow)
	if err := db.Model(&models.CheckResult{}).
		Where("owner_id = ? AND status = ? AND executed_at >= ?", ownerScope, models.CheckStatusFailed, since).
		Count(&stats.RecentAlerts).Error; err != nil {
		return nil, fmt.Errorf("统计近期告警失败: %w", err)
	}
	return stats, nil
}

// Summary 检查结果汇总，含按类型分组
func (s *Service) Summary(ctx context.Context, ownerScope string) (*QualitySummary, error) {
	rows, err := s.statusBreakdown(ctx, ownerScope)
	if err != nil {
		return nil, err
	}

	var counts data_quality.StatusCounts
	byType := make(map[string]data_quality.StatusCounts)
	for _, row := range rows {
		addCount(&counts, row.Status, row.Count)
		typeCounts := byType[row.CheckType]
		addCount(&typeCounts, row.Status, row.Count)
		byType[row.CheckType] = typeCounts
	}

	return &QualitySummary{
		Total:    counts.Total(),
		Passed:   counts.Passed,
		Failed:   counts.Failed,
		Warning:  counts.Warning,
		PassRate: data_quality.QualityScore(counts, 0),
		ByType:   byType,
	}, nil
}

// Timeline 最近 days 天的检查结论，按日期分组
func (s *Service) Timeline(ctx context.Context, ownerScope string, days int) (*Timeline, error) {
	if days <= 0 {
		days = DefaultTimelineDays
	}
	since := s.now().UTC().Add(-time.Duration(days) * 24 * time.Hour)

	var checks []models.CheckResult
	err := s.db.WithContext(ctx).
		Select("status", "executed_at").
		Where("owner_id = ? AND executed_at >= ?", ownerScope, since).
		Find(&checks).Error
	if err != nil {
		return nil, fmt.Errorf("查询检查时间线失败: %w", err)
	}

	timeline := make(map[string]data_quality.StatusCounts)
	for _, check := range checks {
		day := check.ExecutedAt.UTC().Format("2006-01-02")
		counts := timeline[day]
		counts.Add(check.Status)
		timeline[day] = counts
	}
	return &Timeline{Timeline: timeline}, nil
}

// Lineage 数据源血缘视图
func (s *Service) Lineage(ctx context.Context, ownerScope, sourceID string) (*Lineage, error) {
	var source models.DataSource
	err := s.db.WithContext(ctx).
		Omit("data").
		Where("id = ? AND owner_id = ?", sourceID, ownerScope).
		First(&source).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询数据源失败: %w", err)
	}

	checks, err := s.store.ListChecksForSource(ctx, sourceID, lineageCheckLimit)
	if err != nil {
		return nil, err
	}
	runs, err := s.store.ListRunsForSource(ctx, sourceID, lineageRunLimit)
	if err != nil {
		return nil, err
	}

	bronze, silver, gold := models.StageStatusPending, models.StageStatusPending, models.StageStatusPending
	score := 0.0
	if len(runs) > 0 {
		latest := runs[0]
		bronze, silver, gold = latest.BronzeStatus, latest.SilverStatus, latest.GoldStatus
		score = latest.QualityScore
	}
	recordCount := source.RecordCount
	checksApplied := len(checks)

	return &Lineage{
		Source: &source,
		Layers: map[string]LayerView{
			"bronze": {Status: bronze, Description: "Raw data ingestion", RecordCount: &recordCount},
			"silver": {Status: silver, Description: "Data validation & quality checks", ChecksApplied: &checksApplied},
			"gold":   {Status: gold, Description: "Business-ready data", QualityScore: &score},
		},
		QualityChecks: checks,
		PipelineRuns:  runs,
	}, nil
}

func addCount(counts *data_quality.StatusCounts, status string, n int) {
	switch models.CheckStatus(status) {
	case models.CheckStatusPassed:
		counts.Passed += n
	case models.CheckStatusFailed:
		counts.Failed += n
	case models.CheckStatusWarning:
		counts.Warning += n
	}
}
