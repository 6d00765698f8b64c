/*
 * @module service/models/quality_models
 * @description 数据质量模型，包含检查结果、流水线运行记录以及状态枚举
 * @architecture 数据模型层
 * @documentReference DESIGN.md
 * @stateFlow 规则评估 -> 检查结果 -> 流水线汇总
 * @rules 检查结果与流水线运行记录一经生成不可修改；重跑时生成新记录
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/data_quality/, service/pipeline/
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CheckType 检查类型
type CheckType string

const (
	CheckTypeSchema       CheckType = "schema"
	CheckTypeConstraint   CheckType = "constraint"
	CheckTypeBusinessRule CheckType = "business_rule"
)

// CheckStatus 检查结论
type CheckStatus string

const (
	CheckStatusPassed  CheckStatus = "passed"
	CheckStatusFailed  CheckStatus = "failed"
	CheckStatusWarning CheckStatus = "warning"
)

// Valid 是否为合法的检查结论
func (s CheckStatus) Valid() bool {
	switch s {
	case CheckStatusPassed, CheckStatusFailed, CheckStatusWarning:
		return true
	}
	return false
}

// StageStatus 流水线阶段状态（bronze/silver/gold）
type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
)

// CheckResult 质量检查结果
type CheckResult struct {
	ID             string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	DataSourceID   string      `gorm:"type:varchar(36);index" json:"data_source_id"`
	OwnerID        string      `gorm:"type:varchar(36);index" json:"-"`
	CheckType      CheckType   `gorm:"type:varchar(30);not null" json:"check_type"`
	RuleName       string      `gorm:"type:varchar(100);not null" json:"rule_name"`
	RuleDefinition JSONB       `gorm:"type:jsonb" json:"rule_definition"`
	Status         CheckStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Details        JSONB       `gorm:"type:jsonb" json:"details"`
	ExecutedAt     time.Time   `gorm:"index" json:"executed_at"`
}

// TableName 指定表名
func (CheckResult) TableName() string {
	return "quality_checks"
}

// BeforeCreate 创建前钩子
func (c *CheckResult) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// PipelineRun 流水线运行记录
type PipelineRun struct {
	ID            string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	DataSourceID  string      `gorm:"type:varchar(36);index" json:"data_source_id"`
	OwnerID       string      `gorm:"type:varchar(36);index" json:"-"`
	BronzeStatus  StageStatus `gorm:"type:varchar(20);not null" json:"bronze_status"`
	SilverStatus  StageStatus `gorm:"type:varchar(20);not null" json:"silver_status"`
	GoldStatus    StageStatus `gorm:"type:varchar(20);not null" json:"gold_status"`
	QualityScore  float64     `json:"quality_score"`
	TotalRecords  int         `json:"total_records"`
	PassedRecords int         `json:"passed_records"`
	FailedRecords int         `json:"failed_records"`
	StartedAt     time.Time   `gorm:"index" json:"started_at"`
	CompletedAt   *time.Time  `json:"completed_at"`
}

// TableName 指定表名
func (PipelineRun) TableName() string {
	return "pipeline_runs"
}

// BeforeCreate 创建前钩子
func (p *PipelineRun) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
