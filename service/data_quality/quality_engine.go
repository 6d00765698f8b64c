/*
 * @module service/data_quality/quality_engine
 * @description 数据质量引擎，按类别对记录批次执行固定检查目录并生成检查结果
 * @architecture 分层架构 - 数据质量服务层
 * @documentReference DESIGN.md
 * @stateFlow 记录批次 -> 模式发现 -> 通用检查 -> 业务规则 -> 检查结果
 * @rules 空批次不产生任何检查；除 id 与 executed_at 外结果可逐字节复现；异常记录只作为质量信号
 * @dependencies watchtower-service/service/models, github.com/google/uuid
 * @refs catalog.go, summarizer.go, service/pipeline
 */

package data_quality

import (
	"time"

	"watchtower-service/service/models"

	"github.com/google/uuid"
)

// QualityEngine 数据质量引擎
type QualityEngine struct {
	catalog *CheckCatalog
	now     func() time.Time
	newID   func() string
}

// NewQualityEngine 创建数据质量引擎实例
func NewQualityEngine() *QualityEngine {
	return &QualityEngine{
		catalog: NewCheckCatalog(),
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// Catalog 返回引擎使用的检查目录
func (e *QualityEngine) Catalog() *CheckCatalog {
	return e.catalog
}

// Evaluate 对批次执行质量检查，结果顺序与检查目录一致
func (e *QualityEngine) Evaluate(batch *RecordBatch) []models.CheckResult {
	if batch.Len() == 0 {
		return []models.CheckResult{}
	}

	schema := DiscoverSchema(batch)
	checks := e.catalog.ChecksFor(batch.Category())
	results := make([]models.CheckResult, 0, len(checks))

	for _, check := range checks {
		verdict := check.Evaluate(schema, batch)
		results = append(results, models.CheckResult{
			ID:             e.newID(),
			CheckType:      check.CheckType,
			RuleName:       check.Name,
			RuleDefinition: check.Definition(schema),
			Status:         verdict.Status,
			Details:        verdict.Details,
			ExecutedAt:     e.now().UTC(),
		})
	}

	return results
}
