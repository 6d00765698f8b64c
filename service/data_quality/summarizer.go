/*
 * @module service/data_quality/summarizer
 * @description 流水线汇总器，将检查结果折叠为流水线运行记录（阶段状态、质量评分、记录数）
 * @architecture 分层架构 - 数据质量服务层
 * @documentReference DESIGN.md
 * @stateFlow 检查结果 -> 状态计数 -> 评分 -> 阶段状态 -> 流水线运行记录
 * @rules bronze 恒为 completed；silver 仅在无失败时 completed；gold 仅在无失败且无警告时 completed
 * @dependencies watchtower-service/service/models, github.com/google/uuid
 * @refs quality_engine.go, service/pipeline
 */

package data_quality

import (
	"math"
	"time"

	"watchtower-service/service/models"

	"github.com/google/uuid"
)

// FailedRecordMultiplier 每个失败检查折算的受影响记录数。
// 这是粗略近似，并非逐条记录的通过/失败划分。
const FailedRecordMultiplier = 10

// StatusCounts 各结论的检查数
type StatusCounts struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Warning int `json:"warning"`
}

// Total 检查总数
func (c StatusCounts) Total() int {
	return c.Passed + c.Failed + c.Warning
}

// Add 累加一个结论
func (c *StatusCounts) Add(status models.CheckStatus) {
	switch status {
	case models.CheckStatusPassed:
		c.Passed++
	case models.CheckStatusFailed:
		c.Failed++
	case models.CheckStatusWarning:
		c.Warning++
	}
}

// CountStatuses 统计检查结论
func CountStatuses(checks []models.CheckResult) StatusCounts {
	var counts StatusCounts
	for _, check := range checks {
		counts.Add(check.Status)
	}
	return counts
}

// QualityScore 通过率（百分比，保留两位小数）；没有检查时返回 emptyScore。
// 流水线汇总使用 0，仪表盘总览使用 100，两种约定按调用方区分。
func QualityScore(counts StatusCounts, emptyScore float64) float64 {
	total := counts.Total()
	if total == 0 {
		return emptyScore
	}
	return roundTo2(float64(counts.Passed) / float64(total) * 100)
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Summarizer 流水线汇总器
type Summarizer struct {
	now func() time.Time
}

// NewSummarizer 创建流水线汇总器
func NewSummarizer() *Summarizer {
	return &Summarizer{now: time.Now}
}

// Summarize 汇总检查结果，返回流水线运行记录及状态计数
func (s *Summarizer) Summarize(batchSize int, checks []models.CheckResult) (*models.PipelineRun, StatusCounts) {
	counts := CountStatuses(checks)
	now := s.now().UTC()

	silver := models.StageStatusCompleted
	if counts.Failed > 0 {
		silver = models.StageStatusFailed
	}
	gold := models.StageStatusPending
	if counts.Failed == 0 && counts.Warning == 0 {
		gold = models.StageStatusCompleted
	}

	failedRecords := counts.Failed * FailedRecordMultiplier
	run := &models.PipelineRun{
		ID:            uuid.New().String(),
		BronzeStatus:  models.StageStatusCompleted,
		SilverStatus:  silver,
		GoldStatus:    gold,
		QualityScore:  QualityScore(counts, 0),
		TotalRecords:  batchSize,
		PassedRecords: batchSize - failedRecords,
		FailedRecords: failedRecords,
		StartedAt:     now,
		CompletedAt:   &now,
	}
	return run, counts
}
