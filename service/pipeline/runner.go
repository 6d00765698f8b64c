/*
 * @module service/pipeline/runner
 * @description 流水线编排：评估批次 -> 保存检查结果 -> 汇总 -> 保存运行 -> 发布事件 -> 失败告警
 * @architecture 分层架构 - 业务服务层
 * @documentReference DESIGN.md
 * @stateFlow 获取数据源锁 -> (重跑时清理历史) -> 评估 -> 事务落库 -> 释放锁 -> 事件/指标/告警
 * @rules 同一数据源的运行串行执行；落库在单个事务内完成，重试不会产生重复结果；
 *        事件发布与告警发送失败只记录日志
 * @dependencies watchtower-service/service/data_quality, watchtower-service/service/monitoring,
 *               watchtower-service/service/distributed_lock, watchtower-service/service/event
 * @refs memory_queue.go, kafka_queue.go, scheduler.go
 */

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"watchtower-service/service/data_quality"
	"watchtower-service/service/distributed_lock"
	"watchtower-service/service/event"
	"watchtower-service/service/models"
	"watchtower-service/service/monitoring"
)

// AlertDispatcher 告警分发
type AlertDispatcher interface {
	Dispatch(ctx context.Context, ownerScope, message string, details map[string]interface{}, channels []models.AlertConfig) []monitoring.DispatchOutcome
}

// RunRequest 一次编排请求
type RunRequest struct {
	DataSourceID    string
	OwnerID         string
	Batch           *data_quality.RecordBatch
	InvalidatePrior bool
}

// RunResult 编排结果
type RunResult struct {
	Run    *models.PipelineRun
	Checks []models.CheckResult
	Counts data_quality.StatusCounts
	Alerts []monitoring.DispatchOutcome
}

// Runner 流水线编排器
type Runner struct {
	engine     *data_quality.QualityEngine
	summarizer *data_quality.Summarizer
	store      ResultStore
	sources    SourceLoader
	channels   monitoring.ChannelFinder
	alerts     AlertDispatcher
	events     event.Publisher
	metrics    *monitoring.MetricsCollector
	locks      *distributed_lock.LockExecutor
	lockTTL    time.Duration
}

// RunnerDeps 编排器依赖
type RunnerDeps struct {
	Store    ResultStore
	Sources  SourceLoader
	Channels monitoring.ChannelFinder
	Alerts   AlertDispatcher
	Events   event.Publisher
	Metrics  *monitoring.MetricsCollector
	Lock     distributed_lock.DistributedLock
	LockTTL  time.Duration
}

// NewRunner 创建流水线编排器
func NewRunner(deps RunnerDeps) *Runner {
	events := deps.Events
	if events == nil {
		events = event.NoopPublisher{}
	}
	lock := deps.Lock
	if lock == nil {
		lock = distributed_lock.NewLocalLock()
	}
	ttl := deps.LockTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Runner{
		engine:     data_quality.NewQualityEngine(),
		summarizer: data_quality.NewSummarizer(),
		store:      deps.Store,
		sources:    deps.Sources,
		channels:   deps.Channels,
		alerts:     deps.Alerts,
		events:     events,
		metrics:    deps.Metrics,
		locks:      distributed_lock.NewLockExecutor(lock),
		lockTTL:    ttl,
	}
}

// HandleTask 任务队列的处理函数：加载数据源后执行编排
func (r *Runner) HandleTask(ctx context.Context, task Task) error {
	start := time.Now()
	err := r.handleTask(ctx, task)
	r.metrics.ObserveTask(time.Since(start), err == nil)
	return err
}

func (r *Runner) handleTask(ctx context.Context, task Task) error {
	source, err := r.sources.LoadSource(ctx, task.DataSourceID)
	if errors.Is(err, ErrSourceNotFound) {
		return Permanent(fmt.Errorf("数据源 %s: %w", task.DataSourceID, err))
	}
	if err != nil {
		return err
	}

	records := make([]data_quality.Record, len(source.Data))
	for i, row := range source.Data {
		records[i] = data_quality.Record(row)
	}

	_, err = r.Run(ctx, RunRequest{
		DataSourceID:    source.ID,
		OwnerID:         task.OwnerID,
		Batch:           data_quality.NewRecordBatch(records, data_quality.ParseCategory(source.SourceType)),
		InvalidatePrior: task.InvalidatePrior,
	})
	return err
}

// Run 执行一次完整编排
func (r *Runner) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	startedAt := time.Now().UTC()
	result := &RunResult{}

	err := r.locks.ExecuteSerialized(ctx, sourceLockKey(req.DataSourceID), r.lockTTL, func() error {
		checks := r.engine.Evaluate(req.Batch)
		for i := range checks {
			checks[i].DataSourceID = req.DataSourceID
			checks[i].OwnerID = req.OwnerID
		}

		run, counts := r.summarizer.Summarize(req.Batch.Len(), checks)
		run.DataSourceID = req.DataSourceID
		run.OwnerID = req.OwnerID
		run.StartedAt = startedAt

		err := r.store.InTx(ctx, func(tx ResultStore) error {
			if req.InvalidatePrior {
				if err := tx.DeleteChecksForSource(ctx, req.DataSourceID); err != nil {
					return err
				}
			}
			for i := range checks {
				if err := tx.SaveCheckResult(ctx, &checks[i]); err != nil {
					return err
				}
			}
			return tx.SavePipelineRun(ctx, run)
		})
		if err != nil {
			return err
		}

		result.Run, result.Checks, result.Counts = run, checks, counts
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("数据源 %s 流水线执行失败: %w", req.DataSourceID, err)
	}

	slog.Info("流水线运行完成",
		"source_id", req.DataSourceID,
		"run_id", result.Run.ID,
		"quality_score", result.Run.QualityScore,
		"passed", result.Counts.Passed,
		"failed", result.Counts.Failed,
		"warning", result.Counts.Warning)

	if err := r.events.PublishPipelineRun(ctx, result.Run); err != nil {
		slog.Warn("发布流水线事件失败", "source_id", req.DataSourceID, "error", err)
	}
	r.metrics.RecordChecks(result.Checks)
	r.metrics.RecordPipelineRun(result.Run)

	if result.Counts.Failed > 0 {
		result.Alerts = r.alertFailures(ctx, req, result)
	}
	return result, nil
}

func (r *Runner) alertFailures(ctx context.Context, req RunRequest, result *RunResult) []monitoring.DispatchOutcome {
	if r.channels == nil || r.alerts == nil {
		return nil
	}
	channels, err := r.channels.FindChannelsForOwner(ctx, req.OwnerID)
	if err != nil {
		slog.Error("查询告警通道失败", "source_id", req.DataSourceID, "error", err)
		return nil
	}
	if len(channels) == 0 {
		return nil
	}

	message := fmt.Sprintf("⚠️ Data Quality Check Failed for source: %s", req.DataSourceID)
	details := map[string]interface{}{
		"failed_checks": result.Counts.Failed,
		"quality_score": result.Run.QualityScore,
	}
	return r.alerts.Dispatch(ctx, req.OwnerID, message, details, channels)
}

func sourceLockKey(sourceID string) string {
	return "pipeline:source:" + sourceID
}
