/*
 * @module service/pipeline/scheduler
 * @description 定时重跑调度器，按 cron 表达式为所有数据源提交重跑任务
 * @architecture 分层架构 - 任务调度层
 * @documentReference DESIGN.md
 * @stateFlow cron 触发 -> 获取调度锁 -> 列出数据源 -> 提交重跑任务
 * @rules 多实例部署时只有拿到调度锁的实例提交任务；未配置表达式时不启动
 * @dependencies github.com/robfig/cron/v3, watchtower-service/service/distributed_lock
 * @refs runner.go, main.go
 */

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"watchtower-service/service/distributed_lock"
	"watchtower-service/service/models"
)

const schedulerLockKey = "pipeline:scheduler"

// SourceLister 列出全部数据源
type SourceLister interface {
	ListSourceIDs(ctx context.Context) ([]models.DataSource, error)
}

// RerunScheduler 定时重跑调度器
type RerunScheduler struct {
	cron    *cron.Cron
	spec    string
	sources SourceLister
	queue   TaskQueue
	locks   *distributed_lock.LockExecutor
	lockTTL time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewRerunScheduler 创建定时重跑调度器，spec 支持秒级字段（可选）
func NewRerunScheduler(spec string, sources SourceLister, queue TaskQueue, lock distributed_lock.DistributedLock) *RerunScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &RerunScheduler{
		cron:    cron.New(cron.WithParser(cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor))),
		spec:    spec,
		sources: sources,
		queue:   queue,
		locks:   distributed_lock.NewLockExecutor(lock),
		lockTTL: time.Minute,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start 注册 cron 任务并启动
func (s *RerunScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() {
		if err := s.TriggerAll(s.ctx); err != nil {
			slog.Error("定时重跑失败", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("无效的重跑 cron 表达式 %q: %w", s.spec, err)
	}
	s.cron.Start()
	slog.Info("定时重跑调度器已启动", "cron", s.spec)
	return nil
}

// Stop 停止调度器并等待正在执行的触发完成
func (s *RerunScheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	slog.Info("定时重跑调度器已停止")
}

// TriggerAll 为所有数据源提交重跑任务，返回提交失败的汇总错误
func (s *RerunScheduler) TriggerAll(ctx context.Context) error {
	return s.locks.ExecuteWithLock(ctx, schedulerLockKey, s.lockTTL, func() error {
		sources, err := s.sources.ListSourceIDs(ctx)
		if err != nil {
			return err
		}

		failed := 0
		for _, source := range sources {
			err := s.queue.Enqueue(ctx, Task{
				DataSourceID:    source.ID,
				OwnerID:         source.OwnerID,
				InvalidatePrior: true,
				Trigger:         TriggerSchedule,
			})
			if err != nil {
				failed++
				slog.Error("提交重跑任务失败", "source_id", source.ID, "error", err)
			}
		}

		slog.Info("定时重跑任务已提交", "total", len(sources), "failed", failed)
		if failed > 0 {
			return fmt.Errorf("%d 个重跑任务提交失败", failed)
		}
		return nil
	})
}
