package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	// ErrQueueClosed 队列已关闭
	ErrQueueClosed = errors.New("任务队列已关闭")
)

// Task 编排任务消息，只携带标识，执行时再加载数据
type Task struct {
	DataSourceID string `json:"data_source_id"`
	OwnerID      string `json:"owner_id"`
	// InvalidatePrior 为 true 时先删除该数据源的历史检查结果（重跑）
	InvalidatePrior bool      `json:"invalidate_prior"`
	Trigger         string    `json:"trigger"` // create, upload, rerun, schedule
	EnqueuedAt      time.Time `json:"enqueued_at"`
}

const (
	TriggerCreate   = "create"
	TriggerUpload   = "upload"
	TriggerRerun    = "rerun"
	TriggerSchedule = "schedule"
)

// TaskHandler 任务处理函数
type TaskHandler func(ctx context.Context, task Task) error

// TaskQueue 后台任务队列，至少一次投递
type TaskQueue interface {
	// Enqueue 提交任务，立即返回
	Enqueue(ctx context.Context, task Task) error
	// Start 启动消费，handler 在工作协程中执行
	Start(ctx context.Context, handler TaskHandler) error
	// Close 停止接收新任务并等待在途任务完成
	Close() error
}

// permanentError 标记不可重试的错误
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent 包装不可重试的错误
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent 判断错误是否不可重试
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// RetryPolicy 任务重试策略
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration // 第 n 次重试前等待 n*Delay
}

// runWithRetry 执行任务，失败时按策略重试；返回最后一次错误
func runWithRetry(ctx context.Context, policy RetryPolicy, handler TaskHandler, task Task) error {
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = handler(ctx, task)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			slog.Error("任务失败且不可重试", "source_id", task.DataSourceID, "trigger", task.Trigger, "error", err)
			return err
		}
		if attempt == attempts {
			break
		}

		slog.Warn("任务失败，准备重试", "source_id", task.DataSourceID, "attempt", attempt, "max_attempts", attempts, "error", err)
		select {
		case <-ctx.Done():
			return fmt.Errorf("任务重试被取消: %w", ctx.Err())
		case <-time.After(time.Duration(attempt) * policy.Delay):
		}
	}

	slog.Error("任务重试次数耗尽", "source_id", task.DataSourceID, "trigger", task.Trigger, "attempts", attempts, "error", err)
	return err
}
