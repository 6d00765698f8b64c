/*
 * @module service/pipeline/memory_queue
 * @description 进程内任务队列，带缓冲通道加固定数量工作协程
 * @architecture 工作池模式
 * @documentReference DESIGN.md
 * @stateFlow Enqueue -> 通道缓冲 -> 工作协程 -> 重试 -> 完成
 * @rules 关闭后拒绝新任务；Close 会等待已入队任务处理完毕
 * @dependencies log/slog
 * @refs runner.go, kafka_queue.go
 */

package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// MemoryQueue 内存任务队列
type MemoryQueue struct {
	tasks   chan Task
	workers int
	policy  RetryPolicy

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// NewMemoryQueue 创建内存任务队列
func NewMemoryQueue(workers, size int, policy RetryPolicy) *MemoryQueue {
	if workers <= 0 {
		workers = 1
	}
	if size < 0 {
		size = 0
	}
	return &MemoryQueue{
		tasks:   make(chan Task, size),
		workers: workers,
		policy:  policy,
	}
}

// Enqueue 提交任务；缓冲已满时阻塞直到有空位或 ctx 结束
func (q *MemoryQueue) Enqueue(ctx context.Context, task Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now().UTC()
	}

	select {
	case q.tasks <- task:
		slog.Debug("任务已入队", "source_id", task.DataSourceID, "trigger", task.Trigger)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start 启动工作协程
func (q *MemoryQueue) Start(ctx context.Context, handler TaskHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if q.started {
		return errors.New("任务队列已启动")
	}
	q.started = true

	workerCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(workerCtx, i, handler)
	}
	slog.Info("内存任务队列已启动", "workers", q.workers, "buffer", cap(q.tasks))
	return nil
}

func (q *MemoryQueue) worker(ctx context.Context, id int, handler TaskHandler) {
	defer q.wg.Done()
	for task := range q.tasks {
		if err := runWithRetry(ctx, q.policy, handler, task); err != nil {
			slog.Error("任务最终失败", "worker", id, "source_id", task.DataSourceID, "error", err)
		}
	}
}

// Close 关闭队列并等待在途任务完成
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.tasks)
	started := q.started
	q.mu.Unlock()

	if started {
		q.wg.Wait()
		q.cancel()
	}
	slog.Info("内存任务队列已关闭")
	return nil
}
