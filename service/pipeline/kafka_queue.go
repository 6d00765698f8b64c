/*
 * @module service/pipeline/kafka_queue
 * @description 基于 Kafka 消费组的任务队列，多实例部署时共享任务
 * @architecture 消息队列 - 适配器
 * @documentReference DESIGN.md
 * @stateFlow Enqueue -> Kafka topic -> 消费组拉取 -> 重试执行 -> 提交偏移
 * @rules 以数据源 ID 作为消息 key；处理（含重试）结束后才提交偏移
 * @dependencies watchtower-service/client/connectors
 * @refs memory_queue.go, client/connectors/kafka_connector.go
 */

package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"watchtower-service/client/connectors"
)

// TaskTransport 任务消息传输，由 Kafka 连接器实现
type TaskTransport interface {
	Produce(ctx context.Context, key string, value []byte) error
	Consume(ctx context.Context, handler connectors.KafkaHandler) error
	Close() error
}

// KafkaQueue Kafka 任务队列
type KafkaQueue struct {
	transport TaskTransport
	policy    RetryPolicy

	mu      sync.Mutex
	closed  bool
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewKafkaQueue 创建 Kafka 任务队列
func NewKafkaQueue(transport TaskTransport, policy RetryPolicy) *KafkaQueue {
	return &KafkaQueue{transport: transport, policy: policy, done: make(chan struct{})}
}

// Enqueue 序列化任务并写入 Kafka
func (q *KafkaQueue) Enqueue(ctx context.Context, task Task) error {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return ErrQueueClosed
	}

	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("序列化任务失败: %w", err)
	}
	if err := q.transport.Produce(ctx, task.DataSourceID, payload); err != nil {
		return fmt.Errorf("任务入队失败: %w", err)
	}
	return nil
}

// Start 启动消费协程
func (q *KafkaQueue) Start(ctx context.Context, handler TaskHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if q.started {
		return errors.New("任务队列已启动")
	}
	q.started = true

	consumeCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	go func() {
		defer close(q.done)
		err := q.transport.Consume(consumeCtx, func(ctx context.Context, key string, value []byte) error {
			var task Task
			if err := json.Unmarshal(value, &task); err != nil {
				// 无法解析的消息直接丢弃并提交
				slog.Error("任务消息格式错误", "key", key, "error", err)
				return nil
			}
			return runWithRetry(ctx, q.policy, handler, task)
		})
		if err != nil {
			slog.Error("Kafka 任务消费退出", "error", err)
		}
	}()

	slog.Info("Kafka 任务队列已启动")
	return nil
}

// Close 停止消费并关闭连接
func (q *KafkaQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	started := q.started
	q.mu.Unlock()

	if started {
		q.cancel()
		<-q.done
	}
	return q.transport.Close()
}
