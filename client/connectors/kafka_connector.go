/*
 * @module KafkaConnector
 * @description Kafka连接器，封装 kafka-go 的生产者与消费组读取器，承载流水线任务消息
 * @architecture 适配器模式 - 封装第三方Kafka客户端，提供统一的接口
 * @documentReference DESIGN.md
 * @stateFlow 连接建立 -> 消息发送/拉取 -> 处理完成后提交偏移 -> 连接断开
 * @rules 消息处理完成后才提交偏移，保证至少一次投递
 * @dependencies github.com/segmentio/kafka-go
 * @refs service/pipeline/kafka_queue.go
 */
package connectors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"watchtower-service/service/config"
)

// KafkaHandler 消息处理函数
type KafkaHandler func(ctx context.Context, key string, value []byte) error

// KafkaConnector Kafka连接器结构体
type KafkaConnector struct {
	config config.KafkaConfig
	writer *kafka.Writer
	reader *kafka.Reader
	mutex  sync.Mutex
	closed bool
}

// NewKafkaConnector 创建新的Kafka连接器
func NewKafkaConnector(cfg config.KafkaConfig) *KafkaConnector {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // 同一数据源的任务落到同一分区
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		StartOffset: kafka.FirstOffset,
	})

	slog.Info("Kafka连接器已创建", "brokers", cfg.Brokers, "topic", cfg.Topic, "group_id", cfg.GroupID)
	return &KafkaConnector{config: cfg, writer: writer, reader: reader}
}

// Produce 发送一条消息
func (kc *KafkaConnector) Produce(ctx context.Context, key string, value []byte) error {
	if err := kc.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}); err != nil {
		return fmt.Errorf("发送消息失败: %w", err)
	}
	return nil
}

// Consume 持续拉取消息并处理，处理结束后提交偏移；ctx 取消时返回
func (kc *KafkaConnector) Consume(ctx context.Context, handler KafkaHandler) error {
	slog.Info("开始消费topic", "topic", kc.config.Topic)
	for {
		msg, err := kc.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) {
				slog.Info("停止消费topic", "topic", kc.config.Topic)
				return nil
			}
			slog.Error("读取消息失败", "topic", kc.config.Topic, "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		if err := handler(ctx, string(msg.Key), msg.Value); err != nil {
			slog.Error("处理消息失败", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}

		if err := kc.reader.CommitMessages(ctx, msg); err != nil {
			slog.Error("提交偏移失败", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		}
	}
}

// Close 关闭生产者与消费者
func (kc *KafkaConnector) Close() error {
	kc.mutex.Lock()
	defer kc.mutex.Unlock()
	if kc.closed {
		return nil
	}
	kc.closed = true

	return errors.Join(kc.writer.Close(), kc.reader.Close())
}
