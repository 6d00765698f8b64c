/*
 * @module service/event_service
 * @description 流水线事件发布，在每次流水线运行落库后向消息总线广播运行摘要
 * @architecture 事件驱动架构 - 业务服务层
 * @documentReference DESIGN.md
 * @stateFlow 流水线运行完成 -> 构建事件 -> 发布到 MQTT 主题
 * @rules 发布失败只记录日志，不影响流水线结果；未配置 broker 时使用空实现
 * @dependencies watchtower-service/client/connectors, watchtower-service/service/models
 * @refs service/pipeline/runner.go
 */

package event

import (
	"context"
	"fmt"
	"time"

	"watchtower-service/service/models"
)

const EventTypePipelineRunCompleted = "pipeline_run.completed"

// PipelineRunEvent 流水线运行完成事件
type PipelineRunEvent struct {
	Type          string             `json:"type"`
	RunID         string             `json:"run_id"`
	DataSourceID  string             `json:"data_source_id"`
	OwnerID       string             `json:"owner_id,omitempty"`
	BronzeStatus  models.StageStatus `json:"bronze_status"`
	SilverStatus  models.StageStatus `json:"silver_status"`
	GoldStatus    models.StageStatus `json:"gold_status"`
	QualityScore  float64            `json:"quality_score"`
	TotalRecords  int                `json:"total_records"`
	FailedRecords int                `json:"failed_records"`
	OccurredAt    time.Time          `json:"occurred_at"`
}

// NewPipelineRunEvent 由流水线运行构建事件
func NewPipelineRunEvent(run *models.PipelineRun) *PipelineRunEvent {
	return &PipelineRunEvent{
		Type:          EventTypePipelineRunCompleted,
		RunID:         run.ID,
		DataSourceID:  run.DataSourceID,
		OwnerID:       run.OwnerID,
		BronzeStatus:  run.BronzeStatus,
		SilverStatus:  run.SilverStatus,
		GoldStatus:    run.GoldStatus,
		QualityScore:  run.QualityScore,
		TotalRecords:  run.TotalRecords,
		FailedRecords: run.FailedRecords,
		OccurredAt:    time.Now().UTC(),
	}
}

// Publisher 流水线事件发布者
type Publisher interface {
	PublishPipelineRun(ctx context.Context, run *models.PipelineRun) error
}

// MessagePublisher 底层消息发布能力，由 MQTT 连接器实现
type MessagePublisher interface {
	Publish(topic string, retained bool, payload interface{}) error
}

// MQTTEventPublisher 基于 MQTT 的事件发布者，按数据源划分子主题
type MQTTEventPublisher struct {
	publisher MessagePublisher
	topic     string
}

// NewMQTTEventPublisher 创建 MQTT 事件发布者
func NewMQTTEventPublisher(publisher MessagePublisher, topic string) *MQTTEventPublisher {
	return &MQTTEventPublisher{publisher: publisher, topic: topic}
}

// PublishPipelineRun 发布流水线运行事件到 <topic>/<data_source_id>
func (p *MQTTEventPublisher) PublishPipelineRun(_ context.Context, run *models.PipelineRun) error {
	topic := fmt.Sprintf("%s/%s", p.topic, run.DataSourceID)
	if err := p.publisher.Publish(topic, false, NewPipelineRunEvent(run)); err != nil {
		return fmt.Errorf("发布流水线事件失败: %w", err)
	}
	return nil
}

// NoopPublisher 空实现
type NoopPublisher struct{}

// PublishPipelineRun 不做任何事
func (NoopPublisher) PublishPipelineRun(context.Context, *models.PipelineRun) error {
	return nil
}
