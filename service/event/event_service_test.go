package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"watchtower-service/service/models"
)

// MockMessagePublisher 模拟消息发布
type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(topic string, retained bool, payload interface{}) error {
	args := m.Called(topic, retained, payload)
	return args.Error(0)
}

func TestMQTTEventPublisher_PublishPipelineRun(t *testing.T) {
	pub := &MockMessagePublisher{}
	pub.On("Publish", "watchtower/pipeline-runs/src-1", false, mock.MatchedBy(func(e *PipelineRunEvent) bool {
		return e.RunID == "run-1" && e.Type == EventTypePipelineRunCompleted && e.QualityScore == 75
	})).Return(nil).Once()

	p := NewMQTTEventPublisher(pub, "watchtower/pipeline-runs")
	err := p.PublishPipelineRun(context.Background(), &models.PipelineRun{
		ID:           "run-1",
		DataSourceID: "src-1",
		QualityScore: 75,
		GoldStatus:   models.StageStatusPending,
	})

	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestMQTTEventPublisher_PublishError(t *testing.T) {
	pub := &MockMessagePublisher{}
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("not connected"))

	p := NewMQTTEventPublisher(pub, "t")
	err := p.PublishPipelineRun(context.Background(), &models.PipelineRun{DataSourceID: "s"})
	assert.Error(t, err)
}

func TestNoopPublisher(t *testing.T) {
	assert.NoError(t, NoopPublisher{}.PublishPipelineRun(context.Background(), &models.PipelineRun{}))
}
