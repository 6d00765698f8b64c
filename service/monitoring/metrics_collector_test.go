package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"watchtower-service/service/models"
)

func TestMetricsCollector_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewMetricsCollector(reg)

	c.RecordChecks([]models.CheckResult{
		{CheckType: models.CheckTypeSchema, Status: models.CheckStatusPassed},
		{CheckType: models.CheckTypeSchema, Status: models.CheckStatusPassed},
		{CheckType: models.CheckTypeBusinessRule, Status: models.CheckStatusFailed},
	})
	c.RecordPipelineRun(&models.PipelineRun{GoldStatus: models.StageStatusPending, QualityScore: 66.67})
	c.ObserveTask(150*time.Millisecond, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.checks.WithLabelValues("schema", "passed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.checks.WithLabelValues("business_rule", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.pipelineRuns.WithLabelValues("pending")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.qualityScore))
	assert.Equal(t, 1, testutil.CollectAndCount(c.taskDuration))
}

func TestMetricsCollector_NilSafe(t *testing.T) {
	var c *MetricsCollector
	assert.NotPanics(t, func() {
		c.RecordChecks([]models.CheckResult{{}})
		c.RecordPipelineRun(&models.PipelineRun{})
		c.RecordAlertAttempt("webhook", true)
		c.ObserveTask(time.Second, false)
	})
}
