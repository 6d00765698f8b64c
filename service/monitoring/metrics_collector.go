/*
 * @module service/monitoring/metrics_collector
 * @description 指标收集器，以 Prometheus 指标暴露质量检查、流水线运行、告警发送与任务队列状态
 * @architecture 分层架构 - 业务服务层
 * @documentReference DESIGN.md
 * @stateFlow 事件发生 -> 指标累加 -> /metrics 拉取
 * @rules 所有记录方法对 nil 接收者安全，未启用指标时调用方无需判空
 * @dependencies github.com/prometheus/client_golang
 * @refs main.go, service/pipeline/runner.go
 */

package monitoring

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"watchtower-service/service/models"
)

const metricsNamespace = "watchtower"

// MetricsCollector 指标收集器
type MetricsCollector struct {
	checks        *prometheus.CounterVec
	pipelineRuns  *prometheus.CounterVec
	qualityScore  prometheus.Histogram
	alertAttempts *prometheus.CounterVec
	taskDuration  *prometheus.HistogramVec
}

// NewMetricsCollector 在给定注册表上创建指标收集器，reg 为 nil 时使用默认注册表
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	c := &MetricsCollector{
		checks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "quality_checks_total",
			Help:      "质量检查结果数量，按检查类型与状态划分",
		}, []string{"check_type", "status"}),
		pipelineRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pipeline_runs_total",
			Help:      "流水线运行数量，按 gold 阶段状态划分",
		}, []string{"gold_status"}),
		qualityScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "pipeline_quality_score",
			Help:      "流水线运行质量分分布",
			Buckets:   []float64{10, 25, 50, 75, 90, 95, 100},
		}),
		alertAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "alert_attempts_total",
			Help:      "告警发送尝试数量，按通道类型与结果划分",
		}, []string{"alert_type", "result"}),
		taskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "pipeline_task_duration_seconds",
			Help:      "流水线任务执行耗时",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "goroutines",
		Help:      "当前 Goroutine 数量",
	}, func() float64 { return float64(runtime.NumGoroutine()) })

	return c
}

// RecordChecks 记录一批检查结果
func (c *MetricsCollector) RecordChecks(results []models.CheckResult) {
	if c == nil {
		return
	}
	for _, r := range results {
		c.checks.WithLabelValues(string(r.CheckType), string(r.Status)).Inc()
	}
}

// RecordPipelineRun 记录一次流水线运行
func (c *MetricsCollector) RecordPipelineRun(run *models.PipelineRun) {
	if c == nil || run == nil {
		return
	}
	c.pipelineRuns.WithLabelValues(string(run.GoldStatus)).Inc()
	c.qualityScore.Observe(run.QualityScore)
}

// RecordAlertAttempt 记录一次告警发送尝试
func (c *MetricsCollector) RecordAlertAttempt(alertType string, success bool) {
	if c == nil {
		return
	}
	c.alertAttempts.WithLabelValues(alertType, resultLabel(success)).Inc()
}

// ObserveTask 记录一次流水线任务执行耗时
func (c *MetricsCollector) ObserveTask(elapsed time.Duration, success bool) {
	if c == nil {
		return
	}
	c.taskDuration.WithLabelValues(resultLabel(success)).Observe(elapsed.Seconds())
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
