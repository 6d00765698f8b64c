/*
 * @module service/monitoring/alert_manager
 * @description 告警分发器，将一次告警扇出到归属范围内所有启用的告警通道
 * @architecture 分层架构 - 业务服务层
 * @documentReference DESIGN.md
 * @stateFlow 告警消息 -> 通道过滤 -> 并发发送 -> 结果记录
 * @rules 禁用通道跳过；单个通道失败不影响其他通道；失败只记录日志，不重试、不向上抛出
 * @dependencies watchtower-service/service/models, html/template
 * @refs notification.go, service/pipeline/runner.go
 */

package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"sync"
	"time"

	"watchtower-service/service/models"
)

const (
	alertEmailSubject = "Watchtower Data Quality Alert"
	testEmailSubject  = "Watchtower Test Alert"
	testAlertMessage  = "🧪 This is a test alert from Watchtower!"
)

var alertEmailTemplate = template.Must(template.New("alert_email").Parse(`
<div style="font-family: sans-serif; padding: 20px;">
    <h2 style="color: #22D3EE;">{{.Title}}</h2>
    <p>{{.Message}}</p>
    {{- if .Details}}
    <pre style="background: #1E293B; padding: 15px; color: #F8FAFC;">{{.Details}}</pre>
    {{- end}}
</div>
`))

// RenderAlertEmail 渲染告警邮件 HTML 正文
func RenderAlertEmail(title, message string, details map[string]interface{}) (string, error) {
	data := struct {
		Title   string
		Message string
		Details string
	}{Title: title, Message: message}

	if len(details) > 0 {
		pretty, err := json.MarshalIndent(details, "", "  ")
		if err != nil {
			return "", fmt.Errorf("序列化告警详情失败: %w", err)
		}
		data.Details = string(pretty)
	}

	var buf bytes.Buffer
	if err := alertEmailTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("渲染告警邮件失败: %w", err)
	}
	return buf.String(), nil
}

// DispatchOutcome 单个通道的发送结果
type DispatchOutcome struct {
	ChannelID   string           `json:"channel_id"`
	AlertType   models.AlertType `json:"alert_type"`
	Destination string           `json:"destination"`
	Success     bool             `json:"success"`
}

// AlertManager 告警分发器
type AlertManager struct {
	webhook WebhookSender
	email   EmailSender
	metrics *MetricsCollector
}

// NewAlertManager 创建告警分发器实例
func NewAlertManager(webhook WebhookSender, email EmailSender, metrics *MetricsCollector) *AlertManager {
	return &AlertManager{
		webhook: webhook,
		email:   email,
		metrics: metrics,
	}
}

// Dispatch 向所有启用的通道发送告警。各通道并发发送，互不影响；
// 返回实际发起的发送尝试，顺序与 channels 一致
func (a *AlertManager) Dispatch(ctx context.Context, ownerScope, message string, details map[string]interface{}, channels []models.AlertConfig) []DispatchOutcome {
	var targets []models.AlertConfig
	for _, channel := range channels {
		if !channel.Enabled {
			continue
		}
		if channel.Destination() == "" {
			slog.Warn("告警通道未配置目标地址，跳过",
				"channel_id", channel.ID, "alert_type", channel.AlertType, "owner", ownerScope)
			continue
		}
		targets = append(targets, channel)
	}

	outcomes := make([]DispatchOutcome, len(targets))
	var wg sync.WaitGroup
	for i := range targets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = a.send(ctx, &targets[i], alertEmailSubject, message, details)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, o := range outcomes {
		if o.Success {
			succeeded++
		}
	}
	slog.Info("告警分发完成", "owner", ownerScope, "attempts", len(outcomes), "succeeded", succeeded)
	return outcomes
}

// SendTest 向单个通道发送测试告警
func (a *AlertManager) SendTest(ctx context.Context, channel *models.AlertConfig) bool {
	details := map[string]interface{}{
		"test":      true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	return a.send(ctx, channel, testEmailSubject, testAlertMessage, details).Success
}

// send 发送到单个通道，错误全部在此处吞掉并记录
func (a *AlertManager) send(ctx context.Context, channel *models.AlertConfig, subject, message string, details map[string]interface{}) DispatchOutcome {
	outcome := DispatchOutcome{
		ChannelID:   channel.ID,
		AlertType:   channel.AlertType,
		Destination: channel.Destination(),
	}
	if outcome.Destination == "" {
		return outcome
	}

	switch channel.AlertType {
	case models.AlertTypeWebhook:
		outcome.Success = a.webhook.SendWebhook(ctx, outcome.Destination, message, details)
	case models.AlertTypeEmail:
		body, err := RenderAlertEmail(alertTitle, message, details)
		if err != nil {
			slog.Error("生成告警邮件失败", "channel_id", channel.ID, "error", err)
			break
		}
		outcome.Success = a.email.SendEmail(ctx, outcome.Destination, subject, body)
	default:
		slog.Warn("不支持的告警通道类型", "channel_id", channel.ID, "alert_type", channel.AlertType)
		return outcome
	}

	if !outcome.Success {
		slog.Error("告警发送失败", "channel_id", channel.ID, "alert_type", channel.AlertType)
	}
	a.metrics.RecordAlertAttempt(string(channel.AlertType), outcome.Success)
	return outcome
}
