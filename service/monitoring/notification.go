/*
 * @module service/monitoring/notification
 * @description 通知渠道实现，为告警分发器提供 Webhook 与事务邮件（SendGrid）两种发送能力
 * @architecture 分层架构 - 业务服务层
 * @documentReference DESIGN.md
 * @stateFlow 告警消息 -> 渠道负载构建 -> HTTP 发送 -> 成功标记
 * @rules 发送失败只记录日志并返回 false，不向调用方抛出错误
 * @dependencies net/http, encoding/json
 * @refs alert_manager.go
 */

package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// alertTitle 通知标题
const alertTitle = "🔔 Watchtower Alert"

// WebhookSender Webhook 发送能力
type WebhookSender interface {
	SendWebhook(ctx context.Context, url, message string, details map[string]interface{}) bool
}

// EmailSender 邮件发送能力
type EmailSender interface {
	SendEmail(ctx context.Context, address, subject, htmlBody string) bool
}

// WebhookNotificationChannel Webhook通知渠道，负载为 header + 正文 + 可选详情块
type WebhookNotificationChannel struct {
	client *http.Client
}

// NewWebhookNotificationChannel 创建 Webhook 通知渠道
func NewWebhookNotificationChannel(timeout time.Duration) *WebhookNotificationChannel {
	return &WebhookNotificationChannel{client: &http.Client{Timeout: timeout}}
}

type webhookText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type webhookBlock struct {
	Type string      `json:"type"`
	Text webhookText `json:"text"`
}

type webhookPayload struct {
	Text   string         `json:"text"`
	Blocks []webhookBlock `json:"blocks"`
}

// buildWebhookPayload 构建 Webhook 消息负载
func buildWebhookPayload(message string, details map[string]interface{}) (*webhookPayload, error) {
	payload := &webhookPayload{
		Text: message,
		Blocks: []webhookBlock{
			{Type: "header", Text: webhookText{Type: "plain_text", Text: alertTitle, Emoji: true}},
			{Type: "section", Text: webhookText{Type: "mrkdwn", Text: message}},
		},
	}

	if len(details) > 0 {
		pretty, err := json.MarshalIndent(details, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("序列化告警详情失败: %w", err)
		}
		payload.Blocks = append(payload.Blocks, webhookBlock{
			Type: "section",
			Text: webhookText{Type: "mrkdwn", Text: "```" + string(pretty) + "```"},
		})
	}
	return payload, nil
}

// SendWebhook 发送Webhook通知
func (w *WebhookNotificationChannel) SendWebhook(ctx context.Context, url, message string, details map[string]interface{}) bool {
	payload, err := buildWebhookPayload(message, details)
	if err != nil {
		slog.Error("构建Webhook负载失败", "error", err)
		return false
	}
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("序列化Webhook负载失败", "error", err)
		return false
	}

	return w.post(ctx, url, body, nil, "webhook")
}

func (w *WebhookNotificationChannel) post(ctx context.Context, url string, body []byte, headers map[string]string, channel string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		slog.Error("创建HTTP请求失败", "channel", channel, "error", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		slog.Error("发送通知失败", "channel", channel, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("通知响应错误", "channel", channel, "status_code", resp.StatusCode)
		return false
	}
	return true
}

// SendGridEmailChannel 基于 SendGrid HTTP API 的邮件通知渠道
type SendGridEmailChannel struct {
	webhook     *WebhookNotificationChannel
	apiKey      string
	endpoint    string
	fromAddress string
}

// NewSendGridEmailChannel 创建邮件通知渠道，apiKey 为空时所有发送均返回 false
func NewSendGridEmailChannel(apiKey, endpoint, fromAddress string, timeout time.Duration) *SendGridEmailChannel {
	return &SendGridEmailChannel{
		webhook:     NewWebhookNotificationChannel(timeout),
		apiKey:      apiKey,
		endpoint:    endpoint,
		fromAddress: fromAddress,
	}
}

type sendGridAddress struct {
	Email string `json:"email"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridMail struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

// SendEmail 发送邮件通知
func (e *SendGridEmailChannel) SendEmail(ctx context.Context, address, subject, htmlBody string) bool {
	if e.apiKey == "" {
		slog.Warn("SendGrid API key 未配置，跳过邮件发送", "to", address)
		return false
	}

	mail := sendGridMail{
		Personalizations: []sendGridPersonalization{{To: []sendGridAddress{{Email: address}}}},
		From:             sendGridAddress{Email: e.fromAddress},
		Subject:          subject,
		Content:          []sendGridContent{{Type: "text/html", Value: htmlBody}},
	}
	body, err := json.Marshal(mail)
	if err != nil {
		slog.Error("序列化邮件失败", "error", err)
		return false
	}

	return e.webhook.post(ctx, e.endpoint, body, map[string]string{
		"Authorization": "Bearer " + e.apiKey,
	}, "email")
}
