package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookNotificationChannel_SendWebhook(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channel := NewWebhookNotificationChannel(time.Second)
	ok := channel.SendWebhook(context.Background(), server.URL, "源 s1 检查失败", map[string]interface{}{"failed_checks": 2})

	require.True(t, ok)
	assert.Equal(t, "源 s1 检查失败", received["text"])

	blocks, _ := received["blocks"].([]interface{})
	require.Len(t, blocks, 3)
	detail := blocks[2].(map[string]interface{})["text"].(map[string]interface{})["text"].(string)
	assert.Contains(t, detail, `"failed_checks": 2`)
}

func TestWebhookNotificationChannel_NoDetailsBlock(t *testing.T) {
	payload, err := buildWebhookPayload("hello", nil)
	require.NoError(t, err)
	assert.Len(t, payload.Blocks, 2)
	assert.Equal(t, "header", payload.Blocks[0].Type)
	assert.Equal(t, alertTitle, payload.Blocks[0].Text.Text)
}

func TestWebhookNotificationChannel_Failures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	channel := NewWebhookNotificationChannel(time.Second)

	t.Run("非2xx响应", func(t *testing.T) {
		assert.False(t, channel.SendWebhook(context.Background(), server.URL, "m", nil))
	})

	t.Run("无法连接", func(t *testing.T) {
		assert.False(t, channel.SendWebhook(context.Background(), "http://127.0.0.1:1/hook", "m", nil))
	})

	t.Run("非法URL", func(t *testing.T) {
		assert.False(t, channel.SendWebhook(context.Background(), "://bad", "m", nil))
	})
}

func TestSendGridEmailChannel_SendEmail(t *testing.T) {
	var mail sendGridMail
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&mail))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	channel := NewSendGridEmailChannel("sg-key", server.URL, "alerts@watchtower.app", time.Second)
	ok := channel.SendEmail(context.Background(), "ops@example.com", "Subject", "<p>body</p>")

	require.True(t, ok)
	assert.Equal(t, "Subject", mail.Subject)
	assert.Equal(t, "alerts@watchtower.app", mail.From.Email)
	require.Len(t, mail.Personalizations, 1)
	assert.Equal(t, "ops@example.com", mail.Personalizations[0].To[0].Email)
	assert.Equal(t, "text/html", mail.Content[0].Type)
	assert.True(t, strings.Contains(mail.Content[0].Value, "body"))
}

func TestSendGridEmailChannel_NoAPIKey(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	channel := NewSendGridEmailChannel("", server.URL, "alerts@watchtower.app", time.Second)
	assert.False(t, channel.SendEmail(context.Background(), "ops@example.com", "s", "b"))
	assert.False(t, called)
}
