/*
 * @module MQTTConnector
 * @description MQTT连接器，封装 paho 客户端，用于发布流水线运行事件
 * @architecture 适配器模式 - 封装第三方MQTT客户端，提供统一的接口
 * @documentReference DESIGN.md
 * @stateFlow 连接建立 -> 消息发布 -> 连接断开
 * @rules 支持自动重连、QoS控制；未连接时发布直接返回错误
 * @dependencies github.com/eclipse/paho.mqtt.golang, encoding/json
 * @refs service/event/event_service.go
 */
package connectors

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"watchtower-service/service/config"
)

// MQTTConnector MQTT连接器结构体
type MQTTConnector struct {
	config      config.MQTTConfig
	client      mqtt.Client
	mutex       sync.RWMutex
	isConnected bool
	stats       MQTTStats
}

// MQTTStats MQTT连接器统计信息
type MQTTStats struct {
	ConnectedAt    time.Time `json:"connected_at"`
	MessagesSent   int64     `json:"messages_sent"`
	BytesSent      int64     `json:"bytes_sent"`
	ReconnectCount int       `json:"reconnect_count"`
	LastError      string    `json:"last_error"`
}

// NewMQTTConnector 创建新的MQTT连接器
func NewMQTTConnector(cfg config.MQTTConfig) *MQTTConnector {
	connector := &MQTTConnector{config: cfg}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetOnConnectHandler(connector.onConnected)
	opts.SetConnectionLostHandler(connector.onConnectionLost)

	connector.client = mqtt.NewClient(opts)
	return connector
}

// Connect 建立MQTT连接
func (mc *MQTTConnector) Connect() error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	if mc.isConnected {
		return nil
	}

	slog.Info("正在连接MQTT broker", "broker", mc.config.Broker)
	if token := mc.client.Connect(); token.Wait() && token.Error() != nil {
		mc.stats.LastError = token.Error().Error()
		return fmt.Errorf("MQTT连接失败: %w", token.Error())
	}

	mc.isConnected = true
	mc.stats.ConnectedAt = time.Now()
	return nil
}

// Disconnect 断开MQTT连接
func (mc *MQTTConnector) Disconnect() error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	if !mc.isConnected {
		return nil
	}
	mc.client.Disconnect(250) // 等待250ms让消息发送完成
	mc.isConnected = false
	slog.Info("MQTT连接器已断开连接", "broker", mc.config.Broker)
	return nil
}

// Publish 发布消息，payload 为 []byte/string 时原样发送，其余类型序列化为 JSON
func (mc *MQTTConnector) Publish(topic string, retained bool, payload interface{}) error {
	if !mc.IsConnected() {
		return fmt.Errorf("MQTT客户端未连接")
	}

	data, err := serializePayload(payload)
	if err != nil {
		return fmt.Errorf("序列化消息载荷失败: %w", err)
	}

	token := mc.client.Publish(topic, mc.config.QoS, retained, data)
	if token.Wait() && token.Error() != nil {
		mc.mutex.Lock()
		mc.stats.LastError = token.Error().Error()
		mc.mutex.Unlock()
		return fmt.Errorf("发布消息失败: %w", token.Error())
	}

	mc.mutex.Lock()
	mc.stats.MessagesSent++
	mc.stats.BytesSent += int64(len(data))
	mc.mutex.Unlock()

	slog.Debug("消息已发布", "topic", topic, "qos", mc.config.QoS, "bytes", len(data))
	return nil
}

func (mc *MQTTConnector) onConnected(mqtt.Client) {
	mc.mutex.Lock()
	mc.isConnected = true
	mc.stats.ConnectedAt = time.Now()
	mc.mutex.Unlock()
	slog.Info("MQTT连接已建立", "broker", mc.config.Broker)
}

func (mc *MQTTConnector) onConnectionLost(_ mqtt.Client, err error) {
	mc.mutex.Lock()
	mc.isConnected = false
	mc.stats.ReconnectCount++
	mc.stats.LastError = err.Error()
	mc.mutex.Unlock()
	slog.Warn("MQTT连接丢失", "broker", mc.config.Broker, "error", err)
}

// IsConnected 检查连接状态
func (mc *MQTTConnector) IsConnected() bool {
	mc.mutex.RLock()
	defer mc.mutex.RUnlock()
	return mc.isConnected
}

// Statistics 获取连接器统计信息
func (mc *MQTTConnector) Statistics() MQTTStats {
	mc.mutex.RLock()
	defer mc.mutex.RUnlock()
	return mc.stats
}

func serializePayload(payload interface{}) ([]byte, error) {
	switch p := payload.(type) {
	case []byte:
		return p, nil
	case string:
		return []byte(p), nil
	default:
		return json.Marshal(p)
	}
}
