/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference DESIGN.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, testify, time
 * @refs service/models
 */

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"watchtower-service/service/models"
)

// AllModels 需要迁移的全部模型
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.DataSource{},
		&models.CheckResult{},
		&models.PipelineRun{},
		&models.AlertConfig{},
	}
}

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建内存测试数据库。连接数限制为 1，
// 否则每个新连接都会得到一个空的内存库
func NewTestDB(t testing.TB) *TestDB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to connect test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(AllModels()...), "failed to migrate test database")

	tdb := &TestDB{DB: db}
	t.Cleanup(tdb.Close)
	return tdb
}

// CleanDB 清理数据库
func (tdb *TestDB) CleanDB() {
	tables := []string{"users", "data_sources", "quality_checks", "pipeline_runs", "alert_configs"}
	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory 测试数据工厂
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory 创建测试数据工厂
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// UserOption 用户选项函数类型
type UserOption func(*models.User)

// CreateUser 创建测试用户
func (f *TestDataFactory) CreateUser(opts ...UserOption) *models.User {
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        "user_" + generateSuffix() + "@example.com",
		Name:         "测试用户",
		PasswordHash: "$2a$10$invalidinvalidinvalidinvalidinvalidinvalidinvalidinvali",
		CreatedAt:    time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(user)
	}
	mustCreate(f.DB, user, "user")
	return user
}

// DataSourceOption 数据源选项函数类型
type DataSourceOption func(*models.DataSource)

// CreateDataSource 创建测试数据源
func (f *TestDataFactory) CreateDataSource(opts ...DataSourceOption) *models.DataSource {
	dataSource := &models.DataSource{
		ID:         uuid.New().String(),
		Name:       "测试数据源",
		SourceType: "custom",
		Data:       models.JSONBArray{},
		CreatedAt:  time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(dataSource)
	}
	dataSource.RecordCount = len(dataSource.Data)
	mustCreate(f.DB, dataSource, "data source")
	return dataSource
}

// CheckResultOption 检查结果选项函数类型
type CheckResultOption func(*models.CheckResult)

// CreateCheckResult 创建测试检查结果
func (f *TestDataFactory) CreateCheckResult(dataSourceID string, opts ...CheckResultOption) *models.CheckResult {
	check := &models.CheckResult{
		ID:             uuid.New().String(),
		DataSourceID:   dataSourceID,
		CheckType:      models.CheckTypeSchema,
		RuleName:       "Schema Completeness",
		RuleDefinition: models.JSONB{"type": "schema_completeness"},
		Status:         models.CheckStatusPassed,
		Details:        models.JSONB{},
		ExecutedAt:     time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(check)
	}
	mustCreate(f.DB, check, "check result")
	return check
}

// PipelineRunOption 流水线运行选项函数类型
type PipelineRunOption func(*models.PipelineRun)

// CreatePipelineRun 创建测试流水线运行
func (f *TestDataFactory) CreatePipelineRun(dataSourceID string, opts ...PipelineRunOption) *models.PipelineRun {
	now := time.Now().UTC()
	run := &models.PipelineRun{
		ID:            uuid.New().String(),
		DataSourceID:  dataSourceID,
		BronzeStatus:  models.StageStatusCompleted,
		SilverStatus:  models.StageStatusCompleted,
		GoldStatus:    models.StageStatusCompleted,
		QualityScore:  100,
		TotalRecords:  10,
		PassedRecords: 10,
		StartedAt:     now,
		CompletedAt:   &now,
	}
	for _, opt := range opts {
		opt(run)
	}
	mustCreate(f.DB, run, "pipeline run")
	return run
}

// AlertConfigOption 告警配置选项函数类型
type AlertConfigOption func(*models.AlertConfig)

// CreateAlertConfig 创建测试告警配置
func (f *TestDataFactory) CreateAlertConfig(opts ...AlertConfigOption) *models.AlertConfig {
	cfg := &models.AlertConfig{
		ID:        uuid.New().String(),
		AlertType: models.AlertTypeWebhook,
		Config:    models.JSONB{"webhook_url": "http://127.0.0.1:1/hook"},
		Enabled:   true,
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	mustCreate(f.DB, cfg, "alert config")
	return cfg
}

func mustCreate(db *gorm.DB, value interface{}, kind string) {
	if err := db.Create(value).Error; err != nil {
		panic(fmt.Sprintf("failed to create test %s: %v", kind, err))
	}
}

func generateSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano()%1000000)
}

// HTTPTestHelper HTTP测试辅助工具
type HTTPTestHelper struct{}

// NewHTTPTestHelper 创建HTTP测试辅助工具
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest 创建JSON请求
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// APIEnvelope 统一响应结构的解码形式
type APIEnvelope struct {
	Status int             `json:"status"`
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data"`
}

// DecodeEnvelope 解码统一响应，并可选地把 data 解到 target
func (h *HTTPTestHelper) DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, target interface{}) APIEnvelope {
	t.Helper()
	var env APIEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	if target != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, target))
	}
	return env
}

// AssertJSONResponse 断言JSON响应
func (h *HTTPTestHelper) AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedBody interface{}) {
	assert.Equal(t, expectedStatus, w.Code)

	if expectedBody != nil {
		var actualBody interface{}
		err := json.Unmarshal(w.Body.Bytes(), &actualBody)
		assert.NoError(t, err)

		expectedJSON, _ := json.Marshal(expectedBody)
		actualJSON, _ := json.Marshal(actualBody)

		assert.JSONEq(t, string(expectedJSON), string(actualJSON))
	}
}
