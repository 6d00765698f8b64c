package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchtower-service/api/controllers"
	"watchtower-service/service/auth"
	"watchtower-service/service/dashboard"
	"watchtower-service/service/datasource"
	"watchtower-service/service/models"
	"watchtower-service/service/monitoring"
	"watchtower-service/service/pipeline"
	"watchtower-service/testutil"
)

type recordingQueue struct {
	mu    sync.Mutex
	tasks []pipeline.Task
}

func (q *recordingQueue) Enqueue(_ context.Context, task pipeline.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *recordingQueue) Start(context.Context, pipeline.TaskHandler) error { return nil }
func (q *recordingQueue) Close() error                                    { return nil }

type stubTester struct {
	result bool
	sent   []string
}

func (s *stubTester) SendTest(_ context.Context, channel *models.AlertConfig) bool {
	s.sent = append(s.sent, channel.ID)
	return s.result
}

type testServer struct {
	router  *chi.Mux
	queue   *recordingQueue
	tester  *stubTester
	factory *testutil.TestDataFactory
	helper  *testutil.HTTPTestHelper
}

func newTestServer(t *testing.T) *testServer {
	tdb := testutil.NewTestDB(t)
	queue := &recordingQueue{}
	tester := &stubTester{result: true}
	store := pipeline.NewGormStore(tdb.DB)

	router := chi.NewRouter()
	RegisterRoutes(router, Dependencies{
		Auth:           auth.NewService(tdb.DB, "test-secret", time.Hour),
		DataSources:    datasource.NewService(tdb.DB, queue, datasource.WithSeed(1)),
		Dashboard:      dashboard.NewService(tdb.DB, store),
		Results:        store,
		AlertConfigs:   monitoring.NewAlertConfigService(tdb.DB),
		AlertTester:    tester,
		Health:         monitoring.NewHealthChecker(tdb.DB, nil),
		AllowedOrigins: []string{"*"},
	})

	return &testServer{
		router:  router,
		queue:   queue,
		tester:  tester,
		factory: testutil.NewTestDataFactory(tdb.DB),
		helper:  testutil.NewHTTPTestHelper(),
	}
}

func (s *testServer) do(t *testing.T, method, url, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	req, err := s.helper.CreateJSONRequest(method, url, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) register(t *testing.T, email string) auth.TokenResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/register", "", auth.RegisterInput{Email: email, Password: "secret123", Name: "Tester"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var token auth.TokenResponse
	s.helper.DecodeEnvelope(t, w, &token)
	return token
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t)

	s.helper.AssertJSONResponse(t, s.do(t, http.MethodGet, "/", "", nil), http.StatusOK,
		map[string]string{"message": "Watchtower API", "version": "1.0.0"})

	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)

	w = s.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "flow@example.com")
	assert.NotEmpty(t, token.AccessToken)

	w := s.do(t, http.MethodPost, "/auth/register", "", auth.RegisterInput{Email: "flow@example.com", Password: "x", Name: "Dup"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/auth/login", "", auth.LoginInput{Email: "flow@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/auth/me", token.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me models.User
	s.helper.DecodeEnvelope(t, w, &me)
	assert.Equal(t, "flow@example.com", me.Email)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/auth/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/auth/me", "garbage", nil).Code)
}

func TestDataSourceLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ds@example.com").AccessToken

	w := s.do(t, http.MethodPost, "/data-sources", token, datasource.CreateInput{Name: "Claims", SourceType: "insurance"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var source models.DataSource
	s.helper.DecodeEnvelope(t, w, &source)
	assert.Equal(t, 100, source.RecordCount)
	require.Len(t, s.queue.tasks, 1)

	w = s.do(t, http.MethodGet, "/data-sources", token, nil)
	var sources []models.DataSource
	s.helper.DecodeEnvelope(t, w, &sources)
	assert.Len(t, sources, 1)

	// 匿名请求看不到其他用户的数据源
	w = s.do(t, http.MethodGet, "/data-sources", "", nil)
	sources = nil
	s.helper.DecodeEnvelope(t, w, &sources)
	assert.Empty(t, sources)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/data-sources/"+source.ID, "", nil).Code)

	w = s.do(t, http.MethodGet, "/data-sources/"+source.ID+"/data?limit=5", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var preview controllers.DataPreview
	s.helper.DecodeEnvelope(t, w, &preview)
	assert.Len(t, preview.Data, 5)
	assert.Equal(t, 100, preview.Total)

	w = s.do(t, http.MethodPost, "/pipeline-runs/"+source.ID+"/rerun", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rerun controllers.RerunResponse
	s.helper.DecodeEnvelope(t, w, &rerun)
	assert.Equal(t, controllers.RerunResponse{Message: "Pipeline rerun initiated", SourceID: source.ID}, rerun)
	require.Len(t, s.queue.tasks, 2)
	assert.True(t, s.queue.tasks[1].InvalidatePrior)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/pipeline-runs/missing/rerun", token, nil).Code)
}

func TestUpload(t *testing.T) {
	s := newTestServer(t)

	upload := func(filename, content, query string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, "/data-sources/upload"+query, &body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w
	}

	w := upload("rows.json", `[{"id":1},{"id":2}]`, "?name=Rows")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var source models.DataSource
	s.helper.DecodeEnvelope(t, w, &source)
	assert.Equal(t, "Rows", source.Name)
	assert.Equal(t, "custom", source.SourceType)
	assert.Equal(t, 2, source.RecordCount)

	w = upload("rows.xml", "<a/>", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := s.helper.DecodeEnvelope(t, w, nil)
	assert.Equal(t, "Unsupported file format. Use CSV or JSON.", env.Msg)
}

func TestQualityAndPipelineQueries(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "q@example.com")
	owner := token.User.ID

	source := s.factory.CreateDataSource(func(d *models.DataSource) { d.OwnerID = owner })
	s.factory.CreateCheckResult(source.ID, func(c *models.CheckResult) {
		c.OwnerID = owner
		c.RuleDefinition = nil
	})
	run := s.factory.CreatePipelineRun(source.ID, func(r *models.PipelineRun) { r.OwnerID = owner })

	w := s.do(t, http.MethodGet, "/quality-checks?data_source_id="+source.ID, token.AccessToken, nil)
	var checks []models.CheckResult
	s.helper.DecodeEnvelope(t, w, &checks)
	require.Len(t, checks, 1)
	assert.Equal(t, "legacy", checks[0].RuleDefinition["type"])

	w = s.do(t, http.MethodGet, "/quality-checks/summary", token.AccessToken, nil)
	var summary dashboard.QualitySummary
	s.helper.DecodeEnvelope(t, w, &summary)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 100.0, summary.PassRate)

	w = s.do(t, http.MethodGet, "/pipeline-runs/"+run.ID, token.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/pipeline-runs/"+run.ID, "", nil).Code)

	w = s.do(t, http.MethodGet, "/dashboard/stats", token.AccessToken, nil)
	var stats dashboard.Stats
	s.helper.DecodeEnvelope(t, w, &stats)
	assert.Equal(t, int64(1), stats.TotalPipelineRuns)

	w = s.do(t, http.MethodGet, "/dashboard/timeline?days=3", token.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/lineage/"+source.ID, token.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Business-ready data")
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/lineage/"+source.ID, "", nil).Code)
}

func TestAlertConfigEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "alerts@example.com").AccessToken

	w := s.do(t, http.MethodPost, "/alerts/config", token, map[string]interface{}{
		"alert_type": "slack",
		"config":     map[string]string{"webhook_url": "https://hooks.example.com/x"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cfg models.AlertConfig
	s.helper.DecodeEnvelope(t, w, &cfg)
	assert.Equal(t, models.AlertTypeWebhook, cfg.AlertType)
	assert.True(t, cfg.Enabled)

	w = s.do(t, http.MethodPost, "/alerts/config", token, map[string]interface{}{"alert_type": "pager"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/alerts/config/"+cfg.ID, token, map[string]interface{}{
		"alert_type": "email",
		"config":     map[string]string{"email": "ops@example.com"},
		"enabled":    false,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var updated models.AlertConfig
	s.helper.DecodeEnvelope(t, w, &updated)
	assert.Equal(t, models.AlertTypeEmail, updated.AlertType)
	assert.False(t, updated.Enabled)

	w = s.do(t, http.MethodPost, "/alerts/test?config_id="+cfg.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result controllers.TestAlertResult
	s.helper.DecodeEnvelope(t, w, &result)
	assert.Equal(t, controllers.TestAlertResult{Success: true, AlertType: models.AlertTypeEmail}, result)
	assert.Equal(t, []string{cfg.ID}, s.tester.sent)

	// 其他用户无法操作
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/alerts/test?config_id="+cfg.ID, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/alerts/config/"+cfg.ID, "", nil).Code)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/alerts/config/"+cfg.ID, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/alerts/config/"+cfg.ID, token, nil).Code)
}
