package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"watchtower-service/service/data_quality"
	"watchtower-service/service/models"
	"watchtower-service/service/monitoring"
	"watchtower-service/testutil"
)

type dispatchCall struct {
	Owner    string
	Message  string
	Details  map[string]interface{}
	Channels []models.AlertConfig
}

type recordingDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
}

func (d *recordingDispatcher) Dispatch(_ context.Context, owner, message string, details map[string]interface{}, channels []models.AlertConfig) []monitoring.DispatchOutcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, dispatchCall{Owner: owner, Message: message, Details: details, Channels: channels})
	return nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	runs []*models.PipelineRun
	err  error
}

func (p *recordingPublisher) PublishPipelineRun(_ context.Context, run *models.PipelineRun) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runs = append(p.runs, run)
	return p.err
}

type runnerFixture struct {
	db         *gorm.DB
	factory    *testutil.TestDataFactory
	store      *GormStore
	dispatcher *recordingDispatcher
	publisher  *recordingPublisher
	runner     *Runner
}

func newRunnerFixture(t *testing.T) *runnerFixture {
	tdb := testutil.NewTestDB(t)
	store := NewGormStore(tdb.DB)
	f := &runnerFixture{
		db:         tdb.DB,
		factory:    testutil.NewTestDataFactory(tdb.DB),
		store:      store,
		dispatcher: &recordingDispatcher{},
		publisher:  &recordingPublisher{},
	}
	f.runner = NewRunner(RunnerDeps{
		Store:    store,
		Sources:  store,
		Channels: monitoring.NewAlertConfigService(tdb.DB),
		Alerts:   f.dispatcher,
		Events:   f.publisher,
	})
	return f
}

func bankingSource(owner string) testutil.DataSourceOption {
	return func(d *models.DataSource) {
		d.OwnerID = owner
		d.SourceType = "banking"
		d.Data = models.JSONBArray{
			{"transaction_id": "TXN-1", "transaction_type": "deposit", "amount": 100.0, "balance_before": 300.0, "balance_after": 400.0},
			{"transaction_id": "TXN-2", "transaction_type": "payment", "amount": -5.0, "balance_before": 100.0, "balance_after": 95.0},
		}
	}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	var n int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func TestRunner_HandleTaskPersistsAndAlerts(t *testing.T) {
	f := newRunnerFixture(t)
	source := f.factory.CreateDataSource(bankingSource("u1"))
	f.factory.CreateAlertConfig(func(c *models.AlertConfig) { c.OwnerID = "u1" })
	f.factory.CreateAlertConfig(func(c *models.AlertConfig) { c.OwnerID = "u1"; c.Enabled = false })

	err := f.runner.HandleTask(context.Background(), Task{DataSourceID: source.ID, OwnerID: "u1"})
	require.NoError(t, err)

	// banking: 完整性、非空、金额非负、余额一致
	assert.Equal(t, int64(4), countRows(t, f.db, &models.CheckResult{}, "data_source_id = ? AND owner_id = ?", source.ID, "u1"))

	runs, err := f.store.ListRuns(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, source.ID, run.DataSourceID)
	assert.Equal(t, 2, run.TotalRecords)
	assert.Equal(t, models.StageStatusCompleted, run.BronzeStatus)
	assert.Equal(t, models.StageStatusFailed, run.SilverStatus)
	assert.Equal(t, models.StageStatusPending, run.GoldStatus)

	require.Len(t, f.publisher.runs, 1)
	assert.Equal(t, run.ID, f.publisher.runs[0].ID)

	require.Len(t, f.dispatcher.calls, 1)
	call := f.dispatcher.calls[0]
	assert.Equal(t, "u1", call.Owner)
	assert.Equal(t, "⚠️ Data Quality Check Failed for source: "+source.ID, call.Message)
	assert.Equal(t, run.QualityScore, call.Details["quality_score"])
	assert.Equal(t, run.FailedRecords/data_quality.FailedRecordMultiplier, call.Details["failed_checks"])
	assert.Len(t, call.Channels, 1, "only enabled channels are looked up")
}

func TestRunner_NoAlertWhenNothingFails(t *testing.T) {
	f := newRunnerFixture(t)
	source := f.factory.CreateDataSource(func(d *models.DataSource) {
		d.SourceType = "custom"
		d.Data = models.JSONBArray{{"a": 1.0}, {"a": 2.0}}
	})
	f.factory.CreateAlertConfig()

	require.NoError(t, f.runner.HandleTask(context.Background(), Task{DataSourceID: source.ID}))

	runs, err := f.store.ListRuns(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 100.0, runs[0].QualityScore)
	assert.Equal(t, models.StageStatusCompleted, runs[0].GoldStatus)
	assert.Empty(t, f.dispatcher.calls)
}

func TestRunner_EmptyBatch(t *testing.T) {
	f := newRunnerFixture(t)
	source := f.factory.CreateDataSource()

	require.NoError(t, f.runner.HandleTask(context.Background(), Task{DataSourceID: source.ID}))

	assert.Zero(t, countRows(t, f.db, &models.CheckResult{}, "data_source_id = ?", source.ID))
	runs, err := f.store.ListRuns(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 0.0, runs[0].QualityScore)
	assert.Equal(t, 0, runs[0].TotalRecords)
	assert.Equal(t, models.StageStatusCompleted, runs[0].SilverStatus)
	assert.Equal(t, models.StageStatusCompleted, runs[0].GoldStatus)
}

func TestRunner_RerunInvalidatesPriorChecks(t *testing.T) {
	f := newRunnerFixture(t)
	source := f.factory.CreateDataSource(bankingSource(""))
	ctx := context.Background()

	require.NoError(t, f.runner.HandleTask(ctx, Task{DataSourceID: source.ID}))
	require.NoError(t, f.runner.HandleTask(ctx, Task{DataSourceID: source.ID}))
	assert.Equal(t, int64(8), countRows(t, f.db, &models.CheckResult{}, "data_source_id = ?", source.ID))

	require.NoError(t, f.runner.HandleTask(ctx, Task{DataSourceID: source.ID, InvalidatePrior: true}))
	assert.Equal(t, int64(4), countRows(t, f.db, &models.CheckResult{}, "data_source_id = ?", source.ID))
	assert.Equal(t, int64(3), countRows(t, f.db, &models.PipelineRun{}, "data_source_id = ?", source.ID))
}

func TestRunner_MissingSourceIsPermanent(t *testing.T) {
	f := newRunnerFixture(t)

	err := f.runner.HandleTask(context.Background(), Task{DataSourceID: "missing"})
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestRunner_PublishFailureDoesNotFailRun(t *testing.T) {
	f := newRunnerFixture(t)
	f.publisher.err = errors.New("broker down")
	source := f.factory.CreateDataSource(bankingSource(""))

	require.NoError(t, f.runner.HandleTask(context.Background(), Task{DataSourceID: source.ID}))
	assert.Equal(t, int64(1), countRows(t, f.db, &models.PipelineRun{}, "data_source_id = ?", source.ID))
}

func TestRunner_ConcurrentRunsForSameSourceAreSerialized(t *testing.T) {
	f := newRunnerFixture(t)
	source := f.factory.CreateDataSource(bankingSource(""))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.runner.HandleTask(context.Background(), Task{DataSourceID: source.ID, InvalidatePrior: true}))
		}()
	}
	wg.Wait()

	// 每次重跑都先清理，串行执行时最终只剩最后一次的检查结果
	assert.Equal(t, int64(4), countRows(t, f.db, &models.CheckResult{}, "data_source_id = ?", source.ID))
	assert.Equal(t, int64(4), countRows(t, f.db, &models.PipelineRun{}, "data_source_id = ?", source.ID))
}

func TestRunner_WithMemoryQueue(t *testing.T) {
	f := newRunnerFixture(t)
	source := f.factory.CreateDataSource(bankingSource(""))

	q := NewMemoryQueue(2, 8, RetryPolicy{MaxAttempts: 2, Delay: time.Millisecond})
	require.NoError(t, q.Start(context.Background(), f.runner.HandleTask))
	require.NoError(t, q.Enqueue(context.Background(), Task{DataSourceID: source.ID, Trigger: TriggerCreate}))
	require.NoError(t, q.Close())

	assert.Equal(t, int64(1), countRows(t, f.db, &models.PipelineRun{}, "data_source_id = ?", source.ID))
}
