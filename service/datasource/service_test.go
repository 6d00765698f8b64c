package datasource

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchtower-service/service/models"
	"watchtower-service/service/pipeline"
	"watchtower-service/testutil"
)

type recordingQueue struct {
	mu    sync.Mutex
	tasks []pipeline.Task
	err   error
}

func (q *recordingQueue) Enqueue(_ context.Context, task pipeline.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *recordingQueue) Start(context.Context, pipeline.TaskHandler) error { return nil }
func (q *recordingQueue) Close() error                                    { return nil }

func newTestService(t *testing.T) (*Service, *recordingQueue, *testutil.TestDataFactory) {
	tdb := testutil.NewTestDB(t)
	queue := &recordingQueue{}
	svc := NewService(tdb.DB, queue, WithSeed(42))
	return svc, queue, testutil.NewTestDataFactory(tdb.DB)
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("banking 生成样例并提交任务", func(t *testing.T) {
		svc, queue, _ := newTestService(t)
		source, err := svc.Create(ctx, "owner-1", CreateInput{Name: "Txns", SourceType: "Banking"})
		require.NoError(t, err)

		assert.Equal(t, "banking", source.SourceType)
		assert.Equal(t, 100, source.RecordCount)
		assert.Len(t, source.Data, 100)
		require.Len(t, queue.tasks, 1)
		assert.Equal(t, pipeline.Task{
			DataSourceID: source.ID,
			OwnerID:      "owner-1",
			Trigger:      pipeline.TriggerCreate,
			EnqueuedAt:   queue.tasks[0].EnqueuedAt,
		}, queue.tasks[0])
	})

	t.Run("custom 不生成数据", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		source, err := svc.Create(ctx, "", CreateInput{Name: "Empty", SourceType: "custom"})
		require.NoError(t, err)
		assert.Equal(t, 0, source.RecordCount)
	})

	t.Run("缺少名称", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.Create(ctx, "", CreateInput{SourceType: "custom"})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("任务提交失败不影响创建", func(t *testing.T) {
		svc, queue, _ := newTestService(t)
		queue.err = errors.New("queue full")
		source, err := svc.Create(ctx, "", CreateInput{Name: "Claims", SourceType: "insurance"})
		require.NoError(t, err)
		assert.NotEmpty(t, source.ID)
	})

	t.Run("自定义样例条数", func(t *testing.T) {
		tdb := testutil.NewTestDB(t)
		svc := NewService(tdb.DB, &recordingQueue{}, WithSeed(1), WithSampleCount(5))
		source, err := svc.Create(ctx, "", CreateInput{Name: "Claims", SourceType: "insurance"})
		require.NoError(t, err)
		assert.Equal(t, 5, source.RecordCount)
	})
}

func TestServiceOwnerScope(t *testing.T) {
	ctx := context.Background()
	svc, _, factory := newTestService(t)

	mine := factory.CreateDataSource(func(d *models.DataSource) {
		d.OwnerID = "alice"
		d.Data = models.JSONBArray{{"a": 1.0}, {"a": 2.0}, {"a": 3.0}}
	})
	factory.CreateDataSource(func(d *models.DataSource) { d.OwnerID = "bob" })

	sources, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, mine.ID, sources[0].ID)

	_, err = svc.Get(ctx, "bob", mine.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(ctx, "", mine.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	records, total, err := svc.Records(ctx, "alice", mine.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, records, 2)

	records, total, err = svc.Records(ctx, "alice", mine.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, records, 3)
}

func TestServiceUpload(t *testing.T) {
	ctx := context.Background()
	svc, queue, _ := newTestService(t)

	source, err := svc.Upload(ctx, "alice", "", "claims.csv", []byte("claim_id,amount\nC1,10\nC2,20\n"), "")
	require.NoError(t, err)

	assert.Equal(t, DefaultUploadName, source.Name)
	assert.Equal(t, "custom", source.SourceType)
	require.NotNil(t, source.Description)
	assert.Equal(t, "Uploaded from claims.csv", *source.Description)
	assert.Equal(t, 2, source.RecordCount)
	require.Len(t, queue.tasks, 1)
	assert.Equal(t, pipeline.TriggerUpload, queue.tasks[0].Trigger)

	_, err = svc.Upload(ctx, "alice", "x", "claims.txt", []byte("a"), "")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestServiceRerun(t *testing.T) {
	ctx := context.Background()
	svc, queue, factory := newTestService(t)
	source := factory.CreateDataSource(func(d *models.DataSource) { d.OwnerID = "alice" })

	require.NoError(t, svc.Rerun(ctx, "alice", source.ID))
	require.Len(t, queue.tasks, 1)
	assert.True(t, queue.tasks[0].InvalidatePrior)
	assert.Equal(t, pipeline.TriggerRerun, queue.tasks[0].Trigger)

	assert.ErrorIs(t, svc.Rerun(ctx, "alice", "missing"), ErrNotFound)
	assert.ErrorIs(t, svc.Rerun(ctx, "bob", source.ID), ErrNotFound)

	queue.err = errors.New("closed")
	assert.Error(t, svc.Rerun(ctx, "alice", source.ID))
}
