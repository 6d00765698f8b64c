package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchtower-service/service/data_quality"
	"watchtower-service/service/models"
	"watchtower-service/service/pipeline"
	"watchtower-service/testutil"
)

func setup(t *testing.T) (*Service, *testutil.TestDataFactory) {
	tdb := testutil.NewTestDB(t)
	return NewService(tdb.DB, pipeline.NewGormStore(tdb.DB)), testutil.NewTestDataFactory(tdb.DB)
}

func owned(owner string) testutil.CheckResultOption {
	return func(c *models.CheckResult) { c.OwnerID = owner }
}

func withStatus(status models.CheckStatus) testutil.CheckResultOption {
	return func(c *models.CheckResult) { c.Status = status }
}

func TestStatsEmpty(t *testing.T) {
	svc, _ := setup(t)

	stats, err := svc.Stats(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 100.0, stats.OverallQualityScore)
	assert.Zero(t, stats.TotalQualityChecks)
	assert.Zero(t, stats.RecentAlerts)
}

func TestStats(t *testing.T) {
	svc, factory := setup(t)
	ctx := context.Background()

	source := factory.CreateDataSource(func(d *models.DataSource) { d.OwnerID = "alice" })
	factory.CreateDataSource(func(d *models.DataSource) { d.OwnerID = "bob" })
	factory.CreatePipelineRun(source.ID, func(r *models.PipelineRun) { r.OwnerID = "alice" })

	factory.CreateCheckResult(source.ID, owned("alice"))
	factory.CreateCheckResult(source.ID, owned("alice"))
	factory.CreateCheckResult(source.ID, owned("alice"), withStatus(models.CheckStatusWarning))
	factory.CreateCheckResult(source.ID, owned("alice"), withStatus(models.CheckStatusFailed))
	factory.CreateCheckResult(source.ID, owned("alice"), withStatus(models.CheckStatusFailed), func(c *models.CheckResult) {
		c.ExecutedAt = time.Now().UTC().Add(-48 * time.Hour)
	})
	factory.CreateCheckResult(source.ID, owned("bob"), withStatus(models.CheckStatusFailed))

	stats, err := svc.Stats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalDataSources)
	assert.Equal(t, int64(5), stats.TotalQualityChecks)
	assert.Equal(t, int64(1), stats.TotalPipelineRuns)
	assert.Equal(t, 2, stats.ChecksPassed)
	assert.Equal(t, 2, stats.ChecksFailed)
	assert.Equal(t, 1, stats.ChecksWarning)
	assert.Equal(t, 40.0, stats.OverallQualityScore)
	assert.Equal(t, int64(1), stats.RecentAlerts)
}

func TestSummary(t *testing.T) {
	svc, factory := setup(t)
	ctx := context.Background()

	empty, err := svc.Summary(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0.0, empty.PassRate)
	assert.Empty(t, empty.ByType)

	factory.CreateCheckResult("s1", owned("alice"))
	factory.CreateCheckResult("s1", owned("alice"), withStatus(models.CheckStatusFailed), func(c *models.CheckResult) {
		c.CheckType = models.CheckTypeBusinessRule
	})
	factory.CreateCheckResult("s1", owned("alice"), withStatus(models.CheckStatusWarning), func(c *models.CheckResult) {
		c.CheckType = models.CheckTypeConstraint
	})

	summary, err := svc.Summary(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 33.33, summary.PassRate)
	assert.Equal(t, map[string]data_quality.StatusCounts{
		"schema":        {Passed: 1},
		"business_rule": {Failed: 1},
		"constraint":    {Warning: 1},
	}, summary.ByType)
}

func TestTimeline(t *testing.T) {
	svc, factory := setup(t)
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	at := func(ts time.Time) testutil.CheckResultOption {
		return func(c *models.CheckResult) { c.ExecutedAt = ts }
	}
	factory.CreateCheckResult("s1", owned("alice"), at(now.Add(-time.Hour)))
	factory.CreateCheckResult("s1", owned("alice"), at(now.Add(-2*time.Hour)), withStatus(models.CheckStatusFailed))
	factory.CreateCheckResult("s1", owned("alice"), at(now.Add(-30*time.Hour)), withStatus(models.CheckStatusWarning))
	factory.CreateCheckResult("s1", owned("alice"), at(now.Add(-10*24*time.Hour)))

	timeline, err := svc.Timeline(context.Background(), "alice", 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]data_quality.StatusCounts{
		"2024-06-10": {Passed: 1, Failed: 1},
		"2024-06-09": {Warning: 1},
	}, timeline.Timeline)

	wide, err := svc.Timeline(context.Background(), "alice", 30)
	require.NoError(t, err)
	assert.Len(t, wide.Timeline, 3)
}

func TestLineage(t *testing.T) {
	svc, factory := setup(t)
	ctx := context.Background()

	source := factory.CreateDataSource(func(d *models.DataSource) {
		d.OwnerID = "alice"
		d.Data = models.JSONBArray{{"a": 1.0}, {"a": 2.0}}
	})

	t.Run("无运行时为 pending", func(t *testing.T) {
		lineage, err := svc.Lineage(ctx, "alice", source.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StageStatusPending, lineage.Layers["gold"].Status)
		assert.Equal(t, 0.0, *lineage.Layers["gold"].QualityScore)
		assert.Equal(t, 2, *lineage.Layers["bronze"].RecordCount)
		assert.Equal(t, "Data validation & quality checks", lineage.Layers["silver"].Description)
	})

	t.Run("以最新运行为准", func(t *testing.T) {
		base := time.Now().UTC()
		factory.CreatePipelineRun(source.ID, func(r *models.PipelineRun) {
			r.OwnerID = "alice"
			r.StartedAt = base.Add(-time.Hour)
		})
		factory.CreatePipelineRun(source.ID, func(r *models.PipelineRun) {
			r.OwnerID = "alice"
			r.StartedAt = base
			r.GoldStatus = models.StageStatusFailed
			r.QualityScore = 50
		})
		factory.CreateCheckResult(source.ID, owned("alice"))

		lineage, err := svc.Lineage(ctx, "alice", source.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StageStatusFailed, lineage.Layers["gold"].Status)
		assert.Equal(t, 50.0, *lineage.Layers["gold"].QualityScore)
		assert.Equal(t, 1, *lineage.Layers["silver"].ChecksApplied)
		assert.Len(t, lineage.PipelineRuns, 2)
		assert.Nil(t, lineage.Source.Data)
	})

	t.Run("其他归属不可见", func(t *testing.T) {
		_, err := svc.Lineage(ctx, "bob", source.ID)
		assert.ErrorIs(t, err, ErrSourceNotFound)
	})
}
