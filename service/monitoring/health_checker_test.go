package monitoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"watchtower-service/testutil"
)

func TestHealthChecker_Check(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	checker := NewHealthChecker(tdb.DB, nil)

	status := checker.Check(context.Background())
	assert.True(t, status.Healthy())
	assert.Equal(t, HealthStatusHealthy, status.Components["database"].Status)
	_, hasRedis := status.Components["redis"]
	assert.False(t, hasRedis)
}

func TestHealthChecker_NoDatabase(t *testing.T) {
	checker := NewHealthChecker(nil, nil)

	status := checker.Check(context.Background())
	assert.False(t, status.Healthy())
	assert.NotEmpty(t, status.Components["database"].Error)
}
