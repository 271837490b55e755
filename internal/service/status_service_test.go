package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckHealthy(t *testing.T) {
	fresh := time.Now().UTC().Add(-5 * time.Minute)
	svc := NewStatusService(stubPinger{}, stubPinger{}, &stubStatusCache{lastIngestion: &fresh}, discardLogger())

	h := svc.Check(context.Background())

	assert.Equal(t, StatusHealthy, h.Status)
	assert.True(t, h.DatabaseConnected)
	assert.True(t, h.RedisConnected)
	require.NotNil(t, h.StalenessMinutes)
	assert.InDelta(t, 5, *h.StalenessMinutes, 1)
	assert.Zero(t, h.APIErrorRate)
}

func TestCheckDegradedOnProbeFailure(t *testing.T) {
	svc := NewStatusService(stubPinger{err: errProbe}, stubPinger{}, &stubStatusCache{}, discardLogger())

	h := svc.Check(context.Background())

	assert.Equal(t, StatusDegraded, h.Status)
	assert.False(t, h.DatabaseConnected)
	assert.True(t, h.RedisConnected)
}

func TestCheckStaleIngestion(t *testing.T) {
	old := time.Now().UTC().Add(-45 * time.Minute)
	svc := NewStatusService(stubPinger{}, stubPinger{}, &stubStatusCache{lastIngestion: &old}, discardLogger())

	h := svc.Check(context.Background())

	assert.Equal(t, StatusStale, h.Status)
	require.NotNil(t, h.StalenessMinutes)
	assert.Greater(t, *h.StalenessMinutes, 30.0)
}

func TestCheckErrorRateOverridesStale(t *testing.T) {
	old := time.Now().UTC().Add(-45 * time.Minute)
	status := &stubStatusCache{lastIngestion: &old, errorCount: 2}
	svc := NewStatusService(stubPinger{}, stubPinger{}, status, discardLogger())

	h := svc.Check(context.Background())

	assert.Equal(t, StatusDegraded, h.Status)
	assert.InDelta(t, 0.5, h.APIErrorRate, 1e-9)
}

func TestCheckErrorRateCapped(t *testing.T) {
	svc := NewStatusService(stubPinger{}, stubPinger{}, &stubStatusCache{errorCount: 100}, discardLogger())

	h := svc.Check(context.Background())

	assert.Equal(t, 1.0, h.APIErrorRate)
	assert.Equal(t, StatusDegraded, h.Status)
}

func TestCheckSurvivesStatusCacheFailure(t *testing.T) {
	svc := NewStatusService(stubPinger{}, stubPinger{}, &stubStatusCache{lastErr: errProbe}, discardLogger())

	h := svc.Check(context.Background())

	assert.Nil(t, h.LastIngestion)
	assert.Equal(t, StatusHealthy, h.Status)
}
