package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mediacatalog/database"
	"mediacatalog/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestJobManager(t *testing.T, interval time.Duration) (*JobManager, *database.DB, func()) {
	testDB, err := database.NewDB("sqlite3", ":memory:", database.Options{})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	jm := NewJobManager(NewDBProbe(testDB, time.Second), interval)

	cleanup := func() {
		if jm.IsRunning() {
			jm.Stop()
		}
		if err := testDB.Close(); err != nil {
			t.Logf("Failed to close test database: %v", err)
		}
	}

	return jm, testDB, cleanup
}

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestJobManager_NewJobManager(t *testing.T) {
	jm, _, cleanup := setupTestJobManager(t, time.Minute)
	defer cleanup()

	assert.NotNil(t, jm)
	assert.NotNil(t, jm.job)
	assert.False(t, jm.IsRunning())
	assert.NotNil(t, jm.ctx)
	assert.NotNil(t, jm.cancel)
}

func TestJobManager_StartStop(t *testing.T) {
	jm, _, cleanup := setupTestJobManager(t, time.Minute)
	defer cleanup()

	jm.Start()
	assert.True(t, jm.IsRunning())

	jm.Stop()
	assert.False(t, jm.IsRunning())
}

func TestJobManager_DoubleStart(t *testing.T) {
	jm, _, cleanup := setupTestJobManager(t, time.Minute)
	defer cleanup()

	jm.Start()
	jm.Start() // Second start should be ignored
	assert.True(t, jm.IsRunning())

	jm.Stop()
	assert.False(t, jm.IsRunning())
}

func TestJobManager_DoubleStop(t *testing.T) {
	jm, _, cleanup := setupTestJobManager(t, time.Minute)
	defer cleanup()

	jm.Start()
	jm.Stop()
	jm.Stop() // Second stop should be ignored
	assert.False(t, jm.IsRunning())
}

func TestJobManager_StopWithoutStart(t *testing.T) {
	jm, _, cleanup := setupTestJobManager(t, time.Minute)
	defer cleanup()

	jm.Stop()
	assert.False(t, jm.IsRunning())
}

func TestJobManager_ZeroIntervalDisabled(t *testing.T) {
	job := &countingJob{}
	jm := NewJobManager(job, 0)

	jm.Start()
	assert.False(t, jm.IsRunning())
	assert.Zero(t, job.runs.Load())
}

func TestJobManager_RunsImmediatelyAndPeriodically(t *testing.T) {
	job := &countingJob{err: errors.New("boom")}
	jm := NewJobManager(job, 10*time.Millisecond)

	jm.Start()
	assert.Eventually(t, func() bool { return job.runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	jm.Stop()

	runs := job.runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, runs, job.runs.Load())
}

func TestJobManager_RestartAfterStop(t *testing.T) {
	job := &countingJob{}
	jm := NewJobManager(job, 10*time.Millisecond)

	jm.Start()
	assert.Eventually(t, func() bool { return job.runs.Load() >= 1 }, time.Second, 5*time.Millisecond)
	jm.Stop()

	runs := job.runs.Load()
	jm.Start()
	defer jm.Stop()
	assert.True(t, jm.IsRunning())
	assert.Eventually(t, func() bool { return job.runs.Load() >= runs+2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, jm.ctx.Err())
}

func TestJobManager_Trigger(t *testing.T) {
	job := &countingJob{}
	jm := NewJobManager(job, time.Minute)

	require.NoError(t, jm.Trigger())
	assert.Equal(t, int32(1), job.runs.Load())
}

func TestJobManager_ConcurrentOperations(t *testing.T) {
	jm, _, cleanup := setupTestJobManager(t, time.Minute)
	defer cleanup()

	jm.Start()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = jm.IsRunning()
			_ = jm.Trigger()
		}()
	}
	wg.Wait()

	assert.True(t, jm.IsRunning())
	jm.Stop()
}

func TestDBProbe_Up(t *testing.T) {
	_, testDB, cleanup := setupTestJobManager(t, time.Minute)
	defer cleanup()

	probe := NewDBProbe(testDB, time.Second)
	assert.False(t, probe.Up())

	require.NoError(t, probe.Run(context.Background()))
	assert.True(t, probe.Up())
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.DBUp))
}

func TestDBProbe_Down(t *testing.T) {
	_, testDB, cleanup := setupTestJobManager(t, time.Minute)
	cleanup()

	probe := NewDBProbe(testDB, time.Second)
	err := probe.Run(context.Background())
	require.Error(t, err)
	assert.False(t, probe.Up())
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.DBUp))
}

func TestDBProbe_Name(t *testing.T) {
	assert.Equal(t, "db_probe", NewDBProbe(nil, 0).Name())
}
