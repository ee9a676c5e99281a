package scheduler

import (
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/farmwatch/farmwatch/internal/config"
	"github.com/farmwatch/farmwatch/internal/models"
	"github.com/farmwatch/farmwatch/internal/monitoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testInterval = 20 * time.Millisecond

// countingSource emits animal detections and counts how many it produced
type countingSource struct {
	calls int64
}

func (c *countingSource) GetName() string { return "counting" }
func (c *countingSource) IsEnabled() bool { return true }

func (c *countingSource) NextDetection() models.Detection {
	n := atomic.AddInt64(&c.calls, 1)
	species := "Cow"
	return models.Detection{
		ID:        "a-new-" + strconv.FormatInt(n, 10),
		Kind:      models.KindAnimal,
		Species:   &species,
		Timestamp: models.NewTimestamp(time.Now()),
		Location:  "Cattle Barn",
	}
}

func (c *countingSource) Batch(count int) []models.Detection { return nil }

func newTestScheduler(t *testing.T) (*Service, *monitoring.Service, *countingSource) {
	t.Helper()
	cfg := &config.Config{SimulationInterval: testInterval, RandomSeed: 1}
	source := &countingSource{}
	state := monitoring.NewService(cfg, source, nil)
	return NewService(cfg, state), state, source
}

func TestService_StartStop(t *testing.T) {
	s, state, _ := newTestScheduler(t)
	defer state.Close()

	assert.False(t, s.IsRunning())
	assert.False(t, state.IsSimulationRunning())

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.True(t, state.IsSimulationRunning())

	assert.Eventually(t, func() bool {
		return len(state.Detections()) >= 2
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.False(t, state.IsSimulationRunning())
}

func TestService_StartTwiceKeepsOneTimer(t *testing.T) {
	s, state, _ := newTestScheduler(t)
	defer state.Close()
	defer s.Close()

	require.NoError(t, s.Start())
	first := s.cron

	require.NoError(t, s.Start())
	assert.Same(t, first, s.cron)
	assert.Len(t, s.cron.Entries(), 1)
}

func TestService_StopHaltsAppends(t *testing.T) {
	s, state, source := newTestScheduler(t)
	defer state.Close()

	require.NoError(t, s.Start())
	assert.Eventually(t, func() bool {
		return len(state.Detections()) >= 1
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	count := len(state.Detections())
	calls := atomic.LoadInt64(&source.calls)

	time.Sleep(5 * testInterval)

	assert.Equal(t, count, len(state.Detections()))
	assert.Equal(t, calls, atomic.LoadInt64(&source.calls))
	assert.Equal(t, int64(count), calls)
}

func TestService_StopWhenStoppedIsNoop(t *testing.T) {
	s, state, _ := newTestScheduler(t)
	defer state.Close()

	assert.NotPanics(t, func() {
		s.Stop()
		s.Close()
	})
	assert.False(t, s.IsRunning())
}

func TestService_Restart(t *testing.T) {
	s, state, _ := newTestScheduler(t)
	defer state.Close()
	defer s.Close()

	require.NoError(t, s.Start())
	s.Stop()
	before := len(state.Detections())

	require.NoError(t, s.Start())
	assert.Eventually(t, func() bool {
		return len(state.Detections()) > before
	}, time.Second, 5*time.Millisecond)
}

func TestService_InvalidInterval(t *testing.T) {
	cfg := &config.Config{RandomSeed: 1}
	state := monitoring.NewService(cfg, &countingSource{}, nil)
	defer state.Close()

	s := NewService(cfg, state)
	assert.Error(t, s.Start())
	assert.False(t, s.IsRunning())
}

func TestEverySchedule_Next(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	schedule := everySchedule{period: 250 * time.Millisecond}
	assert.Equal(t, now.Add(250*time.Millisecond), schedule.Next(now))
}

func TestService_StartAfterCloseFails(t *testing.T) {
	s, state, _ := newTestScheduler(t)
	defer state.Close()

	require.NoError(t, s.Start())
	s.Close()

	assert.Error(t, s.Start())
	assert.False(t, s.IsRunning())
	assert.False(t, state.IsSimulationRunning())
}
