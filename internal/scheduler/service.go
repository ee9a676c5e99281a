package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/farmwatch/farmwatch/internal/config"
	"github.com/farmwatch/farmwatch/internal/monitoring"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Service drives the detection simulation on a fixed period
type Service struct {
	config            *config.Config
	monitoringService *monitoring.Service

	mu     sync.Mutex
	cron   *cron.Cron // nil while stopped
	closed bool
}

// everySchedule fires at a constant period. Unlike cron's "@every" it does not
// round periods below one second.
type everySchedule struct {
	period time.Duration
}

func (e everySchedule) Next(t time.Time) time.Time {
	return t.Add(e.period)
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, monitoringService *monitoring.Service) *Service {
	return &Service{
		config:            cfg,
		monitoringService: monitoringService,
	}
}

// Start begins appending simulated detections. It is a no-op when already running.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("simulation driver is shut down")
	}

	if s.cron != nil {
		logrus.Debug("Simulation already running")
		return nil
	}

	interval := s.config.SimulationInterval
	if interval <= 0 {
		return fmt.Errorf("invalid simulation interval %v", interval)
	}

	cronLogger := cron.PrintfLogger(logrus.StandardLogger())
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	c.Schedule(everySchedule{period: interval}, cron.FuncJob(func() {
		logrus.Debug("Simulation tick")
		s.monitoringService.RunSimulationTick()
	}))

	c.Start()
	s.cron = c
	s.monitoringService.SetSimulationRunning(true)

	logrus.Infof("Simulation started, new detection every %v", interval)
	return nil
}

// Stop cancels the simulation and waits for an in-flight tick to finish, so no
// detection is appended after it returns. It is a no-op when already stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Service) stopLocked() {
	if s.cron == nil {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cron = nil
	s.monitoringService.SetSimulationRunning(false)

	logrus.Info("Simulation stopped")
}

// IsRunning reports whether the simulation timer is active
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil
}

// Close stops the timer for good; later Start calls fail. Safe to call more than once.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopLocked()
}
