package monitoring

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/farmwatch/farmwatch/internal/config"
	"github.com/farmwatch/farmwatch/internal/metrics"
	"github.com/farmwatch/farmwatch/internal/models"
	"github.com/farmwatch/farmwatch/internal/notifications"
	"github.com/farmwatch/farmwatch/internal/sources"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// subscriberBuffer is the per-subscriber event backlog. Events beyond it are dropped.
const subscriberBuffer = 16

// Service owns the in-memory surveillance state: the detection log, the alert
// collection, the derived statistics and the display preferences. All writes go
// through its methods; readers get copies.
type Service struct {
	config              *config.Config
	source              sources.Source
	notificationService notifications.NotificationInterface
	metrics             *metrics.Metrics
	clock               func() time.Time
	rng                 *rand.Rand

	mu         sync.RWMutex
	detections []models.Detection
	alerts     []models.Alert
	stats      models.Stats
	running    bool
	darkMode   bool
	summary    *Summary

	subMu       sync.Mutex
	subscribers map[int]chan models.Event
	nextSubID   int
	closed      bool

	notifyWG sync.WaitGroup
}

// Summary holds run counters for the service
type Summary struct {
	TotalDetections    int       `json:"total_detections"`
	TotalAlerts        int       `json:"total_alerts"`
	UnreadAlerts       int       `json:"unread_alerts"`
	SimulationTicks    int       `json:"simulation_ticks"`
	LastDetection      time.Time `json:"last_detection"`
	NotificationErrors int       `json:"notification_errors"`
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the wall clock used to stamp alerts and bucket statistics
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithRand overrides the random source used for seeded alert state
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) {
		s.rng = rng
	}
}

// WithMetrics records pipeline activity in m
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a new monitoring service. notificationService may be nil.
func NewService(cfg *config.Config, source sources.Source, notificationService notifications.NotificationInterface, opts ...Option) *Service {
	service := &Service{
		config:              cfg,
		source:              source,
		notificationService: notificationService,
		clock:               time.Now,
		summary:             &Summary{},
		subscribers:         make(map[int]chan models.Event),
		detections:          []models.Detection{},
		alerts:              []models.Alert{},
	}

	for _, opt := range opts {
		opt(service)
	}

	if service.rng == nil {
		service.rng = sources.NewRand(cfg.RandomSeed)
	}
	service.stats = Aggregate(nil, service.clock())

	return service
}

// Seed replaces the state with count generated detections and the alerts and
// statistics derived from them.
func (s *Service) Seed(count int) {
	if count < 0 {
		count = 0
	}
	now := s.clock()
	detections := s.source.Batch(count)

	s.mu.Lock()
	alerts := DeriveAlerts(detections, now, s.rng)
	s.detections = detections
	s.alerts = alerts
	s.stats = Aggregate(detections, now)
	s.summary.TotalDetections = len(detections)
	s.summary.TotalAlerts = len(alerts)
	s.summary.UnreadAlerts = countUnread(alerts)
	if len(detections) > 0 {
		s.summary.LastDetection = detections[0].Timestamp.Time
	}
	s.mu.Unlock()

	for _, d := range detections {
		s.metrics.ObserveDetection(d)
	}
	for _, a := range alerts {
		s.metrics.ObserveAlert(a)
	}

	logrus.Infof("Seeded state with %d detections and %d alerts", len(detections), len(alerts))
	s.broadcast(models.Event{Type: models.EventSeeded, At: now})
}

// RunSimulationTick generates one live detection and appends it
func (s *Service) RunSimulationTick() {
	detection := s.source.NextDetection()
	s.metrics.ObserveTick()

	s.mu.Lock()
	s.summary.SimulationTicks++
	s.mu.Unlock()

	s.AddDetection(detection)
}

// AddDetection prepends a detection to the log. An unauthorized human raises an
// intrusion alert, and statistics are recomputed over the full log. The whole
// update is applied under one write lock.
func (s *Service) AddDetection(detection models.Detection) {
	now := s.clock()

	s.mu.Lock()
	s.detections = append([]models.Detection{detection}, s.detections...)

	alert, raised := IntrusionAlert(detection, fmt.Sprintf("intrusion-%s", uuid.Must(uuid.NewV7())))
	if raised {
		s.alerts = append([]models.Alert{alert}, s.alerts...)
		s.summary.TotalAlerts++
		s.summary.UnreadAlerts++
	}

	s.stats = Aggregate(s.detections, now)
	s.summary.TotalDetections++
	s.summary.LastDetection = detection.Timestamp.Time
	s.mu.Unlock()

	s.metrics.ObserveDetection(detection)
	logrus.Debugf("Added %s detection %s at %s", detection.Kind, detection.ID, detection.Location)

	event := models.Event{Type: models.EventDetectionAdded, Detection: &detection, At: now}
	if raised {
		s.metrics.ObserveAlert(alert)
		logrus.Infof("Intrusion alert %s raised for %s", alert.ID, detection.Location)
		event.Alert = &alert
		s.notify(alert)
	}

	s.broadcast(event)
}

// notify hands alert to the notifier unless the service is closed. The
// WaitGroup is only grown under subMu while open, so Close can wait safely.
func (s *Service) notify(alert models.Alert) {
	if s.notificationService == nil {
		return
	}

	s.subMu.Lock()
	if s.closed {
		s.subMu.Unlock()
		logrus.Debugf("Service closed, alert %s not notified", alert.ID)
		return
	}
	s.notifyWG.Add(1)
	s.subMu.Unlock()

	go func() {
		defer s.notifyWG.Done()
		if err := s.notificationService.SendAlert(&alert); err != nil {
			logrus.Errorf("Failed to notify alert %s: %v", alert.ID, err)
			s.metrics.ObserveNotifyFailure()

			s.mu.Lock()
			s.summary.NotificationErrors++
			s.mu.Unlock()
		}
	}()
}

// MarkAlertRead flags an alert as read. Unknown or already read ids are ignored.
func (s *Service) MarkAlertRead(alertID string) {
	s.mu.Lock()
	changed := false
	for i := range s.alerts {
		if s.alerts[i].ID != alertID {
			continue
		}
		if !s.alerts[i].Read {
			s.alerts[i].Read = true
			s.summary.UnreadAlerts--
			changed = true
		}
		break
	}
	s.mu.Unlock()

	if !changed {
		return
	}

	s.metrics.ObserveAlertRead()
	s.broadcast(models.Event{Type: models.EventAlertRead, AlertID: alertID, At: s.clock()})
}

// MarkAllAlertsRead marks every unread alert matching filter as read and
// returns how many changed. One alert_read event is broadcast per change.
func (s *Service) MarkAllAlertsRead(filter AlertFilter) int {
	s.mu.Lock()
	var changed []string
	for i := range s.alerts {
		if s.alerts[i].Read || !filter.Matches(s.alerts[i]) {
			continue
		}
		s.alerts[i].Read = true
		s.summary.UnreadAlerts--
		changed = append(changed, s.alerts[i].ID)
	}
	s.mu.Unlock()

	now := s.clock()
	for _, id := range changed {
		s.metrics.ObserveAlertRead()
		s.broadcast(models.Event{Type: models.EventAlertRead, AlertID: id, At: now})
	}
	if len(changed) > 0 {
		logrus.Infof("Marked %d alerts as read", len(changed))
	}
	return len(changed)
}

// ToggleDarkMode flips the display mode and returns the new value
func (s *Service) ToggleDarkMode() bool {
	s.mu.Lock()
	s.darkMode = !s.darkMode
	darkMode := s.darkMode
	s.mu.Unlock()

	s.broadcast(models.Event{Type: models.EventDisplayMode, DarkMode: &darkMode, At: s.clock()})
	return darkMode
}

// SetSimulationRunning records the simulation driver state for readers
func (s *Service) SetSimulationRunning(running bool) {
	s.mu.Lock()
	changed := s.running != running
	s.running = running
	s.mu.Unlock()

	if !changed {
		return
	}

	s.metrics.SetSimulationRunning(running)
	s.broadcast(models.Event{Type: models.EventSimulationState, Running: &running, At: s.clock()})
}

// Detections returns the detection log, newest first
func (s *Service) Detections() []models.Detection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	detections := make([]models.Detection, len(s.detections))
	copy(detections, s.detections)
	return detections
}

// Alerts returns the alert collection, newest first
func (s *Service) Alerts() []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alerts := make([]models.Alert, len(s.alerts))
	copy(alerts, s.alerts)
	return alerts
}

// FindAlerts returns the alerts matching filter, newest first
func (s *Service) FindAlerts(filter AlertFilter) []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alerts := []models.Alert{}
	for _, a := range s.alerts {
		if filter.Matches(a) {
			alerts = append(alerts, a)
		}
	}
	return alerts
}

// Stats returns the current statistics snapshot
func (s *Service) Stats() models.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := s.stats
	stats.DetectionsByDay = append([]models.DayCount(nil), s.stats.DetectionsByDay...)
	stats.AnimalSpeciesCount = append([]models.SpeciesCount{}, s.stats.AnimalSpeciesCount...)
	return stats
}

// FeedAreas returns the camera zones with the newest detection seen in each
func (s *Service) FeedAreas() []models.FeedArea {
	areas := sources.FeedAreas()

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range areas {
		for _, d := range s.detections {
			if d.Location == areas[i].Name {
				last := d
				areas[i].LastDetection = &last
				break
			}
		}
	}
	return areas
}

// FindFeedAreas returns the camera zones matching filter in seed order
func (s *Service) FindFeedAreas(filter FeedFilter) []models.FeedArea {
	areas := []models.FeedArea{}
	for _, area := range s.FeedAreas() {
		if filter.Matches(area) {
			areas = append(areas, area)
		}
	}
	return areas
}

// UnreadAlertCount returns the number of alerts not yet marked read
func (s *Service) UnreadAlertCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return countUnread(s.alerts)
}

// IsSimulationRunning reports the last state recorded by the simulation driver
func (s *Service) IsSimulationRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// IsDarkMode reports the display mode
func (s *Service) IsDarkMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.darkMode
}

// GetSummary returns the run counters as JSON
func (s *Service) GetSummary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.summary, "", "  ")
	return string(data)
}

// Subscribe registers a listener for state changes. Events are dropped for a
// subscriber whose buffer is full.
func (s *Service) Subscribe() (int, <-chan models.Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan models.Event, subscriberBuffer)
	if s.closed {
		close(ch)
		return id, ch
	}
	s.subscribers[id] = ch
	s.metrics.SetSubscribers(len(s.subscribers))

	logrus.Debugf("Subscriber #%d added (total: %d)", id, len(s.subscribers))
	return id, ch
}

// Unsubscribe removes a listener and closes its channel
func (s *Service) Unsubscribe(id int) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
		s.metrics.SetSubscribers(len(s.subscribers))
		logrus.Debugf("Subscriber #%d removed (remaining: %d)", id, len(s.subscribers))
	}
}

func (s *Service) broadcast(event models.Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if s.closed {
		return
	}

	for id, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			logrus.Warnf("Subscriber #%d is not keeping up, dropped %s event", id, event.Type)
		}
	}
}

// Close closes every subscriber channel, stops new notifications and waits
// for pending ones. Call it after the simulation driver has been stopped.
func (s *Service) Close() {
	s.subMu.Lock()
	if !s.closed {
		s.closed = true
		for id, ch := range s.subscribers {
			close(ch)
			delete(s.subscribers, id)
		}
		s.metrics.SetSubscribers(0)
	}
	s.subMu.Unlock()

	s.notifyWG.Wait()
}

func countUnread(alerts []models.Alert) int {
	unread := 0
	for _, a := range alerts {
		if !a.Read {
			unread++
		}
	}
	return unread
}
