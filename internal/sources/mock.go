package sources

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/farmwatch/farmwatch/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	animalProbability     = 0.7
	authorizedProbability = 0.6
)

// Window bounds how far back a generated timestamp may be placed.
// The offset is a whole number of Units in [0, Max).
type Window struct {
	Unit time.Duration
	Max  int
}

var (
	// SeedWindow spreads bulk seed detections over the last 72 hours
	SeedWindow = Window{Unit: time.Hour, Max: 72}
	// LiveWindow keeps simulated detections within the last 2 minutes
	LiveWindow = Window{Unit: time.Minute, Max: 2}
)

// MockSource generates synthetic detections for the simulated camera feeds
type MockSource struct {
	mu    sync.Mutex
	rng   *rand.Rand
	clock func() time.Time
}

// Ensure MockSource implements Source
var _ Source = (*MockSource)(nil)

// NewMockSource creates a source drawing from rng and stamping detections with clock
func NewMockSource(rng *rand.Rand, clock func() time.Time) *MockSource {
	if clock == nil {
		clock = time.Now
	}
	return &MockSource{rng: rng, clock: clock}
}

// NewRand returns a random source for seed, or a clock-seeded one when seed is 0
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// ClockIn returns a clock reporting the current time in loc
func ClockIn(loc *time.Location) func() time.Time {
	return func() time.Time {
		return time.Now().In(loc)
	}
}

func (s *MockSource) GetName() string {
	return "mock"
}

func (s *MockSource) IsEnabled() bool {
	return true
}

// NextDetection generates one live detection with a time-ordered unique id
func (s *MockSource) NextDetection() models.Detection {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.generate(LiveWindow, func(kind models.DetectionKind) string {
		return fmt.Sprintf("%s-new-%s", idPrefix(kind), uuid.Must(uuid.NewV7()))
	})
}

// Batch generates count seed detections sorted by timestamp, newest first.
// A negative count yields an empty batch.
func (s *MockSource) Batch(count int) []models.Detection {
	if count < 0 {
		count = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	detections := make([]models.Detection, 0, count)
	for i := 0; i < count; i++ {
		index := i
		detections = append(detections, s.generate(SeedWindow, func(kind models.DetectionKind) string {
			return fmt.Sprintf("%s-%d", idPrefix(kind), index)
		}))
	}

	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].Timestamp.After(detections[j].Timestamp.Time)
	})

	logrus.Debugf("Generated %d seed detections", len(detections))
	return detections
}

func (s *MockSource) generate(window Window, idFor func(models.DetectionKind) string) models.Detection {
	var detection models.Detection

	if s.rng.Float64() > 1-animalProbability {
		species := AnimalSpecies[s.rng.Intn(len(AnimalSpecies))]
		detection = models.Detection{
			Kind:           models.KindAnimal,
			Species:        &species,
			Confidence:     s.confidence(0.70, 0.29),
			ImageThumbnail: animalImageURLs[s.rng.Intn(len(animalImageURLs))],
		}
	} else {
		authorized := s.rng.Float64() > 1-authorizedProbability
		detection = models.Detection{
			Kind:           models.KindHuman,
			Confidence:     s.confidence(0.65, 0.34),
			ImageThumbnail: humanImageURLs[s.rng.Intn(len(humanImageURLs))],
			Authorized:     &authorized,
		}
	}

	detection.Location = feedAreas[s.rng.Intn(len(feedAreas))].Name
	offset := time.Duration(s.rng.Intn(window.Max)) * window.Unit
	detection.Timestamp = models.NewTimestamp(s.clock().Add(-offset))
	detection.ID = idFor(detection.Kind)

	return detection
}

// confidence draws uniformly from [base, base+span] rounded to two decimals
func (s *MockSource) confidence(base, span float64) float64 {
	return math.Round((base+s.rng.Float64()*span)*100) / 100
}

func idPrefix(kind models.DetectionKind) string {
	if kind == models.KindAnimal {
		return "a"
	}
	return "h"
}
