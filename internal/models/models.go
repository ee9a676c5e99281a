package models

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

// TimestampLayout is the wire format used for every timestamp the dashboard sees
const TimestampLayout = "2006-01-02 15:04:05"

// DateLayout is used for the per-day statistics buckets
const DateLayout = "2006-01-02"

// DetectionKind distinguishes animal sightings from human sightings
type DetectionKind string

const (
	KindAnimal DetectionKind = "animal"
	KindHuman  DetectionKind = "human"
)

// AlertKind categorizes alerts
type AlertKind string

const (
	AlertIntrusion    AlertKind = "intrusion"
	AlertAnimalEscape AlertKind = "animal_escape"
	AlertSystem       AlertKind = "system"
)

// Severity of an alert
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities so they can be compared against a threshold.
// Unknown values rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	}
	return 0
}

// ParseSeverity converts a config string into a Severity
func ParseSeverity(value string) (Severity, error) {
	s := Severity(value)
	if s.Rank() == 0 {
		return "", fmt.Errorf("unknown severity %q", value)
	}
	return s, nil
}

// FeedStatus is the state of a camera zone
type FeedStatus string

const (
	FeedActive   FeedStatus = "active"
	FeedInactive FeedStatus = "inactive"
)

// Timestamp is a second-precision point in time serialized as "YYYY-MM-DD HH:MM:SS"
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to whole seconds
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Second)}
}

func (t Timestamp) String() string {
	return t.Format(TimestampLayout)
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(TimestampLayout))
}

var timestampLocation atomic.Pointer[time.Location]

// SetTimestampLocation sets the zone decoded timestamps are read in. It should
// match the zone of the clock that stamped them. Defaults to time.Local.
func SetTimestampLocation(loc *time.Location) {
	timestampLocation.Store(loc)
}

// TimestampLocation returns the zone decoded timestamps are read in
func TimestampLocation() *time.Location {
	if loc := timestampLocation.Load(); loc != nil {
		return loc
	}
	return time.Local
}

// UnmarshalJSON implements json.Unmarshaler. Values are read in TimestampLocation.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := time.ParseInLocation(TimestampLayout, raw, TimestampLocation())
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", raw, err)
	}
	t.Time = parsed
	return nil
}

// Detection represents a single sighting reported by a camera feed
type Detection struct {
	ID             string        `json:"id"`
	Kind           DetectionKind `json:"type"`
	Species        *string       `json:"species,omitempty"` // animals only
	Confidence     float64       `json:"confidence"`        // 0-1, two decimals
	Timestamp      Timestamp     `json:"timestamp"`
	Location       string        `json:"location"` // feed area name
	ImageThumbnail string        `json:"imageUrl"`
	Authorized     *bool         `json:"isAuthorized,omitempty"` // humans only
}

// IsIntrusion reports whether the detection is an unauthorized human
func (d Detection) IsIntrusion() bool {
	return d.Kind == KindHuman && d.Authorized != nil && !*d.Authorized
}

// SpeciesName returns the species or an empty string for humans
func (d Detection) SpeciesName() string {
	if d.Species == nil {
		return ""
	}
	return *d.Species
}

// Alert represents a notification derived from detections or raised by the system
type Alert struct {
	ID               string     `json:"id"`
	Kind             AlertKind  `json:"type"`
	Message          string     `json:"message"`
	Severity         Severity   `json:"severity"`
	Timestamp        Timestamp  `json:"timestamp"`
	Read             bool       `json:"isRead"`
	RelatedDetection *Detection `json:"relatedDetection,omitempty"`
}

// FeedArea is a fixed camera zone on the farm
type FeedArea struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Location      string     `json:"location"`
	Status        FeedStatus `json:"status"`
	LastDetection *Detection `json:"lastDetection,omitempty"`
}

// DayCount is one entry of the trailing seven day series
type DayCount struct {
	Date    string `json:"date"`
	Animals int    `json:"animals"`
	Humans  int    `json:"humans"`
}

// SpeciesCount is the number of detections of one species
type SpeciesCount struct {
	Species string `json:"species"`
	Count   int    `json:"count"`
}

// Stats is the aggregate view over all detections
type Stats struct {
	TotalAnimals       int            `json:"totalAnimals"`
	TotalHumans        int            `json:"totalHumans"`
	AuthorizedHumans   int            `json:"authorizedHumans"`
	UnauthorizedHumans int            `json:"unauthorizedHumans"`
	DetectionsByDay    []DayCount     `json:"detectionsByDay"`
	AnimalSpeciesCount []SpeciesCount `json:"animalSpeciesCount"`
}

// EventType names a state change broadcast to subscribers
type EventType string

const (
	EventSeeded          EventType = "seeded"
	EventDetectionAdded  EventType = "detection_added"
	EventAlertRead       EventType = "alert_read"
	EventSimulationState EventType = "simulation_state"
	EventDisplayMode     EventType = "display_mode"
)

// Event is a change notification delivered to state subscribers
type Event struct {
	Type      EventType  `json:"type"`
	Detection *Detection `json:"detection,omitempty"`
	Alert     *Alert     `json:"alert,omitempty"`
	AlertID   string     `json:"alertId,omitempty"`
	Running   *bool      `json:"running,omitempty"`
	DarkMode  *bool      `json:"darkMode,omitempty"`
	At        time.Time  `json:"at"`
}
