package monitoring

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/farmwatch/farmwatch/internal/models"
)

// maxSeedIntrusions caps the intrusion alerts derived when the state is seeded.
// Live intrusions are not capped.
const maxSeedIntrusions = 5

// seedReadProbability is the share of seeded intrusion alerts that start out read
const seedReadProbability = 0.3

type demoAlert struct {
	id       string
	kind     models.AlertKind
	message  string
	severity models.Severity
	age      time.Duration
	read     bool
}

// demoAlerts are raised at startup independently of any detection
var demoAlerts = []demoAlert{
	{"system-1", models.AlertSystem, "Camera in Chicken Coop is offline", models.SeverityMedium, 6 * time.Hour, true},
	{"system-2", models.AlertSystem, "Low light conditions affecting detection in North Pasture", models.SeverityLow, 12 * time.Hour, false},
	{"system-3", models.AlertSystem, "Weekly system maintenance scheduled for tomorrow", models.SeverityLow, 24 * time.Hour, true},
	{"animal-1", models.AlertAnimalEscape, "Potential gate breach detected in East Field", models.SeverityMedium, 3 * time.Hour, false},
}

// DeriveAlerts builds the initial alert collection for a seeded detection log.
// At most the first five unauthorized humans raise an intrusion alert, the demo
// alerts are appended, and the result is sorted newest first.
func DeriveAlerts(detections []models.Detection, now time.Time, rng *rand.Rand) []models.Alert {
	alerts := make([]models.Alert, 0, maxSeedIntrusions+len(demoAlerts))

	index := 0
	for _, detection := range detections {
		if !detection.IsIntrusion() {
			continue
		}
		if index >= maxSeedIntrusions {
			break
		}

		alert := intrusionAlert(detection, fmt.Sprintf("intrusion-%d", index))
		alert.Read = rng.Float64() > 1-seedReadProbability
		alerts = append(alerts, alert)
		index++
	}

	for _, demo := range demoAlerts {
		alerts = append(alerts, models.Alert{
			ID:        demo.id,
			Kind:      demo.kind,
			Message:   demo.message,
			Severity:  demo.severity,
			Timestamp: models.NewTimestamp(now.Add(-demo.age)),
			Read:      demo.read,
		})
	}

	sortAlertsNewestFirst(alerts)
	return alerts
}

// IntrusionAlert returns an unread intrusion alert for an unauthorized human,
// and false for any other detection.
func IntrusionAlert(detection models.Detection, id string) (models.Alert, bool) {
	if !detection.IsIntrusion() {
		return models.Alert{}, false
	}
	return intrusionAlert(detection, id), true
}

func intrusionAlert(detection models.Detection, id string) models.Alert {
	related := detection
	return models.Alert{
		ID:               id,
		Kind:             models.AlertIntrusion,
		Message:          fmt.Sprintf("Unauthorized person detected in %s", detection.Location),
		Severity:         models.SeverityHigh,
		Timestamp:        detection.Timestamp,
		RelatedDetection: &related,
	}
}

func sortAlertsNewestFirst(alerts []models.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Timestamp.After(alerts[j].Timestamp.Time)
	})
}
