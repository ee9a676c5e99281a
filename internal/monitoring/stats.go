package monitoring

import (
	"time"

	"github.com/farmwatch/farmwatch/internal/models"
)

// statsDays is the length of the trailing per-day series
const statsDays = 7

// Aggregate reduces a detection log into Stats. Day buckets are the seven
// calendar days ending on now's date, in now's location.
func Aggregate(detections []models.Detection, now time.Time) models.Stats {
	stats := models.Stats{
		DetectionsByDay:    make([]models.DayCount, 0, statsDays),
		AnimalSpeciesCount: []models.SpeciesCount{},
	}

	speciesIndex := make(map[string]int)
	for _, detection := range detections {
		switch detection.Kind {
		case models.KindAnimal:
			stats.TotalAnimals++
			if detection.Species == nil {
				continue
			}
			species := *detection.Species
			if i, ok := speciesIndex[species]; ok {
				stats.AnimalSpeciesCount[i].Count++
				continue
			}
			speciesIndex[species] = len(stats.AnimalSpeciesCount)
			stats.AnimalSpeciesCount = append(stats.AnimalSpeciesCount, models.SpeciesCount{Species: species, Count: 1})
		case models.KindHuman:
			stats.TotalHumans++
			if detection.Authorized == nil {
				continue
			}
			if *detection.Authorized {
				stats.AuthorizedHumans++
			} else {
				stats.UnauthorizedHumans++
			}
		}
	}

	loc := now.Location()
	for i := statsDays - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
		dayEnd := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, loc)

		entry := models.DayCount{Date: dayStart.Format(models.DateLayout)}
		for _, detection := range detections {
			ts := detection.Timestamp.Time
			if ts.Before(dayStart) || ts.After(dayEnd) {
				continue
			}
			switch detection.Kind {
			case models.KindAnimal:
				entry.Animals++
			case models.KindHuman:
				entry.Humans++
			}
		}
		stats.DetectionsByDay = append(stats.DetectionsByDay, entry)
	}

	return stats
}
