package monitoring

import (
	"math/rand"
	"testing"
	"time"

	"github.com/farmwatch/farmwatch/internal/models"
	"github.com/farmwatch/farmwatch/internal/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_Empty(t *testing.T) {
	stats := Aggregate(nil, testNow)

	assert.Zero(t, stats.TotalAnimals)
	assert.Zero(t, stats.TotalHumans)
	assert.Zero(t, stats.AuthorizedHumans)
	assert.Zero(t, stats.UnauthorizedHumans)
	assert.NotNil(t, stats.AnimalSpeciesCount)
	assert.Empty(t, stats.AnimalSpeciesCount)

	require.Len(t, stats.DetectionsByDay, 7)
	for _, day := range stats.DetectionsByDay {
		assert.Zero(t, day.Animals)
		assert.Zero(t, day.Humans)
	}
	assert.Equal(t, "2024-05-04", stats.DetectionsByDay[0].Date)
	assert.Equal(t, "2024-05-10", stats.DetectionsByDay[6].Date)
}

func TestAggregate_Counts(t *testing.T) {
	detections := []models.Detection{
		animal("a-0", "Sheep", "Sheep Enclosure", testNow),
		animal("a-1", "Cow", "Cattle Barn", testNow),
		human("h-2", "North Pasture", true, testNow),
		animal("a-3", "Sheep", "Sheep Enclosure", testNow),
		human("h-4", "Storage Barn", false, testNow),
		human("h-5", "Storage Barn", false, testNow),
		animal("a-6", "Dog", "Cattle Barn", testNow),
	}

	stats := Aggregate(detections, testNow)

	assert.Equal(t, 4, stats.TotalAnimals)
	assert.Equal(t, 3, stats.TotalHumans)
	assert.Equal(t, 1, stats.AuthorizedHumans)
	assert.Equal(t, 2, stats.UnauthorizedHumans)
	assert.Equal(t, []models.SpeciesCount{
		{Species: "Sheep", Count: 2},
		{Species: "Cow", Count: 1},
		{Species: "Dog", Count: 1},
	}, stats.AnimalSpeciesCount)
	assert.Equal(t, models.DayCount{Date: "2024-05-10", Animals: 4, Humans: 3}, stats.DetectionsByDay[6])
}

func TestAggregate_DayBoundaries(t *testing.T) {
	midnight := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	detections := []models.Detection{
		animal("a-0", "Cow", "Cattle Barn", midnight),                      // first second of today
		animal("a-1", "Cow", "Cattle Barn", midnight.Add(-time.Second)),    // last second of yesterday
		human("h-2", "North Pasture", true, midnight.AddDate(0, 0, -6)),    // oldest bucket
		human("h-3", "North Pasture", true, midnight.AddDate(0, 0, -7)),    // outside the window
		human("h-4", "North Pasture", false, testNow.Add(10*time.Minute)), // later today
	}

	stats := Aggregate(detections, testNow)

	require.Len(t, stats.DetectionsByDay, 7)
	assert.Equal(t, models.DayCount{Date: "2024-05-04", Animals: 0, Humans: 1}, stats.DetectionsByDay[0])
	assert.Equal(t, models.DayCount{Date: "2024-05-09", Animals: 1, Humans: 0}, stats.DetectionsByDay[5])
	assert.Equal(t, models.DayCount{Date: "2024-05-10", Animals: 1, Humans: 1}, stats.DetectionsByDay[6])

	// totals are not limited to the window
	assert.Equal(t, 3, stats.TotalHumans)
}

func TestAggregate_UsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	now := time.Date(2024, 5, 10, 1, 0, 0, 0, loc) // 2024-05-09 15:00 UTC

	detections := []models.Detection{
		animal("a-0", "Pig", "Cattle Barn", time.Date(2024, 5, 9, 14, 30, 0, 0, time.UTC)),
	}

	stats := Aggregate(detections, now)
	assert.Equal(t, "2024-05-10", stats.DetectionsByDay[6].Date)
	assert.Equal(t, 1, stats.DetectionsByDay[6].Animals)
}

func TestAggregate_Properties(t *testing.T) {
	source := sources.NewMockSource(rand.New(rand.NewSource(17)), func() time.Time { return testNow })

	for _, n := range []int{0, 1, 30, 250} {
		detections := source.Batch(n)
		stats := Aggregate(detections, testNow)

		assert.Equal(t, len(detections), stats.TotalAnimals+stats.TotalHumans)
		assert.Equal(t, stats.TotalHumans, stats.AuthorizedHumans+stats.UnauthorizedHumans)

		speciesTotal := 0
		for _, sc := range stats.AnimalSpeciesCount {
			speciesTotal += sc.Count
		}
		assert.Equal(t, stats.TotalAnimals, speciesTotal)

		require.Len(t, stats.DetectionsByDay, 7)
		for i := 1; i < len(stats.DetectionsByDay); i++ {
			prev, err := time.Parse(models.DateLayout, stats.DetectionsByDay[i-1].Date)
			require.NoError(t, err)
			cur, err := time.Parse(models.DateLayout, stats.DetectionsByDay[i].Date)
			require.NoError(t, err)
			assert.Equal(t, prev.AddDate(0, 0, 1), cur)
		}

		// seed detections are at most 72h old, so all of them land in the window
		inWindow := 0
		for _, day := range stats.DetectionsByDay {
			inWindow += day.Animals + day.Humans
		}
		assert.Equal(t, len(detections), inWindow)

		assert.Equal(t, stats, Aggregate(detections, testNow))
	}
}
