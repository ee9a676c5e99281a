package sources

import "github.com/farmwatch/farmwatch/internal/models"

// feedAreas is the fixed set of camera zones on the farm
var feedAreas = []models.FeedArea{
	{ID: "1", Name: "North Pasture", Location: "North Field", Status: models.FeedActive},
	{ID: "2", Name: "Cattle Barn", Location: "Main Farm", Status: models.FeedActive},
	{ID: "3", Name: "Sheep Enclosure", Location: "East Field", Status: models.FeedActive},
	{ID: "4", Name: "Chicken Coop", Location: "South Farm", Status: models.FeedInactive},
	{ID: "5", Name: "Storage Barn", Location: "West Field", Status: models.FeedActive},
}

// AnimalSpecies is the vocabulary a detected animal is drawn from
var AnimalSpecies = []string{"Cow", "Sheep", "Chicken", "Horse", "Pig", "Goat", "Dog"}

var animalImageURLs = []string{
	"https://images.pexels.com/photos/735968/pexels-photo-735968.jpeg",
	"https://images.pexels.com/photos/288621/pexels-photo-288621.jpeg",
	"https://images.pexels.com/photos/2050577/pexels-photo-2050577.jpeg",
	"https://images.pexels.com/photos/635499/pexels-photo-635499.jpeg",
	"https://images.pexels.com/photos/51311/cow-calf-cattle-stock-51311.jpeg",
	"https://images.pexels.com/photos/162801/potbelly-pig-pig-pet-domestic-162801.jpeg",
	"https://images.pexels.com/photos/104373/pexels-photo-104373.jpeg",
}

var humanImageURLs = []string{
	"https://images.pexels.com/photos/1831234/pexels-photo-1831234.jpeg",
	"https://images.pexels.com/photos/2382895/pexels-photo-2382895.jpeg",
	"https://images.pexels.com/photos/6669308/pexels-photo-6669308.jpeg",
}

// FeedAreas returns a copy of the camera zones
func FeedAreas() []models.FeedArea {
	areas := make([]models.FeedArea, len(feedAreas))
	copy(areas, feedAreas)
	return areas
}

// FeedAreaNames returns the zone names in seed order
func FeedAreaNames() []string {
	names := make([]string, len(feedAreas))
	for i, area := range feedAreas {
		names[i] = area.Name
	}
	return names
}
