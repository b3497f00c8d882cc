package isochrone

import (
	"transitfinder.org/internal/models"
	"transitfinder.org/internal/utils"
)

// DedupKey buckets a stop into a ~100m grid cell. Stops without a coordinate
// get a key built from their source and id so they never merge with located
// stops.
func DedupKey(s models.Stop) string {
	if s.Location == nil {
		return "nocoord:" + string(s.Source) + ":" + s.ID
	}
	return utils.GridKey(s.Location.Lat, s.Location.Lng)
}

// Deduplicate keeps one stop per grid cell. The first record seen for a cell
// is kept unless a later record comes from models.PrimarySource and the kept
// one does not. Output follows first-seen cell order.
func Deduplicate(stops []models.Stop) []models.Stop {
	index := make(map[string]int, len(stops))
	out := make([]models.Stop, 0, len(stops))

	for _, raw := range stops {
		stop := models.NormalizeStop(raw)
		key := DedupKey(stop)

		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, stop)
			continue
		}
		if stop.Source == models.PrimarySource && out[i].Source != models.PrimarySource {
			out[i] = stop
		}
	}

	return out
}
