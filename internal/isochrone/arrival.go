package isochrone

import (
	"transitfinder.org/internal/models"
	"transitfinder.org/internal/utils"
)

// AnnotateArrival returns the clock reading ("HH:MM") elapsedMinutes after
// startMinutes past midnight, and how many midnights were crossed getting there.
func AnnotateArrival(startMinutes float64, elapsedMinutes int) (string, int) {
	clock, days := utils.AddMinutes(startMinutes, float64(elapsedMinutes))
	return utils.FormatClock(clock), days
}

// Annotate stamps arrival times on a copy of stops.
func Annotate(startMinutes float64, stops []models.ReachableStop) []models.ReachableStop {
	out := make([]models.ReachableStop, len(stops))
	for i, s := range stops {
		s.ArrivalTime, s.DaysLater = AnnotateArrival(startMinutes, s.ElapsedMinutes)
		out[i] = s
	}
	return out
}
