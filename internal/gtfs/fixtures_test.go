package gtfs

import (
	"archive/zip"
	"bytes"
	"testing"
	"time"

	"github.com/jamespfennell/gtfs"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func clock(h, m int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
}

// testFeed is a two-trip weekday bus line Alpha -> Bravo -> Charlie.
// T1 runs in the morning, T2 crosses midnight.
func testFeed() *gtfs.Static {
	static := &gtfs.Static{
		Stops: []gtfs.Stop{
			{Id: "A", Name: "Alpha", Description: "1st & Main", Latitude: ptr(40.5865), Longitude: ptr(-122.3917)},
			{Id: "B", Name: "Bravo", Latitude: ptr(40.5900), Longitude: ptr(-122.3917)},
			{Id: "C", Name: "Charlie", Latitude: ptr(40.7000), Longitude: ptr(-122.3917)},
			{Id: "D", Name: "Depot"},
		},
		Routes: []gtfs.Route{
			{Id: "R1", ShortName: "1", LongName: "Downtown", Type: 3},
		},
		Services: []gtfs.Service{{
			Id:           "WK",
			Monday:       true,
			Tuesday:      true,
			Wednesday:    true,
			Thursday:     true,
			Friday:       true,
			StartDate:    day("2026-01-01"),
			EndDate:      day("2026-12-31"),
			AddedDates:   []time.Time{day("2026-10-18")},
			RemovedDates: []time.Time{day("2026-10-13")},
		}},
	}
	a, b, c := &static.Stops[0], &static.Stops[1], &static.Stops[2]
	route, service := &static.Routes[0], &static.Services[0]

	static.Trips = []gtfs.ScheduledTrip{
		{
			ID:      "T1",
			Route:   route,
			Service: service,
			StopTimes: []gtfs.ScheduledStopTime{
				{Stop: b, StopSequence: 2, ArrivalTime: clock(8, 10), DepartureTime: clock(8, 10)},
				{Stop: a, StopSequence: 1, ArrivalTime: clock(8, 0), DepartureTime: clock(8, 0)},
				{Stop: c, StopSequence: 3, ArrivalTime: clock(8, 25), DepartureTime: clock(8, 25)},
			},
		},
		{
			ID:       "T2",
			Route:    route,
			Service:  service,
			Headsign: "Charlie Late",
			StopTimes: []gtfs.ScheduledStopTime{
				{Stop: a, StopSequence: 1, ArrivalTime: clock(23, 50), DepartureTime: clock(23, 50)},
				{Stop: b, StopSequence: 2, ArrivalTime: clock(24, 5), DepartureTime: clock(24, 5)},
				{Stop: c, StopSequence: 3, ArrivalTime: clock(24, 20), DepartureTime: clock(24, 20)},
			},
		},
	}
	for i := range static.Trips {
		for j := range static.Trips[i].StopTimes {
			static.Trips[i].StopTimes[j].Trip = &static.Trips[i]
		}
	}
	return static
}

func testManager() *Manager {
	return NewManager(testFeed(), Config{Source: "memory", Location: time.UTC})
}

var feedFiles = map[string]string{
	"agency.txt": "agency_id,agency_name,agency_url,agency_timezone\n" +
		"RABA,Redding Area Bus Authority,http://www.rabaride.com/,America/Los_Angeles\n",
	"routes.txt": "route_id,agency_id,route_short_name,route_long_name,route_type\n" +
		"R1,RABA,1,Downtown,3\n",
	"stops.txt": "stop_id,stop_name,stop_lat,stop_lon\n" +
		"A,Alpha,40.5865,-122.3917\n" +
		"B,Bravo,40.5900,-122.3917\n",
	"calendar.txt": "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n" +
		"WK,1,1,1,1,1,0,0,20260101,20261231\n",
	"trips.txt": "route_id,service_id,trip_id,trip_headsign\n" +
		"R1,WK,T1,Bravo\n",
	"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
		"T1,08:00:00,08:00:00,A,1\n" +
		"T1,08:10:00,08:10:00,B,2\n",
}

func feedZip(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range feedFiles {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
