// Package reporting derives chart-ready statistics from a set of meeting
// records. Every function is pure: callers pass the scoped record slice and
// no I/O happens here.
package reporting

import (
	"math"
	"sort"
	"strings"

	"github.com/globalreino/attendance/backend/internal/records"
)

const trendWindow = 10

// Summary aggregates the whole record set for the dashboard cards.
type Summary struct {
	TotalPeople    int `json:"totalPeople"`
	TotalDecisions int `json:"totalDecisions"`
	TotalVisitors  int `json:"totalVisitors"`
	AvgAttendance  int `json:"avgAttendance"`
}

// TrendPoint is one chart sample: a day/month label with the counts plotted
// by the attendance and decisions charts.
type TrendPoint struct {
	Label     string `json:"label"`
	People    int    `json:"people"`
	Decisions int    `json:"decisions"`
	Visitors  int    `json:"visitors"`
}

// Summarize computes the dashboard totals. An empty record set reports all
// zeros. Visitors counts adults and kids together; average attendance is
// rounded to the nearest integer.
func Summarize(all []records.MeetingRecord) Summary {
	if len(all) == 0 {
		return Summary{}
	}
	var summary Summary
	for _, r := range all {
		summary.TotalPeople += r.TotalPeople
		summary.TotalDecisions += r.Decisions
		summary.TotalVisitors += r.Visitors + r.KidsVisitors
	}
	summary.AvgAttendance = int(math.Round(float64(summary.TotalPeople) / float64(len(all))))
	return summary
}

// Trend returns the most recent samples in chronological order, capped at
// the last ten records, projected for chart display.
func Trend(all []records.MeetingRecord) []TrendPoint {
	ordered := sortChronological(all)
	if len(ordered) > trendWindow {
		ordered = ordered[len(ordered)-trendWindow:]
	}
	points := make([]TrendPoint, 0, len(ordered))
	for _, r := range ordered {
		points = append(points, TrendPoint{
			Label:     dayMonthLabel(r.Date),
			People:    r.TotalPeople,
			Decisions: r.Decisions,
			Visitors:  r.Visitors + r.KidsVisitors,
		})
	}
	return points
}

// History returns every record, most recent first, with no truncation.
func History(all []records.MeetingRecord) []records.MeetingRecord {
	ordered := sortChronological(all)
	for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	}
	return ordered
}

func sortChronological(all []records.MeetingRecord) []records.MeetingRecord {
	ordered := make([]records.MeetingRecord, len(all))
	copy(ordered, all)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp < ordered[j].Timestamp
	})
	return ordered
}

// dayMonthLabel turns an ISO date (2025-03-09) into the chart label (09/03).
func dayMonthLabel(date string) string {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return date
	}
	return parts[2] + "/" + parts[1]
}
