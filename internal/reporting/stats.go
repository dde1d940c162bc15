package reporting

import (
	"math"
	"strings"

	"callsync/internal/calls"
)

// ComputeStats aggregates records. It is pure: same input, same output.
// Keywords are expected lowercase; config.Validate normalizes them.
func ComputeStats(records []calls.Record, rules BookingRules) Stats {
	var (
		out          Stats
		totalSeconds float64
	)
	for _, r := range records {
		out.TotalCalls++
		totalSeconds += r.Duration
		out.TotalCost += r.Cost
		if IsBooked(r, rules.Keywords) {
			out.BookedJobs++
		}
	}
	out.TotalMinutes = round1(totalSeconds / 60)
	out.TotalRevenue = float64(out.BookedJobs) * rules.AverageOrderValue
	if out.TotalCalls > 0 {
		out.BookingRate = round1(float64(out.BookedJobs) / float64(out.TotalCalls) * 100)
	}
	return out
}

// IsBooked reports whether the record's effective summary mentions any keyword.
func IsBooked(r calls.Record, keywords []string) bool {
	summary := strings.ToLower(r.EffectiveSummary())
	if summary == "" {
		return false
	}
	for _, kw := range keywords {
		if kw != "" && strings.Contains(summary, kw) {
			return true
		}
	}
	return false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
