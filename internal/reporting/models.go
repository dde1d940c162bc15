package reporting

// Stats is the dashboard summary over every stored call.
type Stats struct {
	TotalCalls int `json:"totalCalls"`
	// TotalMinutes is rounded to one decimal place.
	TotalMinutes float64 `json:"totalMinutes"`
	TotalCost    float64 `json:"totalCost"`
	BookedJobs   int     `json:"bookedJobs"`
	TotalRevenue float64 `json:"totalRevenue"`
	// BookingRate is BookedJobs as a percentage of TotalCalls, one decimal place.
	BookingRate float64 `json:"bookingRate"`
}

// BookingRules drive the "booked job" heuristic: a call counts as booked when
// its summary, case-folded, contains any keyword. Revenue is estimated as
// booked jobs times AverageOrderValue.
type BookingRules struct {
	Keywords          []string
	AverageOrderValue float64
}

var DefaultKeywords = []string{"booked", "scheduled", "appointment", "confirmed", "job secured"}

const DefaultAverageOrderValue = 5000

func DefaultBookingRules() BookingRules {
	kw := make([]string, len(DefaultKeywords))
	copy(kw, DefaultKeywords)
	return BookingRules{Keywords: kw, AverageOrderValue: DefaultAverageOrderValue}
}
