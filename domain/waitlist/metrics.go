package waitlist

import "github.com/prometheus/client_golang/prometheus"

func newSignupCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_signups_total",
			Help: "Waitlist signups recorded, labelled by experiment variant.",
		},
		[]string{"variant"},
	)
}
