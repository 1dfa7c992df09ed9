package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AuthEvents counts security-relevant flows by event and outcome.
// Labels stay low-cardinality: event is one of join, login, refresh,
// reset_request, reset_complete; outcome is success or failure.
var AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "todo",
	Subsystem: "auth",
	Name:      "events_total",
	Help:      "Authentication and password-reset events.",
}, []string{"event", "outcome"})

func ObserveAuth(event string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	AuthEvents.WithLabelValues(event, outcome).Inc()
}
