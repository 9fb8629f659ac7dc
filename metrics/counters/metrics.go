package counters

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var connectionGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "station",
	Name:      "csms_connected",
	Help:      "1 while the websocket to the CSMS is open",
})

var queueGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "dispatch",
	Name:      "queue_depth",
	Help:      "Number of outbound calls waiting per queue",
}, []string{"queue"})

var callCounts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "dispatch",
	Name:      "calls_total",
	Help:      "Outbound calls by action and outcome.",
}, []string{"action", "outcome"})

var retryCounts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "dispatch",
	Name:      "retries_total",
	Help:      "Transaction message resends after a timeout.",
}, []string{"action"})

var validationCounts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "smartcharging",
	Name:      "profile_validation_total",
	Help:      "Charging profile validation results.",
}, []string{"result"})

var limitGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "smartcharging",
	Name:      "effective_limit",
	Help:      "Current composite limit per evse.",
}, []string{"evse", "unit"})

var activeTransactionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "station",
	Name:      "transactions_active",
	Help:      "Number of active transactions",
})

func ObserveConnection(connected bool) {
	if connected {
		connectionGauge.Set(1)
	} else {
		connectionGauge.Set(0)
	}
}

func ObserveQueue(queue string, depth int) {
	if len(queue) == 0 {
		return
	}
	queueGauge.With(prometheus.Labels{"queue": queue}).Set(float64(depth))
}

func ObserveCall(action, outcome string) {
	if len(action) == 0 || len(outcome) == 0 {
		return
	}
	callCounts.With(prometheus.Labels{"action": action, "outcome": outcome}).Inc()
}

func ObserveRetry(action string) {
	if len(action) == 0 {
		return
	}
	retryCounts.With(prometheus.Labels{"action": action}).Inc()
}

func ObserveValidation(result string) {
	if len(result) == 0 {
		return
	}
	validationCounts.With(prometheus.Labels{"result": result}).Inc()
}

func ObserveLimit(evseId int, unit string, limit float64) {
	limitGauge.With(prometheus.Labels{"evse": strconv.Itoa(evseId), "unit": unit}).Set(limit)
}

func ObserveTransactions(count int) {
	activeTransactionsGauge.Set(float64(count))
}
