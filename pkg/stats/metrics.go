package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Cycles counts task runs by task name and result (ok, error, timeout).
	Cycles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oracle_cycles_total",
		Help: "Number of dispatcher task runs by result.",
	}, []string{"task", "result"})

	// HandlerPanics counts panics recovered at the dispatch boundary.
	HandlerPanics = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oracle_handler_panics_total",
		Help: "Number of panics recovered in dispatcher handlers.",
	}, []string{"task"})

	// Skipped counts ticks or events dropped because the previous run of the
	// same task was still in flight.
	Skipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatcher_skipped_total",
		Help: "Number of task runs skipped because the task was already running.",
	}, []string{"task"})

	SourceRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_source_requests_total",
		Help: "Number of price source requests by source and result.",
	}, []string{"source", "result"})

	Submissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oracle_submissions_total",
		Help: "Number of oracle submissions by protocol and result.",
	}, []string{"protocol", "result"})

	Swaps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arbitrage_swaps_total",
		Help: "Number of arbitrage swaps submitted by direction.",
	}, []string{"direction"})

	// HeartbeatAlive is 1 if the named heartbeat is alive, 0 otherwise.
	HeartbeatAlive = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "heartbeat_alive",
		Help: "Liveness of dispatcher heartbeats.",
	}, []string{"name"})
)

// Registry holds every collector of the process, including go runtime and
// process collectors.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		Cycles,
		HandlerPanics,
		Skipped,
		SourceRequests,
		Submissions,
		Swaps,
		HeartbeatAlive,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Result returns the label value used for a run outcome.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
