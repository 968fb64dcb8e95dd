// Package metrics keeps running timing statistics for URL evaluations and
// exports them as prometheus metrics.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/getlantern/golog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	log = golog.LoggerFor("cleanurl.metrics")
)

// Outcome labels.
const (
	OutcomeNotURL    = "not-url"
	OutcomeUnchanged = "unchanged"
	OutcomeCleaned   = "cleaned"
	OutcomeError     = "error"
)

// Stats is a snapshot of the running timing statistics.
type Stats struct {
	Runs    int64
	Average time.Duration
	Max     time.Duration
	MaxHost string
}

type stats struct {
	runs      int64
	totalTime time.Duration
	max       time.Duration
	maxHost   string
}

func (s *stats) add(t *timing) {
	s.runs++
	s.totalTime += t.dur
	if t.dur > s.max {
		s.max = t.dur
		s.maxHost = t.host
	}
}

type timing struct {
	host    string
	outcome string
	dur     time.Duration
}

// Recorder collects evaluation timings. Observations are handed to a single
// goroutine over a channel so callers never contend on a lock.
type Recorder struct {
	registry    *prometheus.Registry
	evaluations *prometheus.CounterVec
	duration    prometheus.Histogram
	written     prometheus.Counter

	statM    sync.RWMutex
	stats    stats
	timingCh chan *timing
	done     chan struct{}
}

// New creates a Recorder with its own prometheus registry and starts its
// aggregation goroutine. Call Close when done.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cleanurl",
			Name:      "evaluations_total",
			Help:      "Candidate texts evaluated, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cleanurl",
			Name:      "evaluation_duration_seconds",
			Help:      "Time spent cleaning a candidate text, including any redirect request.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 10, 7),
		}),
			written: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cleanurl",
			Name:      "rewrites_written_total",
			Help:      "Cleaned URLs written back to the watched source.",
		}),
		timingCh: make(chan *timing, 64),
		done:     make(chan struct{}),
	}
	r.registry.MustRegister(r.evaluations, r.duration, r.written)
	go r.readTimings()
	return r
}

// Observe records one evaluation. It must not be called after Close.
func (r *Recorder) Observe(host, outcome string, dur time.Duration) {
	r.timingCh <- &timing{host: host, outcome: outcome, dur: dur}
}

// Written counts a cleaned URL written back to its source.
func (r *Recorder) Written() {
	r.written.Inc()
}

func (r *Recorder) readTimings() {
	defer close(r.done)
	for t := range r.timingCh {
		r.evaluations.WithLabelValues(t.outcome).Inc()
		r.duration.Observe(t.dur.Seconds())

		r.statM.Lock()
		r.stats.add(t)
		runs, total, max, maxHost := r.stats.runs, r.stats.totalTime, r.stats.max, r.stats.maxHost
		r.statM.Unlock()

		log.Tracef("Average running time: %v", total/time.Duration(runs))
		log.Tracef("Max running time: %v for host: %v", max, maxHost)
	}
}

// Snapshot returns the statistics gathered so far.
func (r *Recorder) Snapshot() Stats {
	r.statM.RLock()
	defer r.statM.RUnlock()
	s := Stats{Runs: r.stats.runs, Max: r.stats.max, MaxHost: r.stats.maxHost}
	if s.Runs > 0 {
		s.Average = r.stats.totalTime / time.Duration(s.Runs)
	}
	return s
}

// Handler serves the recorder's metrics in the prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Close stops the aggregation goroutine once every pending observation has
// been processed.
func (r *Recorder) Close() {
	close(r.timingCh)
	<-r.done
}
