// Package metrics exposes generation-run counters on a dedicated
// Prometheus registry and keeps a snapshot of the most recent run for the
// health reporter.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API.
	Registry = prometheus.NewRegistry()

	// CoverageDeficits counts coverage-deficit violations across runs.
	CoverageDeficits = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "schedule_coverage_deficits_total", Help: "Coverage deficit violations reported by generation runs."},
	)
	// OvertimeViolations counts weekly overtime violations across runs.
	OvertimeViolations = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "schedule_overtime_violations_total", Help: "Overtime violations reported by generation runs."},
	)
	// PatternErrors counts pattern conflicts and invalid pattern data.
	PatternErrors = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "schedule_pattern_errors_total", Help: "Pattern conflicts and invalid pattern data reported by generation runs."},
	)
	// GenerationDuration records wall-clock generation time in seconds.
	GenerationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "schedule_generation_seconds", Help: "Schedule generation duration in seconds.", Buckets: prometheus.DefBuckets},
	)
	// LastRunSuccess is 1 when the most recent run succeeded, else 0.
	LastRunSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "schedule_last_run_success", Help: "Whether the most recent generation run succeeded."},
	)
)

var regOnce sync.Once

// RegisterDefault registers the run collectors plus Go/process collectors
// on the dedicated registry. Safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(CoverageDeficits)
		Registry.MustRegister(OvertimeViolations)
		Registry.MustRegister(PatternErrors)
		Registry.MustRegister(GenerationDuration)
		Registry.MustRegister(LastRunSuccess)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// RunStats summarizes one generation run for the health reporter.
type RunStats struct {
	Success            bool          `json:"success"`
	CoverageDeficits   int           `json:"coverage_deficit"`
	OvertimeViolations int           `json:"overtime_violations"`
	PatternErrors      int           `json:"pattern_errors"`
	Duration           time.Duration `json:"-"`
	CompletedAt        time.Time     `json:"completed_at"`
}

// Clean reports whether the run finished with zero violation counters.
func (s RunStats) Clean() bool {
	return s.CoverageDeficits == 0 && s.OvertimeViolations == 0 && s.PatternErrors == 0
}

// Recorder feeds run stats into the Prometheus collectors and retains the
// latest snapshot.
type Recorder struct {
	mu   sync.Mutex
	last *RunStats
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record publishes one run's stats.
func (r *Recorder) Record(stats RunStats) {
	CoverageDeficits.Add(float64(stats.CoverageDeficits))
	OvertimeViolations.Add(float64(stats.OvertimeViolations))
	PatternErrors.Add(float64(stats.PatternErrors))
	GenerationDuration.Observe(stats.Duration.Seconds())
	if stats.Success {
		LastRunSuccess.Set(1)
	} else {
		LastRunSuccess.Set(0)
	}

	r.mu.Lock()
	r.last = &stats
	r.mu.Unlock()
}

// Last returns the most recent run's stats, if any run has completed.
func (r *Recorder) Last() (RunStats, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return RunStats{}, false
	}
	return *r.last, true
}
