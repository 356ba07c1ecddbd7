// Package health runs named dependency checks and reports their status.
package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Checker checks the health of one dependency.
type Checker func(ctx context.Context) error

// Status represents the health status of a component.
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Report is the outcome of one run over every registered check.
type Report struct {
	Status    Status        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []CheckResult `json:"checks,omitempty"`
}

// CheckResult is the result of a single health check.
type CheckResult struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Critical bool          `json:"critical"`
	Latency  time.Duration `json:"latency"`
	Error    string        `json:"error,omitempty"`
}

type entry struct {
	check    Checker
	critical bool
}

// Registry holds the checks of the storefront's dependencies.
type Registry struct {
	mu      sync.RWMutex
	checks  map[string]entry
	timeout time.Duration
}

// NewRegistry creates a registry whose checks each get timeout.
func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Registry{checks: make(map[string]entry), timeout: timeout}
}

// Register adds a critical check: its failure marks the report down.
func (r *Registry) Register(name string, check Checker) {
	r.add(name, check, true)
}

// RegisterNonCritical adds a check whose failure only degrades the report.
func (r *Registry) RegisterNonCritical(name string, check Checker) {
	r.add(name, check, false)
}

func (r *Registry) add(name string, check Checker, critical bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks[name] = entry{check: check, critical: critical}
}

// Run executes every check concurrently and returns results sorted by name.
func (r *Registry) Run(ctx context.Context) Report {
	r.mu.RLock()
	checks := make(map[string]entry, len(r.checks))
	for k, v := range r.checks {
		checks[k] = v
	}
	r.mu.RUnlock()

	results := make([]CheckResult, 0, len(checks))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for name, e := range checks {
		wg.Add(1)
		go func(name string, e entry) {
			defer wg.Done()
			res := r.runOne(ctx, name, e)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}(name, e)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	status := StatusUp
	for _, res := range results {
		if res.Status != StatusDown {
			continue
		}
		if res.Critical {
			status = StatusDown
		} else if status == StatusUp {
			status = StatusDegraded
		}
	}
	return Report{Status: status, Timestamp: time.Now().UTC(), Checks: results}
}

func (r *Registry) runOne(ctx context.Context, name string, e entry) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	err := e.check(ctx)
	res := CheckResult{Name: name, Status: StatusUp, Critical: e.critical, Latency: time.Since(start)}
	if err != nil {
		res.Status = StatusDown
		res.Error = err.Error()
	}
	return res
}
