package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status represents health check status
type Status int

const (
	StatusUnknown Status = iota
	StatusHealthy
	StatusUnhealthy
	StatusDisabled
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	case StatusDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// CheckResult represents the result of a health check
type CheckResult struct {
	Name         string        `json:"-"`
	Status       Status        `json:"-"`
	Required     bool          `json:"required"`
	Latency      time.Duration `json:"-"`
	LastCheck    time.Time     `json:"last_check"`
	LastError    error         `json:"-"`
	CheckCount   int           `json:"check_count"`
	FailureCount int           `json:"failure_count"`
}

// Checker is one dependency the service needs.
type Checker interface {
	Name() string
	Required() bool
	Check(ctx context.Context) CheckResult
}

// PingChecker adapts a ping function (database, cache) to Checker. A nil
// Enabled means always enabled.
type PingChecker struct {
	Dependency string
	Mandatory  bool
	Enabled    func() bool
	Ping       func(ctx context.Context) error
}

func (c *PingChecker) Name() string   { return c.Dependency }
func (c *PingChecker) Required() bool { return c.Mandatory }

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      c.Dependency,
		Required:  c.Mandatory,
		LastCheck: start,
	}

	if c.Enabled != nil && !c.Enabled() {
		result.Status = StatusDisabled
		return result
	}

	err := c.Ping(ctx)
	result.Latency = time.Since(start)
	if err != nil {
		result.Status = StatusUnhealthy
		result.LastError = err
		return result
	}
	result.Status = StatusHealthy
	return result
}

// Monitor runs the registered checkers in the background and on demand.
type Monitor struct {
	mu       sync.RWMutex
	checkers []Checker
	results  map[string]*CheckResult
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	running  bool
}

func NewMonitor(interval time.Duration, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Monitor{
		results:  make(map[string]*CheckResult),
		interval: interval,
		timeout:  5 * time.Second,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (m *Monitor) Register(checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkers = append(m.checkers, checker)
	m.logger.Info("Registered health checker",
		zap.String("dependency", checker.Name()),
		zap.Bool("required", checker.Required()),
	)
}

// Start begins periodic checks. It is a no-op when interval is not positive.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running || m.interval <= 0 {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	go m.runChecks()
}

func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	m.running = false
	m.cancel()
}

func (m *Monitor) runChecks() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.CheckAll(m.ctx)

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.CheckAll(m.ctx)
		}
	}
}

// CheckAll runs every checker now and returns copies of the results keyed
// by dependency name, together with the overall verdict. Only required
// dependencies affect the verdict.
func (m *Monitor) CheckAll(ctx context.Context) (map[string]CheckResult, bool) {
	m.mu.RLock()
	checkers := make([]Checker, len(m.checkers))
	copy(checkers, m.checkers)
	m.mu.RUnlock()

	healthy := true
	out := make(map[string]CheckResult, len(checkers))
	for _, checker := range checkers {
		checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
		result := checker.Check(checkCtx)
		cancel()

		m.mu.Lock()
		if existing, ok := m.results[result.Name]; ok {
			result.CheckCount = existing.CheckCount + 1
			result.FailureCount = existing.FailureCount
		} else {
			result.CheckCount = 1
		}
		if result.Status == StatusUnhealthy {
			result.FailureCount++
		}
		stored := result
		m.results[result.Name] = &stored
		m.mu.Unlock()

		if result.Status == StatusUnhealthy {
			if result.Required {
				healthy = false
			}
			m.logger.Warn("Health check failed",
				zap.String("dependency", result.Name),
				zap.Bool("required", result.Required),
				zap.Duration("latency", result.Latency),
				zap.Error(result.LastError),
			)
		}
		out[result.Name] = result
	}
	return out, healthy
}

// GetResult returns the last stored result for a dependency.
func (m *Monitor) GetResult(name string) (*CheckResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result, exists := m.results[name]
	if !exists {
		return nil, false
	}
	resultCopy := *result
	return &resultCopy, true
}
