package monitor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CheckFunc probes one dependency and returns nil when it is reachable.
type CheckFunc func(ctx context.Context) error

type check struct {
	name string
	fn   CheckFunc
}

// Monitor runs dependency checks on a cron schedule and caches the result.
type Monitor struct {
	mu     sync.RWMutex
	checks []check
	status Status

	schedule string
	timeout  time.Duration
	cron     *cron.Cron
	logger   *zap.Logger
}

func New(schedule string, timeout time.Duration, logger *zap.Logger) *Monitor {
	if schedule == "" {
		schedule = "@every 10s"
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		status:   Status{Services: map[string]bool{}},
		schedule: schedule,
		timeout:  timeout,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger,
	}
}

// Register adds a named dependency check. Call before Start.
func (m *Monitor) Register(name string, fn CheckFunc) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks = append(m.checks, check{name: name, fn: fn})
}

// Start runs the checks once and then on the configured schedule.
func (m *Monitor) Start() error {
	if _, err := m.cron.AddFunc(m.schedule, m.Refresh); err != nil {
		return err
	}
	m.Refresh()
	m.cron.Start()
	m.logger.Info("health monitor started",
		zap.String("schedule", m.schedule),
		zap.Strings("checks", m.Names()),
		zap.Bool("online", m.IsOnline()))
	return nil
}

// Stop halts the scheduler and waits for a running check to finish or ctx to expire.
func (m *Monitor) Stop(ctx context.Context) {
	stopCtx := m.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}

func (m *Monitor) IsOnline() bool {
	return m.GetStatus().Healthy()
}

// ServiceOnline reports the last result of the named check. Unknown names
// and checks that have not run yet count as offline.
func (m *Monitor) ServiceOnline(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Services[name]
}

// GetStatus returns a copy of the last observed status.
func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	services := make(map[string]bool, len(m.status.Services))
	for name, ok := range m.status.Services {
		services[name] = ok
	}
	return Status{Services: services, LastCheck: m.status.LastCheck}
}

// Names lists the registered checks in alphabetical order.
func (m *Monitor) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.checks))
	for _, c := range m.checks {
		names = append(names, c.name)
	}
	sort.Strings(names)
	return names
}

// Refresh runs every check now.
func (m *Monitor) Refresh() {
	m.mu.RLock()
	checks := append([]check(nil), m.checks...)
	m.mu.RUnlock()

	services := make(map[string]bool, len(checks))
	for _, c := range checks {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		err := c.fn(ctx)
		cancel()
		if err != nil {
			m.logger.Warn("dependency check failed", zap.String("service", c.name), zap.Error(err))
		}
		services[c.name] = err == nil
	}

	m.mu.Lock()
	m.status = Status{Services: services, LastCheck: time.Now()}
	m.mu.Unlock()
}
