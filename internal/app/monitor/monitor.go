package monitor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/haveachin/slping/pkg/slping"
)

var ErrTargetNotFound = errors.New("target not found")

type TargetID string

// Pinger queries the status of a single server address.
type Pinger interface {
	Ping(ctx context.Context, addr string) (slping.Result, error)
}

type Target struct {
	ID     TargetID
	Addr   string
	Pinger Pinger
}

// Status is the latest known state of a target.
type Status struct {
	TargetID TargetID
	Addr     string
	Online   bool
	Result   slping.Result
	Err      error
	// Failures counts the polls that failed since the last success.
	Failures  int
	UpdatedAt time.Time
	LastSeen  time.Time
}

type Monitor struct {
	Logger *zap.Logger
	// PollTimeout bounds a whole PollAll run. Individual pings are bounded
	// by their pinger's timeout.
	PollTimeout time.Duration

	mu       sync.RWMutex
	targets  map[TargetID]Target
	statuses map[TargetID]Status

	cron     *cron.Cron
	schedule string
	entryID  cron.EntryID

	// runCtx is the context of Run; scheduled polls derive from it.
	runCtx context.Context
	polls  sync.WaitGroup
}

func NewMonitor(logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Monitor{
		Logger:      logger,
		PollTimeout: time.Minute,
		targets:     map[TargetID]Target{},
		statuses:    map[TargetID]Status{},
		cron:        cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// SetTargets replaces all targets. Statuses of targets that are still
// present are kept.
func (m *Monitor) SetTargets(targets []Target) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := make(map[TargetID]Target, len(targets))
	for _, t := range targets {
		next[t.ID] = t
	}

	for id, s := range m.statuses {
		t, ok := next[id]
		if ok && t.Addr == s.Addr {
			continue
		}
		delete(m.statuses, id)
		forgetTarget(id)
	}
	m.targets = next
}

func (m *Monitor) Targets() []Target {
	m.mu.RLock()
	defer m.mu.RUnlock()

	targets := make([]Target, 0, len(m.targets))
	for _, t := range m.targets {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool {
		return targets[i].ID < targets[j].ID
	})
	return targets
}

// SetSchedule replaces the cron schedule PollAll runs on. Standard cron
// expressions and descriptors like "@every 30s" are accepted.
func (m *Monitor) SetSchedule(spec string) error {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if spec == m.schedule {
		return nil
	}

	if m.entryID != 0 {
		m.cron.Remove(m.entryID)
	}
	m.entryID = m.cron.Schedule(sched, cron.FuncJob(m.pollScheduled))
	m.schedule = spec
	return nil
}

func (m *Monitor) pollScheduled() {
	m.mu.RLock()
	ctx := m.runCtx
	m.mu.RUnlock()
	if ctx == nil {
		ctx = context.Background()
	}

	m.pollWithTimeout(ctx)
}

func (m *Monitor) pollWithTimeout(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, m.PollTimeout)
	defer cancel()

	if err := m.PollAll(ctx); err != nil {
		m.Logger.Debug("scheduled poll had failures", zap.Error(err))
	}
}

// Run polls all targets once and then on schedule until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.entryID == 0 {
		m.mu.Unlock()
		return errors.New("no schedule set")
	}
	schedule := m.schedule
	m.runCtx = ctx
	m.mu.Unlock()

	m.polls.Add(1)
	go func() {
		defer m.polls.Done()
		m.pollWithTimeout(ctx)
	}()

	m.cron.Start()
	m.Logger.Info("monitor started", zap.String("schedule", schedule))
	<-ctx.Done()

	// Stop waits for running scheduled polls, which end with ctx.
	<-m.cron.Stop().Done()
	m.polls.Wait()
	m.Logger.Info("monitor stopped")
	return nil
}

// PollAll pings every target concurrently. The returned error combines
// the errors of all targets that failed.
func (m *Monitor) PollAll(ctx context.Context) error {
	targets := m.Targets()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	wg.Add(len(targets))
	for _, t := range targets {
		go func(t Target) {
			defer wg.Done()
			if _, err := m.poll(ctx, t); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", t.ID, err))
				mu.Unlock()
			}
		}(t)
	}
	wg.Wait()

	return errs
}

// Poll pings a single target right away.
func (m *Monitor) Poll(ctx context.Context, id TargetID) (Status, error) {
	m.mu.RLock()
	t, ok := m.targets[id]
	m.mu.RUnlock()
	if !ok {
		return Status{}, fmt.Errorf("%w: %s", ErrTargetNotFound, id)
	}

	return m.poll(ctx, t)
}

func (m *Monitor) poll(ctx context.Context, t Target) (Status, error) {
	start := time.Now()
	res, err := t.Pinger.Ping(ctx, t.Addr)
	took := time.Since(start)

	if err != nil {
		m.Logger.Debug("failed to ping target",
			append(logTarget(t), zap.Error(err))...,
		)
	} else {
		m.Logger.Debug("pinged target",
			append(logTarget(t), logResult(res)...)...,
		)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// the target may have been replaced while the ping was running
	if cur, ok := m.targets[t.ID]; !ok || cur.Addr != t.Addr {
		return Status{}, err
	}
	observePing(t.ID, took, err)

	s := m.statuses[t.ID]
	s.TargetID = t.ID
	s.Addr = t.Addr
	s.UpdatedAt = time.Now()
	s.Err = err
	if err != nil {
		s.Online = false
		s.Failures++
	} else {
		s.Online = true
		s.Failures = 0
		s.Result = res
		s.LastSeen = s.UpdatedAt
	}
	m.statuses[t.ID] = s
	recordStatus(s)

	return s, err
}

func (m *Monitor) Status(id TargetID) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.targets[id]; !ok {
		return Status{}, false
	}

	s, ok := m.statuses[id]
	if !ok {
		t := m.targets[id]
		return Status{TargetID: id, Addr: t.Addr}, true
	}
	return s, true
}

// Statuses returns the status of every target ordered by id. Targets that
// were never polled have a zero UpdatedAt.
func (m *Monitor) Statuses() []Status {
	targets := m.Targets()
	statuses := make([]Status, 0, len(targets))
	for _, t := range targets {
		s, ok := m.Status(t.ID)
		if !ok {
			continue
		}
		statuses = append(statuses, s)
	}
	return statuses
}
