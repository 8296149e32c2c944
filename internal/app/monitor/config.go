package monitor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/haveachin/slping/pkg/slping/config"
)

// TargetsFromConfig builds one target with its own pinger per configured
// target.
func TargetsFromConfig(cfg config.Config, logger *zap.Logger) ([]Target, error) {
	tcfgs, err := cfg.ResolvedTargets()
	if err != nil {
		return nil, err
	}

	targets := make([]Target, 0, len(tcfgs))
	for id, tcfg := range tcfgs {
		p, err := tcfg.NewPinger()
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", id, err)
		}
		p.Logger = logger.With(zap.String("targetId", id))

		targets = append(targets, Target{
			ID:     TargetID(id),
			Addr:   tcfg.Address,
			Pinger: p,
		})
	}
	return targets, nil
}

// ApplyConfig replaces the targets and the schedule of m. Nothing is
// changed if cfg is invalid.
func (m *Monitor) ApplyConfig(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	targets, err := TargetsFromConfig(cfg, m.Logger)
	if err != nil {
		return err
	}

	if err := m.SetSchedule(cfg.Schedule); err != nil {
		return err
	}
	m.SetTargets(targets)

	m.Logger.Info("applied config",
		zap.Int("targets", len(targets)),
		zap.String("schedule", cfg.Schedule),
	)
	return nil
}
