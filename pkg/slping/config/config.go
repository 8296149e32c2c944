package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/imdario/mergo"
	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"

	"github.com/haveachin/slping/pkg/slping"
	"github.com/haveachin/slping/pkg/slping/protocol"
)

var (
	ErrNoAddress       = errors.New("target has no address")
	ErrInvalidSchedule = errors.New("invalid schedule")
)

type Config struct {
	Schedule string                  `yaml:"schedule"`
	Defaults PingerConfig            `yaml:"defaults"`
	API      APIConfig               `yaml:"api"`
	Targets  map[string]TargetConfig `yaml:"targets"`
}

// PingerConfig holds the settings of a pinger. Unset fields of a target
// are taken from the defaults.
type PingerConfig struct {
	Timeout           time.Duration     `yaml:"timeout"`
	ProtocolVersion   int32             `yaml:"protocolVersion"`
	MaxResponseSize   datasize.ByteSize `yaml:"maxResponseSize"`
	ProxyURL          string            `yaml:"proxyUrl"`
	SendProxyProtocol *bool             `yaml:"sendProxyProtocol"`
	MeasureLatency    *bool             `yaml:"measureLatency"`
}

type APIConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Bind           string   `yaml:"bind"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type TargetConfig struct {
	Address      string `yaml:"address"`
	PingerConfig `yaml:",inline"`
}

func boolPtr(b bool) *bool {
	return &b
}

func DefaultConfig() Config {
	return Config{
		Schedule: "@every 30s",
		Defaults: PingerConfig{
			Timeout:           5 * time.Second,
			ProtocolVersion:   int32(protocol.DefaultVersion),
			MaxResponseSize:   datasize.ByteSize(protocol.MaxPacketLength),
			SendProxyProtocol: boolPtr(false),
			MeasureLatency:    boolPtr(true),
		},
		API: APIConfig{
			Enabled:        true,
			Bind:           "127.0.0.1:8080",
			AllowedOrigins: []string{"*"},
		},
		Targets: map[string]TargetConfig{},
	}
}

// ResolvedTargets returns all targets with their unset fields filled
// from the defaults.
func (cfg Config) ResolvedTargets() (map[string]TargetConfig, error) {
	targets := make(map[string]TargetConfig, len(cfg.Targets))
	for id, t := range cfg.Targets {
		// Pointers are not dereferenced, so an explicit false is kept and
		// only unset fields are filled.
		if err := mergo.Merge(&t.PingerConfig, cfg.Defaults, mergo.WithoutDereference); err != nil {
			return nil, fmt.Errorf("target %q: %w", id, err)
		}
		targets[id] = t
	}
	return targets, nil
}

// Validate reports every problem of cfg at once.
func (cfg Config) Validate() error {
	var errs error
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("%w %q: %w", ErrInvalidSchedule, cfg.Schedule, err))
	}

	for id, t := range cfg.Targets {
		if t.Address == "" {
			errs = multierr.Append(errs, fmt.Errorf("target %q: %w", id, ErrNoAddress))
			continue
		}
		if _, _, err := slping.ParseAddr(t.Address); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("target %q: %w", id, err))
		}
	}
	return errs
}

// PingerConfigFuncs translates c into options for slping.NewPinger.
func (c PingerConfig) PingerConfigFuncs() []slping.PingerConfigFunc {
	fns := []slping.PingerConfigFunc{
		slping.WithTimeout(c.Timeout),
		slping.WithProtocolVersion(protocol.Version(c.ProtocolVersion)),
		slping.WithMaxResponseSize(int(c.MaxResponseSize.Bytes())),
	}
	if c.SendProxyProtocol != nil {
		fns = append(fns, slping.WithProxyProtocol(*c.SendProxyProtocol))
	}
	if c.MeasureLatency != nil {
		fns = append(fns, slping.WithLatency(*c.MeasureLatency))
	}
	return fns
}

// NewPinger builds a pinger for c that dials through ProxyURL if set.
func (c PingerConfig) NewPinger() (*slping.Pinger, error) {
	d, err := slping.NewDialer(c.ProxyURL, c.Timeout)
	if err != nil {
		return nil, err
	}

	p := slping.NewPinger(c.PingerConfigFuncs()...)
	p.Dialer = d
	return p, nil
}
