package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type FileType string

const (
	YAML FileType = "yaml"
)

type decoder interface {
	Decode(io.Reader, any) error
}

type decoderFunc func(io.Reader, any) error

func (fn decoderFunc) Decode(r io.Reader, v any) error {
	return fn(r, v)
}

func newYamlDecoder() decoder {
	return decoderFunc(func(r io.Reader, v any) error {
		return yaml.NewDecoder(r).Decode(v)
	})
}

// FileProvider reads a config file and returns a populated Config struct.
// Values missing from the file keep their defaults.
type FileProvider struct {
	Path string
	// Type of the file
	// Defaults to YAML
	Type FileType
}

func (p FileProvider) Config() (Config, error) {
	var dcr decoder
	switch p.Type {
	case YAML:
		fallthrough
	default:
		dcr = newYamlDecoder()
	}

	return p.readAndUnmarshalConfig(dcr)
}

func (p FileProvider) readAndUnmarshalConfig(dcr decoder) (Config, error) {
	path, err := filepath.EvalSymlinks(p.Path)
	if err != nil {
		return Config{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	cfg := DefaultConfig()
	if err = dcr.Decode(f, &cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to decode file %q: %w", p.Path, err)
	}

	if cfg.Targets == nil {
		cfg.Targets = map[string]TargetConfig{}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %q: %w", p.Path, err)
	}

	return cfg, nil
}
