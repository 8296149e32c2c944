package config

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/df-mc/atomic"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher keeps the latest valid config of a file. Broken edits are
// logged and ignored so the last good config stays active.
type Watcher struct {
	Provider FileProvider
	Logger   *zap.Logger

	cfg      *atomic.Value[Config]
	watching *atomic.Bool
}

func NewWatcher(p FileProvider, logger *zap.Logger) (*Watcher, error) {
	cfg, err := p.Config()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Watcher{
		Provider: p,
		Logger:   logger,
		cfg:      atomic.NewValue(cfg),
		watching: atomic.NewBool(false),
	}, nil
}

// Config returns the latest valid config.
func (w *Watcher) Config() Config {
	return w.cfg.Load()
}

// Watch calls fn with every new valid config until ctx is done.
func (w *Watcher) Watch(ctx context.Context, fn func(Config)) error {
	if !w.watching.CAS(false, true) {
		return errors.New("already watching")
	}
	defer w.watching.Store(false)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	path, err := filepath.Abs(w.Provider.Path)
	if err != nil {
		return err
	}

	// Editors often replace files instead of writing them, so the
	// directory is watched rather than the file itself.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-fw.Events:
			if !ok {
				w.Logger.Debug("closing config watcher",
					zap.String("cause", "watcher event channel closed"),
				)
				return nil
			}

			if filepath.Clean(e.Name) != path {
				continue
			}

			if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) && !e.Has(fsnotify.Rename) {
				continue
			}

			cfg, err := w.Provider.Config()
			if err != nil {
				w.Logger.Error("failed to reload config",
					zap.Error(err),
					zap.String("path", w.Provider.Path),
				)
				continue
			}
			w.cfg.Store(cfg)
			w.Logger.Info("config reloaded", zap.String("path", w.Provider.Path))
			fn(cfg)
		case err, ok := <-fw.Errors:
			if !ok {
				w.Logger.Debug("closing config watcher",
					zap.String("cause", "watcher error channel closed"),
				)
				return nil
			}

			w.Logger.Error("error while watching config", zap.Error(err))
		}
	}
}
