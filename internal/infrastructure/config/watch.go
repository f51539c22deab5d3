package config

import (
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch re-reads the config file on every write and hands the new
// configuration to onChange. Invalid revisions are logged and skipped.
// It is a no-op when no config file was loaded.
func Watch(cfg *Config, logger *zap.Logger, onChange func(*Config)) error {
	if cfg.File() == "" {
		return nil
	}

	v, err := newViper(cfg.File())
	if err != nil {
		return err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next, err := decode(v)
		if err != nil {
			logger.Warn("Ignoring invalid configuration change",
				zap.String("file", e.Name),
				zap.Error(err),
			)
			return
		}
		logger.Info("Configuration reloaded", zap.String("file", e.Name))
		onChange(next)
	})
	v.WatchConfig()
	return nil
}
