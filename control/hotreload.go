// control/hotreload.go
// Author: momentics <momentics@gmail.com>
//
// Config file watching and reload hooks.

package control

import (
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	hooksMu     sync.Mutex
	reloadHooks []func(*Config)
)

// RegisterReloadHook adds a listener for reloaded configuration.
func RegisterReloadHook(fn func(*Config)) {
	hooksMu.Lock()
	reloadHooks = append(reloadHooks, fn)
	hooksMu.Unlock()
}

func hooks() []func(*Config) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	return slices.Clone(reloadHooks)
}

// TriggerHotReloadSync invokes all reload hooks synchronously.
func TriggerHotReloadSync(cfg *Config) {
	for _, fn := range hooks() {
		fn(cfg)
	}
}

// LogLevelHook applies the reloaded log level.
func LogLevelHook(cfg *Config) {
	if err := SetLogLevel(cfg.Log.Level); err != nil {
		zap.L().Warn("control: ignoring reloaded log level", zap.Error(err))
		return
	}
	zap.L().Info("control: log level reloaded", zap.String("level", cfg.Log.Level))
}

// WatchConfig watches the file at path and runs the reload hooks with the
// re-read configuration after every change. Invalid edits are logged and
// skipped. The watch lasts for the life of the process.
func WatchConfig(path string) error {
	if path == "" {
		return errors.New("control: watch needs a config file path")
	}
	v := NewViper()
	if err := ReadInto(v, path); err != nil {
		return err
	}
	v.OnConfigChange(func(ev fsnotify.Event) {
		cfg, err := Load(path)
		if err != nil {
			zap.L().Warn("control: config reload failed", zap.String("file", ev.Name), zap.Error(err))
			return
		}
		TriggerHotReloadSync(cfg)
	})
	v.WatchConfig()
	return nil
}
