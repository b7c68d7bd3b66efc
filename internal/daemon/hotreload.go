package daemon

import (
	"log/slog"
	"sync"

	"github.com/jmylchreest/xpop/internal/config"
)

// ConfigWatcher reloads and validates the daemon config whenever the file
// changes on disk.
type ConfigWatcher struct {
	mu     sync.RWMutex
	logger *slog.Logger

	configPath string
	watcher    *config.Watcher

	currentConfig *config.DaemonConfig

	onReloadCallback func(newConfig *config.DaemonConfig)
	onErrorCallback  func(err error)

	running bool
}

// NewConfigWatcher creates a ConfigWatcher for configPath. An empty path
// means the default daemon config path.
func NewConfigWatcher(configPath string, logger *slog.Logger) (*ConfigWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if configPath == "" {
		var err error
		configPath, err = config.DaemonConfigPath()
		if err != nil {
			return nil, err
		}
	}

	watcher, err := config.NewWatcher(configPath, logger)
	if err != nil {
		return nil, err
	}

	w := &ConfigWatcher{
		logger:     logger,
		configPath: configPath,
		watcher:    watcher,
	}
	watcher.SetChangeCallback(w.reload)
	return w, nil
}

// SetReloadCallback sets the callback to invoke when config is successfully reloaded.
func (w *ConfigWatcher) SetReloadCallback(callback func(newConfig *config.DaemonConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReloadCallback = callback
}

// SetErrorCallback sets the callback to invoke when config reload fails validation.
func (w *ConfigWatcher) SetErrorCallback(callback func(err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onErrorCallback = callback
}

// Start begins watching the config file.
func (w *ConfigWatcher) Start(initialConfig *config.DaemonConfig) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.currentConfig = initialConfig
	w.mu.Unlock()

	if err := w.watcher.Start(); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}

	w.logger.Debug("config watcher started", "path", w.configPath)
	return nil
}

// Stop stops watching the config file.
func (w *ConfigWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	if err := w.watcher.Stop(); err != nil {
		w.logger.Debug("failed to stop config watcher", "error", err)
	}
	w.logger.Debug("config watcher stopped")
}

// GetCurrentConfig returns the last valid configuration.
func (w *ConfigWatcher) GetCurrentConfig() *config.DaemonConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.currentConfig
}

// reload runs on the watcher's timer goroutine.
func (w *ConfigWatcher) reload() {
	w.mu.RLock()
	reloadCallback := w.onReloadCallback
	errorCallback := w.onErrorCallback
	w.mu.RUnlock()

	w.logger.Debug("config file changed", "path", w.configPath)

	newConfig, err := config.LoadDaemonConfig(w.configPath)
	if err != nil {
		w.logger.Warn("config file changed but validation failed", "error", err)
		if errorCallback != nil {
			errorCallback(err)
		}
		return
	}

	w.mu.Lock()
	w.currentConfig = newConfig
	w.mu.Unlock()

	w.logger.Info("config reloaded", "path", w.configPath)
	if reloadCallback != nil {
		reloadCallback(newConfig)
	}
}
