package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Tunables are the settings that may change while the service runs.
// They are reloaded from the dynamic config file on write.
type Tunables struct {
	SimilarityThreshold float64 `yaml:"similarityThreshold"`
	CacheCapacity       int     `yaml:"cacheCapacity"`
	ObserverQueueSize   int     `yaml:"observerQueueSize"`
	RecentScanLimit     int     `yaml:"recentScanLimit"`
}

// DynamicConfig watches a YAML file and exposes its latest valid contents.
type DynamicConfig struct {
	mu      sync.RWMutex
	current Tunables
	path    string
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	onLoad  []func(Tunables)
	done    chan struct{}
}

// NewDynamicConfig loads the tunables file and begins watching it for
// changes. The file's parent directory is watched so editors that
// replace the file atomically are still picked up.
func NewDynamicConfig(path string, defaults Tunables, logger *zap.Logger) (*DynamicConfig, error) {
	dc := &DynamicConfig{
		current: defaults,
		path:    path,
		logger:  logger,
		done:    make(chan struct{}),
	}

	if err := dc.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		logger.Info("dynamic config file missing, using defaults",
			zap.String("path", path))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}
	dc.watcher = watcher

	go dc.watch()
	return dc, nil
}

// Current returns the latest loaded tunables.
func (dc *DynamicConfig) Current() Tunables {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return dc.current
}

// OnReload registers a callback invoked after every successful reload.
func (dc *DynamicConfig) OnReload(fn func(Tunables)) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.onLoad = append(dc.onLoad, fn)
}

// Close stops the watcher.
func (dc *DynamicConfig) Close() error {
	close(dc.done)
	return dc.watcher.Close()
}

func (dc *DynamicConfig) watch() {
	for {
		select {
		case event, ok := <-dc.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(dc.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := dc.load(); err != nil {
				// Keep the previous tunables on a bad write.
				dc.logger.Warn("dynamic config reload failed",
					zap.String("path", dc.path),
					zap.Error(err))
				continue
			}
			dc.logger.Info("dynamic config reloaded", zap.String("path", dc.path))
		case err, ok := <-dc.watcher.Errors:
			if !ok {
				return
			}
			dc.logger.Warn("dynamic config watcher error", zap.Error(err))
		case <-dc.done:
			return
		}
	}
}

func (dc *DynamicConfig) load() error {
	data, err := os.ReadFile(dc.path)
	if err != nil {
		return err
	}

	dc.mu.Lock()
	next := dc.current
	dc.mu.Unlock()

	if err := yaml.Unmarshal(data, &next); err != nil {
		return err
	}

	dc.mu.Lock()
	dc.current = next
	callbacks := make([]func(Tunables), len(dc.onLoad))
	copy(callbacks, dc.onLoad)
	dc.mu.Unlock()

	for _, fn := range callbacks {
		fn(next)
	}
	return nil
}
