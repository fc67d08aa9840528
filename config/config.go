package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
	"github.com/leeforge/plugincatalog/validation"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Options controls where settings are read from.
type Options struct {
	BasePath  string
	FileName  string
	FileType  string
	EnvPrefix string
	Mode      Mode

	// OnChange receives the new settings after a watched file changed and
	// the result still validated.
	OnChange func(Settings)
	Logger   *zap.Logger
}

// DefaultOptions reads config/config.yaml and its layers with CATALOG_
// environment overrides.
func DefaultOptions() Options {
	basePath := os.Getenv("CONFIG_PATH")
	if basePath == "" {
		basePath = "config"
	}
	return Options{
		BasePath:  basePath,
		FileName:  "config",
		FileType:  "yaml",
		EnvPrefix: "CATALOG",
		Mode:      CurrentMode(),
	}
}

// Config holds the loaded settings.
type Config struct {
	opts Options

	mu       sync.RWMutex
	settings Settings
	files    []string
}

// Load reads every config layer that exists, applies environment overrides
// and defaults, and validates the result. Missing files are not an error.
func Load(opts Options) (*Config, error) {
	if opts.FileName == "" {
		opts.FileName = "config"
	}
	if opts.FileType == "" {
		opts.FileType = "yaml"
	}
	if opts.Mode == "" {
		opts.Mode = CurrentMode()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	c := &Config{opts: opts}
	settings, files, err := c.read()
	if err != nil {
		return nil, err
	}
	c.settings = settings
	c.files = files
	return c, nil
}

// Settings returns the current settings.
func (c *Config) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// Files lists the config files that were merged, lowest priority first.
func (c *Config) Files() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.files...)
}

// OnChange replaces the callback run with the new settings after a reload.
func (c *Config) OnChange(fn func(Settings)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts.OnChange = fn
}

// SetLogger replaces the logger reporting reloads and watcher errors.
func (c *Config) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts.Logger = logger
}

func (c *Config) hooks() (*zap.Logger, func(Settings)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.opts.Logger, c.opts.OnChange
}

// Watch reloads the settings whenever a file in BasePath changes, until ctx
// is done. Invalid edits are logged and ignored.
func (c *Config) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(c.opts.BasePath); err != nil {
		_ = watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Ext(event.Name) != "."+c.opts.FileType {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				c.reload(event.Name)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger, _ := c.hooks()
				logger.Warn("config watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

func (c *Config) reload(trigger string) {
	logger, onChange := c.hooks()
	settings, files, err := c.read()
	if err != nil {
		logger.Warn("ignoring invalid config change",
			zap.String("file", trigger), zap.Error(err))
		return
	}

	c.mu.Lock()
	c.settings = settings
	c.files = files
	c.mu.Unlock()

	logger.Info("config reloaded", zap.String("file", trigger))
	if onChange != nil {
		onChange(settings)
	}
}

func (c *Config) read() (Settings, []string, error) {
	v := viper.New()
	v.SetConfigType(c.opts.FileType)

	files := c.layerFiles()
	for _, path := range files {
		layer := viper.New()
		layer.SetConfigFile(path)
		if err := layer.ReadInConfig(); err != nil {
			return Settings{}, nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := v.MergeConfigMap(layer.AllSettings()); err != nil {
			return Settings{}, nil, fmt.Errorf("merge config file %s: %w", path, err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	if c.opts.EnvPrefix != "" {
		v.SetEnvPrefix(c.opts.EnvPrefix)
	}
	v.AutomaticEnv()
	for _, key := range settingKeys(reflect.TypeOf(Settings{}), "") {
		_ = v.BindEnv(key)
	}

	var settings Settings
	if err := defaults.Set(&settings); err != nil {
		return Settings{}, nil, fmt.Errorf("apply config defaults: %w", err)
	}
	if err := v.Unmarshal(&settings); err != nil {
		return Settings{}, nil, fmt.Errorf("decode config: %w", err)
	}
	if err := validation.Struct(settings); err != nil {
		return Settings{}, nil, err
	}
	return settings, files, nil
}

// layerFiles returns the existing files among config, config.local,
// config.<env> and config.<env>.local.
func (c *Config) layerFiles() []string {
	names := []string{c.opts.FileName, c.opts.FileName + ".local"}
	for _, suffix := range c.opts.Mode.fileSuffixes() {
		names = append(names,
			c.opts.FileName+"."+suffix,
			c.opts.FileName+"."+suffix+".local",
		)
	}

	var files []string
	for _, name := range names {
		path := filepath.Join(c.opts.BasePath, name+"."+c.opts.FileType)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			files = append(files, path)
		}
	}
	return files
}

// settingKeys lists the dotted mapstructure keys of every leaf field of t so
// that environment variables bind even when no file mentions the key.
func settingKeys(t reflect.Type, prefix string) []string {
	var keys []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := field.Tag.Get("mapstructure")
		if name == "" || name == "-" {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if field.Type.Kind() == reflect.Struct {
			keys = append(keys, settingKeys(field.Type, key)...)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}
