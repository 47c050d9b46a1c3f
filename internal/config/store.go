package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/knadh/koanf/providers/file"

	"github.com/manthysbr/modelpilot/internal/core/domain"
)

// OnChangeFunc is called after a successful reload.
type OnChangeFunc func(cfg *domain.AppConfig)

// Store holds the live configuration and reloads it when the file changes.
// Invalid edits are logged and ignored; the last good config stays active.
type Store struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	path     string
	secret   *SecretKey
	config   *domain.AppConfig
	onChange []OnChangeFunc
}

// NewStore loads path and returns a store serving it.
func NewStore(logger *slog.Logger, path string, secret *SecretKey) (*Store, error) {
	cfg, err := Load(path, secret)
	if err != nil {
		return nil, err
	}
	return &Store{
		logger: logger,
		path:   path,
		secret: secret,
		config: cfg,
	}, nil
}

// OnChange registers a callback for reloads.
// Used by main to hot-swap the catalog and the auto-switch policy.
func (s *Store) OnChange(fn OnChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Get returns a copy of the current config.
func (s *Store) Get() *domain.AppConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneConfig(s.config)
}

// Masked returns the config safe for API responses.
func (s *Store) Masked() *domain.AppConfig {
	cp := s.Get()
	cp.Executor.Token = MaskSecret(cp.Executor.Token)
	return cp
}

// Reload re-reads the file. On success the callbacks run with the new config.
func (s *Store) Reload() error {
	cfg, err := Load(s.path, s.secret)
	if err != nil {
		s.logger.Warn("config reload rejected, keeping previous config", "path", s.path, "error", err)
		return err
	}

	s.mu.Lock()
	s.config = cfg
	callbacks := append([]OnChangeFunc(nil), s.onChange...)
	s.mu.Unlock()

	s.logger.Info("config reloaded", "path", s.path, "resources", len(cfg.Resources))
	for _, fn := range callbacks {
		fn(cloneConfig(cfg))
	}
	return nil
}

// Watch reloads on file changes until ctx is cancelled. Without a config
// file there is nothing to watch and it returns immediately.
func (s *Store) Watch(ctx context.Context) error {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		s.logger.Info("no config file, hot reload disabled", "path", s.path)
		return nil
	}

	fp := file.Provider(s.path)
	err := fp.Watch(func(_ interface{}, err error) {
		if err != nil {
			s.logger.Error("config watch error", "error", err)
			return
		}
		_ = s.Reload()
	})
	if err != nil {
		s.logger.Warn("config watch unavailable", "path", s.path, "error", err)
		return nil
	}
	s.logger.Info("watching config for changes", "path", s.path)

	<-ctx.Done()
	if err := fp.Unwatch(); err != nil {
		s.logger.Warn("config unwatch failed", "error", err)
	}
	return nil
}

func cloneConfig(cfg *domain.AppConfig) *domain.AppConfig {
	cp := *cfg
	cp.Server.AllowedOrigins = append([]string(nil), cfg.Server.AllowedOrigins...)
	cp.Executor.Degrade = append([]domain.DegradeRule(nil), cfg.Executor.Degrade...)
	cp.Resources = make([]domain.Resource, len(cfg.Resources))
	for i, r := range cfg.Resources {
		cp.Resources[i] = r.Clone()
	}
	return &cp
}
