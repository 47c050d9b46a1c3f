package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/manthysbr/modelpilot/internal/core/domain"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "MODELPILOT_CONFIG"

// DefaultPath is used when neither a flag nor the environment names a file.
const DefaultPath = "modelpilot.yaml"

// Load reads a YAML config over the defaults. A missing file yields the
// defaults with the built-in resource catalog. Encrypted secrets are
// decrypted with secret, which may be nil when none are present.
func Load(path string, secret *SecretKey) (*domain.AppConfig, error) {
	cfg := domain.DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			k := koanf.New(".")
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			if err := k.Unmarshal("", cfg); err != nil {
				return nil, fmt.Errorf("decode %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
	}

	if len(cfg.Resources) == 0 {
		cfg.Resources = domain.DefaultResources()
	}
	for i := range cfg.Resources {
		if cfg.Resources[i].Availability.Status == "" {
			cfg.Resources[i].Availability.Status = domain.StatusAvailable
		}
	}

	if strings.HasPrefix(cfg.Executor.Token, encPrefix) {
		if secret == nil {
			return nil, fmt.Errorf("executor.token is encrypted but no secret key is configured")
		}
		token, err := secret.Decrypt(cfg.Executor.Token)
		if err != nil {
			return nil, fmt.Errorf("decrypt executor.token: %w", err)
		}
		cfg.Executor.Token = token
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolvePath picks the config path: explicit flag, then environment, then default.
func ResolvePath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultPath
}

// Validate rejects configurations the engine cannot run with.
func Validate(cfg *domain.AppConfig) error {
	var errs []error

	seen := make(map[domain.ResourceID]bool, len(cfg.Resources))
	for i, r := range cfg.Resources {
		if r.ID == "" {
			errs = append(errs, fmt.Errorf("resources[%d]: id is required", i))
			continue
		}
		if seen[r.ID] {
			errs = append(errs, fmt.Errorf("resources[%d]: duplicate id %q", i, r.ID))
		}
		seen[r.ID] = true
		if !r.Availability.Status.Valid() {
			errs = append(errs, fmt.Errorf("resource %s: unknown status %q", r.ID, r.Availability.Status))
		}
		if a := r.Performance.Accuracy; a < 0 || a > 1 {
			errs = append(errs, fmt.Errorf("resource %s: accuracy %.2f outside [0,1]", r.ID, a))
		}
		if r.Performance.LatencyMs < 0 {
			errs = append(errs, fmt.Errorf("resource %s: negative latency", r.ID))
		}
	}

	p := cfg.Policy
	if p.Interval <= 0 || p.LookbackWindow <= 0 {
		errs = append(errs, errors.New("policy: interval and lookback_window must be positive"))
	}
	if p.MinSamples < 1 {
		errs = append(errs, errors.New("policy: min_samples must be at least 1"))
	}
	if cfg.Ranking.MaxAlternatives < 0 {
		errs = append(errs, errors.New("ranking: max_alternatives must not be negative"))
	}

	switch cfg.Executor.Runner {
	case domain.RunnerSimulated:
	case domain.RunnerHTTP:
		if cfg.Executor.Endpoint == "" {
			errs = append(errs, errors.New("executor: endpoint is required when runner=http"))
		}
	default:
		errs = append(errs, fmt.Errorf("executor: unknown runner %q", cfg.Executor.Runner))
	}
	for i, d := range cfg.Executor.Degrade {
		if d.ResourceID == "" || d.Factor < 1 {
			errs = append(errs, fmt.Errorf("executor.degrade[%d]: resource_id is required and factor must be at least 1", i))
		}
	}

	switch strings.ToLower(cfg.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log: unknown format %q", cfg.Log.Format))
	}

	return errors.Join(errs...)
}
