package domain

import "time"

// PolicyConfig holds the auto-switch thresholds.
type PolicyConfig struct {
	Enabled              bool          `json:"enabled" koanf:"enabled"`
	Interval             time.Duration `json:"interval" koanf:"interval"`               // how often the background loop evaluates
	LookbackWindow       time.Duration `json:"lookback_window" koanf:"lookback_window"` // usage window considered
	MinSamples           int           `json:"min_samples" koanf:"min_samples"`
	LatencyFactor        float64       `json:"latency_factor" koanf:"latency_factor"` // trigger when avg > factor × nominal
	MinSuccessRate       float64       `json:"min_success_rate" koanf:"min_success_rate"`
	QualityFactor        float64       `json:"quality_factor" koanf:"quality_factor"` // trigger when avg < factor × accuracy
	TargetLatencyFactor  float64       `json:"target_latency_factor" koanf:"target_latency_factor"`
	TargetAccuracyFactor float64       `json:"target_accuracy_factor" koanf:"target_accuracy_factor"`
	MinAlternativeScore  float64       `json:"min_alternative_score" koanf:"min_alternative_score"`
}

// RankingConfig holds the recommendation thresholds.
type RankingConfig struct {
	ScoreThreshold       float64       `json:"score_threshold" koanf:"score_threshold"`
	MaxAlternatives      int           `json:"max_alternatives" koanf:"max_alternatives"`
	ExperiencedThreshold int           `json:"experienced_threshold" koanf:"experienced_threshold"` // records needed for the experience bonus
	RecentWindow         time.Duration `json:"recent_window" koanf:"recent_window"`
}

// ServerConfig configures the HTTP host.
type ServerConfig struct {
	Addr           string   `json:"addr" koanf:"addr"`
	AllowedOrigins []string `json:"allowed_origins" koanf:"allowed_origins"`
}

// TelemetryConfig configures the in-process DuckDB mirror.
type TelemetryConfig struct {
	DuckDB bool `json:"duckdb" koanf:"duckdb"`
}

// Runner kinds.
const (
	RunnerSimulated = "simulated"
	RunnerHTTP      = "http"
)

// ExecutorConfig bounds concurrent task executions and picks the runner.
type ExecutorConfig struct {
	MaxConcurrent int64         `json:"max_concurrent" koanf:"max_concurrent"`
	QueueSize     int           `json:"queue_size" koanf:"queue_size"`
	Runner        string        `json:"runner" koanf:"runner"`     // simulated or http
	Simulate      bool          `json:"simulate" koanf:"simulate"` // sleep for the simulated latency
	Jitter        float64       `json:"jitter" koanf:"jitter"`
	Endpoint      string        `json:"endpoint" koanf:"endpoint"`     // execution hook URL for runner=http
	Token         string        `json:"token,omitempty" koanf:"token"` // bearer token, may be "enc:" encrypted
	Timeout       time.Duration `json:"timeout" koanf:"timeout"`
	Degrade       []DegradeRule `json:"degrade,omitempty" koanf:"degrade"` // simulator only
}

// DegradeRule pushes one resource out of its profile in the simulated runner.
type DegradeRule struct {
	ResourceID ResourceID `json:"resource_id" koanf:"resource_id"`
	Factor     float64    `json:"factor" koanf:"factor"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `json:"level" koanf:"level"`   // debug, info, warn, error
	Format string `json:"format" koanf:"format"` // json or text
}

// AppConfig is the main application configuration.
type AppConfig struct {
	Server    ServerConfig    `json:"server" koanf:"server"`
	Policy    PolicyConfig    `json:"policy" koanf:"policy"`
	Ranking   RankingConfig   `json:"ranking" koanf:"ranking"`
	Telemetry TelemetryConfig `json:"telemetry" koanf:"telemetry"`
	Executor  ExecutorConfig  `json:"executor" koanf:"executor"`
	Log       LogConfig       `json:"log" koanf:"log"`
	Resources []Resource      `json:"resources" koanf:"resources"`
}

// DefaultPolicyConfig returns the stock auto-switch thresholds.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		Enabled:              true,
		Interval:             5 * time.Minute,
		LookbackWindow:       24 * time.Hour,
		MinSamples:           5,
		LatencyFactor:        1.5,
		MinSuccessRate:       0.8,
		QualityFactor:        0.8,
		TargetLatencyFactor:  0.8,
		TargetAccuracyFactor: 1.1,
		MinAlternativeScore:  0.7,
	}
}

// DefaultRankingConfig returns the stock recommendation thresholds.
func DefaultRankingConfig() RankingConfig {
	return RankingConfig{
		ScoreThreshold:       0.5,
		MaxAlternatives:      3,
		ExperiencedThreshold: 10,
		RecentWindow:         7 * 24 * time.Hour,
	}
}

// DefaultConfig returns safe defaults. Resources are left empty; the loader
// falls back to DefaultResources when the config file names none.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		Policy:    DefaultPolicyConfig(),
		Ranking:   DefaultRankingConfig(),
		Telemetry: TelemetryConfig{DuckDB: true},
		Executor: ExecutorConfig{
			MaxConcurrent: 10,
			QueueSize:     100,
			Runner:        RunnerSimulated,
			Jitter:        0.2,
			Timeout:       60 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}
