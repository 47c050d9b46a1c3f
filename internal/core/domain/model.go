package domain

import "strings"

// ResourceID uniquely identifies a resource in the catalog: "gpt-4o", "claude-3-5-sonnet".
type ResourceID string

// SpeedClass is the qualitative response speed of a resource.
type SpeedClass string

const (
	SpeedSlow      SpeedClass = "slow"
	SpeedMedium    SpeedClass = "medium"
	SpeedFast      SpeedClass = "fast"
	SpeedUltraFast SpeedClass = "ultra_fast"
)

// AvailabilityStatus is the only field of a Resource that changes after load.
type AvailabilityStatus string

const (
	StatusAvailable   AvailabilityStatus = "available"
	StatusLimited     AvailabilityStatus = "limited"
	StatusUnavailable AvailabilityStatus = "unavailable"
	StatusMaintenance AvailabilityStatus = "maintenance"
)

// Valid reports whether s is one of the known statuses.
func (s AvailabilityStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusLimited, StatusUnavailable, StatusMaintenance:
		return true
	}
	return false
}

// Capabilities describes what kind of work a resource accepts.
type Capabilities struct {
	Languages      []string `json:"languages" koanf:"languages"`
	Features       []string `json:"features" koanf:"features"`
	MaxInputTokens int      `json:"max_input_tokens" koanf:"max_input_tokens"`
	ContextWindow  int      `json:"context_window" koanf:"context_window"`
}

// PerformanceProfile is the nominal (advertised) performance of a resource.
type PerformanceProfile struct {
	Speed       SpeedClass `json:"speed" koanf:"speed"`
	Accuracy    float64    `json:"accuracy" koanf:"accuracy"`     // 0..1
	LatencyMs   float64    `json:"latency_ms" koanf:"latency_ms"` // typical time to first response
	Throughput  float64    `json:"throughput" koanf:"throughput"` // tokens per second
	Reliability float64    `json:"reliability" koanf:"reliability"`
	Consistency float64    `json:"consistency" koanf:"consistency"`
}

// FreeTier describes a provider allowance that is not billed.
type FreeTier struct {
	Enabled     bool   `json:"enabled" koanf:"enabled"`
	Allowance   int64  `json:"allowance" koanf:"allowance"`       // tokens per reset period
	ResetPeriod string `json:"reset_period" koanf:"reset_period"` // "daily", "monthly"
}

// CostProfile prices are per unit, one unit being 1K tokens.
type CostProfile struct {
	InputPerUnit  float64  `json:"input_per_unit" koanf:"input_per_unit"`
	OutputPerUnit float64  `json:"output_per_unit" koanf:"output_per_unit"`
	PerRequest    float64  `json:"per_request" koanf:"per_request"`
	FreeTier      FreeTier `json:"free_tier" koanf:"free_tier"`
}

// AverageUnitCost is the mean of the input and output unit prices.
func (c CostProfile) AverageUnitCost() float64 {
	return (c.InputPerUnit + c.OutputPerUnit) / 2
}

// Estimate prices a single request with the given token counts.
func (c CostProfile) Estimate(inputTokens, outputTokens int64) float64 {
	return float64(inputTokens)/1000*c.InputPerUnit +
		float64(outputTokens)/1000*c.OutputPerUnit +
		c.PerRequest
}

// RateLimits are the provider-side request limits.
type RateLimits struct {
	RequestsPerMinute int `json:"requests_per_minute" koanf:"requests_per_minute"`
	TokensPerMinute   int `json:"tokens_per_minute" koanf:"tokens_per_minute"`
}

// AvailabilityProfile describes where and how reliably a resource can be reached.
type AvailabilityProfile struct {
	Status     AvailabilityStatus `json:"status" koanf:"status"`
	Regions    []string           `json:"regions" koanf:"regions"`
	RateLimits RateLimits         `json:"rate_limits" koanf:"rate_limits"`
	SLA        float64            `json:"sla" koanf:"sla"` // percentage, e.g. 99.9
}

// RuntimeConfig holds sampling tunables sent along with each request.
type RuntimeConfig struct {
	Temperature     float64 `json:"temperature" koanf:"temperature"`
	TopP            float64 `json:"top_p" koanf:"top_p"`
	MaxOutputTokens int     `json:"max_output_tokens" koanf:"max_output_tokens"`
}

// Resource is an interchangeable backend capable of executing a task.
type Resource struct {
	ID           ResourceID          `json:"id" koanf:"id"`
	Name         string              `json:"name" koanf:"name"`
	Provider     string              `json:"provider" koanf:"provider"` // "openai", "anthropic", "ollama"
	Type         string              `json:"type" koanf:"type"`         // "chat", "code", "embedding"
	Capabilities Capabilities        `json:"capabilities" koanf:"capabilities"`
	Performance  PerformanceProfile  `json:"performance" koanf:"performance"`
	Cost         CostProfile         `json:"cost" koanf:"cost"`
	Availability AvailabilityProfile `json:"availability" koanf:"availability"`
	Config       RuntimeConfig       `json:"config" koanf:"config"`
}

// Clone returns a deep copy so callers can never alias catalog slices.
func (r Resource) Clone() Resource {
	cp := r
	cp.Capabilities.Languages = append([]string(nil), r.Capabilities.Languages...)
	cp.Capabilities.Features = append([]string(nil), r.Capabilities.Features...)
	cp.Availability.Regions = append([]string(nil), r.Availability.Regions...)
	return cp
}

// HasFeature reports whether the resource lists the feature (case-insensitive).
func (r Resource) HasFeature(feature string) bool {
	return containsFold(r.Capabilities.Features, feature)
}

// SupportsLanguage reports whether the resource lists the language (case-insensitive).
func (r Resource) SupportsLanguage(lang string) bool {
	return containsFold(r.Capabilities.Languages, lang)
}

func containsFold(list []string, want string) bool {
	want = strings.TrimSpace(want)
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), want) {
			return true
		}
	}
	return false
}

// DefaultResources returns the built-in catalog used when no descriptors are configured.
// Prices are USD per 1K tokens.
func DefaultResources() []Resource {
	return []Resource{
		{
			ID:       "gpt-4o",
			Name:     "GPT-4o",
			Provider: "openai",
			Type:     "chat",
			Capabilities: Capabilities{
				Languages:      []string{"go", "python", "typescript", "javascript", "rust", "java"},
				Features:       []string{"code_generation", "code_review", "vision", "function_calling"},
				MaxInputTokens: 128000,
				ContextWindow:  128000,
			},
			Performance: PerformanceProfile{Speed: SpeedFast, Accuracy: 0.93, LatencyMs: 900, Throughput: 90, Reliability: 0.99, Consistency: 0.9},
			Cost:        CostProfile{InputPerUnit: 0.0025, OutputPerUnit: 0.01},
			Availability: AvailabilityProfile{
				Status:     StatusAvailable,
				Regions:    []string{"us", "eu"},
				RateLimits: RateLimits{RequestsPerMinute: 5000, TokensPerMinute: 800000},
				SLA:        99.9,
			},
			Config: RuntimeConfig{Temperature: 0.2, TopP: 1, MaxOutputTokens: 4096},
		},
		{
			ID:       "gpt-4o-mini",
			Name:     "GPT-4o mini",
			Provider: "openai",
			Type:     "chat",
			Capabilities: Capabilities{
				Languages:      []string{"go", "python", "typescript", "javascript"},
				Features:       []string{"code_generation", "function_calling", "vision"},
				MaxInputTokens: 128000,
				ContextWindow:  128000,
			},
			Performance: PerformanceProfile{Speed: SpeedUltraFast, Accuracy: 0.85, LatencyMs: 450, Throughput: 140, Reliability: 0.99, Consistency: 0.88},
			Cost:        CostProfile{InputPerUnit: 0.00015, OutputPerUnit: 0.0006},
			Availability: AvailabilityProfile{
				Status:     StatusAvailable,
				Regions:    []string{"us", "eu"},
				RateLimits: RateLimits{RequestsPerMinute: 10000, TokensPerMinute: 2000000},
				SLA:        99.9,
			},
			Config: RuntimeConfig{Temperature: 0.2, TopP: 1, MaxOutputTokens: 4096},
		},
		{
			ID:       "claude-3-5-sonnet",
			Name:     "Claude 3.5 Sonnet",
			Provider: "anthropic",
			Type:     "chat",
			Capabilities: Capabilities{
				Languages:      []string{"go", "python", "typescript", "javascript", "rust", "java", "c"},
				Features:       []string{"code_generation", "code_review", "refactoring", "vision"},
				MaxInputTokens: 200000,
				ContextWindow:  200000,
			},
			Performance: PerformanceProfile{Speed: SpeedFast, Accuracy: 0.95, LatencyMs: 1100, Throughput: 80, Reliability: 0.98, Consistency: 0.92},
			Cost:        CostProfile{InputPerUnit: 0.003, OutputPerUnit: 0.015},
			Availability: AvailabilityProfile{
				Status:     StatusAvailable,
				Regions:    []string{"us", "eu"},
				RateLimits: RateLimits{RequestsPerMinute: 4000, TokensPerMinute: 400000},
				SLA:        99.5,
			},
			Config: RuntimeConfig{Temperature: 0.3, TopP: 1, MaxOutputTokens: 8192},
		},
		{
			ID:       "claude-3-haiku",
			Name:     "Claude 3 Haiku",
			Provider: "anthropic",
			Type:     "chat",
			Capabilities: Capabilities{
				Languages:      []string{"go", "python", "typescript", "javascript"},
				Features:       []string{"code_generation", "summarization"},
				MaxInputTokens: 200000,
				ContextWindow:  200000,
			},
			Performance: PerformanceProfile{Speed: SpeedUltraFast, Accuracy: 0.82, LatencyMs: 400, Throughput: 150, Reliability: 0.99, Consistency: 0.85},
			Cost:        CostProfile{InputPerUnit: 0.00025, OutputPerUnit: 0.00125},
			Availability: AvailabilityProfile{
				Status:     StatusAvailable,
				Regions:    []string{"us"},
				RateLimits: RateLimits{RequestsPerMinute: 4000, TokensPerMinute: 400000},
				SLA:        99.5,
			},
			Config: RuntimeConfig{Temperature: 0.3, TopP: 1, MaxOutputTokens: 4096},
		},
		{
			ID:       "gemini-1.5-pro",
			Name:     "Gemini 1.5 Pro",
			Provider: "google",
			Type:     "chat",
			Capabilities: Capabilities{
				Languages:      []string{"go", "python", "typescript", "java", "kotlin"},
				Features:       []string{"code_generation", "multimodal", "long_context"},
				MaxInputTokens: 1000000,
				ContextWindow:  1000000,
			},
			Performance: PerformanceProfile{Speed: SpeedMedium, Accuracy: 0.91, LatencyMs: 1500, Throughput: 60, Reliability: 0.97, Consistency: 0.87},
			Cost: CostProfile{
				InputPerUnit:  0.00125,
				OutputPerUnit: 0.005,
				FreeTier:      FreeTier{Enabled: true, Allowance: 1000000, ResetPeriod: "daily"},
			},
			Availability: AvailabilityProfile{
				Status:     StatusAvailable,
				Regions:    []string{"us", "eu", "asia"},
				RateLimits: RateLimits{RequestsPerMinute: 360, TokensPerMinute: 4000000},
				SLA:        99.0,
			},
			Config: RuntimeConfig{Temperature: 0.4, TopP: 0.95, MaxOutputTokens: 8192},
		},
		{
			ID:       "llama3.1:8b",
			Name:     "Llama 3.1 8B (local)",
			Provider: "ollama",
			Type:     "code",
			Capabilities: Capabilities{
				Languages:      []string{"go", "python", "javascript"},
				Features:       []string{"code_generation"},
				MaxInputTokens: 8192,
				ContextWindow:  8192,
			},
			Performance: PerformanceProfile{Speed: SpeedMedium, Accuracy: 0.72, LatencyMs: 2000, Throughput: 30, Reliability: 0.95, Consistency: 0.8},
			Cost: CostProfile{
				FreeTier: FreeTier{Enabled: true, ResetPeriod: "monthly"},
			},
			Availability: AvailabilityProfile{
				Status:     StatusAvailable,
				Regions:    []string{"local"},
				RateLimits: RateLimits{RequestsPerMinute: 60},
				SLA:        95,
			},
			Config: RuntimeConfig{Temperature: 0.7, TopP: 0.9, MaxOutputTokens: 2048},
		},
	}
}
