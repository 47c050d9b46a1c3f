package domain

// Priority selects the weight vector used when scoring resources.
type Priority string

const (
	PrioritySpeed    Priority = "speed"
	PriorityQuality  Priority = "quality"
	PriorityCost     Priority = "cost"
	PriorityBalanced Priority = "balanced"
)

// Constraints are hard requirements. Nil pointers and empty values mean "unset".
type Constraints struct {
	MaxLatencyMs        *float64 `json:"max_latency_ms,omitempty"`
	MaxCost             *float64 `json:"max_cost,omitempty"`
	MinAccuracy         *float64 `json:"min_accuracy,omitempty"`
	RequiredFeatures    []string `json:"required_features,omitempty"`
	RequiredLanguage    string   `json:"required_language,omitempty"`
	RequiredContextSize int      `json:"required_context_size,omitempty"`
}

// Preferences are soft hints that never change a score.
type Preferences struct {
	PreferredProvider string       `json:"preferred_provider,omitempty"`
	PreferredType     string       `json:"preferred_type,omitempty"`
	Avoid             []ResourceID `json:"avoid,omitempty"`
}

// SelectionCriteria is a per-call request for a recommendation.
type SelectionCriteria struct {
	Task        string      `json:"task"`
	Priority    Priority    `json:"priority"`
	Constraints Constraints `json:"constraints"`
	Preferences Preferences `json:"preferences"`
}

// Avoids reports whether id is on the avoid list.
func (c SelectionCriteria) Avoids(id ResourceID) bool {
	for _, a := range c.Preferences.Avoid {
		if a == id {
			return true
		}
	}
	return false
}

// Float64 returns a pointer to v, for optional constraints.
func Float64(v float64) *float64 {
	return &v
}

// Weights is the per-priority weight vector over the four sub-scores.
type Weights struct {
	Performance  float64 `json:"performance"`
	Cost         float64 `json:"cost"`
	Capability   float64 `json:"capability"`
	Availability float64 `json:"availability"`
}

// WeightsFor returns the weight vector for p. Unknown priorities score as balanced.
func WeightsFor(p Priority) Weights {
	switch p {
	case PrioritySpeed:
		return Weights{Performance: 0.6, Cost: 0.2, Capability: 0.1, Availability: 0.1}
	case PriorityQuality:
		return Weights{Performance: 0.4, Cost: 0.1, Capability: 0.4, Availability: 0.1}
	case PriorityCost:
		return Weights{Performance: 0.2, Cost: 0.6, Capability: 0.1, Availability: 0.1}
	default:
		return Weights{Performance: 0.3, Cost: 0.3, Capability: 0.3, Availability: 0.1}
	}
}

// ScoreBreakdown exposes the sub-scores behind a total score.
type ScoreBreakdown struct {
	Performance  float64 `json:"performance"`
	Cost         float64 `json:"cost"`
	Capability   float64 `json:"capability"`
	Availability float64 `json:"availability"`
	Weights      Weights `json:"weights"`
	Total        float64 `json:"total"`
}

// Recommendation is a scored, justified suggestion of which resource to use.
type Recommendation struct {
	ResourceID   ResourceID   `json:"resource_id"`
	Score        float64      `json:"score"`
	Reasons      []string     `json:"reasons"`
	Alternatives []ResourceID `json:"alternatives"`
	Confidence   float64      `json:"confidence"`
}
