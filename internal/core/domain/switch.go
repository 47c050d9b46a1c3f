package domain

import "time"

// NoResource is recorded as the previous resource of the very first switch.
const NoResource ResourceID = "none"

// Actors that initiate switches.
const (
	ActorUser       = "user"
	ActorAutoSwitch = "auto-switch"
	ActorSystem     = "system"
)

// AutoSwitchReason is the reason attached to policy-driven switches.
const AutoSwitchReason = "auto-switch: performance degradation"

// SwitchSnapshot captures the new resource's profile at the moment of the switch.
type SwitchSnapshot struct {
	Performance PerformanceProfile `json:"performance"`
	Cost        CostProfile        `json:"cost"`
}

// SwitchRecord is an immutable entry of the switch history.
type SwitchRecord struct {
	ID        string         `json:"id"`
	From      ResourceID     `json:"from"`
	To        ResourceID     `json:"to"`
	Reason    string         `json:"reason"`
	Timestamp time.Time      `json:"timestamp"`
	Snapshot  SwitchSnapshot `json:"snapshot"`
	Actor     string         `json:"actor"`
	Context   string         `json:"context,omitempty"`
}
