// Package adapter defines the event-bus adapter boundary per CONTRACT_INTEGRATION.md.
//
// Adapters publish plan completion notifications to downstream systems
// once a plan's descriptor export is complete. The CLI owns adapter
// lifecycle; users provide configuration only.
package adapter

import "context"

// EventTypePlanCompleted is the event_type value for plan completion.
const EventTypePlanCompleted = "plan_completed"

// PlanCompletedEvent is the payload published when a plan's export
// finishes. Shape matches the event payload defined in
// docs/guides/integration.md.
type PlanCompletedEvent struct {
	ContractVersion string `json:"contract_version"`
	EventType       string `json:"event_type"` // always "plan_completed"
	PlanID          string `json:"plan_id"`
	Workspace       string `json:"workspace"`
	Day             string `json:"day"`
	ActionCount     int    `json:"action_count"`
	SpawnCount      int    `json:"spawn_count"`
	FileWriteCount  int    `json:"file_write_count"`
	SpillCount      int64  `json:"spill_count"`
	StoragePath     string `json:"storage_path"`
	Timestamp       string `json:"timestamp"` // ISO 8601
	DurationMs      int64  `json:"duration_ms"`
}

// Adapter publishes plan completion events to a downstream system.
// Implementations must be safe for single-use per plan.
type Adapter interface {
	// Publish sends a plan completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *PlanCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}
