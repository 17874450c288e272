// wire.go — Snapshot wire types.
// One message per non-empty emission tick. Snapshots are built fresh per
// cycle and never stored.
package emit

import "github.com/render-lens/render-lens/internal/render"

// MessageKindRenderSnapshot tags a snapshot batch on the wire.
const MessageKindRenderSnapshot = "RENDER_SNAPSHOT"

// Lifecycle phase of a profile at emission time.
const (
	PhaseMount   = "mount"
	PhaseUpdate  = "update"
	PhaseUnmount = "unmount"
)

// SnapshotMessage is the batch handed to the transport sink.
type SnapshotMessage struct {
	Kind      string            `json:"kind"`
	SessionID string            `json:"session_id"`
	Timestamp int64             `json:"timestamp"` // unix ms
	Profiles  []ProfileSnapshot `json:"profiles"`
}

// PropFrequency summarizes change pressure on one property key.
type PropFrequency struct {
	Key              string `json:"key"`
	Changes          int    `json:"changes"`
	ReferenceOnlyPct int    `json:"reference_only_pct"`
}

// ProfileSnapshot is the flattened, delta-bearing view of one Profile.
type ProfileSnapshot struct {
	ID             string `json:"id"`
	Identity       string `json:"identity"`
	Name           string `json:"name"`
	Classification string `json:"classification"`
	Phase          string `json:"phase"`
	Depth          int    `json:"depth"`

	TotalRenders int     `json:"total_renders"`
	RendersDelta int     `json:"renders_delta"`
	TotalCost    float64 `json:"total_cost"`
	CostDelta    float64 `json:"cost_delta"`
	Velocity     float64 `json:"velocity"`

	Suspicious       bool   `json:"suspicious"`
	SuspiciousReason string `json:"suspicious_reason,omitempty"`

	CauseBreakdown map[string]int `json:"cause_breakdown"`
	CauseDelta     map[string]int `json:"cause_delta,omitempty"`

	PrimaryParent     string `json:"primary_parent,omitempty"`
	LastTransactionID string `json:"last_transaction_id,omitempty"`

	TopProps          []PropFrequency     `json:"top_props,omitempty"`
	RecentPropChanges []render.PropChange `json:"recent_prop_changes,omitempty"`

	MountedAt   int64 `json:"mounted_at"`
	UnmountedAt int64 `json:"unmounted_at,omitempty"`
}
