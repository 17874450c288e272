// causes.go — Heuristic re-render cause inference.
// Classifies why a unit re-executed from its previous/current snapshots
// and commit-local parent membership. The checks form a priority cascade:
// parent-rendered-this-commit outranks state, which outranks an
// unexplained prop identity change.
package render

import "github.com/render-lens/render-lens/internal/host"

// Cause is one of the closed set of re-render cause categories.
type Cause string

const (
	CauseStateChanged   Cause = "state_changed"
	CausePropsChanged   Cause = "props_changed"
	CauseContextChanged Cause = "context_changed"
	CauseParentRendered Cause = "parent_rendered"
	// CauseForced is reserved for host-reported forced updates; the
	// inference cascade never produces it on its own.
	CauseForced  Cause = "forced"
	CauseUnknown Cause = "unknown"
)

// Causes lists every category, in wire order.
var Causes = []Cause{
	CauseStateChanged,
	CausePropsChanged,
	CauseContextChanged,
	CauseParentRendered,
	CauseForced,
	CauseUnknown,
}

// Confidence grades how trustworthy an inferred cause is.
type Confidence string

const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceLow     Confidence = "low"
	ConfidenceUnknown Confidence = "unknown"
)

// CauseResult is the outcome of one inference: the category, how sure we
// are, which unit triggered it (when attributable), and the prop diff
// when the category is props_changed.
type CauseResult struct {
	Category    Cause
	Confidence  Confidence
	TriggerID   string
	PropChanges []PropChange
}

// inferCause classifies one render of a unit.
//
// No previous version means first render: unknown cause, high confidence
// (mounts have no "why" beyond existing). With a parent that rendered in
// the same commit, a prop identity change is attributed to that parent;
// identical props mean the unit rendered only because its parent did.
// Outside a rendering parent, a state identity change wins, and an
// unexplained prop identity change is attributed to context propagation
// (low confidence — the heuristic cannot see providers directly).
func inferCause(u *host.Unit, parentID string, ctx *CommitContext) CauseResult {
	prev := u.Alternate
	if prev == nil {
		return CauseResult{Category: CauseUnknown, Confidence: ConfidenceHigh}
	}

	if parentID != "" && ctx.Rendered(parentID) {
		if prev.Props != u.Props {
			return CauseResult{
				Category:    CausePropsChanged,
				Confidence:  ConfidenceMedium,
				TriggerID:   parentID,
				PropChanges: diffProps(prev.Props, u.Props),
			}
		}
		return CauseResult{
			Category:   CauseParentRendered,
			Confidence: ConfidenceMedium,
			TriggerID:  parentID,
		}
	}

	if prev.State != u.State {
		return CauseResult{Category: CauseStateChanged, Confidence: ConfidenceMedium}
	}
	if prev.Props != u.Props {
		return CauseResult{Category: CauseContextChanged, Confidence: ConfidenceLow}
	}
	return CauseResult{Category: CauseUnknown, Confidence: ConfidenceUnknown}
}
