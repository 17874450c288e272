// causes_test.go — Tests for the cause inference cascade.
package render

import (
	"testing"

	"github.com/render-lens/render-lens/internal/host"
)

func commitCtx(renderedIDs ...string) *CommitContext {
	ctx := &CommitContext{}
	ctx.reset()
	for _, id := range renderedIDs {
		ctx.markRendered(id)
	}
	return ctx
}

func TestInferCauseFirstRender(t *testing.T) {
	t.Parallel()

	u := &host.Unit{Tag: host.TagFunction}
	res := inferCause(u, "parent", commitCtx("parent"))
	if res.Category != CauseUnknown || res.Confidence != ConfidenceHigh {
		t.Errorf("mount inferred %s/%s, want unknown/high", res.Category, res.Confidence)
	}
}

func TestInferCausePropsChangedUnderRenderingParent(t *testing.T) {
	t.Parallel()

	prev := &host.Unit{Props: host.NewPropSet(map[string]any{"n": 1})}
	curr := &host.Unit{
		Alternate: prev,
		Props:     host.NewPropSet(map[string]any{"n": 2}),
		State:     prev.State,
	}

	res := inferCause(curr, "p1", commitCtx("p1"))
	if res.Category != CausePropsChanged {
		t.Fatalf("category = %s, want props_changed", res.Category)
	}
	if res.Confidence != ConfidenceMedium {
		t.Errorf("confidence = %s, want medium", res.Confidence)
	}
	if res.TriggerID != "p1" {
		t.Errorf("trigger = %q, want p1", res.TriggerID)
	}
	if ch, ok := changeByKey(res.PropChanges, "n"); !ok || ch.ReferenceOnly {
		t.Errorf("expected genuine change on n, got %v", res.PropChanges)
	}
}

func TestInferCauseParentRenderedSameProps(t *testing.T) {
	t.Parallel()

	props := host.NewPropSet(map[string]any{"n": 1})
	prev := &host.Unit{Props: props}
	curr := &host.Unit{Alternate: prev, Props: props, State: prev.State}

	res := inferCause(curr, "p1", commitCtx("p1"))
	if res.Category != CauseParentRendered || res.TriggerID != "p1" {
		t.Errorf("got %s/%q, want parent_rendered/p1", res.Category, res.TriggerID)
	}
}

func TestInferCauseStateChanged(t *testing.T) {
	t.Parallel()

	props := host.NewPropSet(nil)
	prev := &host.Unit{Props: props, State: &host.StateCell{}}
	curr := &host.Unit{Alternate: prev, Props: props, State: &host.StateCell{}}

	// No parent in the rendered set: the state check wins.
	res := inferCause(curr, "p1", commitCtx())
	if res.Category != CauseStateChanged || res.Confidence != ConfidenceMedium {
		t.Errorf("got %s/%s, want state_changed/medium", res.Category, res.Confidence)
	}
}

func TestInferCauseParentOutranksState(t *testing.T) {
	t.Parallel()

	props := host.NewPropSet(nil)
	prev := &host.Unit{Props: props, State: &host.StateCell{}}
	curr := &host.Unit{Alternate: prev, Props: props, State: &host.StateCell{}}

	// Both a rendering parent and a state identity change are present;
	// the cascade attributes to the parent.
	res := inferCause(curr, "p1", commitCtx("p1"))
	if res.Category != CauseParentRendered {
		t.Errorf("got %s, want parent_rendered (cascade priority)", res.Category)
	}
}

func TestInferCauseContextChanged(t *testing.T) {
	t.Parallel()

	state := &host.StateCell{}
	prev := &host.Unit{Props: host.NewPropSet(map[string]any{"v": 1}), State: state}
	curr := &host.Unit{Alternate: prev, Props: host.NewPropSet(map[string]any{"v": 1}), State: state}

	// Prop identity changed outside a rendering parent: attributed to
	// context propagation at low confidence.
	res := inferCause(curr, "", commitCtx())
	if res.Category != CauseContextChanged || res.Confidence != ConfidenceLow {
		t.Errorf("got %s/%s, want context_changed/low", res.Category, res.Confidence)
	}
}

func TestInferCauseNothingChanged(t *testing.T) {
	t.Parallel()

	props := host.NewPropSet(nil)
	state := &host.StateCell{}
	prev := &host.Unit{Props: props, State: state}
	curr := &host.Unit{Alternate: prev, Props: props, State: state}

	res := inferCause(curr, "", commitCtx())
	if res.Category != CauseUnknown || res.Confidence != ConfidenceUnknown {
		t.Errorf("got %s/%s, want unknown/unknown", res.Category, res.Confidence)
	}
}
