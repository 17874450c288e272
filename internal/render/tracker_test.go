// tracker_test.go — Tests for tree walking and accumulation.
package render

import (
	"math"
	"testing"
	"time"

	"github.com/render-lens/render-lens/internal/host"
)

func testConfig() Config {
	return Config{
		VelocityWindow:        2 * time.Second,
		HotVelocity:           5,
		HighRenderCount:       50,
		MaxTrackedPropKeys:    20,
		MaxPendingPropChanges: 10,
	}
}

// renderedUnit builds a trackable unit that performed work this commit.
func renderedUnit(name string, prev *host.Unit) *host.Unit {
	u := &host.Unit{
		Tag:       host.TagFunction,
		Name:      name,
		Flags:     host.FlagPerformedWork,
		Alternate: prev,
	}
	if prev != nil {
		u.Props = prev.Props
		u.State = prev.State
	} else {
		u.Props = host.NewPropSet(nil)
		u.State = &host.StateCell{}
	}
	return u
}

func checkHistogramSum(t *testing.T, p *Profile) {
	t.Helper()
	sum := 0
	for _, n := range p.CauseCounts {
		sum += n
	}
	if sum != p.TotalRenders {
		t.Errorf("%s: cause histogram sums to %d, want TotalRenders %d", p.Identity, sum, p.TotalRenders)
	}
}

func TestCostConservation(t *testing.T) {
	t.Parallel()

	tr := NewTracker(testConfig(), nil)
	root := renderedUnit("App", nil)
	child := renderedUnit("List", nil)
	sibling := renderedUnit("Footer", nil)
	root.Child = child
	child.Sibling = sibling

	tr.ProcessCommit(root)

	total := 0.0
	for _, id := range []string{"u1", "u2", "u3"} {
		p := tr.ProfileByIdentity(id)
		if p == nil {
			t.Fatalf("no profile for %s", id)
		}
		total += p.TotalCost
		checkHistogramSum(t, p)
	}
	if math.Abs(total-1.0) > 1e-9 {
		t.Errorf("commit cost sums to %v, want 1.0", total)
	}
}

func TestUntrackableUnitsExcluded(t *testing.T) {
	t.Parallel()

	tr := NewTracker(testConfig(), nil)
	root := renderedUnit("App", nil)
	div := &host.Unit{Tag: host.TagHostElement, Flags: host.FlagPerformedWork}
	inner := renderedUnit("Inner", nil)
	root.Child = div
	div.Child = inner

	tr.ProcessCommit(root)

	live, _, _, units := tr.Stats()
	if live != 2 || units != 2 {
		t.Errorf("live=%d accumulated=%d, want 2/2 (host element excluded)", live, units)
	}
	// Both trackable units split the commit's cost.
	if p := tr.ProfileByIdentity("u1"); math.Abs(p.TotalCost-0.5) > 1e-9 {
		t.Errorf("root cost = %v, want 0.5", p.TotalCost)
	}
}

func TestDepthCountsChildDescentOnly(t *testing.T) {
	t.Parallel()

	tr := NewTracker(testConfig(), nil)
	root := renderedUnit("App", nil)
	a := renderedUnit("A", nil)
	b := renderedUnit("B", nil) // sibling of A: same depth
	grand := renderedUnit("G", nil)
	root.Child = a
	a.Sibling = b
	b.Child = grand

	tr.ProcessCommit(root)

	wantDepths := map[string]int{"u1": 0, "u2": 1, "u3": 1, "u4": 2}
	for id, want := range wantDepths {
		if p := tr.ProfileByIdentity(id); p.Depth != want {
			t.Errorf("%s depth = %d, want %d", id, p.Depth, want)
		}
	}
}

func TestStateChangeAcrossCommits(t *testing.T) {
	t.Parallel()

	tr := NewTracker(testConfig(), nil)
	v1 := renderedUnit("App", nil)
	tr.ProcessCommit(v1)

	v2 := renderedUnit("App", v1)
	v2.State = &host.StateCell{} // new identity: state changed
	tr.ProcessCommit(v2)

	p := tr.ProfileByIdentity("u1")
	if p == nil {
		t.Fatal("profile lost across versions")
	}
	if p.TotalRenders != 2 {
		t.Fatalf("TotalRenders = %d, want 2", p.TotalRenders)
	}
	if p.CauseCounts[CauseUnknown] != 1 || p.CauseCounts[CauseStateChanged] != 1 {
		t.Errorf("cause counts = %v, want one unknown + one state_changed", p.CauseCounts)
	}
	checkHistogramSum(t, p)
}

func TestChildPropChangeAttributedToParent(t *testing.T) {
	t.Parallel()

	tr := NewTracker(testConfig(), nil)
	root1 := renderedUnit("App", nil)
	child1 := renderedUnit("List", nil)
	root1.Child = child1
	tr.ProcessCommit(root1)

	root2 := renderedUnit("App", root1)
	root2.State = &host.StateCell{}
	child2 := renderedUnit("List", child1)
	child2.Props = host.NewPropSet(map[string]any{"items": 3})
	root2.Child = child2
	tr.ProcessCommit(root2)

	child := tr.ProfileByIdentity("u2")
	if child.CauseCounts[CausePropsChanged] != 1 {
		t.Fatalf("child cause counts = %v, want props_changed", child.CauseCounts)
	}
	if child.PrimaryParent != "u1" {
		t.Errorf("child primary parent = %q, want u1", child.PrimaryParent)
	}
	stat, ok := child.PropStats["items"]
	if !ok || stat.Changes != 1 || stat.ReferenceOnly != 0 {
		t.Errorf("prop stats for items = %+v, want one genuine change", stat)
	}
	if len(child.PendingPropChanges) != 1 {
		t.Errorf("pending changes = %v, want 1 entry", child.PendingPropChanges)
	}
}

func TestMonotonicCounters(t *testing.T) {
	t.Parallel()

	tr := NewTracker(testConfig(), nil)
	prev := renderedUnit("App", nil)
	tr.ProcessCommit(prev)

	lastRenders, lastCost := 0, 0.0
	for i := 0; i < 5; i++ {
		p := tr.ProfileByIdentity("u1")
		if p.TotalRenders < lastRenders || p.TotalCost < lastCost {
			t.Fatalf("counters decreased: renders %d<%d or cost %v<%v",
				p.TotalRenders, lastRenders, p.TotalCost, lastCost)
		}
		lastRenders, lastCost = p.TotalRenders, p.TotalCost

		next := renderedUnit("App", prev)
		next.State = &host.StateCell{}
		tr.ProcessCommit(next)
		prev = next
	}
}

func TestPrimaryParentFirstWriterWinsOnTies(t *testing.T) {
	t.Parallel()

	p := newProfile("prof_x", "u9", "List", "function", time.Now())
	p.recordParent("a")
	if p.PrimaryParent != "a" {
		t.Fatalf("primary = %q, want a", p.PrimaryParent)
	}
	// Equal count does not displace the incumbent.
	p.recordParent("b")
	if p.PrimaryParent != "a" {
		t.Errorf("tie displaced primary: %q, want a", p.PrimaryParent)
	}
	// Strictly greater count does.
	p.recordParent("b")
	if p.PrimaryParent != "b" {
		t.Errorf("primary = %q, want b after b outnumbers a", p.PrimaryParent)
	}
}

func TestPropStatCapsKeepUpdatingTrackedKeys(t *testing.T) {
	t.Parallel()

	p := newProfile("prof_x", "u9", "Grid", "function", time.Now())
	p.recordPropChanges([]PropChange{{Key: "a"}, {Key: "b"}}, 2, 1)
	// "c" is beyond the tracked-key cap and must be dropped; "a" is
	// already tracked and keeps updating.
	p.recordPropChanges([]PropChange{{Key: "c"}, {Key: "a", ReferenceOnly: true}}, 2, 1)

	if _, ok := p.PropStats["c"]; ok {
		t.Error("key beyond cap was tracked")
	}
	if st := p.PropStats["a"]; st.Changes != 2 || st.ReferenceOnly != 1 {
		t.Errorf("tracked key stopped updating: %+v", st)
	}
	if len(p.PendingPropChanges) != 1 {
		t.Errorf("pending buffer exceeded cap: %v", p.PendingPropChanges)
	}
}

func TestTransactionIDRecorded(t *testing.T) {
	t.Parallel()

	tr := NewTracker(testConfig(), nil)
	txn := "txn-1"
	tr.SetTransactionProvider(func() string { return txn })

	v1 := renderedUnit("App", nil)
	tr.ProcessCommit(v1)
	if p := tr.ProfileByIdentity("u1"); p.LastTransactionID != "txn-1" {
		t.Fatalf("transaction id = %q, want txn-1", p.LastTransactionID)
	}

	// Empty provider result leaves the last value in place.
	txn = ""
	v2 := renderedUnit("App", v1)
	v2.State = &host.StateCell{}
	tr.ProcessCommit(v2)
	if p := tr.ProfileByIdentity("u1"); p.LastTransactionID != "txn-1" {
		t.Errorf("transaction id = %q, want last-write txn-1 preserved", p.LastTransactionID)
	}
}

type panickingDescriptor struct{}

func (panickingDescriptor) DisplayName() string { panic("malformed descriptor") }

func TestTraversalFaultContained(t *testing.T) {
	t.Parallel()

	tr := NewTracker(testConfig(), nil)
	bad := &host.Unit{
		Tag:   host.TagFunction,
		Type:  panickingDescriptor{},
		Flags: host.FlagPerformedWork,
		Props: host.NewPropSet(nil),
		State: &host.StateCell{},
	}
	tr.ProcessCommit(bad) // must not panic

	p := tr.ProfileByIdentity("u1")
	if p == nil {
		t.Fatal("profile missing after guarded name extraction")
	}
	if p.Name != "anonymous" {
		t.Errorf("name = %q, want anonymous fallback", p.Name)
	}

	// The tracker stays usable for subsequent commits.
	tr.ProcessCommit(renderedUnit("Good", nil))
	if tr.ProfileByIdentity("u2") == nil {
		t.Error("tracker unusable after contained fault")
	}
}

func TestUnmountMovesToPending(t *testing.T) {
	t.Parallel()

	tr := NewTracker(testConfig(), nil)
	v1 := renderedUnit("App", nil)
	tr.ProcessCommit(v1)

	tr.ProcessUnmount(v1)
	live, pending, _, _ := tr.Stats()
	if live != 0 || pending != 1 {
		t.Errorf("live=%d pending=%d after unmount, want 0/1", live, pending)
	}

	// Unknown nodes are ignored.
	tr.ProcessUnmount(&host.Unit{Name: "never-tracked"})
	if _, pending, _, _ := tr.Stats(); pending != 1 {
		t.Error("unmount of untracked node altered pending list")
	}
}

func TestClearKeepsIdentityAssignments(t *testing.T) {
	t.Parallel()

	tr := NewTracker(testConfig(), nil)
	v1 := renderedUnit("App", nil)
	tr.ProcessCommit(v1)
	tr.Clear()

	if live, pending, _, _ := tr.Stats(); live != 0 || pending != 0 {
		t.Fatalf("Clear left live=%d pending=%d", live, pending)
	}

	// The same logical unit keeps its identity after Clear.
	v2 := renderedUnit("App", v1)
	tr.ProcessCommit(v2)
	if tr.ProfileByIdentity("u1") == nil {
		t.Error("identity not preserved across Clear")
	}
}
