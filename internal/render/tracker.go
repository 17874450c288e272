// tracker.go — Tree walking and cost/cause accumulation.
// Tracker owns the Profile map, the pending-removal list, and the
// per-commit context. All fields are protected by mu. Commit callbacks
// and the emission timer are the only callers; neither blocks inside the
// lock on anything but pure computation.
package render

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/render-lens/render-lens/internal/host"
	"github.com/render-lens/render-lens/internal/identity"
	"github.com/render-lens/render-lens/internal/idgen"
)

// Config carries the accumulation-side tuning knobs. Values are assumed
// normalized by the caller (profiler.Options.WithDefaults).
type Config struct {
	VelocityWindow        time.Duration
	HotVelocity           float64 // renders/sec above which a unit is flagged
	HighRenderCount       int     // cumulative renders above which a unit is flagged
	MaxTrackedPropKeys    int
	MaxPendingPropChanges int
}

// Tracker accumulates render statistics across commits.
type Tracker struct {
	mu  sync.Mutex
	cfg Config
	log *zap.Logger

	ids      *identity.Allocator
	recordID idgen.Generator
	txnID    func() string // best-effort transaction annotation, may be nil

	profiles map[string]*Profile
	pending  []*Profile // unmounted, awaiting one emission cycle
	ctx      CommitContext

	// Monotonic counters, never reset by Clear. Survive for status
	// reporting the way buffer "total added" counters do.
	commitsProcessed int64
	unitsAccumulated int64
}

// NewTracker creates a Tracker. A nil logger disables internal logging.
func NewTracker(cfg Config, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		cfg:      cfg,
		log:      log,
		ids:      identity.NewAllocator(),
		recordID: idgen.Prefixed("prof_", idgen.Default),
		profiles: make(map[string]*Profile),
	}
}

// SetTransactionProvider installs the zero-argument function returning
// the currently active external transaction ID, or "" when none.
func (t *Tracker) SetTransactionProvider(fn func() string) {
	t.mu.Lock()
	t.txnID = fn
	t.mu.Unlock()
}

// ============================================
// Commit processing
// ============================================

// ProcessCommit walks one committed tree and accumulates statistics.
// Traversal faults are contained here: a malformed tree logs and leaves
// this commit's accumulation partial, but never propagates to the host.
func (t *Tracker) ProcessCommit(root *host.Unit) {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			t.log.Warn("commit traversal failed", zap.Any("panic", r))
		}
	}()

	t.ctx.reset()
	t.ctx.unitCount = countRenderingUnits(root)
	t.walk(root, "", 0)
	t.commitsProcessed++
}

// countRenderingUnits is pass 1: counts trackable units that performed
// work, in the same visit order pass 2 uses (node, child subtree,
// sibling subtree).
func countRenderingUnits(u *host.Unit) int {
	if u == nil {
		return 0
	}
	n := 0
	if u.Tag.Trackable() && u.PerformedWork() {
		n++
	}
	n += countRenderingUnits(u.Child)
	n += countRenderingUnits(u.Sibling)
	return n
}

// walk is pass 2: accumulates every trackable unit that performed work.
// Children descend with this unit's identity as their parent context and
// depth+1; siblings keep the caller's parent context and depth.
func (t *Tracker) walk(u *host.Unit, parentID string, depth int) {
	if u == nil {
		return
	}
	childParent := parentID
	if u.Tag.Trackable() && u.PerformedWork() {
		id := t.ids.IdentityFor(u)
		t.accumulate(u, id, parentID, depth)
		t.ctx.markRendered(id)
		childParent = id
	}
	t.walk(u.Child, childParent, depth+1)
	t.walk(u.Sibling, parentID, depth)
}

// accumulate folds one render of a unit into its Profile.
func (t *Tracker) accumulate(u *host.Unit, id, parentID string, depth int) {
	now := time.Now()

	// Cost is distributed evenly across all units that rendered in this
	// commit, bounding cumulative cost to ~1 unit per commit regardless
	// of tree size.
	cost := 1.0 / float64(max(t.ctx.unitCount, 1))

	p, ok := t.profiles[id]
	if !ok {
		p = newProfile(t.recordID(), id, safeDisplayName(u), u.Tag.String(), now)
		t.profiles[id] = p
	}

	res := inferCause(u, parentID, &t.ctx)
	p.TotalRenders++
	p.TotalCost += cost
	p.recordCause(res.Category)

	if res.Category == CausePropsChanged && len(res.PropChanges) > 0 {
		p.recordPropChanges(res.PropChanges, t.cfg.MaxTrackedPropKeys, t.cfg.MaxPendingPropChanges)
	}

	if t.txnID != nil {
		if txn := t.txnID(); txn != "" {
			p.LastTransactionID = txn
		}
	}

	p.recordParent(parentID)
	p.Depth = depth
	p.touchWindow(now, t.cfg.VelocityWindow)
	t.updateSuspicion(p, now)
	t.unitsAccumulated++
}

// safeDisplayName extracts the unit's display name, containing panics
// from hostile type descriptors.
func safeDisplayName(u *host.Unit) (name string) {
	defer func() {
		if recover() != nil {
			name = "anonymous"
		}
	}()
	return u.DisplayName()
}

// ============================================
// Unmount processing
// ============================================

// ProcessUnmount moves the unit's Profile to the pending-removal list.
// The profile stays there for exactly one emission cycle. Unknown nodes
// (never tracked) are ignored.
func (t *Tracker) ProcessUnmount(node *host.Unit) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, ok := t.ids.Lookup(node)
	if !ok {
		return
	}
	t.ids.Release(node)

	p, ok := t.profiles[id]
	if !ok {
		return
	}
	p.UnmountedAt = time.Now()
	delete(t.profiles, id)
	t.pending = append(t.pending, p)
}

// ============================================
// Snapshot draining (called by the emitter)
// ============================================

// Drain visits, under the lock, every live profile with enough delta (or
// a suspicious flag) and every pending removal. After the live callback
// returns for a profile its delta state is reset; the pending list is
// cleared after the removal callbacks. Visit order is sorted by identity
// so batches are deterministic.
func (t *Tracker) Drain(minDelta int, now time.Time, live func(p *Profile, velocity float64), removed func(p *Profile)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range sortedProfileIDs(t.profiles) {
		p := t.profiles[id]
		delta := p.TotalRenders - p.LastEmittedRenders
		if delta < minDelta && !p.Suspicious {
			continue
		}
		live(p, velocityAt(p, now, t.cfg.VelocityWindow))
		p.resetDeltas(now)
	}

	for _, p := range t.pending {
		removed(p)
	}
	t.pending = nil
}

// ============================================
// Control surface
// ============================================

// Clear synchronously discards all profiles and pending removals without
// touching hook installation or identity assignments, so accumulation
// restarts fresh while live units keep their identities.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.profiles = make(map[string]*Profile)
	t.pending = nil
	t.ctx.reset()
}

// Reset clears everything Clear does plus the identity table and
// counter. Used at teardown.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.profiles = make(map[string]*Profile)
	t.pending = nil
	t.ctx.reset()
	t.ids.Reset()
}

// Stats returns live/pending profile counts and the monotonic totals.
func (t *Tracker) Stats() (live, pending int, commits, units int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.profiles), len(t.pending), t.commitsProcessed, t.unitsAccumulated
}

// ProfileByIdentity returns the live Profile for an identity, or nil.
// Read-side helper for status queries and tests; the returned profile is
// shared, callers must not mutate it.
func (t *Tracker) ProfileByIdentity(id string) *Profile {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.profiles[id]
}
