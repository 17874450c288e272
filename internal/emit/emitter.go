// emitter.go — Periodic snapshot emission.
// Two states: idle between ticks, emitting while building and
// dispatching one batch. A fixed-interval timer (or an explicit force
// call) drives ticks; ticks and force calls serialize on the mutex so a
// batch is never built twice from the same deltas. Empty ticks dispatch
// nothing.
package emit

import (
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/render-lens/render-lens/internal/render"
	"github.com/render-lens/render-lens/internal/util"
)

// Dispatch is the transport boundary: a one-way sink supplied by the
// owning client. The emitter never waits for acknowledgment.
type Dispatch func(*SnapshotMessage)

// Emitter drains profile deltas into snapshot batches on a cadence.
type Emitter struct {
	mu       sync.Mutex
	tracker  *render.Tracker
	dispatch Dispatch
	log      *zap.Logger

	sessionID string
	interval  time.Duration
	minDelta  int
	topProps  int

	stop    chan struct{}
	running bool

	ticks   int64 // monotonic: timer ticks plus force emits
	batches int64 // monotonic: non-empty batches dispatched
}

// NewEmitter creates an Emitter. A nil logger disables internal logging.
func NewEmitter(tracker *render.Tracker, dispatch Dispatch, sessionID string, interval time.Duration, minDelta, topProps int, log *zap.Logger) *Emitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Emitter{
		tracker:   tracker,
		dispatch:  dispatch,
		log:       log,
		sessionID: sessionID,
		interval:  interval,
		minDelta:  minDelta,
		topProps:  topProps,
	}
}

// Start launches the emission timer. Idempotent while running.
func (e *Emitter) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stop = make(chan struct{})
	stop := e.stop
	e.mu.Unlock()

	util.SafeGo(e.log, func() {
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.Emit(time.Now())
			}
		}
	})
}

// Stop halts the emission timer. Idempotent; does not flush — callers
// that need a final batch use Emit first (teardown does).
func (e *Emitter) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	close(e.stop)
}

// Emit performs one emission cycle synchronously and returns the number
// of snapshot records dispatched. Used by the timer and by force-emit.
func (e *Emitter) Emit(now time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ticks++

	var profiles []ProfileSnapshot
	e.tracker.Drain(e.minDelta, now,
		func(p *render.Profile, velocity float64) {
			profiles = append(profiles, e.buildLiveSnapshot(p, velocity))
		},
		func(p *render.Profile) {
			profiles = append(profiles, buildUnmountSnapshot(p))
		})

	if len(profiles) == 0 {
		return 0
	}

	e.batches++
	e.dispatch(&SnapshotMessage{
		Kind:      MessageKindRenderSnapshot,
		SessionID: e.sessionID,
		Timestamp: now.UnixMilli(),
		Profiles:  profiles,
	})
	e.log.Debug("snapshot batch dispatched", zap.Int("profiles", len(profiles)))
	return len(profiles)
}

// Counts returns the monotonic tick and batch totals.
func (e *Emitter) Counts() (ticks, batches int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ticks, e.batches
}

// ============================================
// Snapshot record construction
// ============================================

// buildLiveSnapshot flattens a live profile. Called under the tracker
// lock, before the profile's delta state is reset.
func (e *Emitter) buildLiveSnapshot(p *render.Profile, velocity float64) ProfileSnapshot {
	phase := PhaseUpdate
	if p.LastEmittedAt.IsZero() {
		phase = PhaseMount
	}
	return ProfileSnapshot{
		ID:                p.RecordID,
		Identity:          p.Identity,
		Name:              p.Name,
		Classification:    p.Classification,
		Phase:             phase,
		Depth:             p.Depth,
		TotalRenders:      p.TotalRenders,
		RendersDelta:      p.TotalRenders - p.LastEmittedRenders,
		TotalCost:         p.TotalCost,
		CostDelta:         p.TotalCost - p.LastEmittedCost,
		Velocity:          velocity,
		Suspicious:        p.Suspicious,
		SuspiciousReason:  p.SuspiciousReason,
		CauseBreakdown:    causeMap(p.CauseCounts),
		CauseDelta:        causeMap(p.CauseDelta),
		PrimaryParent:     p.PrimaryParent,
		LastTransactionID: p.LastTransactionID,
		TopProps:          topChangedProps(p.PropStats, e.topProps),
		RecentPropChanges: append([]render.PropChange(nil), p.PendingPropChanges...),
		MountedAt:         p.MountedAt.UnixMilli(),
	}
}

// buildUnmountSnapshot flattens a pending-removal profile: zero deltas,
// zero velocity, unmount phase.
func buildUnmountSnapshot(p *render.Profile) ProfileSnapshot {
	return ProfileSnapshot{
		ID:             p.RecordID,
		Identity:       p.Identity,
		Name:           p.Name,
		Classification: p.Classification,
		Phase:          PhaseUnmount,
		Depth:          p.Depth,
		TotalRenders:   p.TotalRenders,
		TotalCost:      p.TotalCost,
		CauseBreakdown: causeMap(p.CauseCounts),
		PrimaryParent:  p.PrimaryParent,
		MountedAt:      p.MountedAt.UnixMilli(),
		UnmountedAt:    p.UnmountedAt.UnixMilli(),
	}
}

// causeMap converts a cause histogram to its wire form, dropping zero
// buckets.
func causeMap(counts map[render.Cause]int) map[string]int {
	if len(counts) == 0 {
		return nil
	}
	out := make(map[string]int, len(counts))
	for c, n := range counts {
		if n > 0 {
			out[string(c)] = n
		}
	}
	return out
}

// topChangedProps returns the top-N keys by change frequency, ties
// broken by key for stable output, with per-key reference-only
// percentages.
func topChangedProps(stats map[string]*render.PropKeyStat, n int) []PropFrequency {
	if len(stats) == 0 || n <= 0 {
		return nil
	}
	freqs := make([]PropFrequency, 0, len(stats))
	for key, st := range stats {
		pct := 0
		if st.Changes > 0 {
			pct = int(math.Round(float64(st.ReferenceOnly) / float64(st.Changes) * 100))
		}
		freqs = append(freqs, PropFrequency{Key: key, Changes: st.Changes, ReferenceOnlyPct: pct})
	}
	sort.Slice(freqs, func(i, j int) bool {
		if freqs[i].Changes != freqs[j].Changes {
			return freqs[i].Changes > freqs[j].Changes
		}
		return freqs[i].Key < freqs[j].Key
	})
	if len(freqs) > n {
		freqs = freqs[:n]
	}
	return freqs
}
