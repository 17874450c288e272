// profile.go — Per-identity running render statistics.
// One Profile per live identity. Counters are monotonic while the
// profile is live; delta fields reset on every snapshot emission.
package render

import "time"

// PropKeyStat accumulates change counts for one property key.
type PropKeyStat struct {
	Changes       int
	ReferenceOnly int
}

// Profile is the cumulative statistics record for one identity.
type Profile struct {
	RecordID       string // collision-resistant record ID ("prof_...")
	Identity       string
	Name           string
	Classification string

	MountedAt   time.Time
	UnmountedAt time.Time // zero until the unit unmounts

	TotalRenders int
	TotalCost    float64

	// Rate-estimation window: start plus count, no per-render timestamps.
	windowStart time.Time
	windowCount int

	CauseCounts map[Cause]int // cumulative; sums to TotalRenders
	CauseDelta  map[Cause]int // since last emission

	LastEmittedRenders int
	LastEmittedCost    float64
	LastEmittedAt      time.Time // zero means next emission is the mount phase

	// Parent attribution. PrimaryParent is a stability heuristic:
	// displacement requires a strictly greater occurrence count, so the
	// first parent to reach a count keeps the slot on ties.
	parentCounts  map[string]int
	PrimaryParent string

	Depth             int
	LastTransactionID string

	// Suspicious is recomputed on every accumulation, never on a timer:
	// a unit that bursts and then goes silent keeps its last flag until
	// it renders again. Known source behavior, kept as-is.
	Suspicious       bool
	SuspiciousReason string

	PropStats          map[string]*PropKeyStat
	PendingPropChanges []PropChange // buffered per emission cycle, bounded
}

// newProfile creates a Profile for an identity first seen now.
func newProfile(recordID, identity, name, classification string, now time.Time) *Profile {
	return &Profile{
		RecordID:       recordID,
		Identity:       identity,
		Name:           name,
		Classification: classification,
		MountedAt:      now,
		windowStart:    now,
		CauseCounts:    make(map[Cause]int),
		CauseDelta:     make(map[Cause]int),
		parentCounts:   make(map[string]int),
		PropStats:      make(map[string]*PropKeyStat),
	}
}

// recordCause increments the cumulative and since-last-emit histograms.
func (p *Profile) recordCause(c Cause) {
	p.CauseCounts[c]++
	p.CauseDelta[c]++
}

// recordParent updates parent attribution for one render.
func (p *Profile) recordParent(parentID string) {
	if parentID == "" {
		return
	}
	p.parentCounts[parentID]++
	if p.PrimaryParent == "" || p.parentCounts[parentID] > p.parentCounts[p.PrimaryParent] {
		p.PrimaryParent = parentID
	}
}

// recordPropChanges folds a diff into the per-key statistics and the
// bounded pending buffer. Both caps drop new entries but keep updating
// already-tracked keys.
func (p *Profile) recordPropChanges(changes []PropChange, maxTrackedKeys, maxPending int) {
	for _, ch := range changes {
		stat, ok := p.PropStats[ch.Key]
		if !ok {
			if len(p.PropStats) >= maxTrackedKeys {
				continue
			}
			stat = &PropKeyStat{}
			p.PropStats[ch.Key] = stat
		}
		stat.Changes++
		if ch.ReferenceOnly {
			stat.ReferenceOnly++
		}
		if len(p.PendingPropChanges) < maxPending {
			p.PendingPropChanges = append(p.PendingPropChanges, ch)
		}
	}
}

// touchWindow advances the rate-estimation window for one render at now.
// A window older than its duration restarts; otherwise the count grows.
func (p *Profile) touchWindow(now time.Time, window time.Duration) {
	if now.Sub(p.windowStart) > window {
		p.windowStart = now
		p.windowCount = 1
		return
	}
	p.windowCount++
}

// resetDeltas clears the since-last-emit state after an emission that
// included this profile.
func (p *Profile) resetDeltas(now time.Time) {
	p.CauseDelta = make(map[Cause]int)
	p.PendingPropChanges = nil
	p.LastEmittedRenders = p.TotalRenders
	p.LastEmittedCost = p.TotalCost
	p.LastEmittedAt = now
}
