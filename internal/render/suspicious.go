// suspicious.go — Velocity estimation and suspicious-pattern flagging.
// The flag is recomputed on every accumulation, so it can toggle off if
// behavior normalizes — but only when the unit renders again. Emission
// never re-evaluates it.
package render

import (
	"fmt"
	"sort"
	"time"
)

// minVelocityAge floors the window age so a burst of renders in the
// first instants of a window does not divide by near-zero.
const minVelocityAge = 100 * time.Millisecond

// velocityAt estimates renders/sec from the profile's window as of now.
// A window older than its duration is stale and reads as zero, as does a
// window with fewer than two samples — one render is an event, not a
// rate, and without this guard every window reset would read as a burst
// through the minimum-age clamp.
func velocityAt(p *Profile, now time.Time, window time.Duration) float64 {
	age := now.Sub(p.windowStart)
	if age > window || p.windowCount < 2 {
		return 0
	}
	if age < minVelocityAge {
		age = minVelocityAge
	}
	return float64(p.windowCount) / float64(age.Milliseconds()) * 1000
}

// updateSuspicion recomputes the profile's suspicious flag: a hot render
// velocity outranks a high cumulative count; neither clears the flag.
func (t *Tracker) updateSuspicion(p *Profile, now time.Time) {
	v := velocityAt(p, now, t.cfg.VelocityWindow)
	switch {
	case v > t.cfg.HotVelocity:
		p.Suspicious = true
		p.SuspiciousReason = fmt.Sprintf("rendering at %.1f/sec", v)
	case p.TotalRenders > t.cfg.HighRenderCount:
		p.Suspicious = true
		p.SuspiciousReason = fmt.Sprintf("%d renders this session", p.TotalRenders)
	default:
		p.Suspicious = false
		p.SuspiciousReason = ""
	}
}

// sortedProfileIDs returns the identities of a profile map in sorted
// order for deterministic batch composition.
func sortedProfileIDs(profiles map[string]*Profile) []string {
	ids := make([]string, 0, len(profiles))
	for id := range profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
