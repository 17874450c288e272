// options.go — Profiler configuration with defaults.
package profiler

import "time"

// Defaults for every tuning knob. Zero or negative values in Options
// mean "use the default".
const (
	DefaultSnapshotInterval          = 1000 * time.Millisecond
	DefaultVelocityWindow            = 2000 * time.Millisecond
	DefaultHotVelocity               = 5.0 // renders/sec
	DefaultHighRenderCount           = 50
	DefaultMinDeltaToEmit            = 1
	DefaultMaxTrackedPropKeys        = 20
	DefaultMaxPropChangesPerSnapshot = 10
	DefaultTopPropsToReport          = 5
)

// Options configures a RenderProfiler. The zero value means all
// defaults.
type Options struct {
	SnapshotInterval          time.Duration
	VelocityWindow            time.Duration
	HotVelocity               float64
	HighRenderCount           int
	MinDeltaToEmit            int
	MaxTrackedPropKeys        int
	MaxPropChangesPerSnapshot int
	TopPropsToReport          int
}

// WithDefaults returns a copy with unspecified options replaced by their
// defaults.
func (o Options) WithDefaults() Options {
	o.SnapshotInterval = orDefaultDuration(o.SnapshotInterval, DefaultSnapshotInterval)
	o.VelocityWindow = orDefaultDuration(o.VelocityWindow, DefaultVelocityWindow)
	o.HotVelocity = orDefaultFloat(o.HotVelocity, DefaultHotVelocity)
	o.HighRenderCount = orDefaultInt(o.HighRenderCount, DefaultHighRenderCount)
	o.MinDeltaToEmit = orDefaultInt(o.MinDeltaToEmit, DefaultMinDeltaToEmit)
	o.MaxTrackedPropKeys = orDefaultInt(o.MaxTrackedPropKeys, DefaultMaxTrackedPropKeys)
	o.MaxPropChangesPerSnapshot = orDefaultInt(o.MaxPropChangesPerSnapshot, DefaultMaxPropChangesPerSnapshot)
	o.TopPropsToReport = orDefaultInt(o.TopPropsToReport, DefaultTopPropsToReport)
	return o
}

func orDefaultDuration(val, def time.Duration) time.Duration {
	if val > 0 {
		return val
	}
	return def
}

func orDefaultInt(val, def int) int {
	if val > 0 {
		return val
	}
	return def
}

func orDefaultFloat(val, def float64) float64 {
	if val > 0 {
		return val
	}
	return def
}
