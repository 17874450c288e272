// options_test.go
package profiler

import (
	"testing"
	"time"
)

func TestOptionsZeroValueGetsDefaults(t *testing.T) {
	t.Parallel()

	o := Options{}.WithDefaults()
	if o.SnapshotInterval != DefaultSnapshotInterval {
		t.Errorf("SnapshotInterval = %v, want %v", o.SnapshotInterval, DefaultSnapshotInterval)
	}
	if o.VelocityWindow != DefaultVelocityWindow {
		t.Errorf("VelocityWindow = %v, want %v", o.VelocityWindow, DefaultVelocityWindow)
	}
	if o.HotVelocity != DefaultHotVelocity {
		t.Errorf("HotVelocity = %v, want %v", o.HotVelocity, DefaultHotVelocity)
	}
	if o.HighRenderCount != DefaultHighRenderCount {
		t.Errorf("HighRenderCount = %d, want %d", o.HighRenderCount, DefaultHighRenderCount)
	}
	if o.MinDeltaToEmit != DefaultMinDeltaToEmit {
		t.Errorf("MinDeltaToEmit = %d, want %d", o.MinDeltaToEmit, DefaultMinDeltaToEmit)
	}
	if o.MaxTrackedPropKeys != DefaultMaxTrackedPropKeys {
		t.Errorf("MaxTrackedPropKeys = %d, want %d", o.MaxTrackedPropKeys, DefaultMaxTrackedPropKeys)
	}
	if o.MaxPropChangesPerSnapshot != DefaultMaxPropChangesPerSnapshot {
		t.Errorf("MaxPropChangesPerSnapshot = %d, want %d", o.MaxPropChangesPerSnapshot, DefaultMaxPropChangesPerSnapshot)
	}
	if o.TopPropsToReport != DefaultTopPropsToReport {
		t.Errorf("TopPropsToReport = %d, want %d", o.TopPropsToReport, DefaultTopPropsToReport)
	}
}

func TestOptionsExplicitValuesKept(t *testing.T) {
	t.Parallel()

	o := Options{
		SnapshotInterval: 250 * time.Millisecond,
		HighRenderCount:  7,
	}.WithDefaults()

	if o.SnapshotInterval != 250*time.Millisecond {
		t.Errorf("explicit interval overwritten: %v", o.SnapshotInterval)
	}
	if o.HighRenderCount != 7 {
		t.Errorf("explicit count overwritten: %d", o.HighRenderCount)
	}
	if o.HotVelocity != DefaultHotVelocity {
		t.Errorf("unset field not defaulted: %v", o.HotVelocity)
	}
}
