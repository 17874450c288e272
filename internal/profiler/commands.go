// commands.go — Control command surface.
// Commands arrive from the collector over the owning client's command
// channel. Unknown commands are logged and ignored, never an error.
package profiler

import (
	"strings"

	"go.uber.org/zap"
)

// Recognized control commands.
const (
	CommandClearRenders  = "clear_renders"
	CommandForceSnapshot = "force_snapshot"
	CommandStatus        = "status"
)

// HandleCommand executes one control command synchronously and returns a
// result map for acknowledgement. Case-insensitive; "CLEAR_RENDERS" and
// "clear_renders" are the same command.
func (rp *RenderProfiler) HandleCommand(command string) map[string]any {
	switch strings.ToLower(command) {
	case CommandClearRenders:
		// Discard all profiles and pending removals without touching
		// hook installation — a fresh accumulation window starts without
		// reconnecting.
		rp.tracker.Clear()
		return map[string]any{"status": "cleared"}

	case CommandForceSnapshot:
		n := rp.ForceEmit()
		return map[string]any{"status": "emitted", "profiles": n}

	case CommandStatus:
		live, pending, commits, units := rp.tracker.Stats()
		ticks, batches := rp.emitterCounts()
		return map[string]any{
			"state":           rp.State().String(),
			"session_id":      rp.sessionID,
			"live_profiles":   live,
			"pending_removal": pending,
			"commits":         commits,
			"units":           units,
			"ticks":           ticks,
			"batches":         batches,
		}

	default:
		rp.log.Debug("unknown control command ignored", zap.String("command", command))
		return map[string]any{"status": "ignored", "command": command}
	}
}

func (rp *RenderProfiler) emitterCounts() (int64, int64) {
	return rp.emitter.Counts()
}
