// profiler.go — RenderProfiler lifecycle and hook wiring.
// The setup/active/torn-down lifecycle is an explicit three-state
// machine with guarded transitions: double setup and teardown without
// setup are logged no-ops, never errors that reach the host.
package profiler

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/render-lens/render-lens/internal/emit"
	"github.com/render-lens/render-lens/internal/host"
	"github.com/render-lens/render-lens/internal/idgen"
	"github.com/render-lens/render-lens/internal/render"
)

// State is the profiler lifecycle state.
type State int

const (
	StateUninstalled State = iota
	StateActive
	StateTornDown
)

// String returns the lifecycle state name.
func (s State) String() string {
	switch s {
	case StateUninstalled:
		return "uninstalled"
	case StateActive:
		return "active"
	case StateTornDown:
		return "torn_down"
	default:
		return "unknown"
	}
}

// ErrNoHook is returned by Setup when no hook handle is available — an
// unsupported host environment. The caller decides whether to retry or
// run degraded without profiling.
var ErrNoHook = errors.New("profiler: no commit-notification hook available")

// RenderProfiler observes host framework commits and streams snapshot
// batches to the transport boundary.
type RenderProfiler struct {
	mu    sync.Mutex
	state State
	opts  Options
	log   *zap.Logger

	sessionID string
	tracker   *render.Tracker
	emitter   *emit.Emitter

	hook        *host.Hook
	prevCommit  host.CommitFunc
	prevUnmount host.UnmountFunc
}

// New creates a RenderProfiler dispatching batches to the given sink.
// A nil logger disables internal logging.
func New(dispatch emit.Dispatch, opts Options, log *zap.Logger) *RenderProfiler {
	if log == nil {
		log = zap.NewNop()
	}
	opts = opts.WithDefaults()

	tracker := render.NewTracker(render.Config{
		VelocityWindow:        opts.VelocityWindow,
		HotVelocity:           opts.HotVelocity,
		HighRenderCount:       opts.HighRenderCount,
		MaxTrackedPropKeys:    opts.MaxTrackedPropKeys,
		MaxPendingPropChanges: opts.MaxPropChangesPerSnapshot,
	}, log)

	sessionID := idgen.Prefixed("sess_", idgen.Default)()

	return &RenderProfiler{
		opts:      opts,
		log:       log,
		sessionID: sessionID,
		tracker:   tracker,
		emitter: emit.NewEmitter(tracker, dispatch, sessionID,
			opts.SnapshotInterval, opts.MinDeltaToEmit, opts.TopPropsToReport, log),
	}
}

// SessionID returns the session identifier stamped on every batch.
func (rp *RenderProfiler) SessionID() string {
	return rp.sessionID
}

// State returns the current lifecycle state.
func (rp *RenderProfiler) State() State {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	return rp.state
}

// SetTransactionProvider installs the best-effort transaction-id
// provider. Absence never affects correctness.
func (rp *RenderProfiler) SetTransactionProvider(fn func() string) {
	rp.tracker.SetTransactionProvider(fn)
}

// Setup wraps the hook's callbacks and starts the emission timer.
// Idempotent while active: a second call logs and returns nil without
// altering state. A nil hook fails fast with ErrNoHook.
func (rp *RenderProfiler) Setup(hook *host.Hook) error {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if rp.state == StateActive {
		rp.log.Warn("setup called while already active, ignoring")
		return nil
	}
	if hook == nil {
		return ErrNoHook
	}

	// Wrap, never replace: call the original callback first, then run
	// profiler logic. Originals are recorded for restoration.
	rp.hook = hook
	rp.prevCommit = hook.OnCommitRoot
	rp.prevUnmount = hook.OnUnmount

	hook.OnCommitRoot = func(rendererID int, root *host.Unit) {
		if prev := rp.prevCommit; prev != nil {
			prev(rendererID, root)
		}
		rp.tracker.ProcessCommit(root)
	}
	hook.OnUnmount = func(rendererID int, node *host.Unit) {
		if prev := rp.prevUnmount; prev != nil {
			prev(rendererID, node)
		}
		rp.tracker.ProcessUnmount(node)
	}

	rp.emitter.Start()
	rp.state = StateActive
	rp.log.Info("render profiler active",
		zap.String("session_id", rp.sessionID),
		zap.Duration("snapshot_interval", rp.opts.SnapshotInterval))
	return nil
}

// Teardown flushes one final batch, stops the timer, restores the
// hook's original callbacks, and clears all accumulated state including
// identity assignments. Idempotent: a second call logs and returns.
func (rp *RenderProfiler) Teardown() {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if rp.state != StateActive {
		rp.log.Warn("teardown called while not active, ignoring",
			zap.Stringer("state", rp.state))
		return
	}

	rp.emitter.Emit(time.Now())
	rp.emitter.Stop()

	rp.hook.OnCommitRoot = rp.prevCommit
	rp.hook.OnUnmount = rp.prevUnmount
	rp.hook = nil
	rp.prevCommit = nil
	rp.prevUnmount = nil

	rp.tracker.Reset()
	rp.state = StateTornDown
	rp.log.Info("render profiler torn down")
}

// ForceEmit performs one emission cycle immediately, bypassing the
// timer. Returns the number of records dispatched.
func (rp *RenderProfiler) ForceEmit() int {
	return rp.emitter.Emit(time.Now())
}

// Tracker exposes the accumulator for status queries and tests.
func (rp *RenderProfiler) Tracker() *render.Tracker {
	return rp.tracker
}
