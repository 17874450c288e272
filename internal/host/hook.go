// hook.go — Commit-notification hook handle.
// The host framework expects exactly one coordination point per process:
// an object it injects its renderer into and calls back on every commit
// and unmount. Rather than a mutable global slot, the hook is an explicit
// handle the owning client constructs (or locates) once and passes into
// the profiler at setup. Wrappers must call the previous callback first
// and record it for restoration — never replace destructively.
package host

import "sync"

// CommitFunc is called by the host framework after committing a tree.
type CommitFunc func(rendererID int, root *Unit)

// UnmountFunc is called by the host framework when a unit leaves the tree.
type UnmountFunc func(rendererID int, node *Unit)

// Hook is the process-wide commit-notification surface. The zero surface
// (registration plus the two callbacks) is the minimum the framework
// needs to treat this as a valid hook.
type Hook struct {
	mu           sync.Mutex
	nextRenderer int
	renderers    map[int]any

	// Callback slots. Read and written by installers; invoked by the
	// host framework. Nil slots are simply not called.
	OnCommitRoot CommitFunc
	OnUnmount    UnmountFunc
}

// NewHook creates a minimal hook stub for environments with no existing
// hook installed.
func NewHook() *Hook {
	return &Hook{renderers: make(map[int]any)}
}

// Inject registers a renderer with the hook and returns its ID. The
// framework calls this once per renderer at startup.
func (h *Hook) Inject(renderer any) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextRenderer++
	h.renderers[h.nextRenderer] = renderer
	return h.nextRenderer
}

// RendererCount returns how many renderers have registered.
func (h *Hook) RendererCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.renderers)
}

// Commit invokes the commit callback if one is installed. Used by the
// framework (and by test/replay drivers standing in for it).
func (h *Hook) Commit(rendererID int, root *Unit) {
	if fn := h.OnCommitRoot; fn != nil {
		fn(rendererID, root)
	}
}

// Unmount invokes the unmount callback if one is installed.
func (h *Hook) Unmount(rendererID int, node *Unit) {
	if fn := h.OnUnmount; fn != nil {
		fn(rendererID, node)
	}
}
