// safego.go — Panic-recovering goroutine launcher.
package util

import (
	"runtime/debug"

	"go.uber.org/zap"
)

// SafeGo launches fn in a goroutine with deferred panic recovery.
// On panic: logs the recovered value and stack, then returns. Background
// panics must be survivable — the profiler is never allowed to surface a
// fault to the instrumented application.
func SafeGo(log *zap.Logger, fn func()) {
	if log == nil {
		log = zap.NewNop()
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic in background goroutine",
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()))
			}
		}()
		fn()
	}()
}
