// allocator.go — Stable session-lifetime identities for tracked units.
// The host framework allocates a fresh node object per update, so the
// node pointer itself cannot be the key of record: the allocator follows
// the Alternate back-reference to adopt the retired node's identity onto
// its replacement. The side table is keyed by weak pointers so retired
// nodes stay collectible; a cleanup scavenges entries whose node was
// collected before an explicit Release.
package identity

import (
	"runtime"
	"strconv"
	"sync"
	"weak"

	"github.com/render-lens/render-lens/internal/host"
)

// Allocator assigns stable string identities to host units.
type Allocator struct {
	mu    sync.Mutex
	table map[weak.Pointer[host.Unit]]string
	next  uint64
}

// NewAllocator creates an empty allocator.
func NewAllocator() *Allocator {
	return &Allocator{table: make(map[weak.Pointer[host.Unit]]string)}
}

// IdentityFor resolves the identity for a unit, minting one if the unit
// and its previous version are both unknown. Always succeeds.
func (a *Allocator) IdentityFor(u *host.Unit) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := weak.Make(u)
	if id, ok := a.table[key]; ok {
		return id
	}
	if u.Alternate != nil {
		if id, ok := a.table[weak.Make(u.Alternate)]; ok {
			// Adopt the previous version's identity onto the new node so
			// the logical unit keeps one identity across updates.
			a.associateLocked(u, key, id)
			return id
		}
	}
	a.next++
	id := "u" + strconv.FormatUint(a.next, 10)
	a.associateLocked(u, key, id)
	return id
}

// Lookup returns the identity for a unit (or its previous version)
// without minting. Used on unmount, where an unknown node means the unit
// was never tracked.
func (a *Allocator) Lookup(u *host.Unit) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if id, ok := a.table[weak.Make(u)]; ok {
		return id, true
	}
	if u.Alternate != nil {
		if id, ok := a.table[weak.Make(u.Alternate)]; ok {
			return id, true
		}
	}
	return "", false
}

// Release drops the association for a node and its previous version.
// Called on unmount as the deterministic reclaim path; the weak-pointer
// cleanup only covers nodes the framework dropped without notice.
func (a *Allocator) Release(u *host.Unit) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.table, weak.Make(u))
	if u.Alternate != nil {
		delete(a.table, weak.Make(u.Alternate))
	}
}

// Reset clears all associations and restarts the identity counter.
func (a *Allocator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.table = make(map[weak.Pointer[host.Unit]]string)
	a.next = 0
}

// Size returns the number of live associations.
func (a *Allocator) Size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.table)
}

// associateLocked records the association and arms a cleanup that
// removes the entry once the node is collected. Caller must hold a.mu.
func (a *Allocator) associateLocked(u *host.Unit, key weak.Pointer[host.Unit], id string) {
	a.table[key] = id
	runtime.AddCleanup(u, func(k weak.Pointer[host.Unit]) {
		a.mu.Lock()
		delete(a.table, k)
		a.mu.Unlock()
	}, key)
}
