// context.go — Ephemeral per-commit bookkeeping.
package render

// CommitContext tracks which identities rendered in the current commit
// (for parent-same-commit causal checks) and how many trackable units
// rendered (for cost normalization). Fully reset at commit start so a
// failed commit cannot leak state into the next one.
type CommitContext struct {
	rendered  map[string]bool
	unitCount int
}

// reset clears the context for a new commit.
func (c *CommitContext) reset() {
	c.rendered = make(map[string]bool)
	c.unitCount = 0
}

// Rendered reports whether the identity rendered in this commit.
func (c *CommitContext) Rendered(id string) bool {
	return c.rendered[id]
}

// markRendered registers an identity in the commit's rendered set.
// Pre-order traversal registers a parent before its children are
// visited, which is what the causal check depends on.
func (c *CommitContext) markRendered(id string) {
	c.rendered[id] = true
}

// UnitCount returns the number of trackable units that rendered.
func (c *CommitContext) UnitCount() int {
	return c.unitCount
}
