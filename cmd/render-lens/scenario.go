// scenario.go — YAML replay scenarios for the harness.
// A scenario describes a sequence of commits over a named logical tree.
// The builder reconstructs the host framework's replacement-on-update
// pattern: each commit allocates fresh nodes linked to the previous
// commit's nodes via Alternate, reusing prop-set and state pointers
// unless the scenario says they changed.
package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/render-lens/render-lens/internal/host"
)

// unitSpec describes one unit in one commit.
type unitSpec struct {
	Name     string `yaml:"name"`
	Tag      string `yaml:"tag"` // defaults to "function"
	Rendered bool   `yaml:"rendered"`

	// NewProps overlays values onto the previous props under a new
	// prop-set identity (a genuine change). RecreateProps allocates a
	// new identity carrying the same value references (a reference-only
	// change). NewState allocates a new state cell.
	NewProps      map[string]any `yaml:"new_props"`
	RecreateProps bool           `yaml:"recreate_props"`
	NewState      bool           `yaml:"new_state"`

	Children []unitSpec `yaml:"children"`
}

// commitSpec is one host-framework commit plus any unmounts after it.
type commitSpec struct {
	Root    *unitSpec `yaml:"root"`
	Unmount []string  `yaml:"unmount"`
	WaitMs  int       `yaml:"wait_ms"` // pause after the commit, for timer-driven emission
}

// scenarioOptions mirrors profiler.Options with millisecond fields.
type scenarioOptions struct {
	SnapshotIntervalMs int     `yaml:"snapshot_interval_ms"`
	VelocityWindowMs   int     `yaml:"velocity_window_ms"`
	HotVelocity        float64 `yaml:"hot_velocity"`
	HighRenderCount    int     `yaml:"high_render_count"`
	MinDeltaToEmit     int     `yaml:"min_delta_to_emit"`
}

// scenario is a full replay script.
type scenario struct {
	Session string          `yaml:"session"`
	Options scenarioOptions `yaml:"options"`
	Commits []commitSpec    `yaml:"commits"`
}

// loadScenario reads and validates a scenario file.
func loadScenario(path string) (*scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if len(sc.Commits) == 0 {
		return nil, fmt.Errorf("scenario %s has no commits", path)
	}
	for i, c := range sc.Commits {
		if c.Root == nil && len(c.Unmount) == 0 {
			return nil, fmt.Errorf("scenario %s: commit %d has neither root nor unmounts", path, i)
		}
	}
	return &sc, nil
}

// ============================================
// Tree builder
// ============================================

// treeBuilder carries the previous commit's nodes by logical name so
// each new commit can link Alternate chains the way the framework does.
type treeBuilder struct {
	prev map[string]*host.Unit
}

func newTreeBuilder() *treeBuilder {
	return &treeBuilder{prev: make(map[string]*host.Unit)}
}

// buildCommit materializes one commit's tree and swaps the name table.
func (b *treeBuilder) buildCommit(spec *unitSpec) *host.Unit {
	next := make(map[string]*host.Unit, len(b.prev))
	root := b.buildUnit(spec, nil, next)
	b.prev = next
	return root
}

// buildUnit builds one node and its subtree.
func (b *treeBuilder) buildUnit(spec *unitSpec, parent *host.Unit, next map[string]*host.Unit) *host.Unit {
	tag := host.TagFunction
	if spec.Tag != "" {
		tag = host.ParseTag(spec.Tag)
	}

	prev := b.prev[spec.Name]
	u := &host.Unit{
		Tag:       tag,
		Name:      spec.Name,
		Alternate: prev,
		Return:    parent,
	}
	if spec.Rendered {
		u.Flags = host.FlagPerformedWork
	}

	u.Props = buildProps(spec, prev)
	u.State = buildState(spec, prev)

	var lastChild *host.Unit
	for i := range spec.Children {
		child := b.buildUnit(&spec.Children[i], u, next)
		if lastChild == nil {
			u.Child = child
		} else {
			lastChild.Sibling = child
		}
		lastChild = child
	}

	next[spec.Name] = u
	return u
}

// buildProps resolves the commit's prop-set identity for a unit.
func buildProps(spec *unitSpec, prev *host.Unit) *host.PropSet {
	var prevValues map[string]any
	if prev != nil && prev.Props != nil {
		prevValues = prev.Props.Values
	}

	switch {
	case prev == nil || len(spec.NewProps) > 0:
		merged := make(map[string]any, len(prevValues)+len(spec.NewProps))
		for k, v := range prevValues {
			merged[k] = v
		}
		for k, v := range spec.NewProps {
			merged[k] = v
		}
		return host.NewPropSet(merged)
	case spec.RecreateProps:
		// New identity, same value references: classified reference-only.
		copied := make(map[string]any, len(prevValues))
		for k, v := range prevValues {
			copied[k] = v
		}
		return host.NewPropSet(copied)
	default:
		return prev.Props
	}
}

// buildState resolves the commit's state-cell identity for a unit.
func buildState(spec *unitSpec, prev *host.Unit) *host.StateCell {
	if prev == nil || spec.NewState {
		return &host.StateCell{}
	}
	return prev.State
}

// unmountNode returns the current node for a logical name, removing it
// from the table so later commits treat the unit as a fresh mount.
func (b *treeBuilder) unmountNode(name string) *host.Unit {
	u := b.prev[name]
	delete(b.prev, name)
	return u
}
