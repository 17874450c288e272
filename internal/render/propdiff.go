// propdiff.go — Shallow property diffing and reference-only detection.
// A changed key whose new value is structurally equal one level deep is a
// "reference-only" change: the value was recreated, not changed. Inline
// callbacks are the dominant real-world case, so function values are
// always reference-only. Diffing stays O(keys) with shallow comparisons —
// this runs inside the commit callback and must never go deep.
package render

import (
	"reflect"
	"sort"

	"github.com/render-lens/render-lens/internal/host"
)

// PropChange records one changed property key.
type PropChange struct {
	Key           string `json:"key"`
	ReferenceOnly bool   `json:"reference_only"`
}

// reservedPropKeys are framework-managed keys excluded from diffing.
var reservedPropKeys = map[string]bool{
	"children": true,
	"key":      true,
	"ref":      true,
}

// maxChangedKeysPerRender bounds diff cost on wide property sets: once
// reached, remaining keys are not examined.
const maxChangedKeysPerRender = 10

// diffProps shallow-compares two property sets and classifies each
// changed key. Either set may be nil (empty diff). Keys are visited in
// sorted order so truncation at the cap is deterministic.
func diffProps(prev, curr *host.PropSet) []PropChange {
	if prev == nil || curr == nil {
		return nil
	}

	keys := unionKeys(prev.Values, curr.Values)
	var changes []PropChange
	for _, k := range keys {
		if reservedPropKeys[k] {
			continue
		}
		pv, pok := prev.Values[k]
		cv, cok := curr.Values[k]
		if pok && cok && sameRef(pv, cv) {
			continue
		}
		refOnly := false
		if pok && cok {
			refOnly = shallowEqual(pv, cv)
		}
		changes = append(changes, PropChange{Key: k, ReferenceOnly: refOnly})
		if len(changes) >= maxChangedKeysPerRender {
			break
		}
	}
	return changes
}

// unionKeys returns the sorted union of both key sets.
func unionKeys(a, b map[string]any) []string {
	seen := make(map[string]bool, len(a)+len(b))
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for k := range b {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// sameRef reports identity equality in the host framework's sense:
// pointers, maps, slices, funcs, and channels compare by reference;
// comparable values (primitives) compare by value.
func sameRef(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() != vb.Kind() {
		return false
	}
	switch va.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	default:
		if !va.Comparable() || !vb.Comparable() {
			return false
		}
		return va.Equal(vb)
	}
}

// shallowEqual reports one-level-deep structural equality: primitives by
// value, slices by length and per-element reference, maps by key set and
// per-key reference. Functions are always treated as equal (recreated
// inline callbacks cannot be cheaply compared). Anything else is a
// genuine change.
func shallowEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() != vb.Kind() {
		return false
	}
	switch va.Kind() {
	case reflect.Func:
		return true
	case reflect.Slice, reflect.Array:
		if va.Len() != vb.Len() {
			return false
		}
		for i := 0; i < va.Len(); i++ {
			if !sameRef(va.Index(i).Interface(), vb.Index(i).Interface()) {
				return false
			}
		}
		return true
	case reflect.Map:
		if va.Len() != vb.Len() {
			return false
		}
		iter := va.MapRange()
		for iter.Next() {
			ev := vb.MapIndex(iter.Key())
			if !ev.IsValid() {
				return false
			}
			if !sameRef(iter.Value().Interface(), ev.Interface()) {
				return false
			}
		}
		return true
	default:
		if !va.Comparable() || !vb.Comparable() {
			return false
		}
		return va.Equal(vb)
	}
}
