// Package model holds the genealogy tree and its traversal primitives.
//
// A Person's name is the identity key throughout kinship: lookups compare
// case-insensitively, display keeps the original casing. Names are not
// required to be globally unique; every lookup returns the first match in
// pre-order (children in slice order), so duplicates are a known ambiguity
// rather than an error.
package model

import (
	"fmt"
	"strings"
)

// Person is a node in the genealogy tree.
type Person struct {
	Name     string    `json:"name"`
	Children []*Person `json:"children,omitempty"`

	// Hidden is transient display state, never serialized. It suppresses a
	// node from the rendered chart without touching its collapse state.
	Hidden bool `json:"-"`
}

// HasChildren reports whether p is a branching node.
func (p *Person) HasChildren() bool {
	return p != nil && len(p.Children) > 0
}

// Key returns the lookup key for a name.
func Key(name string) string {
	return strings.ToLower(name)
}

// FindByName returns the first pre-order node whose name matches target
// case-insensitively, or nil.
func FindByName(root *Person, target string) *Person {
	if root == nil {
		return nil
	}
	if strings.EqualFold(root.Name, target) {
		return root
	}
	for _, child := range root.Children {
		if found := FindByName(child, target); found != nil {
			return found
		}
	}
	return nil
}

// FindWithPath is FindByName plus the chain of names from root to the match,
// inclusive of both ends. Returns (nil, nil) when target is absent.
func FindWithPath(root *Person, target string) (*Person, []string) {
	if root == nil {
		return nil, nil
	}
	if strings.EqualFold(root.Name, target) {
		return root, []string{root.Name}
	}
	for _, child := range root.Children {
		if found, path := FindWithPath(child, target); found != nil {
			return found, append([]string{root.Name}, path...)
		}
	}
	return nil, nil
}

// FindParent returns the node whose immediate children include a
// case-insensitive match for target. Nil when target is root itself or
// absent entirely. Duplicates resolve to the parent of the same node
// FindByName returns: the first match in pre-order.
func FindParent(root *Person, target string) *Person {
	if root == nil {
		return nil
	}
	for _, child := range root.Children {
		if strings.EqualFold(child.Name, target) {
			return root
		}
		if parent := FindParent(child, target); parent != nil {
			return parent
		}
	}
	return nil
}

// CountDescendants returns the total transitive child count of p, not
// counting p itself. Full subtree size minus one.
func CountDescendants(p *Person) int {
	if p == nil {
		return 0
	}
	count := len(p.Children)
	for _, child := range p.Children {
		count += CountDescendants(child)
	}
	return count
}

// Walk visits every node in pre-order, children in slice order. fn receives
// the node and its depth relative to root. Returning false stops the walk.
func Walk(root *Person, fn func(p *Person, depth int) bool) {
	walk(root, 0, fn)
}

func walk(p *Person, depth int, fn func(*Person, int) bool) bool {
	if p == nil {
		return true
	}
	if !fn(p, depth) {
		return false
	}
	for _, child := range p.Children {
		if !walk(child, depth+1, fn) {
			return false
		}
	}
	return true
}

// Validate checks that every node in the tree carries a non-empty name.
// A failure here is a fatal load error, not a recoverable per-node state.
func (p *Person) Validate() error {
	if p == nil {
		return fmt.Errorf("nil person node")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("person node with empty name")
	}
	for _, child := range p.Children {
		if err := child.Validate(); err != nil {
			return fmt.Errorf("under %q: %w", p.Name, err)
		}
	}
	return nil
}

// ClearHidden resets the transient visibility flag on the whole subtree.
func ClearHidden(root *Person) {
	Walk(root, func(p *Person, _ int) bool {
		p.Hidden = false
		return true
	})
}
