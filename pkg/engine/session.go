// Package engine maintains the view state of the genealogy chart: which
// nodes are collapsed, what the current display root is, and the navigation
// path back to the true root after a re-root.
//
// A Session is single-goroutine state. In the TUI it is only ever mutated
// inside Update, which Bubble Tea guarantees never runs concurrently with
// View, so no locking is needed.
package engine

import (
	"errors"

	"github.com/vanderheijden86/kinship/pkg/model"
	"github.com/vanderheijden86/kinship/pkg/search"
)

// ErrNotFound is returned by Focus when the target name does not exist in
// the original tree. The view is left unchanged.
var ErrNotFound = errors.New("person not found")

// Session owns the view state for one loaded genealogy tree.
type Session struct {
	original *model.Person
	display  *model.Person
	// collapsed is the CollapsedSet, keyed by lowercased name. After any
	// view change it holds every branching node except the current display
	// root.
	collapsed map[string]bool
	// path is the chain of names from the true root to the current focus
	// target, inclusive. Empty in the default view.
	path    []string
	focused bool
}

// NewSession builds a session showing the default full-tree view: the true
// root expanded, every other branching node collapsed.
func NewSession(root *model.Person) *Session {
	s := &Session{original: root}
	s.ReturnToDefault()
	return s
}

// Original returns the true root. Never mutated by navigation except for
// transient Hidden flags.
func (s *Session) Original() *model.Person { return s.original }

// Display returns the current display root. Equal to Original in the
// default view; a synthetic shallow node while focused.
func (s *Session) Display() *model.Person { return s.display }

// Path returns the navigation path from the true root to the current focus
// target. Nil in the default view.
func (s *Session) Path() []string { return s.path }

// Focused reports whether a re-rooted view is active.
func (s *Session) Focused() bool { return s.focused }

// Collapsed reports whether the named node is currently collapsed.
func (s *Session) Collapsed(name string) bool {
	return s.collapsed[model.Key(name)]
}

// CollapsedSet exposes the live collapse map for renderers that project the
// tree outside the session, such as snapshot export. Callers must not mutate
// it.
func (s *Session) CollapsedSet() map[string]bool { return s.collapsed }

// UpTarget returns the name `GoUp` would focus next: the parent of the
// current focus target, or "" when the next step is the default view.
func (s *Session) UpTarget() string {
	if len(s.path) < 2 {
		return ""
	}
	return s.path[len(s.path)-2]
}

// Focus re-roots the view around the named person. The target is looked up
// in the original tree, so focus always reaches the full dataset no matter
// what is currently displayed. On a miss the view is unchanged.
func (s *Session) Focus(name string) error {
	target, path := model.FindWithPath(s.original, name)
	if target == nil {
		return ErrNotFound
	}

	// The synthetic root shares the target's children slice. Collapse state
	// is keyed by name, so no copy of the underlying nodes is needed.
	s.display = &model.Person{Name: target.Name, Children: target.Children}
	s.path = path
	s.focused = true
	s.resetCollapsed()
	return nil
}

// GoUp moves the focus one generation toward the true root. At the root (or
// with no path recorded) it is equivalent to ReturnToDefault.
func (s *Session) GoUp() {
	if len(s.path) <= 1 {
		s.ReturnToDefault()
		return
	}
	// The parent is on the recorded path, so this cannot miss.
	_ = s.Focus(s.path[len(s.path)-2])
}

// ReturnToDefault restores the full-tree view.
func (s *Session) ReturnToDefault() {
	s.display = s.original
	s.path = nil
	s.focused = false
	s.resetCollapsed()
}

// Toggle expands or collapses the named node.
//
// Expanding applies sibling suppression: every other child of the node's
// parent in the current display tree is collapsed and hidden, so the chart
// shows one expanded branch per level. Collapsing unhides those siblings
// without touching their own collapse state. Toggle never changes the
// display root or the navigation path.
func (s *Session) Toggle(name string) {
	key := model.Key(name)
	siblings := s.siblingsOf(name)

	if s.collapsed[key] {
		delete(s.collapsed, key)
		for _, sib := range siblings {
			s.collapsed[model.Key(sib.Name)] = true
			sib.Hidden = true
		}
		return
	}

	s.collapsed[key] = true
	for _, sib := range siblings {
		sib.Hidden = false
	}
}

// Search resolves query against the original tree and applies the outcome:
// Cleared restores the default view, Found focuses the target, Ambiguous
// and NoMatch leave the view untouched for the caller to handle.
func (s *Session) Search(query string) search.Result {
	res := search.Resolve(s.original, query)
	switch res.Outcome {
	case search.Cleared:
		s.ReturnToDefault()
	case search.Found:
		// Resolve only reports names present in the tree.
		_ = s.Focus(res.Target)
	}
	return res
}

// siblingsOf returns the other children of name's parent in the current
// display tree. Empty for the display root and for unknown names.
func (s *Session) siblingsOf(name string) []*model.Person {
	parent := model.FindParent(s.display, name)
	if parent == nil {
		return nil
	}
	var sibs []*model.Person
	for _, child := range parent.Children {
		if model.Key(child.Name) != model.Key(name) {
			sibs = append(sibs, child)
		}
	}
	return sibs
}

// resetCollapsed rebuilds the CollapsedSet for the current display root:
// every branching node collapsed except the display root itself. Transient
// Hidden flags from a previous view are cleared so visibility cannot leak
// across re-roots.
func (s *Session) resetCollapsed() {
	model.ClearHidden(s.original)
	s.collapsed = make(map[string]bool)
	rootKey := model.Key(s.display.Name)
	model.Walk(s.display, func(p *model.Person, _ int) bool {
		if p.HasChildren() && model.Key(p.Name) != rootKey {
			s.collapsed[model.Key(p.Name)] = true
		}
		return true
	})
}
