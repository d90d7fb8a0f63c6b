package engine

import "github.com/vanderheijden86/kinship/pkg/model"

// Project derives the leveled projection the rendering adapter consumes:
// one slice of nodes per depth, pre-order within a level. A node's children
// are visited only when it has children and is not collapsed.
//
// Hidden nodes are retained in the levels; excluding them is the renderer's
// job, which keeps unhiding cheap. Project is pure: it is re-derivable at
// any time from the display root and the CollapsedSet alone.
func (s *Session) Project() [][]*model.Person {
	return ProjectTree(s.display, s.collapsed)
}

// ProjectTree is the projection over an explicit root and collapse set.
func ProjectTree(root *model.Person, collapsed map[string]bool) [][]*model.Person {
	var levels [][]*model.Person
	var visit func(p *model.Person, depth int)
	visit = func(p *model.Person, depth int) {
		if p == nil {
			return
		}
		for len(levels) <= depth {
			levels = append(levels, nil)
		}
		levels[depth] = append(levels[depth], p)
		if !p.HasChildren() || collapsed[model.Key(p.Name)] {
			return
		}
		for _, child := range p.Children {
			visit(child, depth+1)
		}
	}
	visit(root, 0)
	return levels
}

// VisibleCount returns the number of drawable nodes in a projection,
// skipping Hidden entries the way the renderer does.
func VisibleCount(levels [][]*model.Person) int {
	n := 0
	for _, level := range levels {
		for _, p := range level {
			if !p.Hidden {
				n++
			}
		}
	}
	return n
}
