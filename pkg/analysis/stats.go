// Package analysis computes summary statistics over the genealogy tree for
// the insights overlay and export summary block.
package analysis

import (
	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/kinship/pkg/model"
)

// TreeStats summarizes the shape of a genealogy tree.
type TreeStats struct {
	People      int   // total node count
	Branching   int   // nodes with at least one child
	Leaves      int   // nodes with no children
	MaxDepth    int   // deepest generation, 0-based
	Generations []int // node count per generation, index = depth

	// Children-per-branching-node distribution.
	MeanChildren   float64
	StdDevChildren float64

	// LargestHousehold is the branching node with the most immediate
	// children, with that count.
	LargestHousehold     string
	LargestHouseholdSize int
}

// Analyze walks the tree once and derives its statistics. Children counts
// are aggregated with gonum's stat helpers over branching nodes only, so a
// tree of many leaves does not drown the mean.
func Analyze(root *model.Person) TreeStats {
	var s TreeStats
	var childCounts []float64

	model.Walk(root, func(p *model.Person, depth int) bool {
		s.People++
		for len(s.Generations) <= depth {
			s.Generations = append(s.Generations, 0)
		}
		s.Generations[depth]++
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}

		if p.HasChildren() {
			s.Branching++
			childCounts = append(childCounts, float64(len(p.Children)))
			if len(p.Children) > s.LargestHouseholdSize {
				s.LargestHousehold = p.Name
				s.LargestHouseholdSize = len(p.Children)
			}
		} else {
			s.Leaves++
		}
		return true
	})

	if len(childCounts) > 0 {
		s.MeanChildren = stat.Mean(childCounts, nil)
		if len(childCounts) > 1 {
			s.StdDevChildren = stat.StdDev(childCounts, nil)
		}
	}
	return s
}
