// Package search resolves name queries against a genealogy tree.
//
// Matching is case-insensitive throughout. An exact name match always wins;
// otherwise substring candidates are collected in pre-order so duplicated
// names resolve the same way every other name lookup does.
package search

import (
	"strings"

	"github.com/vanderheijden86/kinship/pkg/model"
)

// Outcome classifies what a query resolved to.
type Outcome int

const (
	// Cleared means the query was empty: any search state should be dropped.
	Cleared Outcome = iota
	// Found means the query resolved to exactly one person.
	Found
	// Ambiguous means several people matched; Candidates lists them all.
	Ambiguous
	// NoMatch means nobody matched; the current view should stay as is.
	NoMatch
)

func (o Outcome) String() string {
	switch o {
	case Cleared:
		return "cleared"
	case Found:
		return "found"
	case Ambiguous:
		return "ambiguous"
	case NoMatch:
		return "no-match"
	default:
		return "unknown"
	}
}

// Candidate is one match of a substring query, with enough context to tell
// same-named people apart.
type Candidate struct {
	Name  string
	Path  []string // names from the root to this person, inclusive
	Depth int      // 0 = root
}

// Result is the outcome of resolving one query.
type Result struct {
	Outcome    Outcome
	Query      string
	Target     string      // set when Outcome == Found
	Candidates []Candidate // set when Outcome == Ambiguous
}

// Resolve matches query against the tree. Leading/trailing whitespace is
// ignored. An empty query clears; an exact name match short-circuits any
// substring matching; a single substring match counts as found.
func Resolve(root *model.Person, query string) Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{Outcome: Cleared, Query: query}
	}

	if exact := model.FindByName(root, query); exact != nil {
		return Result{Outcome: Found, Query: query, Target: exact.Name}
	}

	candidates := Substring(root, query)
	switch len(candidates) {
	case 0:
		return Result{Outcome: NoMatch, Query: query}
	case 1:
		return Result{Outcome: Found, Query: query, Target: candidates[0].Name}
	default:
		return Result{Outcome: Ambiguous, Query: query, Candidates: candidates}
	}
}

// Substring collects every person whose name contains query, case-insensitive,
// in pre-order with the full root-to-person path attached.
func Substring(root *model.Person, query string) []Candidate {
	needle := strings.ToLower(strings.TrimSpace(query))
	if root == nil || needle == "" {
		return nil
	}

	var out []Candidate
	var visit func(p *model.Person, path []string)
	visit = func(p *model.Person, path []string) {
		path = append(path, p.Name)
		if strings.Contains(strings.ToLower(p.Name), needle) {
			// Copy: the shared path slice keeps growing as the walk proceeds.
			cp := make([]string, len(path))
			copy(cp, path)
			out = append(out, Candidate{Name: p.Name, Path: cp, Depth: len(cp) - 1})
		}
		for _, child := range p.Children {
			visit(child, path)
		}
	}
	visit(root, nil)
	return out
}

// PathString renders a candidate path for display, root first.
func PathString(path []string) string {
	return strings.Join(path, " → ")
}
