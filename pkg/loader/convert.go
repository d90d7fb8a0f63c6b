package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/vanderheijden86/kinship/pkg/model"
)

// Convert builds a genealogy tree from a headerless CSV table where each
// row lists a parent followed by that parent's children. A single cell may
// carry several names separated by commas, semicolons, or pipes.
//
// Roots are parents that never appear as anyone's child; when several rows
// qualify, the first row order wins. Repeated mentions of a child under the
// same parent are dropped, order preserved. A visited set breaks reference
// cycles in the input so the output is always a tree.
func Convert(r io.Reader) (*model.Person, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var parents []string
	children := make(map[string][]string)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading genealogy table: %w", err)
		}
		if len(record) == 0 {
			continue
		}

		parent := normalizeName(record[0])
		if parent == "" {
			continue
		}
		if _, seen := children[parent]; !seen {
			parents = append(parents, parent)
			children[parent] = nil
		}

		seen := make(map[string]bool, len(children[parent]))
		for _, existing := range children[parent] {
			seen[existing] = true
		}
		for _, cell := range record[1:] {
			for _, name := range splitCell(cell) {
				if name != "" && !seen[name] {
					seen[name] = true
					children[parent] = append(children[parent], name)
				}
			}
		}
	}

	if len(parents) == 0 {
		return nil, fmt.Errorf("genealogy table holds no parent rows")
	}

	root := pickRoot(parents, children)
	tree := buildNode(root, children, map[string]bool{})
	cleanNames(tree)
	if err := tree.Validate(); err != nil {
		return nil, fmt.Errorf("converted tree is invalid: %w", err)
	}
	return tree, nil
}

var cellSplitRe = regexp.MustCompile(`[,;|]+`)

func splitCell(cell string) []string {
	s := normalizeName(cell)
	if s == "" {
		return nil
	}
	if !strings.ContainsAny(s, ",;|") {
		return []string{s}
	}
	var out []string
	for _, part := range cellSplitRe.Split(s, -1) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalizeName(cell string) string {
	s := strings.ToLower(strings.TrimSpace(cell))
	switch s {
	case "", "nan", "none":
		return ""
	}
	return s
}

// pickRoot prefers a parent that never appears as a child; falls back to
// the first parent row when the table has no clear top.
func pickRoot(parents []string, children map[string][]string) string {
	isChild := make(map[string]bool)
	for _, kids := range children {
		for _, kid := range kids {
			isChild[kid] = true
		}
	}
	for _, p := range parents {
		if !isChild[p] {
			return p
		}
	}
	return parents[0]
}

func buildNode(name string, children map[string][]string, visited map[string]bool) *model.Person {
	node := &model.Person{Name: name}
	if visited[name] {
		// Cycle in the source table: keep the node, break the loop.
		return node
	}
	visited[name] = true
	for _, child := range children[name] {
		branch := make(map[string]bool, len(visited))
		for k := range visited {
			branch[k] = true
		}
		node.Children = append(node.Children, buildNode(child, children, branch))
	}
	return node
}

var numSuffixRe = regexp.MustCompile(`\d+$`)

// cleanNames strips disambiguating numeric suffixes from the source table
// and capitalizes the first rune, applied after the tree is assembled so
// suffixed duplicates still link correctly during the build.
func cleanNames(node *model.Person) {
	node.Name = cleanName(node.Name)
	for _, child := range node.Children {
		cleanNames(child)
	}
}

func cleanName(name string) string {
	name = numSuffixRe.ReplaceAllString(name, "")
	if name == "" {
		return name
	}
	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
