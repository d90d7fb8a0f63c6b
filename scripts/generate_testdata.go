//go:build ignore

// generate_testdata.go creates standard family trees for benchmarking and
// manual testing.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//   tests/testdata/benchmark/small.json   (100 people)
//   tests/testdata/benchmark/medium.json  (1000 people)
//   tests/testdata/benchmark/large.json   (5000 people)
package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/kinship/pkg/loader"
	"github.com/vanderheijden86/kinship/pkg/model"
)

type datasetSpec struct {
	name string
	size int
	desc string
}

var datasets = []datasetSpec{
	{"small", 100, "100 people - shallow tree, wide households"},
	{"medium", 1000, "1000 people - mixed depth"},
	{"large", 5000, "5000 people - deep lineages"},
}

func main() {
	outputDir := "tests/testdata/benchmark"
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%d people)...\n", ds.name, ds.size)

		root := randomTree(ds.size, int64(ds.size)) // reproducible per-size
		outPath := filepath.Join(outputDir, ds.name+".json")
		if err := loader.Save(root, outPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outPath, err)
			os.Exit(1)
		}

		fmt.Printf("  %s: %s (%d people)\n", outPath, ds.desc, 1+model.CountDescendants(root))
	}
}

// randomTree grows a tree person by person, attaching each new person to a
// uniformly random earlier one. Names are unique so search tests stay
// deterministic.
func randomTree(size int, seed int64) *model.Person {
	rng := rand.New(rand.NewSource(seed))

	people := make([]*model.Person, 0, size)
	root := &model.Person{Name: "Ancestor0"}
	people = append(people, root)

	for i := 1; i < size; i++ {
		p := &model.Person{Name: fmt.Sprintf("Person%d", i)}
		parent := people[rng.Intn(len(people))]
		parent.Children = append(parent.Children, p)
		people = append(people, p)
	}

	return root
}
