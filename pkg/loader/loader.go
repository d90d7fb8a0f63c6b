// Package loader reads the genealogy dataset from disk.
package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/kinship/pkg/model"
)

// FileEnvVar overrides data file discovery with an explicit path.
const FileEnvVar = "KIN_FILE"

// PreferredNames is the priority order for locating the dataset in a
// directory. family.json is what the converter writes; geneology.json is
// the historical spreadsheet-export name (sic) and kept for compatibility.
var PreferredNames = []string{"family.json", "geneology.json", "genealogy.json"}

// FindDataPath locates the genealogy JSON file. KIN_FILE wins when set;
// otherwise the preferred names are tried in order within dir (cwd when
// empty). Empty files are skipped.
func FindDataPath(dir string) (string, error) {
	if envPath := os.Getenv(FileEnvVar); envPath != "" {
		return envPath, nil
	}

	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current working directory: %w", err)
		}
	}

	for _, name := range PreferredNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() && info.Size() > 0 {
			return path, nil
		}
	}
	return "", fmt.Errorf("no genealogy data file found in %s (want one of %v)", dir, PreferredNames)
}

// Load reads and validates the tree from the discovered data file.
func Load(dir string) (*model.Person, error) {
	path, err := FindDataPath(dir)
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads and validates the tree from an explicit path. Any failure
// here is fatal for the session: without a valid tree there is no view.
func LoadFile(path string) (*model.Person, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open genealogy data: %w", err)
	}
	defer f.Close()

	root, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}

// Parse decodes a single JSON document holding the root person. A UTF-8 BOM
// is tolerated; anything structurally wrong (missing name, non-array
// children) is an error.
func Parse(r io.Reader) (*model.Person, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading genealogy data: %w", err)
	}
	data = stripBOM(data)

	var root model.Person
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("malformed genealogy JSON: %w", err)
	}
	if err := root.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genealogy data: %w", err)
	}
	return &root, nil
}

// Save writes the tree as indented JSON, the same shape Load reads.
func Save(root *model.Person, path string) error {
	data, err := json.MarshalIndent(root, "", "    ")
	if err != nil {
		return fmt.Errorf("marshaling genealogy tree: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// stripBOM removes the UTF-8 Byte Order Mark if present.
func stripBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}
