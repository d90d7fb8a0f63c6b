// Package datasource discovers, validates, and selects the freshest valid
// genealogy data source in a directory: a SQLite database or a JSON tree
// file.
package datasource

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/vanderheijden86/kinship/pkg/loader"
	"github.com/vanderheijden86/kinship/pkg/model"
)

// SourceType identifies the type of data source.
type SourceType string

const (
	// SourceTypeSQLite is a kinship SQLite database (family.db).
	SourceTypeSQLite SourceType = "sqlite"
	// SourceTypeJSON is a JSON tree file (family.json).
	SourceTypeJSON SourceType = "json"
)

// Priority values for source types (higher = more authoritative when
// timestamps tie).
const (
	PrioritySQLite = 100
	PriorityJSON   = 50
)

// SQLiteNames is the priority order for database files.
var SQLiteNames = []string{"family.db", "kinship.db"}

// DataSource represents one discovered candidate source.
type DataSource struct {
	Type            SourceType `json:"type"`
	Path            string     `json:"path"`
	Priority        int        `json:"priority"`
	ModTime         time.Time  `json:"mod_time"`
	Valid           bool       `json:"valid"`
	ValidationError string     `json:"validation_error,omitempty"`
	PersonCount     int        `json:"person_count"`
	Size            int64      `json:"size"`
}

// String returns a human-readable description of the source.
func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (%s, priority=%d, mod=%s, people=%d, %s)",
		s.Path, s.Type, s.Priority, s.ModTime.Format(time.RFC3339), s.PersonCount, status)
}

// DiscoverSources finds every candidate source in dir (cwd when empty) and
// validates each by actually loading it.
func DiscoverSources(dir string) ([]DataSource, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %w", err)
		}
	}

	var sources []DataSource
	for _, name := range SQLiteNames {
		if src, ok := statSource(filepath.Join(dir, name), SourceTypeSQLite, PrioritySQLite); ok {
			sources = append(sources, src)
		}
	}
	for _, name := range loader.PreferredNames {
		if src, ok := statSource(filepath.Join(dir, name), SourceTypeJSON, PriorityJSON); ok {
			sources = append(sources, src)
		}
	}

	for i := range sources {
		validate(&sources[i])
	}
	return sources, nil
}

func statSource(path string, typ SourceType, priority int) (DataSource, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return DataSource{}, false
	}
	return DataSource{
		Type:     typ,
		Path:     path,
		Priority: priority,
		ModTime:  info.ModTime(),
		Size:     info.Size(),
	}, true
}

func validate(src *DataSource) {
	root, err := LoadFromSource(*src)
	if err != nil {
		src.Valid = false
		src.ValidationError = err.Error()
		return
	}
	src.Valid = true
	src.PersonCount = 1 + model.CountDescendants(root)
}

// SelectBestSource picks the freshest valid source; priority breaks
// timestamp ties so the database wins over a JSON export written in the
// same operation.
func SelectBestSource(sources []DataSource) (DataSource, error) {
	valid := make([]DataSource, 0, len(sources))
	for _, s := range sources {
		if s.Valid {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return DataSource{}, fmt.Errorf("no valid genealogy sources found")
	}
	sort.SliceStable(valid, func(i, j int) bool {
		if !valid[i].ModTime.Equal(valid[j].ModTime) {
			return valid[i].ModTime.After(valid[j].ModTime)
		}
		return valid[i].Priority > valid[j].Priority
	})
	return valid[0], nil
}
