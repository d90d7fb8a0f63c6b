package datasource

import (
	"fmt"

	"github.com/vanderheijden86/kinship/pkg/loader"
	"github.com/vanderheijden86/kinship/pkg/model"
)

// Load performs smart source detection in dir and loads the tree from the
// best source. A KIN_FILE override or plain JSON-only setup falls back to
// the loader's own discovery.
func Load(dir string) (*model.Person, error) {
	sources, err := DiscoverSources(dir)
	if err == nil && len(sources) > 0 {
		if best, selErr := SelectBestSource(sources); selErr == nil {
			return LoadFromSource(best)
		}
	}
	return loader.Load(dir)
}

// LoadFromSource loads the tree from a specific source, dispatching on its
// type.
func LoadFromSource(source DataSource) (*model.Person, error) {
	switch source.Type {
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite source %s: %w", source.Path, err)
		}
		defer reader.Close()
		return reader.LoadTree()

	case SourceTypeJSON:
		return loader.LoadFile(source.Path)

	default:
		return nil, fmt.Errorf("unknown source type: %s", source.Type)
	}
}
