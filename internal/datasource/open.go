package datasource

import (
	"fmt"

	"github.com/vanderheijden86/longlist/pkg/transport"
)

// Open dispatches a selected source to the matching transport.
func Open(source DataSource) (transport.Transport, error) {
	switch source.Type {
	case SourceTypeSQLite:
		tr, err := transport.OpenSQLite(source.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite source %s: %w", source.Path, err)
		}
		return tr, nil
	case SourceTypeJSONL:
		tr, err := transport.OpenJSONL(source.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open JSONL source %s: %w", source.Path, err)
		}
		return tr, nil
	default:
		return nil, fmt.Errorf("unknown source type: %s", source.Type)
	}
}

// OpenBest discovers sources in dataDir and opens the freshest valid one.
func OpenBest(dataDir string) (transport.Transport, DataSource, error) {
	sources, err := Discover(DiscoveryOptions{DataDir: dataDir})
	if err != nil {
		return nil, DataSource{}, err
	}
	best, err := SelectBest(sources)
	if err != nil {
		return nil, DataSource{}, err
	}
	tr, err := Open(best)
	if err != nil {
		return nil, DataSource{}, err
	}
	return tr, best, nil
}
