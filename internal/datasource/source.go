// Package datasource discovers, validates, and selects the record source a
// list engine reads from. A data directory may hold a SQLite database and any
// number of JSONL files; the freshest valid source wins, with SQLite
// preferred at equal freshness.
package datasource

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SourceType identifies the kind of data source.
type SourceType string

const (
	// SourceTypeSQLite is a records SQLite database (records.db)
	SourceTypeSQLite SourceType = "sqlite"
	// SourceTypeJSONL is a newline-delimited JSON records file
	SourceTypeJSONL SourceType = "jsonl"
)

// Priority values for source types (higher = more authoritative)
const (
	PrioritySQLite = 100
	PriorityJSONL  = 50
)

// DataSource represents a potential source of records.
type DataSource struct {
	// Type identifies the source type
	Type SourceType `json:"type"`
	// Path is the absolute path to the source file
	Path string `json:"path"`
	// Priority determines preference when timestamps are equal (higher = preferred)
	Priority int `json:"priority"`
	// ModTime is the last modification time of the source
	ModTime time.Time `json:"mod_time"`
	// Valid indicates whether the source passed validation
	Valid bool `json:"valid"`
	// ValidationError describes why validation failed (if Valid is false)
	ValidationError string `json:"validation_error,omitempty"`
	// Size is the file size in bytes
	Size int64 `json:"size"`
}

// String returns a human-readable description of the source.
func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (%s, priority=%d, mod=%s, %s)",
		s.Path, s.Type, s.Priority, s.ModTime.Format(time.RFC3339), status)
}

// DiscoveryOptions configures source discovery behavior.
type DiscoveryOptions struct {
	// DataDir is the directory to search. Falls back to the LL_DATA_DIR
	// environment variable, then the current directory.
	DataDir string
	// IncludeInvalid includes sources that failed validation in results
	IncludeInvalid bool
	// Logger receives discovery log messages when set
	Logger func(msg string)
}

// Discover finds all potential record sources in the data directory,
// validates them, and returns them sorted freshest-first.
func Discover(opts DiscoveryOptions) ([]DataSource, error) {
	logf := opts.Logger
	if logf == nil {
		logf = func(string) {}
	}

	dataDir := opts.DataDir
	if dataDir == "" {
		if envDir := os.Getenv("LL_DATA_DIR"); envDir != "" {
			dataDir = envDir
		} else {
			var err error
			dataDir, err = os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("failed to get current directory: %w", err)
			}
		}
	}
	logf(fmt.Sprintf("discovering sources in: %s", dataDir))

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var sources []DataSource
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()

		var st SourceType
		switch {
		case name == "records.db":
			st = SourceTypeSQLite
		case strings.HasSuffix(name, ".jsonl"):
			// Skip backups and merge artifacts
			if strings.Contains(name, ".backup") || strings.Contains(name, ".orig") ||
				strings.Contains(name, ".merge") {
				continue
			}
			st = SourceTypeJSONL
		default:
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}
		src := DataSource{
			Type:    st,
			Path:    filepath.Join(dataDir, name),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		}
		if st == SourceTypeSQLite {
			src.Priority = PrioritySQLite
		} else {
			src.Priority = PriorityJSONL
		}
		validate(&src)
		logf(fmt.Sprintf("found %s", src))
		sources = append(sources, src)
	}

	if !opts.IncludeInvalid {
		valid := sources[:0]
		for _, s := range sources {
			if s.Valid {
				valid = append(valid, s)
			}
		}
		sources = valid
	}

	sort.Slice(sources, func(i, j int) bool {
		if sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].Priority > sources[j].Priority
		}
		return sources[i].ModTime.After(sources[j].ModTime)
	})
	return sources, nil
}

// SelectBest returns the freshest valid source.
func SelectBest(sources []DataSource) (DataSource, error) {
	for _, s := range sources {
		if s.Valid {
			return s, nil
		}
	}
	return DataSource{}, fmt.Errorf("no valid record source found")
}

var sqliteMagic = []byte("SQLite format 3\x00")

// validate performs a cheap shape check without fully parsing the source: a
// SQLite file must carry the format header, a JSONL file's first non-empty
// line must look like a JSON object.
func validate(src *DataSource) {
	f, err := os.Open(src.Path)
	if err != nil {
		src.ValidationError = err.Error()
		return
	}
	defer f.Close()

	switch src.Type {
	case SourceTypeSQLite:
		header := make([]byte, len(sqliteMagic))
		if _, err := f.Read(header); err != nil || !bytes.Equal(header, sqliteMagic) {
			src.ValidationError = "not a SQLite database"
			return
		}
	case SourceTypeJSONL:
		if src.Size == 0 {
			// An empty dataset is a valid one.
			src.Valid = true
			return
		}
		buf := make([]byte, 512)
		n, err := f.Read(buf)
		if err != nil {
			src.ValidationError = err.Error()
			return
		}
		first := bytes.TrimLeft(buf[:n], " \t\r\n\xef\xbb\xbf")
		if len(first) == 0 || first[0] != '{' {
			src.ValidationError = "first line is not a JSON object"
			return
		}
	}
	src.Valid = true
}
