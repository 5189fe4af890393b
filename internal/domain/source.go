package domain

import (
	"path/filepath"
	"strings"
)

// SourceKind selects how a database source is backed up.
type SourceKind int

const (
	SourceUnsupported SourceKind = iota
	SourceSnapshot
	SourceFlatFile
)

var sourceKindBySuffix = map[string]SourceKind{
	".sqlite3": SourceSnapshot,
	".sqlite":  SourceSnapshot,
	".db":      SourceSnapshot,
	".sql":     SourceFlatFile,
}

func (k SourceKind) String() string {
	switch k {
	case SourceSnapshot:
		return "snapshot"
	case SourceFlatFile:
		return "flatfile"
	default:
		return "unsupported"
	}
}

// Source is a configured database file and the strategy used to back it up.
type Source struct {
	Path string
	Kind SourceKind
}

// ParseSource resolves the backup strategy from the path suffix.
// Unknown suffixes yield SourceUnsupported rather than an error so the
// failure shows up in the run report.
func ParseSource(path string) Source {
	ext := strings.ToLower(filepath.Ext(path))
	return Source{Path: path, Kind: sourceKindBySuffix[ext]}
}

func (s Source) Name() string {
	return filepath.Base(s.Path)
}
