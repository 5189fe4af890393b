package domain

import "context"

// Dumper writes a backup of sourcePath to outputPath.
type Dumper interface {
	Dump(ctx context.Context, sourcePath, outputPath string) error
	Kind() SourceKind
}
