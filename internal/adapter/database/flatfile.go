package database

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/semmidev/vigil/internal/domain"
)

// FileCopier backs up flat SQL files by copying their bytes, permission
// bits and modification time.
type FileCopier struct{}

func NewFileCopier() *FileCopier {
	return &FileCopier{}
}

func (c *FileCopier) Kind() domain.SourceKind {
	return domain.SourceFlatFile
}

func (c *FileCopier) Dump(ctx context.Context, sourcePath, outputPath string) error {
	source, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer source.Close()

	info, err := source.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}

	dest, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create dest: %w", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, &contextReader{ctx: ctx, r: source}); err != nil {
		return fmt.Errorf("failed to copy: %w", err)
	}
	if err := dest.Sync(); err != nil {
		return fmt.Errorf("failed to sync dest: %w", err)
	}
	if err := dest.Close(); err != nil {
		return fmt.Errorf("failed to close dest: %w", err)
	}

	if err := os.Chmod(outputPath, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to copy permissions: %w", err)
	}
	if err := os.Chtimes(outputPath, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to copy modification time: %w", err)
	}

	return nil
}

// contextReader stops a long copy once the context is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
