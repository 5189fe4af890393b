package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/semmidev/vigil/internal/domain"
)

type Backup struct {
	dumpers       map[domain.SourceKind]domain.Dumper
	localStorage  LocalStorage
	uploadTargets []UploadTarget
	compressor    domain.Compressor
	logger        Logger
	now           func() time.Time
}

type UploadTarget struct {
	Name    string
	Storage domain.Storage
}

type LocalStorage interface {
	EnsureDir() error
	StagingPath(filename string) (string, error)
	Commit(filename string) (string, error)
	Discard(filename string) error
}

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

// NewBackup wires the executor. compressor may be nil, in which case
// mirror targets receive the artifact as is.
func NewBackup(
	dumpers []domain.Dumper,
	localStorage LocalStorage,
	uploadTargets []UploadTarget,
	compressor domain.Compressor,
	logger Logger,
) *Backup {
	byKind := make(map[domain.SourceKind]domain.Dumper, len(dumpers))
	for _, d := range dumpers {
		byKind[d.Kind()] = d
	}

	return &Backup{
		dumpers:       byKind,
		localStorage:  localStorage,
		uploadTargets: uploadTargets,
		compressor:    compressor,
		logger:        logger,
		now:           time.Now,
	}
}

// Prepare creates the backup directory ahead of a run.
func (uc *Backup) Prepare() error {
	return uc.localStorage.EnsureDir()
}

// Execute backs up one source. Every failure is returned inside the
// Result; nothing is written when it fails.
func (uc *Backup) Execute(ctx context.Context, src domain.Source) domain.Result {
	start := uc.now()

	artifact, err := uc.backup(ctx, src, start)
	if err != nil {
		uc.logger.Errorf("[%s] Backup failed: %v", src.Path, err)
		return domain.Failed(src.Path, err)
	}

	if info, statErr := os.Stat(artifact); statErr == nil {
		uc.logger.Infof("[%s] Backup saved to %s, size: %.2f MB",
			src.Path, artifact, float64(info.Size())/(1024*1024))
	}

	mirrors := uc.mirror(ctx, src, artifact)
	return domain.Succeeded(src.Path, artifact, mirrors)
}

func (uc *Backup) backup(ctx context.Context, src domain.Source, at time.Time) (string, error) {
	if _, err := os.Stat(src.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &domain.NotFoundError{Path: src.Path}
		}
		return "", &domain.BackupError{Path: src.Path, Err: err}
	}

	dumper, ok := uc.dumpers[src.Kind]
	if !ok {
		return "", &domain.UnsupportedFormatError{Path: src.Path}
	}

	if err := uc.localStorage.EnsureDir(); err != nil {
		return "", &domain.BackupError{Path: src.Path, Err: err}
	}

	filename := artifactName(src.Path, at)
	staging, err := uc.localStorage.StagingPath(filename)
	if err != nil {
		return "", &domain.BackupError{Path: src.Path, Err: err}
	}

	uc.logger.Infof("[%s] Creating %s backup: %s", src.Path, src.Kind, filename)
	if err := dumper.Dump(ctx, src.Path, staging); err != nil {
		uc.discard(src, filename)
		return "", &domain.BackupError{Path: src.Path, Err: err}
	}

	artifact, err := uc.localStorage.Commit(filename)
	if err != nil {
		uc.discard(src, filename)
		return "", &domain.BackupError{Path: src.Path, Err: err}
	}
	return artifact, nil
}

func (uc *Backup) discard(src domain.Source, filename string) {
	if err := uc.localStorage.Discard(filename); err != nil {
		uc.logger.Warnf("[%s] %v", src.Path, err)
	}
}

// mirror copies a committed artifact to every upload target in turn and
// returns the names of the targets that accepted it.
func (uc *Backup) mirror(ctx context.Context, src domain.Source, artifact string) []string {
	if len(uc.uploadTargets) == 0 {
		return nil
	}

	uploadPath, remoteName := artifact, filepath.Base(artifact)
	if uc.compressor != nil {
		compressed, err := uc.compress(artifact)
		if err != nil {
			uc.logger.Errorf("[%s] Compression failed, uploading uncompressed: %v", src.Path, err)
		} else {
			defer os.Remove(compressed)
			uploadPath, remoteName = compressed, remoteName+uc.compressor.Extension()
		}
	}

	var mirrors []string
	for _, target := range uc.uploadTargets {
		uc.logger.Infof("[%s] Uploading to %s...", src.Path, target.Name)
		if err := target.Storage.Upload(ctx, uploadPath, remoteName); err != nil {
			uc.logger.Errorf("[%s] Failed to upload to %s: %v", src.Path, target.Name, err)
			continue
		}
		uc.logger.Infof("[%s] Successfully uploaded to %s", src.Path, target.Name)
		mirrors = append(mirrors, target.Name)
	}
	return mirrors
}

func (uc *Backup) compress(artifact string) (string, error) {
	tmp, err := os.CreateTemp("", filepath.Base(artifact)+"-*"+uc.compressor.Extension())
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmp.Close()

	if err := uc.compressor.Compress(artifact, tmp.Name()); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("compression: %w", err)
	}
	return tmp.Name(), nil
}
