package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/semmidev/vigil/internal/adapter/compressor"
	"github.com/semmidev/vigil/internal/adapter/database"
	"github.com/semmidev/vigil/internal/adapter/storage"
	"github.com/semmidev/vigil/internal/domain"
	"github.com/semmidev/vigil/internal/infrastructure/logger"
)

var fixedNow = time.Date(2024, 6, 1, 0, 0, 7, 0, time.Local)

func newTestBackup(dir string, targets ...UploadTarget) *Backup {
	uc := NewBackup(
		[]domain.Dumper{database.NewSQLite(), database.NewFileCopier()},
		storage.NewLocal(dir),
		targets,
		compressor.NewGzip(),
		logger.NewNop(),
	)
	uc.now = func() time.Time { return fixedNow }
	return uc
}

func createTwoTableDB(t *testing.T, path string) {
	t.Helper()

	db, err := database.Open(path, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(`
CREATE TABLE accounts (id INTEGER PRIMARY KEY, email TEXT NOT NULL);
CREATE TABLE invoices (id INTEGER PRIMARY KEY, account_id INTEGER REFERENCES accounts(id), total REAL);
INSERT INTO accounts VALUES (1, 'a@example.com'), (2, 'b@example.com');
INSERT INTO invoices VALUES (10, 1, 19.5), (11, 2, 0.25);
`)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

type upload struct {
	localPath  string
	remoteName string
	content    []byte
}

type fakeStorage struct {
	mu      sync.Mutex
	err     error
	uploads []upload
}

func (f *fakeStorage) Upload(ctx context.Context, localPath, remoteName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	content, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	f.uploads = append(f.uploads, upload{localPath: localPath, remoteName: remoteName, content: content})
	return nil
}

type sentMessage struct {
	subject string
	body    string
}

type fakeNotifier struct {
	name string
	err  error
	sent []sentMessage
}

func (f *fakeNotifier) Name() string {
	return f.name
}

func (f *fakeNotifier) Send(ctx context.Context, subject, body string) error {
	f.sent = append(f.sent, sentMessage{subject: subject, body: body})
	return f.err
}

func TestArtifactName(t *testing.T) {
	got := artifactName(filepath.Join("data", "app.sqlite3"), time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local))
	if got != "app.sqlite3_20240102_030405.bak" {
		t.Fatalf("artifactName = %q", got)
	}
}
