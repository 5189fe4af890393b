package storage

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLocalStorage(t *testing.T) {
	Convey("Given a LocalStorage", t, func() {
		tempDir := t.TempDir()

		Convey("NewLocal", func() {
			storage := NewLocal(tempDir)

			Convey("It should not touch the filesystem", func() {
				So(storage, ShouldNotBeNil)
				So(storage.basePath, ShouldEqual, tempDir)
			})
		})

		Convey("EnsureDir method", func() {
			Convey("When the directory is nested and missing", func() {
				newPath := filepath.Join(tempDir, "new", "nested", "dir")
				err := NewLocal(newPath).EnsureDir()

				Convey("It should create it with its parents", func() {
					So(err, ShouldBeNil)
					info, err := os.Stat(newPath)
					So(err, ShouldBeNil)
					So(info.IsDir(), ShouldBeTrue)
				})
			})

			Convey("When a file is in the way", func() {
				blocker := filepath.Join(tempDir, "blocker")
				So(os.WriteFile(blocker, []byte("x"), 0644), ShouldBeNil)
				err := NewLocal(filepath.Join(blocker, "dir")).EnsureDir()

				Convey("It should return an error", func() {
					So(err, ShouldNotBeNil)
					So(err.Error(), ShouldContainSubstring, "failed to create backup directory")
				})
			})
		})

		Convey("Staging and commit", func() {
			storage := NewLocal(tempDir)
			filename := "app.sqlite3_20240101_000000.bak"

			Convey("When a staged file is committed", func() {
				staging, err := storage.StagingPath(filename)
				So(err, ShouldBeNil)
				So(staging, ShouldEqual, filepath.Join(tempDir, filename+".part"))
				So(os.WriteFile(staging, []byte("dump"), 0644), ShouldBeNil)

				final, err := storage.Commit(filename)

				Convey("It should appear under its final name only", func() {
					So(err, ShouldBeNil)
					So(final, ShouldEqual, storage.GetPath(filename))
					content, err := os.ReadFile(final)
					So(err, ShouldBeNil)
					So(string(content), ShouldEqual, "dump")
					_, err = os.Stat(staging)
					So(os.IsNotExist(err), ShouldBeTrue)
				})
			})

			Convey("When a stale staging file exists", func() {
				stale := storage.GetPath(filename) + ".part"
				So(os.WriteFile(stale, []byte("stale"), 0444), ShouldBeNil)

				_, err := storage.StagingPath(filename)

				Convey("It should be cleared", func() {
					So(err, ShouldBeNil)
					_, err := os.Stat(stale)
					So(os.IsNotExist(err), ShouldBeTrue)
				})
			})

			Convey("When nothing was staged", func() {
				_, err := storage.Commit(filename)

				Convey("Commit should fail", func() {
					So(err, ShouldNotBeNil)
					So(err.Error(), ShouldContainSubstring, "failed to commit backup")
				})

				Convey("Discard should be a no-op", func() {
					So(storage.Discard(filename), ShouldBeNil)
				})
			})

			Convey("When a staged file is discarded", func() {
				staging, _ := storage.StagingPath(filename)
				So(os.WriteFile(staging, []byte("partial"), 0644), ShouldBeNil)

				So(storage.Discard(filename), ShouldBeNil)

				Convey("No file should remain", func() {
					entries, err := os.ReadDir(tempDir)
					So(err, ShouldBeNil)
					So(entries, ShouldBeEmpty)
				})
			})
		})

		Convey("GetPath method", func() {
			storage := NewLocal(tempDir)
			So(storage.GetPath("test.bak"), ShouldEqual, filepath.Join(tempDir, "test.bak"))
		})
	})
}
