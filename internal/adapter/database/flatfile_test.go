package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/vigil/internal/domain"
)

func TestFileCopier(t *testing.T) {
	Convey("Given a FileCopier", t, func() {
		copier := NewFileCopier()
		dir := t.TempDir()
		ctx := context.Background()

		So(copier.Kind(), ShouldEqual, domain.SourceFlatFile)

		Convey("When copying a SQL file", func() {
			source := filepath.Join(dir, "schema.sql")
			content := []byte("CREATE TABLE t (id INTEGER);\nINSERT INTO t VALUES (1);\n\x00\xff")
			So(os.WriteFile(source, content, 0640), ShouldBeNil)
			modTime := time.Date(2023, 5, 17, 8, 30, 0, 0, time.UTC)
			So(os.Chtimes(source, modTime, modTime), ShouldBeNil)

			output := filepath.Join(dir, "schema.sql.bak")
			err := copier.Dump(ctx, source, output)

			Convey("It should produce a byte-identical copy", func() {
				So(err, ShouldBeNil)
				copied, err := os.ReadFile(output)
				So(err, ShouldBeNil)
				So(copied, ShouldResemble, content)
			})

			Convey("It should keep modification time and permissions", func() {
				info, err := os.Stat(output)
				So(err, ShouldBeNil)
				So(info.ModTime().Equal(modTime), ShouldBeTrue)
				So(info.Mode().Perm(), ShouldEqual, os.FileMode(0640))
			})
		})

		Convey("When the source does not exist", func() {
			err := copier.Dump(ctx, filepath.Join(dir, "missing.sql"), filepath.Join(dir, "missing.bak"))

			Convey("It should return an error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "failed to open source")
			})
		})

		Convey("When the destination directory does not exist", func() {
			source := filepath.Join(dir, "schema.sql")
			So(os.WriteFile(source, []byte("SELECT 1;"), 0644), ShouldBeNil)

			err := copier.Dump(ctx, source, filepath.Join(dir, "nope", "schema.bak"))

			Convey("It should return an error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "failed to create dest")
			})
		})

		Convey("When the context is already cancelled", func() {
			source := filepath.Join(dir, "schema.sql")
			So(os.WriteFile(source, []byte("SELECT 1;"), 0644), ShouldBeNil)

			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			err := copier.Dump(cancelled, source, filepath.Join(dir, "schema.bak"))

			Convey("It should stop copying", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "failed to copy")
			})
		})
	})
}
