package database

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/semmidev/vigil/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteDumper writes an embedded database as a replayable SQL script:
// schema and rows of every table, then indexes, triggers and views.
type SQLiteDumper struct{}

func NewSQLite() *SQLiteDumper {
	return &SQLiteDumper{}
}

func (d *SQLiteDumper) Kind() domain.SourceKind {
	return domain.SourceSnapshot
}

func (d *SQLiteDumper) Dump(ctx context.Context, sourcePath, outputPath string) error {
	db, err := Open(sourcePath, true)
	if err != nil {
		return err
	}
	defer db.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create dump file: %w", err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	if err := WriteDump(ctx, db, w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write dump: %w", err)
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("failed to sync dump: %w", err)
	}
	return out.Close()
}

// Open opens an SQLite file through the pure Go driver. A read-only
// handle never creates the file.
func Open(path string, readOnly bool) (*sql.DB, error) {
	dsn := "file:" + uriEscaper.Replace(path)
	if readOnly {
		dsn += "?mode=ro"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps the dump on one consistent read.
	db.SetMaxOpenConns(1)
	return db, nil
}

var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

type schemaObject struct {
	name string
	kind string
	sql  string
}

// WriteDump emits the database contents one statement per line. All reads
// happen inside a single read transaction.
func WriteDump(ctx context.Context, db *sql.DB, w io.Writer) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN"); err != nil {
		return fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer conn.ExecContext(context.Background(), "ROLLBACK") //nolint:errcheck

	emit := func(stmt string) error {
		if _, err := io.WriteString(w, stmt+"\n"); err != nil {
			return fmt.Errorf("failed to write dump: %w", err)
		}
		return nil
	}

	if err := emit("BEGIN TRANSACTION;"); err != nil {
		return err
	}

	tables, err := querySchema(ctx, conn,
		`SELECT name, type, sql FROM sqlite_master WHERE sql NOT NULL AND type = 'table' ORDER BY name`)
	if err != nil {
		return err
	}

	// Internal bookkeeping tables only exist once the user tables that
	// need them have been created, so they are replayed last.
	var internal []schemaObject
	for _, table := range tables {
		switch {
		case table.name == "sqlite_sequence" || table.name == "sqlite_stat1":
			internal = append(internal, table)
			continue
		case strings.HasPrefix(table.name, "sqlite_"):
			continue
		case strings.HasPrefix(strings.ToUpper(table.sql), "CREATE VIRTUAL TABLE"):
			if err := emitVirtualTable(emit, table); err != nil {
				return err
			}
			continue
		}

		if err := emit(table.sql + ";"); err != nil {
			return err
		}
		if err := dumpRows(ctx, conn, table.name, emit); err != nil {
			return err
		}
	}

	for _, table := range internal {
		stmt := `DELETE FROM "sqlite_sequence";`
		if table.name == "sqlite_stat1" {
			stmt = "ANALYZE sqlite_master;"
		}
		if err := emit(stmt); err != nil {
			return err
		}
		if err := dumpRows(ctx, conn, table.name, emit); err != nil {
			return err
		}
	}

	others, err := querySchema(ctx, conn,
		`SELECT name, type, sql FROM sqlite_master WHERE sql NOT NULL AND type IN ('index', 'trigger', 'view')`)
	if err != nil {
		return err
	}
	for _, obj := range others {
		if err := emit(obj.sql + ";"); err != nil {
			return err
		}
	}

	return emit("COMMIT;")
}

func emitVirtualTable(emit func(string) error, table schemaObject) error {
	if err := emit("PRAGMA writable_schema=ON;"); err != nil {
		return err
	}
	stmt := fmt.Sprintf(
		"INSERT INTO sqlite_master(type,name,tbl_name,rootpage,sql)VALUES('table',%s,%s,0,%s);",
		quoteLiteral(table.name), quoteLiteral(table.name), quoteLiteral(table.sql))
	if err := emit(stmt); err != nil {
		return err
	}
	return emit("PRAGMA writable_schema=OFF;")
}

func querySchema(ctx context.Context, conn *sql.Conn, query string) ([]schemaObject, error) {
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	defer rows.Close()

	var objects []schemaObject
	for rows.Next() {
		var obj schemaObject
		if err := rows.Scan(&obj.name, &obj.kind, &obj.sql); err != nil {
			return nil, fmt.Errorf("failed to scan schema: %w", err)
		}
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return objects, nil
}

// dumpRows renders each row as an INSERT statement. Values are formatted
// by the engine's quote() so that reals, blobs and NULLs replay exactly.
func dumpRows(ctx context.Context, conn *sql.Conn, table string, emit func(string) error) error {
	columns, err := tableColumns(ctx, conn, table)
	if err != nil {
		return err
	}
	if len(columns) == 0 {
		return nil
	}

	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = fmt.Sprintf("quote(%s)", quoteIdent(col))
	}
	query := fmt.Sprintf("SELECT 'INSERT INTO ' || %s || ' VALUES(' || %s || ')' FROM %s",
		quoteLiteral(quoteIdent(table)),
		strings.Join(quoted, " || ',' || "),
		quoteIdent(table))

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to read table %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return fmt.Errorf("failed to scan row of %s: %w", table, err)
		}
		if err := emit(stmt + ";"); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read table %s: %w", table, err)
	}
	return nil
}

func tableColumns(ctx context.Context, conn *sql.Conn, table string) ([]string, error) {
	rows, err := conn.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid      int
			name     string
			colType  string
			notNull  int
			defValue sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan columns of %s: %w", table, err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	return columns, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
