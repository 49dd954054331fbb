package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql" // register mysql as a database/sql driver
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/ajitpratap0/growout/pkg/errors"
	"github.com/ajitpratap0/growout/pkg/table"
	"github.com/ajitpratap0/growout/pkg/transformer"
)

// dialect holds what differs between the supported databases.
type dialect struct {
	driver      string
	quote       func(string) string
	placeholder func(n int) string
	number      string
	text        string
	// swap returns the statements that replace target with staging,
	// keeping the replaced table as previous.
	swap func(target, staging, previous string) []string
}

func quoteDouble(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteBacktick(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

func questionMark(int) string { return "?" }

func dollar(n int) string { return fmt.Sprintf("$%d", n) }

func alterRename(target, staging, previous string) []string {
	return []string{
		"ALTER TABLE " + target + " RENAME TO " + previous,
		"ALTER TABLE " + staging + " RENAME TO " + target,
	}
}

// renameTables swaps both tables in one atomic statement.
func renameTables(target, staging, previous string) []string {
	return []string{"RENAME TABLE " + target + " TO " + previous + ", " + staging + " TO " + target}
}

var dialects = map[Format]dialect{
	FormatSQLite:   {driver: "sqlite", quote: quoteDouble, placeholder: questionMark, number: "REAL", text: "TEXT", swap: alterRename},
	FormatPostgres: {driver: "pgx", quote: quoteDouble, placeholder: dollar, number: "DOUBLE PRECISION", text: "TEXT", swap: alterRename},
	FormatMySQL:    {driver: "mysql", quote: quoteBacktick, placeholder: questionMark, number: "DOUBLE", text: "TEXT", swap: renameTables},
}

// SQLSink loads every output into a table named after the growout, replacing
// the table left by an earlier run. Missing cells are NULL.
//
// Each output is loaded into a staging table and swapped in once complete,
// so a failed load leaves the earlier table in place. On sqlite and postgres
// the whole load is one transaction. MySQL commits DDL implicitly; there the
// rows are committed to the staging table first and the swap is a single
// RENAME TABLE.
type SQLSink struct {
	db       *sql.DB
	dialect  dialect
	format   Format
	location string
	logger   *zap.Logger
}

// OpenSQLSink connects to the database. dsn is a file path for sqlite and
// a connection string otherwise.
func OpenSQLSink(ctx context.Context, f Format, dsn string, logger *zap.Logger) (*SQLSink, error) {
	d, ok := dialects[f]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "format %s is not a database", f)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to open "+string(f))
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to connect to "+string(f))
	}

	return NewSQLSink(db, f, redact(dsn), logger)
}

// NewSQLSink wraps an open database.
func NewSQLSink(db *sql.DB, f Format, location string, logger *zap.Logger) (*SQLSink, error) {
	d, ok := dialects[f]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "format %s is not a database", f)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLSink{
		db:       db,
		dialect:  d,
		format:   f,
		location: location,
		logger:   logger.With(zap.String("sink", "sql"), zap.String("driver", d.driver)),
	}, nil
}

// redact hides the password in a connection string, either URL style
// (postgres://user:pw@host/db) or mysql style (user:pw@tcp(host)/db).
func redact(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	start := 0
	if scheme := strings.Index(dsn, "://"); scheme >= 0 && scheme < at {
		start = scheme + 3
	}
	userinfo := dsn[start:at]
	if colon := strings.Index(userinfo, ":"); colon >= 0 {
		return dsn[:start] + userinfo[:colon] + ":***" + dsn[at:]
	}
	return dsn
}

// Write implements Sink.
func (s *SQLSink) Write(ctx context.Context, set *transformer.OutputSet) (*Summary, error) {
	summary := &Summary{Location: s.location, Format: string(s.format)}
	for _, out := range set.Outputs() {
		if err := s.load(ctx, out.Name, out.Data); err != nil {
			return summary, err
		}
		summary.Written++
		summary.Files = append(summary.Files, out.Name)
		s.logger.Info("output loaded",
			zap.String("growout", out.Name),
			zap.Int("rows", out.Data.Len()))
	}
	return summary, nil
}

func (s *SQLSink) columnType(t table.ColumnType) string {
	if t == table.NumberColumn {
		return s.dialect.number
	}
	return s.dialect.text
}

// Suffixes of the tables used while replacing an output table.
const (
	stagingSuffix  = "__staging"
	previousSuffix = "__previous"
)

func (s *SQLSink) load(ctx context.Context, name string, t *table.Table) (err error) {
	q := s.dialect.quote
	tableName := q(name)
	staging := q(name + stagingSuffix)
	previous := q(name + previousSuffix)

	defs := make([]string, 0, len(t.Columns))
	cols := make([]string, 0, len(t.Columns))
	marks := make([]string, 0, len(t.Columns))
	for i, col := range t.Columns {
		typ := s.dialect.text
		if i > 0 {
			typ = s.columnType(t.Types[i-1])
		}
		defs = append(defs, q(col)+" "+typ)
		cols = append(cols, q(col))
		marks = append(marks, s.dialect.placeholder(i+1))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{
		"DROP TABLE IF EXISTS " + staging,
		"DROP TABLE IF EXISTS " + previous,
		fmt.Sprintf("CREATE TABLE %s (%s)", staging, strings.Join(defs, ", ")),
	} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConnection, "failed to prepare table "+name).
				WithDetail("statement", stmt)
		}
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", staging, strings.Join(cols, ", "), strings.Join(marks, ", "))
	if err = s.insert(ctx, tx, insert, name, t); err != nil {
		return err
	}

	// the swap renames an existing table, so make sure there is one
	swap := []string{fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", tableName, strings.Join(defs, ", "))}
	swap = append(swap, s.dialect.swap(tableName, staging, previous)...)
	swap = append(swap, "DROP TABLE "+previous)
	for _, st := range swap {
		if _, err = tx.ExecContext(ctx, st); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConnection, "failed to replace table "+name).
				WithDetail("statement", st)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to commit "+name)
	}
	return nil
}

// insert writes every row of t with the prepared statement query.
func (s *SQLSink) insert(ctx context.Context, tx *sql.Tx, query, name string, t *table.Table) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to prepare insert into "+name)
	}
	defer stmt.Close()

	args := make([]interface{}, len(t.Columns))
	for _, r := range t.Rows {
		args[0] = r.Key
		for i, c := range r.Cells {
			switch c.Kind {
			case table.Number:
				args[i+1] = c.Float()
			case table.Text:
				args[i+1] = c.Str
			default:
				args[i+1] = nil
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConnection, "failed to insert into "+name).
				WithDetail("row", r.Key)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLSink) Close() error {
	return s.db.Close()
}
