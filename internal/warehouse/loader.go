package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/phuslu/log"

	"github.com/i474232898/weather-etl/internal/weather"
)

const (
	// DefaultTable is the destination table for weather rows.
	DefaultTable = "TEMPERATURES"

	// DefaultBatchSize caps the rows sent in a single INSERT statement.
	DefaultBatchSize = 500
)

var columns = []string{"DATETIME", "TEMP", "TEMP_HIGH", "TEMP_LOW", "COUNTRY", "STATE", "CITY", "LAT", "LON"}

// Dialect holds the SQL fragments that differ between warehouses.
type Dialect struct {
	Name          string
	TimestampType string
	FloatType     string
	TextType      string

	// TimestampValue wraps the DATETIME placeholder so the column is typed
	// explicitly instead of inferred from a string.
	TimestampValue string
}

// Snowflake is the production dialect.
var Snowflake = Dialect{
	Name:           "snowflake",
	TimestampType:  "TIMESTAMP_NTZ",
	FloatType:      "FLOAT",
	TextType:       "VARCHAR",
	TimestampValue: "TO_TIMESTAMP_NTZ(?, 'YYYY-MM-DD HH24:MI:SS')",
}

// Loader appends weather records to a fixed table. It implements weather.Sink
// and owns db.
type Loader struct {
	db        *sql.DB
	table     string
	dialect   Dialect
	batchSize int
	ensured   bool
}

// NewLoader creates a Loader writing to table with the Snowflake dialect.
func NewLoader(db *sql.DB, table string) *Loader {
	if table == "" {
		table = DefaultTable
	}
	return &Loader{
		db:        db,
		table:     table,
		dialect:   Snowflake,
		batchSize: DefaultBatchSize,
	}
}

// WithDialect overrides the SQL dialect.
func (l *Loader) WithDialect(d Dialect) *Loader {
	l.dialect = d
	return l
}

// WithBatchSize overrides the rows per INSERT statement. Values less than 1 are ignored.
func (l *Loader) WithBatchSize(n int) *Loader {
	if n >= 1 {
		l.batchSize = n
	}
	return l
}

// Load appends records in a single transaction. The table is created on first
// use if it does not exist; existing rows are never touched. An empty slice
// issues no INSERT and returns 0.
func (l *Loader) Load(ctx context.Context, records []weather.Record) (int, error) {
	if err := l.ensureTable(ctx); err != nil {
		return 0, err
	}

	if len(records) == 0 {
		log.Info().Int("rows", 0).Str("table", l.table).Msg("Loaded rows")
		return 0, nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	for start := 0; start < len(records); start += l.batchSize {
		end := min(start+l.batchSize, len(records))
		query, args := l.insertStatement(records[start:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert into %s: %w", l.table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	log.Info().Int("rows", len(records)).Str("table", l.table).Msg("Loaded rows")
	return len(records), nil
}

// Close releases the underlying connection.
func (l *Loader) Close() error {
	return l.db.Close()
}

func (l *Loader) ensureTable(ctx context.Context) error {
	if l.ensured {
		return nil
	}

	d := l.dialect
	types := []string{d.TimestampType, d.FloatType, d.FloatType, d.FloatType, d.TextType, d.TextType, d.TextType, d.FloatType, d.FloatType}
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = quoteIdent(c) + " " + types[i]
	}

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(l.table), strings.Join(defs, ", "))
	if _, err := l.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", l.table, err)
	}
	l.ensured = true
	return nil
}

func (l *Loader) insertStatement(batch []weather.Record) (string, []any) {
	row := "(" + l.dialect.TimestampValue + strings.Repeat(", ?", len(columns)-1) + ")"

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", quoteIdent(l.table), strings.Join(quoted, ", "))

	args := make([]any, 0, len(batch)*len(columns))
	for i, r := range batch {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(row)
		args = append(args, r.DateTime(), r.Temp, r.TempHigh, r.TempLow, r.Country, r.State, r.City, r.Lat, r.Lon)
	}
	return b.String(), args
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
