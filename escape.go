package fpdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Escaper neutralizes the characters of raw that are unsafe inside a quoted
// SQL literal. It adds no quotes itself. Implementations must be safe for
// concurrent use when the owning DB is shared across goroutines.
type Escaper interface {
	Escape(raw string) string
}

// EscapeFunc adapts a plain function to the Escaper interface.
type EscapeFunc func(raw string) string

// Escape calls f(raw).
func (f EscapeFunc) Escape(raw string) string { return f(raw) }

var (
	// BackslashEscaper follows the MySQL client library rules
	// (mysql_real_escape_string): NUL, \n, \r, \, ', " and Ctrl-Z are
	// prefixed with a backslash.
	BackslashEscaper Escaper = EscapeFunc(escapeBackslash)

	// QuoteEscaper doubles single quotes only. Use it for standard SQL string
	// literals: Postgres, SQLite, SQL Server, or MySQL in NO_BACKSLASH_ESCAPES
	// mode.
	QuoteEscaper Escaper = EscapeFunc(escapeQuotes)
)

// sqlModeQuery reads the session SQL mode from a MySQL connection.
const sqlModeQuery = "SELECT @@SESSION.sql_mode"

// EscaperFor asks the connection behind db which string escaping it expects.
// A MySQL session running with NO_BACKSLASH_ESCAPES treats backslashes as
// ordinary characters, so quotes must be doubled instead.
func EscaperFor(ctx context.Context, db Queryer) (Escaper, error) {
	rows, err := db.QueryContext(ctx, sqlModeQuery)
	if err != nil {
		return nil, fmt.Errorf("fpdb: read sql_mode: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("fpdb: read sql_mode: %w", err)
		}
		return nil, fmt.Errorf("fpdb: read sql_mode: %w", sql.ErrNoRows)
	}
	var mode sql.NullString
	if err := rows.Scan(&mode); err != nil {
		return nil, fmt.Errorf("fpdb: read sql_mode: %w", err)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fpdb: read sql_mode: %w", err)
	}

	for _, m := range strings.Split(mode.String, ",") {
		if strings.EqualFold(strings.TrimSpace(m), "NO_BACKSLASH_ESCAPES") {
			return QuoteEscaper, nil
		}
	}
	return BackslashEscaper, nil
}

// escapeBackslash implements BackslashEscaper.
func escapeBackslash(raw string) string {
	if !strings.ContainsAny(raw, "\x00\n\r\\'\"\x1a") {
		return raw
	}
	var b strings.Builder
	b.Grow(len(raw) + 8)
	for i := 0; i < len(raw); i++ {
		switch c := raw[i]; c {
		case 0:
			b.WriteString(`\0`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\\', '\'', '"':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\x1a':
			b.WriteString(`\Z`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// escapeQuotes implements QuoteEscaper.
func escapeQuotes(raw string) string {
	return strings.ReplaceAll(raw, "'", "''")
}

// quoteString renders raw as a single-quoted literal.
func quoteString(esc Escaper, raw string) string {
	return "'" + esc.Escape(raw) + "'"
}

// quoteIdent renders raw as a quoted identifier for the dialect. The closing
// quote character is doubled inside the name (`a``b`).
func quoteIdent(d Dialect, esc Escaper, raw string) string {
	open, closing := d.identQuotes()
	name := esc.Escape(raw)
	name = strings.ReplaceAll(name, closing, closing+closing)
	return open + name + closing
}
