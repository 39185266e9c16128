package fpdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Dialect identifies the SQL dialect for identifier quoting and the default
// string escaper.
type Dialect int

// DB is the main entry point. It holds the selected dialect, configuration,
// and a pool of reusable *Builder instances.
// A single DB instance is safe for concurrent use as long as its Escaper is.
type DB struct {
	dialect Dialect
	config  Config
	pool    sync.Pool
}

// Builder assembles a single query template and its positional arguments.
// It is NOT safe for concurrent use and is single-use: after Build() it is
// automatically released back to the pool and must not be used again.
type Builder struct {
	db       *DB
	parts    []string
	args     []any
	released bool
	err      error
}

// Config defines limits and behavior tweaks for the builder.
type Config struct {
	// MaxParams limits the number of placeholders a single template may hold.
	// If = 0 (or omitted), it uses a sensible per-dialect default.
	// If < 0, it's treated as "unlimited".
	MaxParams int
	// Escaper neutralizes string and identifier arguments. If nil, the
	// dialect default is used: BackslashEscaper for MySQL, QuoteEscaper
	// otherwise. EscaperFor derives it from a live connection.
	Escaper Escaper
}

// Queryer abstracts *sql.DB / *sql.Tx / *sql.Conn QueryContext for easy testing.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const (
	MySQL Dialect = iota
	Postgres
	SQLite
	SQLServer
)

var (
	ErrArgumentCount    = errors.New("fpdb: placeholder and argument count mismatch")
	ErrConversion       = errors.New("fpdb: conversion failed")
	ErrSkipOutsideBlock = errors.New("fpdb: skip marker outside a conditional block")
	ErrTooManyParams    = errors.New("fpdb: too many parameters")
	ErrBuilderReleased  = errors.New("fpdb: builder already released; call Write() on *DB for a new query")
)

var defaultDB = New(MySQL)

// String returns the string representation of the dialect.
func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite"
	case SQLServer:
		return "sqlserver"
	default:
		return "unknown"
	}
}

// identQuotes returns the opening and closing identifier quote characters.
func (d Dialect) identQuotes() (string, string) {
	switch d {
	case Postgres:
		return `"`, `"`
	case SQLServer:
		return "[", "]"
	default: // MySQL, SQLite
		return "`", "`"
	}
}

// New returns a new DB for the given dialect. Optionally provide a Config;
// unspecified fields fall back to sensible per-dialect defaults.
func New(dialect Dialect, cfg ...Config) *DB {
	db := &DB{
		dialect: dialect,
		config:  defaultConfig(dialect, cfg...),
	}
	db.pool.New = func() any {
		return &Builder{
			db:    db,
			parts: make([]string, 0, 8),
			args:  make([]any, 0, 8),
		}
	}
	return db
}

// BuildQuery renders template with args using the MySQL dialect and
// BackslashEscaper.
func BuildQuery(template string, args ...any) (string, error) {
	return defaultDB.BuildQuery(template, args...)
}

// BuildQuery renders template with args in one call.
func (db *DB) BuildQuery(template string, args ...any) (string, error) {
	return db.Write(template).Bind(args...).Build()
}

// Write starts a new query and returns a single-use Builder.
// You can add more template chunks via Write/Writef, and arguments via Bind().
func (db *DB) Write(template string) *Builder {
	b := db.pool.Get().(*Builder)
	b.db = db
	b.released = false
	b.err = nil
	b.parts = b.parts[:0]
	b.args = b.args[:0]
	if template != "" {
		b.parts = append(b.parts, template)
	}
	return b
}

// Write appends a raw template fragment. No auto-spacing is performed.
func (b *Builder) Write(template string) *Builder {
	if b.released {
		b.err = ErrBuilderReleased
		return b
	}
	if b.err != nil {
		return b
	}
	b.parts = append(b.parts, template)
	return b
}

// Writef appends a formatted template fragment. No auto-spacing is performed.
// The format arguments are NOT escaped; use placeholders for untrusted data.
func (b *Builder) Writef(format string, args ...any) *Builder {
	if b.released {
		b.err = ErrBuilderReleased
		return b
	}
	if b.err != nil {
		return b
	}
	b.parts = append(b.parts, fmt.Sprintf(format, args...))
	return b
}

// Bind appends positional arguments, consumed by the template placeholders
// in order. Each argument is either a Value (including Skip()) or a plain Go
// value accepted by ValueOf.
func (b *Builder) Bind(args ...any) *Builder {
	if b.released {
		b.err = ErrBuilderReleased
		return b
	}
	if b.err != nil {
		return b
	}
	b.args = append(b.args, args...)
	return b
}

// Build renders the query and RELEASES the builder back into the pool.
// After Build(), the builder must not be used again.
func (b *Builder) Build() (string, error) {
	if b.released {
		return "", ErrBuilderReleased
	}

	// Snapshot before defer to avoid races with Release()
	q := strings.Join(b.parts, "")
	args := b.args
	db := b.db

	defer b.Release()
	if b.err != nil {
		return "", b.err
	}
	return build(db, q, args)
}

// Preview renders the query without releasing the Builder.
// Safe to call multiple times; identical to Build() except it does NOT Release().
//
// If the builder has already been released, it returns ErrBuilderReleased.
func (b *Builder) Preview() (string, error) {
	if b.released {
		return "", ErrBuilderReleased
	}
	if b.err != nil {
		return "", b.err
	}
	return build(b.db, strings.Join(b.parts, ""), b.args)
}

// Release clears the builder and puts it back into the pool.
// It is safe to call Release multiple times; subsequent calls are no-ops.
func (b *Builder) Release() {
	if b.released {
		return
	}
	b.released = true

	for i := range b.parts {
		b.parts[i] = ""
	}
	b.parts = b.parts[:0]

	for i := range b.args {
		b.args[i] = nil
	}
	b.args = b.args[:0]

	b.err = nil
	b.db.pool.Put(b)
}

// defaultConfig merges user config with per-dialect defaults.
func defaultConfig(dialect Dialect, config ...Config) Config {
	c := Config{}

	if len(config) > 0 {
		c = config[0]
	}

	if c.MaxParams == 0 {
		switch dialect {
		case SQLServer:
			c.MaxParams = 2100
		case SQLite:
			c.MaxParams = 999
		case Postgres, MySQL:
			c.MaxParams = 65535
		}
	}

	if c.Escaper == nil {
		if dialect == MySQL {
			c.Escaper = BackslashEscaper
		} else {
			c.Escaper = QuoteEscaper
		}
	}

	return c
}
