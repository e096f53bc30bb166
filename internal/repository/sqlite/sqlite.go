// Package sqlite implements the repository interfaces on an embedded SQLite
// database, for local development and tests.
//
// DOCUMENTS IN SQL:
// The application's records are documents (projects carry their files
// inline, hackathons carry participant lists). Rather than normalise them,
// each collection is a table holding the JSON document in a `doc` column,
// plus the handful of key columns queries filter or sort on:
//
//	projects(id, user_id, created_at, doc)
//
// Key columns are written from the same struct as the document, so they
// never disagree. Timestamps are stored as Unix nanoseconds, which sort
// correctly as integers (RFC 3339 strings with trimmed fractions do not).
//
// modernc.org/sqlite is a pure-Go translation of SQLite: no cgo, so the
// binary cross-compiles like any other Go program.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB pool and hands out one repository per collection.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/devmarket.db" → file-based, persistent
//   - ":memory:"          → in-memory, gone on Close (tests)
//
// An in-memory database exists per connection, so the pool is pinned to a
// single connection in that case. File databases wait up to five seconds on
// a locked database and open write transactions with BEGIN IMMEDIATE, so
// two read-modify-write transactions cannot interleave.
func New(dbPath string) (*DB, error) {
	memory := dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory")

	dsn := dbPath
	if !memory {
		dsn = dbPath + "?_pragma=busy_timeout(5000)&_txlock=immediate"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	if memory {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func (db *DB) Users() repository.UserRepository           { return &userStore{conn: db.conn} }
func (db *DB) Projects() repository.ProjectRepository     { return &projectStore{conn: db.conn} }
func (db *DB) Hackathons() repository.HackathonRepository { return &hackathonStore{conn: db.conn} }
func (db *DB) Activities() repository.ActivityRepository  { return &activityStore{conn: db.conn} }

func (db *DB) Jobs() repository.JobRepository {
	return newPostStore[model.Job](db.conn, "jobs")
}

func (db *DB) Internships() repository.InternshipRepository {
	return newPostStore[model.Internship](db.conn, "internships")
}

func (db *DB) Problems() repository.ProblemRepository {
	return newPostStore[model.Problem](db.conn, "problems")
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the pool. The context is accepted to match the Mongo
// backend; closing a local file does not block on the network.
func (db *DB) Close(context.Context) error {
	return db.conn.Close()
}

// migrate creates every table and index. CREATE ... IF NOT EXISTS makes it
// safe to run on every start.
func (db *DB) migrate() error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id            TEXT PRIMARY KEY,
				email         TEXT NOT NULL UNIQUE,
				role          TEXT NOT NULL,
				password_hash TEXT NOT NULL DEFAULT '',
				created_at    INTEGER NOT NULL,
				doc           TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_users_role ON users(role, created_at);`},
		{"projects", `
			CREATE TABLE IF NOT EXISTS projects (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL,
				created_at INTEGER NOT NULL,
				doc        TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_projects_user_id ON projects(user_id);
			CREATE INDEX IF NOT EXISTS idx_projects_created_at ON projects(created_at);`},
		{"hackathons", `
			CREATE TABLE IF NOT EXISTS hackathons (
				id         TEXT PRIMARY KEY,
				created_at INTEGER NOT NULL,
				doc        TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_hackathons_created_at ON hackathons(created_at, id);`},
		{"user_activities", `
			CREATE TABLE IF NOT EXISTS user_activities (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL,
				project_id TEXT NOT NULL,
				ts         INTEGER NOT NULL,
				doc        TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_activities_user ON user_activities(user_id, ts);
			CREATE INDEX IF NOT EXISTS idx_activities_project ON user_activities(project_id, ts);
			CREATE INDEX IF NOT EXISTS idx_activities_ts ON user_activities(ts);`},
	}

	for _, table := range postTables {
		stmts = append(stmts, struct {
			name string
			sql  string
		}{table, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %[1]s (
				id          TEXT PRIMARY KEY,
				buyer_email TEXT NOT NULL,
				posted_at   INTEGER NOT NULL,
				doc         TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_%[1]s_buyer ON %[1]s(buyer_email, posted_at);`, table)})
	}

	for _, s := range stmts {
		if _, err := db.conn.Exec(s.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", s.name, err)
		}
	}
	return nil
}
