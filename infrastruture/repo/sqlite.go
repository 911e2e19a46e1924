package repo

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/beka-birhanu/reeborg-api/game"
	dmn "github.com/beka-birhanu/reeborg-api/identity"
	"github.com/beka-birhanu/reeborg-api/service/i"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timeLayout has a fixed width so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var ErrEmptyPath = errors.New("empty sqlite path")

// OpenSQLite opens the database at path and creates the users and runs
// tables when missing.
func OpenSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			runs INTEGER NOT NULL,
			best_harvest INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			owner TEXT NOT NULL,
			scene TEXT NOT NULL,
			mode TEXT NOT NULL,
			carried INTEGER NOT NULL,
			capacity INTEGER NOT NULL,
			visited INTEGER NOT NULL,
			reachable INTEGER NOT NULL,
			moves INTEGER NOT NULL,
			turns INTEGER NOT NULL,
			complete INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_owner_started ON runs(owner, started_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// SQLiteUserRepo is the UserRepo of single-node deployments.
type SQLiteUserRepo struct {
	db *sql.DB
}

// NewSQLiteUserRepo creates a user repository on an opened database.
func NewSQLiteUserRepo(db *sql.DB) *SQLiteUserRepo {
	return &SQLiteUserRepo{db: db}
}

// Save inserts or updates a user in the repository.
func (u *SQLiteUserRepo) Save(user *dmn.User) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := u.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, runs, best_harvest, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			password_hash = excluded.password_hash,
			runs = excluded.runs,
			best_harvest = excluded.best_harvest,
			updated_at = excluded.updated_at`,
		user.ID.String(), user.Username, user.PasswordHash, user.Runs, user.BestHarvest,
		time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return i.ErrUsernameConflict
		}
		return errors.New("unexpected error: " + err.Error())
	}
	return nil
}

// ByID retrieves a user by their ID.
func (u *SQLiteUserRepo) ByID(id uuid.UUID) (*dmn.User, error) {
	return u.one(`SELECT id, username, password_hash, runs, best_harvest FROM users WHERE id = ?`, id.String())
}

// ByUsername retrieves a user by their username.
func (u *SQLiteUserRepo) ByUsername(username string) (*dmn.User, error) {
	return u.one(`SELECT id, username, password_hash, runs, best_harvest FROM users WHERE username = ?`, username)
}

func (u *SQLiteUserRepo) one(query string, arg any) (*dmn.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var (
		user dmn.User
		id   string
	)
	err := u.db.QueryRowContext(ctx, query, arg).
		Scan(&id, &user.Username, &user.PasswordHash, &user.Runs, &user.BestHarvest)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, i.ErrUserNotFound
		}
		return nil, errors.New("unexpected error: " + err.Error())
	}
	if user.ID, err = uuid.Parse(id); err != nil {
		return nil, errors.New("unexpected error: " + err.Error())
	}
	return &user, nil
}

// SQLiteRunRepo is the RunRepo of single-node deployments.
type SQLiteRunRepo struct {
	db *sql.DB
}

// NewSQLiteRunRepo creates a run repository on an opened database.
func NewSQLiteRunRepo(db *sql.DB) *SQLiteRunRepo {
	return &SQLiteRunRepo{db: db}
}

// Save inserts run.
func (r *SQLiteRunRepo) Save(ctx context.Context, run *game.RunRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (id, session_id, owner, scene, mode, carried, capacity, visited,
			reachable, moves, turns, complete, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.SessionID.String(), run.Owner.String(), run.Scene, run.Mode,
		run.Carried, run.Capacity, run.Visited, run.Reachable, run.Moves, run.Turns,
		run.Complete,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return errors.New("unexpected error: " + err.Error())
	}
	return nil
}

// ByOwner returns the newest runs of owner.
func (r *SQLiteRunRepo) ByOwner(ctx context.Context, owner uuid.UUID, limit int) ([]*game.RunRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, owner, scene, mode, carried, capacity, visited,
			reachable, moves, turns, complete, started_at, finished_at
		FROM runs WHERE owner = ? ORDER BY started_at DESC LIMIT ?`,
		owner.String(), limit,
	)
	if err != nil {
		return nil, errors.New("unexpected error: " + err.Error())
	}
	defer rows.Close()

	runs := make([]*game.RunRecord, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, errors.New("unexpected error: " + err.Error())
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New("unexpected error: " + err.Error())
	}
	return runs, nil
}

func scanRun(rows *sql.Rows) (*game.RunRecord, error) {
	var (
		run                   game.RunRecord
		id, session, owner    string
		startedAt, finishedAt string
	)
	err := rows.Scan(&id, &session, &owner, &run.Scene, &run.Mode, &run.Carried, &run.Capacity,
		&run.Visited, &run.Reachable, &run.Moves, &run.Turns, &run.Complete, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if run.SessionID, err = uuid.Parse(session); err != nil {
		return nil, err
	}
	if run.Owner, err = uuid.Parse(owner); err != nil {
		return nil, err
	}
	if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return nil, err
	}
	if run.FinishedAt, err = time.Parse(timeLayout, finishedAt); err != nil {
		return nil, err
	}
	return &run, nil
}
