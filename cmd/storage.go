package main

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const outputsTable = `
	create table if not exists outputs (
		path text not null primary key,
		timestamp integer not null
	);
`

// journal records finished outputs so re-runs and scheduled sweeps can
// skip work that is already done. A nil journal disables skipping.
type journal struct {
	mu sync.RWMutex
	db *sql.DB
}

func newJournal(path string) (*journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db file: %w", err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA synchronous = normal;`); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA temp_store = memory;`); err != nil {
		return nil, err
	}

	if _, err := db.Exec(outputsTable); err != nil {
		return nil, fmt.Errorf("create outputs table: %w", err)
	}

	return &journal{db: db}, nil
}

func (j *journal) isDone(ctx context.Context, out string) (bool, error) {
	if j == nil {
		return false, nil
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	var n int
	err := j.db.QueryRowContext(ctx, `select count(*) from outputs where path = ?`, out).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("select output: %w", err)
	}

	return n > 0, nil
}

func (j *journal) markDone(ctx context.Context, out string, at time.Time) error {
	if j == nil {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.ExecContext(ctx, `insert or replace into outputs (path, timestamp) values (?,?)`, out, at.Unix())
	if err != nil {
		return fmt.Errorf("register output: %w", err)
	}

	return nil
}

func (j *journal) Close() error {
	if j == nil {
		return nil
	}
	return j.db.Close()
}
