package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultBusyTimeout bounds how long a statement waits for a locked database
// before failing with SQLITE_BUSY.
const DefaultBusyTimeout = 5 * time.Second

// Open opens a SQLite database connection and configures pragmas.
//
// Transactions begin IMMEDIATE so the write lock is taken up front, where
// SQLite honours busy_timeout. A deferred transaction that reads first and
// then writes fails at once when another process holds the lock.
func Open(path string, busyTimeout time.Duration) (*sql.DB, error) {
	if busyTimeout <= 0 {
		busyTimeout = DefaultBusyTimeout
	}

	db, err := sql.Open("sqlite", dsn(path, busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Single user, single writer. One connection also keeps ":memory:"
	// databases from splitting into several independent copies.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return db, nil
}

// dsn appends the connection parameters to path. The driver applies them to
// every new connection.
func dsn(path string, busyTimeout time.Duration) string {
	q := url.Values{}
	q.Set("_txlock", "immediate")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	return path + "?" + q.Encode()
}
