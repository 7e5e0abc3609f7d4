// ABOUTME: Bounded SQLite connection pool with a startup migration gate
// ABOUTME: Hands out dedicated connections that store operations accept explicitly

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/solatis/trapperkeeper/internal/config"
)

// acquireTimeout bounds how long Acquire waits for a free connection when
// the caller's context carries no deadline of its own.
const acquireTimeout = 5 * time.Second

// Pool is a bounded set of reusable SQLite connections. Open applies all
// pending migrations before the pool is handed to any caller, so no entity
// operation can observe a partially-migrated schema.
type Pool struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open builds a connection pool from cfg and runs migrations on an acquired
// connection. A migration failure is fatal to startup; the returned error
// should abort the process before it serves requests.
func Open(cfg config.DatabaseConfig) (*Pool, error) {
	logger := slog.Default().With("component", "store")
	logger.Info("building connection pool", "url", cfg.URL, "pool_size", cfg.PoolSize)

	dsn, err := buildDSN(cfg.URL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	poolSize := cfg.PoolSize
	if poolSize < 1 {
		poolSize = 1
	}
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)

	p := &Pool{db: db, logger: logger}

	acquireCtx, cancel := context.WithTimeout(context.Background(), acquireTimeout)
	defer cancel()

	conn, err := p.Acquire(acquireCtx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("acquiring migration connection: %w", err)
	}
	defer conn.Close()

	// Migrations run without a deadline: startup already blocks on them,
	// and the acquire timeout must not cut a heavy migration short.
	if err := migrate(context.Background(), conn, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return p, nil
}

// buildDSN normalizes a configured URL (either sqlite://<path> or a bare
// path) into a modernc DSN. The _pragma parameters are applied by the
// driver on every physical connection, including recycled ones, so
// foreign-key enforcement is never lost to pool churn.
func buildDSN(raw string) (string, error) {
	path := strings.TrimPrefix(raw, "sqlite://")
	if path == "" {
		return "", fmt.Errorf("database url is empty")
	}

	pragmas := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=journal_mode(WAL)",
		"_pragma=busy_timeout(5000)",
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return "file:" + path + sep + strings.Join(pragmas, "&"), nil
}

// Acquire hands out a dedicated connection, waiting up to acquireTimeout
// for one to free up unless ctx imposes a tighter deadline. The caller owns
// the connection until it calls Close, which returns it to the pool.
func (p *Pool) Acquire(ctx context.Context) (*sql.Conn, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, acquireTimeout)
		defer cancel()
	}

	conn, err := p.db.Conn(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrAcquireTimeout
		}
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	return conn, nil
}

// Close releases all pool resources.
func (p *Pool) Close() error {
	p.logger.Info("closing connection pool")
	return p.db.Close()
}

// isForeignKeyViolation checks whether err is a SQLite foreign-key
// constraint failure.
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
