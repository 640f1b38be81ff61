package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLite keeps one row per (area, key) with the value encoded as JSON.
// Commits made through other connections are detected by polling
// PRAGMA data_version on a dedicated connection.
type SQLite struct {
	area Area
	path string
	db   *sql.DB

	mu       sync.Mutex
	snapshot map[string]any

	n      *notifier
	cancel context.CancelFunc
	polled chan struct{}
}

// NewSQLite opens (or creates) the database at path. poll is the interval
// at which external commits are checked; zero uses 500ms.
func NewSQLite(path string, area Area, poll time.Duration) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite store: empty path")
	}
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		area TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (area, key)
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	conn, err := db.Conn(ctx)
	if err != nil {
		cancel()
		_ = db.Close()
		return nil, fmt.Errorf("open poll connection: %w", err)
	}

	// The baseline is taken before the snapshot so that a commit landing in
	// between is seen by the first poll.
	var version int64
	if err := conn.QueryRowContext(ctx, `PRAGMA data_version`).Scan(&version); err != nil {
		cancel()
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("read data_version: %w: %w", ErrUnavailable, err)
	}

	s := &SQLite{
		area:   area,
		path:   path,
		db:     db,
		n:      newNotifier(area),
		cancel: cancel,
		polled: make(chan struct{}),
	}
	snap, err := s.load(ctx)
	if err != nil {
		cancel()
		_ = conn.Close()
		_ = db.Close()
		s.n.close()
		return nil, err
	}
	s.snapshot = snap

	go s.poll(ctx, conn, version, poll)
	return s, nil
}

func (s *SQLite) Area() Area { return s.area }

// Path returns the configured database path.
func (s *SQLite) Path() string { return s.path }

func (s *SQLite) load(ctx context.Context) (map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM kv WHERE area = ?`, string(s.area))
	if err != nil {
		return nil, fmt.Errorf("select kv: %w: %w", ErrUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	data := make(map[string]any)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("scan: %w: %w", ErrUnavailable, err)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			// A corrupt row reads as missing so its default applies.
			continue
		}
		data[key] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kv: %w: %w", ErrUnavailable, err)
	}
	return data, nil
}

func (s *SQLite) Get(ctx context.Context, defaults map[string]any) (map[string]any, error) {
	data, err := s.load(ctx)
	if err != nil {
		return pick(nil, defaults), err
	}
	return pick(data, defaults), nil
}

func (s *SQLite) Set(ctx context.Context, values map[string]any) (retErr error) {
	norm, err := normalizeAll(values)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w: %w", ErrUnavailable, err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for k, v := range norm {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", k, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kv(area, key, value) VALUES(?, ?, ?) ON CONFLICT(area, key) DO UPDATE SET value = excluded.value`,
			string(s.area), k, string(raw)); err != nil {
			return fmt.Errorf("upsert %s: %w: %w", k, ErrUnavailable, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w: %w", ErrUnavailable, err)
	}

	// current may already hold commits the poller has not seen yet; diffing
	// against the snapshot publishes those along with our own keys.
	for k, v := range norm {
		current[k] = v
	}
	changes := diff(s.snapshot, current)
	s.snapshot = current
	s.n.publish(changes)
	return nil
}

func (s *SQLite) poll(ctx context.Context, conn *sql.Conn, last int64, interval time.Duration) {
	defer close(s.polled)
	defer func() { _ = conn.Close() }()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		var v int64
		if err := conn.QueryRowContext(ctx, `PRAGMA data_version`).Scan(&v); err != nil {
			continue
		}
		if v == last {
			continue
		}
		last = v
		s.reload(ctx)
	}
}

func (s *SQLite) reload(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load(ctx)
	if err != nil {
		return
	}
	changes := diff(s.snapshot, data)
	s.snapshot = data
	s.n.publish(changes)
}

func (s *SQLite) OnChange(l Listener) func() { return s.n.subscribe(l) }

func (s *SQLite) Close() error {
	select {
	case <-s.polled:
		return nil
	default:
	}
	s.cancel()
	<-s.polled
	s.n.close()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}
