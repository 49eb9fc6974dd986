package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"facility-planner/internal/config"
	"facility-planner/internal/models"
	"facility-planner/internal/registry"

	"github.com/lib/pq"
)

// DB stores the working copy in PostgreSQL as one JSONB document per row
type DB struct {
	conn *sql.DB
}

func NewDB(cfg config.PostgresConfig) (*DB, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, sslMode)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// InitSchema creates the tables if they don't exist
func (db *DB) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS elements (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		space_id VARCHAR(64),
		doc JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS spaces (
		id VARCHAR(64) PRIMARY KEY,
		doc JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS task_groups (
		id VARCHAR(64) PRIMARY KEY,
		group_date TIMESTAMP NOT NULL,
		doc JSONB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS delete_logs (
		id SERIAL PRIMARY KEY,
		element_id VARCHAR(64) NOT NULL,
		name VARCHAR(255),
		task_count INTEGER,
		archived_at TIMESTAMP,
		deleted_at TIMESTAMP NOT NULL DEFAULT NOW(),
		reason VARCHAR(50) NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_elements_status ON elements(status);
	CREATE INDEX IF NOT EXISTS idx_elements_space_id ON elements(space_id);
	CREATE INDEX IF NOT EXISTS idx_task_groups_group_date ON task_groups(group_date);
	CREATE INDEX IF NOT EXISTS idx_delete_logs_deleted_at ON delete_logs(deleted_at DESC);
	`
	_, err := db.conn.Exec(query)
	return err
}

// LoadAll reads every element, space and task group
func (db *DB) LoadAll(ctx context.Context) (*registry.Snapshot, error) {
	snap := &registry.Snapshot{}
	if err := loadDocs(ctx, db.conn, "SELECT doc FROM elements ORDER BY created_at ASC", &snap.Elements); err != nil {
		return nil, fmt.Errorf("failed to load elements: %w", err)
	}
	if err := loadDocs(ctx, db.conn, "SELECT doc FROM spaces ORDER BY created_at ASC", &snap.Spaces); err != nil {
		return nil, fmt.Errorf("failed to load spaces: %w", err)
	}
	if err := loadDocs(ctx, db.conn, "SELECT doc FROM task_groups ORDER BY group_date ASC", &snap.Groups); err != nil {
		return nil, fmt.Errorf("failed to load task groups: %w", err)
	}
	return snap, nil
}

func loadDocs[T any](ctx context.Context, conn *sql.DB, query string, out *[]T) error {
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return err
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		*out = append(*out, v)
	}
	return rows.Err()
}

// SaveAll replaces the stored collections with snap in one transaction
func (db *DB) SaveAll(ctx context.Context, snap *registry.Snapshot) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	elementIDs := make([]string, 0, len(snap.Elements))
	for _, e := range snap.Elements {
		doc, err := json.Marshal(e)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
		INSERT INTO elements (id, name, status, space_id, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			space_id = EXCLUDED.space_id,
			doc = EXCLUDED.doc,
			updated_at = EXCLUDED.updated_at
		`, e.ID, e.Name, string(e.Status), e.SpaceID, doc, e.CreatedAt, e.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to save element %s: %w", e.ID, err)
		}
		elementIDs = append(elementIDs, e.ID)
	}

	spaceIDs := make([]string, 0, len(snap.Spaces))
	for _, s := range snap.Spaces {
		doc, err := json.Marshal(s)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
		INSERT INTO spaces (id, doc, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc
		`, s.ID, doc, s.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to save space %s: %w", s.ID, err)
		}
		spaceIDs = append(spaceIDs, s.ID)
	}

	groupIDs := make([]string, 0, len(snap.Groups))
	for _, g := range snap.Groups {
		doc, err := json.Marshal(g)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
		INSERT INTO task_groups (id, group_date, doc) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET group_date = EXCLUDED.group_date, doc = EXCLUDED.doc
		`, g.ID, g.GroupDate, doc)
		if err != nil {
			return fmt.Errorf("failed to save task group %s: %w", g.ID, err)
		}
		groupIDs = append(groupIDs, g.ID)
	}

	// Rows missing from the snapshot were deleted in memory
	for table, ids := range map[string][]string{
		"elements":    elementIDs,
		"spaces":      spaceIDs,
		"task_groups": groupIDs,
	} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE NOT (id = ANY($1))", pq.Array(ids)); err != nil {
			return fmt.Errorf("failed to prune %s: %w", table, err)
		}
	}

	return tx.Commit()
}

// CreateDeleteLogs records physically deleted elements
func (db *DB) CreateDeleteLogs(ctx context.Context, logs []models.DeleteLog) error {
	for _, l := range logs {
		deletedAt := l.DeletedAt
		if deletedAt.IsZero() {
			deletedAt = time.Now()
		}
		_, err := db.conn.ExecContext(ctx, `
		INSERT INTO delete_logs (element_id, name, task_count, archived_at, deleted_at, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		`, l.ElementID, l.Name, l.TaskCount, l.ArchivedAt, deletedAt, l.Reason)
		if err != nil {
			return err
		}
	}
	return nil
}

// RecentDeleteLogs returns the newest delete log entries
func (db *DB) RecentDeleteLogs(ctx context.Context, limit int) ([]models.DeleteLog, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, element_id, name, task_count, archived_at, deleted_at, reason
		FROM delete_logs
		ORDER BY deleted_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.DeleteLog
	for rows.Next() {
		var l models.DeleteLog
		var name sql.NullString
		var taskCount sql.NullInt64
		var archivedAt sql.NullTime
		if err := rows.Scan(&l.ID, &l.ElementID, &name, &taskCount, &archivedAt, &l.DeletedAt, &l.Reason); err != nil {
			return nil, err
		}
		l.Name = name.String
		l.TaskCount = int(taskCount.Int64)
		l.ArchivedAt = archivedAt.Time
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// DeleteStats aggregates the delete log
func (db *DB) DeleteStats(ctx context.Context, since time.Time) (*DeleteStats, error) {
	stats := &DeleteStats{ByReason: make(map[string]int64)}

	rows, err := db.conn.QueryContext(ctx, "SELECT reason, count(*) FROM delete_logs GROUP BY reason")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var reason string
		var count int64
		if err := rows.Scan(&reason, &count); err != nil {
			return nil, err
		}
		stats.ByReason[reason] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = db.conn.QueryRowContext(ctx, "SELECT count(*) FROM delete_logs WHERE deleted_at >= $1", since).Scan(&stats.Recent)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
