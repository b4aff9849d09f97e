package notification

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dynamicaqs/crm-engine/internal/types"
)

// SQLiteStore implements Store on a plain SQLite table via database/sql.
// Notifications are not worth an ORM — a single table with JSON metadata
// mirrors the front-end contract directly. The implicit rowid provides the
// insertion-order tie-break for Query.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore on the given handle.
// The caller should set MaxOpenConns(1); SQLite tolerates one writer.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// CreateTable creates the notifications table if it does not exist.
func (s *SQLiteStore) CreateTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS notifications (
			id           TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			message      TEXT NOT NULL,
			type         TEXT NOT NULL,
			category     TEXT NOT NULL,
			priority     TEXT NOT NULL,
			read         INTEGER NOT NULL DEFAULT 0,
			archived     INTEGER NOT NULL DEFAULT 0,
			created_at   TEXT NOT NULL,
			updated_at   TEXT NOT NULL,
			action_url   TEXT NOT NULL DEFAULT '',
			action_label TEXT NOT NULL DEFAULT '',
			metadata     TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_notifications_created
			ON notifications (created_at DESC);

		CREATE INDEX IF NOT EXISTS idx_notifications_category_created
			ON notifications (category, created_at DESC);
	`)
	return err
}

func (s *SQLiteStore) Add(ctx context.Context, n types.Notification) (types.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n, err := normalize(n, time.Now().UTC())
	if err != nil {
		return types.Notification{}, err
	}

	var metadataJSON []byte
	if n.Metadata != nil {
		metadataJSON, err = json.Marshal(n.Metadata)
		if err != nil {
			return types.Notification{}, fmt.Errorf("marshaling metadata: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notifications (
			id, title, message, type, category, priority, read, archived,
			created_at, updated_at, action_url, action_label, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Title, n.Message, string(n.Type), string(n.Category), string(n.Priority),
		boolToInt(n.Read), boolToInt(n.Archived),
		formatTime(n.CreatedAt), formatTime(n.UpdatedAt),
		n.ActionURL, n.ActionLabel, nullableString(metadataJSON),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return types.Notification{}, fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
		}
		return types.Notification{}, fmt.Errorf("inserting notification: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (types.Notification, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" FROM notifications WHERE id = ?", id)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Notification{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return n, err
}

func (s *SQLiteStore) MarkRead(ctx context.Context, id string) error {
	return s.setFlag(ctx, id, "read")
}

func (s *SQLiteStore) Archive(ctx context.Context, id string) error {
	return s.setFlag(ctx, id, "archived")
}

// setFlag sets a boolean column, bumping updated_at only on an actual
// transition so repeated calls stay idempotent.
func (s *SQLiteStore) setFlag(ctx context.Context, id, column string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET `+column+` = 1, updated_at = ? WHERE id = ? AND `+column+` = 0`,
		formatTime(time.Now().UTC()), id,
	)
	if err != nil {
		return fmt.Errorf("updating notification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Either already set (fine) or unknown id (error).
		var exists int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM notifications WHERE id = ?", id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
	}
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM notifications WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting notification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) Query(ctx context.Context, f Filter) ([]types.Notification, error) {
	conditions := []string{"1 = 1"}
	var args []any

	appendIn := func(column string, values []string) {
		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = "?"
			args = append(args, v)
		}
		conditions = append(conditions, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
	}

	if len(f.Categories) > 0 {
		appendIn("category", categoryStrings(f.Categories))
	}
	if len(f.Types) > 0 {
		appendIn("type", typeStrings(f.Types))
	}
	if len(f.Priorities) > 0 {
		appendIn("priority", priorityStrings(f.Priorities))
	}
	if f.Read != nil {
		conditions = append(conditions, "read = ?")
		args = append(args, boolToInt(*f.Read))
	}
	if f.Archived != nil {
		conditions = append(conditions, "archived = ?")
		args = append(args, boolToInt(*f.Archived))
	}
	if f.CreatedFrom != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, formatTime(*f.CreatedFrom))
	}
	if f.CreatedTo != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, formatTime(*f.CreatedTo))
	}

	query := fmt.Sprintf(
		"%s FROM notifications WHERE %s ORDER BY created_at DESC, rowid ASC LIMIT ?",
		selectColumns, strings.Join(conditions, " AND "),
	)
	args = append(args, f.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var out []types.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) TagEscalated(ctx context.Context, id, ruleID string) error {
	n, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if n.Metadata == nil {
		n.Metadata = make(map[string]any)
	}
	n.Metadata["escalated"] = true
	n.Metadata["escalatedBy"] = ruleID

	metadataJSON, err := json.Marshal(n.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"UPDATE notifications SET metadata = ?, updated_at = ? WHERE id = ?",
		string(metadataJSON), formatTime(time.Now().UTC()), id,
	)
	return err
}

const selectColumns = `SELECT id, title, message, type, category, priority,
	read, archived, created_at, updated_at, action_url, action_label, metadata`

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanNotification(row scanner) (types.Notification, error) {
	var n types.Notification
	var read, archived int
	var createdAt, updatedAt string
	var metadataJSON sql.NullString
	err := row.Scan(
		&n.ID, &n.Title, &n.Message, &n.Type, &n.Category, &n.Priority,
		&read, &archived, &createdAt, &updatedAt, &n.ActionURL, &n.ActionLabel,
		&metadataJSON,
	)
	if err != nil {
		return types.Notification{}, err
	}
	n.Read = read != 0
	n.Archived = archived != 0
	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return types.Notification{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if n.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return types.Notification{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &n.Metadata); err != nil {
			return types.Notification{}, fmt.Errorf("parsing metadata: %w", err)
		}
	}
	return n, nil
}

// timeLayout is fixed-width so stored timestamps compare correctly as
// strings in SQL (RFC3339Nano trims trailing zeros and would not).
const timeLayout = "2006-01-02 15:04:05.000000000"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, time.UTC)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

func categoryStrings(cs []types.Category) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}

func typeStrings(ts []types.NotificationType) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = string(t)
	}
	return out
}

func priorityStrings(ps []types.Priority) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}
