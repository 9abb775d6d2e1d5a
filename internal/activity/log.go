// Package activity provides a SQLite-backed audit log of mutations on
// shared data. The log is append-mostly and queried as a reverse
// chronological feed with cursor pagination.
package activity

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/daylistapp/daylist-server/internal/domain"
	"github.com/daylistapp/daylist-server/internal/errors"
)

//go:embed schema.sql
var schemaSQL string

// DefaultFeedLimit is used when a feed query passes a limit <= 0.
const DefaultFeedLimit = 50

// Log records activities in a SQLite database.
type Log struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates an activity log at the given path. It configures WAL
// mode, sets pragmas, and runs schema migrations.
func Open(path string, logger *slog.Logger) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite allows a single writer; keep the pool small.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Log{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (l *Log) Close() error {
	return l.db.Close()
}

// Record appends one activity and fills in its assigned ID.
func (l *Log) Record(ctx context.Context, a *domain.Activity) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO activities (actor_id, verb, list_id, item_id, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ActorID,
		string(a.Verb),
		nullString(a.ListID),
		nullString(a.ItemID),
		a.Summary,
		formatTime(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	a.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	return nil
}

// Get retrieves a single activity by ID.
func (l *Log) Get(ctx context.Context, id int64) (*domain.Activity, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)

	a, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("activity not found")
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Feed retrieves activities sorted by created_at descending. Pass the
// CreatedAt and ID of the last item seen for cursor pagination; IDs
// break ties when multiple activities share a timestamp.
func (l *Log) Feed(ctx context.Context, limit int, before *time.Time, beforeID int64) ([]*domain.Activity, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}

	var query string
	var args []any

	if before != nil {
		query = `SELECT ` + activityColumns + ` FROM activities
			WHERE (created_at < ? OR (created_at = ? AND id < ?))
			ORDER BY created_at DESC, id DESC
			LIMIT ?`
		ts := formatTime(*before)
		args = append(args, ts, ts, beforeID, limit)
	} else {
		query = `SELECT ` + activityColumns + ` FROM activities
			ORDER BY created_at DESC, id DESC
			LIMIT ?`
		args = append(args, limit)
	}

	return l.queryActivities(ctx, query, args...)
}

// FeedFor retrieves the feed visible to one principal: activities on
// the given lists plus the principal's own listless activities
// (contact changes carry no list id). Cursor semantics match Feed.
func (l *Log) FeedFor(ctx context.Context, actorID string, listIDs []string, limit int, before *time.Time, beforeID int64) ([]*domain.Activity, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}

	scope := `(actor_id = ? AND list_id IS NULL)`
	args := []any{actorID}
	if len(listIDs) > 0 {
		scope += ` OR list_id IN (?` + strings.Repeat(",?", len(listIDs)-1) + `)`
		for _, id := range listIDs {
			args = append(args, id)
		}
	}

	query := `SELECT ` + activityColumns + ` FROM activities WHERE (` + scope + `)`
	if before != nil {
		query += ` AND (created_at < ? OR (created_at = ? AND id < ?))`
		ts := formatTime(*before)
		args = append(args, ts, ts, beforeID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	return l.queryActivities(ctx, query, args...)
}

// FeedForList retrieves activities scoped to one list, newest first.
func (l *Log) FeedForList(ctx context.Context, listID string, limit int) ([]*domain.Activity, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	return l.queryActivities(ctx, `SELECT `+activityColumns+` FROM activities
		WHERE list_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, listID, limit)
}

// FeedForActor retrieves activities performed by one user, newest first.
func (l *Log) FeedForActor(ctx context.Context, actorID string, limit int) ([]*domain.Activity, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	return l.queryActivities(ctx, `SELECT `+activityColumns+` FROM activities
		WHERE actor_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, actorID, limit)
}

// All retrieves every activity in insertion order. Used by backups.
func (l *Log) All(ctx context.Context) ([]*domain.Activity, error) {
	return l.queryActivities(ctx, `SELECT `+activityColumns+` FROM activities ORDER BY id ASC`)
}

// PurgeForList deletes every activity referencing the given list.
// Used by the orphan sweeper after a list is removed.
func (l *Log) PurgeForList(ctx context.Context, listID string) (int64, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM activities WHERE list_id = ?`, listID)
	if err != nil {
		return 0, fmt.Errorf("purge activities: %w", err)
	}
	return res.RowsAffected()
}

func (l *Log) queryActivities(ctx context.Context, query string, args ...any) ([]*domain.Activity, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*domain.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return activities, nil
}

// activityColumns is the ordered list of columns selected in activity
// queries. Must match the scan order in scanActivity.
const activityColumns = `id, actor_id, verb, list_id, item_id, summary, created_at`

// scanActivity scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.Activity.
func scanActivity(scanner interface{ Scan(dest ...any) error }) (*domain.Activity, error) {
	var a domain.Activity
	var (
		verb      string
		listID    sql.NullString
		itemID    sql.NullString
		createdAt string
	)

	err := scanner.Scan(&a.ID, &a.ActorID, &verb, &listID, &itemID, &a.Summary, &createdAt)
	if err != nil {
		return nil, err
	}

	a.Verb = domain.ActivityVerb(verb)
	a.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	if listID.Valid {
		a.ListID = listID.String
	}
	if itemID.Valid {
		a.ItemID = itemID.String
	}
	return &a, nil
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses an RFC3339Nano timestamp from storage.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// nullString returns a sql.NullString that is NULL for the empty string.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
