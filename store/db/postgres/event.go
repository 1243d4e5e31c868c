package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hrygo/slotwise/store"
)

// serializationFailure is the SQLSTATE of a serializable transaction that lost a race.
const serializationFailure = "40001"

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func placeholders(n int) string {
	list := make([]string, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}

func (d *DB) CreateEvent(ctx context.Context, create *store.Event) (*store.Event, error) {
	event, err := d.createEvent(ctx, create)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == serializationFailure {
		return nil, store.ErrEventConflict
	}
	return event, err
}

func (d *DB) createEvent(ctx context.Context, create *store.Event) (*store.Event, error) {
	tx, err := d.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM event WHERE start_ts < $1 AND end_ts > $2 LIMIT 1",
		create.EndTs, create.StartTs,
	).Scan(&exists)
	switch {
	case err == nil:
		return nil, store.ErrEventConflict
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to check overlap: %w", err)
	}

	fields := []string{"uid", "title", "description", "start_ts", "end_ts"}
	args := []any{create.UID, create.Title, create.Description, create.StartTs, create.EndTs}
	stmt := `INSERT INTO event (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts`
	if err := tx.QueryRowContext(ctx, stmt, args...).Scan(&create.ID, &create.CreatedTs); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit event: %w", err)
	}
	return create, nil
}

func (d *DB) ListEvents(ctx context.Context, find *store.FindEvent) ([]*store.Event, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.UID; v != nil {
		where, args = append(where, "event.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.StartBefore; v != nil {
		where, args = append(where, "event.start_ts < "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.EndAfter; v != nil {
		where, args = append(where, "event.end_ts > "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, uid, created_ts, title, description, start_ts, end_ts
		FROM event
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY event.start_ts ASC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Event, 0)
	for rows.Next() {
		var event store.Event
		if err := rows.Scan(
			&event.ID,
			&event.UID,
			&event.CreatedTs,
			&event.Title,
			&event.Description,
			&event.StartTs,
			&event.EndTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		list = append(list, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return list, nil
}
