package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var activityEventColumns = []string{
	"id", "timestamp", "action", "user_id", "task_id", "quiz_id", "success", "duration_ms", "details",
}

func (r *eventRepo) AppendActivity(ctx context.Context, data ActivityEventData) error {
	query, args := builder().Insert(activityTable).
		Columns(activityEventColumns[1:]...).
		Values(
			r.now().UnixMilli(), data.Action, data.UserID, data.TaskID, data.QuizID,
			data.Success, data.DurationMs, data.Details,
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save activity event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryActivity(ctx context.Context, opts QueryOpts) ([]ActivityEvent, error) {
	b := builder()
	sel := b.Select(activityEventColumns...).
		From(b.Table(activityTable)).
		OrderBy(entsql.Desc("id"))
	if opts.UserID != "" {
		sel.Where(entsql.EQ("user_id", opts.UserID))
	}
	if opts.TaskID != "" {
		sel.Where(entsql.EQ("task_id", opts.TaskID))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var out []ActivityEvent
	for rows.Next() {
		var (
			e  ActivityEvent
			ts int64
		)
		err := rows.Scan(&e.ID, &ts, &e.Action, &e.UserID, &e.TaskID, &e.QuizID,
			&e.Success, &e.DurationMs, &e.Details)
		if err != nil {
			return nil, fmt.Errorf("scan activity event: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
