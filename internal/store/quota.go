package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// ReserveGeneration atomically takes one generation slot for userID on day
// if fewer than ceiling slots are in use. It returns the usage after the
// call and whether a slot was taken.
func (s *Store) ReserveGeneration(ctx context.Context, userID, day string, ceiling int) (int, bool, error) {
	b := builder()

	insert, args := b.Insert(usageTable).
		Columns("user_id", "day", "count").
		Values(userID, day, 0).
		OnConflict(entsql.ConflictColumns("user_id", "day"), entsql.DoNothing()).
		Query()
	if _, err := s.db.ExecContext(ctx, insert, args...); err != nil {
		return 0, false, fmt.Errorf("init usage row: %w", err)
	}

	update, args := b.Update(usageTable).
		Add("count", 1).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("day", day),
			entsql.LT("count", ceiling),
		)).
		Query()
	res, err := s.db.ExecContext(ctx, update, args...)
	if err != nil {
		return 0, false, fmt.Errorf("reserve generation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("reserve generation: %w", err)
	}

	used, err := s.GenerationUsage(ctx, userID, day)
	if err != nil {
		return 0, false, err
	}
	return used, n == 1, nil
}

// ReleaseGeneration returns a slot taken by ReserveGeneration. Usage never
// drops below zero.
func (s *Store) ReleaseGeneration(ctx context.Context, userID, day string) error {
	query, args := builder().Update(usageTable).
		Add("count", -1).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("day", day),
			entsql.GT("count", 0),
		)).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("release generation: %w", err)
	}
	return nil
}

// GenerationUsage returns the number of generations counted for userID on day.
func (s *Store) GenerationUsage(ctx context.Context, userID, day string) (int, error) {
	b := builder()
	query, args := b.Select("count").
		From(b.Table(usageTable)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("day", day),
		)).
		Query()

	var n int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("generation usage: %w", err)
	}
	return n, nil
}
