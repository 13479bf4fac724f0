package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/quizgen/internal/quiz"
)

// SaveUser inserts a user or updates the role and status of an existing one.
func (s *Store) SaveUser(ctx context.Context, u *quiz.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	query, args := builder().Insert(usersTable).
		Columns("id", "role", "status", "created_at").
		Values(u.ID, string(u.Role), string(u.Status), u.CreatedAt.UnixMilli()).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(set *entsql.UpdateSet) {
				set.SetExcluded("role")
				set.SetExcluded("status")
			}),
		).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save user %s: %w", u.ID, err)
	}
	return nil
}

// FindUser returns the user with the given id or a *quiz.NotFoundError.
func (s *Store) FindUser(ctx context.Context, id string) (*quiz.User, error) {
	b := builder()
	query, args := b.Select("id", "role", "status", "created_at").
		From(b.Table(usersTable)).
		Where(entsql.EQ("id", id)).
		Query()

	var (
		u       quiz.User
		role    string
		status  string
		created int64
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &role, &status, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &quiz.NotFoundError{Resource: "user", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	u.Role = quiz.Role(role)
	u.Status = quiz.UserStatus(status)
	u.CreatedAt = time.UnixMilli(created).UTC()
	return &u, nil
}

// ListUsers returns all users ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]quiz.User, error) {
	b := builder()
	query, args := b.Select("id", "role", "status", "created_at").
		From(b.Table(usersTable)).
		OrderBy("id").
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []quiz.User
	for rows.Next() {
		var (
			u            quiz.User
			role, status string
			created      int64
		)
		if err := rows.Scan(&u.ID, &role, &status, &created); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Role = quiz.Role(role)
		u.Status = quiz.UserStatus(status)
		u.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, u)
	}
	return out, rows.Err()
}
