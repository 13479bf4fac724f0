package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/quizgen/internal/quiz"
)

var quizColumns = []string{
	"id", "user_id", "title", "description", "source", "file_name", "language",
	"difficulty", "version", "questions", "metadata", "statistics", "created_at", "updated_at",
}

// SaveQuiz inserts a new quiz.
func (s *Store) SaveQuiz(ctx context.Context, q *quiz.Quiz) error {
	questions, metadata, stats, err := encodeQuizJSON(q)
	if err != nil {
		return err
	}

	query, args := builder().Insert(quizzesTable).
		Columns(quizColumns...).
		Values(
			q.ID, q.UserID, q.Title, q.Description, string(q.Source), q.FileName, q.Language,
			string(q.Difficulty), q.Version, questions, metadata, stats,
			q.CreatedAt.UnixMilli(), q.UpdatedAt.UnixMilli(),
		).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save quiz %s: %w", q.ID, err)
	}
	return nil
}

// DeleteQuiz removes a quiz and its collaborators. Deleting a missing quiz
// is not an error.
func (s *Store) DeleteQuiz(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete quiz %s: %w", id, err)
	}
	defer tx.Rollback()

	query, args := builder().Delete(collaboratorsTable).Where(entsql.EQ("quiz_id", id)).Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete collaborators of quiz %s: %w", id, err)
	}
	query, args = builder().Delete(quizzesTable).Where(entsql.EQ("id", id)).Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete quiz %s: %w", id, err)
	}
	return tx.Commit()
}

// FindQuiz returns the quiz with the given id or a *quiz.NotFoundError.
func (s *Store) FindQuiz(ctx context.Context, id string) (*quiz.Quiz, error) {
	b := builder()
	query, args := b.Select(quizColumns...).
		From(b.Table(quizzesTable)).
		Where(entsql.EQ("id", id)).
		Query()

	q, err := scanQuiz(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &quiz.NotFoundError{Resource: "quiz", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("find quiz %s: %w", id, err)
	}
	return q, nil
}

// UpdateQuestions persists the questions of q together with the fields a
// regeneration changes (version, metadata, statistics, updated_at).
func (s *Store) UpdateQuestions(ctx context.Context, q *quiz.Quiz) error {
	questions, metadata, stats, err := encodeQuizJSON(q)
	if err != nil {
		return err
	}

	query, args := builder().Update(quizzesTable).
		Set("questions", questions).
		Set("metadata", metadata).
		Set("statistics", stats).
		Set("version", q.Version).
		Set("updated_at", q.UpdatedAt.UnixMilli()).
		Where(entsql.EQ("id", q.ID)).
		Query()
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update questions of quiz %s: %w", q.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &quiz.NotFoundError{Resource: "quiz", ID: q.ID}
	}
	return nil
}

// ListQuizzes returns the most recent quizzes of a user.
func (s *Store) ListQuizzes(ctx context.Context, userID string, limit int) ([]*quiz.Quiz, error) {
	b := builder()
	sel := b.Select(quizColumns...).
		From(b.Table(quizzesTable)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("created_at"))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var out []*quiz.Quiz
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// CountGenerationsToday counts quizzes created by userID at or after since.
func (s *Store) CountGenerationsToday(ctx context.Context, userID string, since time.Time) (int, error) {
	b := builder()
	query, args := b.Select(entsql.Count("*")).
		From(b.Table(quizzesTable)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.GTE("created_at", since.UnixMilli()),
		)).
		Query()

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count generations: %w", err)
	}
	return n, nil
}

// AddCollaborator grants userID edit access to quizID.
func (s *Store) AddCollaborator(ctx context.Context, quizID, userID string) error {
	query, args := builder().Insert(collaboratorsTable).
		Columns("quiz_id", "user_id", "created_at").
		Values(quizID, userID, time.Now().UnixMilli()).
		OnConflict(entsql.ConflictColumns("quiz_id", "user_id"), entsql.DoNothing()).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("add collaborator: %w", err)
	}
	return nil
}

// CheckCollaborator reports whether userID collaborates on quizID.
func (s *Store) CheckCollaborator(ctx context.Context, quizID, userID string) (bool, error) {
	b := builder()
	query, args := b.Select(entsql.Count("*")).
		From(b.Table(collaboratorsTable)).
		Where(entsql.And(
			entsql.EQ("quiz_id", quizID),
			entsql.EQ("user_id", userID),
		)).
		Query()

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("check collaborator: %w", err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuiz(row rowScanner) (*quiz.Quiz, error) {
	var (
		q                          quiz.Quiz
		source, difficulty         string
		questions, metadata, stats []byte
		created, updated           int64
	)
	err := row.Scan(
		&q.ID, &q.UserID, &q.Title, &q.Description, &source, &q.FileName, &q.Language,
		&difficulty, &q.Version, &questions, &metadata, &stats, &created, &updated,
	)
	if err != nil {
		return nil, err
	}

	q.Source = quiz.Source(source)
	q.Difficulty = quiz.Difficulty(difficulty)
	q.CreatedAt = time.UnixMilli(created).UTC()
	q.UpdatedAt = time.UnixMilli(updated).UTC()

	if err := json.Unmarshal(questions, &q.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if err := json.Unmarshal(metadata, &q.GenerationMetadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if err := json.Unmarshal(stats, &q.Statistics); err != nil {
		return nil, fmt.Errorf("decode statistics: %w", err)
	}
	return &q, nil
}

func encodeQuizJSON(q *quiz.Quiz) (questions, metadata, stats string, err error) {
	qb, err := json.Marshal(q.Questions)
	if err != nil {
		return "", "", "", fmt.Errorf("encode questions: %w", err)
	}
	mb, err := json.Marshal(q.GenerationMetadata)
	if err != nil {
		return "", "", "", fmt.Errorf("encode metadata: %w", err)
	}
	sb, err := json.Marshal(q.Statistics)
	if err != nil {
		return "", "", "", fmt.Errorf("encode statistics: %w", err)
	}
	return string(qb), string(mb), string(sb), nil
}
