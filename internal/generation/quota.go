package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/quizgen/internal/quiz"
)

// QuotaStatus describes a user's generation allowance for the current day.
type QuotaStatus struct {
	UserID    string
	Role      quiz.Role
	Limit     int
	Used      int
	Remaining int

	// Saved counts quizzes persisted today. It trails Used while a
	// generation is in flight.
	Saved int

	ResetsAt time.Time
}

func usageKey(userID, day string) string {
	return fmt.Sprintf("quota:%s:%s", userID, day)
}

// QuotaStatus reports today's usage for userID.
func (s *Service) QuotaStatus(ctx context.Context, userID string) (QuotaStatus, error) {
	user, err := s.users.FindUser(ctx, userID)
	if err != nil {
		return QuotaStatus{}, err
	}

	now := s.now()
	day := s.day(now)
	used, err := s.usage(ctx, userID, day)
	if err != nil {
		return QuotaStatus{}, err
	}

	midnight := s.midnight(now)
	saved, err := s.quizzes.CountGenerationsToday(ctx, userID, midnight)
	if err != nil {
		return QuotaStatus{}, fmt.Errorf("count generations: %w", err)
	}

	limit := s.cfg.Ceiling(user.Role)
	return QuotaStatus{
		UserID:    userID,
		Role:      user.Role,
		Limit:     limit,
		Used:      used,
		Remaining: max(limit-used, 0),
		Saved:     saved,
		ResetsAt:  midnight.AddDate(0, 0, 1),
	}, nil
}

// usage returns the counted generations, consulting the cache first.
func (s *Service) usage(ctx context.Context, userID, day string) (int, error) {
	key := usageKey(userID, day)
	v, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("quota cache read failed")
	} else if ok {
		if n, isInt := v.(int); isInt {
			return n, nil
		}
	}

	n, err := s.quota.GenerationUsage(ctx, userID, day)
	if err != nil {
		return 0, fmt.Errorf("read quota usage: %w", err)
	}
	if err := s.cache.Set(ctx, key, n, s.cfg.QuotaCacheTTL); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("quota cache write failed")
	}
	return n, nil
}

func (s *Service) forgetUsage(ctx context.Context, userID, day string) {
	if err := s.cache.Delete(ctx, usageKey(userID, day)); err != nil {
		s.log.WithError(err).Warn("quota cache delete failed")
	}
}
