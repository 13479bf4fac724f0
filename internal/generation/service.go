// Package generation orchestrates quiz generation: quota, prompt, model call,
// parsing, persistence and task tracking.
package generation

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/quizgen/internal/cache"
	"github.com/abhisek/quizgen/internal/llm"
	"github.com/abhisek/quizgen/internal/prompt"
	"github.com/abhisek/quizgen/internal/quiz"
	"github.com/abhisek/quizgen/internal/tasks"
)

// Config holds the orchestration policy.
type Config struct {
	PromptCacheTTL     time.Duration
	PermissionCacheTTL time.Duration
	QuotaCacheTTL      time.Duration

	// Ceilings is the daily generation allowance per role.
	Ceilings map[quiz.Role]int

	// Params are the model parameters used for generation calls.
	Params llm.GenerationParams

	HealthTimeout time.Duration

	// Location decides when a quota day starts.
	Location *time.Location
}

func DefaultConfig() Config {
	return Config{
		PromptCacheTTL:     prompt.DefaultTTL,
		PermissionCacheTTL: 5 * time.Minute,
		QuotaCacheTTL:      time.Minute,
		Ceilings: map[quiz.Role]int{
			quiz.RoleAdmin:   200,
			quiz.RoleTeacher: 50,
			quiz.RoleStudent: 10,
		},
		Params: llm.GenerationParams{
			MaxTokens:   8192,
			Temperature: 0.7,
			TopP:        0.95,
			TopK:        40,
			Safety:      llm.SafetyMedium,
		},
		HealthTimeout: 10 * time.Second,
		Location:      time.Local,
	}
}

// Ceiling returns the daily allowance of role. Unknown roles get the
// student allowance.
func (c Config) Ceiling(role quiz.Role) int {
	if n, ok := c.Ceilings[role]; ok {
		return n
	}
	return c.Ceilings[quiz.RoleStudent]
}

// Deps are the collaborators of a Service. Cache, Activity, Prompts, Tasks,
// Log and Now are optional.
type Deps struct {
	Quizzes  QuizStore
	Users    UserStore
	Quota    QuotaLedger
	AI       Invoker
	Cache    cache.Cache
	Activity ActivityRecorder
	Prompts  *prompt.Builder
	Tasks    *tasks.Registry
	Log      logrus.FieldLogger
	Now      func() time.Time
}

// Service is the generation orchestrator. It is safe for concurrent use.
type Service struct {
	quizzes  QuizStore
	users    UserStore
	quota    QuotaLedger
	ai       Invoker
	cache    cache.Cache
	activity ActivityRecorder
	prompts  *prompt.Builder
	tasks    *tasks.Registry
	log      logrus.FieldLogger
	now      func() time.Time
	cfg      Config
}

func New(d Deps, cfg Config) (*Service, error) {
	switch {
	case d.Quizzes == nil:
		return nil, errors.New("generation: quiz store is required")
	case d.Users == nil:
		return nil, errors.New("generation: user store is required")
	case d.Quota == nil:
		return nil, errors.New("generation: quota ledger is required")
	case d.AI == nil:
		return nil, errors.New("generation: model client is required")
	}

	def := DefaultConfig()
	if cfg.Ceilings == nil {
		cfg.Ceilings = def.Ceilings
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = def.HealthTimeout
	}

	s := &Service{
		quizzes:  d.Quizzes,
		users:    d.Users,
		quota:    d.Quota,
		ai:       d.AI,
		cache:    d.Cache,
		activity: d.Activity,
		prompts:  d.Prompts,
		tasks:    d.Tasks,
		log:      d.Log,
		now:      d.Now,
		cfg:      cfg,
	}
	if s.cache == nil {
		s.cache = noCache{}
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.prompts == nil {
		s.prompts = prompt.NewBuilder(s.cache, prompt.WithTTL(cfg.PromptCacheTTL), prompt.WithLogger(s.log))
	}
	if s.tasks == nil {
		s.tasks = tasks.NewRegistry()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Tasks returns the registry tracking this service's work.
func (s *Service) Tasks() *tasks.Registry {
	return s.tasks
}

// day returns the quota day of t in the configured location.
func (s *Service) day(t time.Time) string {
	return t.In(s.cfg.Location).Format(time.DateOnly)
}

// midnight returns the start of t's quota day.
func (s *Service) midnight(t time.Time) time.Time {
	t = t.In(s.cfg.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.cfg.Location)
}

// noCache is used when no cache is configured; every lookup misses.
type noCache struct{}

func (noCache) Get(context.Context, string) (any, bool, error)        { return nil, false, nil }
func (noCache) Set(context.Context, string, any, time.Duration) error { return nil }
func (noCache) Delete(context.Context, string) error                  { return nil }
func (noCache) InvalidatePattern(context.Context, string) (int, error) {
	return 0, nil
}
