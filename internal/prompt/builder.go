// Package prompt turns generation parameters into the instruction text sent
// to the model. Output is deterministic so it can be cached by fingerprint.
package prompt

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/quizgen/internal/cache"
	"github.com/abhisek/quizgen/internal/quiz"
)

// DefaultTTL is how long a built prompt stays cached.
const DefaultTTL = 30 * time.Minute

// Params are the generation parameters a prompt depends on.
type Params struct {
	Content           string            `json:"content"`
	QuestionType      quiz.QuestionType `json:"questionType"`
	NumberOfQuestions int               `json:"numberOfQuestions"`
	Difficulty        quiz.Difficulty   `json:"difficulty"`
	Language          string            `json:"language"`
	Title             string            `json:"title,omitempty"`
	Topic             string            `json:"topic,omitempty"`
}

// ParamsFromRequest extracts the prompt-relevant fields of a request.
func ParamsFromRequest(r quiz.GenerationRequest) Params {
	return Params{
		Content:           r.Content,
		QuestionType:      r.QuestionType,
		NumberOfQuestions: r.NumberOfQuestions,
		Difficulty:        r.Difficulty,
		Language:          r.Language,
		Title:             r.Title,
		Topic:             r.Topic,
	}
}

// Normalize fills defaults and trims whitespace.
func (p Params) Normalize() Params {
	p.Content = strings.TrimSpace(p.Content)
	p.Title = strings.TrimSpace(p.Title)
	p.Topic = strings.TrimSpace(p.Topic)
	p.Language = strings.ToLower(strings.TrimSpace(p.Language))
	if p.Language == "" {
		p.Language = quiz.DefaultLanguage
	}
	if p.Difficulty == "" {
		p.Difficulty = quiz.DifficultyMedium
	}
	if p.QuestionType == "" {
		p.QuestionType = quiz.TypeMultipleChoice
	}
	return p
}

// Key returns the cache key of the normalized params.
func (p Params) Key() string {
	return "prompt:" + fingerprint("generation", p.Normalize())
}

// Target is one question selected for regeneration.
type Target struct {
	Index int               `json:"index"`
	Text  string            `json:"text"`
	Type  quiz.QuestionType `json:"type"`
}

// RegenerationParams describe a partial regeneration of an existing quiz.
type RegenerationParams struct {
	Title         string          `json:"title"`
	Language      string          `json:"language"`
	Difficulty    quiz.Difficulty `json:"difficulty"`
	SourceExcerpt string          `json:"sourceExcerpt,omitempty"`
	Targets       []Target        `json:"targets"`
}

// Normalize fills defaults and bounds the source excerpt.
func (p RegenerationParams) Normalize() RegenerationParams {
	p.Title = strings.TrimSpace(p.Title)
	p.Language = strings.ToLower(strings.TrimSpace(p.Language))
	if p.Language == "" {
		p.Language = quiz.DefaultLanguage
	}
	p.SourceExcerpt = Excerpt(p.SourceExcerpt)
	return p
}

// Key returns the cache key of the normalized params.
func (p RegenerationParams) Key() string {
	return "prompt:" + fingerprint("regeneration", p.Normalize())
}

// fingerprint hashes the canonical JSON encoding of v. Struct fields encode
// in declaration order, so equal values give equal digests.
func fingerprint(kind string, v any) string {
	data, err := json.Marshal(struct {
		Kind   string `json:"kind"`
		Params any    `json:"params"`
	}{kind, v})
	if err != nil {
		// Params contain only strings and ints.
		panic("prompt: fingerprint: " + err.Error())
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Builder builds prompts, consulting the cache first.
type Builder struct {
	cache  cache.Cache
	ttl    time.Duration
	log    logrus.FieldLogger
	builds atomic.Int64
}

// Option configures a Builder.
type Option func(*Builder)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(b *Builder) {
		if ttl > 0 {
			b.ttl = ttl
		}
	}
}

// WithLogger sets the logger used for cache warnings.
func WithLogger(log logrus.FieldLogger) Option {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

// NewBuilder creates a Builder. A nil cache disables caching.
func NewBuilder(c cache.Cache, opts ...Option) *Builder {
	b := &Builder{
		cache: c,
		ttl:   DefaultTTL,
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns the generation prompt for p.
func (b *Builder) Build(ctx context.Context, p Params) string {
	n := p.Normalize()
	return b.cached(ctx, n.Key(), func() string { return composeGeneration(n) })
}

// BuildRegeneration returns the prompt asking for replacements of p.Targets.
func (b *Builder) BuildRegeneration(ctx context.Context, p RegenerationParams) string {
	n := p.Normalize()
	return b.cached(ctx, n.Key(), func() string { return composeRegeneration(n) })
}

// Builds returns how many prompts were composed instead of served from cache.
func (b *Builder) Builds() int64 {
	return b.builds.Load()
}

func (b *Builder) cached(ctx context.Context, key string, compose func() string) string {
	if b.cache != nil {
		v, ok, err := b.cache.Get(ctx, key)
		switch {
		case err != nil:
			b.log.WithError(err).WithField("key", key).Warn("prompt cache read failed")
		case ok:
			if s, isString := v.(string); isString {
				return s
			}
		}
	}

	text := compose()
	b.builds.Add(1)

	if b.cache != nil {
		if err := b.cache.Set(ctx, key, text, b.ttl); err != nil {
			b.log.WithError(err).WithField("key", key).Warn("prompt cache write failed")
		}
	}
	return text
}
