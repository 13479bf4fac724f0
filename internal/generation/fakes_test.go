package generation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/quizgen/internal/cache"
	"github.com/abhisek/quizgen/internal/llm"
	"github.com/abhisek/quizgen/internal/logging"
	"github.com/abhisek/quizgen/internal/quiz"
	"github.com/abhisek/quizgen/internal/store"
	"github.com/abhisek/quizgen/internal/tasks"
)

var testNow = time.Date(2026, 10, 19, 10, 30, 0, 0, time.UTC)

const testDay = "2026-10-19"

// fakeStore implements every store collaborator in memory and counts calls.
type fakeStore struct {
	mu            sync.Mutex
	quizzes       map[string]*quiz.Quiz
	users         map[string]*quiz.User
	usage         map[string]int
	collaborators map[string]bool
	activity      []store.ActivityEventData

	saveCalls    int
	updateCalls  int
	collabCalls  int
	releaseCalls int
	deleteCalls  int
	saveErr      error

	// afterWrite runs once a quiz insert or update has been stored.
	afterWrite func(quizID string)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		quizzes:       make(map[string]*quiz.Quiz),
		users:         make(map[string]*quiz.User),
		usage:         make(map[string]int),
		collaborators: make(map[string]bool),
	}
}

func (f *fakeStore) addUser(id string, role quiz.Role, status quiz.UserStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id] = &quiz.User{ID: id, Role: role, Status: status}
}

func (f *fakeStore) FindUser(_ context.Context, id string) (*quiz.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, &quiz.NotFoundError{Resource: "user", ID: id}
	}
	c := *u
	return &c, nil
}

func (f *fakeStore) FindQuiz(_ context.Context, id string) (*quiz.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quizzes[id]
	if !ok {
		return nil, &quiz.NotFoundError{Resource: "quiz", ID: id}
	}
	return q, nil
}

func (f *fakeStore) SaveQuiz(ctx context.Context, q *quiz.Quiz) error {
	f.mu.Lock()
	f.saveCalls++
	if f.saveErr != nil {
		f.mu.Unlock()
		return f.saveErr
	}
	if err := ctx.Err(); err != nil {
		f.mu.Unlock()
		return err
	}
	f.quizzes[q.ID] = q
	hook := f.afterWrite
	f.mu.Unlock()

	if hook != nil {
		hook(q.ID)
	}
	return nil
}

func (f *fakeStore) UpdateQuestions(ctx context.Context, q *quiz.Quiz) error {
	f.mu.Lock()
	f.updateCalls++
	if _, ok := f.quizzes[q.ID]; !ok {
		f.mu.Unlock()
		return &quiz.NotFoundError{Resource: "quiz", ID: q.ID}
	}
	f.quizzes[q.ID] = q
	hook := f.afterWrite
	f.mu.Unlock()

	if hook != nil {
		hook(q.ID)
	}
	return nil
}

func (f *fakeStore) DeleteQuiz(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	delete(f.quizzes, id)
	return nil
}

func (f *fakeStore) quizCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.quizzes)
}

func (f *fakeStore) CountGenerationsToday(_ context.Context, userID string, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, q := range f.quizzes {
		if q.UserID == userID && !q.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CheckCollaborator(_ context.Context, quizID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collabCalls++
	return f.collaborators[quizID+"|"+userID], nil
}

func (f *fakeStore) ReserveGeneration(_ context.Context, userID, day string, ceiling int) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := userID + "|" + day
	if f.usage[key] >= ceiling {
		return f.usage[key], false, nil
	}
	f.usage[key]++
	return f.usage[key], true, nil
}

func (f *fakeStore) ReleaseGeneration(_ context.Context, userID, day string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releaseCalls++
	key := userID + "|" + day
	if f.usage[key] > 0 {
		f.usage[key]--
	}
	return nil
}

func (f *fakeStore) GenerationUsage(_ context.Context, userID, day string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usage[userID+"|"+day], nil
}

func (f *fakeStore) setUsage(userID string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usage[userID+"|"+testDay] = n
}

func (f *fakeStore) usageOf(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usage[userID+"|"+testDay]
}

func (f *fakeStore) AppendActivity(_ context.Context, data store.ActivityEventData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activity = append(f.activity, data)
	return nil
}

func (f *fakeStore) lastActivity(t *testing.T) store.ActivityEventData {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.activity) == 0 {
		t.Fatal("no activity recorded")
	}
	return f.activity[len(f.activity)-1]
}

// statusLog records every task transition seen by the registry.
type statusLog struct {
	mu   sync.Mutex
	seen []tasks.Snapshot
}

func (l *statusLog) observe(s tasks.Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, s)
}

func (l *statusLog) statuses() []tasks.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]tasks.Status, len(l.seen))
	for i, s := range l.seen {
		out[i] = s.Status
	}
	return out
}

type harness struct {
	svc    *Service
	store  *fakeStore
	mock   *llm.MockProvider
	cache  *cache.Memory
	status *statusLog
}

type harnessOption func(*harness, *Deps, *Config)

func withInvoker(inv Invoker) harnessOption {
	return func(_ *harness, d *Deps, _ *Config) { d.AI = inv }
}

// withObserver adds fn after the harness' own status log.
func withObserver(fn tasks.Observer) harnessOption {
	return func(h *harness, d *Deps, _ *Config) {
		d.Tasks = tasks.NewRegistry(tasks.WithObserver(h.status.observe), tasks.WithObserver(fn))
	}
}

func withCeiling(role quiz.Role, n int) harnessOption {
	return func(_ *harness, _ *Deps, c *Config) {
		c.Ceilings = map[quiz.Role]int{quiz.RoleAdmin: 200, quiz.RoleTeacher: 50, quiz.RoleStudent: 10}
		c.Ceilings[role] = n
	}
}

func newHarness(t *testing.T, responses []llm.MockResponse, opts ...harnessOption) *harness {
	t.Helper()

	h := &harness{
		store:  newFakeStore(),
		mock:   llm.NewMockProvider(responses...),
		cache:  cache.NewMemory(time.Minute, time.Minute),
		status: &statusLog{},
	}
	h.store.addUser("u1", quiz.RoleTeacher, quiz.UserActive)
	h.store.addUser("u2", quiz.RoleStudent, quiz.UserActive)
	h.store.addUser("banned", quiz.RoleStudent, quiz.UserSuspended)

	client := llm.NewClient(h.mock, llm.ClientConfig{
		ProviderName: "mock",
		MaxAttempts:  3,
		BaseDelay:    time.Millisecond,
	},
		llm.WithSleep(func(context.Context, time.Duration) error { return nil }),
		llm.WithClientLogger(logging.Discard()),
	)

	cfg := DefaultConfig()
	cfg.Location = time.UTC
	deps := Deps{
		Quizzes:  h.store,
		Users:    h.store,
		Quota:    h.store,
		AI:       client,
		Cache:    h.cache,
		Activity: h.store,
		Tasks:    tasks.NewRegistry(tasks.WithObserver(h.status.observe)),
		Log:      logging.Discard(),
		Now:      func() time.Time { return testNow },
	}
	for _, opt := range opts {
		opt(h, &deps, &cfg)
	}

	svc, err := New(deps, cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	h.svc = svc
	return h
}

func mcQuestionJSON(i int) string {
	return fmt.Sprintf(`{"text": "Photosynthesis question %d?", "type": "multiple_choice", "options": ["Light", "Water", "Carbon dioxide", "Oxygen"], "correctAnswerIndex": %d, "explanation": "From the text."}`, i, i%4)
}

func mcQuizJSON(n int) string {
	qs := make([]string, n)
	for i := range qs {
		qs[i] = mcQuestionJSON(i)
	}
	return "```json\n" + `{"title": "Photosynthesis Basics", "description": "How plants make food", "questions": [` + strings.Join(qs, ", ") + "]}\n```"
}

func photosynthesisRequest() quiz.GenerationRequest {
	return quiz.GenerationRequest{
		Content:           "Photosynthesis basics: plants use sunlight, water and carbon dioxide to make glucose and release oxygen.",
		QuestionType:      quiz.TypeMultipleChoice,
		NumberOfQuestions: 5,
		Difficulty:        quiz.DifficultyMedium,
		Language:          "en",
		UserID:            "u1",
	}
}

func intPtr(n int) *int { return &n }

// seedQuiz stores a five question multiple choice quiz owned by u1.
func (h *harness) seedQuiz(id string) *quiz.Quiz {
	qs := make([]quiz.Question, 5)
	for i := range qs {
		qs[i] = quiz.Question{
			Text:               fmt.Sprintf("Original question %d", i),
			Type:               quiz.TypeMultipleChoice,
			Options:            []string{"a", "b", "c", "d"},
			CorrectAnswerIndex: intPtr(i % 4),
		}
	}
	q := &quiz.Quiz{
		ID:         id,
		Title:      "Cells",
		Questions:  qs,
		UserID:     "u1",
		Source:     quiz.SourceText,
		Language:   "en",
		Difficulty: quiz.DifficultyMedium,
		CreatedAt:  testNow.Add(-time.Hour),
		UpdatedAt:  testNow.Add(-time.Hour),
		Version:    1,
		Statistics: quiz.ComputeStatistics(qs),
	}
	h.store.mu.Lock()
	h.store.quizzes[id] = q
	h.store.mu.Unlock()
	return q
}
