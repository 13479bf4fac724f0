package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizgen/internal/quiz"
	"github.com/abhisek/quizgen/internal/store"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("boom"), 1},
		{&quiz.ValidationError{Field: "content"}, 2},
		{fmt.Errorf("wrapped: %w", &quiz.AuthorizationError{UserID: "u"}), 3},
		{&quiz.NotFoundError{Resource: "quiz", ID: "q"}, 4},
		{&quiz.AIServiceError{Kind: "timeout"}, 5},
		{&quiz.CancelledError{TaskID: "t"}, 130},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "%v", tt.err)
	}
}

func TestParseIndices(t *testing.T) {
	got, err := parseIndices(" 1, 3,,4 ")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 4}, got)

	_, err = parseIndices("1,x")
	assert.Error(t, err)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestUsersAdd(t *testing.T) {
	db := filepath.Join(t.TempDir(), "quizgen.db")

	out, err := execute(t, "--db", db, "users", "add", "alice", "--role", "teacher")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved alice (teacher, active)")

	s, err := store.Open(db)
	require.NoError(t, err)
	defer s.Close()
	u, err := s.FindUser(t.Context(), "alice")
	require.NoError(t, err)
	assert.Equal(t, quiz.RoleTeacher, u.Role)
}

func TestUsersAdd_InvalidRole(t *testing.T) {
	db := filepath.Join(t.TempDir(), "quizgen.db")
	_, err := execute(t, "--db", db, "users", "add", "bob", "--role", "janitor")
	assert.Equal(t, 2, ExitCode(err))
}

func TestQuizzesShare_UnknownQuiz(t *testing.T) {
	db := filepath.Join(t.TempDir(), "quizgen.db")
	_, err := execute(t, "--db", db, "quizzes", "share", "missing", "alice")
	assert.Equal(t, 4, ExitCode(err))
}

func TestLLMList_Empty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "quizgen.db")
	out, err := execute(t, "--db", db, "llm", "list", "--task", "none")
	require.NoError(t, err)
	assert.Contains(t, out, "No model calls found.")
}

func TestUsersList(t *testing.T) {
	db := filepath.Join(t.TempDir(), "quizgen.db")
	_, err := execute(t, "--db", db, "users", "add", "carol", "--role", "admin")
	require.NoError(t, err)

	out, err := execute(t, "--db", db, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "carol")
	assert.Contains(t, out, "admin")
}

func TestGenerateTimeoutOptIn(t *testing.T) {
	f := generateCmd.Flags().Lookup("timeout")
	require.NotNil(t, f)
	assert.Equal(t, "0s", f.DefValue, "no end-to-end deadline unless asked for")
}
