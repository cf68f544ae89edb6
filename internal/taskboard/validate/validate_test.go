package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fields(e Errors) []string {
	out := make([]string, len(e))
	for i, fe := range e {
		out[i] = fe.Field
	}
	return out
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("valid input passes", func(t *testing.T) {
		e := Register(RegisterInput{Name: "Jane Doe", Email: "jane@example.com", Password: "secret1"})
		require.True(t, e.Ok())
	})

	t.Run("missing everything reports each field", func(t *testing.T) {
		e := Register(RegisterInput{})
		require.ElementsMatch(t, []string{"name", "email", "password"}, fields(e))
	})

	t.Run("name must be letters and spaces", func(t *testing.T) {
		e := Register(RegisterInput{Name: "x33l", Email: "a@b.co", Password: "secret1"})
		require.Equal(t, []string{"name"}, fields(e))
	})

	t.Run("password needs a letter and a digit", func(t *testing.T) {
		e := Register(RegisterInput{Name: "Jane", Email: "a@b.co", Password: "abcdefg"})
		require.Equal(t, []string{"password"}, fields(e))

		e = Register(RegisterInput{Name: "Jane", Email: "a@b.co", Password: "1234567"})
		require.Equal(t, []string{"password"}, fields(e))
	})

	t.Run("bad email rejected", func(t *testing.T) {
		e := Register(RegisterInput{Name: "Jane", Email: "not-an-email", Password: "secret1"})
		require.Equal(t, []string{"email"}, fields(e))
	})
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	e := ChangePassword(ChangePasswordInput{CurrentPassword: "secret1", NewPassword: "secret1"})
	require.Equal(t, []string{"newPassword"}, fields(e))

	e = ChangePassword(ChangePasswordInput{CurrentPassword: "secret1", NewPassword: "secret2"})
	require.True(t, e.Ok())
}

func TestTaskCreate(t *testing.T) {
	t.Parallel()

	now := time.Now()
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	t.Run("minimal valid task", func(t *testing.T) {
		e := TaskCreate(TaskCreateInput{Title: "Ship it"}, now)
		require.True(t, e.Ok())
	})

	t.Run("title bounds", func(t *testing.T) {
		e := TaskCreate(TaskCreateInput{Title: "ab"}, now)
		require.Equal(t, []string{"title"}, fields(e))

		e = TaskCreate(TaskCreateInput{Title: strings.Repeat("x", 101)}, now)
		require.Equal(t, []string{"title"}, fields(e))
	})

	t.Run("due date must be in the future at creation", func(t *testing.T) {
		e := TaskCreate(TaskCreateInput{Title: "Ship it", DueDate: &past}, now)
		require.Equal(t, []string{"dueDate"}, fields(e))

		e = TaskCreate(TaskCreateInput{Title: "Ship it", DueDate: &future}, now)
		require.True(t, e.Ok())
	})

	t.Run("enum membership", func(t *testing.T) {
		e := TaskCreate(TaskCreateInput{Title: "Ship it", Status: "done", Priority: "asap"}, now)
		require.ElementsMatch(t, []string{"status", "priority"}, fields(e))
	})

	t.Run("hours bounds", func(t *testing.T) {
		h := float64(2000)
		e := TaskCreate(TaskCreateInput{Title: "Ship it", EstimatedHours: &h}, now)
		require.Equal(t, []string{"estimatedHours"}, fields(e))
	})

	t.Run("tag length", func(t *testing.T) {
		e := TaskCreate(TaskCreateInput{Title: "Ship it", Tags: []string{strings.Repeat("t", 21)}}, now)
		require.Equal(t, []string{"tags"}, fields(e))
	})
}

// The original system only enforces due-date-in-the-future on create;
// updates may set any due date. The asymmetry is intentional.
func TestTaskUpdateAllowsPastDueDate(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-24 * time.Hour)
	e := TaskUpdate(TaskUpdateInput{DueDate: &past})
	require.True(t, e.Ok())
}

func TestTaskUpdateOptionalFields(t *testing.T) {
	t.Parallel()

	require.True(t, TaskUpdate(TaskUpdateInput{}).Ok())

	bad := "done"
	e := TaskUpdate(TaskUpdateInput{Status: &bad})
	require.Equal(t, []string{"status"}, fields(e))

	h := -1.0
	e = TaskUpdate(TaskUpdateInput{ActualHours: &h})
	require.Equal(t, []string{"actualHours"}, fields(e))
}

func TestComment(t *testing.T) {
	t.Parallel()

	require.True(t, Comment("looks good").Ok())
	require.Equal(t, []string{"text"}, fields(Comment("  ")))
	require.Equal(t, []string{"text"}, fields(Comment(strings.Repeat("c", 501))))
}

func TestErrorsError(t *testing.T) {
	t.Parallel()

	e := Errors{{Field: "title", Message: "Title is required"}}
	require.Contains(t, e.Error(), "title: Title is required")
}
