package service

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskboardhq/taskboard/internal/taskboard/blob"
	"github.com/taskboardhq/taskboard/internal/taskboard/domain"
	"github.com/taskboardhq/taskboard/internal/taskboard/store"
	"github.com/taskboardhq/taskboard/internal/taskboard/store/drivers/sqlite"
	"github.com/taskboardhq/taskboard/internal/taskboard/validate"
	"github.com/taskboardhq/taskboard/pkg/idx"
)

type taskFixture struct {
	tasks *TaskService
	users *UserService
	store *sqlite.Store

	admin  domain.User
	owner  domain.User
	helper domain.User
	other  domain.User
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "task_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	blobs, err := blob.NewFS(t.TempDir(), "/uploads")
	require.NoError(t, err)

	f := &taskFixture{
		tasks: &TaskService{Store: st, Blobs: blobs},
		users: &UserService{Store: st},
		store: st,
	}
	f.admin = f.seedUser(t, "Admin Person", "admin@example.com", domain.RoleAdmin, true)
	f.owner = f.seedUser(t, "Owner Person", "owner@example.com", domain.RoleUser, true)
	f.helper = f.seedUser(t, "Helper Person", "helper@example.com", domain.RoleUser, true)
	f.other = f.seedUser(t, "Other Person", "other@example.com", domain.RoleUser, true)
	return f
}

func (f *taskFixture) seedUser(t *testing.T, name, email string, role domain.Role, active bool) domain.User {
	t.Helper()

	u := domain.User{
		ID:           idx.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: "argon2:dummy",
		Role:         role,
		Active:       active,
	}
	require.NoError(t, f.store.Users().CreateUser(context.Background(), u))
	return u
}

func (f *taskFixture) createTask(t *testing.T, in validate.TaskCreateInput) domain.Task {
	t.Helper()

	if in.Title == "" {
		in.Title = "fixture task"
	}
	task, err := f.tasks.Create(context.Background(), f.owner.ID, in)
	require.NoError(t, err)
	return task
}

func TestTaskCreate(t *testing.T) {
	t.Parallel()

	f := newTaskFixture(t)
	ctx := context.Background()

	t.Run("defaults applied", func(t *testing.T) {
		task := f.createTask(t, validate.TaskCreateInput{Title: "minimal task"})
		require.Equal(t, domain.StatusPending, task.Status)
		require.Equal(t, domain.PriorityMedium, task.Priority)
		require.Equal(t, f.owner.ID, task.CreatedBy)
		require.Empty(t, task.AssignedTo)
	})

	t.Run("tags normalized", func(t *testing.T) {
		task := f.createTask(t, validate.TaskCreateInput{
			Title: "tagged task",
			Tags:  []string{"  Finance ", "URGENT", ""},
		})
		require.Equal(t, []string{"finance", "urgent"}, task.Tags)
	})

	t.Run("completed at creation stamps CompletedAt", func(t *testing.T) {
		task := f.createTask(t, validate.TaskCreateInput{
			Title:  "done already",
			Status: "completed",
		})
		require.NotNil(t, task.CompletedAt)
	})

	t.Run("past due date rejected", func(t *testing.T) {
		past := time.Now().UTC().Add(-time.Hour)
		_, err := f.tasks.Create(ctx, f.owner.ID, validate.TaskCreateInput{
			Title:   "late before it starts",
			DueDate: &past,
		})
		var verrs validate.Errors
		require.ErrorAs(t, err, &verrs)
		require.Equal(t, "dueDate", verrs[0].Field)
	})

	t.Run("unknown assignee rejected", func(t *testing.T) {
		_, err := f.tasks.Create(ctx, f.owner.ID, validate.TaskCreateInput{
			Title:      "assigned to nobody",
			AssignedTo: idx.New().String(),
		})
		require.ErrorIs(t, err, ErrAssigneeNotFound)
	})

	t.Run("inactive assignee rejected", func(t *testing.T) {
		inactive := f.seedUser(t, "Inactive Person", "inactive@example.com", domain.RoleUser, false)
		_, err := f.tasks.Create(ctx, f.owner.ID, validate.TaskCreateInput{
			Title:      "assigned to a ghost",
			AssignedTo: inactive.ID,
		})
		require.ErrorIs(t, err, ErrAssigneeInactive)
	})
}

func TestTaskOwnershipPolicy(t *testing.T) {
	t.Parallel()

	f := newTaskFixture(t)
	ctx := context.Background()
	task := f.createTask(t, validate.TaskCreateInput{
		Title:      "policy task",
		AssignedTo: f.helper.ID,
	})

	t.Run("uninvolved user cannot see the task", func(t *testing.T) {
		_, err := f.tasks.Get(ctx, f.other.ID, domain.RoleUser, task.ID)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("assignee can update but not delete", func(t *testing.T) {
		title := "renamed by assignee"
		_, err := f.tasks.Update(ctx, f.helper.ID, domain.RoleUser, task.ID, validate.TaskUpdateInput{Title: &title})
		require.NoError(t, err)

		err = f.tasks.Delete(ctx, f.helper.ID, domain.RoleUser, task.ID)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admin can do anything", func(t *testing.T) {
		_, err := f.tasks.Get(ctx, f.admin.ID, domain.RoleAdmin, task.ID)
		require.NoError(t, err)
	})

	t.Run("creator can delete", func(t *testing.T) {
		err := f.tasks.Delete(ctx, f.owner.ID, domain.RoleUser, task.ID)
		require.NoError(t, err)
		_, err = f.tasks.Get(ctx, f.owner.ID, domain.RoleUser, task.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestTaskUpdate(t *testing.T) {
	t.Parallel()

	f := newTaskFixture(t)
	ctx := context.Background()

	t.Run("status round trip maintains CompletedAt", func(t *testing.T) {
		task := f.createTask(t, validate.TaskCreateInput{Title: "round trip"})

		completed := "completed"
		got, err := f.tasks.Update(ctx, f.owner.ID, domain.RoleUser, task.ID, validate.TaskUpdateInput{Status: &completed})
		require.NoError(t, err)
		require.NotNil(t, got.CompletedAt)

		pending := "pending"
		got, err = f.tasks.Update(ctx, f.owner.ID, domain.RoleUser, task.ID, validate.TaskUpdateInput{Status: &pending})
		require.NoError(t, err)
		require.Nil(t, got.CompletedAt)
	})

	t.Run("past due date allowed on update", func(t *testing.T) {
		task := f.createTask(t, validate.TaskCreateInput{Title: "due date shuffle"})
		past := time.Now().UTC().Add(-time.Hour)
		got, err := f.tasks.Update(ctx, f.owner.ID, domain.RoleUser, task.ID, validate.TaskUpdateInput{DueDate: &past})
		require.NoError(t, err)
		require.NotNil(t, got.DueDate)
	})

	t.Run("unassign with empty pointer", func(t *testing.T) {
		task := f.createTask(t, validate.TaskCreateInput{
			Title:      "assigned then not",
			AssignedTo: f.helper.ID,
		})
		empty := ""
		got, err := f.tasks.Update(ctx, f.owner.ID, domain.RoleUser, task.ID, validate.TaskUpdateInput{AssignedTo: &empty})
		require.NoError(t, err)
		require.Empty(t, got.AssignedTo)
	})

	t.Run("archive hides from default search", func(t *testing.T) {
		task := f.createTask(t, validate.TaskCreateInput{Title: "soon archived"})
		archived := true
		_, err := f.tasks.Update(ctx, f.owner.ID, domain.RoleUser, task.ID, validate.TaskUpdateInput{Archived: &archived})
		require.NoError(t, err)

		page, err := f.tasks.Search(ctx, f.owner.ID, domain.RoleUser, domain.TaskFilter{}, domain.PageOptions{})
		require.NoError(t, err)
		for _, got := range page.Tasks {
			require.NotEqual(t, task.ID, got.ID)
		}
	})
}

func TestTaskSearchVisibility(t *testing.T) {
	t.Parallel()

	f := newTaskFixture(t)
	ctx := context.Background()

	mine := f.createTask(t, validate.TaskCreateInput{Title: "mine alone"})
	foreign, err := f.tasks.Create(ctx, f.other.ID, validate.TaskCreateInput{Title: "someone else's"})
	require.NoError(t, err)

	t.Run("non-admin sees only involved tasks", func(t *testing.T) {
		page, err := f.tasks.Search(ctx, f.owner.ID, domain.RoleUser, domain.TaskFilter{}, domain.PageOptions{})
		require.NoError(t, err)
		require.Len(t, page.Tasks, 1)
		require.Equal(t, mine.ID, page.Tasks[0].ID)
	})

	t.Run("non-admin cannot widen via filters", func(t *testing.T) {
		page, err := f.tasks.Search(ctx, f.owner.ID, domain.RoleUser, domain.TaskFilter{
			CreatedBy: f.other.ID,
		}, domain.PageOptions{})
		require.NoError(t, err)
		require.Empty(t, page.Tasks)
	})

	t.Run("admin sees everything", func(t *testing.T) {
		page, err := f.tasks.Search(ctx, f.admin.ID, domain.RoleAdmin, domain.TaskFilter{}, domain.PageOptions{})
		require.NoError(t, err)
		require.Equal(t, 2, page.Pagination.Total)
		require.Contains(t, taskIDs(page.Tasks), foreign.ID)
	})
}

func TestTaskComments(t *testing.T) {
	t.Parallel()

	f := newTaskFixture(t)
	ctx := context.Background()
	task := f.createTask(t, validate.TaskCreateInput{
		Title:      "commented task",
		AssignedTo: f.helper.ID,
	})

	got, err := f.tasks.AddComment(ctx, f.helper.ID, domain.RoleUser, task.ID, "on it")
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	commentID := got.Comments[0].ID

	t.Run("task owner cannot edit someone else's comment", func(t *testing.T) {
		_, err := f.tasks.UpdateComment(ctx, f.owner.ID, domain.RoleUser, task.ID, commentID, "rewritten")
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("author edits own comment", func(t *testing.T) {
		got, err := f.tasks.UpdateComment(ctx, f.helper.ID, domain.RoleUser, task.ID, commentID, "still on it")
		require.NoError(t, err)
		require.Equal(t, "still on it", got.Comments[0].Text)
	})

	t.Run("admin may delete any comment", func(t *testing.T) {
		got, err := f.tasks.DeleteComment(ctx, f.admin.ID, domain.RoleAdmin, task.ID, commentID)
		require.NoError(t, err)
		require.Empty(t, got.Comments)
	})

	t.Run("missing comment", func(t *testing.T) {
		_, err := f.tasks.DeleteComment(ctx, f.admin.ID, domain.RoleAdmin, task.ID, idx.New().String())
		require.ErrorIs(t, err, ErrCommentNotFound)
	})

	t.Run("uninvolved user cannot comment", func(t *testing.T) {
		_, err := f.tasks.AddComment(ctx, f.other.ID, domain.RoleUser, task.ID, "drive-by")
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("empty comment rejected", func(t *testing.T) {
		_, err := f.tasks.AddComment(ctx, f.owner.ID, domain.RoleUser, task.ID, "   ")
		var verrs validate.Errors
		require.ErrorAs(t, err, &verrs)
	})
}

func TestTaskAttachments(t *testing.T) {
	t.Parallel()

	f := newTaskFixture(t)
	ctx := context.Background()
	task := f.createTask(t, validate.TaskCreateInput{Title: "attachment task"})

	upload := func(name string) (domain.Task, error) {
		return f.tasks.AddAttachment(ctx, f.owner.ID, domain.RoleUser, task.ID,
			name, "text/plain", strings.NewReader("contents"))
	}

	t.Run("upload records metadata", func(t *testing.T) {
		got, err := upload("notes.txt")
		require.NoError(t, err)
		require.Len(t, got.Attachments, 1)
		att := got.Attachments[0]
		require.Equal(t, "notes.txt", att.OriginalName)
		require.EqualValues(t, 8, att.Size)
		require.Equal(t, f.owner.ID, att.UploadedBy)
		require.True(t, strings.HasPrefix(att.URL, "/uploads/"))
		require.True(t, strings.HasSuffix(att.Filename, ".txt"))
	})

	t.Run("cap enforced", func(t *testing.T) {
		_, err := upload("two.txt")
		require.NoError(t, err)
		_, err = upload("three.txt")
		require.NoError(t, err)

		_, err = upload("four.txt")
		require.ErrorIs(t, err, ErrAttachmentLimit)
	})

	t.Run("delete frees a slot", func(t *testing.T) {
		current, err := f.tasks.Get(ctx, f.owner.ID, domain.RoleUser, task.ID)
		require.NoError(t, err)

		got, err := f.tasks.DeleteAttachment(ctx, f.owner.ID, domain.RoleUser, task.ID, current.Attachments[0].ID)
		require.NoError(t, err)
		require.Len(t, got.Attachments, 2)

		_, err = upload("replacement.txt")
		require.NoError(t, err)
	})

	t.Run("missing attachment", func(t *testing.T) {
		_, err := f.tasks.DeleteAttachment(ctx, f.owner.ID, domain.RoleUser, task.ID, idx.New().String())
		require.ErrorIs(t, err, ErrAttachmentNotFound)
	})

	t.Run("uninvolved user cannot upload", func(t *testing.T) {
		_, err := f.tasks.AddAttachment(ctx, f.other.ID, domain.RoleUser, task.ID,
			"sneaky.txt", "text/plain", strings.NewReader("x"))
		require.ErrorIs(t, err, ErrForbidden)
	})
}

func TestTaskStats(t *testing.T) {
	t.Parallel()

	f := newTaskFixture(t)
	ctx := context.Background()

	f.createTask(t, validate.TaskCreateInput{Title: "pending one"})
	f.createTask(t, validate.TaskCreateInput{Title: "finished one", Status: "completed"})
	_, err := f.tasks.Create(ctx, f.other.ID, validate.TaskCreateInput{Title: "foreign one"})
	require.NoError(t, err)

	t.Run("scoped for regular users", func(t *testing.T) {
		stats, err := f.tasks.Stats(ctx, f.owner.ID, domain.RoleUser)
		require.NoError(t, err)
		require.Equal(t, 2, stats.TotalTasks)
		require.Equal(t, 1, stats.TasksByStatus[domain.StatusCompleted])
		require.Equal(t, 1, stats.CompletedThisWeek)
	})

	t.Run("global for admins", func(t *testing.T) {
		stats, err := f.tasks.Stats(ctx, f.admin.ID, domain.RoleAdmin)
		require.NoError(t, err)
		require.Equal(t, 3, stats.TotalTasks)
	})
}

func taskIDs(tasks []domain.Task) []string {
	ids := make([]string, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	return ids
}
