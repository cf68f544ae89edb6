package taskboard_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/taskboardhq/taskboard/pkg/taskboardsdk"
)

// TestTaskCreateDefaults verifies defaulting and tag normalization on
// creation.
func TestTaskCreateDefaults(t *testing.T) {
	baseURL, cleanup := setupTaskboardContainer(t)
	defer cleanup()

	client := taskboardsdk.NewClient(baseURL)
	session := registerUser(t, client, "Creator", "creator@taskboard.test")

	task, err := session.CreateTask(t.Context(), taskboardsdk.TaskCreateRequest{
		Title: "Write the quarterly report",
		Tags:  []string{"Work", " REPORTS "},
	})
	require.NoError(t, err)
	require.Equal(t, "pending", task.Status)
	require.Equal(t, "medium", task.Priority)
	require.Equal(t, []string{"work", "reports"}, task.Tags, "Tags lowercased and trimmed")
	require.Empty(t, task.AssignedTo)

	me, err := session.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, me.ID, task.CreatedBy)

	// A due date in the past is rejected at creation time
	past := time.Now().Add(-24 * time.Hour)
	_, err = session.CreateTask(t.Context(), taskboardsdk.TaskCreateRequest{
		Title:   "Time travel",
		DueDate: &past,
	})
	require.Error(t, err)
	require.True(t, taskboardsdk.IsValidation(err), "Past due date should be a validation failure")

	t.Logf("Task creation defaults verified")
}

// TestTaskStatusCompletion verifies the completedAt invariant across
// status transitions.
func TestTaskStatusCompletion(t *testing.T) {
	baseURL, cleanup := setupTaskboardContainer(t)
	defer cleanup()

	client := taskboardsdk.NewClient(baseURL)
	session := registerUser(t, client, "Finisher", "finisher@taskboard.test")

	task := createTask(t, session, "Ship the release")
	require.Nil(t, task.CompletedAt)

	completed := "completed"
	task, err := session.UpdateTask(t.Context(), task.ID, taskboardsdk.TaskUpdateRequest{
		Status: &completed,
	})
	require.NoError(t, err)
	require.NotNil(t, task.CompletedAt, "Completion should stamp completedAt")

	pending := "pending"
	task, err = session.UpdateTask(t.Context(), task.ID, taskboardsdk.TaskUpdateRequest{
		Status: &pending,
	})
	require.NoError(t, err)
	require.Nil(t, task.CompletedAt, "Reopening should clear completedAt")

	t.Logf("completedAt invariant verified")
}

// TestTaskOwnershipPolicy verifies who may view, modify, and delete a
// task.
func TestTaskOwnershipPolicy(t *testing.T) {
	baseURL, cleanup := setupTaskboardContainer(t)
	defer cleanup()

	client := taskboardsdk.NewClient(baseURL)
	owner := registerUser(t, client, "Owner", "owner@taskboard.test")
	helper := registerUser(t, client, "Helper", "helper@taskboard.test")
	outsider := registerUser(t, client, "Outsider", "outsider@taskboard.test")
	admin := loginAdmin(t, client)

	helperUser, err := helper.Me(t.Context())
	require.NoError(t, err)

	task, err := owner.CreateTask(t.Context(), taskboardsdk.TaskCreateRequest{
		Title:      "Shared work item",
		AssignedTo: helperUser.ID,
	})
	require.NoError(t, err)

	// An uninvolved user can neither view nor modify
	_, err = outsider.GetTask(t.Context(), task.ID)
	assertForbidden(t, err, "Outsider viewing a task")

	title := "hijacked"
	_, err = outsider.UpdateTask(t.Context(), task.ID, taskboardsdk.TaskUpdateRequest{Title: &title})
	assertForbidden(t, err, "Outsider updating a task")

	// The assignee may modify but not delete
	inProgress := "in_progress"
	_, err = helper.UpdateTask(t.Context(), task.ID, taskboardsdk.TaskUpdateRequest{Status: &inProgress})
	require.NoError(t, err, "Assignee should be able to update")

	err = helper.DeleteTask(t.Context(), task.ID)
	assertForbidden(t, err, "Assignee deleting a task")

	// The admin may do anything
	_, err = admin.GetTask(t.Context(), task.ID)
	require.NoError(t, err, "Admin should see any task")

	// The creator may delete
	require.NoError(t, owner.DeleteTask(t.Context(), task.ID))

	_, err = owner.GetTask(t.Context(), task.ID)
	require.True(t, taskboardsdk.IsNotFound(err), "Deleted task should be gone")

	t.Logf("Ownership policy verified")
}

// TestTaskAssignmentRules verifies assignment validation and unassignment.
func TestTaskAssignmentRules(t *testing.T) {
	baseURL, cleanup := setupTaskboardContainer(t)
	defer cleanup()

	client := taskboardsdk.NewClient(baseURL)
	session := registerUser(t, client, "Assigner", "assigner@taskboard.test")

	// Unknown assignee is rejected
	_, err := session.CreateTask(t.Context(), taskboardsdk.TaskCreateRequest{
		Title:      "Orphan work",
		AssignedTo: "does-not-exist",
	})
	require.Error(t, err, "Unknown assignee should be rejected")

	task := createTask(t, session, "Reassignable work")

	me, err := session.Me(t.Context())
	require.NoError(t, err)

	assignee := me.ID
	task, err = session.UpdateTask(t.Context(), task.ID, taskboardsdk.TaskUpdateRequest{
		AssignedTo: &assignee,
	})
	require.NoError(t, err)
	require.Equal(t, me.ID, task.AssignedTo)

	// Empty assignedTo unassigns
	none := ""
	task, err = session.UpdateTask(t.Context(), task.ID, taskboardsdk.TaskUpdateRequest{
		AssignedTo: &none,
	})
	require.NoError(t, err)
	require.Empty(t, task.AssignedTo)

	t.Logf("Assignment rules verified")
}
