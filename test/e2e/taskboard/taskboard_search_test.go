package taskboard_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taskboardhq/taskboard/pkg/taskboardsdk"
)

// TestSearchVisibility verifies non-admins only ever see tasks they
// created or are assigned to, regardless of client-supplied filters.
func TestSearchVisibility(t *testing.T) {
	baseURL, cleanup := setupTaskboardContainer(t)
	defer cleanup()

	client := taskboardsdk.NewClient(baseURL)
	alice := registerUser(t, client, "Alice", "alice@taskboard.test")
	bob := registerUser(t, client, "Bob", "bob@taskboard.test")
	admin := loginAdmin(t, client)

	aliceTask := createTask(t, alice, "Alice work")
	createTask(t, bob, "Bob work")

	aliceUser, err := alice.Me(t.Context())
	require.NoError(t, err)

	// Bob sees only his own task
	page, err := bob.SearchTasks(t.Context(), taskboardsdk.TaskSearch{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Pagination.Total)
	require.Equal(t, "Bob work", page.Tasks[0].Title)

	// Bob cannot widen the scope by filtering on Alice's id
	page, err = bob.SearchTasks(t.Context(), taskboardsdk.TaskSearch{CreatedBy: aliceUser.ID})
	require.NoError(t, err)
	require.Zero(t, page.Pagination.Total, "Visibility filter is not bypassable")

	// The admin sees everything
	page, err = admin.SearchTasks(t.Context(), taskboardsdk.TaskSearch{})
	require.NoError(t, err)
	require.Equal(t, 2, page.Pagination.Total)

	// Assignment makes a task visible
	bobUser, err := bob.Me(t.Context())
	require.NoError(t, err)
	_, err = alice.UpdateTask(t.Context(), aliceTask.ID, taskboardsdk.TaskUpdateRequest{
		AssignedTo: &bobUser.ID,
	})
	require.NoError(t, err)

	page, err = bob.SearchTasks(t.Context(), taskboardsdk.TaskSearch{})
	require.NoError(t, err)
	require.Equal(t, 2, page.Pagination.Total, "Assigned task becomes visible")

	t.Logf("Search visibility verified")
}

// TestSearchFiltersAndPagination exercises text search, status and tag
// filters, archived exclusion, and offset pagination.
func TestSearchFiltersAndPagination(t *testing.T) {
	baseURL, cleanup := setupTaskboardContainer(t)
	defer cleanup()

	client := taskboardsdk.NewClient(baseURL)
	session := registerUser(t, client, "Searcher", "searcher@taskboard.test")

	_, err := session.CreateTask(t.Context(), taskboardsdk.TaskCreateRequest{
		Title: "Close the books", Priority: "high", Tags: []string{"finance"},
	})
	require.NoError(t, err)
	_, err = session.CreateTask(t.Context(), taskboardsdk.TaskCreateRequest{
		Title: "Audit the books", Priority: "low", Tags: []string{"finance", "audit"},
	})
	require.NoError(t, err)
	_, err = session.CreateTask(t.Context(), taskboardsdk.TaskCreateRequest{
		Title: "Plan the offsite", Tags: []string{"people"},
	})
	require.NoError(t, err)
	archived, err := session.CreateTask(t.Context(), taskboardsdk.TaskCreateRequest{
		Title: "Old initiative",
	})
	require.NoError(t, err)

	yes := true
	_, err = session.UpdateTask(t.Context(), archived.ID, taskboardsdk.TaskUpdateRequest{
		Archived: &yes,
	})
	require.NoError(t, err)

	// Text search matches title substrings case-insensitively
	page, err := session.SearchTasks(t.Context(), taskboardsdk.TaskSearch{Search: "books"})
	require.NoError(t, err)
	require.Equal(t, 2, page.Pagination.Total)

	// Tag filter is any-of
	page, err = session.SearchTasks(t.Context(), taskboardsdk.TaskSearch{
		Tags: []string{"audit", "people"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, page.Pagination.Total)

	// Priority filter takes a set
	page, err = session.SearchTasks(t.Context(), taskboardsdk.TaskSearch{
		Priority: []string{"high", "low"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, page.Pagination.Total)

	// Archived tasks are hidden unless asked for
	page, err = session.SearchTasks(t.Context(), taskboardsdk.TaskSearch{})
	require.NoError(t, err)
	require.Equal(t, 3, page.Pagination.Total)

	page, err = session.SearchTasks(t.Context(), taskboardsdk.TaskSearch{IncludeArchived: true})
	require.NoError(t, err)
	require.Equal(t, 4, page.Pagination.Total)

	// Offset pagination with a sorted order
	page, err = session.SearchTasks(t.Context(), taskboardsdk.TaskSearch{
		IncludeArchived: true,
		SortBy:          "title",
		SortOrder:       "asc",
		Page:            1,
		Limit:           3,
	})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 3)
	require.Equal(t, "Audit the books", page.Tasks[0].Title)
	require.Equal(t, 4, page.Pagination.Total)
	require.Equal(t, 2, page.Pagination.Pages)

	page, err = session.SearchTasks(t.Context(), taskboardsdk.TaskSearch{
		IncludeArchived: true,
		SortBy:          "title",
		SortOrder:       "asc",
		Page:            2,
		Limit:           3,
	})
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)

	t.Logf("Search filters and pagination verified")
}

// TestTaskStats verifies the dashboard aggregates and their scoping.
func TestTaskStats(t *testing.T) {
	baseURL, cleanup := setupTaskboardContainer(t)
	defer cleanup()

	client := taskboardsdk.NewClient(baseURL)
	worker := registerUser(t, client, "Worker", "worker@taskboard.test")
	bystander := registerUser(t, client, "Bystander", "bystander@taskboard.test")
	admin := loginAdmin(t, client)

	createTask(t, worker, "One")
	done, err := worker.CreateTask(t.Context(), taskboardsdk.TaskCreateRequest{
		Title: "Two", Priority: "urgent",
	})
	require.NoError(t, err)
	createTask(t, bystander, "Three")

	completed := "completed"
	_, err = worker.UpdateTask(t.Context(), done.ID, taskboardsdk.TaskUpdateRequest{
		Status: &completed,
	})
	require.NoError(t, err)

	// Non-admin stats cover only the caller's tasks
	stats, err := worker.TaskStats(t.Context())
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalTasks)
	require.Equal(t, 1, stats.TasksByStatus["completed"])
	require.Equal(t, 1, stats.TasksByStatus["pending"])
	require.Equal(t, 1, stats.TasksByPriority["urgent"])
	require.Equal(t, 1, stats.CompletedThisWeek)

	// Admin stats are global
	stats, err = admin.TaskStats(t.Context())
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalTasks)

	t.Logf("Stats verified: %+v", stats)
}
