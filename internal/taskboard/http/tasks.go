package http

import (
	"net/http"
	"time"

	"github.com/taskboardhq/taskboard/internal/taskboard/domain"
	"github.com/taskboardhq/taskboard/internal/taskboard/service"
	"github.com/taskboardhq/taskboard/internal/taskboard/validate"
	"github.com/taskboardhq/taskboard/pkg/httpx"
	"github.com/taskboardhq/taskboard/pkg/taskboardsdk"
)

type TasksHandler struct {
	TaskService *service.TaskService
	DevMode     bool
}

func actor(r *http.Request) (string, domain.Role) {
	ctx := r.Context()
	return httpx.UserIDFromCtx(ctx), domain.Role(httpx.RoleFromCtx(ctx))
}

// HandleCreate creates a task owned by the caller.
//
//	@Summary		Create a task
//	@Tags			Tasks
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		taskboardsdk.TaskCreateRequest	true	"Task fields"
//	@Success		201		{object}	taskboardsdk.Task
//	@Failure		400		{object}	taskboardsdk.APIError	"Validation failure or bad assignee"
//	@Router			/api/tasks [post].
func (h *TasksHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req taskboardsdk.TaskCreateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	actorID, _ := actor(r)
	task, err := h.TaskService.Create(r.Context(), actorID, validate.TaskCreateInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		DueDate:        req.DueDate,
		AssignedTo:     req.AssignedTo,
		Tags:           req.Tags,
		EstimatedHours: req.EstimatedHours,
	})
	if err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}
	writeData(w, http.StatusCreated, "Task created", taskDTO(task))
}

// HandleGet returns one task.
//
//	@Summary		Get a task
//	@Tags			Tasks
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string	true	"Task id"
//	@Success		200	{object}	taskboardsdk.Task
//	@Failure		403	{object}	taskboardsdk.APIError	"Caller is not creator, assignee, or admin"
//	@Failure		404	{object}	taskboardsdk.APIError
//	@Router			/api/tasks/{id} [get].
func (h *TasksHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actorID, role := actor(r)
	task, err := h.TaskService.Get(r.Context(), actorID, role, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}
	writeData(w, http.StatusOK, "", taskDTO(task))
}

// HandleUpdate applies a partial update.
//
//	@Summary		Update a task
//	@Tags			Tasks
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Task id"
//	@Param			body	body		taskboardsdk.TaskUpdateRequest	true	"Fields to change"
//	@Success		200		{object}	taskboardsdk.Task
//	@Failure		403		{object}	taskboardsdk.APIError
//	@Failure		404		{object}	taskboardsdk.APIError
//	@Router			/api/tasks/{id} [put].
func (h *TasksHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req taskboardsdk.TaskUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	actorID, role := actor(r)
	task, err := h.TaskService.Update(r.Context(), actorID, role, r.PathValue("id"), validate.TaskUpdateInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		DueDate:        req.DueDate,
		ClearDueDate:   req.ClearDueDate,
		AssignedTo:     req.AssignedTo,
		Tags:           req.Tags,
		TagsSet:        req.Tags != nil,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
		Archived:       req.Archived,
	})
	if err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}
	writeData(w, http.StatusOK, "Task updated", taskDTO(task))
}

// HandleDelete removes a task. Creator or admin only.
//
//	@Summary		Delete a task
//	@Tags			Tasks
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string	true	"Task id"
//	@Success		200	{object}	nil
//	@Failure		403	{object}	taskboardsdk.APIError	"Assignees cannot delete"
//	@Failure		404	{object}	taskboardsdk.APIError
//	@Router			/api/tasks/{id} [delete].
func (h *TasksHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actorID, role := actor(r)
	if err := h.TaskService.Delete(r.Context(), actorID, role, r.PathValue("id")); err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}
	writeMessage(w, http.StatusOK, "Task deleted")
}

// HandleSearch lists tasks matching the query, within the caller's
// visibility.
//
//	@Summary		Search tasks
//	@Tags			Tasks
//	@Security		BearerAuth
//	@Produce		json
//	@Param			search			query		string	false	"Substring on title or description"
//	@Param			status			query		string	false	"Status filter, repeatable or comma separated"
//	@Param			priority		query		string	false	"Priority filter, repeatable or comma separated"
//	@Param			assignedTo		query		string	false	"Assignee user id"
//	@Param			createdBy		query		string	false	"Creator user id"
//	@Param			tags			query		string	false	"Tag filter, any-of"
//	@Param			dueFrom			query		string	false	"RFC3339 lower bound on due date"
//	@Param			dueTo			query		string	false	"RFC3339 upper bound on due date"
//	@Param			overdue			query		bool	false	"Only overdue tasks; overrides status and due range"
//	@Param			includeArchived	query		bool	false	"Include archived tasks"
//	@Param			page			query		int		false	"Page number, 1-based"
//	@Param			limit			query		int		false	"Page size, max 100"
//	@Param			sortBy			query		string	false	"Sort column"
//	@Param			sortOrder		query		string	false	"asc or desc"
//	@Success		200				{object}	taskboardsdk.TaskPage
//	@Router			/api/tasks [get].
func (h *TasksHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.TaskFilter{
		Search:          q.Get("search"),
		AssignedTo:      q.Get("assignedTo"),
		CreatedBy:       q.Get("createdBy"),
		Tags:            httpx.QueryList(r, "tags"),
		Overdue:         q.Get("overdue") == "true",
		IncludeArchived: q.Get("includeArchived") == "true",
	}
	for _, s := range httpx.QueryList(r, "status") {
		filter.Status = append(filter.Status, domain.Status(s))
	}
	for _, p := range httpx.QueryList(r, "priority") {
		filter.Priority = append(filter.Priority, domain.Priority(p))
	}
	if raw := q.Get("dueFrom"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.DueFrom = &t
		}
	}
	if raw := q.Get("dueTo"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.DueTo = &t
		}
	}

	opts := domain.PageOptions{
		Page:      httpx.QueryInt(r, "page", 1),
		Limit:     httpx.QueryInt(r, "limit", domain.DefaultPageLimit),
		SortBy:    q.Get("sortBy"),
		SortOrder: domain.SortOrder(q.Get("sortOrder")),
	}

	actorID, role := actor(r)
	page, err := h.TaskService.Search(r.Context(), actorID, role, filter, opts)
	if err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}
	writeData(w, http.StatusOK, "", taskboardsdk.TaskPage{
		Tasks:      taskDTOs(page.Tasks),
		Pagination: paginationDTO(page.Pagination),
	})
}

// HandleStats returns the dashboard summary.
//
//	@Summary		Task statistics
//	@Tags			Tasks
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	taskboardsdk.TaskStats
//	@Router			/api/tasks/stats [get].
func (h *TasksHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	actorID, role := actor(r)
	stats, err := h.TaskService.Stats(r.Context(), actorID, role)
	if err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}

	byStatus := make(map[string]int, len(stats.TasksByStatus))
	for k, v := range stats.TasksByStatus {
		byStatus[string(k)] = v
	}
	byPriority := make(map[string]int, len(stats.TasksByPriority))
	for k, v := range stats.TasksByPriority {
		byPriority[string(k)] = v
	}
	writeData(w, http.StatusOK, "", taskboardsdk.TaskStats{
		TotalTasks:        stats.TotalTasks,
		TasksByStatus:     byStatus,
		TasksByPriority:   byPriority,
		OverdueTasks:      stats.OverdueTasks,
		CompletedThisWeek: stats.CompletedThisWeek,
	})
}
