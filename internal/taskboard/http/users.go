package http

import (
	"net/http"

	"github.com/taskboardhq/taskboard/internal/taskboard/domain"
	"github.com/taskboardhq/taskboard/internal/taskboard/service"
	"github.com/taskboardhq/taskboard/internal/taskboard/validate"
	"github.com/taskboardhq/taskboard/pkg/httpx"
	"github.com/taskboardhq/taskboard/pkg/taskboardsdk"
)

type UsersHandler struct {
	UserService *service.UserService
	DevMode     bool
}

// HandleList lists users. Admin only.
//
//	@Summary		List users
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			search		query		string	false	"Substring on name or email"
//	@Param			role		query		string	false	"Role filter"
//	@Param			active		query		bool	false	"Active filter"
//	@Param			page		query		int		false	"Page number"
//	@Param			limit		query		int		false	"Page size"
//	@Param			sortBy		query		string	false	"Sort column"
//	@Param			sortOrder	query		string	false	"asc or desc"
//	@Success		200			{object}	taskboardsdk.UserPage
//	@Failure		403			{object}	taskboardsdk.APIError	"Admin only"
//	@Router			/api/users [get].
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.UserFilter{
		Search: q.Get("search"),
		Role:   domain.Role(q.Get("role")),
	}
	switch q.Get("active") {
	case "true":
		active := true
		filter.Active = &active
	case "false":
		active := false
		filter.Active = &active
	}

	opts := domain.PageOptions{
		Page:      httpx.QueryInt(r, "page", 1),
		Limit:     httpx.QueryInt(r, "limit", domain.DefaultPageLimit),
		SortBy:    q.Get("sortBy"),
		SortOrder: domain.SortOrder(q.Get("sortOrder")),
	}

	page, err := h.UserService.List(r.Context(), filter, opts)
	if err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}
	writeData(w, http.StatusOK, "", taskboardsdk.UserPage{
		Users:      userDTOs(page.Users),
		Pagination: paginationDTO(page.Pagination),
	})
}

// HandleGet returns a user with their task counts. Callers may always
// fetch themselves; anyone else requires admin.
//
//	@Summary		Get a user
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string	true	"User id"
//	@Success		200	{object}	taskboardsdk.UserDetail
//	@Failure		403	{object}	taskboardsdk.APIError
//	@Failure		404	{object}	taskboardsdk.APIError
//	@Router			/api/users/{id} [get].
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actorID, role := actor(r)
	userID := r.PathValue("id")
	if userID != actorID && role != domain.RoleAdmin {
		writeFailure(w, http.StatusForbidden, "Not authorized to view this user")
		return
	}

	user, counts, err := h.UserService.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}
	writeData(w, http.StatusOK, "", taskboardsdk.UserDetail{
		User: userDTO(user),
		TaskCounts: taskboardsdk.TaskCounts{
			CreatedTasks:  counts.CreatedTasks,
			AssignedTasks: counts.AssignedTasks,
		},
	})
}

// HandleUpdate applies admin edits to a user.
//
//	@Summary		Update a user
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"User id"
//	@Param			body	body		taskboardsdk.UserUpdateRequest	true	"Fields to change"
//	@Success		200		{object}	taskboardsdk.User
//	@Failure		400		{object}	taskboardsdk.APIError	"Validation failure or duplicate email"
//	@Failure		404		{object}	taskboardsdk.APIError
//	@Router			/api/users/{id} [put].
func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req taskboardsdk.UserUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.UserService.Update(r.Context(), r.PathValue("id"), validate.UserUpdateInput{
		Name:   req.Name,
		Email:  req.Email,
		Role:   req.Role,
		Active: req.Active,
	})
	if err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}
	writeData(w, http.StatusOK, "User updated", userDTO(user))
}

// HandleDelete removes a user. Refused for the caller's own account and
// while the user still has tasks.
//
//	@Summary		Delete a user
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string	true	"User id"
//	@Success		200	{object}	nil
//	@Failure		400	{object}	taskboardsdk.APIError	"Self-delete or user still has tasks"
//	@Failure		404	{object}	taskboardsdk.APIError
//	@Router			/api/users/{id} [delete].
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actorID, _ := actor(r)
	if err := h.UserService.Delete(r.Context(), actorID, r.PathValue("id")); err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}
	writeMessage(w, http.StatusOK, "User deleted")
}

// HandleAssignable lists active users for assignment dropdowns. Not
// admin-gated; any authenticated user may assign tasks.
//
//	@Summary		Assignable users
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	[]taskboardsdk.User
//	@Router			/api/users/assignable [get].
func (h *UsersHandler) HandleAssignable(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.Assignable(r.Context())
	if err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}
	writeData(w, http.StatusOK, "", userDTOs(users))
}
