package http

import (
	"net/http"

	"github.com/taskboardhq/taskboard/internal/taskboard/service"
	"github.com/taskboardhq/taskboard/pkg/taskboardsdk"
)

type CommentsHandler struct {
	TaskService *service.TaskService
	DevMode     bool
}

// HandleAdd appends a comment to a task.
//
//	@Summary		Add a comment
//	@Tags			Comments
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Task id"
//	@Param			body	body		taskboardsdk.CommentRequest	true	"Comment text"
//	@Success		201		{object}	taskboardsdk.Task
//	@Failure		403		{object}	taskboardsdk.APIError
//	@Failure		404		{object}	taskboardsdk.APIError
//	@Router			/api/tasks/{id}/comments [post].
func (h *CommentsHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req taskboardsdk.CommentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	actorID, role := actor(r)
	task, err := h.TaskService.AddComment(r.Context(), actorID, role, r.PathValue("id"), req.Text)
	if err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}
	writeData(w, http.StatusCreated, "Comment added", taskDTO(task))
}

// HandleUpdate edits a comment. Author or admin only.
//
//	@Summary		Edit a comment
//	@Tags			Comments
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string						true	"Task id"
//	@Param			commentId	path		string						true	"Comment id"
//	@Param			body		body		taskboardsdk.CommentRequest	true	"New text"
//	@Success		200			{object}	taskboardsdk.Task
//	@Failure		403			{object}	taskboardsdk.APIError	"Only the author or an admin may edit"
//	@Failure		404			{object}	taskboardsdk.APIError
//	@Router			/api/tasks/{id}/comments/{commentId} [put].
func (h *CommentsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req taskboardsdk.CommentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	actorID, role := actor(r)
	task, err := h.TaskService.UpdateComment(r.Context(), actorID, role,
		r.PathValue("id"), r.PathValue("commentId"), req.Text)
	if err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}
	writeData(w, http.StatusOK, "Comment updated", taskDTO(task))
}

// HandleDelete removes a comment. Author or admin only.
//
//	@Summary		Delete a comment
//	@Tags			Comments
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id			path		string	true	"Task id"
//	@Param			commentId	path		string	true	"Comment id"
//	@Success		200			{object}	taskboardsdk.Task
//	@Failure		403			{object}	taskboardsdk.APIError
//	@Failure		404			{object}	taskboardsdk.APIError
//	@Router			/api/tasks/{id}/comments/{commentId} [delete].
func (h *CommentsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actorID, role := actor(r)
	task, err := h.TaskService.DeleteComment(r.Context(), actorID, role,
		r.PathValue("id"), r.PathValue("commentId"))
	if err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}
	writeData(w, http.StatusOK, "Comment deleted", taskDTO(task))
}
