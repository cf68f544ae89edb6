package http

import (
	"errors"
	"net/http"

	"github.com/taskboardhq/taskboard/internal/taskboard/domain"
	"github.com/taskboardhq/taskboard/internal/taskboard/service"
	"github.com/taskboardhq/taskboard/internal/taskboard/store"
	"github.com/taskboardhq/taskboard/internal/taskboard/validate"
	"github.com/taskboardhq/taskboard/pkg/httpx"
	"github.com/taskboardhq/taskboard/pkg/slogx"
	"github.com/taskboardhq/taskboard/pkg/taskboardsdk"
)

// envelope is the uniform response wrapper.
type envelope struct {
	Success bool                      `json:"success"`
	Message string                    `json:"message"`
	Data    any                       `json:"data,omitempty"`
	Errors  []taskboardsdk.FieldError `json:"errors,omitempty"`
}

func writeData(w http.ResponseWriter, code int, message string, data any) {
	httpx.WriteJSON(w, code, envelope{Success: true, Message: message, Data: data})
}

func writeMessage(w http.ResponseWriter, code int, message string) {
	httpx.WriteJSON(w, code, envelope{Success: true, Message: message})
}

func writeFailure(w http.ResponseWriter, code int, message string) {
	httpx.WriteJSON(w, code, envelope{Success: false, Message: message})
}

// writeError maps service and store failures to status codes per the
// API's error taxonomy. Internal error detail is only echoed back in
// development mode.
func writeError(w http.ResponseWriter, r *http.Request, err error, devMode bool) {
	var verrs validate.Errors
	if errors.As(err, &verrs) {
		fields := make([]taskboardsdk.FieldError, len(verrs))
		for i, fe := range verrs {
			fields[i] = taskboardsdk.FieldError{Field: fe.Field, Message: fe.Message}
		}
		httpx.WriteJSON(w, http.StatusBadRequest, envelope{
			Success: false,
			Message: "Validation failed",
			Errors:  fields,
		})
		return
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		writeFailure(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, service.ErrCommentNotFound):
		writeFailure(w, http.StatusNotFound, "Comment not found")
	case errors.Is(err, service.ErrAttachmentNotFound):
		writeFailure(w, http.StatusNotFound, "Attachment not found")
	case errors.Is(err, service.ErrForbidden):
		writeFailure(w, http.StatusForbidden, "Not authorized to perform this action")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeFailure(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrAccountDisabled):
		writeFailure(w, http.StatusUnauthorized, "Account is deactivated")
	case errors.Is(err, service.ErrTOTPRequired):
		writeFailure(w, http.StatusUnauthorized, "One-time code required")
	case errors.Is(err, service.ErrInvalidTOTPCode):
		writeFailure(w, http.StatusUnauthorized, "Invalid one-time code")
	case errors.Is(err, service.ErrInvalidRefresh):
		writeFailure(w, http.StatusUnauthorized, "Invalid or expired refresh token")
	case errors.Is(err, service.ErrEmailTaken):
		writeFailure(w, http.StatusBadRequest, "Email is already in use")
	case errors.Is(err, service.ErrAssigneeNotFound):
		writeFailure(w, http.StatusBadRequest, "Assigned user does not exist")
	case errors.Is(err, service.ErrAssigneeInactive):
		writeFailure(w, http.StatusBadRequest, "Assigned user is not active")
	case errors.Is(err, service.ErrAttachmentLimit):
		writeFailure(w, http.StatusBadRequest, "Maximum of 3 attachments per task")
	case errors.Is(err, service.ErrSelfDelete):
		writeFailure(w, http.StatusBadRequest, "Cannot delete your own account")
	case errors.Is(err, service.ErrUserHasTasks):
		writeFailure(w, http.StatusBadRequest, "User still has tasks; reassign or delete them first")
	case errors.Is(err, service.ErrTOTPNotEnrolled):
		writeFailure(w, http.StatusBadRequest, "Two-factor authentication is not set up")
	case errors.Is(err, service.ErrTOTPAlreadyActive):
		writeFailure(w, http.StatusBadRequest, "Two-factor authentication is already enabled")
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		msg := "Internal server error"
		if devMode {
			msg = err.Error()
		}
		writeFailure(w, http.StatusInternalServerError, msg)
	}
}

func userDTO(u domain.User) taskboardsdk.User {
	return taskboardsdk.User{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       string(u.Role),
		Avatar:     u.Avatar,
		Active:     u.Active,
		MFAEnabled: u.MFAActive(),
		LastLogin:  u.LastLogin,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func userDTOs(users []domain.User) []taskboardsdk.User {
	out := make([]taskboardsdk.User, len(users))
	for i, u := range users {
		out[i] = userDTO(u)
	}
	return out
}

func taskDTO(t domain.Task) taskboardsdk.Task {
	comments := make([]taskboardsdk.Comment, len(t.Comments))
	for i, c := range t.Comments {
		comments[i] = taskboardsdk.Comment{
			ID:        c.ID,
			Text:      c.Text,
			AuthorID:  c.AuthorID,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		}
	}
	attachments := make([]taskboardsdk.Attachment, len(t.Attachments))
	for i, a := range t.Attachments {
		attachments[i] = taskboardsdk.Attachment{
			ID:           a.ID,
			Filename:     a.Filename,
			OriginalName: a.OriginalName,
			URL:          a.URL,
			Size:         a.Size,
			MimeType:     a.MimeType,
			UploadedBy:   a.UploadedBy,
			UploadedAt:   a.UploadedAt,
		}
	}
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return taskboardsdk.Task{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		DueDate:        t.DueDate,
		CreatedBy:      t.CreatedBy,
		AssignedTo:     t.AssignedTo,
		Tags:           tags,
		Comments:       comments,
		Attachments:    attachments,
		EstimatedHours: t.EstimatedHours,
		ActualHours:    t.ActualHours,
		CompletedAt:    t.CompletedAt,
		Archived:       t.Archived,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func taskDTOs(tasks []domain.Task) []taskboardsdk.Task {
	out := make([]taskboardsdk.Task, len(tasks))
	for i, t := range tasks {
		out[i] = taskDTO(t)
	}
	return out
}

func paginationDTO(p domain.Pagination) taskboardsdk.Pagination {
	return taskboardsdk.Pagination{Total: p.Total, Page: p.Page, Limit: p.Limit, Pages: p.Pages}
}
