package http

import (
	"fmt"
	"net/http"

	"github.com/taskboardhq/taskboard/internal/taskboard/domain"
	"github.com/taskboardhq/taskboard/internal/taskboard/service"
	"github.com/taskboardhq/taskboard/pkg/taskboardsdk"
)

type AttachmentsHandler struct {
	TaskService   *service.TaskService
	MaxUploadSize int64
	DevMode       bool
}

// HandleUpload accepts one or more files under the "files" form field.
// The attachment cap is checked against the whole batch before anything
// is stored, so a request that would exceed it is rejected entirely.
//
//	@Summary		Upload attachments
//	@Tags			Attachments
//	@Security		BearerAuth
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id		path		string	true	"Task id"
//	@Param			files	formData	file	true	"Files to attach (max 3 per task)"
//	@Success		201		{object}	taskboardsdk.Task
//	@Failure		400		{object}	taskboardsdk.APIError	"Attachment cap exceeded or empty upload"
//	@Failure		403		{object}	taskboardsdk.APIError
//	@Failure		404		{object}	taskboardsdk.APIError
//	@Router			/api/tasks/{id}/attachments [post].
func (h *AttachmentsHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	actorID, role := actor(r)
	taskID := r.PathValue("id")

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadSize)
	if err := r.ParseMultipartForm(h.MaxUploadSize); err != nil {
		writeFailure(w, http.StatusBadRequest, "Upload too large or malformed")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeFailure(w, http.StatusBadRequest, "No files in upload")
		return
	}
	if len(files) > domain.MaxAttachments {
		writeFailure(w, http.StatusBadRequest,
			fmt.Sprintf("Maximum of %d attachments per task", domain.MaxAttachments))
		return
	}

	// Pre-check the cap for the whole batch so a multi-file request
	// never lands partially.
	task, err := h.TaskService.Get(r.Context(), actorID, role, taskID)
	if err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}
	if len(task.Attachments)+len(files) > domain.MaxAttachments {
		writeFailure(w, http.StatusBadRequest,
			fmt.Sprintf("Maximum of %d attachments per task", domain.MaxAttachments))
		return
	}

	for _, fh := range files {
		file, err := fh.Open()
		if err != nil {
			writeError(w, r, err, h.DevMode)
			return
		}
		task, err = h.TaskService.AddAttachment(r.Context(), actorID, role, taskID,
			fh.Filename, fh.Header.Get("Content-Type"), file)
		file.Close()
		if err != nil {
			writeError(w, r, err, h.DevMode)
			return
		}
	}
	writeData(w, http.StatusCreated, "Attachments uploaded", taskDTO(task))
}

// HandleDelete removes an attachment and its stored file.
//
//	@Summary		Delete an attachment
//	@Tags			Attachments
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id				path		string	true	"Task id"
//	@Param			attachmentId	path		string	true	"Attachment id"
//	@Success		200				{object}	taskboardsdk.Task
//	@Failure		403				{object}	taskboardsdk.APIError
//	@Failure		404				{object}	taskboardsdk.APIError
//	@Router			/api/tasks/{id}/attachments/{attachmentId} [delete].
func (h *AttachmentsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actorID, role := actor(r)
	task, err := h.TaskService.DeleteAttachment(r.Context(), actorID, role,
		r.PathValue("id"), r.PathValue("attachmentId"))
	if err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}
	writeData(w, http.StatusOK, "Attachment deleted", taskDTO(task))
}

// HandleURL returns a fresh download URL for one attachment.
//
//	@Summary		Attachment download URL
//	@Tags			Attachments
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id				path		string	true	"Task id"
//	@Param			attachmentId	path		string	true	"Attachment id"
//	@Success		200				{object}	taskboardsdk.Attachment
//	@Failure		404				{object}	taskboardsdk.APIError
//	@Router			/api/tasks/{id}/attachments/{attachmentId}/url [get].
func (h *AttachmentsHandler) HandleURL(w http.ResponseWriter, r *http.Request) {
	actorID, role := actor(r)
	task, err := h.TaskService.Get(r.Context(), actorID, role, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}

	att := task.Attachment(r.PathValue("attachmentId"))
	if att == nil {
		writeError(w, r, service.ErrAttachmentNotFound, h.DevMode)
		return
	}
	writeData(w, http.StatusOK, "", taskboardsdk.Attachment{
		ID:           att.ID,
		Filename:     att.Filename,
		OriginalName: att.OriginalName,
		URL:          att.URL,
		Size:         att.Size,
		MimeType:     att.MimeType,
		UploadedBy:   att.UploadedBy,
		UploadedAt:   att.UploadedAt,
	})
}

// HandleDownload redirects to the stored file.
//
//	@Summary		Download an attachment
//	@Tags			Attachments
//	@Security		BearerAuth
//	@Param			id				path	string	true	"Task id"
//	@Param			attachmentId	path	string	true	"Attachment id"
//	@Success		302
//	@Failure		404	{object}	taskboardsdk.APIError
//	@Router			/api/tasks/{id}/attachments/{attachmentId}/download [get].
func (h *AttachmentsHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	actorID, role := actor(r)
	task, err := h.TaskService.Get(r.Context(), actorID, role, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, h.DevMode)
		return
	}

	att := task.Attachment(r.PathValue("attachmentId"))
	if att == nil {
		writeError(w, r, service.ErrAttachmentNotFound, h.DevMode)
		return
	}
	http.Redirect(w, r, att.URL, http.StatusFound)
}
