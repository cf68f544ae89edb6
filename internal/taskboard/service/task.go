package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/taskboardhq/taskboard/internal/taskboard/blob"
	"github.com/taskboardhq/taskboard/internal/taskboard/domain"
	"github.com/taskboardhq/taskboard/internal/taskboard/store"
	"github.com/taskboardhq/taskboard/internal/taskboard/validate"
	"github.com/taskboardhq/taskboard/pkg/idx"
	"github.com/taskboardhq/taskboard/pkg/slogx"
)

var (
	ErrForbidden          = errors.New("forbidden")
	ErrAssigneeNotFound   = errors.New("assignee_not_found")
	ErrAssigneeInactive   = errors.New("assignee_inactive")
	ErrAttachmentLimit    = errors.New("attachment_limit_reached")
	ErrCommentNotFound    = errors.New("comment_not_found")
	ErrAttachmentNotFound = errors.New("attachment_not_found")
)

// TaskService owns the task aggregate: CRUD, search, comments, and
// attachments. Every operation takes the acting user's id and role and
// enforces the ownership policy before touching the store.
type TaskService struct {
	Store store.Store
	Blobs blob.Storage
}

// Create validates and persists a new task owned by the actor.
func (s *TaskService) Create(ctx context.Context, actorID string, in validate.TaskCreateInput) (domain.Task, error) {
	now := time.Now().UTC()
	if verrs := validate.TaskCreate(in, now); !verrs.Ok() {
		return domain.Task{}, verrs
	}

	if in.AssignedTo != "" {
		if err := s.checkAssignee(ctx, in.AssignedTo); err != nil {
			return domain.Task{}, err
		}
	}

	task := domain.Task{
		ID:             idx.New().String(),
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		Status:         domain.StatusPending,
		Priority:       domain.PriorityMedium,
		DueDate:        in.DueDate,
		CreatedBy:      actorID,
		AssignedTo:     in.AssignedTo,
		Tags:           in.Tags,
		EstimatedHours: in.EstimatedHours,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.Status != "" {
		task.ApplyStatus(domain.Status(in.Status), now)
	}
	if in.Priority != "" {
		task.Priority = domain.Priority(in.Priority)
	}
	task.NormalizeTags()

	if err := s.Store.Tasks().CreateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}

	slogx.FromContext(ctx).Info("task created",
		slog.String("task_id", task.ID),
		slog.String("created_by", actorID))
	return task, nil
}

// Get loads a task the actor is allowed to see.
func (s *TaskService) Get(ctx context.Context, actorID string, role domain.Role, taskID string) (domain.Task, error) {
	task, err := s.Store.Tasks().GetTaskByID(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if !task.CanModify(actorID, role) {
		return domain.Task{}, ErrForbidden
	}
	return task, nil
}

// Update applies a partial update. The whole aggregate is rewritten;
// concurrent writers race and the last one wins.
func (s *TaskService) Update(ctx context.Context, actorID string, role domain.Role, taskID string, in validate.TaskUpdateInput) (domain.Task, error) {
	if verrs := validate.TaskUpdate(in); !verrs.Ok() {
		return domain.Task{}, verrs
	}

	task, err := s.Store.Tasks().GetTaskByID(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if !task.CanModify(actorID, role) {
		return domain.Task{}, ErrForbidden
	}

	now := time.Now().UTC()
	if in.Title != nil {
		task.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		task.Description = strings.TrimSpace(*in.Description)
	}
	if in.Status != nil {
		task.ApplyStatus(domain.Status(*in.Status), now)
	}
	if in.Priority != nil {
		task.Priority = domain.Priority(*in.Priority)
	}
	if in.ClearDueDate {
		task.DueDate = nil
	} else if in.DueDate != nil {
		task.DueDate = in.DueDate
	}
	if in.AssignedTo != nil {
		if *in.AssignedTo != "" && *in.AssignedTo != task.AssignedTo {
			if err := s.checkAssignee(ctx, *in.AssignedTo); err != nil {
				return domain.Task{}, err
			}
		}
		task.AssignedTo = *in.AssignedTo
	}
	if in.TagsSet {
		task.Tags = in.Tags
		task.NormalizeTags()
	}
	if in.EstimatedHours != nil {
		task.EstimatedHours = in.EstimatedHours
	}
	if in.ActualHours != nil {
		task.ActualHours = in.ActualHours
	}
	if in.Archived != nil {
		task.Archived = *in.Archived
	}
	task.UpdatedAt = now

	if err := s.Store.Tasks().UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// Delete removes a task and its attachment blobs. Only the creator or
// an admin may delete; the assignee cannot.
func (s *TaskService) Delete(ctx context.Context, actorID string, role domain.Role, taskID string) error {
	task, err := s.Store.Tasks().GetTaskByID(ctx, taskID)
	if err != nil {
		return err
	}
	if !task.CanDelete(actorID, role) {
		return ErrForbidden
	}

	if err := s.Store.Tasks().DeleteTask(ctx, taskID); err != nil {
		return err
	}

	l := slogx.FromContext(ctx)
	for _, att := range task.Attachments {
		if err := s.Blobs.Delete(ctx, att.StorageKey); err != nil {
			l.Warn("orphaned attachment blob",
				slog.String("task_id", taskID),
				slog.String("key", att.StorageKey),
				slog.Any("error", err))
		}
	}

	l.Info("task deleted",
		slog.String("task_id", taskID),
		slog.String("deleted_by", actorID))
	return nil
}

// Search applies the filter set within the actor's visibility: admins
// see everything, everyone else only tasks they created or are assigned
// to.
func (s *TaskService) Search(ctx context.Context, actorID string, role domain.Role, f domain.TaskFilter, opts domain.PageOptions) (domain.TaskPage, error) {
	if role != domain.RoleAdmin {
		f.VisibleTo = actorID
	}
	return s.Store.Tasks().Search(ctx, f, opts)
}

// Stats aggregates the dashboard numbers within the actor's visibility.
func (s *TaskService) Stats(ctx context.Context, actorID string, role domain.Role) (domain.TaskStats, error) {
	visibleTo := actorID
	if role == domain.RoleAdmin {
		visibleTo = ""
	}
	return s.Store.Tasks().Stats(ctx, visibleTo, time.Now().UTC())
}

// AddComment appends a comment authored by the actor. Task-level
// visibility gates who may comment.
func (s *TaskService) AddComment(ctx context.Context, actorID string, role domain.Role, taskID, text string) (domain.Task, error) {
	if verrs := validate.Comment(text); !verrs.Ok() {
		return domain.Task{}, verrs
	}

	task, err := s.Store.Tasks().GetTaskByID(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if !task.CanModify(actorID, role) {
		return domain.Task{}, ErrForbidden
	}

	now := time.Now().UTC()
	task.Comments = append(task.Comments, domain.Comment{
		ID:        idx.New().String(),
		Text:      strings.TrimSpace(text),
		AuthorID:  actorID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	task.UpdatedAt = now

	if err := s.Store.Tasks().UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// UpdateComment edits a comment's text. Only the comment author or an
// admin may edit, independent of task-level permission.
func (s *TaskService) UpdateComment(ctx context.Context, actorID string, role domain.Role, taskID, commentID, text string) (domain.Task, error) {
	if verrs := validate.Comment(text); !verrs.Ok() {
		return domain.Task{}, verrs
	}

	task, err := s.Store.Tasks().GetTaskByID(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}

	comment := task.Comment(commentID)
	if comment == nil {
		return domain.Task{}, ErrCommentNotFound
	}
	if !comment.CanEdit(actorID, role) {
		return domain.Task{}, ErrForbidden
	}

	now := time.Now().UTC()
	comment.Text = strings.TrimSpace(text)
	comment.UpdatedAt = now
	task.UpdatedAt = now

	if err := s.Store.Tasks().UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// DeleteComment removes a comment under the same author-or-admin rule.
func (s *TaskService) DeleteComment(ctx context.Context, actorID string, role domain.Role, taskID, commentID string) (domain.Task, error) {
	task, err := s.Store.Tasks().GetTaskByID(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}

	comment := task.Comment(commentID)
	if comment == nil {
		return domain.Task{}, ErrCommentNotFound
	}
	if !comment.CanEdit(actorID, role) {
		return domain.Task{}, ErrForbidden
	}

	task.RemoveComment(commentID)
	task.UpdatedAt = time.Now().UTC()

	if err := s.Store.Tasks().UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// AddAttachment stores the upload and appends its metadata to the task.
// A task holds at most domain.MaxAttachments attachments; the cap is
// checked before any bytes are written.
func (s *TaskService) AddAttachment(ctx context.Context, actorID string, role domain.Role, taskID, originalName, mimeType string, r io.Reader) (domain.Task, error) {
	task, err := s.Store.Tasks().GetTaskByID(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if !task.CanModify(actorID, role) {
		return domain.Task{}, ErrForbidden
	}
	if len(task.Attachments) >= domain.MaxAttachments {
		return domain.Task{}, ErrAttachmentLimit
	}

	id := idx.New().String()
	filename := id + sanitizeExt(originalName)
	key := path.Join("tasks", taskID, filename)

	size, err := s.Blobs.Put(ctx, key, r)
	if err != nil {
		return domain.Task{}, fmt.Errorf("store attachment: %w", err)
	}

	now := time.Now().UTC()
	task.Attachments = append(task.Attachments, domain.Attachment{
		ID:           id,
		Filename:     filename,
		OriginalName: originalName,
		URL:          s.Blobs.URL(key),
		StorageKey:   key,
		Size:         size,
		MimeType:     mimeType,
		UploadedBy:   actorID,
		UploadedAt:   now,
	})
	task.UpdatedAt = now

	if err := s.Store.Tasks().UpdateTask(ctx, task); err != nil {
		// Roll the blob back so a failed metadata write doesn't leak
		// storage.
		_ = s.Blobs.Delete(ctx, key)
		return domain.Task{}, err
	}
	return task, nil
}

// DeleteAttachment removes the metadata and the stored blob. Anyone who
// can modify the task can remove its attachments.
func (s *TaskService) DeleteAttachment(ctx context.Context, actorID string, role domain.Role, taskID, attachmentID string) (domain.Task, error) {
	task, err := s.Store.Tasks().GetTaskByID(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if !task.CanModify(actorID, role) {
		return domain.Task{}, ErrForbidden
	}

	att := task.Attachment(attachmentID)
	if att == nil {
		return domain.Task{}, ErrAttachmentNotFound
	}
	key := att.StorageKey

	task.RemoveAttachment(attachmentID)
	task.UpdatedAt = time.Now().UTC()

	if err := s.Store.Tasks().UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}

	if err := s.Blobs.Delete(ctx, key); err != nil {
		slogx.FromContext(ctx).Warn("orphaned attachment blob",
			slog.String("task_id", taskID),
			slog.String("key", key),
			slog.Any("error", err))
	}
	return task, nil
}

func (s *TaskService) checkAssignee(ctx context.Context, userID string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAssigneeNotFound
		}
		return err
	}
	if !user.Active {
		return ErrAssigneeInactive
	}
	return nil
}

// sanitizeExt keeps only a plain extension from the client-supplied
// filename; everything else in the stored name comes from the ULID.
func sanitizeExt(name string) string {
	ext := strings.ToLower(path.Ext(path.Base(name)))
	if len(ext) > 10 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	for _, r := range ext[min(1, len(ext)):] {
		if !('a' <= r && r <= 'z' || '0' <= r && r <= '9') {
			return ""
		}
	}
	return ext
}
