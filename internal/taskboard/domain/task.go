package domain

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every status in display order.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every priority in ascending order.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// MaxAttachments caps the number of attachments a single task may carry.
const MaxAttachments = 3

// Comment is owned by a Task. It has no identity outside its task; the
// ID is only unique within the owning aggregate.
type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Attachment is owned by a Task. URL is where the file can be fetched;
// StorageKey is the opaque handle the blob store needs for deletion and
// URL regeneration.
type Attachment struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	URL          string    `json:"url"`
	StorageKey   string    `json:"storageKey"`
	Size         int64     `json:"size"`
	MimeType     string    `json:"mimeType"`
	UploadedBy   string    `json:"uploadedBy"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

type Task struct {
	ID             string
	Title          string
	Description    string
	Status         Status
	Priority       Priority
	DueDate        *time.Time // optional; must be in the future at creation time only
	CreatedBy      string     // immutable after creation
	AssignedTo     string     // empty means unassigned
	Tags           []string   // lowercased
	Comments       []Comment
	Attachments    []Attachment
	EstimatedHours *float64
	ActualHours    *float64
	CompletedAt    *time.Time // set exactly when Status == completed
	Archived       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CanModify reports whether the actor may view, update, or comment on
// the task: admins always, otherwise only the creator or the assignee.
// Pure predicate, no side effects.
func (t Task) CanModify(actorID string, role Role) bool {
	if role == RoleAdmin {
		return true
	}
	if actorID == "" {
		return false
	}
	return t.CreatedBy == actorID || (t.AssignedTo != "" && t.AssignedTo == actorID)
}

// CanDelete is stricter than CanModify: only the creator or an admin
// may delete a task. The assignee cannot.
func (t Task) CanDelete(actorID string, role Role) bool {
	return role == RoleAdmin || t.CreatedBy == actorID
}

// CanEdit gates comment edit/delete: only the comment's author
// or an admin, independent of task-level permission.
func (c Comment) CanEdit(actorID string, role Role) bool {
	return role == RoleAdmin || c.AuthorID == actorID
}

// ApplyStatus moves the task to the given status and maintains the
// CompletedAt invariant: entering completed sets the timestamp (only if
// not already set), any other status clears it. Call this whenever a
// mutation includes the status field, before persisting.
func (t *Task) ApplyStatus(status Status, now time.Time) {
	t.Status = status
	if status == StatusCompleted {
		if t.CompletedAt == nil {
			at := now
			t.CompletedAt = &at
		}
		return
	}
	t.CompletedAt = nil
}

// IsOverdue reports whether the task's due date has passed without the
// task being completed.
func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusCompleted
}

// NormalizeTags trims, lowercases, and drops empty tags in place,
// preserving order.
func (t *Task) NormalizeTags() {
	out := t.Tags[:0]
	for _, tag := range t.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			out = append(out, tag)
		}
	}
	t.Tags = out
}

// Comment returns a pointer into the task's comment list, or nil if no
// comment with that id exists.
func (t *Task) Comment(id string) *Comment {
	for i := range t.Comments {
		if t.Comments[i].ID == id {
			return &t.Comments[i]
		}
	}
	return nil
}

// RemoveComment deletes the comment with the given id from the
// aggregate. Returns false if it was not present.
func (t *Task) RemoveComment(id string) bool {
	for i := range t.Comments {
		if t.Comments[i].ID == id {
			t.Comments = append(t.Comments[:i], t.Comments[i+1:]...)
			return true
		}
	}
	return false
}

// Attachment returns a pointer into the task's attachment list, or nil.
func (t *Task) Attachment(id string) *Attachment {
	for i := range t.Attachments {
		if t.Attachments[i].ID == id {
			return &t.Attachments[i]
		}
	}
	return nil
}

// RemoveAttachment deletes the attachment with the given id. Returns
// false if it was not present.
func (t *Task) RemoveAttachment(id string) bool {
	for i := range t.Attachments {
		if t.Attachments[i].ID == id {
			t.Attachments = append(t.Attachments[:i], t.Attachments[i+1:]...)
			return true
		}
	}
	return false
}
