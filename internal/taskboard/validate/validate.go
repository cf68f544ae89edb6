// Package validate holds the request validation rules, executed before
// any service mutation. Rules produce a flat list of field/message
// pairs and are deliberately decoupled from the persistence schema.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/taskboardhq/taskboard/internal/taskboard/domain"
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is the full validation outcome. A nil/empty Errors means the
// input passed.
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Ok reports whether no rule failed.
func (e Errors) Ok() bool { return len(e) == 0 }

func (e *Errors) add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nameRe  = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	// Password needs at least one letter and one digit.
	passwordLetterRe = regexp.MustCompile(`[A-Za-z]`)
	passwordDigitRe  = regexp.MustCompile(`\d`)
)

const (
	NameMinLen        = 2
	NameMaxLen        = 50
	PasswordMinLen    = 6
	TitleMinLen       = 3
	TitleMaxLen       = 100
	DescriptionMaxLen = 1000
	CommentMaxLen     = 500
	TagMaxLen         = 20
	HoursMax          = 1000
)

func checkName(e *Errors, name string, required bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		if required {
			e.add("name", "Name is required")
		}
		return
	}
	if n := utf8.RuneCountInString(name); n < NameMinLen || n > NameMaxLen {
		e.add("name", fmt.Sprintf("Name must be between %d-%d characters", NameMinLen, NameMaxLen))
		return
	}
	if !nameRe.MatchString(name) {
		e.add("name", "Name can only contain letters and spaces")
	}
}

func checkEmail(e *Errors, email string, required bool) {
	email = strings.TrimSpace(email)
	if email == "" {
		if required {
			e.add("email", "Email is required")
		}
		return
	}
	if !emailRe.MatchString(email) {
		e.add("email", "Please provide a valid email")
	}
}

func checkPassword(e *Errors, field, password string) {
	if password == "" {
		e.add(field, "Password is required")
		return
	}
	if len(password) < PasswordMinLen {
		e.add(field, fmt.Sprintf("Password must be at least %d characters", PasswordMinLen))
		return
	}
	if !passwordLetterRe.MatchString(password) || !passwordDigitRe.MatchString(password) {
		e.add(field, "Password must contain at least one letter and one number")
	}
}

// RegisterInput is the registration request body.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

func Register(in RegisterInput) Errors {
	var e Errors
	checkName(&e, in.Name, true)
	checkEmail(&e, in.Email, true)
	checkPassword(&e, "password", in.Password)
	return e
}

// LoginInput is the login request body. OTP is only consulted when the
// account has a second factor enabled.
type LoginInput struct {
	Email    string
	Password string
}

func Login(in LoginInput) Errors {
	var e Errors
	checkEmail(&e, in.Email, true)
	if in.Password == "" {
		e.add("password", "Password is required")
	}
	return e
}

// ProfileUpdateInput carries optional profile fields; nil means "leave
// unchanged".
type ProfileUpdateInput struct {
	Name   *string
	Email  *string
	Avatar *string
}

func ProfileUpdate(in ProfileUpdateInput) Errors {
	var e Errors
	if in.Name != nil {
		checkName(&e, *in.Name, true)
	}
	if in.Email != nil {
		checkEmail(&e, *in.Email, true)
	}
	return e
}

type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

func ChangePassword(in ChangePasswordInput) Errors {
	var e Errors
	if in.CurrentPassword == "" {
		e.add("currentPassword", "Current password is required")
	}
	checkPassword(&e, "newPassword", in.NewPassword)
	if in.NewPassword != "" && in.NewPassword == in.CurrentPassword {
		e.add("newPassword", "New password must be different from current password")
	}
	return e
}

// UserUpdateInput is the admin user-update body.
type UserUpdateInput struct {
	Name   *string
	Email  *string
	Role   *string
	Active *bool
}

func UserUpdate(in UserUpdateInput) Errors {
	var e Errors
	if in.Name != nil {
		checkName(&e, *in.Name, true)
	}
	if in.Email != nil {
		checkEmail(&e, *in.Email, true)
	}
	if in.Role != nil && !domain.Role(*in.Role).Valid() {
		e.add("role", "Role must be user or admin")
	}
	return e
}

// TaskCreateInput mirrors the task creation body.
type TaskCreateInput struct {
	Title          string
	Description    string
	Status         string
	Priority       string
	DueDate        *time.Time
	AssignedTo     string
	Tags           []string
	EstimatedHours *float64
}

// TaskCreate validates a creation request. The due-date-in-the-future
// rule applies here and only here; updates intentionally skip it (the
// original system behaves this way, inconsistent as it looks).
func TaskCreate(in TaskCreateInput, now time.Time) Errors {
	var e Errors
	checkTitle(&e, in.Title, true)
	checkDescription(&e, in.Description)
	checkStatus(&e, in.Status)
	checkPriority(&e, in.Priority)
	checkTags(&e, in.Tags)
	checkHours(&e, "estimatedHours", in.EstimatedHours)
	if in.DueDate != nil && !in.DueDate.After(now) {
		e.add("dueDate", "Due date must be in the future")
	}
	return e
}

// TaskUpdateInput carries optional task fields; nil means unchanged.
// AssignedTo distinguishes "not sent" (nil) from "unassign" (pointer to
// empty string).
type TaskUpdateInput struct {
	Title          *string
	Description    *string
	Status         *string
	Priority       *string
	DueDate        *time.Time
	ClearDueDate   bool
	AssignedTo     *string
	Tags           []string
	TagsSet        bool
	EstimatedHours *float64
	ActualHours    *float64
	Archived       *bool
}

func TaskUpdate(in TaskUpdateInput) Errors {
	var e Errors
	if in.Title != nil {
		checkTitle(&e, *in.Title, true)
	}
	if in.Description != nil {
		checkDescription(&e, *in.Description)
	}
	if in.Status != nil {
		checkStatus(&e, *in.Status)
	}
	if in.Priority != nil {
		checkPriority(&e, *in.Priority)
	}
	if in.TagsSet {
		checkTags(&e, in.Tags)
	}
	checkHours(&e, "estimatedHours", in.EstimatedHours)
	checkHours(&e, "actualHours", in.ActualHours)
	return e
}

func Comment(text string) Errors {
	var e Errors
	text = strings.TrimSpace(text)
	if text == "" {
		e.add("text", "Comment text is required")
		return e
	}
	if utf8.RuneCountInString(text) > CommentMaxLen {
		e.add("text", fmt.Sprintf("Comment must be between 1-%d characters", CommentMaxLen))
	}
	return e
}

func checkTitle(e *Errors, title string, required bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		if required {
			e.add("title", "Title is required")
		}
		return
	}
	if n := utf8.RuneCountInString(title); n < TitleMinLen || n > TitleMaxLen {
		e.add("title", fmt.Sprintf("Title must be between %d-%d characters", TitleMinLen, TitleMaxLen))
	}
}

func checkDescription(e *Errors, desc string) {
	if utf8.RuneCountInString(desc) > DescriptionMaxLen {
		e.add("description", fmt.Sprintf("Description cannot exceed %d characters", DescriptionMaxLen))
	}
}

func checkStatus(e *Errors, status string) {
	if status != "" && !domain.Status(status).Valid() {
		e.add("status", "Status must be pending, in_progress, completed, or cancelled")
	}
}

func checkPriority(e *Errors, priority string) {
	if priority != "" && !domain.Priority(priority).Valid() {
		e.add("priority", "Priority must be low, medium, high, or urgent")
	}
}

func checkTags(e *Errors, tags []string) {
	for _, tag := range tags {
		if utf8.RuneCountInString(tag) > TagMaxLen {
			e.add("tags", fmt.Sprintf("Each tag must be a string with max %d characters", TagMaxLen))
			return
		}
	}
}

func checkHours(e *Errors, field string, hours *float64) {
	if hours == nil {
		return
	}
	if *hours < 0 || *hours > HoursMax {
		e.add(field, fmt.Sprintf("%s must be between 0-%d", field, HoursMax))
	}
}
