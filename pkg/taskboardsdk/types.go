package taskboardsdk

import "time"

// FieldError is one field-level validation failure as returned by the
// API.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// User is the public user representation. The password hash and TOTP
// secret never appear on the wire.
type User struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	Avatar     string     `json:"avatar,omitempty"`
	Active     bool       `json:"active"`
	MFAEnabled bool       `json:"mfaEnabled"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// TaskCounts accompanies a user detail response.
type TaskCounts struct {
	CreatedTasks  int `json:"createdTasks"`
	AssignedTasks int `json:"assignedTasks"`
}

// UserDetail is a user plus their task involvement.
type UserDetail struct {
	User
	TaskCounts TaskCounts `json:"taskCounts"`
}

type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Attachment struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	URL          string    `json:"url"`
	Size         int64     `json:"size"`
	MimeType     string    `json:"mimeType"`
	UploadedBy   string    `json:"uploadedBy"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

type Task struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	Status         string       `json:"status"`
	Priority       string       `json:"priority"`
	DueDate        *time.Time   `json:"dueDate,omitempty"`
	CreatedBy      string       `json:"createdBy"`
	AssignedTo     string       `json:"assignedTo,omitempty"`
	Tags           []string     `json:"tags"`
	Comments       []Comment    `json:"comments"`
	Attachments    []Attachment `json:"attachments"`
	EstimatedHours *float64     `json:"estimatedHours,omitempty"`
	ActualHours    *float64     `json:"actualHours,omitempty"`
	CompletedAt    *time.Time   `json:"completedAt,omitempty"`
	Archived       bool         `json:"archived"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// Pagination mirrors the server's page metadata. Pages is
// ceil(Total/Limit).
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

type TaskPage struct {
	Tasks      []Task     `json:"tasks"`
	Pagination Pagination `json:"pagination"`
}

type UserPage struct {
	Users      []User     `json:"users"`
	Pagination Pagination `json:"pagination"`
}

// TaskStats is the dashboard summary. The per-status and per-priority
// maps always carry every enum key, zero filled.
type TaskStats struct {
	TotalTasks        int            `json:"totalTasks"`
	TasksByStatus     map[string]int `json:"tasksByStatus"`
	TasksByPriority   map[string]int `json:"tasksByPriority"`
	OverdueTasks      int            `json:"overdueTasks"`
	CompletedThisWeek int            `json:"completedThisWeek"`
}

// AuthData is returned from register, login, and refresh. User is only
// present on register/login.
type AuthData struct {
	User         *User  `json:"user,omitempty"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

// TOTPEnrollData is returned from the TOTP enrollment endpoint.
type TOTPEnrollData struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest carries credentials plus the TOTP code when the account
// has a second factor enabled.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OTP      string `json:"otp,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ProfileUpdateRequest struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type UserUpdateRequest struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Role   *string `json:"role,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

type TaskCreateRequest struct {
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Status         string     `json:"status,omitempty"`
	Priority       string     `json:"priority,omitempty"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	AssignedTo     string     `json:"assignedTo,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	EstimatedHours *float64   `json:"estimatedHours,omitempty"`
}

// TaskUpdateRequest uses pointers so absent fields stay untouched.
// Setting clearDueDate removes the due date; sending "assignedTo": ""
// unassigns.
type TaskUpdateRequest struct {
	Title          *string    `json:"title,omitempty"`
	Description    *string    `json:"description,omitempty"`
	Status         *string    `json:"status,omitempty"`
	Priority       *string    `json:"priority,omitempty"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	ClearDueDate   bool       `json:"clearDueDate,omitempty"`
	AssignedTo     *string    `json:"assignedTo,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	EstimatedHours *float64   `json:"estimatedHours,omitempty"`
	ActualHours    *float64   `json:"actualHours,omitempty"`
	Archived       *bool      `json:"archived,omitempty"`
}

type CommentRequest struct {
	Text string `json:"text"`
}

type TOTPCodeRequest struct {
	Code string `json:"code"`
}

// TaskSearch holds the query parameters for the task listing endpoint.
// Zero values are omitted from the query string.
type TaskSearch struct {
	Search          string
	Status          []string
	Priority        []string
	AssignedTo      string
	CreatedBy       string
	Tags            []string
	DueFrom         *time.Time
	DueTo           *time.Time
	Overdue         bool
	IncludeArchived bool

	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}
