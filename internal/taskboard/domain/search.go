package domain

import "time"

// TaskFilter is the conjunctive filter set for task search. Zero values
// mean "don't filter". VisibleTo is the implicit narrowing applied for
// non-admin callers (creator = self OR assignee = self); it is set by
// the service layer, never from client input.
type TaskFilter struct {
	Search          string // case-insensitive substring on title OR description
	Status          []Status
	Priority        []Priority
	AssignedTo      string
	CreatedBy       string
	Tags            []string // any-of intersection
	DueFrom         *time.Time
	DueTo           *time.Time
	Overdue         bool // due date in the past AND status != completed; overrides Status/Due*
	IncludeArchived bool
	VisibleTo       string
}

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Search string // substring on name OR email
	Role   Role   // empty means any
	Active *bool
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// PageOptions is offset-based pagination with a single-column sort.
// Sort columns are whitelisted by the store; unknown columns fall back
// to creation time.
type PageOptions struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder SortOrder
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Normalize clamps the options into their valid ranges.
func (o *PageOptions) Normalize() {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = DefaultPageLimit
	}
	if o.Limit > MaxPageLimit {
		o.Limit = MaxPageLimit
	}
	if o.SortOrder != SortAsc {
		o.SortOrder = SortDesc
	}
}

// Offset is the number of rows to skip for the current page.
func (o PageOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}

// Pagination describes a result page. Pages is ceil(Total/Limit).
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// NewPagination computes the page count for a total row count.
func NewPagination(total int, opts PageOptions) Pagination {
	pages := 0
	if total > 0 {
		pages = (total + opts.Limit - 1) / opts.Limit
	}
	return Pagination{
		Total: total,
		Page:  opts.Page,
		Limit: opts.Limit,
		Pages: pages,
	}
}

// TaskPage is a bounded, sorted slice of the matching tasks.
type TaskPage struct {
	Tasks      []Task
	Pagination Pagination
}

// UserPage is the admin listing equivalent.
type UserPage struct {
	Users      []User
	Pagination Pagination
}
