package store

import (
	"context"
	"errors"
	"time"

	"github.com/taskboardhq/taskboard/internal/taskboard/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite
// today) implement this. The store handle is passed into services
// explicitly; nothing in this package holds global connection state.
type Store interface {
	Users() Users
	Tasks() Tasks
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back when fn
	// returns an error and committing otherwise. Preferred over Tx.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks a user up by (lowercased) email for login
	// and duplicate-email checks.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via
	// ULID). Returns ErrAlreadyExists on a duplicate email.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUser persists name, email, role, avatar, and the active
	// flag, bumping updated_at. Returns ErrAlreadyExists on a
	// duplicate email.
	UpdateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// UpdateLastLogin stamps the last successful login time.
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error

	// UpdateTOTP sets or clears the TOTP secret and activation stamp.
	UpdateTOTP(ctx context.Context, userID string, secret *string, enabledAt *time.Time) error

	// DeleteUser removes the user; refresh tokens cascade per schema.
	DeleteUser(ctx context.Context, userID string) error

	// List returns a filtered, sorted page of users for the admin
	// listing.
	List(ctx context.Context, f domain.UserFilter, opts domain.PageOptions) (domain.UserPage, error)

	// ListActive returns all active users ordered by name, for
	// assignment dropdowns.
	ListActive(ctx context.Context) ([]domain.User, error)
}

type Tasks interface {
	// GetTaskByID loads the full aggregate including tags, comments,
	// and attachments.
	GetTaskByID(ctx context.Context, id string) (domain.Task, error)

	// CreateTask inserts the aggregate.
	CreateTask(ctx context.Context, t domain.Task) error

	// UpdateTask persists the whole aggregate (last write wins; there
	// is deliberately no optimistic concurrency token).
	UpdateTask(ctx context.Context, t domain.Task) error

	// DeleteTask removes the task and its embedded children.
	DeleteTask(ctx context.Context, id string) error

	// Search translates the filter set into a bounded, sorted, paged
	// result. See domain.TaskFilter for composition semantics.
	Search(ctx context.Context, f domain.TaskFilter, opts domain.PageOptions) (domain.TaskPage, error)

	// Stats aggregates counts for the dashboard, scoped to visibleTo
	// when non-empty (admin callers pass "").
	Stats(ctx context.Context, visibleTo string, now time.Time) (domain.TaskStats, error)

	// CountByUser returns how many tasks the user created and how many
	// are assigned to them.
	CountByUser(ctx context.Context, userID string) (created, assigned int, err error)

	// CountInvolving returns how many tasks reference the user as
	// creator or assignee. Used to refuse user deletion.
	CountInvolving(ctx context.Context, userID string) (int, error)
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the token by its SHA-256
	// fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken flips revoked, sets updated_at.
	RevokeRefreshToken(ctx context.Context, hash string) error

	// RevokeAllUserRefreshTokens bulk revocation for a user (e.g.
	// password change).
	RevokeAllUserRefreshTokens(ctx context.Context, userID string) error

	// DeleteExpiredRefreshTokens prunes tokens that expired before the
	// given time. Housekeeping and login both call this.
	DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) error
}
