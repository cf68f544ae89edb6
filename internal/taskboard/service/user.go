package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/taskboardhq/taskboard/internal/taskboard/domain"
	"github.com/taskboardhq/taskboard/internal/taskboard/store"
	"github.com/taskboardhq/taskboard/internal/taskboard/validate"
	"github.com/taskboardhq/taskboard/pkg/slogx"
)

var (
	ErrSelfDelete   = errors.New("self_delete")
	ErrUserHasTasks = errors.New("user_has_tasks")
)

// UserService covers the admin-only user administration surface plus
// the assignable-users listing available to everyone.
type UserService struct {
	Store store.Store
}

// List returns a filtered, paginated user listing.
func (s *UserService) List(ctx context.Context, f domain.UserFilter, opts domain.PageOptions) (domain.UserPage, error) {
	return s.Store.Users().List(ctx, f, opts)
}

// Get returns a user's profile together with their task counts.
func (s *UserService) Get(ctx context.Context, userID string) (domain.User, domain.UserTaskCounts, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, domain.UserTaskCounts{}, err
	}
	created, assigned, err := s.Store.Tasks().CountByUser(ctx, userID)
	if err != nil {
		return domain.User{}, domain.UserTaskCounts{}, err
	}
	return user, domain.UserTaskCounts{CreatedTasks: created, AssignedTasks: assigned}, nil
}

// Update applies admin edits: name, email, role, active flag.
func (s *UserService) Update(ctx context.Context, userID string, in validate.UserUpdateInput) (domain.User, error) {
	if verrs := validate.UserUpdate(in); !verrs.Ok() {
		return domain.User{}, verrs
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Role != nil {
		user.Role = domain.Role(*in.Role)
	}
	if in.Active != nil {
		user.Active = *in.Active
	}

	if err := s.Store.Users().UpdateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user updated", slog.String("user_id", userID))
	return user, nil
}

// Delete removes a user. It refuses to delete the acting admin's own
// account and any user still referenced by tasks as creator or
// assignee.
func (s *UserService) Delete(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return ErrSelfDelete
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Users().GetUserByID(ctx, userID); err != nil {
			return err
		}
		involved, err := tx.Tasks().CountInvolving(ctx, userID)
		if err != nil {
			return err
		}
		if involved > 0 {
			return ErrUserHasTasks
		}
		if err := tx.Users().DeleteUser(ctx, userID); err != nil {
			return err
		}
		slogx.FromContext(ctx).Info("user deleted",
			slog.String("user_id", userID),
			slog.String("deleted_by", actorID))
		return nil
	})
}

// Assignable lists every active user, for assignment dropdowns.
func (s *UserService) Assignable(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListActive(ctx)
}
