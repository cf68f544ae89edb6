package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/taskboardhq/taskboard/internal/taskboard/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, name, email, password_hash, role, avatar, active,
	last_login, totp_secret, totp_enabled, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var (
		u           domain.User
		avatar      sql.NullString
		lastLogin   sql.NullTime
		totpSecret  sql.NullString
		totpEnabled sql.NullTime
		role        string
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &avatar, &u.Active,
		&lastLogin, &totpSecret, &totpEnabled, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	u.Role = domain.Role(role)
	u.Avatar = mapNullString(avatar)
	u.LastLogin = mapNullTimePtr(lastLogin)
	u.TOTPSecret = mapNullStringPtr(totpSecret)
	u.TOTPEnabled = mapNullTimePtr(totpEnabled)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email))
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, avatar, active, last_login)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, strings.ToLower(u.Email), u.PasswordHash, string(u.Role),
		mapStringNull(u.Avatar), u.Active, mapOptionalTime(u.LastLogin),
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdateUser(ctx context.Context, u domain.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET name = ?, email = ?, role = ?, avatar = ?, active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		u.Name, strings.ToLower(u.Email), string(u.Role), mapStringNull(u.Avatar), u.Active, u.ID,
	)
	if err != nil {
		return mapConstraint(err)
	}
	return requireRow(res)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		newHash, userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET last_login = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		at, userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) UpdateTOTP(ctx context.Context, userID string, secret *string, enabledAt *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET totp_secret = ?, totp_enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		mapOptionalString(secret), mapOptionalTime(enabledAt), userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// userSortColumns whitelists sortable columns; client-supplied names
// outside this map fall back to created_at.
var userSortColumns = map[string]string{
	"name":      "name",
	"email":     "email",
	"role":      "role",
	"createdAt": "created_at",
	"lastLogin": "last_login",
}

func (r *usersRepo) List(ctx context.Context, f domain.UserFilter, opts domain.PageOptions) (domain.UserPage, error) {
	opts.Normalize()

	var (
		where []string
		args  []any
	)
	if f.Search != "" {
		needle := "%" + f.Search + "%"
		where = append(where, `(name LIKE ? OR email LIKE ?)`)
		args = append(args, needle, needle)
	}
	if f.Role != "" {
		where = append(where, `role = ?`)
		args = append(args, string(f.Role))
	}
	if f.Active != nil {
		where = append(where, `active = ?`)
		args = append(args, *f.Active)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+clause, args...).Scan(&total); err != nil {
		return domain.UserPage{}, err
	}

	col, ok := userSortColumns[opts.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if opts.SortOrder == domain.SortAsc {
		dir = "ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY %s %s LIMIT ? OFFSET ?`,
		userColumns, clause, col, dir)
	rows, err := r.db.QueryContext(ctx, query, append(args, opts.Limit, opts.Offset())...)
	if err != nil {
		return domain.UserPage{}, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return domain.UserPage{}, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return domain.UserPage{}, err
	}

	return domain.UserPage{
		Users:      users,
		Pagination: domain.NewPagination(total, opts),
	}, nil
}

func (r *usersRepo) ListActive(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE active = 1 ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// requireRow converts a zero-row UPDATE/DELETE into store.ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
