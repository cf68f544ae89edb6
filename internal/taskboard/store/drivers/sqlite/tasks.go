package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/taskboardhq/taskboard/internal/taskboard/domain"
)

type tasksRepo struct {
	db dbtx
}

const taskColumns = `id, title, description, status, priority, due_date,
	created_by, assigned_to, tags, comments, attachments,
	estimated_hours, actual_hours, completed_at, archived, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (domain.Task, error) {
	var (
		t           domain.Task
		status      string
		priority    string
		dueDate     sql.NullTime
		assignedTo  sql.NullString
		tags        string
		comments    string
		attachments string
		estHours    sql.NullFloat64
		actHours    sql.NullFloat64
		completedAt sql.NullTime
	)
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &status, &priority, &dueDate,
		&t.CreatedBy, &assignedTo, &tags, &comments, &attachments,
		&estHours, &actHours, &completedAt, &t.Archived, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return domain.Task{}, err
	}
	t.Status = domain.Status(status)
	t.Priority = domain.Priority(priority)
	t.DueDate = mapNullTimePtr(dueDate)
	t.AssignedTo = mapNullString(assignedTo)
	t.EstimatedHours = mapNullFloatPtr(estHours)
	t.ActualHours = mapNullFloatPtr(actHours)
	t.CompletedAt = mapNullTimePtr(completedAt)
	if err := decodeJSON(tags, &t.Tags); err != nil {
		return domain.Task{}, err
	}
	if err := decodeJSON(comments, &t.Comments); err != nil {
		return domain.Task{}, err
	}
	if err := decodeJSON(attachments, &t.Attachments); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

func (r *tasksRepo) GetTaskByID(ctx context.Context, id string) (domain.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err != nil {
		return domain.Task{}, mapNotFound(err)
	}
	return t, nil
}

func (r *tasksRepo) CreateTask(ctx context.Context, t domain.Task) error {
	tags, err := encodeJSON(t.Tags)
	if err != nil {
		return err
	}
	comments, err := encodeJSON(t.Comments)
	if err != nil {
		return err
	}
	attachments, err := encodeJSON(t.Attachments)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, status, priority, due_date,
			created_by, assigned_to, tags, comments, attachments,
			estimated_hours, actual_hours, completed_at, archived)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, string(t.Status), string(t.Priority),
		mapOptionalTime(t.DueDate), t.CreatedBy, mapStringNull(t.AssignedTo),
		tags, comments, attachments,
		mapOptionalFloat(t.EstimatedHours), mapOptionalFloat(t.ActualHours),
		mapOptionalTime(t.CompletedAt), t.Archived,
	)
	return mapConstraint(err)
}

func (r *tasksRepo) UpdateTask(ctx context.Context, t domain.Task) error {
	tags, err := encodeJSON(t.Tags)
	if err != nil {
		return err
	}
	comments, err := encodeJSON(t.Comments)
	if err != nil {
		return err
	}
	attachments, err := encodeJSON(t.Attachments)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, status = ?, priority = ?, due_date = ?,
			assigned_to = ?, tags = ?, comments = ?, attachments = ?,
			estimated_hours = ?, actual_hours = ?, completed_at = ?, archived = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		t.Title, t.Description, string(t.Status), string(t.Priority),
		mapOptionalTime(t.DueDate), mapStringNull(t.AssignedTo),
		tags, comments, attachments,
		mapOptionalFloat(t.EstimatedHours), mapOptionalFloat(t.ActualHours),
		mapOptionalTime(t.CompletedAt), t.Archived, t.ID,
	)
	if err != nil {
		return mapConstraint(err)
	}
	return requireRow(res)
}

func (r *tasksRepo) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

var taskSortColumns = map[string]string{
	"title":     "title",
	"status":    "status",
	"priority":  "priority",
	"dueDate":   "due_date",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// buildTaskWhere translates the filter into a conjunctive WHERE clause.
// Overdue overrides the status and due-date range filters; archived
// rows are excluded unless asked for explicitly.
func buildTaskWhere(f domain.TaskFilter, now time.Time) (string, []any) {
	var (
		where []string
		args  []any
	)

	if f.VisibleTo != "" {
		where = append(where, `(created_by = ? OR assigned_to = ?)`)
		args = append(args, f.VisibleTo, f.VisibleTo)
	}
	if f.Search != "" {
		needle := "%" + f.Search + "%"
		where = append(where, `(title LIKE ? OR description LIKE ?)`)
		args = append(args, needle, needle)
	}
	if f.AssignedTo != "" {
		where = append(where, `assigned_to = ?`)
		args = append(args, f.AssignedTo)
	}
	if f.CreatedBy != "" {
		where = append(where, `created_by = ?`)
		args = append(args, f.CreatedBy)
	}
	if len(f.Priority) > 0 {
		where = append(where, fmt.Sprintf(`priority IN (%s)`, placeholders(len(f.Priority))))
		args = append(args, toAnySlice(f.Priority)...)
	}
	if len(f.Tags) > 0 {
		where = append(where, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM json_each(tasks.tags) WHERE json_each.value IN (%s))`,
			placeholders(len(f.Tags))))
		for _, tag := range f.Tags {
			args = append(args, strings.ToLower(tag))
		}
	}

	if f.Overdue {
		where = append(where, `due_date IS NOT NULL AND due_date < ? AND status != ?`)
		args = append(args, now, string(domain.StatusCompleted))
	} else {
		if len(f.Status) > 0 {
			where = append(where, fmt.Sprintf(`status IN (%s)`, placeholders(len(f.Status))))
			args = append(args, toAnySlice(f.Status)...)
		}
		if f.DueFrom != nil {
			where = append(where, `due_date >= ?`)
			args = append(args, *f.DueFrom)
		}
		if f.DueTo != nil {
			where = append(where, `due_date <= ?`)
			args = append(args, *f.DueTo)
		}
	}

	if !f.IncludeArchived {
		where = append(where, `archived = 0`)
	}

	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (r *tasksRepo) Search(ctx context.Context, f domain.TaskFilter, opts domain.PageOptions) (domain.TaskPage, error) {
	opts.Normalize()
	clause, args := buildTaskWhere(f, time.Now().UTC())

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`+clause, args...).Scan(&total); err != nil {
		return domain.TaskPage{}, err
	}

	col, ok := taskSortColumns[opts.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if opts.SortOrder == domain.SortAsc {
		dir = "ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM tasks%s ORDER BY %s %s LIMIT ? OFFSET ?`,
		taskColumns, clause, col, dir)
	rows, err := r.db.QueryContext(ctx, query, append(args, opts.Limit, opts.Offset())...)
	if err != nil {
		return domain.TaskPage{}, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return domain.TaskPage{}, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return domain.TaskPage{}, err
	}

	return domain.TaskPage{
		Tasks:      tasks,
		Pagination: domain.NewPagination(total, opts),
	}, nil
}

func (r *tasksRepo) Stats(ctx context.Context, visibleTo string, now time.Time) (domain.TaskStats, error) {
	stats := domain.NewTaskStats()

	scope := ` WHERE archived = 0`
	var scopeArgs []any
	if visibleTo != "" {
		scope += ` AND (created_by = ? OR assigned_to = ?)`
		scopeArgs = append(scopeArgs, visibleTo, visibleTo)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM tasks`+scope+` GROUP BY status`, scopeArgs...)
	if err != nil {
		return domain.TaskStats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return domain.TaskStats{}, err
		}
		stats.TasksByStatus[domain.Status(status)] = n
		stats.TotalTasks += n
	}
	if err := rows.Err(); err != nil {
		return domain.TaskStats{}, err
	}

	prows, err := r.db.QueryContext(ctx,
		`SELECT priority, COUNT(*) FROM tasks`+scope+` GROUP BY priority`, scopeArgs...)
	if err != nil {
		return domain.TaskStats{}, err
	}
	defer prows.Close()
	for prows.Next() {
		var (
			priority string
			n        int
		)
		if err := prows.Scan(&priority, &n); err != nil {
			return domain.TaskStats{}, err
		}
		stats.TasksByPriority[domain.Priority(priority)] = n
	}
	if err := prows.Err(); err != nil {
		return domain.TaskStats{}, err
	}

	overdueArgs := append(append([]any{}, scopeArgs...), now, string(domain.StatusCompleted))
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks`+scope+` AND due_date IS NOT NULL AND due_date < ? AND status != ?`,
		overdueArgs...).Scan(&stats.OverdueTasks); err != nil {
		return domain.TaskStats{}, err
	}

	weekAgo := now.AddDate(0, 0, -7)
	weekArgs := append(append([]any{}, scopeArgs...), string(domain.StatusCompleted), weekAgo)
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks`+scope+` AND status = ? AND completed_at >= ?`,
		weekArgs...).Scan(&stats.CompletedThisWeek); err != nil {
		return domain.TaskStats{}, err
	}

	return stats, nil
}

func (r *tasksRepo) CountByUser(ctx context.Context, userID string) (created, assigned int, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE created_by = ?`, userID).Scan(&created)
	if err != nil {
		return 0, 0, err
	}
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE assigned_to = ?`, userID).Scan(&assigned)
	if err != nil {
		return 0, 0, err
	}
	return created, assigned, nil
}

func (r *tasksRepo) CountInvolving(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE created_by = ? OR assigned_to = ?`,
		userID, userID).Scan(&n)
	return n, err
}
