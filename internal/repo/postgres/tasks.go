package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/taskify/internal/domain/task"
	"github.com/geocoder89/taskify/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TasksRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{pool: pool, prom: prom}
}

func (r *TasksRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *TasksRepo) Create(ctx context.Context, t task.Task) (task.Task, error) {
	err := r.observe("tasks.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO tasks (id, title, description, status, user_id, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			t.ID, t.Title, t.Description, t.Status, t.UserID, t.CreatedAt, t.UpdatedAt,
		)
		return e
	})

	if err != nil {
		return task.Task{}, err
	}

	return t, nil
}

func (r *TasksRepo) ListByOwner(ctx context.Context, ownerID string, filter task.ListFilter) (out []task.Task, err error) {
	query := `SELECT id, title, description, status, user_id, created_at, updated_at
		FROM tasks
		WHERE user_id = $1`

	args := []any{ownerID}

	if filter.Status != nil {
		query += ` AND status = $2`
		args = append(args, *filter.Status)
	}

	// stable ordering so repeated lists (and their ETags) agree
	query += ` ORDER BY created_at ASC, id ASC`

	var rows pgx.Rows

	err = r.observe("tasks.list_by_owner", func() error {
		rows, err = r.pool.Query(ctx, query, args...)
		return err
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out = make([]task.Task, 0)

	for rows.Next() {
		var t task.Task

		err = rows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.UserID, &t.CreatedAt, &t.UpdatedAt)

		if err != nil {
			return nil, err
		}

		out = append(out, t)
	}

	err = rows.Err()

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, id string) (task.Task, error) {
	var t task.Task

	err := r.observe("tasks.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, title, description, status, user_id, created_at, updated_at
			 FROM tasks
			 WHERE id = $1`,
			id,
		).Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}

		return task.Task{}, err
	}

	return t, nil
}

func (r *TasksRepo) Update(ctx context.Context, t task.Task) (task.Task, error) {
	var updated task.Task

	err := r.observe("tasks.update", func() error {
		return r.pool.QueryRow(
			ctx,
			`UPDATE tasks
				SET title = $2,
						description = $3,
						status = $4,
						updated_at = NOW()
			 WHERE id = $1
			 RETURNING id, title, description, status, user_id, created_at, updated_at`,
			t.ID,
			t.Title,
			t.Description,
			t.Status,
		).Scan(
			&updated.ID,
			&updated.Title,
			&updated.Description,
			&updated.Status,
			&updated.UserID,
			&updated.CreatedAt,
			&updated.UpdatedAt,
		)
	})

	if err != nil {
		// the row can vanish between the ownership check and this write;
		// that race degrades to a plain not-found
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}

		return task.Task{}, err
	}

	return updated, nil
}

func (r *TasksRepo) Delete(ctx context.Context, id string) error {
	var tag pgconn.CommandTag

	err := r.observe("tasks.delete", func() error {
		var e error
		tag, e = r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
		return e
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return task.ErrNotFound
	}

	return nil
}
