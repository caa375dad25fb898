package db

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/taskify/internal/config"
	"github.com/geocoder89/taskify/internal/domain/task"
	"github.com/geocoder89/taskify/internal/domain/user"
	"github.com/geocoder89/taskify/internal/security"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureDemoUser seeds a demo account with a couple of tasks so a fresh
// environment has something to look at. No-op when already present or when
// the demo credentials are not configured.
func EnsureDemoUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.DemoEmail == "" || cfg.DemoPassword == "" {
		return nil
	}

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, cfg.DemoEmail).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.DemoPassword)

	if err != nil {
		return err
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Name:         cfg.DemoName,
		Email:        cfg.DemoEmail,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)

	if err != nil {
		return err
	}

	seedTasks := []struct {
		title       string
		description string
		status      task.Status
	}{
		{"First task", "Seeded example task", task.StatusPending},
		{"Finished task", "This one is already done", task.StatusCompleted},
	}

	for _, st := range seedTasks {
		_, err = pool.Exec(ctx,
			`INSERT INTO tasks (id, title, description, status, user_id, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			uuid.NewString(), st.title, st.description, st.status, u.ID, now, now,
		)

		if err != nil {
			return err
		}
	}

	return nil
}
