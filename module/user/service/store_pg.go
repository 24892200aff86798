package service

import (
	"context"
	"errors"
	"sync"

	usermodel "TMProject/module/user/model"
	coderr "TMProject/tools/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgUserStore struct {
	pool *pgxpool.Pool

	schemaOnce sync.Once
	schemaErr  error
}

func NewPgUserStore(pool *pgxpool.Pool) *PgUserStore {
	return &PgUserStore{pool: pool}
}

func (s *PgUserStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  display_name TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'user',
  password_hash TEXT NOT NULL,
  created_at_ms BIGINT NOT NULL
);`)
	})
	return s.schemaErr
}

func (s *PgUserStore) Create(ctx context.Context, u *usermodel.User) error {
	if err := s.ensureSchema(ctx); err != nil {
		return userStorageErr(err)
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO users (id, username, display_name, role, password_hash, created_at_ms)
VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Username, u.DisplayName, u.Role, u.PasswordHash, u.CreatedAtMS)
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrUsernameTaken
	}
	return userStorageErr(err)
}

func (s *PgUserStore) GetByID(ctx context.Context, id string) (*usermodel.User, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, userStorageErr(err)
	}
	return scanUser(s.pool.QueryRow(ctx, `
SELECT id, username, display_name, role, password_hash, created_at_ms
FROM users WHERE id = $1`, id))
}

func (s *PgUserStore) GetByUsername(ctx context.Context, username string) (*usermodel.User, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, userStorageErr(err)
	}
	return scanUser(s.pool.QueryRow(ctx, `
SELECT id, username, display_name, role, password_hash, created_at_ms
FROM users WHERE username = $1`, username))
}

func (s *PgUserStore) ListOthers(ctx context.Context, me string) ([]usermodel.User, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, userStorageErr(err)
	}
	rows, err := s.pool.Query(ctx, `
SELECT id, username, display_name, role, password_hash, created_at_ms
FROM users WHERE id <> $1 ORDER BY username`, me)
	if err != nil {
		return nil, userStorageErr(err)
	}
	defer rows.Close()

	var out []usermodel.User
	for rows.Next() {
		var u usermodel.User
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Role, &u.PasswordHash, &u.CreatedAtMS); err != nil {
			return nil, userStorageErr(err)
		}
		out = append(out, u)
	}
	if rows.Err() != nil {
		return nil, userStorageErr(rows.Err())
	}
	return out, nil
}

func scanUser(row pgx.Row) (*usermodel.User, error) {
	var u usermodel.User
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Role, &u.PasswordHash, &u.CreatedAtMS)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, coderr.ErrNotFound
	}
	if err != nil {
		return nil, userStorageErr(err)
	}
	return &u, nil
}

func userStorageErr(err error) error {
	return coderr.ErrStorageUnavailable.WrapMsg("postgres users", "err", err)
}
