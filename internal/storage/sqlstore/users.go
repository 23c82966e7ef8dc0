package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/IlyasAtabaev731/kodbank/internal/domain/models"
	"github.com/IlyasAtabaev731/kodbank/internal/storage"
)

// SaveUser creates a user together with its opening accounts in one
// transaction. email must already be normalized.
func (s *Storage) SaveUser(ctx context.Context, name, email string, passHash []byte, accounts []models.NewAccount) (*models.User, error) {
	const op = "storage.sqlstore.SaveUser"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: passHash,
		CreatedAt:    now(),
	}

	err = tx.QueryRowContext(ctx,
		"INSERT INTO users (name, email, password_hash, created_at) VALUES ($1, $2, $3, $4) RETURNING id",
		user.Name, user.Email, user.PasswordHash, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, acc := range accounts {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO accounts (user_id, name, type, balance, created_at) VALUES ($1, $2, $3, $4, $5)",
			user.ID, acc.Name, string(acc.Type), acc.Balance, user.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

func (s *Storage) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.sqlstore.FindUserByEmail"

	user, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, created_at FROM users WHERE email = $1", email,
	))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.sqlstore.GetUser"

	user, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, created_at FROM users WHERE id = $1", id,
	))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User

	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, err
	}

	return &user, nil
}

// now is truncated to the precision Postgres keeps, so values written and
// read back compare equal.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
