package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"makemybill/m/domain"
)

type userRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

type UserRepo struct {
	db *sqlx.DB
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(u.Email)
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO users (id, name, email, password_hash, role, created_at)
        VALUES (:id, :name, :email, :password_hash, :role, :created_at)`, userRow(u))
	if err != nil {
		if isUniqueViolation(err, "email") {
			return domain.User{}, domain.ErrDuplicateEmail
		}
		return domain.User{}, mapErr(fmt.Errorf("insert user: %w", err))
	}
	return u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT id, name, email, password_hash, role, created_at
        FROM users WHERE email = ?`), strings.ToLower(email))
	if err != nil {
		return domain.User{}, lookupErr(err, "user "+email)
	}
	return domain.User(row), nil
}
