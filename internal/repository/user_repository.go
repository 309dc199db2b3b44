package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/event-bookings/internal/model"
	"github.com/iliyamo/event-bookings/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, name, email, password string, role model.Role, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password, role) VALUES (?,?,?,?)",
		name, email, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password,role,created_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// EnsureAdmin creates the admin user unless one with the same email
// exists.  It returns the user ID and whether a row was inserted.
func (r *UserRepo) EnsureAdmin(ctx context.Context, name, email, password string, cost int) (uint64, bool, error) {
	u, err := r.GetByEmail(ctx, email)
	if err == nil {
		return u.ID, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, false, err
	}
	id, err := r.Create(ctx, name, email, password, model.RoleAdmin, cost)
	if errors.Is(err, ErrEmailExists) {
		u, err := r.GetByEmail(ctx, email)
		return u.ID, false, err
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}
