package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/tphummel/ict_assets/internal/models"
)

const userColumns = `id, name, email, personal_number, password_hash, role, department, is_active, last_login, created_at`

// CreateUser inserts an operator account.
func (d *DB) CreateUser(ctx context.Context, u *models.User) error {
	_, err := d.q.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PersonalNumber, u.PasswordHash, u.Role, u.Department,
		boolInt(u.IsActive), nullTime(u.LastLogin), formatTime(u.CreatedAt),
	)
	return conflict(err, "a user with personal number %s already exists", u.PersonalNumber)
}

// GetUser returns the user with the given ID.
func (d *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	row := d.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	return u, notFound(err, "user")
}

// GetUserByPersonalNumber returns the user signing in with number.
func (d *DB) GetUserByPersonalNumber(ctx context.Context, number string) (*models.User, error) {
	row := d.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE personal_number = ?`, number)
	u, err := scanUser(row)
	return u, notFound(err, "user")
}

// ListUsers returns all users ordered by name.
func (d *DB) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := d.q.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser replaces the profile, role, active flag and password hash of u.ID.
func (d *DB) UpdateUser(ctx context.Context, u *models.User) error {
	res, err := d.q.ExecContext(ctx, `
		UPDATE users SET name=?, email=?, password_hash=?, role=?, department=?, is_active=?
		WHERE id=?`,
		u.Name, u.Email, u.PasswordHash, u.Role, u.Department, boolInt(u.IsActive), u.ID,
	)
	if err != nil {
		return err
	}
	return mustAffect(res, "user")
}

// TouchLastLogin records a successful sign-in.
func (d *DB) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := d.q.ExecContext(ctx, `UPDATE users SET last_login=? WHERE id=?`, formatTime(at), id)
	if err != nil {
		return err
	}
	return mustAffect(res, "user")
}

// CountUsers returns the number of user accounts.
func (d *DB) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := d.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func scanUser(s scanner) (*models.User, error) {
	var u models.User
	var active int
	var lastLogin sql.NullString
	var createdAt string
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PersonalNumber, &u.PasswordHash, &u.Role, &u.Department,
		&active, &lastLogin, &createdAt); err != nil {
		return nil, err
	}
	u.IsActive = active != 0
	var err error
	if u.LastLogin, err = parseNullTime("last_login", lastLogin); err != nil {
		return nil, err
	}
	if u.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	return &u, nil
}
