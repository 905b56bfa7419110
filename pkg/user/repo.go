package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v4/stdlib"

	"forum/pkg/common"
)

const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	password BYTEA NOT NULL
);`

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{
		db: db,
	}
}

func (r *UserRepo) Add(ctx context.Context, u *User) (string, error) {
	var userID int64
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO users(username, email, password) VALUES($1, $2, $3) RETURNING id",
		u.Username, normalizeEmail(u.Email), u.Password).Scan(&userID)
	if err != nil {
		return ``, common.StoreErr("user/repo: user wasn't added", err)
	}
	if userID == 0 {
		return ``, fmt.Errorf("user/repo: user wasn't added, returned id is 0")
	}
	return strconv.FormatInt(userID, 10), nil
}

func (r *UserRepo) GetByUsernameAndPass(ctx context.Context, uname string, pass string) (*User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, username, email, password FROM users where username=$1", uname)
	u := new(User)
	if err := row.Scan(&u.Id, &u.Username, &u.Email, &u.Password); err != nil {
		return nil, fmt.Errorf("user/repo: row scan failed: %w", err)
	}
	if !common.CheckPass(pass, u.Password) {
		return nil, errors.New("user/repo: password is invalid")
	}
	return u, nil
}

func (r *UserRepo) UserExists(ctx context.Context, uname string) bool {
	row := r.db.QueryRowContext(ctx, "SELECT id FROM users where username=$1", uname)
	var id string
	return row.Scan(&id) == nil
}

func (r *UserRepo) GetById(ctx context.Context, uid string) (*User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, username FROM users where id=$1", uid)
	u := new(User)
	err := row.Scan(&u.Id, &u.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user/repo: user %s: %w", uid, common.ErrNotFound)
	}
	if err != nil {
		return nil, common.StoreErr("user/repo: could not scan row", err)
	}
	return u, nil
}

// GetByEmail matches the trimmed, lower-cased address.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, username, email FROM users where email=$1", normalizeEmail(email))
	u := new(User)
	err := row.Scan(&u.Id, &u.Username, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user/repo: no account for %s: %w", email, common.ErrNotFound)
	}
	if err != nil {
		return nil, common.StoreErr("user/repo: could not scan row", err)
	}
	return u, nil
}

func (r *UserRepo) UpdatePasswordByEmail(ctx context.Context, email string, hash []byte) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET password=$1 WHERE email=$2", hash, normalizeEmail(email))
	if err != nil {
		return common.StoreErr("user/repo: failed updating password", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.StoreErr("user/repo: failed reading update result", err)
	}
	if n == 0 {
		return fmt.Errorf("user/repo: no account for %s: %w", email, common.ErrNotFound)
	}
	return nil
}

// Returns all users. Used only for seeding the DB.
func (r *UserRepo) GetAll(ctx context.Context) ([]*User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, username, email FROM users")
	if err != nil {
		return nil, fmt.Errorf("repo: failed executing query for getting all users: %w", err)
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		u := new(User)
		err := rows.Scan(&u.Id, &u.Username, &u.Email)
		if err != nil {
			return nil, fmt.Errorf("user/repo: could not scan row: %w", err)
		}
		users = append(users, u)
	}

	return users, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
