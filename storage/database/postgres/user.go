package pgrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/learntrack/core"
	"github.com/trezcool/learntrack/core/user"
)

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

type userRow struct {
	ID           int           `db:"id"`
	Name         string        `db:"name"`
	Email        string        `db:"email"`
	Role         string        `db:"role"`
	CourseID     sql.NullInt64 `db:"course_id"`
	PasswordHash []byte        `db:"password_hash"`
	CreatedAt    time.Time     `db:"created_at"`
	LastLogin    sql.NullTime  `db:"last_login"`
}

func (r userRow) user() user.User {
	usr := user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Role:         user.Role(r.Role),
		CourseID:     intPtr(r.CourseID),
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time
	}
	return usr
}

func users(rows []userRow) []user.User {
	res := make([]user.User, 0, len(rows))
	for _, r := range rows {
		res = append(res, r.user())
	}
	return res
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	q := `SELECT id FROM users WHERE lower(email) = lower($1)`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, strconv.Itoa(u.ID))
		}
		q += ` AND id NOT IN (` + strings.Join(ids, ",") + `)`
	}
	q += ` LIMIT 1`

	var id int
	err := getExec(repo.exec, exec).GetContext(ctx, &id, q, args...)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	return user.ErrEmailExists
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	q := `
INSERT INTO users (name, email, role, course_id, password_hash, created_at, last_login)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`
	err := getExec(repo.exec, exec).GetContext(ctx, &usr.ID, q,
		usr.Name, usr.Email, string(usr.Role), nullInt(usr.CourseID), usr.PasswordHash,
		usr.CreatedAt.UTC(), nullTime(usr.LastLogin))
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	q := `
SELECT id, name, email, role, course_id, password_hash, created_at, last_login
FROM users WHERE `
	var arg interface{}
	if filter.ID != 0 {
		q += `id = $1`
		arg = filter.ID
	} else {
		q += `lower(email) = lower($1)`
		arg = filter.Email
	}

	var row userRow
	if err := getExec(repo.exec, exec).GetContext(ctx, &row, q, arg); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user")
	}
	return row.user(), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	q := `
SELECT id, name, email, role, course_id, password_hash, created_at, last_login
FROM users`

	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter != nil {
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			conds = append(conds, `(name ILIKE `+p+` OR email ILIKE `+p+`)`)
		}
		if filter.Role != "" {
			conds = append(conds, `role = `+arg(string(filter.Role)))
		}
		if filter.CourseID != nil {
			conds = append(conds, `course_id = `+arg(*filter.CourseID))
		}
	}
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}

	if len(ordering) > 0 {
		ords := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			ords = append(ords, ord.String())
		}
		q += ` ORDER BY ` + strings.Join(ords, ", ")
	} else {
		q += ` ORDER BY created_at DESC`
	}

	var rows []userRow
	if err := getExec(repo.exec, exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users(rows), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	q := `
UPDATE users
SET name = $1, email = $2, role = $3, course_id = $4, password_hash = $5, last_login = $6
WHERE id = $7
RETURNING id`
	var id int
	err := getExec(repo.exec, exec).GetContext(ctx, &id, q,
		usr.Name, usr.Email, string(usr.Role), nullInt(usr.CourseID), usr.PasswordHash, nullTime(usr.LastLogin), usr.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, repo.trapNoRowsErr(err, "updating user")
	}
	return usr, nil
}

func (repo userRepository) DeleteUser(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return errors.Wrap(err, "deleting user")
}
