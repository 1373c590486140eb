package sqlpg

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/chuoapp/chuo/core"
	"github.com/chuoapp/chuo/core/user"
)

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	PasswordHash []byte         `db:"password_hash"`
	Roles        pq.StringArray `db:"roles"`
	IsActive     bool           `db:"is_active"`
	Program      string         `db:"program"`
	Semester     int            `db:"semester"`
	Department   string         `db:"department"`
	LastLogin    sql.NullTime   `db:"last_login"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r userRow) toUser() user.User {
	usr := user.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Roles:        r.Roles,
		IsActive:     r.IsActive,
		Program:      r.Program,
		Semester:     r.Semester,
		Department:   r.Department,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time
	}
	return usr
}

func toUsers(rows []userRow) []user.User {
	usrs := make([]user.User, 0, len(rows))
	for _, r := range rows {
		usrs = append(usrs, r.toUser())
	}
	return usrs
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	exclIDs := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		exclIDs = append(exclIDs, usr.ID)
	}

	const q = `
	SELECT username, email FROM app_user
	WHERE (LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($2)) AND NOT (id = ANY($3))`
	rows := make([]struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}, 0, 1)
	if err := repo.db.SelectContext(ctx, &rows, q, username, email, pq.Array(exclIDs)); err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	for _, r := range rows {
		if r.Username == username {
			return user.ErrUsernameExists
		}
		if r.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = newID()
	}

	const q = `
	INSERT INTO app_user (id, name, username, email, password_hash, roles, is_active, program, semester, department, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := repo.db.ExecContext(ctx, q,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.PasswordHash, pq.Array(usr.Roles),
		usr.IsActive, usr.Program, usr.Semester, usr.Department, usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "app_user_username_key") {
			return user.User{}, user.ErrUsernameExists
		}
		if isUniqueViolation(err, "app_user_email_key") {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM app_user ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return toUsers(rows), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getUser(ctx, `SELECT * FROM app_user WHERE id = $1`, id)
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, `SELECT * FROM app_user WHERE LOWER(username) = LOWER($1)`, username)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, `SELECT * FROM app_user WHERE LOWER(email) = LOWER($1)`, email)
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, `SELECT * FROM app_user WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($1)`, username)
}

func (repo *userRepository) getUser(ctx context.Context, q string, args ...interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

// sortable columns exposed via the API's `ordering` query param.
var userOrderingColumns = map[string]bool{
	"name":       true,
	"username":   true,
	"email":      true,
	"created_at": true,
	"last_login": true,
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, orderings ...core.DBOrdering) ([]user.User, error) {
	q := `SELECT * FROM app_user WHERE 1=1`
	var args []interface{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		p := placeholder(len(args))
		q += ` AND (name ILIKE ` + p + ` OR username ILIKE ` + p + ` OR email ILIKE ` + p + `)`
	}
	if len(filter.Roles) > 0 {
		// prefix role match: any role in the array starting with one of the filters
		args = append(args, pq.Array(filter.Roles))
		q += `
		AND EXISTS (
			SELECT 1 FROM unnest(roles) AS r, unnest(` + placeholder(len(args)) + `::text[]) AS f
			WHERE r LIKE f || '%'
		)`
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		q += ` AND is_active = ` + placeholder(len(args))
	}
	if !filter.CreatedFrom.IsZero() {
		args = append(args, filter.CreatedFrom.UTC())
		q += ` AND created_at >= ` + placeholder(len(args))
	}
	if !filter.CreatedTo.IsZero() {
		args = append(args, filter.CreatedTo.UTC())
		q += ` AND created_at <= ` + placeholder(len(args))
	}
	var orderBy []string
	for _, ord := range orderings {
		if userOrderingColumns[ord.Field] {
			orderBy = append(orderBy, ord.String())
		}
	}
	if len(orderBy) == 0 {
		orderBy = []string{"created_at ASC"}
	}
	q += ` ORDER BY ` + strings.Join(orderBy, ", ")

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	return toUsers(rows), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	const q = `
	UPDATE app_user SET
		name = COALESCE(NULLIF($2, ''), name),
		username = COALESCE(NULLIF($3, ''), username),
		email = COALESCE(NULLIF($4, ''), email),
		password_hash = COALESCE($5, password_hash),
		roles = CASE WHEN $6::text[] IS NULL THEN roles ELSE $6::text[] END,
		is_active = COALESCE($7, is_active),
		program = COALESCE(NULLIF($8, ''), program),
		semester = CASE WHEN $9 = 0 THEN semester ELSE $9 END,
		department = COALESCE(NULLIF($10, ''), department),
		last_login = CASE WHEN $11::timestamptz IS NULL THEN last_login ELSE $11::timestamptz END,
		updated_at = CASE WHEN $12::timestamptz IS NULL THEN updated_at ELSE $12::timestamptz END
	WHERE id = $1`

	var roles interface{}
	if usr.Roles != nil {
		roles = pq.Array(usr.Roles)
	}
	var lastLogin interface{}
	if !usr.LastLogin.IsZero() {
		lastLogin = usr.LastLogin.UTC()
	}
	var updatedAt interface{}
	if !usr.UpdatedAt.IsZero() {
		updatedAt = usr.UpdatedAt.UTC()
	}

	res, err := repo.db.ExecContext(ctx, q,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.PasswordHash, roles,
		isActive, usr.Program, usr.Semester, usr.Department, lastLogin, updatedAt,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM app_user WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
