package sqlxrepos

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
)

const (
	userTable          = `"user"`
	relationTable      = "user_relation"
	usernameConstraint = "user_username_key"
	emailConstraint    = "user_email_key"
)

var (
	userColumns = []string{
		"id", "username", "email", "firstname", "middlename", "lastname", "phone", "lang", "auth",
		"confirmed", "roles", "password_hash", "created_at", "updated_at", "last_login",
	}

	likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
)

type userRow struct {
	ID           int64          `db:"id"`
	Username     string         `db:"username"`
	Email        null.String    `db:"email"`
	FirstName    string         `db:"firstname"`
	MiddleName   string         `db:"middlename"`
	LastName     string         `db:"lastname"`
	Phone        string         `db:"phone"`
	Lang         string         `db:"lang"`
	Auth         string         `db:"auth"`
	Confirmed    bool           `db:"confirmed"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash null.Bytes     `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) user.Repository {
	return &userRepository{exec: exec}
}

func (repo userRepository) toRow(usr user.User) userRow {
	roles := usr.Roles
	if roles == nil {
		roles = []string{}
	}
	return userRow{
		ID:           usr.ID,
		Username:     usr.Username,
		Email:        null.NewString(usr.Email, usr.Email != ""),
		FirstName:    usr.FirstName,
		MiddleName:   usr.MiddleName,
		LastName:     usr.LastName,
		Phone:        usr.Phone,
		Lang:         usr.Lang,
		Auth:         usr.Auth,
		Confirmed:    usr.Confirmed,
		Roles:        roles,
		PasswordHash: null.NewBytes(usr.PasswordHash, len(usr.PasswordHash) > 0),
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo userRepository) fromRow(row userRow) user.User {
	return user.User{
		ID:           row.ID,
		Username:     row.Username,
		Email:        row.Email.String,
		FirstName:    row.FirstName,
		MiddleName:   row.MiddleName,
		LastName:     row.LastName,
		Phone:        row.Phone,
		Lang:         row.Lang,
		Auth:         row.Auth,
		Confirmed:    row.Confirmed,
		Roles:        []string(row.Roles),
		PasswordHash: row.PasswordHash.Bytes,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
		LastLogin:    row.LastLogin.Time.UTC(),
	}
}

func (repo userRepository) fromRows(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.fromRow(row))
	}
	return users
}

// trapUniqueErr maps unique violations to the user package errors.
func (repo userRepository) trapUniqueErr(err error, msg string) error {
	if code, constraint := pqCode(err); code == pqUniqueViolation {
		switch constraint {
		case usernameConstraint:
			return user.ErrUsernameExists
		case emailConstraint:
			return user.ErrEmailExists
		}
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	var or sq.Or
	if username != "" {
		or = append(or, sq.Eq{"username": username})
	}
	if email != "" {
		or = append(or, sq.Eq{"email": email})
	}
	if len(or) == 0 {
		return nil
	}

	query := psql.Select("username", "COALESCE(email, '') AS email").From(userTable).Where(or)
	if len(excludedUsers) > 0 {
		ids := make([]int64, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		query = query.Where(sq.NotEq{"id": ids})
	}
	q, args, err := query.ToSql()
	if err != nil {
		return errors.Wrap(err, "building uniqueness query")
	}

	var matches []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	if err = repo.exec.SelectContext(ctx, &matches, q, args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, m := range matches {
		if username != "" && m.Username == username {
			return user.ErrUsernameExists
		}
	}
	if len(matches) > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := repo.toRow(usr)
	q, args, err := psql.Insert(userTable).
		Columns(userColumns[1:]...).
		Values(
			row.Username, row.Email, row.FirstName, row.MiddleName, row.LastName, row.Phone, row.Lang, row.Auth,
			row.Confirmed, row.Roles, row.PasswordHash, row.CreatedAt, row.UpdatedAt, row.LastLogin,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building user insert")
	}
	if err = repo.exec.QueryRowxContext(ctx, q, args...).Scan(&row.ID); err != nil {
		return user.User{}, repo.trapUniqueErr(err, "inserting user")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	query := psql.Select(userColumns...).From(userTable).Limit(1)
	switch {
	case filter.ID != 0:
		query = query.Where(sq.Eq{"id": filter.ID})
	case filter.Username != "":
		query = query.Where(sq.Eq{"username": filter.Username})
	case filter.Email != "":
		query = query.Where(sq.Expr("LOWER(email) = LOWER(?)", filter.Email))
	case filter.UsernameOrEmail != "":
		query = query.Where(sq.Or{
			sq.Eq{"username": filter.UsernameOrEmail},
			sq.Expr("LOWER(email) = LOWER(?)", filter.UsernameOrEmail),
		}).OrderBy("id")
	default:
		return user.User{}, user.ErrNotFound
	}

	q, args, err := query.ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building user query")
	}
	var row userRow
	if err = repo.exec.GetContext(ctx, &row, q, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) QueryUsersByID(ctx context.Context, ids ...int64) ([]user.User, error) {
	if len(ids) == 0 {
		return []user.User{}, nil
	}
	q, args, err := psql.Select(userColumns...).From(userTable).Where(sq.Eq{"id": ids}).OrderBy("id").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building users query")
	}
	var rows []userRow
	if err = repo.exec.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return repo.fromRows(rows), nil
}

func (repo userRepository) QueryUsernames(ctx context.Context, prefix string) ([]string, error) {
	q, args, err := psql.Select("username").
		From(userTable).
		Where(sq.Expr(`username LIKE ? ESCAPE '\'`, likeEscaper.Replace(prefix)+"%")).
		OrderBy("username").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building usernames query")
	}
	unames := make([]string, 0)
	if err = repo.exec.SelectContext(ctx, &unames, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying usernames")
	}
	return unames, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := repo.toRow(usr)
	q, args, err := psql.Update(userTable).
		SetMap(map[string]interface{}{
			"username":      row.Username,
			"email":         row.Email,
			"firstname":     row.FirstName,
			"middlename":    row.MiddleName,
			"lastname":      row.LastName,
			"phone":         row.Phone,
			"lang":          row.Lang,
			"auth":          row.Auth,
			"confirmed":     row.Confirmed,
			"roles":         row.Roles,
			"password_hash": row.PasswordHash,
			"updated_at":    row.UpdatedAt,
			"last_login":    row.LastLogin,
		}).
		Where(sq.Eq{"id": row.ID}).
		ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building user update")
	}
	res, err := repo.exec.ExecContext(ctx, q, args...)
	if err != nil {
		return user.User{}, repo.trapUniqueErr(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) CreateRelation(ctx context.Context, rel user.Relation) error {
	q, args, err := psql.Insert(relationTable).
		Columns("parent_id", "student_id", "role", "created_at").
		Values(rel.ParentID, rel.StudentID, rel.Role, rel.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building relation insert")
	}
	if _, err = repo.exec.ExecContext(ctx, q, args...); err != nil {
		switch code, _ := pqCode(err); code {
		case pqUniqueViolation:
			return user.ErrRelationExists
		case pqForeignKeyViolation:
			return user.ErrNotFound
		}
		return errors.Wrap(err, "inserting relation")
	}
	return nil
}

func (repo userRepository) QueryStudents(ctx context.Context, parentID int64) ([]user.User, error) {
	cols := make([]string, 0, len(userColumns))
	for _, col := range userColumns {
		cols = append(cols, "u."+col)
	}
	q, args, err := psql.Select(cols...).
		From(userTable+" u").
		Join(relationTable+" r ON r.student_id = u.id").
		Where(sq.Eq{"r.parent_id": parentID, "r.role": user.RelationRoleParent}).
		OrderBy("u.id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building students query")
	}
	var rows []userRow
	if err = repo.exec.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return repo.fromRows(rows), nil
}
