package boiledrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"
	"github.com/volatiletech/sqlboiler/v4/types"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/user"
)

const userTable = `"user"`

var (
	userColumns = []string{
		"id", "organization_id", "name", "username", "email", "is_active", "roles", "password_hash",
		"created_at", "updated_at", "last_login",
	}

	userOrderings = map[string]string{
		"name":       "name",
		"username":   "username",
		"email":      "email",
		"created_at": "created_at",
		"last_login": "last_login",
	}
)

type boiledUser struct {
	ID             string            `boil:"id"`
	OrganizationID null.String       `boil:"organization_id"`
	Name           string            `boil:"name"`
	Username       null.String       `boil:"username"`
	Email          null.String       `boil:"email"`
	IsActive       bool              `boil:"is_active"`
	Roles          types.StringArray `boil:"roles"`
	PasswordHash   null.Bytes        `boil:"password_hash"`
	CreatedAt      time.Time         `boil:"created_at"`
	UpdatedAt      time.Time         `boil:"updated_at"`
	LastLogin      null.Time         `boil:"last_login"`
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

func (repo userRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	return getExec(svcExec, repo.exec)
}

func (repo userRepository) boil(usr user.User) boiledUser {
	roles := usr.Roles
	if roles == nil {
		roles = []string{}
	}
	return boiledUser{
		ID:             usr.ID,
		OrganizationID: null.NewString(usr.OrganizationID, usr.OrganizationID != ""),
		Name:           usr.Name,
		Username:       null.NewString(usr.Username, usr.Username != ""),
		Email:          null.NewString(usr.Email, usr.Email != ""),
		IsActive:       usr.IsActive,
		Roles:          roles,
		PasswordHash:   null.NewBytes(usr.PasswordHash, usr.PasswordHash != nil),
		CreatedAt:      usr.CreatedAt.UTC(),
		UpdatedAt:      usr.UpdatedAt.UTC(),
		LastLogin:      null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo userRepository) unboil(u boiledUser) user.User {
	return user.User{
		ID:             u.ID,
		OrganizationID: u.OrganizationID.String,
		Name:           u.Name,
		Username:       u.Username.String,
		Email:          u.Email.String,
		IsActive:       u.IsActive,
		Roles:          u.Roles,
		PasswordHash:   u.PasswordHash.Bytes,
		CreatedAt:      u.CreatedAt.UTC(),
		UpdatedAt:      u.UpdatedAt.UTC(),
		LastLogin:      u.LastLogin.Time.UTC(),
	}
}

func (repo userRepository) unboilSlice(slice []boiledUser) []user.User {
	users := make([]user.User, 0, len(slice))
	for _, u := range slice {
		users = append(users, repo.unboil(u))
	}
	return users
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	mods := []qm.QueryMod{
		qm.Select("username", "email"),
		qm.From(userTable),
		qm.Expr(qm.Where("username = ?", null.NewString(username, username != "")), qm.Or("email = ?", null.NewString(email, email != ""))),
	}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		mods = append(mods, qm.Where("id::text <> ALL(?)", pq.Array(ids)))
	}
	mods = append(mods, qm.Limit(1))

	var found struct {
		Username null.String `boil:"username"`
		Email    null.String `boil:"email"`
	}
	err := newQuery(mods...).Bind(ctx, repo.getExec(exec), &found)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return nil
		}
		return errors.Wrap(err, "checking user uniqueness")
	}
	if username != "" && found.Username.String == username {
		return user.ErrUsernameExists
	}
	return user.ErrEmailExists
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	u := repo.boil(usr)
	_, err := queries.Raw(`
		INSERT INTO "user" (id, organization_id, name, username, email, is_active, roles, password_hash,
		                    created_at, updated_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		u.ID, u.OrganizationID, u.Name, u.Username, u.Email, u.IsActive, u.Roles, u.PasswordHash,
		u.CreatedAt, u.UpdatedAt, u.LastLogin,
	).ExecContext(ctx, repo.getExec(exec))
	if err != nil {
		return user.User{}, trapErr(err, user.ErrNotFound, "inserting user")
	}
	return repo.unboil(u), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, orgID string, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	mods := []qm.QueryMod{
		qm.Select(userColumns...),
		qm.From(userTable),
		qm.Where("organization_id = ?", orgID),
	}

	if filter != nil {
		// users with Name, Username or Email matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			mods = append(mods, qm.Expr(qm.Where("name ILIKE ? OR username ILIKE ? OR email ILIKE ?", val, val, val)))
		}
		// users with any role that starts with any of the provided roles
		if len(filter.Roles) > 0 {
			roleMods := make([]qm.QueryMod, 0, len(filter.Roles))
			for _, role := range filter.Roles {
				roleMods = append(roleMods, qm.Or2(qm.Where(
					fmt.Sprintf("id IN (SELECT id FROM %s, UNNEST(roles) user_role WHERE user_role ILIKE ?)", userTable),
					role+"%")))
			}
			mods = append(mods, qm.Expr(roleMods...))
		}
		if filter.IsActive != nil {
			mods = append(mods, qm.Where("is_active = ?", *filter.IsActive))
		}
		if !filter.CreatedFrom.IsZero() {
			mods = append(mods, qm.Where("created_at >= ?", filter.CreatedFrom.UTC()))
		}
		if !filter.CreatedTo.IsZero() {
			mods = append(mods, qm.Where("created_at <= ?", filter.CreatedTo.UTC()))
		}
	}

	orderList := []string{"created_at", "id"}
	if ords := core.AllowedOrderings(ordering, userOrderings); len(ords) > 0 {
		orderList = orderList[:0]
		for _, ord := range ords {
			orderList = append(orderList, ord.String())
		}
	}
	mods = append(mods, qm.OrderBy(strings.Join(orderList, ", ")))

	var users []boiledUser
	if err := newQuery(mods...).Bind(ctx, repo.getExec(exec), &users); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return repo.unboilSlice(users), nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	var mod qm.QueryMod
	switch {
	case filter.ID != "":
		mod = qm.Where("id = ?", filter.ID)
	case filter.Username != "":
		mod = qm.Where("username = ?", filter.Username)
	case filter.Email != "":
		mod = qm.Where("email = ?", filter.Email)
	case filter.UsernameOrEmail != "":
		mod = qm.Where("username = ? OR email = ?", filter.UsernameOrEmail, filter.UsernameOrEmail)
	default:
		return user.User{}, user.ErrNotFound
	}

	var usr boiledUser
	err := newQuery(qm.Select(userColumns...), qm.From(userTable), mod, qm.Limit(1)).Bind(ctx, repo.getExec(exec), &usr)
	if err != nil {
		return user.User{}, trapErr(err, user.ErrNotFound, "finding user")
	}
	return repo.unboil(usr), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	u := repo.boil(usr)
	res, err := queries.Raw(`
		UPDATE "user" SET organization_id = $2, name = $3, username = $4, email = $5, is_active = $6, roles = $7,
		                  password_hash = $8, updated_at = $9, last_login = $10
		WHERE id = $1`,
		u.ID, u.OrganizationID, u.Name, u.Username, u.Email, u.IsActive, u.Roles, u.PasswordHash,
		u.UpdatedAt, u.LastLogin,
	).ExecContext(ctx, repo.getExec(exec))
	if err != nil {
		return user.User{}, trapErr(err, user.ErrNotFound, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.unboil(u), nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, orgID string, ids []string, exec ...core.DBExecutor) (int, error) {
	res, err := queries.Raw(`DELETE FROM "user" WHERE organization_id = $1 AND id::text = ANY($2)`, orgID, pq.Array(ids)).
		ExecContext(ctx, repo.getExec(exec))
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	return int(cnt), nil
}
