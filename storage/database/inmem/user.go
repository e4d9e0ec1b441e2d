package inmemdb

import (
	"context"
	"strings"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

var userColumns = map[string]comparer[user.User]{
	"name":       func(a, b user.User) int { return compareStrings(a.Name, b.Name) },
	"username":   func(a, b user.User) int { return compareStrings(a.Username, b.Username) },
	"email":      func(a, b user.User) int { return compareStrings(a.Email, b.Email) },
	"created_at": func(a, b user.User) int { return compareTimes(a.CreatedAt, b.CreatedAt) },
	"last_login": func(a, b user.User) int { return compareTimes(a.LastLogin, b.LastLogin) },
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]bool, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = true
	}

	for _, usr := range repo.db.t.user {
		if excluded[usr.ID] {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	defer repo.db.lock(exec)()

	repo.db.t.user[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, orgID string, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := values(repo.db.t.user, func(usr user.User) bool {
		if usr.OrganizationID != orgID {
			return false
		}
		if filter == nil {
			return true
		}
		if filter.Search != "" && !contains(filter.Search, usr.Name, usr.Username, usr.Email) {
			return false
		}
		if len(filter.Roles) > 0 && !hasAnyRole(usr, filter.Roles) {
			return false
		}
		if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
			return false
		}
		return inPeriod(usr.CreatedAt, filter.CreatedFrom, filter.CreatedTo)
	})
	order(users, ordering, userColumns, func(a, b user.User) int { return compareTimes(a.CreatedAt, b.CreatedAt) })
	return users, nil
}

// hasAnyRole reports whether the user has a role starting with any of roles.
func hasAnyRole(usr user.User, roles []string) bool {
	for _, role := range roles {
		for _, r := range usr.Roles {
			if strings.HasPrefix(r, role) {
				return true
			}
		}
	}
	return false
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.t.user[filter.ID]; ok {
			return usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	for _, usr := range repo.db.t.user {
		switch {
		case filter.Username != "":
			if usr.Username == filter.Username {
				return usr, nil
			}
		case filter.Email != "":
			if usr.Email == filter.Email {
				return usr, nil
			}
		case filter.UsernameOrEmail != "":
			if usr.Username == filter.UsernameOrEmail || usr.Email == filter.UsernameOrEmail {
				return usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	defer repo.db.lock(exec)()

	if _, ok := repo.db.t.user[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.t.user[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, orgID string, ids []string, exec ...core.DBExecutor) (int, error) {
	defer repo.db.lock(exec)()

	var n int
	for _, id := range ids {
		if usr, ok := repo.db.t.user[id]; ok && usr.OrganizationID == orgID {
			delete(repo.db.t.user, id)
			n++
		}
	}
	return n, nil
}
