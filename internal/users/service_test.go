package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/strataboard/strataboard/internal/rbac"
)

type fakeRepo struct {
	all       []User
	byProject map[uuid.UUID][]User
	lastHash  string
}

func (f *fakeRepo) ListUsers(ctx context.Context) ([]User, error) {
	return f.all, nil
}

func (f *fakeRepo) ListUsersByProjects(ctx context.Context, projectIDs []uuid.UUID) ([]User, error) {
	seen := make(map[int64]bool)
	var out []User
	for _, id := range projectIDs {
		for _, u := range f.byProject[id] {
			if !seen[u.ID] {
				seen[u.ID] = true
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateUser(ctx context.Context, email, name, passwordHash string) (User, error) {
	f.lastHash = passwordHash
	u := User{ID: int64(len(f.all) + 1), Email: email, Name: name, IsActive: true}
	f.all = append(f.all, u)
	return u, nil
}

func (f *fakeRepo) GetUser(ctx context.Context, id int64) (User, error) {
	for _, u := range f.all {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, nil
}

type fakeAccess struct {
	projects []uuid.UUID
}

func (f *fakeAccess) AccessibleProjects(ctx context.Context, userID int64) ([]uuid.UUID, error) {
	return f.projects, nil
}

type fakeRoles struct {
	super bool
}

func (f *fakeRoles) CheckRole(ctx context.Context, userID int64, roleName string, scope rbac.Scope) (bool, error) {
	return f.super && roleName == rbac.RoleSuperAdmin, nil
}

func TestListUsersScopedToAccessibleProjects(t *testing.T) {
	projectA := uuid.New()
	projectB := uuid.New()
	repo := &fakeRepo{
		all: []User{{ID: 1}, {ID: 2}, {ID: 3}},
		byProject: map[uuid.UUID][]User{
			projectA: {{ID: 1, Email: "alice@example.com"}},
			projectB: {{ID: 2, Email: "bob@example.com"}},
		},
	}
	svc := NewService(repo, &fakeAccess{projects: []uuid.UUID{projectA}}, &fakeRoles{})

	got, err := svc.ListUsers(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(1), got[0].ID)
}

func TestListUsersSuperAdminSeesAll(t *testing.T) {
	repo := &fakeRepo{all: []User{{ID: 1}, {ID: 2}, {ID: 3}}}
	svc := NewService(repo, &fakeAccess{}, &fakeRoles{super: true})

	got, err := svc.ListUsers(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestCreateUserHashesPasswordAndNormalizesEmail(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, &fakeAccess{}, &fakeRoles{})

	user, err := svc.CreateUser(context.Background(), "  Carol@Example.COM ", "Carol", "s3cret-pass")
	require.NoError(t, err)
	require.Equal(t, "carol@example.com", user.Email)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.lastHash), []byte("s3cret-pass")))
}
