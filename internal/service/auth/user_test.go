package auth

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"labmaster/internal/model"
	"labmaster/internal/model/system"
	"labmaster/internal/pkg/auth"
	sysRepo "labmaster/internal/repo/mysql/system"
)

func newUserTestService(t *testing.T) (*UserService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Group{},
		&model.UserGroup{},
		&model.ObjectPermission{},
	))
	svc := NewUserService(
		sysRepo.NewUserRepository(db),
		sysRepo.NewGroupRepository(db),
		auth.NewPasswordManager(nil),
	)
	return svc, db
}

func TestRegisterAndVerifyPassword(t *testing.T) {
	svc, _ := newUserTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, &model.RegisterRequest{
		Username: "alice",
		Email:    "alice@lab.local",
		Password: "Passw0rd123",
	})
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEqual(t, "Passw0rd123", user.Password)
	assert.Equal(t, int64(1), user.PasswordV)

	ok, err := svc.VerifyPassword(ctx, user, "Passw0rd123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.VerifyPassword(ctx, user, "wrong-password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegisterRejectsDuplicateAndWeakPassword(t *testing.T) {
	svc, _ := newUserTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &model.RegisterRequest{
		Username: "alice",
		Email:    "alice@lab.local",
		Password: "Passw0rd123",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &model.RegisterRequest{
		Username: "alice",
		Email:    "other@lab.local",
		Password: "Passw0rd123",
	})
	assert.ErrorIs(t, err, system.ErrUserAlreadyExists)

	_, err = svc.Register(ctx, &model.RegisterRequest{
		Username: "bob",
		Email:    "alice@lab.local",
		Password: "Passw0rd123",
	})
	assert.ErrorIs(t, err, system.ErrUserAlreadyExists)

	_, err = svc.Register(ctx, &model.RegisterRequest{
		Username: "carol",
		Email:    "carol@lab.local",
		Password: "short",
	})
	var vErr *system.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestChangePasswordBumpsVersion(t *testing.T) {
	svc, _ := newUserTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, &model.RegisterRequest{
		Username: "alice",
		Email:    "alice@lab.local",
		Password: "Passw0rd123",
	})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, "wrong-password", "NewPassw0rd")
	assert.ErrorIs(t, err, system.ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "Passw0rd123", "NewPassw0rd"))

	v, err := svc.GetUserPasswordVersion(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	updated, err := svc.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	ok, err := svc.VerifyPassword(ctx, updated, "NewPassw0rd")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUserGroupMembership(t *testing.T) {
	svc, db := newUserTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, &model.RegisterRequest{
		Username: "alice",
		Email:    "alice@lab.local",
		Password: "Passw0rd123",
	})
	require.NoError(t, err)

	group := &model.Group{Name: "lab-techs"}
	require.NoError(t, db.Create(group).Error)

	require.NoError(t, svc.AddUserToGroup(ctx, user.ID, group.ID))

	loaded, err := svc.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"lab-techs"}, loaded.GroupNames())

	assert.ErrorIs(t, svc.AddUserToGroup(ctx, user.ID, 999), system.ErrGroupNotFound)

	require.NoError(t, svc.RemoveUserFromGroup(ctx, user.ID, group.ID))
	loaded, err = svc.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.GroupNames())
}
