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
	sysRepo "labmaster/internal/repo/mysql/system"
)

func newPermissionTestService(t *testing.T) (*PermissionService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Group{},
		&model.UserGroup{},
		&model.ObjectPermission{},
	))
	return NewPermissionService(
		sysRepo.NewObjectPermissionRepository(db),
		sysRepo.NewGroupRepository(db),
	), db
}

func seedGroup(t *testing.T, db *gorm.DB, name string) *model.Group {
	t.Helper()
	group := &model.Group{Name: name, Status: 1}
	require.NoError(t, db.Create(group).Error)
	return group
}

func TestAssignAndCurrentPermissions(t *testing.T) {
	svc, db := newPermissionTestService(t)
	ctx := context.Background()
	group := seedGroup(t, db, "lab-a")

	require.NoError(t, svc.AssignPermissions(ctx, model.ObjectTypeWorkflow, 7, group.ID, true, false, 1))

	set, err := svc.CurrentPermissions(ctx, model.ObjectTypeWorkflow, 7, []uint64{group.ID})
	require.NoError(t, err)
	assert.True(t, set.CanRead)
	assert.False(t, set.CanWrite)

	// 重复授予按覆盖处理
	require.NoError(t, svc.AssignPermissions(ctx, model.ObjectTypeWorkflow, 7, group.ID, true, true, 1))
	set, err = svc.CurrentPermissions(ctx, model.ObjectTypeWorkflow, 7, []uint64{group.ID})
	require.NoError(t, err)
	assert.True(t, set.CanWrite)
}

func TestPermissionsMergeAcrossGroups(t *testing.T) {
	svc, db := newPermissionTestService(t)
	ctx := context.Background()
	readers := seedGroup(t, db, "readers")
	writers := seedGroup(t, db, "writers")

	require.NoError(t, svc.AssignPermissions(ctx, model.ObjectTypeProduct, 3, readers.ID, true, false, 1))
	require.NoError(t, svc.AssignPermissions(ctx, model.ObjectTypeProduct, 3, writers.ID, false, true, 1))

	// 多组成员取并集
	set, err := svc.CurrentPermissions(ctx, model.ObjectTypeProduct, 3, []uint64{readers.ID, writers.ID})
	require.NoError(t, err)
	assert.True(t, set.CanRead)
	assert.True(t, set.CanWrite)
}

func TestRequireWriteDistinguishesDeniedFromNotFound(t *testing.T) {
	svc, db := newPermissionTestService(t)
	ctx := context.Background()
	group := seedGroup(t, db, "lab-b")

	require.NoError(t, svc.AssignPermissions(ctx, model.ObjectTypeItem, 9, group.ID, true, false, 1))

	// 可读不可写：权限不足
	err := svc.RequireWrite(ctx, model.ObjectTypeItem, 9, []uint64{group.ID})
	assert.ErrorIs(t, err, system.ErrPermissionDenied)

	// 完全不可见：与不存在合并
	err = svc.RequireWrite(ctx, model.ObjectTypeItem, 404, []uint64{group.ID})
	assert.ErrorIs(t, err, system.ErrObjectNotFound)

	err = svc.RequireRead(ctx, model.ObjectTypeItem, 404, []uint64{group.ID})
	assert.ErrorIs(t, err, system.ErrObjectNotFound)
}

func TestFilterReadable(t *testing.T) {
	svc, db := newPermissionTestService(t)
	ctx := context.Background()
	group := seedGroup(t, db, "lab-c")

	require.NoError(t, svc.AssignPermissions(ctx, model.ObjectTypeWorkflow, 1, group.ID, true, false, 1))
	require.NoError(t, svc.AssignPermissions(ctx, model.ObjectTypeWorkflow, 3, group.ID, true, false, 1))
	// id=2 只授写不授读
	require.NoError(t, svc.AssignPermissions(ctx, model.ObjectTypeWorkflow, 2, group.ID, false, true, 1))

	filtered, err := svc.FilterReadable(ctx, model.ObjectTypeWorkflow, []uint64{1, 2, 3, 4}, []uint64{group.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 3}, filtered)

	// 无组成员身份时结果为空
	filtered, err = svc.FilterReadable(ctx, model.ObjectTypeWorkflow, []uint64{1, 2, 3}, nil)
	require.NoError(t, err)
	assert.Empty(t, filtered)
}

func TestRevokePermissions(t *testing.T) {
	svc, db := newPermissionTestService(t)
	ctx := context.Background()
	group := seedGroup(t, db, "lab-d")

	require.NoError(t, svc.AssignPermissions(ctx, model.ObjectTypeTaskTemplate, 5, group.ID, true, true, 1))
	require.NoError(t, svc.RevokePermissions(ctx, model.ObjectTypeTaskTemplate, 5, group.ID))

	set, err := svc.CurrentPermissions(ctx, model.ObjectTypeTaskTemplate, 5, []uint64{group.ID})
	require.NoError(t, err)
	assert.False(t, set.CanRead)
	assert.False(t, set.CanWrite)
}

func TestAssignPermissionsValidation(t *testing.T) {
	svc, _ := newPermissionTestService(t)
	ctx := context.Background()

	// 未知对象类型
	err := svc.AssignPermissions(ctx, model.ObjectType("galaxy"), 1, 1, true, false, 1)
	assert.True(t, system.IsValidationError(err))

	// 用户组不存在
	err = svc.AssignPermissions(ctx, model.ObjectTypeWorkflow, 1, 12345, true, false, 1)
	assert.ErrorIs(t, err, system.ErrGroupNotFound)
}
