/**
 * 系统仓库层:对象权限数据访问
 * @author: sun977
 * @date: 2025.10.21
 * @description: 对象级权限数据访问层，按 对象类型+对象ID+用户组 维护读写授权
 * @func: 权限的授予(upsert)、撤销、按组集合查询、可见对象ID集合查询
 */
package system

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"labmaster/internal/model"
	"labmaster/internal/pkg/logger"
)

// ObjectPermissionRepository 对象权限仓库结构体
type ObjectPermissionRepository struct {
	db *gorm.DB // 数据库连接
}

// NewObjectPermissionRepository 创建对象权限仓库实例
func NewObjectPermissionRepository(db *gorm.DB) *ObjectPermissionRepository {
	return &ObjectPermissionRepository{
		db: db,
	}
}

// UpsertPermission 授予权限
// 同一 (对象类型,对象ID,用户组) 已有记录时覆盖读写标记
func (r *ObjectPermissionRepository) UpsertPermission(ctx context.Context, perm *model.ObjectPermission) error {
	perm.CreatedAt = time.Now()
	perm.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "object_type"}, {Name: "object_id"}, {Name: "group_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"can_read", "can_write", "granted_by", "updated_at"}),
	}).Create(perm).Error
	if err != nil {
		logger.LogBusinessError(err, "", 0, "", "permission_upsert", "POST", map[string]interface{}{
			"operation":   "upsert_permission",
			"func_name":   "repo.system.UpsertPermission",
			"object_type": perm.ObjectType,
			"object_id":   perm.ObjectID,
			"group_id":    perm.GroupID,
		})
		return err
	}
	return nil
}

// GetPermissionsByObjectAndGroups 获取某对象在一组用户组下的全部授权记录
func (r *ObjectPermissionRepository) GetPermissionsByObjectAndGroups(ctx context.Context, objectType model.ObjectType, objectID uint64, groupIDs []uint64) ([]*model.ObjectPermission, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	var perms []*model.ObjectPermission
	err := r.db.WithContext(ctx).
		Where("object_type = ? AND object_id = ? AND group_id IN ?", objectType, objectID, groupIDs).
		Find(&perms).Error
	if err != nil {
		logger.LogBusinessError(err, "", 0, "", "permission_get_by_object", "GET", map[string]interface{}{
			"operation":   "get_permissions_by_object",
			"func_name":   "repo.system.GetPermissionsByObjectAndGroups",
			"object_type": objectType,
			"object_id":   objectID,
		})
		return nil, err
	}
	return perms, nil
}

// GetReadableObjectIDs 获取某类对象中对一组用户组可读的对象ID集合
// 列表查询据此过滤，避免逐对象鉴权
func (r *ObjectPermissionRepository) GetReadableObjectIDs(ctx context.Context, objectType model.ObjectType, groupIDs []uint64) ([]uint64, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	var objectIDs []uint64
	err := r.db.WithContext(ctx).Model(&model.ObjectPermission{}).
		Where("object_type = ? AND group_id IN ? AND can_read = ?", objectType, groupIDs, true).
		Distinct().Pluck("object_id", &objectIDs).Error
	if err != nil {
		return nil, err
	}
	return objectIDs, nil
}

// GetPermissionsByObject 获取某对象的全部授权记录（管理视图）
func (r *ObjectPermissionRepository) GetPermissionsByObject(ctx context.Context, objectType model.ObjectType, objectID uint64) ([]*model.ObjectPermission, error) {
	var perms []*model.ObjectPermission
	err := r.db.WithContext(ctx).
		Where("object_type = ? AND object_id = ?", objectType, objectID).
		Find(&perms).Error
	if err != nil {
		return nil, err
	}
	return perms, nil
}

// RevokePermission 撤销某用户组对某对象的授权
func (r *ObjectPermissionRepository) RevokePermission(ctx context.Context, objectType model.ObjectType, objectID, groupID uint64) error {
	return r.db.WithContext(ctx).
		Where("object_type = ? AND object_id = ? AND group_id = ?", objectType, objectID, groupID).
		Delete(&model.ObjectPermission{}).Error
}

// DeletePermissionsByObject 删除某对象的全部授权记录
// 对象本体删除时级联调用
func (r *ObjectPermissionRepository) DeletePermissionsByObject(ctx context.Context, objectType model.ObjectType, objectID uint64) error {
	return r.db.WithContext(ctx).
		Where("object_type = ? AND object_id = ?", objectType, objectID).
		Delete(&model.ObjectPermission{}).Error
}

// DeletePermissionsByObjectWithTx 事务内删除某对象的全部授权记录
func (r *ObjectPermissionRepository) DeletePermissionsByObjectWithTx(tx *gorm.DB, objectType model.ObjectType, objectID uint64) error {
	return tx.Where("object_type = ? AND object_id = ?", objectType, objectID).
		Delete(&model.ObjectPermission{}).Error
}
