/**
 * 认证服务层:对象权限服务
 * @author: sun977
 * @date: 2025.10.21
 * @description: 对象级权限业务逻辑，按用户组合并读写能力，列表按可读对象集过滤
 * @func: 能力查询、授予、撤销、读写门禁；读拒绝与不存在合并返回，避免泄露对象存在性
 */
package auth

import (
	"context"
	"fmt"

	"labmaster/internal/model"
	"labmaster/internal/model/system"
	"labmaster/internal/pkg/logger"
	sysRepo "labmaster/internal/repo/mysql/system"
)

// PermissionService 对象权限服务
type PermissionService struct {
	permRepo  *sysRepo.ObjectPermissionRepository
	groupRepo *sysRepo.GroupRepository
}

// NewPermissionService 创建对象权限服务实例
func NewPermissionService(permRepo *sysRepo.ObjectPermissionRepository, groupRepo *sysRepo.GroupRepository) *PermissionService {
	return &PermissionService{
		permRepo:  permRepo,
		groupRepo: groupRepo,
	}
}

// CurrentPermissions 获取某对象在一组用户组视角下的能力集合
// 多组取并集：任一组可读即可读，任一组可写即可写
func (s *PermissionService) CurrentPermissions(ctx context.Context, objectType model.ObjectType, objectID uint64, groupIDs []uint64) (model.PermissionSet, error) {
	var set model.PermissionSet
	perms, err := s.permRepo.GetPermissionsByObjectAndGroups(ctx, objectType, objectID, groupIDs)
	if err != nil {
		return set, fmt.Errorf("查询对象权限失败: %w", err)
	}
	for _, p := range perms {
		set.Merge(model.PermissionSet{CanRead: p.CanRead, CanWrite: p.CanWrite})
	}
	return set, nil
}

// AssignPermissions 为用户组授予对象权限
// 创建者注册对象时调用，同一 (对象,组) 重复授予按覆盖处理
func (s *PermissionService) AssignPermissions(ctx context.Context, objectType model.ObjectType, objectID, groupID uint64, canRead, canWrite bool, grantedBy uint64) error {
	if !isValidObjectType(objectType) {
		return system.NewValidationError(fmt.Sprintf("未知对象类型: %s", objectType))
	}
	group, err := s.groupRepo.GetGroupByID(ctx, groupID)
	if err != nil {
		return fmt.Errorf("查询用户组失败: %w", err)
	}
	if group == nil {
		return system.ErrGroupNotFound
	}

	perm := &model.ObjectPermission{
		ObjectType: objectType,
		ObjectID:   objectID,
		GroupID:    groupID,
		CanRead:    canRead,
		CanWrite:   canWrite,
		GrantedBy:  grantedBy,
	}
	if err := s.permRepo.UpsertPermission(ctx, perm); err != nil {
		return fmt.Errorf("授予对象权限失败: %w", err)
	}

	logger.LogBusinessOperation("permission_assign", grantedBy, "", "", "", "success",
		"对象权限授予", map[string]interface{}{
			"object_type": objectType,
			"object_id":   objectID,
			"group_id":    groupID,
			"can_read":    canRead,
			"can_write":   canWrite,
		})
	return nil
}

// RevokePermissions 撤销用户组对对象的授权
func (s *PermissionService) RevokePermissions(ctx context.Context, objectType model.ObjectType, objectID, groupID uint64) error {
	return s.permRepo.RevokePermission(ctx, objectType, objectID, groupID)
}

// GetObjectPermissions 获取对象的全部授权记录
func (s *PermissionService) GetObjectPermissions(ctx context.Context, objectType model.ObjectType, objectID uint64) ([]*model.ObjectPermission, error) {
	if !isValidObjectType(objectType) {
		return nil, system.NewValidationError(fmt.Sprintf("未知对象类型: %s", objectType))
	}
	return s.permRepo.GetPermissionsByObject(ctx, objectType, objectID)
}

// CanRead 判断一组用户组对对象是否可读
func (s *PermissionService) CanRead(ctx context.Context, objectType model.ObjectType, objectID uint64, groupIDs []uint64) (bool, error) {
	set, err := s.CurrentPermissions(ctx, objectType, objectID, groupIDs)
	if err != nil {
		return false, err
	}
	return set.CanRead, nil
}

// CanWrite 判断一组用户组对对象是否可写
func (s *PermissionService) CanWrite(ctx context.Context, objectType model.ObjectType, objectID uint64, groupIDs []uint64) (bool, error) {
	set, err := s.CurrentPermissions(ctx, objectType, objectID, groupIDs)
	if err != nil {
		return false, err
	}
	return set.CanWrite, nil
}

// RequireRead 读门禁
// 不可读与不存在合并为 ErrObjectNotFound，避免向无权调用方泄露对象存在性
func (s *PermissionService) RequireRead(ctx context.Context, objectType model.ObjectType, objectID uint64, groupIDs []uint64) error {
	ok, err := s.CanRead(ctx, objectType, objectID, groupIDs)
	if err != nil {
		return err
	}
	if !ok {
		return system.ErrObjectNotFound
	}
	return nil
}

// RequireWrite 写门禁
// 可读不可写返回 ErrPermissionDenied(403)，完全不可见返回 ErrObjectNotFound(404)
func (s *PermissionService) RequireWrite(ctx context.Context, objectType model.ObjectType, objectID uint64, groupIDs []uint64) error {
	set, err := s.CurrentPermissions(ctx, objectType, objectID, groupIDs)
	if err != nil {
		return err
	}
	if set.CanWrite {
		return nil
	}
	if set.CanRead {
		return system.ErrPermissionDenied
	}
	return system.ErrObjectNotFound
}

// FilterReadable 过滤出一组对象ID中对调用方可读的子集
// 列表查询据此收窄结果，保持原有顺序
func (s *PermissionService) FilterReadable(ctx context.Context, objectType model.ObjectType, objectIDs []uint64, groupIDs []uint64) ([]uint64, error) {
	readable, err := s.permRepo.GetReadableObjectIDs(ctx, objectType, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("查询可读对象集失败: %w", err)
	}
	readableSet := make(map[uint64]bool, len(readable))
	for _, id := range readable {
		readableSet[id] = true
	}

	filtered := make([]uint64, 0, len(objectIDs))
	for _, id := range objectIDs {
		if readableSet[id] {
			filtered = append(filtered, id)
		}
	}
	return filtered, nil
}

// DeleteObjectPermissions 对象删除时清理其全部授权记录
func (s *PermissionService) DeleteObjectPermissions(ctx context.Context, objectType model.ObjectType, objectID uint64) error {
	return s.permRepo.DeletePermissionsByObject(ctx, objectType, objectID)
}

// isValidObjectType 判断对象类型是否登记在封闭枚举内
func isValidObjectType(objectType model.ObjectType) bool {
	switch objectType {
	case model.ObjectTypeWorkflow, model.ObjectTypeActiveWorkflow,
		model.ObjectTypeProduct, model.ObjectTypeItem, model.ObjectTypeTaskTemplate:
		return true
	}
	return false
}
