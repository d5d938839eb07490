/**
 * 认证服务层:用户组服务
 * @author: sun977
 * @date: 2025.10.21
 * @description: 用户组管理业务逻辑，组的增删改查与成员查询
 * @func: 删除用户组时级联清理成员关系与该组的对象授权
 */
package auth

import (
	"context"
	"fmt"

	"labmaster/internal/model"
	"labmaster/internal/model/system"
	sysRepo "labmaster/internal/repo/mysql/system"
)

// GroupService 用户组管理服务
type GroupService struct {
	groupRepo *sysRepo.GroupRepository
}

// NewGroupService 创建用户组服务实例
func NewGroupService(groupRepo *sysRepo.GroupRepository) *GroupService {
	return &GroupService{
		groupRepo: groupRepo,
	}
}

// CreateGroup 创建用户组
func (s *GroupService) CreateGroup(ctx context.Context, group *model.Group, creatorID uint64) error {
	if group == nil || group.Name == "" {
		return system.NewValidationError("用户组名称不能为空")
	}
	existing, err := s.groupRepo.GetGroupByName(ctx, group.Name)
	if err != nil {
		return fmt.Errorf("查询用户组失败: %w", err)
	}
	if existing != nil {
		return system.NewValidationError("用户组名称已存在")
	}
	group.CreatedBy = creatorID
	return s.groupRepo.CreateGroup(ctx, group)
}

// GetGroup 获取用户组详情
func (s *GroupService) GetGroup(ctx context.Context, id uint64) (*model.Group, error) {
	group, err := s.groupRepo.GetGroupByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, system.ErrGroupNotFound
	}
	return group, nil
}

// GetGroupList 获取全部用户组
func (s *GroupService) GetGroupList(ctx context.Context) ([]*model.Group, error) {
	return s.groupRepo.GetGroupList(ctx)
}

// GetGroupUsers 获取用户组成员列表
func (s *GroupService) GetGroupUsers(ctx context.Context, groupID uint64) ([]*model.User, error) {
	group, err := s.groupRepo.GetGroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, system.ErrGroupNotFound
	}
	return s.groupRepo.GetGroupUsers(ctx, groupID)
}

// UpdateGroup 更新用户组信息
func (s *GroupService) UpdateGroup(ctx context.Context, group *model.Group) error {
	if group == nil || group.ID == 0 {
		return system.NewValidationError("用户组ID不能为空")
	}
	return s.groupRepo.UpdateGroup(ctx, group)
}

// DeleteGroup 删除用户组
// 成员关系与该组的对象授权在仓储层事务内一并清理
func (s *GroupService) DeleteGroup(ctx context.Context, id uint64) error {
	group, err := s.groupRepo.GetGroupByID(ctx, id)
	if err != nil {
		return err
	}
	if group == nil {
		return system.ErrGroupNotFound
	}
	return s.groupRepo.DeleteGroup(ctx, id)
}
