/**
 * 系统仓库层:用户组数据访问
 * @author: sun977
 * @date: 2025.10.21
 * @description: 用户组数据访问层，对象级权限的授权主体管理
 * @func: 用户组的增删改查、成员管理
 */
package system

import (
	"context"
	"time"

	"gorm.io/gorm"

	"labmaster/internal/model"
	"labmaster/internal/pkg/logger"
)

// GroupRepository 用户组仓库结构体
type GroupRepository struct {
	db *gorm.DB // 数据库连接
}

// NewGroupRepository 创建用户组仓库实例
func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{
		db: db,
	}
}

// CreateGroup 创建用户组
func (r *GroupRepository) CreateGroup(ctx context.Context, group *model.Group) error {
	group.CreatedAt = time.Now()
	group.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).Create(group).Error
	if err != nil {
		logger.LogBusinessError(err, "", 0, "", "group_create", "POST", map[string]interface{}{
			"operation":  "create_group",
			"func_name":  "repo.system.CreateGroup",
			"group_name": group.Name,
		})
		return err
	}
	return nil
}

// GetGroupByID 根据ID获取用户组
func (r *GroupRepository) GetGroupByID(ctx context.Context, id uint64) (*model.Group, error) {
	var group model.Group
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&group).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &group, nil
}

// GetGroupByName 根据名称获取用户组
func (r *GroupRepository) GetGroupByName(ctx context.Context, name string) (*model.Group, error) {
	var group model.Group
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&group).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &group, nil
}

// GetGroupList 获取全部用户组
func (r *GroupRepository) GetGroupList(ctx context.Context) ([]*model.Group, error) {
	var groups []*model.Group
	err := r.db.WithContext(ctx).Where("status = ?", 1).Order("id ASC").Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// AddUserToGroup 将用户加入用户组
func (r *GroupRepository) AddUserToGroup(ctx context.Context, userID, groupID uint64) error {
	userGroup := &model.UserGroup{
		UserID:    userID,
		GroupID:   groupID,
		CreatedAt: time.Now(),
	}
	err := r.db.WithContext(ctx).Create(userGroup).Error
	if err != nil {
		logger.LogBusinessError(err, "", 0, "", "group_add_user", "POST", map[string]interface{}{
			"operation": "add_user_to_group",
			"func_name": "repo.system.AddUserToGroup",
			"user_id":   userID,
			"group_id":  groupID,
		})
		return err
	}
	return nil
}

// RemoveUserFromGroup 将用户移出用户组
func (r *GroupRepository) RemoveUserFromGroup(ctx context.Context, userID, groupID uint64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Delete(&model.UserGroup{}).Error
}

// GetGroupUsers 获取用户组成员
func (r *GroupRepository) GetGroupUsers(ctx context.Context, groupID uint64) ([]*model.User, error) {
	var group model.Group
	err := r.db.WithContext(ctx).Preload("Users").
		Where("id = ?", groupID).First(&group).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return group.Users, nil
}

// UpdateGroup 更新用户组信息
func (r *GroupRepository) UpdateGroup(ctx context.Context, group *model.Group) error {
	group.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Model(&model.Group{}).
		Where("id = ?", group.ID).
		Updates(map[string]interface{}{
			"name":        group.Name,
			"description": group.Description,
			"status":      group.Status,
			"updated_at":  group.UpdatedAt,
		}).Error
}

// DeleteGroup 删除用户组及其成员关联
func (r *GroupRepository) DeleteGroup(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&model.UserGroup{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", id).Delete(&model.ObjectPermission{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Group{}, id).Error
	})
}
