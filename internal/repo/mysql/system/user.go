/**
 * 系统仓库层:用户数据访问
 * @author: sun977
 * @date: 2025.10.21
 * @description: 用户数据访问层，专注于数据操作，不包含业务逻辑
 * @func: 用户的增删改查、密码版本管理、登录时间更新
 */
package system

import (
	"context"
	"time"

	"gorm.io/gorm"

	"labmaster/internal/model"
	"labmaster/internal/pkg/logger"
)

// UserRepository 用户仓库结构体
type UserRepository struct {
	db *gorm.DB // 数据库连接
}

// NewUserRepository 创建用户仓库实例
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// CreateUser 创建用户
func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil {
		logger.LogBusinessError(err, "", 0, "", "user_create", "POST", map[string]interface{}{
			"operation": "create_user",
			"func_name": "repo.system.CreateUser",
			"username":  user.Username,
		})
		return err
	}
	return nil
}

// GetUserByID 根据ID获取用户（预加载用户组）
func (r *UserRepository) GetUserByID(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Preload("Groups").
		Where("id = ?", id).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		logger.LogBusinessError(err, "", 0, "", "user_get_by_id", "GET", map[string]interface{}{
			"operation": "get_user_by_id",
			"func_name": "repo.system.GetUserByID",
			"user_id":   id,
		})
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername 根据用户名获取用户
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Preload("Groups").
		Where("username = ?", username).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail 根据邮箱获取用户
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Preload("Groups").
		Where("email = ?", email).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetUserList 分页获取用户列表
func (r *UserRepository) GetUserList(ctx context.Context, offset, limit int, keyword *string) ([]*model.User, int64, error) {
	var users []*model.User
	var total int64

	query := r.db.WithContext(ctx).Model(&model.User{})
	if keyword != nil && *keyword != "" {
		query = query.Where("username LIKE ? OR email LIKE ?", "%"+*keyword+"%", "%"+*keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Groups").
		Order("id DESC").Offset(offset).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdateUser 更新用户基本信息
func (r *UserRepository) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(user).Error
}

// UpdateUserPassword 更新用户密码并递增密码版本
// 密码版本写入JWT声明，旧令牌在下一次校验时失效
func (r *UserRepository) UpdateUserPassword(ctx context.Context, userID uint64, hashedPassword string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password":   hashedPassword,
			"password_v": gorm.Expr("password_v + 1"),
			"updated_at": time.Now(),
		}).Error
}

// UpdateLastLogin 更新最后登录时间与IP
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID uint64, clientIP string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"last_login_at": &now,
			"last_login_ip": clientIP,
			"updated_at":    now,
		}).Error
}

// GetUserPasswordVersion 获取用户当前密码版本
func (r *UserRepository) GetUserPasswordVersion(ctx context.Context, userID uint64) (int64, error) {
	var user model.User
	err := r.db.WithContext(ctx).Select("password_v").
		Where("id = ?", userID).First(&user).Error
	if err != nil {
		return 0, err
	}
	return user.PasswordV, nil
}

// DeleteUser 删除用户
func (r *UserRepository) DeleteUser(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&model.UserGroup{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.User{}, id).Error
	})
}
