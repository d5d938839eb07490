/**
 * 认证服务层:用户服务
 * @author: sun977
 * @date: 2025.10.21
 * @description: 用户管理业务逻辑，注册、查询、密码修改、用户组管理
 * @func: 密码使用argon2id散列，密码版本随修改递增以使旧令牌失效
 */
package auth

import (
	"context"
	"fmt"

	"labmaster/internal/model"
	"labmaster/internal/model/system"
	"labmaster/internal/pkg/auth"
	"labmaster/internal/pkg/logger"
	sysRepo "labmaster/internal/repo/mysql/system"
)

// UserService 用户管理服务
type UserService struct {
	userRepo        *sysRepo.UserRepository
	groupRepo       *sysRepo.GroupRepository
	passwordManager *auth.PasswordManager
}

// NewUserService 创建用户服务实例
func NewUserService(userRepo *sysRepo.UserRepository, groupRepo *sysRepo.GroupRepository, passwordManager *auth.PasswordManager) *UserService {
	return &UserService{
		userRepo:        userRepo,
		groupRepo:       groupRepo,
		passwordManager: passwordManager,
	}
}

// Register 注册新用户
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if req == nil {
		return nil, system.NewValidationError("注册请求不能为空")
	}
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		return nil, system.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if existing != nil {
		return nil, system.ErrUserAlreadyExists
	}
	existing, err = s.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if existing != nil {
		return nil, system.ErrUserAlreadyExists
	}

	hashed, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("密码散列失败: %w", err)
	}

	user := &model.User{
		Username:  req.Username,
		Email:     req.Email,
		Password:  hashed,
		PasswordV: 1,
		Status:    model.UserStatusEnabled,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}

	logger.LogBusinessOperation("user_register", user.ID, user.Username, "", "", "success",
		"用户注册", nil)
	return user, nil
}

// GetUserByID 根据ID获取用户
func (s *UserService) GetUserByID(ctx context.Context, id uint64) (*model.User, error) {
	return s.userRepo.GetUserByID(ctx, id)
}

// GetUserByUsername 根据用户名获取用户
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.userRepo.GetUserByUsername(ctx, username)
}

// GetUserByEmail 根据邮箱获取用户
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.userRepo.GetUserByEmail(ctx, email)
}

// GetUserList 分页获取用户列表
func (s *UserService) GetUserList(ctx context.Context, page, pageSize int, keyword *string) ([]*model.User, int64, error) {
	offset := (page - 1) * pageSize
	return s.userRepo.GetUserList(ctx, offset, pageSize, keyword)
}

// VerifyPassword 校验用户密码
func (s *UserService) VerifyPassword(ctx context.Context, user *model.User, password string) (bool, error) {
	return s.passwordManager.VerifyPassword(password, user.Password)
}

// ChangePassword 修改用户密码
// 旧密码校验通过后写入新散列并递增密码版本，所有已签发令牌随之失效
func (s *UserService) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("查询用户失败: %w", err)
	}
	if user == nil {
		return system.ErrUserNotFound
	}

	ok, err := s.passwordManager.VerifyPassword(oldPassword, user.Password)
	if err != nil {
		return fmt.Errorf("密码校验失败: %w", err)
	}
	if !ok {
		return system.ErrInvalidCredentials
	}

	if err := auth.ValidatePasswordStrength(newPassword); err != nil {
		return system.NewValidationError(err.Error())
	}
	hashed, err := s.passwordManager.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("密码散列失败: %w", err)
	}
	if err := s.userRepo.UpdateUserPassword(ctx, userID, hashed); err != nil {
		return fmt.Errorf("更新密码失败: %w", err)
	}

	logger.LogBusinessOperation("user_change_password", userID, user.Username, "", "", "success",
		"用户修改密码", nil)
	return nil
}

// GetUserPasswordVersion 获取用户当前密码版本
func (s *UserService) GetUserPasswordVersion(ctx context.Context, userID uint64) (int64, error) {
	return s.userRepo.GetUserPasswordVersion(ctx, userID)
}

// UpdateLastLogin 更新最后登录时间与IP
func (s *UserService) UpdateLastLogin(ctx context.Context, userID uint64, clientIP string) error {
	return s.userRepo.UpdateLastLogin(ctx, userID, clientIP)
}

// AddUserToGroup 将用户加入用户组
func (s *UserService) AddUserToGroup(ctx context.Context, userID, groupID uint64) error {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("查询用户失败: %w", err)
	}
	if user == nil {
		return system.ErrUserNotFound
	}
	group, err := s.groupRepo.GetGroupByID(ctx, groupID)
	if err != nil {
		return fmt.Errorf("查询用户组失败: %w", err)
	}
	if group == nil {
		return system.ErrGroupNotFound
	}
	return s.groupRepo.AddUserToGroup(ctx, userID, groupID)
}

// RemoveUserFromGroup 将用户移出用户组
func (s *UserService) RemoveUserFromGroup(ctx context.Context, userID, groupID uint64) error {
	return s.groupRepo.RemoveUserFromGroup(ctx, userID, groupID)
}

// ToUserInfo 转换为用户信息响应结构
func ToUserInfo(user *model.User) *model.UserInfo {
	if user == nil {
		return nil
	}
	return &model.UserInfo{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Nickname:    user.Nickname,
		Status:      user.Status,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
		Groups:      user.GroupNames(),
	}
}
