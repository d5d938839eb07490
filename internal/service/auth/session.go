/**
 * 认证服务层:会话服务
 * @author: sun977
 * @date: 2025.10.21
 * @description: 会话管理业务逻辑，登录、登出、令牌刷新与校验
 * @func: 令牌撤销与密码版本检查基于Redis，密码版本不一致时令牌立即失效
 */
package auth

import (
	"context"
	"fmt"
	"time"

	"labmaster/internal/model"
	"labmaster/internal/model/system"
	"labmaster/internal/pkg/auth"
	"labmaster/internal/pkg/logger"
	redisRepo "labmaster/internal/repo/redis"
)

// SessionService 会话管理服务
type SessionService struct {
	userService *UserService
	jwtManager  *auth.JWTManager
	sessionRepo *redisRepo.SessionRepository
}

// NewSessionService 创建会话服务实例
func NewSessionService(userService *UserService, jwtManager *auth.JWTManager, sessionRepo *redisRepo.SessionRepository) *SessionService {
	return &SessionService{
		userService: userService,
		jwtManager:  jwtManager,
		sessionRepo: sessionRepo,
	}
}

// Login 用户登录
// 支持用户名或邮箱登录，查找失败与密码错误统一返回凭证错误，避免泄露用户是否存在
func (s *SessionService) Login(ctx context.Context, req *model.LoginRequest, clientIP, userAgent string) (*model.LoginResponse, error) {
	if req == nil || req.Username == "" || req.Password == "" {
		return nil, system.NewValidationError("用户名和密码不能为空")
	}

	user, err := s.userService.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if user == nil {
		user, err = s.userService.GetUserByEmail(ctx, req.Username)
		if err != nil {
			return nil, fmt.Errorf("查询用户失败: %w", err)
		}
	}
	if user == nil {
		return nil, system.ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, system.ErrUserDisabled
	}

	ok, err := s.userService.VerifyPassword(ctx, user, req.Password)
	if err != nil {
		return nil, fmt.Errorf("密码校验失败: %w", err)
	}
	if !ok {
		logger.LogBusinessOperation("user_login", user.ID, user.Username, clientIP, "", "failed",
			"密码错误", nil)
		return nil, system.ErrInvalidCredentials
	}

	tokenPair, err := s.jwtManager.GenerateTokenPair(user.ID, user.Username, user.Email, user.PasswordV, user.GroupNames())
	if err != nil {
		return nil, fmt.Errorf("生成令牌失败: %w", err)
	}

	now := time.Now()
	sessionData := &system.SessionData{
		UserID:     user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Groups:     user.GroupNames(),
		GroupIDs:   user.GroupIDs(),
		LoginTime:  now,
		LastActive: now,
		ClientIP:   clientIP,
		UserAgent:  userAgent,
	}
	if err := s.sessionRepo.StoreSession(ctx, user.ID, sessionData, s.jwtManager.RefreshTokenTTL()); err != nil {
		return nil, fmt.Errorf("存储会话失败: %w", err)
	}
	// 缓存密码版本，令牌校验时比对
	if err := s.sessionRepo.StorePasswordVersion(ctx, user.ID, user.PasswordV, s.jwtManager.RefreshTokenTTL()); err != nil {
		return nil, fmt.Errorf("缓存密码版本失败: %w", err)
	}
	if err := s.userService.UpdateLastLogin(ctx, user.ID, clientIP); err != nil {
		logger.LogBusinessError(err, "", user.ID, clientIP, "update_last_login", "Login", nil)
	}

	logger.LogBusinessOperation("user_login", user.ID, user.Username, clientIP, "", "success",
		"用户登录", nil)

	return &model.LoginResponse{
		User:         user,
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	}, nil
}

// Logout 用户登出
// 撤销当前访问令牌并清理会话，撤销记录保留至令牌自然过期
func (s *SessionService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.jwtManager.ValidateAccessToken(accessToken)
	if err != nil {
		return system.ErrTokenInvalid
	}

	if claims.ID != "" {
		if err := s.sessionRepo.RevokeToken(ctx, claims.ID, s.jwtManager.AccessTokenTTL()); err != nil {
			return fmt.Errorf("撤销令牌失败: %w", err)
		}
	}
	if err := s.sessionRepo.DeleteSession(ctx, claims.UserID); err != nil {
		return fmt.Errorf("删除会话失败: %w", err)
	}

	logger.LogBusinessOperation("user_logout", claims.UserID, claims.Username, "", "", "success",
		"用户登出", nil)
	return nil
}

// RefreshToken 刷新令牌
// 校验刷新令牌后签发新令牌对，用户状态与密码版本以数据库当前值为准
func (s *SessionService) RefreshToken(ctx context.Context, req *model.RefreshTokenRequest) (*model.RefreshTokenResponse, error) {
	if req == nil || req.RefreshToken == "" {
		return nil, system.NewValidationError("刷新令牌不能为空")
	}

	refreshClaims, err := s.jwtManager.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, system.ErrTokenInvalid
	}
	if refreshClaims.ID != "" {
		revoked, err := s.sessionRepo.IsTokenRevoked(ctx, refreshClaims.ID)
		if err != nil {
			return nil, fmt.Errorf("检查令牌撤销状态失败: %w", err)
		}
		if revoked {
			return nil, system.ErrTokenInvalid
		}
	}

	user, err := s.userService.GetUserByUsername(ctx, refreshClaims.Subject)
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if user == nil {
		return nil, system.ErrUserNotFound
	}
	if !user.IsActive() {
		return nil, system.ErrUserDisabled
	}

	tokenPair, err := s.jwtManager.GenerateTokenPair(user.ID, user.Username, user.Email, user.PasswordV, user.GroupNames())
	if err != nil {
		return nil, fmt.Errorf("生成令牌失败: %w", err)
	}

	// 旧刷新令牌作废，防止重放
	if refreshClaims.ID != "" {
		if err := s.sessionRepo.RevokeToken(ctx, refreshClaims.ID, s.jwtManager.RefreshTokenTTL()); err != nil {
			return nil, fmt.Errorf("撤销旧刷新令牌失败: %w", err)
		}
	}
	if err := s.sessionRepo.UpdateSessionExpiry(ctx, user.ID, s.jwtManager.RefreshTokenTTL()); err != nil {
		logger.LogBusinessError(err, "", user.ID, "", "update_session_expiry", "RefreshToken", nil)
	}

	return &model.RefreshTokenResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
		TokenType:    "Bearer",
	}, nil
}

// ValidateAccessToken 校验访问令牌
// 依次检查签名有效性、撤销状态、密码版本，全部通过才返回声明
func (s *SessionService) ValidateAccessToken(ctx context.Context, accessToken string) (*auth.JWTClaims, error) {
	claims, err := s.jwtManager.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, system.ErrTokenInvalid
	}

	if claims.ID != "" {
		revoked, err := s.sessionRepo.IsTokenRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("检查令牌撤销状态失败: %w", err)
		}
		if revoked {
			return nil, system.ErrTokenInvalid
		}
	}

	currentV, err := s.sessionRepo.GetPasswordVersion(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("获取密码版本失败: %w", err)
	}
	if currentV < 0 {
		// 缓存未命中，回源数据库并重建缓存
		currentV, err = s.userService.GetUserPasswordVersion(ctx, claims.UserID)
		if err != nil {
			return nil, fmt.Errorf("查询密码版本失败: %w", err)
		}
		if err := s.sessionRepo.StorePasswordVersion(ctx, claims.UserID, currentV, s.jwtManager.RefreshTokenTTL()); err != nil {
			logger.LogBusinessError(err, "", claims.UserID, "", "cache_password_version", "ValidateAccessToken", nil)
		}
	}
	if claims.PasswordV != currentV {
		return nil, system.ErrTokenExpired
	}

	return claims, nil
}

// GetSession 获取用户会话数据
func (s *SessionService) GetSession(ctx context.Context, userID uint64) (*system.SessionData, error) {
	return s.sessionRepo.GetSession(ctx, userID)
}

// TouchSession 刷新会话活跃时间
func (s *SessionService) TouchSession(ctx context.Context, userID uint64) error {
	sessionData, err := s.sessionRepo.GetSession(ctx, userID)
	if err != nil {
		return err
	}
	if sessionData == nil {
		return nil
	}
	sessionData.UpdateLastActive()
	return s.sessionRepo.StoreSession(ctx, userID, sessionData, s.jwtManager.RefreshTokenTTL())
}
