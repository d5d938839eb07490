/**
 * 系统仓库层:会话数据访问
 * @author: sun977
 * @date: 2025.10.21
 * @description: 会话数据交互层(Redis存储,适合多实例部署)
 * @func: 单纯数据访问,不应该包含业务逻辑
 */
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"labmaster/internal/model/system"
)

// SessionRepository Redis会话存储库
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository 创建会话存储库实例
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{
		client: client,
	}
}

// StoreSession 存储用户会话信息
func (r *SessionRepository) StoreSession(ctx context.Context, userID uint64, sessionData *system.SessionData, expiration time.Duration) error {
	data, err := json.Marshal(sessionData)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	sessionKey := r.getSessionKey(userID)
	err = r.client.Set(ctx, sessionKey, data, expiration).Err()
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// GetSession 获取用户会话信息
// 会话不存在时返回 (nil, nil)
func (r *SessionRepository) GetSession(ctx context.Context, userID uint64) (*system.SessionData, error) {
	sessionKey := r.getSessionKey(userID)
	data, err := r.client.Get(ctx, sessionKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sessionData system.SessionData
	if err := json.Unmarshal([]byte(data), &sessionData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	return &sessionData, nil
}

// DeleteSession 删除用户会话
func (r *SessionRepository) DeleteSession(ctx context.Context, userID uint64) error {
	sessionKey := r.getSessionKey(userID)
	err := r.client.Del(ctx, sessionKey).Err()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// UpdateSessionExpiry 更新会话过期时间
func (r *SessionRepository) UpdateSessionExpiry(ctx context.Context, userID uint64, expiration time.Duration) error {
	sessionKey := r.getSessionKey(userID)
	err := r.client.Expire(ctx, sessionKey, expiration).Err()
	if err != nil {
		return fmt.Errorf("failed to update session expiry: %w", err)
	}
	return nil
}

// RevokeToken 将令牌加入撤销名单
// 过期时间取令牌剩余有效期，到期后撤销记录自动清理
func (r *SessionRepository) RevokeToken(ctx context.Context, tokenID string, expiration time.Duration) error {
	revokedKey := r.getRevokedTokenKey(tokenID)
	err := r.client.Set(ctx, revokedKey, "revoked", expiration).Err()
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked 检查令牌是否已被撤销
func (r *SessionRepository) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	revokedKey := r.getRevokedTokenKey(tokenID)
	exists, err := r.client.Exists(ctx, revokedKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return exists > 0, nil
}

// StoreRefreshToken 存储刷新令牌标识
func (r *SessionRepository) StoreRefreshToken(ctx context.Context, userID uint64, tokenID string, expiration time.Duration) error {
	refreshKey := r.getRefreshTokenKey(userID, tokenID)
	err := r.client.Set(ctx, refreshKey, "valid", expiration).Err()
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// ValidateRefreshToken 校验刷新令牌标识是否有效
func (r *SessionRepository) ValidateRefreshToken(ctx context.Context, userID uint64, tokenID string) (bool, error) {
	refreshKey := r.getRefreshTokenKey(userID, tokenID)
	exists, err := r.client.Exists(ctx, refreshKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to validate refresh token: %w", err)
	}
	return exists > 0, nil
}

// DeleteRefreshToken 删除刷新令牌标识
func (r *SessionRepository) DeleteRefreshToken(ctx context.Context, userID uint64, tokenID string) error {
	refreshKey := r.getRefreshTokenKey(userID, tokenID)
	err := r.client.Del(ctx, refreshKey).Err()
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}

// StorePasswordVersion 缓存用户密码版本
// 令牌校验时优先读缓存，避免每个请求回表
func (r *SessionRepository) StorePasswordVersion(ctx context.Context, userID uint64, passwordV int64, expiration time.Duration) error {
	key := r.getPasswordVersionKey(userID)
	err := r.client.Set(ctx, key, passwordV, expiration).Err()
	if err != nil {
		return fmt.Errorf("failed to store password version: %w", err)
	}
	return nil
}

// GetPasswordVersion 获取缓存的用户密码版本
// 缓存未命中返回 (-1, nil)，由上层回源数据库
func (r *SessionRepository) GetPasswordVersion(ctx context.Context, userID uint64) (int64, error) {
	key := r.getPasswordVersionKey(userID)
	passwordV, err := r.client.Get(ctx, key).Int64()
	if err != nil {
		if err == redis.Nil {
			return -1, nil
		}
		return 0, fmt.Errorf("failed to get password version: %w", err)
	}
	return passwordV, nil
}

// DeletePasswordVersion 删除缓存的用户密码版本
func (r *SessionRepository) DeletePasswordVersion(ctx context.Context, userID uint64) error {
	key := r.getPasswordVersionKey(userID)
	err := r.client.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete password version: %w", err)
	}
	return nil
}

// getSessionKey 生成会话键[KEY:session:user:{userID}]
func (r *SessionRepository) getSessionKey(userID uint64) string {
	return fmt.Sprintf("session:user:%d", userID)
}

// getRevokedTokenKey 生成撤销令牌键[KEY:revoked:token:{tokenID}]
func (r *SessionRepository) getRevokedTokenKey(tokenID string) string {
	return fmt.Sprintf("revoked:token:%s", tokenID)
}

// getRefreshTokenKey 生成刷新令牌键[KEY:refresh:token:{userID}:{tokenID}]
func (r *SessionRepository) getRefreshTokenKey(userID uint64, tokenID string) string {
	return fmt.Sprintf("refresh:token:%d:%s", userID, tokenID)
}

// getPasswordVersionKey 生成密码版本键[KEY:password:version:{userID}]
func (r *SessionRepository) getPasswordVersionKey(userID uint64) string {
	return fmt.Sprintf("password:version:%d", userID)
}

// Ping 检查Redis连接
func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close 关闭Redis连接
func (r *SessionRepository) Close() error {
	return r.client.Close()
}
