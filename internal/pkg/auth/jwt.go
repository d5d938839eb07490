/**
 * 工具类:JWT工具
 * @author: sun977
 * @date: 2025.10.20
 * @description: JWT工具类
 * @func:
 * 	1.创建JWT
 * 	2.验证JWT
 * 	3.刷新JWT
 */

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5" // 引入jwt包
)

// JWTClaims JWT声明结构
type JWTClaims struct {
	UserID    uint64   `json:"user_id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	PasswordV int64    `json:"password_v"` // 密码版本号，用于使旧token失效
	Groups    []string `json:"groups"`     // 用户所属用户组名称列表
	jwt.RegisteredClaims
}

// JWTManager JWT管理器
type JWTManager struct {
	secretKey       []byte
	issuer          string
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

// NewJWTManager 创建JWT管理器
func NewJWTManager(secretKey, issuer string, accessTokenTTL, refreshTokenTTL time.Duration) *JWTManager {
	if issuer == "" {
		issuer = "labmaster"
	}
	return &JWTManager{
		secretKey:       []byte(secretKey),
		issuer:          issuer,
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
	}
}

// AccessTokenTTL 返回访问令牌有效期
func (j *JWTManager) AccessTokenTTL() time.Duration {
	return j.accessTokenTTL
}

// RefreshTokenTTL 返回刷新令牌有效期
func (j *JWTManager) RefreshTokenTTL() time.Duration {
	return j.refreshTokenTTL
}

// GenerateAccessToken 生成访问令牌
func (j *JWTManager) GenerateAccessToken(userID uint64, username, email string, passwordV int64, groups []string) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		UserID:    userID,
		Username:  username,
		Email:     email,
		PasswordV: passwordV,
		Groups:    groups,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   username,
			Audience:  []string{"labmaster-web"},
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTokenTTL)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        generateJTI(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

// GenerateRefreshToken 生成刷新令牌
func (j *JWTManager) GenerateRefreshToken(userID uint64, username string) (string, error) {
	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Issuer:    j.issuer,
		Subject:   username,
		Audience:  []string{"labmaster-refresh"},
		ExpiresAt: jwt.NewNumericDate(now.Add(j.refreshTokenTTL)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

// ValidateAccessToken 验证访问令牌
func (j *JWTManager) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return j.secretKey, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		// 检查令牌是否过期
		if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
			return nil, errors.New("token has expired")
		}
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// ValidateRefreshToken 验证刷新令牌
func (j *JWTManager) ValidateRefreshToken(tokenString string) (*jwt.RegisteredClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return j.secretKey, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*jwt.RegisteredClaims); ok && token.Valid {
		// 检查令牌是否过期
		if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
			return nil, errors.New("refresh token has expired")
		}
		// 检查是否是刷新令牌
		if len(claims.Audience) == 0 || claims.Audience[0] != "labmaster-refresh" {
			return nil, errors.New("invalid refresh token")
		}
		return claims, nil
	}

	return nil, errors.New("invalid refresh token")
}

// RefreshAccessToken 刷新访问令牌
func (j *JWTManager) RefreshAccessToken(refreshTokenString string, userID uint64, username, email string, passwordV int64, groups []string) (string, error) {
	// 验证刷新令牌
	_, err := j.ValidateRefreshToken(refreshTokenString)
	if err != nil {
		return "", err
	}

	// 生成新的访问令牌
	return j.GenerateAccessToken(userID, username, email, passwordV, groups)
}

// ExtractTokenFromHeader 从Authorization头中提取令牌
func ExtractTokenFromHeader(authHeader string) string {
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}

// generateJTI 生成JWT ID
func generateJTI() string {
	// 使用纳秒级时间戳确保唯一性
	now := time.Now()
	return now.Format("20060102150405") + "-" + fmt.Sprintf("%09d", now.Nanosecond())
}

// TokenPair 令牌对
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// GenerateTokenPair 生成令牌对
func (j *JWTManager) GenerateTokenPair(userID uint64, username, email string, passwordV int64, groups []string) (*TokenPair, error) {
	accessToken, err := j.GenerateAccessToken(userID, username, email, passwordV, groups)
	if err != nil {
		return nil, err
	}

	refreshToken, err := j.GenerateRefreshToken(userID, username)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(j.accessTokenTTL.Seconds()),
	}, nil
}
