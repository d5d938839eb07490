/**
 * 模型:用户模型
 * @author: sun977
 * @date: 2025.10.20
 * @description: 用户数据模型，包含用户基本信息、状态管理和用户组关联关系
 * @func: User 结构体及相关方法
 */
package model

import (
	"time"
)

// User 用户模型
type User struct {
	ID          uint64     `json:"id" gorm:"primaryKey;autoIncrement"`                                            // 用户唯一标识ID，主键自增
	Username    string     `json:"username" gorm:"uniqueIndex;not null;size:50" validate:"required,min=3,max=50"` // 用户名，唯一索引，3-50字符
	Email       string     `json:"email" gorm:"uniqueIndex;not null;size:100" validate:"required,email"`          // 邮箱地址，唯一索引
	Password    string     `json:"-" gorm:"not null;size:255"`                                                    // 用户密码，加密存储，不在JSON中返回
	PasswordV   int64      `json:"-" gorm:"default:1;comment:密码版本号,用于使旧token失效"`                                  // 密码版本控制，用于token失效机制
	Nickname    string     `json:"nickname" gorm:"size:50"`                                                       // 用户昵称
	Status      UserStatus `json:"status" gorm:"default:1;comment:用户状态:0-禁用,1-启用"`                                // 用户状态，默认启用
	LastLoginAt *time.Time `json:"last_login_at" gorm:"comment:最后登录时间"`                                           // 最后登录时间，可为空
	LastLoginIP string     `json:"last_login_ip" gorm:"size:45;comment:最后登录IP"`                                   // 最后登录IP地址，支持IPv6
	CreatedAt   time.Time  `json:"created_at"`                                                                    // 创建时间，自动管理
	UpdatedAt   time.Time  `json:"updated_at"`                                                                    // 更新时间，自动管理
	DeletedAt   *time.Time `json:"-" gorm:"index"`                                                                // 软删除时间，不在JSON中返回

	// 关联关系
	Groups []*Group `json:"groups" gorm:"many2many:user_groups;"` // 用户所属用户组，多对多关系
}

// UserStatus 用户状态枚举
type UserStatus int

const (
	UserStatusDisabled UserStatus = 0 // 禁用状态
	UserStatusEnabled  UserStatus = 1 // 启用状态
)

// UserGroup 用户与用户组关联表
type UserGroup struct {
	UserID    uint64    `json:"user_id" gorm:"primaryKey"`  // 用户ID，联合主键
	GroupID   uint64    `json:"group_id" gorm:"primaryKey"` // 用户组ID，联合主键
	CreatedAt time.Time `json:"created_at"`                 // 关联创建时间
}

// TableName 指定用户表名
func (User) TableName() string {
	return "users"
}

// TableName 指定用户与用户组关联表名
func (UserGroup) TableName() string {
	return "user_groups"
}

// IsActive 检查用户是否处于启用状态
func (u *User) IsActive() bool {
	return u.Status == UserStatusEnabled
}

// GroupNames 返回用户所属用户组名称列表
func (u *User) GroupNames() []string {
	names := make([]string, 0, len(u.Groups))
	for _, g := range u.Groups {
		if g != nil {
			names = append(names, g.Name)
		}
	}
	return names
}

// GroupIDs 返回用户所属用户组ID列表
func (u *User) GroupIDs() []uint64 {
	ids := make([]uint64, 0, len(u.Groups))
	for _, g := range u.Groups {
		if g != nil {
			ids = append(ids, g.ID)
		}
	}
	return ids
}
