/**
 * 模型:用户组模型
 * @author: sun977
 * @date: 2025.10.20
 * @description: 用户组数据模型，对象级权限的授权主体
 * @func: Group 结构体及相关方法
 */
package model

import (
	"time"
)

// Group 用户组模型
// 实验室内的课题组/团队，对象级读写权限按用户组授予
type Group struct {
	ID          uint64     `json:"id" gorm:"primaryKey;autoIncrement"`               // 用户组唯一标识ID
	Name        string     `json:"name" gorm:"uniqueIndex;not null;size:100"`        // 用户组名称，唯一索引
	Description string     `json:"description" gorm:"size:500"`                      // 用户组描述
	Status      int        `json:"status" gorm:"default:1;comment:状态:0-禁用,1-启用"`     // 状态，默认启用
	CreatedBy   uint64     `json:"created_by" gorm:"comment:创建者ID"`                  // 创建者用户ID
	CreatedAt   time.Time  `json:"created_at"`                                       // 创建时间
	UpdatedAt   time.Time  `json:"updated_at"`                                       // 更新时间
	DeletedAt   *time.Time `json:"-" gorm:"index"`                                   // 软删除时间

	// 关联关系
	Users []*User `json:"users,omitempty" gorm:"many2many:user_groups;"` // 组内用户，多对多关系
}

// TableName 指定用户组表名
func (Group) TableName() string {
	return "groups"
}
