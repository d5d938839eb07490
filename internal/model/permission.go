/**
 * 模型:对象权限模型
 * @author: sun977
 * @date: 2025.10.20
 * @description: 对象级权限数据模型，按 对象类型+对象ID+用户组 授予读写能力
 * @func: ObjectPermission 结构体及相关方法
 */
package model

import (
	"time"
)

// ObjectType 受权限管控的领域对象类型
// 封闭枚举，新增对象类型必须在此登记
type ObjectType string

const (
	ObjectTypeWorkflow       ObjectType = "workflow"        // 工作流定义
	ObjectTypeActiveWorkflow ObjectType = "active_workflow" // 运行中工作流
	ObjectTypeProduct        ObjectType = "product"         // 产品
	ObjectTypeItem           ObjectType = "item"            // 库存物品
	ObjectTypeTaskTemplate   ObjectType = "task_template"   // 任务模板
)

// ObjectPermission 对象级权限授予记录
// 一行代表：某用户组对某个具体对象拥有的读/写能力
type ObjectPermission struct {
	ID         uint64     `json:"id" gorm:"primaryKey;autoIncrement"`                                                    // 主键ID
	ObjectType ObjectType `json:"object_type" gorm:"size:50;not null;uniqueIndex:idx_object_group;comment:对象类型"`         // 对象类型
	ObjectID   uint64     `json:"object_id" gorm:"not null;uniqueIndex:idx_object_group;comment:对象ID"`                   // 对象ID
	GroupID    uint64     `json:"group_id" gorm:"not null;uniqueIndex:idx_object_group;index;comment:被授权用户组ID"`          // 被授权用户组ID
	CanRead    bool       `json:"can_read" gorm:"default:false;comment:读权限"`                                             // 读权限
	CanWrite   bool       `json:"can_write" gorm:"default:false;comment:写权限"`                                            // 写权限
	GrantedBy  uint64     `json:"granted_by" gorm:"comment:授权者用户ID"`                                                     // 授权者用户ID
	CreatedAt  time.Time  `json:"created_at"`                                                                            // 创建时间
	UpdatedAt  time.Time  `json:"updated_at"`                                                                            // 更新时间
}

// TableName 指定对象权限表名
func (ObjectPermission) TableName() string {
	return "object_permissions"
}

// PermissionSet 某对象在某组视角下的能力集合
type PermissionSet struct {
	CanRead  bool `json:"can_read"`  // 是否可读
	CanWrite bool `json:"can_write"` // 是否可写
}

// Merge 合并另一组能力（多组成员取并集）
func (p *PermissionSet) Merge(other PermissionSet) {
	p.CanRead = p.CanRead || other.CanRead
	p.CanWrite = p.CanWrite || other.CanWrite
}
