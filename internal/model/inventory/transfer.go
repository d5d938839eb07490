/**
 * 模型:库存转移记录模型
 * @author: sun977
 * @date: 2025.10.20
 * @description: 库存转移台账，记录每一次数量扣减与恢复，按run_identifier关联任务执行
 * @func: ItemTransfer 结构体及相关方法
 */
package inventory

import (
	"labmaster/internal/model/basemodel"
)

// ItemTransfer 库存转移记录
// is_addition=false 表示扣减，is_addition=true 表示恢复/新建
// transfer_complete 标记扣减是否已终结（任务完成前为预占）
type ItemTransfer struct {
	basemodel.BaseModel

	ItemID           uint64  `json:"item_id" gorm:"index;not null;comment:物品ID"`
	Amount           float64 `json:"amount" gorm:"not null;comment:转移数量(物品原生单位)"`
	Measure          string  `json:"measure" gorm:"size:20;not null;comment:转移数量单位"`
	IsAddition       bool    `json:"is_addition" gorm:"not null;default:false;comment:是否为增加"`
	TransferComplete bool    `json:"transfer_complete" gorm:"not null;default:false;comment:转移是否终结"`
	RunIdentifier    string  `json:"run_identifier" gorm:"size:64;index;comment:任务执行关联ID"`
	CreatedBy        uint64  `json:"created_by" gorm:"comment:操作者ID"`

	// 关联关系
	Item *Item `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

// TableName 指定库存转移表名
func (ItemTransfer) TableName() string {
	return "item_transfers"
}
