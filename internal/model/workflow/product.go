/**
 * 模型:产品模型
 * @author: sun977
 * @date: 2025.10.20
 * @description: 产品数据模型，实验流转的基本追踪单元
 * @func: Product 结构体及相关方法
 */
package workflow

import (
	"labmaster/internal/model/basemodel"
	"labmaster/internal/model/inventory"
)

// Product 产品
// 实验室中被追踪的工作/物料单元，沿工作流逐任务推进
type Product struct {
	basemodel.BaseModel

	Identifier string `json:"identifier" gorm:"size:50;uniqueIndex;not null;comment:产品编号"`
	Name       string `json:"name" gorm:"size:200;not null;comment:产品名称"`
	// 产品关联的库存物品：任务的product_input要求按此物品扣减
	LinkedItemID uint64 `json:"linked_item_id" gorm:"index;comment:关联库存物品ID"`
	CreatedBy    uint64 `json:"created_by" gorm:"comment:创建者ID"`

	// 关联关系
	LinkedItem *inventory.Item `json:"linked_item,omitempty" gorm:"foreignKey:LinkedItemID"`
}

// TableName 指定产品表名
func (Product) TableName() string {
	return "products"
}
