/**
 * 模型:库存物品模型
 * @author: sun977
 * @date: 2025.10.20
 * @description: 库存台账数据模型，物品数量只能通过转移记录变动
 * @func: ItemType/Location/Item 结构体及相关方法
 */
package inventory

import (
	"labmaster/internal/model/basemodel"
)

// ItemType 物品类型
// 任务模板的输入/输出字段按物品类型约束可选的库存物品
type ItemType struct {
	basemodel.BaseModel

	Name        string `json:"name" gorm:"size:100;uniqueIndex;not null;comment:物品类型名称"`
	Description string `json:"description" gorm:"type:text;comment:描述"`
	CreatedBy   uint64 `json:"created_by" gorm:"comment:创建者ID"`
}

// TableName 指定物品类型表名
func (ItemType) TableName() string {
	return "item_types"
}

// Location 存放位置
type Location struct {
	basemodel.BaseModel

	Name      string `json:"name" gorm:"size:100;not null;comment:位置名称"`
	ParentID  uint64 `json:"parent_id" gorm:"default:0;index;comment:上级位置ID,0表示顶级"`
	CreatedBy uint64 `json:"created_by" gorm:"comment:创建者ID"`
}

// TableName 指定位置表名
func (Location) TableName() string {
	return "locations"
}

// Item 库存物品
// 台账不变式：amount_available 只通过转移操作变动，完成态转移的累计和
// 必须与 amount_available 的历史变动对账一致
type Item struct {
	basemodel.BaseModel

	Identifier      string  `json:"identifier" gorm:"size:50;uniqueIndex;not null;comment:物品编号"`
	Name            string  `json:"name" gorm:"size:200;not null;comment:物品名称"`
	ItemTypeID      uint64  `json:"item_type_id" gorm:"index;not null;comment:物品类型ID"`
	LocationID      uint64  `json:"location_id" gorm:"index;comment:存放位置ID"`
	AmountAvailable float64 `json:"amount_available" gorm:"not null;default:0;comment:可用数量"`
	AmountMeasure   string  `json:"amount_measure" gorm:"size:20;not null;comment:数量单位"`
	Concentration   float64 `json:"concentration" gorm:"default:0;comment:浓度"`
	CreatedBy       uint64  `json:"created_by" gorm:"comment:创建者ID"`

	// 关联关系
	ItemType *ItemType `json:"item_type,omitempty" gorm:"foreignKey:ItemTypeID"`
	Location *Location `json:"location,omitempty" gorm:"foreignKey:LocationID"`
	// 产出物品的溯源：该物品由哪些输入物品消耗产生
	CreatedFrom []*Item `json:"created_from,omitempty" gorm:"many2many:item_provenance;joinForeignKey:ItemID;joinReferences:SourceItemID"`
}

// TableName 指定物品表名
func (Item) TableName() string {
	return "items"
}
