/**
 * 模型:数据录入审计模型
 * @author: sun977
 * @date: 2025.10.20
 * @description: 任务执行审计记录，只追加不修改（状态字段除外：active升级为终态）
 * @func: DataEntry 结构体及相关方法
 */
package workflow

import (
	"labmaster/internal/model/basemodel"
	"labmaster/internal/model/catalog"
)

// DataEntryState 审计记录状态
type DataEntryState string

const (
	// DataEntryStateActive 任务启动时写入，任务终结时升级为终态
	DataEntryStateActive DataEntryState = "active"
	// DataEntryStateSucceeded 任务成功完成
	DataEntryStateSucceeded DataEntryState = "succeeded"
	// DataEntryStateFailed 任务失败（重试丢弃本次尝试）
	DataEntryStateFailed DataEntryState = "failed"
	// DataEntryStateRepeatSucceeded 同一产品同一任务的重复尝试成功
	DataEntryStateRepeatSucceeded DataEntryState = "repeat succeeded"
	// DataEntryStateRepeatFailed 同一产品同一任务的重复尝试失败
	DataEntryStateRepeatFailed DataEntryState = "repeat failed"
)

// DataEntry 任务执行审计记录
// 每次任务启动为每个受影响产品写入一条，payload为当次解析后的字段值快照
type DataEntry struct {
	basemodel.BaseModel

	ProductID      uint64         `json:"product_id" gorm:"index;not null;comment:产品ID"`
	TaskTemplateID uint64         `json:"task_template_id" gorm:"index;not null;comment:任务模板ID"`
	RunIdentifier  string         `json:"run_identifier" gorm:"size:64;index;not null;comment:任务执行关联ID"`
	State          DataEntryState `json:"state" gorm:"size:32;not null;comment:状态"`
	Payload        string         `json:"payload" gorm:"type:json;comment:字段值快照(JSON)"`
	CreatedBy      uint64         `json:"created_by" gorm:"comment:操作者ID"`

	// 关联关系
	Product      *Product              `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	TaskTemplate *catalog.TaskTemplate `json:"task_template,omitempty" gorm:"foreignKey:TaskTemplateID"`
}

// TableName 指定审计记录表名
func (DataEntry) TableName() string {
	return "data_entries"
}

// Terminal 判断状态是否为终态
func (s DataEntryState) Terminal() bool {
	return s != DataEntryStateActive
}
