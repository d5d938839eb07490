/**
 * 模型:运行中工作流模型
 * @author: sun977
 * @date: 2025.10.20
 * @description: 工作流运行实例与产品进度游标，任务执行状态机的持久化载体
 * @func: ActiveWorkflow/WorkflowProduct 结构体及相关方法
 */
package workflow

import (
	"labmaster/internal/model/basemodel"
	"labmaster/internal/model/catalog"
)

// ActiveWorkflow 运行中工作流
// 工作流定义的运行实例，聚合当前正在执行该流程的产品
// 最后一个成员被移除时实例随之删除
type ActiveWorkflow struct {
	basemodel.BaseModel

	WorkflowID uint64 `json:"workflow_id" gorm:"index;not null;comment:工作流定义ID"`
	Name       string `json:"name" gorm:"size:200;comment:实例名称"`
	CreatedBy  uint64 `json:"created_by" gorm:"comment:创建者ID"`

	// 关联关系
	Workflow *catalog.Workflow  `json:"workflow,omitempty" gorm:"foreignKey:WorkflowID"`
	Products []*WorkflowProduct `json:"products,omitempty" gorm:"foreignKey:ActiveWorkflowID"`
}

// TableName 指定运行中工作流表名
func (ActiveWorkflow) TableName() string {
	return "active_workflows"
}

// WorkflowProduct 产品进度游标
// 与产品一对一；current_task 为工作流任务序列的零基序号
// 不变式：task_in_progress=true 当且仅当 run_identifier 非空，二者必须一起复位
type WorkflowProduct struct {
	basemodel.BaseModel

	ActiveWorkflowID uint64 `json:"active_workflow_id" gorm:"index;not null;comment:所属运行实例ID"`
	ProductID        uint64 `json:"product_id" gorm:"uniqueIndex;not null;comment:产品ID"`
	CurrentTask      int    `json:"current_task" gorm:"not null;default:0;comment:当前任务序号(零基)"`
	TaskInProgress   bool   `json:"task_in_progress" gorm:"not null;default:false;comment:任务是否进行中"`
	RunIdentifier    string `json:"run_identifier" gorm:"size:64;index;default:'';comment:进行中任务的执行关联ID"`

	// 关联关系
	Product        *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	ActiveWorkflow *ActiveWorkflow `json:"active_workflow,omitempty" gorm:"foreignKey:ActiveWorkflowID"`
}

// TableName 指定产品进度游标表名
func (WorkflowProduct) TableName() string {
	return "workflow_products"
}

// Idle 判断产品当前是否处于空闲态（可启动当前任务）
func (wp *WorkflowProduct) Idle() bool {
	return !wp.TaskInProgress && wp.RunIdentifier == ""
}
