/**
 * 模型:工作流定义模型
 * @author: sun977
 * @date: 2025.10.20
 * @description: 工作流定义表，有序的任务模板序列，可被多个运行实例复用
 * @func: Workflow/WorkflowTask 结构体及相关方法
 */
package catalog

import (
	"labmaster/internal/model/basemodel"

	"gorm.io/gorm"
)

// Workflow 工作流定义表
// 一组有序的任务模板引用，执行期由引擎读取解析任务顺序
type Workflow struct {
	basemodel.BaseModel

	Name        string         `json:"name" gorm:"size:100;uniqueIndex;not null;comment:工作流唯一标识名"`
	Description string         `json:"description" gorm:"type:text;comment:描述"`
	CreatedBy   uint64         `json:"created_by" gorm:"comment:创建者ID"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at" gorm:"index;comment:软删除时间"`

	// 关联关系
	Tasks []*WorkflowTask `json:"tasks,omitempty" gorm:"foreignKey:WorkflowID"`
}

// TableName 定义数据库表名
func (Workflow) TableName() string {
	return "workflows"
}

// WorkflowTask 工作流与任务模板关联表
// Position 为零基序号，决定任务执行顺序
type WorkflowTask struct {
	basemodel.BaseModel

	WorkflowID     uint64 `json:"workflow_id" gorm:"index;not null;uniqueIndex:idx_workflow_position;comment:工作流ID"`
	TaskTemplateID uint64 `json:"task_template_id" gorm:"not null;comment:任务模板ID"`
	Position       int    `json:"position" gorm:"not null;uniqueIndex:idx_workflow_position;comment:执行顺序(零基)"`

	// 关联关系
	TaskTemplate *TaskTemplate `json:"task_template,omitempty" gorm:"foreignKey:TaskTemplateID"`
}

// TableName 定义数据库表名
func (WorkflowTask) TableName() string {
	return "workflow_tasks"
}

// TaskCount 返回工作流任务数
func (w *Workflow) TaskCount() int {
	return len(w.Tasks)
}

// TaskAt 按零基序号返回任务模板，越界返回nil
func (w *Workflow) TaskAt(position int) *WorkflowTask {
	for _, t := range w.Tasks {
		if t != nil && t.Position == position {
			return t
		}
	}
	return nil
}
