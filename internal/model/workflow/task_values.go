/**
 * 模型:任务执行值对象
 * @author: sun977
 * @date: 2025.10.20
 * @description: 任务启动时调用方提交的模板值拷贝，执行期不回写模板
 * @func: TaskValues 及各字段值结构体、引擎操作请求/响应结构体
 */
package workflow

// TaskValues 任务执行的字段值拷贝
// 结构与任务模板一致，但携带的是本次执行实际使用的数值
type TaskValues struct {
	TaskTemplateID    uint64                  `json:"task_template_id" binding:"required"` // 任务模板ID
	Name              string                  `json:"name"`                                // 任务名称
	InputFields       []InputFieldValue       `json:"input_fields"`                        // 输入字段值
	VariableFields    []VariableFieldValue    `json:"variable_fields"`                     // 变量字段值
	OutputFields      []OutputFieldValue      `json:"output_fields"`                       // 输出字段值
	StepFields        []StepFieldValue        `json:"step_fields"`                         // 步骤字段值
	CalculationFields []CalculationFieldValue `json:"calculation_fields"`                  // 计算字段值
}

// InputFieldValue 输入字段值
// InventoryIdentifier 解析到具体库存物品
type InputFieldValue struct {
	Label               string  `json:"label"`                // 字段标签
	Amount              float64 `json:"amount"`               // 消耗数量
	Measure             string  `json:"measure"`              // 数量单位
	InventoryIdentifier string  `json:"inventory_identifier"` // 库存物品编号
	FromCalculation     bool    `json:"from_calculation"`     // 数值是否来自计算字段
	CalculationUsed     string  `json:"calculation_used"`     // 引用的计算字段标签
}

// VariableFieldValue 变量字段值
type VariableFieldValue struct {
	Label   string  `json:"label"`   // 字段标签
	Amount  float64 `json:"amount"`  // 数值
	Measure string  `json:"measure"` // 数量单位
}

// OutputFieldValue 输出字段值
type OutputFieldValue struct {
	Label      string  `json:"label"`        // 字段标签
	Amount     float64 `json:"amount"`       // 产出数量
	Measure    string  `json:"measure"`      // 数量单位
	ItemTypeID uint64  `json:"item_type_id"` // 产出物品类型ID
	LocationID uint64  `json:"location_id"`  // 产出物品存放位置ID
}

// StepFieldValue 步骤字段值
type StepFieldValue struct {
	Label      string               `json:"label"`      // 字段标签
	Properties []StepPropertyValue  `json:"properties"` // 步骤属性值
}

// StepPropertyValue 步骤属性值
type StepPropertyValue struct {
	Label   string  `json:"label"`   // 属性标签
	Amount  float64 `json:"amount"`  // 数值
	Measure string  `json:"measure"` // 数量单位
}

// CalculationFieldValue 计算字段值
// Result 由引擎求值填充，求值失败时为NaN
type CalculationFieldValue struct {
	Label       string  `json:"label"`       // 字段标签
	Calculation string  `json:"calculation"` // 算术表达式
	Result      float64 `json:"result"`      // 求值结果
}

// PlannedTransfer 预演/执行的库存转移计划
type PlannedTransfer struct {
	ItemID         uint64  `json:"item_id"`         // 物品ID
	ItemIdentifier string  `json:"item_identifier"` // 物品编号
	ItemName       string  `json:"item_name"`       // 物品名称
	Amount         float64 `json:"amount"`          // 转移数量(物品原生单位)
	Measure        string  `json:"measure"`         // 物品原生单位
	ProductID      uint64  `json:"product_id"`      // 关联产品ID
	FieldLabel     string  `json:"field_label"`     // 来源字段标签
}

// StartTaskRequest 启动任务请求
type StartTaskRequest struct {
	Task       TaskValues `json:"task" binding:"required"`     // 任务字段值拷贝
	ProductIDs []uint64   `json:"products" binding:"required"` // 产品ID列表
	IsPreview  bool       `json:"is_preview"`                  // 预演模式：只计算不落库
}

// StartTaskResponse 启动任务响应
type StartTaskResponse struct {
	RunIdentifier string            `json:"run_identifier,omitempty"` // 本次执行关联ID(预演时为空)
	Transfers     []PlannedTransfer `json:"transfers"`                // 库存转移列表
	Message       string            `json:"message,omitempty"`        // 提示信息
}

// TaskStatusProductEntry 任务状态中单个产品的展示数据
type TaskStatusProductEntry struct {
	ID          uint64   `json:"id"`           // 产品进度游标ID
	ProductName string   `json:"product_name"` // 产品名称
	ItemName    string   `json:"item_name"`    // 关联物品名称
	Fields      []string `json:"fields"`       // 解析后的字段值展示行
}

// TaskStatusResponse 任务状态响应
// items 按产品编号分组，供操作员显示/打印标签
type TaskStatusResponse struct {
	Name  string                              `json:"name"`  // 任务名称
	Items map[string][]TaskStatusProductEntry `json:"items"` // 产品编号 -> 展示数据
}

// CompleteTaskRequest 完成/重试任务请求
type CompleteTaskRequest struct {
	TaskID     uint64   `json:"task_id" binding:"required"`  // 任务模板ID
	ProductIDs []uint64 `json:"products" binding:"required"` // 产品ID列表
}

// SwitchWorkflowRequest 切换工作流请求
// 二选一：target_workflow_id 新建运行实例，target_active_workflow_id 加入已有实例
type SwitchWorkflowRequest struct {
	WorkflowProductID      uint64 `json:"workflow_product_id" binding:"required"` // 产品进度游标ID
	TargetWorkflowID       uint64 `json:"target_workflow_id"`                     // 目标工作流定义ID
	TargetActiveWorkflowID uint64 `json:"target_active_workflow_id"`              // 目标运行实例ID
}
