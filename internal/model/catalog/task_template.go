/**
 * 模型:任务模板模型
 * @author: sun977
 * @date: 2025.10.20
 * @description: 任务模板及五类字段模板，执行期只读，执行使用调用方提交的值拷贝
 * @func: TaskTemplate 及各字段模板结构体
 */
package catalog

import (
	"labmaster/internal/model/basemodel"
)

// FieldKind 字段模板种类
// 封闭枚举，按种类显式分发，不做按名字符串反射查找
type FieldKind string

const (
	FieldKindInput       FieldKind = "input"       // 输入字段：消耗库存
	FieldKindVariable    FieldKind = "variable"    // 变量字段：自由数值
	FieldKindOutput      FieldKind = "output"      // 输出字段：产出库存
	FieldKindStep        FieldKind = "step"        // 步骤字段：嵌套操作步骤
	FieldKindCalculation FieldKind = "calculation" // 计算字段：算术表达式
)

// ValidFieldKinds 所有合法字段种类
// 显式分发表，新增种类必须在此登记
var ValidFieldKinds = map[FieldKind]bool{
	FieldKindInput:       true,
	FieldKindVariable:    true,
	FieldKindOutput:      true,
	FieldKindStep:        true,
	FieldKindCalculation: true,
}

// TaskTemplate 任务模板
// 一个可复用的实验工序定义，执行期不可变
type TaskTemplate struct {
	basemodel.BaseModel

	Name        string `json:"name" gorm:"size:200;not null;comment:任务模板名称"`
	Description string `json:"description" gorm:"type:text;comment:描述"`
	// 产品自身的消耗要求：任务对产品关联库存物品的固定扣减量
	ProductInput        bool    `json:"product_input" gorm:"default:false;comment:是否消耗产品关联物品"`
	ProductInputAmount  float64 `json:"product_input_amount" gorm:"default:0;comment:产品物品消耗量"`
	ProductInputMeasure string  `json:"product_input_measure" gorm:"size:20;comment:产品物品消耗单位"`
	CreatedBy           uint64  `json:"created_by" gorm:"comment:创建者ID"`

	// 关联关系
	InputFields       []*InputFieldTemplate       `json:"input_fields,omitempty" gorm:"foreignKey:TaskTemplateID"`
	VariableFields    []*VariableFieldTemplate    `json:"variable_fields,omitempty" gorm:"foreignKey:TaskTemplateID"`
	OutputFields      []*OutputFieldTemplate      `json:"output_fields,omitempty" gorm:"foreignKey:TaskTemplateID"`
	StepFields        []*StepFieldTemplate        `json:"step_fields,omitempty" gorm:"foreignKey:TaskTemplateID"`
	CalculationFields []*CalculationFieldTemplate `json:"calculation_fields,omitempty" gorm:"foreignKey:TaskTemplateID"`
}

// TableName 指定任务模板表名
func (TaskTemplate) TableName() string {
	return "task_templates"
}

// InputFieldTemplate 输入字段模板
// 数量+单位+物品类型约束，可由计算字段或上传文件提供数值
type InputFieldTemplate struct {
	basemodel.BaseModel

	TaskTemplateID uint64  `json:"task_template_id" gorm:"index;not null;comment:所属任务模板ID"`
	Label          string  `json:"label" gorm:"size:100;not null;comment:字段标签"`
	Amount         float64 `json:"amount" gorm:"default:0;comment:默认消耗数量"`
	Measure        string  `json:"measure" gorm:"size:20;comment:数量单位"`
	ItemTypeID     uint64  `json:"item_type_id" gorm:"comment:可选物品类型约束"`
	FromCalculation bool   `json:"from_calculation" gorm:"default:false;comment:数值是否来自计算字段"`
	CalculationUsed string `json:"calculation_used" gorm:"size:100;comment:引用的计算字段标签"`
	FromFile        bool   `json:"from_file" gorm:"default:false;comment:数值是否来自上传文件"`
}

// TableName 指定输入字段模板表名
func (InputFieldTemplate) TableName() string {
	return "input_field_templates"
}

// VariableFieldTemplate 变量字段模板
type VariableFieldTemplate struct {
	basemodel.BaseModel

	TaskTemplateID uint64  `json:"task_template_id" gorm:"index;not null;comment:所属任务模板ID"`
	Label          string  `json:"label" gorm:"size:100;not null;comment:字段标签"`
	Amount         float64 `json:"amount" gorm:"default:0;comment:默认数值"`
	Measure        string  `json:"measure" gorm:"size:20;comment:数量单位"`
}

// TableName 指定变量字段模板表名
func (VariableFieldTemplate) TableName() string {
	return "variable_field_templates"
}

// OutputFieldTemplate 输出字段模板
// 任务完成时按此产出新的库存物品
type OutputFieldTemplate struct {
	basemodel.BaseModel

	TaskTemplateID uint64  `json:"task_template_id" gorm:"index;not null;comment:所属任务模板ID"`
	Label          string  `json:"label" gorm:"size:100;not null;comment:字段标签"`
	Amount         float64 `json:"amount" gorm:"default:0;comment:产出数量"`
	Measure        string  `json:"measure" gorm:"size:20;comment:数量单位"`
	ItemTypeID     uint64  `json:"item_type_id" gorm:"comment:产出物品类型ID"`
	LocationID     uint64  `json:"location_id" gorm:"comment:产出物品存放位置ID"`
}

// TableName 指定输出字段模板表名
func (OutputFieldTemplate) TableName() string {
	return "output_field_templates"
}

// StepFieldTemplate 步骤字段模板
// 嵌套的操作步骤集合，每个步骤有自己的数量属性
type StepFieldTemplate struct {
	basemodel.BaseModel

	TaskTemplateID uint64 `json:"task_template_id" gorm:"index;not null;comment:所属任务模板ID"`
	Label          string `json:"label" gorm:"size:100;not null;comment:字段标签"`

	// 关联关系
	Properties []*StepFieldProperty `json:"properties,omitempty" gorm:"foreignKey:StepFieldTemplateID"`
}

// TableName 指定步骤字段模板表名
func (StepFieldTemplate) TableName() string {
	return "step_field_templates"
}

// StepFieldProperty 步骤字段属性
type StepFieldProperty struct {
	basemodel.BaseModel

	StepFieldTemplateID uint64  `json:"step_field_template_id" gorm:"index;not null;comment:所属步骤字段ID"`
	Label               string  `json:"label" gorm:"size:100;not null;comment:属性标签"`
	Amount              float64 `json:"amount" gorm:"default:0;comment:数值"`
	Measure             string  `json:"measure" gorm:"size:20;comment:数量单位"`
	SortOrder           int     `json:"sort_order" gorm:"default:0;comment:步骤顺序"`
}

// TableName 指定步骤字段属性表名
func (StepFieldProperty) TableName() string {
	return "step_field_properties"
}

// CalculationFieldTemplate 计算字段模板
// calculation 为引用其他字段标签的算术表达式，如 "{volume} * {count}"
type CalculationFieldTemplate struct {
	basemodel.BaseModel

	TaskTemplateID uint64 `json:"task_template_id" gorm:"index;not null;comment:所属任务模板ID"`
	Label          string `json:"label" gorm:"size:100;not null;comment:字段标签"`
	Calculation    string `json:"calculation" gorm:"size:500;not null;comment:算术表达式"`
}

// TableName 指定计算字段模板表名
func (CalculationFieldTemplate) TableName() string {
	return "calculation_field_templates"
}
