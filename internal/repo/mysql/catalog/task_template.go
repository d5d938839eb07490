/**
 * 目录仓库层:任务模板数据访问
 * @author: sun977
 * @date: 2025.10.21
 * @description: 任务模板及其五类字段模板的数据访问层，不包含业务逻辑
 * @func: 任务模板的创建、预加载查询、列表、删除
 */
package catalog

import (
	"context"
	"time"

	"gorm.io/gorm"

	catalogModel "labmaster/internal/model/catalog"
	"labmaster/internal/pkg/logger"
)

// TaskTemplateRepository 任务模板仓库结构体
type TaskTemplateRepository struct {
	db *gorm.DB // 数据库连接
}

// NewTaskTemplateRepository 创建任务模板仓库实例
func NewTaskTemplateRepository(db *gorm.DB) *TaskTemplateRepository {
	return &TaskTemplateRepository{
		db: db,
	}
}

// CreateTaskTemplate 创建任务模板（含字段模板级联写入）
func (r *TaskTemplateRepository) CreateTaskTemplate(ctx context.Context, template *catalogModel.TaskTemplate) error {
	template.CreatedAt = time.Now()
	template.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).Create(template).Error
	if err != nil {
		logger.LogBusinessError(err, "", 0, "", "task_template_create", "POST", map[string]interface{}{
			"operation":     "create_task_template",
			"func_name":     "repo.catalog.CreateTaskTemplate",
			"template_name": template.Name,
		})
		return err
	}
	return nil
}

// GetTaskTemplateByID 根据ID获取任务模板
// 预加载全部字段模板，步骤字段按sort_order排序，执行引擎依赖该顺序
func (r *TaskTemplateRepository) GetTaskTemplateByID(ctx context.Context, id uint64) (*catalogModel.TaskTemplate, error) {
	var template catalogModel.TaskTemplate
	err := r.db.WithContext(ctx).
		Preload("InputFields").
		Preload("VariableFields").
		Preload("OutputFields").
		Preload("StepFields").
		Preload("StepFields.Properties", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("CalculationFields").
		Where("id = ?", id).First(&template).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		logger.LogBusinessError(err, "", 0, "", "task_template_get", "GET", map[string]interface{}{
			"operation":   "get_task_template_by_id",
			"func_name":   "repo.catalog.GetTaskTemplateByID",
			"template_id": id,
		})
		return nil, err
	}
	return &template, nil
}

// GetTaskTemplateList 分页获取任务模板列表
func (r *TaskTemplateRepository) GetTaskTemplateList(ctx context.Context, offset, limit int, keyword *string) ([]*catalogModel.TaskTemplate, int64, error) {
	var templates []*catalogModel.TaskTemplate
	var total int64

	query := r.db.WithContext(ctx).Model(&catalogModel.TaskTemplate{})
	if keyword != nil && *keyword != "" {
		query = query.Where("name LIKE ?", "%"+*keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&templates).Error
	if err != nil {
		return nil, 0, err
	}
	return templates, total, nil
}

// UpdateTaskTemplate 更新任务模板基本信息
// 字段模板集合不在此处更新，需重建模板版本
func (r *TaskTemplateRepository) UpdateTaskTemplate(ctx context.Context, template *catalogModel.TaskTemplate) error {
	template.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Model(&catalogModel.TaskTemplate{}).
		Where("id = ?", template.ID).
		Updates(map[string]interface{}{
			"name":                  template.Name,
			"description":           template.Description,
			"product_input":         template.ProductInput,
			"product_input_amount":  template.ProductInputAmount,
			"product_input_measure": template.ProductInputMeasure,
			"updated_at":            template.UpdatedAt,
		}).Error
}

// DeleteTaskTemplate 删除任务模板及其字段模板
func (r *TaskTemplateRepository) DeleteTaskTemplate(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 级联删除五类字段模板
		var stepFieldIDs []uint64
		if err := tx.Model(&catalogModel.StepFieldTemplate{}).
			Where("task_template_id = ?", id).Pluck("id", &stepFieldIDs).Error; err != nil {
			return err
		}
		if len(stepFieldIDs) > 0 {
			if err := tx.Where("step_field_template_id IN ?", stepFieldIDs).
				Delete(&catalogModel.StepFieldProperty{}).Error; err != nil {
				return err
			}
		}
		for _, m := range []interface{}{
			&catalogModel.InputFieldTemplate{},
			&catalogModel.VariableFieldTemplate{},
			&catalogModel.OutputFieldTemplate{},
			&catalogModel.StepFieldTemplate{},
			&catalogModel.CalculationFieldTemplate{},
		} {
			if err := tx.Where("task_template_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&catalogModel.TaskTemplate{}, id).Error
	})
}
