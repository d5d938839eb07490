/**
 * 目录仓库层:工作流定义数据访问
 * @author: sun977
 * @date: 2025.10.21
 * @description: 工作流定义数据访问层，任务序列按position有序加载
 * @func: 工作流定义的增删改查、任务序列维护
 */
package catalog

import (
	"context"
	"time"

	"gorm.io/gorm"

	catalogModel "labmaster/internal/model/catalog"
	"labmaster/internal/pkg/logger"
)

// WorkflowRepository 工作流定义仓库结构体
type WorkflowRepository struct {
	db *gorm.DB // 数据库连接
}

// NewWorkflowRepository 创建工作流定义仓库实例
func NewWorkflowRepository(db *gorm.DB) *WorkflowRepository {
	return &WorkflowRepository{
		db: db,
	}
}

// CreateWorkflow 创建工作流定义（含任务序列级联写入）
func (r *WorkflowRepository) CreateWorkflow(ctx context.Context, workflow *catalogModel.Workflow) error {
	workflow.CreatedAt = time.Now()
	workflow.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).Create(workflow).Error
	if err != nil {
		logger.LogBusinessError(err, "", 0, "", "workflow_create", "POST", map[string]interface{}{
			"operation":     "create_workflow",
			"func_name":     "repo.catalog.CreateWorkflow",
			"workflow_name": workflow.Name,
		})
		return err
	}
	return nil
}

// GetWorkflowByID 根据ID获取工作流定义
// 任务序列按position升序预加载，引擎按此顺序推进产品
func (r *WorkflowRepository) GetWorkflowByID(ctx context.Context, id uint64) (*catalogModel.Workflow, error) {
	var workflow catalogModel.Workflow
	err := r.db.WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Tasks.TaskTemplate").
		Where("id = ?", id).First(&workflow).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		logger.LogBusinessError(err, "", 0, "", "workflow_get", "GET", map[string]interface{}{
			"operation":   "get_workflow_by_id",
			"func_name":   "repo.catalog.GetWorkflowByID",
			"workflow_id": id,
		})
		return nil, err
	}
	return &workflow, nil
}

// GetWorkflowByName 根据唯一标识名获取工作流定义
func (r *WorkflowRepository) GetWorkflowByName(ctx context.Context, name string) (*catalogModel.Workflow, error) {
	var workflow catalogModel.Workflow
	err := r.db.WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("name = ?", name).First(&workflow).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &workflow, nil
}

// GetWorkflowList 分页获取工作流定义列表
func (r *WorkflowRepository) GetWorkflowList(ctx context.Context, offset, limit int, keyword *string) ([]*catalogModel.Workflow, int64, error) {
	var workflows []*catalogModel.Workflow
	var total int64

	query := r.db.WithContext(ctx).Model(&catalogModel.Workflow{})
	if keyword != nil && *keyword != "" {
		query = query.Where("name LIKE ?", "%"+*keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&workflows).Error
	if err != nil {
		return nil, 0, err
	}
	return workflows, total, nil
}

// UpdateWorkflow 更新工作流定义基本信息
func (r *WorkflowRepository) UpdateWorkflow(ctx context.Context, workflow *catalogModel.Workflow) error {
	workflow.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Model(&catalogModel.Workflow{}).
		Where("id = ?", workflow.ID).
		Updates(map[string]interface{}{
			"name":        workflow.Name,
			"description": workflow.Description,
			"updated_at":  workflow.UpdatedAt,
		}).Error
}

// ReplaceWorkflowTasks 整体替换工作流的任务序列
// 先删后插，position重新从0编号
func (r *WorkflowRepository) ReplaceWorkflowTasks(ctx context.Context, workflowID uint64, taskTemplateIDs []uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workflow_id = ?", workflowID).
			Delete(&catalogModel.WorkflowTask{}).Error; err != nil {
			return err
		}
		for i, templateID := range taskTemplateIDs {
			task := &catalogModel.WorkflowTask{
				WorkflowID:     workflowID,
				TaskTemplateID: templateID,
				Position:       i,
			}
			if err := tx.Create(task).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteWorkflow 软删除工作流定义
// 运行中实例仍持有workflow_id，软删除保证历史可追溯
func (r *WorkflowRepository) DeleteWorkflow(ctx context.Context, id uint64) error {
	err := r.db.WithContext(ctx).Delete(&catalogModel.Workflow{}, id).Error
	if err != nil {
		logger.LogBusinessError(err, "", 0, "", "workflow_delete", "DELETE", map[string]interface{}{
			"operation":   "delete_workflow",
			"func_name":   "repo.catalog.DeleteWorkflow",
			"workflow_id": id,
		})
		return err
	}
	return nil
}
