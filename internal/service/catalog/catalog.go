/**
 * 目录服务层:工作流与任务模板
 * @author: sun977
 * @date: 2025.10.21
 * @description: 工作流定义与任务模板的管理业务逻辑
 * @func: 创建时向创建者所属用户组授予读写权限，列表按权限过滤
 */
package catalog

import (
	"context"
	"fmt"

	"labmaster/internal/model"
	catalogModel "labmaster/internal/model/catalog"
	"labmaster/internal/model/system"
	catalogRepo "labmaster/internal/repo/mysql/catalog"
	"labmaster/internal/service/auth"
)

// CatalogService 工作流与任务模板管理服务
type CatalogService struct {
	workflowRepo *catalogRepo.WorkflowRepository
	templateRepo *catalogRepo.TaskTemplateRepository
	permService  *auth.PermissionService
}

// NewCatalogService 创建目录服务实例
func NewCatalogService(workflowRepo *catalogRepo.WorkflowRepository, templateRepo *catalogRepo.TaskTemplateRepository, permService *auth.PermissionService) *CatalogService {
	return &CatalogService{
		workflowRepo: workflowRepo,
		templateRepo: templateRepo,
		permService:  permService,
	}
}

// CreateWorkflow 创建工作流定义
// 创建者所属的全部用户组自动获得该工作流的读写权限
func (s *CatalogService) CreateWorkflow(ctx context.Context, workflow *catalogModel.Workflow, creatorID uint64, creatorGroupIDs []uint64) error {
	if workflow == nil || workflow.Name == "" {
		return system.NewValidationError("工作流名称不能为空")
	}
	existing, err := s.workflowRepo.GetWorkflowByName(ctx, workflow.Name)
	if err != nil {
		return fmt.Errorf("查询工作流失败: %w", err)
	}
	if existing != nil {
		return system.NewValidationError("工作流名称已存在")
	}

	workflow.CreatedBy = creatorID
	if err := s.workflowRepo.CreateWorkflow(ctx, workflow); err != nil {
		return fmt.Errorf("创建工作流失败: %w", err)
	}
	return s.grantCreatorAccess(ctx, model.ObjectTypeWorkflow, workflow.ID, creatorID, creatorGroupIDs)
}

// GetWorkflow 获取工作流定义，任务按位置升序排列
// 无读权限与不存在统一返回对象不存在
func (s *CatalogService) GetWorkflow(ctx context.Context, id uint64, groupIDs []uint64) (*catalogModel.Workflow, error) {
	if err := s.permService.RequireRead(ctx, model.ObjectTypeWorkflow, id, groupIDs); err != nil {
		return nil, err
	}
	workflow, err := s.workflowRepo.GetWorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if workflow == nil {
		return nil, system.ErrObjectNotFound
	}
	return workflow, nil
}

// GetWorkflowList 分页获取工作流列表，仅返回有读权限的条目
func (s *CatalogService) GetWorkflowList(ctx context.Context, page, pageSize int, keyword *string, groupIDs []uint64) ([]*catalogModel.Workflow, int64, error) {
	offset := (page - 1) * pageSize
	workflows, total, err := s.workflowRepo.GetWorkflowList(ctx, offset, pageSize, keyword)
	if err != nil {
		return nil, 0, err
	}
	visible, err := s.filterWorkflows(ctx, workflows, groupIDs)
	if err != nil {
		return nil, 0, err
	}
	return visible, total, nil
}

// UpdateWorkflowTasks 整体替换工作流的任务序列
func (s *CatalogService) UpdateWorkflowTasks(ctx context.Context, workflowID uint64, taskTemplateIDs []uint64, groupIDs []uint64) error {
	if err := s.permService.RequireWrite(ctx, model.ObjectTypeWorkflow, workflowID, groupIDs); err != nil {
		return err
	}
	workflow, err := s.workflowRepo.GetWorkflowByID(ctx, workflowID)
	if err != nil {
		return err
	}
	if workflow == nil {
		return system.ErrObjectNotFound
	}
	for _, templateID := range taskTemplateIDs {
		template, err := s.templateRepo.GetTaskTemplateByID(ctx, templateID)
		if err != nil {
			return err
		}
		if template == nil {
			return system.ErrObjectNotFound
		}
	}
	return s.workflowRepo.ReplaceWorkflowTasks(ctx, workflowID, taskTemplateIDs)
}

// DeleteWorkflow 删除工作流定义并清理其权限记录
func (s *CatalogService) DeleteWorkflow(ctx context.Context, id uint64, groupIDs []uint64) error {
	if err := s.permService.RequireWrite(ctx, model.ObjectTypeWorkflow, id, groupIDs); err != nil {
		return err
	}
	if err := s.workflowRepo.DeleteWorkflow(ctx, id); err != nil {
		return err
	}
	return s.permService.DeleteObjectPermissions(ctx, model.ObjectTypeWorkflow, id)
}

// CreateTaskTemplate 创建任务模板
func (s *CatalogService) CreateTaskTemplate(ctx context.Context, template *catalogModel.TaskTemplate, creatorID uint64, creatorGroupIDs []uint64) error {
	if template == nil || template.Name == "" {
		return system.NewValidationError("任务模板名称不能为空")
	}
	template.CreatedBy = creatorID
	if err := s.templateRepo.CreateTaskTemplate(ctx, template); err != nil {
		return fmt.Errorf("创建任务模板失败: %w", err)
	}
	return s.grantCreatorAccess(ctx, model.ObjectTypeTaskTemplate, template.ID, creatorID, creatorGroupIDs)
}

// GetTaskTemplate 获取任务模板，预加载全部字段定义
func (s *CatalogService) GetTaskTemplate(ctx context.Context, id uint64, groupIDs []uint64) (*catalogModel.TaskTemplate, error) {
	if err := s.permService.RequireRead(ctx, model.ObjectTypeTaskTemplate, id, groupIDs); err != nil {
		return nil, err
	}
	template, err := s.templateRepo.GetTaskTemplateByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, system.ErrObjectNotFound
	}
	return template, nil
}

// GetTaskTemplateList 分页获取任务模板列表，仅返回有读权限的条目
func (s *CatalogService) GetTaskTemplateList(ctx context.Context, page, pageSize int, keyword *string, groupIDs []uint64) ([]*catalogModel.TaskTemplate, int64, error) {
	offset := (page - 1) * pageSize
	templates, total, err := s.templateRepo.GetTaskTemplateList(ctx, offset, pageSize, keyword)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uint64, 0, len(templates))
	for _, t := range templates {
		ids = append(ids, t.ID)
	}
	readable, err := s.permService.FilterReadable(ctx, model.ObjectTypeTaskTemplate, ids, groupIDs)
	if err != nil {
		return nil, 0, err
	}
	readableSet := make(map[uint64]struct{}, len(readable))
	for _, id := range readable {
		readableSet[id] = struct{}{}
	}
	visible := make([]*catalogModel.TaskTemplate, 0, len(readable))
	for _, t := range templates {
		if _, ok := readableSet[t.ID]; ok {
			visible = append(visible, t)
		}
	}
	return visible, total, nil
}

// UpdateTaskTemplate 更新任务模板基础信息
func (s *CatalogService) UpdateTaskTemplate(ctx context.Context, template *catalogModel.TaskTemplate, groupIDs []uint64) error {
	if template == nil || template.ID == 0 {
		return system.NewValidationError("任务模板ID不能为空")
	}
	if err := s.permService.RequireWrite(ctx, model.ObjectTypeTaskTemplate, template.ID, groupIDs); err != nil {
		return err
	}
	return s.templateRepo.UpdateTaskTemplate(ctx, template)
}

// DeleteTaskTemplate 删除任务模板及其字段定义、权限记录
func (s *CatalogService) DeleteTaskTemplate(ctx context.Context, id uint64, groupIDs []uint64) error {
	if err := s.permService.RequireWrite(ctx, model.ObjectTypeTaskTemplate, id, groupIDs); err != nil {
		return err
	}
	if err := s.templateRepo.DeleteTaskTemplate(ctx, id); err != nil {
		return err
	}
	return s.permService.DeleteObjectPermissions(ctx, model.ObjectTypeTaskTemplate, id)
}

// grantCreatorAccess 向创建者所属的所有用户组授予对象读写权限
func (s *CatalogService) grantCreatorAccess(ctx context.Context, objectType model.ObjectType, objectID, creatorID uint64, groupIDs []uint64) error {
	for _, groupID := range groupIDs {
		if err := s.permService.AssignPermissions(ctx, objectType, objectID, groupID, true, true, creatorID); err != nil {
			return fmt.Errorf("授予创建者权限失败: %w", err)
		}
	}
	return nil
}

// filterWorkflows 按读权限过滤工作流列表，保持原始顺序
func (s *CatalogService) filterWorkflows(ctx context.Context, workflows []*catalogModel.Workflow, groupIDs []uint64) ([]*catalogModel.Workflow, error) {
	ids := make([]uint64, 0, len(workflows))
	for _, w := range workflows {
		ids = append(ids, w.ID)
	}
	readable, err := s.permService.FilterReadable(ctx, model.ObjectTypeWorkflow, ids, groupIDs)
	if err != nil {
		return nil, err
	}
	readableSet := make(map[uint64]struct{}, len(readable))
	for _, id := range readable {
		readableSet[id] = struct{}{}
	}
	visible := make([]*catalogModel.Workflow, 0, len(readable))
	for _, w := range workflows {
		if _, ok := readableSet[w.ID]; ok {
			visible = append(visible, w)
		}
	}
	return visible, nil
}
