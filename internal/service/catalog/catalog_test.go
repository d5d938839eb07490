package catalog

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"labmaster/internal/model"
	catalogModel "labmaster/internal/model/catalog"
	"labmaster/internal/model/system"
	catalogRepo "labmaster/internal/repo/mysql/catalog"
	sysRepo "labmaster/internal/repo/mysql/system"
	"labmaster/internal/service/auth"
)

func newCatalogTestService(t *testing.T) (*CatalogService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Group{},
		&model.ObjectPermission{},
		&catalogModel.TaskTemplate{},
		&catalogModel.InputFieldTemplate{},
		&catalogModel.VariableFieldTemplate{},
		&catalogModel.OutputFieldTemplate{},
		&catalogModel.StepFieldTemplate{},
		&catalogModel.StepFieldProperty{},
		&catalogModel.CalculationFieldTemplate{},
		&catalogModel.Workflow{},
		&catalogModel.WorkflowTask{},
	))

	permService := auth.NewPermissionService(
		sysRepo.NewObjectPermissionRepository(db),
		sysRepo.NewGroupRepository(db),
	)
	return NewCatalogService(
		catalogRepo.NewWorkflowRepository(db),
		catalogRepo.NewTaskTemplateRepository(db),
		permService,
	), db
}

func seedCatalogGroup(t *testing.T, db *gorm.DB, name string) *model.Group {
	t.Helper()
	group := &model.Group{Name: name, Status: 1}
	require.NoError(t, db.Create(group).Error)
	return group
}

func seedTemplate(t *testing.T, svc *CatalogService, name string, groupIDs []uint64) *catalogModel.TaskTemplate {
	t.Helper()
	template := &catalogModel.TaskTemplate{Name: name}
	require.NoError(t, svc.CreateTaskTemplate(context.Background(), template, 1, groupIDs))
	return template
}

func TestCreateWorkflowGrantsCreatorGroups(t *testing.T) {
	svc, db := newCatalogTestService(t)
	ctx := context.Background()
	creators := seedCatalogGroup(t, db, "creators")
	outsiders := seedCatalogGroup(t, db, "outsiders")

	workflow := &catalogModel.Workflow{Name: "dna pipeline"}
	require.NoError(t, svc.CreateWorkflow(ctx, workflow, 1, []uint64{creators.ID}))

	// 创建者所属组可见
	got, err := svc.GetWorkflow(ctx, workflow.ID, []uint64{creators.ID})
	require.NoError(t, err)
	assert.Equal(t, "dna pipeline", got.Name)
	assert.Equal(t, uint64(1), got.CreatedBy)

	// 无权限的组与不存在不可区分
	_, err = svc.GetWorkflow(ctx, workflow.ID, []uint64{outsiders.ID})
	assert.ErrorIs(t, err, system.ErrObjectNotFound)

	// 名称重复
	err = svc.CreateWorkflow(ctx, &catalogModel.Workflow{Name: "dna pipeline"}, 1, []uint64{creators.ID})
	assert.True(t, system.IsValidationError(err))
}

func TestUpdateWorkflowTasksReplacesSequence(t *testing.T) {
	svc, db := newCatalogTestService(t)
	ctx := context.Background()
	group := seedCatalogGroup(t, db, "lab")
	groupIDs := []uint64{group.ID}

	extraction := seedTemplate(t, svc, "extraction", groupIDs)
	quantify := seedTemplate(t, svc, "quantification", groupIDs)

	workflow := &catalogModel.Workflow{Name: "pipeline"}
	require.NoError(t, svc.CreateWorkflow(ctx, workflow, 1, groupIDs))

	require.NoError(t, svc.UpdateWorkflowTasks(ctx, workflow.ID, []uint64{extraction.ID, quantify.ID}, groupIDs))

	got, err := svc.GetWorkflow(ctx, workflow.ID, groupIDs)
	require.NoError(t, err)
	require.Len(t, got.Tasks, 2)
	assert.Equal(t, extraction.ID, got.Tasks[0].TaskTemplateID)
	assert.Equal(t, 0, got.Tasks[0].Position)
	assert.Equal(t, quantify.ID, got.Tasks[1].TaskTemplateID)
	assert.Equal(t, 1, got.Tasks[1].Position)

	// 整体替换：旧序列被新序列覆盖
	require.NoError(t, svc.UpdateWorkflowTasks(ctx, workflow.ID, []uint64{quantify.ID}, groupIDs))
	got, err = svc.GetWorkflow(ctx, workflow.ID, groupIDs)
	require.NoError(t, err)
	require.Len(t, got.Tasks, 1)
	assert.Equal(t, quantify.ID, got.Tasks[0].TaskTemplateID)

	// 引用不存在的任务模板
	err = svc.UpdateWorkflowTasks(ctx, workflow.ID, []uint64{99999}, groupIDs)
	assert.ErrorIs(t, err, system.ErrObjectNotFound)
}

func TestWorkflowListFiltersByReadPermission(t *testing.T) {
	svc, db := newCatalogTestService(t)
	ctx := context.Background()
	groupA := seedCatalogGroup(t, db, "group-a")
	groupB := seedCatalogGroup(t, db, "group-b")

	require.NoError(t, svc.CreateWorkflow(ctx, &catalogModel.Workflow{Name: "wf-a"}, 1, []uint64{groupA.ID}))
	require.NoError(t, svc.CreateWorkflow(ctx, &catalogModel.Workflow{Name: "wf-b"}, 2, []uint64{groupB.ID}))

	visible, total, err := svc.GetWorkflowList(ctx, 1, 10, nil, []uint64{groupA.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, visible, 1)
	assert.Equal(t, "wf-a", visible[0].Name)
}

func TestDeleteTaskTemplateCleansPermissions(t *testing.T) {
	svc, db := newCatalogTestService(t)
	ctx := context.Background()
	group := seedCatalogGroup(t, db, "cleanup")
	groupIDs := []uint64{group.ID}

	template := seedTemplate(t, svc, "obsolete", groupIDs)
	require.NoError(t, svc.DeleteTaskTemplate(ctx, template.ID, groupIDs))

	_, err := svc.GetTaskTemplate(ctx, template.ID, groupIDs)
	assert.ErrorIs(t, err, system.ErrObjectNotFound)

	// 只读权限不允许删除
	readonly := seedCatalogGroup(t, db, "readonly")
	other := seedTemplate(t, svc, "guarded", groupIDs)
	require.NoError(t, db.Create(&model.ObjectPermission{
		ObjectType: model.ObjectTypeTaskTemplate,
		ObjectID:   other.ID,
		GroupID:    readonly.ID,
		CanRead:    true,
		GrantedBy:  1,
	}).Error)
	err = svc.DeleteTaskTemplate(ctx, other.ID, []uint64{readonly.ID})
	assert.ErrorIs(t, err, system.ErrPermissionDenied)
}
