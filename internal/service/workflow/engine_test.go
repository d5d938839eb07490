package workflow

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"labmaster/internal/model/catalog"
	invModel "labmaster/internal/model/inventory"
	"labmaster/internal/model/system"
	wfModel "labmaster/internal/model/workflow"
	"labmaster/internal/pkg/calc"
	"labmaster/internal/pkg/measure"
	catalogRepo "labmaster/internal/repo/mysql/catalog"
	invRepo "labmaster/internal/repo/mysql/inventory"
	wfRepo "labmaster/internal/repo/mysql/workflow"
	invService "labmaster/internal/service/inventory"
)

type engineTestEnv struct {
	db     *gorm.DB
	engine *EngineService
}

func newEngineTestEnv(t *testing.T) *engineTestEnv {
	t.Helper()
	// 内存SQLite在连接池中每个连接都是独立数据库，改用临时文件数据库
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "engine_test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&invModel.ItemType{},
		&invModel.Location{},
		&invModel.Item{},
		&invModel.ItemTransfer{},
		&catalog.TaskTemplate{},
		&catalog.InputFieldTemplate{},
		&catalog.VariableFieldTemplate{},
		&catalog.OutputFieldTemplate{},
		&catalog.StepFieldTemplate{},
		&catalog.StepFieldProperty{},
		&catalog.CalculationFieldTemplate{},
		&catalog.Workflow{},
		&catalog.WorkflowTask{},
		&wfModel.Product{},
		&wfModel.ActiveWorkflow{},
		&wfModel.WorkflowProduct{},
		&wfModel.DataEntry{},
	))

	itemRepo := invRepo.NewItemRepository(db)
	transferRepo := invRepo.NewTransferRepository(db)
	ledger := invService.NewLedgerService(itemRepo, transferRepo, measure.NewDefaultRegistry())

	engine := NewEngineService(
		db,
		itemRepo,
		transferRepo,
		catalogRepo.NewTaskTemplateRepository(db),
		catalogRepo.NewWorkflowRepository(db),
		wfRepo.NewActiveWorkflowRepository(db),
		wfRepo.NewWorkflowProductRepository(db),
		wfRepo.NewDataEntryRepository(db),
		wfRepo.NewProductRepository(db),
		ledger,
		calc.NewEvaluator(),
	)
	return &engineTestEnv{db: db, engine: engine}
}

func (e *engineTestEnv) seedItem(t *testing.T, identifier, name string, amount float64, measureSymbol string) *invModel.Item {
	t.Helper()
	item := &invModel.Item{
		Identifier:      identifier,
		Name:            name,
		AmountAvailable: amount,
		AmountMeasure:   measureSymbol,
	}
	require.NoError(t, e.db.Create(item).Error)
	return item
}

func (e *engineTestEnv) seedProduct(t *testing.T, identifier, name string, linkedItemID uint64) *wfModel.Product {
	t.Helper()
	product := &wfModel.Product{
		Identifier:   identifier,
		Name:         name,
		LinkedItemID: linkedItemID,
	}
	require.NoError(t, e.db.Create(product).Error)
	return product
}

func (e *engineTestEnv) seedTemplate(t *testing.T, name string) *catalog.TaskTemplate {
	t.Helper()
	template := &catalog.TaskTemplate{Name: name}
	require.NoError(t, e.db.Create(template).Error)
	return template
}

// seedWorkflow 按顺序挂接任务模板
func (e *engineTestEnv) seedWorkflow(t *testing.T, name string, templates ...*catalog.TaskTemplate) *catalog.Workflow {
	t.Helper()
	workflow := &catalog.Workflow{Name: name}
	require.NoError(t, e.db.Create(workflow).Error)
	for i, template := range templates {
		task := &catalog.WorkflowTask{
			WorkflowID:     workflow.ID,
			TaskTemplateID: template.ID,
			Position:       i,
		}
		require.NoError(t, e.db.Create(task).Error)
	}
	return workflow
}

func (e *engineTestEnv) itemAmount(t *testing.T, id uint64) float64 {
	t.Helper()
	var item invModel.Item
	require.NoError(t, e.db.First(&item, id).Error)
	return item.AmountAvailable
}

func singleInputTask(templateID uint64, identifier string, amount float64, measureSymbol string) wfModel.TaskValues {
	return wfModel.TaskValues{
		TaskTemplateID: templateID,
		Name:           "aliquot buffer",
		InputFields: []wfModel.InputFieldValue{
			{Label: "buffer", Amount: amount, Measure: measureSymbol, InventoryIdentifier: identifier},
		},
	}
}

func TestStartTaskDeductsAndTracks(t *testing.T) {
	env := newEngineTestEnv(t)
	ctx := context.Background()

	i1 := env.seedItem(t, "i1", "item_1", 10, "ml")
	p1 := env.seedProduct(t, "p1", "sample one", 0)
	template := env.seedTemplate(t, "aliquot")
	env.seedWorkflow(t, "wf-basic", template)

	workflow, err := catalogRepo.NewWorkflowRepository(env.db).GetWorkflowByName(ctx, "wf-basic")
	require.NoError(t, err)
	aw, err := env.engine.CreateActiveWorkflow(ctx, workflow.ID, []uint64{p1.ID}, 1)
	require.NoError(t, err)

	resp, err := env.engine.StartTask(ctx, aw.ID, &wfModel.StartTaskRequest{
		Task:       singleInputTask(template.ID, "i1", 2.0, "ml"),
		ProductIDs: []uint64{p1.ID},
	}, 1)
	require.NoError(t, err)
	require.NotEmpty(t, resp.RunIdentifier)
	require.Len(t, resp.Transfers, 1)
	assert.InDelta(t, 2.0, resp.Transfers[0].Amount, 1e-9)

	// 库存按换算后的量扣减
	assert.InDelta(t, 8.0, env.itemAmount(t, i1.ID), 1e-9)

	// 一条未终结的扣减转移，携带同一执行关联ID
	var transfers []invModel.ItemTransfer
	require.NoError(t, env.db.Where("item_id = ?", i1.ID).Find(&transfers).Error)
	require.Len(t, transfers, 1)
	assert.False(t, transfers[0].IsAddition)
	assert.False(t, transfers[0].TransferComplete)
	assert.Equal(t, resp.RunIdentifier, transfers[0].RunIdentifier)

	// 审计记录落为active态，等待终结升级
	var entry wfModel.DataEntry
	require.NoError(t, env.db.Where("product_id = ?", p1.ID).First(&entry).Error)
	assert.Equal(t, wfModel.DataEntryStateActive, entry.State)
	assert.Equal(t, resp.RunIdentifier, entry.RunIdentifier)

	// 游标进入进行中态
	var wp wfModel.WorkflowProduct
	require.NoError(t, env.db.Where("product_id = ?", p1.ID).First(&wp).Error)
	assert.True(t, wp.TaskInProgress)
	assert.Equal(t, resp.RunIdentifier, wp.RunIdentifier)
}

func TestStartTaskShortfallAbortsEverything(t *testing.T) {
	env := newEngineTestEnv(t)
	ctx := context.Background()

	i1 := env.seedItem(t, "i1", "item_1", 10, "ml")
	i3 := env.seedItem(t, "i3", "item_3", 30, "ml")
	p1 := env.seedProduct(t, "p1", "sample one", 0)
	template := env.seedTemplate(t, "mix")
	wf := env.seedWorkflow(t, "wf-short", template)

	aw, err := env.engine.CreateActiveWorkflow(ctx, wf.ID, []uint64{p1.ID}, 1)
	require.NoError(t, err)

	task := wfModel.TaskValues{
		TaskTemplateID: template.ID,
		InputFields: []wfModel.InputFieldValue{
			{Label: "base", Amount: 5, Measure: "ml", InventoryIdentifier: "i1"},
			{Label: "reagent", Amount: 99, Measure: "ml", InventoryIdentifier: "i3"},
		},
	}
	_, err = env.engine.StartTask(ctx, aw.ID, &wfModel.StartTaskRequest{
		Task:       task,
		ProductIDs: []uint64{p1.ID},
	}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, system.ErrInsufficientStock)
	assert.EqualError(t, err, "Inventory item i3 (item_3) is short of amount by 69.0 milliliter")

	// 全量回滚：第一个充足的物品也不能留下扣减
	assert.InDelta(t, 10.0, env.itemAmount(t, i1.ID), 1e-9)
	assert.InDelta(t, 30.0, env.itemAmount(t, i3.ID), 1e-9)

	var transferCount, entryCount int64
	require.NoError(t, env.db.Model(&invModel.ItemTransfer{}).Count(&transferCount).Error)
	require.NoError(t, env.db.Model(&wfModel.DataEntry{}).Count(&entryCount).Error)
	assert.Zero(t, transferCount)
	assert.Zero(t, entryCount)

	var wp wfModel.WorkflowProduct
	require.NoError(t, env.db.Where("product_id = ?", p1.ID).First(&wp).Error)
	assert.True(t, wp.Idle())
}

func TestStartTaskPreviewIsIdempotent(t *testing.T) {
	env := newEngineTestEnv(t)
	ctx := context.Background()

	i1 := env.seedItem(t, "i1", "item_1", 10, "ml")
	p1 := env.seedProduct(t, "p1", "sample one", 0)
	template := env.seedTemplate(t, "aliquot")
	wf := env.seedWorkflow(t, "wf-preview", template)

	aw, err := env.engine.CreateActiveWorkflow(ctx, wf.ID, []uint64{p1.ID}, 1)
	require.NoError(t, err)

	req := &wfModel.StartTaskRequest{
		Task:       singleInputTask(template.ID, "i1", 2.0, "ml"),
		ProductIDs: []uint64{p1.ID},
		IsPreview:  true,
	}

	var first []wfModel.PlannedTransfer
	for i := 0; i < 3; i++ {
		resp, err := env.engine.StartTask(ctx, aw.ID, req, 1)
		require.NoError(t, err)
		assert.Empty(t, resp.RunIdentifier)
		if first == nil {
			first = resp.Transfers
		} else {
			assert.Equal(t, first, resp.Transfers)
		}
	}

	// 预演不落任何变更
	assert.InDelta(t, 10.0, env.itemAmount(t, i1.ID), 1e-9)
	var entryCount int64
	require.NoError(t, env.db.Model(&wfModel.DataEntry{}).Count(&entryCount).Error)
	assert.Zero(t, entryCount)

	var wp wfModel.WorkflowProduct
	require.NoError(t, env.db.Where("product_id = ?", p1.ID).First(&wp).Error)
	assert.True(t, wp.Idle())
}

func TestTaskStatusLifecycle(t *testing.T) {
	env := newEngineTestEnv(t)
	ctx := context.Background()

	env.seedItem(t, "i1", "item_1", 10, "ml")
	p1 := env.seedProduct(t, "p1", "sample one", 0)
	template := env.seedTemplate(t, "aliquot")
	next := env.seedTemplate(t, "elution")
	wf := env.seedWorkflow(t, "wf-status", template, next)

	aw, err := env.engine.CreateActiveWorkflow(ctx, wf.ID, []uint64{p1.ID}, 1)
	require.NoError(t, err)

	resp, err := env.engine.StartTask(ctx, aw.ID, &wfModel.StartTaskRequest{
		Task:       singleInputTask(template.ID, "i1", 2.0, "ml"),
		ProductIDs: []uint64{p1.ID},
	}, 1)
	require.NoError(t, err)

	// 进行中：返回产品分组的展示数据
	status, err := env.engine.TaskStatus(ctx, aw.ID, resp.RunIdentifier, 0)
	require.NoError(t, err)
	require.Contains(t, status.Items, "p1")
	require.NotEmpty(t, status.Items["p1"])
	assert.Equal(t, "sample one", status.Items["p1"][0].ProductName)
	assert.NotEmpty(t, status.Items["p1"][0].Fields)

	// 未知执行ID：无效请求
	_, err = env.engine.TaskStatus(ctx, aw.ID, "no-such-run", 0)
	assert.ErrorIs(t, err, system.ErrInvalidRequest)

	// 终结后：对象已消亡
	_, err = env.engine.CompleteTask(ctx, aw.ID, template.ID, []uint64{p1.ID}, 1)
	require.NoError(t, err)
	_, err = env.engine.TaskStatus(ctx, aw.ID, resp.RunIdentifier, 0)
	assert.ErrorIs(t, err, system.ErrObjectGone)
}

func TestCompleteTaskAdvancesCursor(t *testing.T) {
	env := newEngineTestEnv(t)
	ctx := context.Background()

	env.seedItem(t, "i1", "item_1", 10, "ml")
	p1 := env.seedProduct(t, "p1", "sample one", 0)
	t0 := env.seedTemplate(t, "first step")
	t1 := env.seedTemplate(t, "second step")
	wf := env.seedWorkflow(t, "wf-two", t0, t1)

	aw, err := env.engine.CreateActiveWorkflow(ctx, wf.ID, []uint64{p1.ID}, 1)
	require.NoError(t, err)

	resp, err := env.engine.StartTask(ctx, aw.ID, &wfModel.StartTaskRequest{
		Task:       singleInputTask(t0.ID, "i1", 2.0, "ml"),
		ProductIDs: []uint64{p1.ID},
	}, 1)
	require.NoError(t, err)

	_, err = env.engine.CompleteTask(ctx, aw.ID, t0.ID, []uint64{p1.ID}, 1)
	require.NoError(t, err)

	// 游标推进一格并复位为空闲
	var wp wfModel.WorkflowProduct
	require.NoError(t, env.db.Where("product_id = ?", p1.ID).First(&wp).Error)
	assert.Equal(t, 1, wp.CurrentTask)
	assert.True(t, wp.Idle())

	// 扣减预占随完成终结
	var transfers []invModel.ItemTransfer
	require.NoError(t, env.db.Where("run_identifier = ?", resp.RunIdentifier).Find(&transfers).Error)
	require.NotEmpty(t, transfers)
	for _, transfer := range transfers {
		assert.True(t, transfer.TransferComplete)
	}

	// 审计记录升级为成功终态
	var entry wfModel.DataEntry
	require.NoError(t, env.db.Where("product_id = ?", p1.ID).First(&entry).Error)
	assert.Equal(t, wfModel.DataEntryStateSucceeded, entry.State)
}

func TestCompleteLastTaskDeletesProductAndWorkflow(t *testing.T) {
	env := newEngineTestEnv(t)
	ctx := context.Background()

	i1 := env.seedItem(t, "i1", "item_1", 10, "ml")
	p1 := env.seedProduct(t, "p1", "sample one", 0)
	itemType := &invModel.ItemType{Name: "plasmid prep"}
	require.NoError(t, env.db.Create(itemType).Error)

	template := env.seedTemplate(t, "prep")
	wf := env.seedWorkflow(t, "wf-final", template)

	aw, err := env.engine.CreateActiveWorkflow(ctx, wf.ID, []uint64{p1.ID}, 1)
	require.NoError(t, err)

	task := singleInputTask(template.ID, "i1", 2.0, "ml")
	task.OutputFields = []wfModel.OutputFieldValue{
		{Label: "prep", Amount: 50, Measure: "ul", ItemTypeID: itemType.ID},
	}
	_, err = env.engine.StartTask(ctx, aw.ID, &wfModel.StartTaskRequest{
		Task:       task,
		ProductIDs: []uint64{p1.ID},
	}, 1)
	require.NoError(t, err)

	_, err = env.engine.CompleteTask(ctx, aw.ID, template.ID, []uint64{p1.ID}, 1)
	require.NoError(t, err)

	// 最后一个任务完成：游标与空实例一起删除
	var wpCount, awCount int64
	require.NoError(t, env.db.Model(&wfModel.WorkflowProduct{}).Count(&wpCount).Error)
	require.NoError(t, env.db.Model(&wfModel.ActiveWorkflow{}).Count(&awCount).Error)
	assert.Zero(t, wpCount)
	assert.Zero(t, awCount)

	// 产出物品命名为 "<产品编号> <物品类型名>"，溯源指向消耗的输入
	var output invModel.Item
	require.NoError(t, env.db.Preload("CreatedFrom").
		Where("name = ?", "p1 plasmid prep").First(&output).Error)
	assert.InDelta(t, 50.0, output.AmountAvailable, 1e-9)
	assert.Equal(t, "ul", output.AmountMeasure)
	require.Len(t, output.CreatedFrom, 1)
	assert.Equal(t, i1.ID, output.CreatedFrom[0].ID)
}

func TestRetryTaskResetsCursorWithoutRestore(t *testing.T) {
	env := newEngineTestEnv(t)
	ctx := context.Background()

	i1 := env.seedItem(t, "i1", "item_1", 10, "ml")
	p1 := env.seedProduct(t, "p1", "sample one", 0)
	t0 := env.seedTemplate(t, "first step")
	t1 := env.seedTemplate(t, "second step")
	wf := env.seedWorkflow(t, "wf-retry", t0, t1)

	aw, err := env.engine.CreateActiveWorkflow(ctx, wf.ID, []uint64{p1.ID}, 1)
	require.NoError(t, err)

	// 完成第一个任务推进到任务1
	_, err = env.engine.StartTask(ctx, aw.ID, &wfModel.StartTaskRequest{
		Task:       singleInputTask(t0.ID, "i1", 2.0, "ml"),
		ProductIDs: []uint64{p1.ID},
	}, 1)
	require.NoError(t, err)
	_, err = env.engine.CompleteTask(ctx, aw.ID, t0.ID, []uint64{p1.ID}, 1)
	require.NoError(t, err)

	// 任务1失败重试
	_, err = env.engine.StartTask(ctx, aw.ID, &wfModel.StartTaskRequest{
		Task:       singleInputTask(t1.ID, "i1", 3.0, "ml"),
		ProductIDs: []uint64{p1.ID},
	}, 1)
	require.NoError(t, err)
	_, err = env.engine.RetryTask(ctx, aw.ID, t1.ID, []uint64{p1.ID}, 1)
	require.NoError(t, err)

	// 游标重置回起点而非回退一格
	var wp wfModel.WorkflowProduct
	require.NoError(t, env.db.Where("product_id = ?", p1.ID).First(&wp).Error)
	assert.Equal(t, 0, wp.CurrentTask)
	assert.True(t, wp.Idle())

	// 已消耗的量不恢复：10 - 2 - 3
	assert.InDelta(t, 5.0, env.itemAmount(t, i1.ID), 1e-9)

	// 审计状态为失败
	var entries []wfModel.DataEntry
	require.NoError(t, env.db.Where("product_id = ? AND task_template_id = ?", p1.ID, t1.ID).
		Order("id ASC").Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, wfModel.DataEntryStateFailed, entries[0].State)

	// 同一任务再次失败：重复尝试终态
	_, err = env.engine.StartTask(ctx, aw.ID, &wfModel.StartTaskRequest{
		Task:       singleInputTask(t0.ID, "i1", 1.0, "ml"),
		ProductIDs: []uint64{p1.ID},
	}, 1)
	require.NoError(t, err)
	_, err = env.engine.CompleteTask(ctx, aw.ID, t0.ID, []uint64{p1.ID}, 1)
	require.NoError(t, err)

	_, err = env.engine.StartTask(ctx, aw.ID, &wfModel.StartTaskRequest{
		Task:       singleInputTask(t1.ID, "i1", 1.0, "ml"),
		ProductIDs: []uint64{p1.ID},
	}, 1)
	require.NoError(t, err)
	_, err = env.engine.RetryTask(ctx, aw.ID, t1.ID, []uint64{p1.ID}, 1)
	require.NoError(t, err)

	require.NoError(t, env.db.Where("product_id = ? AND task_template_id = ?", p1.ID, t1.ID).
		Order("id ASC").Find(&entries).Error)
	require.Len(t, entries, 2)
	assert.Equal(t, wfModel.DataEntryStateRepeatFailed, entries[1].State)
}

func TestCalculationFeedsInputField(t *testing.T) {
	env := newEngineTestEnv(t)
	ctx := context.Background()

	i1 := env.seedItem(t, "i1", "item_1", 100, "ml")
	p1 := env.seedProduct(t, "p1", "sample one", 0)
	template := env.seedTemplate(t, "scaled mix")
	wf := env.seedWorkflow(t, "wf-calc", template)

	aw, err := env.engine.CreateActiveWorkflow(ctx, wf.ID, []uint64{p1.ID}, 1)
	require.NoError(t, err)

	task := wfModel.TaskValues{
		TaskTemplateID: template.ID,
		VariableFields: []wfModel.VariableFieldValue{
			{Label: "volume", Amount: 2},
			{Label: "count", Amount: 3},
		},
		CalculationFields: []wfModel.CalculationFieldValue{
			{Label: "total", Calculation: "{volume} * {count}"},
		},
		InputFields: []wfModel.InputFieldValue{
			{Label: "mix", Measure: "ml", InventoryIdentifier: "i1", FromCalculation: true, CalculationUsed: "total"},
		},
	}
	resp, err := env.engine.StartTask(ctx, aw.ID, &wfModel.StartTaskRequest{
		Task:       task,
		ProductIDs: []uint64{p1.ID},
	}, 1)
	require.NoError(t, err)

	// 计算结果 2*3=6 作为输入字段的扣减量
	require.Len(t, resp.Transfers, 1)
	assert.InDelta(t, 6.0, resp.Transfers[0].Amount, 1e-9)
	assert.InDelta(t, 94.0, env.itemAmount(t, i1.ID), 1e-9)
}

func TestProductInputDeductsLinkedItem(t *testing.T) {
	env := newEngineTestEnv(t)
	ctx := context.Background()

	linked := env.seedItem(t, "i9", "sample stock", 20, "ul")
	p1 := env.seedProduct(t, "p1", "sample one", linked.ID)

	template := &catalog.TaskTemplate{
		Name:                "consume sample",
		ProductInput:        true,
		ProductInputAmount:  5,
		ProductInputMeasure: "ul",
	}
	require.NoError(t, env.db.Create(template).Error)
	wf := env.seedWorkflow(t, "wf-product-input", template)

	aw, err := env.engine.CreateActiveWorkflow(ctx, wf.ID, []uint64{p1.ID}, 1)
	require.NoError(t, err)

	_, err = env.engine.StartTask(ctx, aw.ID, &wfModel.StartTaskRequest{
		Task:       wfModel.TaskValues{TaskTemplateID: template.ID},
		ProductIDs: []uint64{p1.ID},
	}, 1)
	require.NoError(t, err)

	assert.InDelta(t, 15.0, env.itemAmount(t, linked.ID), 1e-9)
}

func TestAddRemoveProduct(t *testing.T) {
	env := newEngineTestEnv(t)
	ctx := context.Background()

	p1 := env.seedProduct(t, "p1", "sample one", 0)
	p2 := env.seedProduct(t, "p2", "sample two", 0)
	template := env.seedTemplate(t, "step")
	wf := env.seedWorkflow(t, "wf-members", template)

	aw, err := env.engine.CreateActiveWorkflow(ctx, wf.ID, []uint64{p1.ID}, 1)
	require.NoError(t, err)

	require.NoError(t, env.engine.AddProduct(ctx, aw.ID, p2.ID))

	// 产品同一时间只能在一个运行实例中
	err = env.engine.AddProduct(ctx, aw.ID, p2.ID)
	assert.ErrorIs(t, err, system.ErrProductInWorkflow)

	var wps []wfModel.WorkflowProduct
	require.NoError(t, env.db.Where("active_workflow_id = ?", aw.ID).Find(&wps).Error)
	require.Len(t, wps, 2)

	// 移除一个成员：实例仍在
	require.NoError(t, env.engine.RemoveProduct(ctx, aw.ID, wps[0].ID))
	var awCount int64
	require.NoError(t, env.db.Model(&wfModel.ActiveWorkflow{}).Count(&awCount).Error)
	assert.EqualValues(t, 1, awCount)

	// 移除最后一个成员：实例随之删除
	require.NoError(t, env.engine.RemoveProduct(ctx, aw.ID, wps[1].ID))
	require.NoError(t, env.db.Model(&wfModel.ActiveWorkflow{}).Count(&awCount).Error)
	assert.Zero(t, awCount)
}

func TestSwitchWorkflowKeepsCursor(t *testing.T) {
	env := newEngineTestEnv(t)
	ctx := context.Background()

	env.seedItem(t, "i1", "item_1", 10, "ml")
	p1 := env.seedProduct(t, "p1", "sample one", 0)
	t0 := env.seedTemplate(t, "first step")
	t1 := env.seedTemplate(t, "second step")
	wfSource := env.seedWorkflow(t, "wf-source", t0, t1)
	wfTarget := env.seedWorkflow(t, "wf-target", t1)

	aw, err := env.engine.CreateActiveWorkflow(ctx, wfSource.ID, []uint64{p1.ID}, 1)
	require.NoError(t, err)

	// 推进到任务1后切换
	_, err = env.engine.StartTask(ctx, aw.ID, &wfModel.StartTaskRequest{
		Task:       singleInputTask(t0.ID, "i1", 1.0, "ml"),
		ProductIDs: []uint64{p1.ID},
	}, 1)
	require.NoError(t, err)
	_, err = env.engine.CompleteTask(ctx, aw.ID, t0.ID, []uint64{p1.ID}, 1)
	require.NoError(t, err)

	var wp wfModel.WorkflowProduct
	require.NoError(t, env.db.Where("product_id = ?", p1.ID).First(&wp).Error)
	require.Equal(t, 1, wp.CurrentTask)

	require.NoError(t, env.engine.SwitchWorkflow(ctx, aw.ID, &wfModel.SwitchWorkflowRequest{
		WorkflowProductID: wp.ID,
		TargetWorkflowID:  wfTarget.ID,
	}))

	// 游标跟随产品进入新实例，序号保持不变
	require.NoError(t, env.db.Where("product_id = ?", p1.ID).First(&wp).Error)
	assert.Equal(t, 1, wp.CurrentTask)
	assert.NotEqual(t, aw.ID, wp.ActiveWorkflowID)

	// 源实例变空后删除
	var sourceCount int64
	require.NoError(t, env.db.Model(&wfModel.ActiveWorkflow{}).
		Where("id = ?", aw.ID).Count(&sourceCount).Error)
	assert.Zero(t, sourceCount)

	// 目标二选一约束
	err = env.engine.SwitchWorkflow(ctx, wp.ActiveWorkflowID, &wfModel.SwitchWorkflowRequest{
		WorkflowProductID: wp.ID,
	})
	assert.ErrorIs(t, err, system.ErrInvalidRequest)
}

func TestStartTaskBatchSharesRunIdentifier(t *testing.T) {
	env := newEngineTestEnv(t)
	ctx := context.Background()

	i1 := env.seedItem(t, "i1", "item_1", 10, "ml")
	p1 := env.seedProduct(t, "p1", "sample one", 0)
	p2 := env.seedProduct(t, "p2", "sample two", 0)
	template := env.seedTemplate(t, "batch step")
	wf := env.seedWorkflow(t, "wf-batch", template)

	aw, err := env.engine.CreateActiveWorkflow(ctx, wf.ID, []uint64{p1.ID, p2.ID}, 1)
	require.NoError(t, err)

	resp, err := env.engine.StartTask(ctx, aw.ID, &wfModel.StartTaskRequest{
		Task:       singleInputTask(template.ID, "i1", 2.0, "ml"),
		ProductIDs: []uint64{p1.ID, p2.ID},
	}, 1)
	require.NoError(t, err)

	// 每个产品各消耗一份：10 - 2*2
	assert.InDelta(t, 6.0, env.itemAmount(t, i1.ID), 1e-9)

	// 同一批次的转移与审计共享同一个执行关联ID
	var transfers []invModel.ItemTransfer
	require.NoError(t, env.db.Find(&transfers).Error)
	require.Len(t, transfers, 2)
	for _, transfer := range transfers {
		assert.Equal(t, resp.RunIdentifier, transfer.RunIdentifier)
	}
	var entries []wfModel.DataEntry
	require.NoError(t, env.db.Find(&entries).Error)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, resp.RunIdentifier, entry.RunIdentifier)
	}
}

func TestStartTaskBatchCumulativeShortfall(t *testing.T) {
	env := newEngineTestEnv(t)
	ctx := context.Background()

	// 单个产品够用，两个产品累计不足
	i1 := env.seedItem(t, "i1", "item_1", 3, "ml")
	p1 := env.seedProduct(t, "p1", "sample one", 0)
	p2 := env.seedProduct(t, "p2", "sample two", 0)
	template := env.seedTemplate(t, "batch step")
	wf := env.seedWorkflow(t, "wf-batch-short", template)

	aw, err := env.engine.CreateActiveWorkflow(ctx, wf.ID, []uint64{p1.ID, p2.ID}, 1)
	require.NoError(t, err)

	_, err = env.engine.StartTask(ctx, aw.ID, &wfModel.StartTaskRequest{
		Task:       singleInputTask(template.ID, "i1", 2.0, "ml"),
		ProductIDs: []uint64{p1.ID, p2.ID},
	}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, system.ErrInsufficientStock)
	assert.InDelta(t, 3.0, env.itemAmount(t, i1.ID), 1e-9)
}

func TestEngineHooksFireAfterCommit(t *testing.T) {
	env := newEngineTestEnv(t)
	ctx := context.Background()

	env.seedItem(t, "i1", "item_1", 10, "ml")
	p1 := env.seedProduct(t, "p1", "sample one", 0)
	template := env.seedTemplate(t, "step")
	wf := env.seedWorkflow(t, "wf-hooks", template)

	var fired []string
	env.engine.RegisterHook(func(_ context.Context, event Event) {
		fired = append(fired, event.Operation)
	})

	aw, err := env.engine.CreateActiveWorkflow(ctx, wf.ID, []uint64{p1.ID}, 1)
	require.NoError(t, err)

	_, err = env.engine.StartTask(ctx, aw.ID, &wfModel.StartTaskRequest{
		Task:       singleInputTask(template.ID, "i1", 2.0, "ml"),
		ProductIDs: []uint64{p1.ID},
	}, 1)
	require.NoError(t, err)

	assert.Contains(t, fired, "create_active_workflow")
	assert.Contains(t, fired, "start_task")

	// 失败的操作不触发钩子
	before := len(fired)
	_, err = env.engine.StartTask(ctx, aw.ID, &wfModel.StartTaskRequest{
		Task:       singleInputTask(template.ID, "i1", 999, "ml"),
		ProductIDs: []uint64{p1.ID},
	}, 1)
	require.Error(t, err)
	assert.Len(t, fired, before)
}
