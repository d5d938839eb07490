/**
 * 工作流服务层:执行引擎
 * @author: sun977
 * @date: 2025.10.21
 * @description: 工作流执行状态机，沿任务序列推进产品，库存检查与扣减在同一事务内全量成功或全量回滚
 * @func: StartTask/TaskStatus/CompleteTask/RetryTask/AddProduct/RemoveProduct/SwitchWorkflow
 */
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"labmaster/internal/model/catalog"
	invModel "labmaster/internal/model/inventory"
	"labmaster/internal/model/system"
	wfModel "labmaster/internal/model/workflow"
	"labmaster/internal/pkg/calc"
	"labmaster/internal/pkg/logger"
	catalogRepo "labmaster/internal/repo/mysql/catalog"
	invRepo "labmaster/internal/repo/mysql/inventory"
	wfRepo "labmaster/internal/repo/mysql/workflow"
	invService "labmaster/internal/service/inventory"
)

// ShortfallError 库存不足错误
// 错误消息即面向调用方的完整提示，按第一个不足的物品生成
type ShortfallError struct {
	Message string
}

// Error 实现error接口
func (e *ShortfallError) Error() string {
	return e.Message
}

// Unwrap 映射到库存不足哨兵，处理层按哨兵归类为400
func (e *ShortfallError) Unwrap() error {
	return system.ErrInsufficientStock
}

// EngineService 工作流执行引擎
// 所有状态迁移在单个事务内执行，涉及的物品行先加写锁再检查扣减
type EngineService struct {
	db           *gorm.DB
	itemRepo     *invRepo.ItemRepository
	transferRepo *invRepo.TransferRepository
	templateRepo *catalogRepo.TaskTemplateRepository
	workflowRepo *catalogRepo.WorkflowRepository
	awRepo       *wfRepo.ActiveWorkflowRepository
	wpRepo       *wfRepo.WorkflowProductRepository
	entryRepo    *wfRepo.DataEntryRepository
	productRepo  *wfRepo.ProductRepository
	ledger       *invService.LedgerService
	evaluator    *calc.Evaluator
	hooks        []Hook
}

// NewEngineService 创建执行引擎实例
func NewEngineService(
	db *gorm.DB,
	itemRepo *invRepo.ItemRepository,
	transferRepo *invRepo.TransferRepository,
	templateRepo *catalogRepo.TaskTemplateRepository,
	workflowRepo *catalogRepo.WorkflowRepository,
	awRepo *wfRepo.ActiveWorkflowRepository,
	wpRepo *wfRepo.WorkflowProductRepository,
	entryRepo *wfRepo.DataEntryRepository,
	productRepo *wfRepo.ProductRepository,
	ledger *invService.LedgerService,
	evaluator *calc.Evaluator,
) *EngineService {
	return &EngineService{
		db:           db,
		itemRepo:     itemRepo,
		transferRepo: transferRepo,
		templateRepo: templateRepo,
		workflowRepo: workflowRepo,
		awRepo:       awRepo,
		wpRepo:       wpRepo,
		entryRepo:    entryRepo,
		productRepo:  productRepo,
		ledger:       ledger,
		evaluator:    evaluator,
	}
}

// itemFetcher 物品获取函数
// 执行路径在事务内加行级写锁，预演路径走普通读
type itemFetcher func(identifier string) (*invModel.Item, error)

// itemDemand 一笔待扣减的库存需求
type itemDemand struct {
	item       *invModel.Item
	amount     float64 // 请求数量(请求单位)
	measure    string  // 请求单位
	productID  uint64
	fieldLabel string
}

// taskPlan 任务启动计划
// 字段解析与充足性检查的产物，执行与预演共用
type taskPlan struct {
	resolved  wfModel.TaskValues
	demands   []itemDemand
	transfers []wfModel.PlannedTransfer
	payload   string // 解析后字段值JSON快照
}

// StartTask 启动任务
// 全量检查通过后才扣减：任何一个物品不足则整批中止，不留下部分扣减
// 预演模式只计算转移计划，不落库任何变更
func (s *EngineService) StartTask(ctx context.Context, activeWorkflowID uint64, req *wfModel.StartTaskRequest, operatorID uint64) (*wfModel.StartTaskResponse, error) {
	if req == nil || len(req.ProductIDs) == 0 {
		return nil, fmt.Errorf("%w: 产品列表不能为空", system.ErrInvalidRequest)
	}
	if req.Task.TaskTemplateID == 0 {
		return nil, fmt.Errorf("%w: 缺少任务模板ID", system.ErrInvalidRequest)
	}

	aw, err := s.awRepo.GetActiveWorkflowByID(ctx, activeWorkflowID)
	if err != nil {
		return nil, err
	}
	if aw == nil {
		return nil, fmt.Errorf("%w: 运行实例 %d", system.ErrObjectNotFound, activeWorkflowID)
	}

	workflow, err := s.workflowRepo.GetWorkflowByID(ctx, aw.WorkflowID)
	if err != nil {
		return nil, err
	}
	if workflow == nil {
		return nil, fmt.Errorf("%w: 工作流定义 %d", system.ErrObjectNotFound, aw.WorkflowID)
	}

	template, err := s.templateRepo.GetTaskTemplateByID(ctx, req.Task.TaskTemplateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, fmt.Errorf("%w: 任务模板 %d", system.ErrObjectNotFound, req.Task.TaskTemplateID)
	}

	// 预演路径：普通读，算完即走
	if req.IsPreview {
		wps, err := s.collectBatch(ctx, nil, aw, workflow, req)
		if err != nil {
			return nil, err
		}
		plan, err := s.buildTaskPlan(req.Task, template, wps, func(identifier string) (*invModel.Item, error) {
			return s.itemRepo.GetItemByIdentifier(ctx, identifier)
		})
		if err != nil {
			return nil, err
		}
		return &wfModel.StartTaskResponse{
			Transfers: plan.transfers,
			Message:   "preview",
		}, nil
	}

	runIdentifier := uuid.NewString()
	var response *wfModel.StartTaskResponse
	var events []Event

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wps, err := s.collectBatch(ctx, tx, aw, workflow, req)
		if err != nil {
			return err
		}

		// 物品行加写锁后再检查，锁持续到事务结束
		itemCache := make(map[string]*invModel.Item)
		plan, err := s.buildTaskPlan(req.Task, template, wps, func(identifier string) (*invModel.Item, error) {
			if cached, ok := itemCache[identifier]; ok {
				return cached, nil
			}
			item, err := s.itemRepo.GetItemByIdentifierForUpdate(tx, identifier)
			if err != nil || item == nil {
				return item, err
			}
			itemCache[identifier] = item
			return item, nil
		})
		if err != nil {
			return err
		}

		for _, demand := range plan.demands {
			if _, err := s.ledger.Deduct(ctx, tx, demand.item, demand.amount, demand.measure, runIdentifier, operatorID); err != nil {
				return err
			}
		}

		for _, wp := range wps {
			before := *wp
			err := s.wpRepo.UpdateWorkflowProductFieldsWithTx(tx, wp.ID, map[string]interface{}{
				"task_in_progress": true,
				"run_identifier":   runIdentifier,
			})
			if err != nil {
				return err
			}

			entry := &wfModel.DataEntry{
				ProductID:      wp.ProductID,
				TaskTemplateID: req.Task.TaskTemplateID,
				RunIdentifier:  runIdentifier,
				State:          wfModel.DataEntryStateActive,
				Payload:        plan.payload,
				CreatedBy:      operatorID,
			}
			if err := s.entryRepo.CreateDataEntryWithTx(tx, entry); err != nil {
				return err
			}

			after := *wp
			after.TaskInProgress = true
			after.RunIdentifier = runIdentifier
			events = append(events, Event{
				Operation:     "start_task",
				RunIdentifier: runIdentifier,
				Before:        before,
				After:         after,
			})
		}

		response = &wfModel.StartTaskResponse{
			RunIdentifier: runIdentifier,
			Transfers:     plan.transfers,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.fireHooks(ctx, events)
	logger.LogBusinessOperation("start_task", operatorID, "", "", "", "success",
		"任务启动", map[string]interface{}{
			"active_workflow_id": activeWorkflowID,
			"task_template_id":   req.Task.TaskTemplateID,
			"product_count":      len(req.ProductIDs),
			"run_identifier":     runIdentifier,
		})
	return response, nil
}

// collectBatch 校验并收集整批产品的进度游标
// 每个产品必须属于该运行实例、处于空闲态、且当前任务与请求模板一致
func (s *EngineService) collectBatch(ctx context.Context, tx *gorm.DB, aw *wfModel.ActiveWorkflow, workflow *catalog.Workflow, req *wfModel.StartTaskRequest) ([]*wfModel.WorkflowProduct, error) {
	wps := make([]*wfModel.WorkflowProduct, 0, len(req.ProductIDs))
	for _, productID := range req.ProductIDs {
		var wp *wfModel.WorkflowProduct
		var err error
		if tx != nil {
			wp, err = s.wpRepo.GetWorkflowProductByProductIDWithTx(tx, productID)
		} else {
			wp, err = s.wpRepo.GetWorkflowProductByProductID(ctx, productID)
		}
		if err != nil {
			return nil, err
		}
		if wp == nil || wp.ActiveWorkflowID != aw.ID {
			return nil, fmt.Errorf("%w: 产品 %d 不在该运行实例中", system.ErrObjectNotFound, productID)
		}
		if !wp.Idle() {
			return nil, fmt.Errorf("%w: 产品 %d", system.ErrTaskInProgress, productID)
		}
		if wp.CurrentTask >= workflow.TaskCount() {
			return nil, fmt.Errorf("%w: 产品 %d", system.ErrWorkflowFinished, productID)
		}
		current := workflow.TaskAt(wp.CurrentTask)
		if current == nil || current.TaskTemplateID != req.Task.TaskTemplateID {
			return nil, fmt.Errorf("%w: 产品 %d", system.ErrTaskMismatch, productID)
		}
		wps = append(wps, wp)
	}
	return wps, nil
}

// buildTaskPlan 解析字段值并做充足性检查
// 计算字段先求值（失败降级为NaN，不阻塞），再按产品×输入字段逐笔累计需求；
// 第一个不足的物品即中止，错误消息为完整的不足提示
func (s *EngineService) buildTaskPlan(task wfModel.TaskValues, template *catalog.TaskTemplate, wps []*wfModel.WorkflowProduct, fetch itemFetcher) (*taskPlan, error) {
	resolved := task
	values := make(map[string]float64)
	for _, vf := range resolved.VariableFields {
		values[vf.Label] = vf.Amount
	}
	for _, inf := range resolved.InputFields {
		values[inf.Label] = inf.Amount
	}
	for _, sf := range resolved.StepFields {
		for _, prop := range sf.Properties {
			values[prop.Label] = prop.Amount
		}
	}

	// 计算字段按声明顺序求值，后面的表达式可引用前面的结果
	for i := range resolved.CalculationFields {
		cf := &resolved.CalculationFields[i]
		cf.Result = s.evaluator.Evaluate(cf.Calculation, values)
		values[cf.Label] = cf.Result
	}

	// 输入字段数值来自计算字段时，用求值结果覆盖
	for i := range resolved.InputFields {
		inf := &resolved.InputFields[i]
		if inf.FromCalculation && inf.CalculationUsed != "" {
			if result, ok := values[inf.CalculationUsed]; ok {
				inf.Amount = result
			} else {
				inf.Amount = math.NaN()
			}
		}
	}

	plan := &taskPlan{resolved: resolved}
	measures := s.ledger.Measures()

	// 累计每个物品的已计划扣减量，跨产品、跨字段统一核算
	planned := make(map[uint64]float64)

	addDemand := func(item *invModel.Item, amount float64, measureSymbol string, productID uint64, fieldLabel string) error {
		// NaN数值无法量化为扣减，记录在快照中但不产生转移
		if math.IsNaN(amount) {
			return nil
		}
		converted, err := measures.Convert(amount, measureSymbol, item.AmountMeasure)
		if err != nil {
			return fmt.Errorf("%w: %v", system.ErrInvalidRequest, err)
		}
		if planned[item.ID]+converted > item.AmountAvailable {
			shortfall := planned[item.ID] + converted - item.AmountAvailable
			return &ShortfallError{
				Message: fmt.Sprintf("Inventory item %v (%s) is short of amount by %.1f %s",
					item.Identifier, item.Name, shortfall, measures.UnitName(item.AmountMeasure)),
			}
		}
		planned[item.ID] += converted
		plan.demands = append(plan.demands, itemDemand{
			item:       item,
			amount:     amount,
			measure:    measureSymbol,
			productID:  productID,
			fieldLabel: fieldLabel,
		})
		plan.transfers = append(plan.transfers, wfModel.PlannedTransfer{
			ItemID:         item.ID,
			ItemIdentifier: item.Identifier,
			ItemName:       item.Name,
			Amount:         converted,
			Measure:        item.AmountMeasure,
			ProductID:      productID,
			FieldLabel:     fieldLabel,
		})
		return nil
	}

	for _, wp := range wps {
		for _, inf := range resolved.InputFields {
			if inf.InventoryIdentifier == "" {
				return nil, fmt.Errorf("%w: 输入字段 %s 缺少库存物品编号", system.ErrInvalidRequest, inf.Label)
			}
			item, err := fetch(inf.InventoryIdentifier)
			if err != nil {
				return nil, err
			}
			if item == nil {
				return nil, fmt.Errorf("%w: 库存物品 %s", system.ErrObjectNotFound, inf.InventoryIdentifier)
			}
			if err := addDemand(item, inf.Amount, inf.Measure, wp.ProductID, inf.Label); err != nil {
				return nil, err
			}
		}

		// 任务对产品关联物品的固定消耗
		if template.ProductInput {
			if wp.Product == nil || wp.Product.LinkedItem == nil {
				return nil, fmt.Errorf("%w: 产品 %d 未关联库存物品", system.ErrInvalidRequest, wp.ProductID)
			}
			item, err := fetch(wp.Product.LinkedItem.Identifier)
			if err != nil {
				return nil, err
			}
			if item == nil {
				return nil, fmt.Errorf("%w: 库存物品 %s", system.ErrObjectNotFound, wp.Product.LinkedItem.Identifier)
			}
			if err := addDemand(item, template.ProductInputAmount, template.ProductInputMeasure, wp.ProductID, "product_input"); err != nil {
				return nil, err
			}
		}
	}

	payload, err := json.Marshal(resolved)
	if err != nil {
		return nil, fmt.Errorf("序列化字段值快照失败: %w", err)
	}
	plan.payload = string(payload)
	return plan, nil
}

// TaskStatus 查询进行中任务的状态
// 从未匹配到任何记录返回无效请求；有审计记录但无进行中产品返回已消亡(410)
func (s *EngineService) TaskStatus(ctx context.Context, activeWorkflowID uint64, runIdentifier string, taskNumber int) (*wfModel.TaskStatusResponse, error) {
	if runIdentifier == "" {
		return nil, fmt.Errorf("%w: 缺少执行关联ID", system.ErrInvalidRequest)
	}

	aw, err := s.awRepo.GetActiveWorkflowByID(ctx, activeWorkflowID)
	if err != nil {
		return nil, err
	}
	if aw == nil {
		return nil, fmt.Errorf("%w: 运行实例 %d", system.ErrObjectNotFound, activeWorkflowID)
	}

	wps, err := s.wpRepo.GetWorkflowProductsByRunIdentifier(ctx, runIdentifier)
	if err != nil {
		return nil, err
	}

	inProgress := make([]*wfModel.WorkflowProduct, 0, len(wps))
	for _, wp := range wps {
		if wp.ActiveWorkflowID == aw.ID && wp.CurrentTask == taskNumber {
			inProgress = append(inProgress, wp)
		}
	}

	if len(inProgress) == 0 {
		entries, err := s.entryRepo.GetDataEntriesByRunIdentifier(ctx, runIdentifier)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			// 任务已终结，状态查询对象已消亡
			return nil, fmt.Errorf("%w: 执行 %s 已终结", system.ErrObjectGone, runIdentifier)
		}
		return nil, fmt.Errorf("%w: 执行 %s 不存在", system.ErrInvalidRequest, runIdentifier)
	}

	response := &wfModel.TaskStatusResponse{
		Items: make(map[string][]wfModel.TaskStatusProductEntry),
	}

	for _, wp := range inProgress {
		entry, err := s.entryRepo.GetActiveDataEntryWithTx(s.db.WithContext(ctx), wp.ProductID, runIdentifier)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			continue
		}

		var snapshot wfModel.TaskValues
		if err := json.Unmarshal([]byte(entry.Payload), &snapshot); err != nil {
			return nil, fmt.Errorf("解析字段值快照失败: %w", err)
		}
		if response.Name == "" {
			response.Name = snapshot.Name
		}

		productIdentifier := ""
		productName := ""
		itemName := ""
		if wp.Product != nil {
			productIdentifier = wp.Product.Identifier
			productName = wp.Product.Name
			if wp.Product.LinkedItem != nil {
				itemName = wp.Product.LinkedItem.Name
			}
		}

		response.Items[productIdentifier] = append(response.Items[productIdentifier], wfModel.TaskStatusProductEntry{
			ID:          wp.ID,
			ProductName: productName,
			ItemName:    itemName,
			Fields:      renderFieldLines(&snapshot),
		})
	}
	return response, nil
}

// renderFieldLines 将字段值快照渲染为操作员可读的展示行
func renderFieldLines(snapshot *wfModel.TaskValues) []string {
	lines := make([]string, 0,
		len(snapshot.InputFields)+len(snapshot.VariableFields)+
			len(snapshot.OutputFields)+len(snapshot.CalculationFields))

	for _, f := range snapshot.InputFields {
		lines = append(lines, fmt.Sprintf("%s: %g %s (%s)", f.Label, f.Amount, f.Measure, f.InventoryIdentifier))
	}
	for _, f := range snapshot.VariableFields {
		lines = append(lines, fmt.Sprintf("%s: %g %s", f.Label, f.Amount, f.Measure))
	}
	for _, f := range snapshot.OutputFields {
		lines = append(lines, fmt.Sprintf("%s: %g %s", f.Label, f.Amount, f.Measure))
	}
	for _, f := range snapshot.StepFields {
		for _, prop := range f.Properties {
			lines = append(lines, fmt.Sprintf("%s / %s: %g %s", f.Label, prop.Label, prop.Amount, prop.Measure))
		}
	}
	for _, f := range snapshot.CalculationFields {
		lines = append(lines, fmt.Sprintf("%s = %g", f.Label, f.Result))
	}
	return lines
}

// CompleteTask 完成任务
// 终结转移记录、升级审计状态、产出物品入库、推进或删除游标，全部在一个事务内
func (s *EngineService) CompleteTask(ctx context.Context, activeWorkflowID, taskID uint64, productIDs []uint64, operatorID uint64) (string, error) {
	events, err := s.finishTask(ctx, activeWorkflowID, taskID, productIDs, operatorID, false)
	if err != nil {
		return "", err
	}
	s.fireHooks(ctx, events)
	return "Task completed", nil
}

// RetryTask 重试任务
// 审计状态记为失败，已消耗的输入不恢复（真实物料损耗），游标重置回工作流起点
func (s *EngineService) RetryTask(ctx context.Context, activeWorkflowID, taskID uint64, productIDs []uint64, operatorID uint64) (string, error) {
	events, err := s.finishTask(ctx, activeWorkflowID, taskID, productIDs, operatorID, true)
	if err != nil {
		return "", err
	}
	s.fireHooks(ctx, events)
	return "Task retried", nil
}

// finishTask 完成/重试共用的任务终结路径
func (s *EngineService) finishTask(ctx context.Context, activeWorkflowID, taskID uint64, productIDs []uint64, operatorID uint64, isRetry bool) ([]Event, error) {
	if len(productIDs) == 0 {
		return nil, fmt.Errorf("%w: 产品列表不能为空", system.ErrInvalidRequest)
	}
	if taskID == 0 {
		return nil, fmt.Errorf("%w: 缺少任务模板ID", system.ErrInvalidRequest)
	}

	aw, err := s.awRepo.GetActiveWorkflowByID(ctx, activeWorkflowID)
	if err != nil {
		return nil, err
	}
	if aw == nil {
		return nil, fmt.Errorf("%w: 运行实例 %d", system.ErrObjectNotFound, activeWorkflowID)
	}

	workflow, err := s.workflowRepo.GetWorkflowByID(ctx, aw.WorkflowID)
	if err != nil {
		return nil, err
	}
	if workflow == nil {
		return nil, fmt.Errorf("%w: 工作流定义 %d", system.ErrObjectNotFound, aw.WorkflowID)
	}

	operation := "complete_task"
	if isRetry {
		operation = "retry_task"
	}

	var events []Event
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, productID := range productIDs {
			wp, err := s.wpRepo.GetWorkflowProductByProductIDWithTx(tx, productID)
			if err != nil {
				return err
			}
			if wp == nil || wp.ActiveWorkflowID != aw.ID {
				return fmt.Errorf("%w: 产品 %d 不在该运行实例中", system.ErrObjectNotFound, productID)
			}
			if !wp.TaskInProgress || wp.RunIdentifier == "" {
				return fmt.Errorf("%w: 产品 %d", system.ErrTaskNotInProgress, productID)
			}

			entry, err := s.entryRepo.GetActiveDataEntryWithTx(tx, productID, wp.RunIdentifier)
			if err != nil {
				return err
			}
			if entry == nil {
				return fmt.Errorf("%w: 产品 %d 无活动审计记录", system.ErrObjectNotFound, productID)
			}
			if entry.TaskTemplateID != taskID {
				return fmt.Errorf("%w: 产品 %d", system.ErrTaskMismatch, productID)
			}

			// 终结本次执行名下的扣减预占
			if err := s.transferRepo.MarkRunTransfersCompleteWithTx(tx, wp.RunIdentifier); err != nil {
				return err
			}

			// 同一产品同一任务已有终态记录时，本次为重复尝试
			hasTerminal, err := s.entryRepo.HasTerminalDataEntryWithTx(tx, productID, taskID)
			if err != nil {
				return err
			}
			state := terminalState(isRetry, hasTerminal)
			if err := s.entryRepo.UpdateDataEntryStateWithTx(tx, entry.ID, state); err != nil {
				return err
			}

			// 成功完成才产出新物品，重试丢弃本次产出
			if !isRetry {
				if err := s.materializeOutputs(ctx, tx, wp, entry, operatorID); err != nil {
					return err
				}
			}

			before := *wp
			if isRetry {
				// 整条工作流从头再走
				err = s.wpRepo.UpdateWorkflowProductFieldsWithTx(tx, wp.ID, map[string]interface{}{
					"current_task":     0,
					"task_in_progress": false,
					"run_identifier":   "",
				})
				if err != nil {
					return err
				}
			} else if wp.CurrentTask+1 < workflow.TaskCount() {
				err = s.wpRepo.UpdateWorkflowProductFieldsWithTx(tx, wp.ID, map[string]interface{}{
					"current_task":     wp.CurrentTask + 1,
					"task_in_progress": false,
					"run_identifier":   "",
				})
				if err != nil {
					return err
				}
			} else {
				// 最后一个任务完成，该产品在本实例中的参与结束
				if err := s.wpRepo.DeleteWorkflowProductWithTx(tx, wp.ID); err != nil {
					return err
				}
				remaining, err := s.awRepo.CountProductsWithTx(tx, aw.ID)
				if err != nil {
					return err
				}
				if remaining == 0 {
					if err := s.awRepo.DeleteActiveWorkflowWithTx(tx, aw.ID); err != nil {
						return err
					}
					events = append(events, Event{
						Operation:     operation,
						RunIdentifier: before.RunIdentifier,
						Before:        *aw,
						After:         nil,
					})
				}
				events = append(events, Event{
					Operation:     operation,
					RunIdentifier: before.RunIdentifier,
					Before:        before,
					After:         nil,
				})
				continue
			}

			after := *wp
			after.TaskInProgress = false
			after.RunIdentifier = ""
			if isRetry {
				after.CurrentTask = 0
			} else {
				after.CurrentTask = wp.CurrentTask + 1
			}
			events = append(events, Event{
				Operation:     operation,
				RunIdentifier: before.RunIdentifier,
				Before:        before,
				After:         after,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.LogBusinessOperation(operation, operatorID, "", "", "", "success",
		"任务终结", map[string]interface{}{
			"active_workflow_id": activeWorkflowID,
			"task_template_id":   taskID,
			"product_count":      len(productIDs),
		})
	return events, nil
}

// terminalState 计算审计记录的终态
func terminalState(isRetry, hasTerminal bool) wfModel.DataEntryState {
	switch {
	case isRetry && hasTerminal:
		return wfModel.DataEntryStateRepeatFailed
	case isRetry:
		return wfModel.DataEntryStateFailed
	case hasTerminal:
		return wfModel.DataEntryStateRepeatSucceeded
	default:
		return wfModel.DataEntryStateSucceeded
	}
}

// materializeOutputs 按启动时的字段值快照产出新库存物品
// 物品名为 "<产品编号> <物品类型名>"，溯源指向本次消耗的输入物品
func (s *EngineService) materializeOutputs(ctx context.Context, tx *gorm.DB, wp *wfModel.WorkflowProduct, entry *wfModel.DataEntry, operatorID uint64) error {
	var snapshot wfModel.TaskValues
	if err := json.Unmarshal([]byte(entry.Payload), &snapshot); err != nil {
		return fmt.Errorf("解析字段值快照失败: %w", err)
	}
	if len(snapshot.OutputFields) == 0 {
		return nil
	}

	// 消耗的输入物品作为产出溯源
	consumed := make([]*invModel.Item, 0, len(snapshot.InputFields)+1)
	seen := make(map[uint64]bool)
	for _, inf := range snapshot.InputFields {
		if inf.InventoryIdentifier == "" {
			continue
		}
		item, err := s.itemRepo.GetItemByIdentifier(ctx, inf.InventoryIdentifier)
		if err != nil {
			return err
		}
		if item != nil && !seen[item.ID] {
			consumed = append(consumed, item)
			seen[item.ID] = true
		}
	}
	if wp.Product != nil && wp.Product.LinkedItem != nil && !seen[wp.Product.LinkedItem.ID] {
		consumed = append(consumed, wp.Product.LinkedItem)
	}

	productIdentifier := ""
	if wp.Product != nil {
		productIdentifier = wp.Product.Identifier
	}

	for _, out := range snapshot.OutputFields {
		itemTypeName := ""
		if out.ItemTypeID != 0 {
			itemType, err := s.itemRepo.GetItemTypeByID(ctx, out.ItemTypeID)
			if err != nil {
				return err
			}
			if itemType != nil {
				itemTypeName = itemType.Name
			}
		}
		name := fmt.Sprintf("%s %s", productIdentifier, itemTypeName)

		_, err := s.ledger.CreateOutputItem(ctx, tx, name, out.ItemTypeID, out.Amount, out.Measure,
			out.LocationID, operatorID, entry.RunIdentifier, consumed)
		if err != nil {
			return err
		}
	}
	return nil
}

// CreateActiveWorkflow 为一批产品创建工作流运行实例
// 产品从任务0开始，游标一次性建好
func (s *EngineService) CreateActiveWorkflow(ctx context.Context, workflowID uint64, productIDs []uint64, creatorID uint64) (*wfModel.ActiveWorkflow, error) {
	if len(productIDs) == 0 {
		return nil, fmt.Errorf("%w: 产品列表不能为空", system.ErrInvalidRequest)
	}

	workflow, err := s.workflowRepo.GetWorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if workflow == nil {
		return nil, fmt.Errorf("%w: 工作流定义 %d", system.ErrObjectNotFound, workflowID)
	}

	aw := &wfModel.ActiveWorkflow{
		WorkflowID: workflowID,
		Name:       workflow.Name,
		CreatedBy:  creatorID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.awRepo.CreateActiveWorkflowWithTx(tx, aw); err != nil {
			return err
		}
		for _, productID := range productIDs {
			if err := s.attachProduct(ctx, tx, aw.ID, productID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.fireHooks(ctx, []Event{{Operation: "create_active_workflow", Before: nil, After: *aw}})
	return aw, nil
}

// GetActiveWorkflow 获取运行实例详情，预加载产品游标
func (s *EngineService) GetActiveWorkflow(ctx context.Context, id uint64) (*wfModel.ActiveWorkflow, error) {
	aw, err := s.awRepo.GetActiveWorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if aw == nil {
		return nil, fmt.Errorf("%w: 运行实例 %d", system.ErrObjectNotFound, id)
	}
	return aw, nil
}

// GetActiveWorkflowList 分页获取运行实例列表
func (s *EngineService) GetActiveWorkflowList(ctx context.Context, page, pageSize int) ([]*wfModel.ActiveWorkflow, int64, error) {
	offset := (page - 1) * pageSize
	return s.awRepo.GetActiveWorkflowList(ctx, offset, pageSize)
}

// AddProduct 向运行实例添加产品
func (s *EngineService) AddProduct(ctx context.Context, activeWorkflowID, productID uint64) error {
	aw, err := s.awRepo.GetActiveWorkflowByID(ctx, activeWorkflowID)
	if err != nil {
		return err
	}
	if aw == nil {
		return fmt.Errorf("%w: 运行实例 %d", system.ErrObjectNotFound, activeWorkflowID)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.attachProduct(ctx, tx, aw.ID, productID)
	})
	if err != nil {
		return err
	}

	s.fireHooks(ctx, []Event{{Operation: "add_product", Before: nil, After: wfModel.WorkflowProduct{
		ActiveWorkflowID: activeWorkflowID,
		ProductID:        productID,
	}}})
	return nil
}

// attachProduct 事务内创建产品进度游标
func (s *EngineService) attachProduct(ctx context.Context, tx *gorm.DB, activeWorkflowID, productID uint64) error {
	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return fmt.Errorf("%w: 产品 %d", system.ErrObjectNotFound, productID)
	}

	existing, err := s.wpRepo.GetWorkflowProductByProductIDWithTx(tx, productID)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: 产品 %d", system.ErrProductInWorkflow, productID)
	}

	wp := &wfModel.WorkflowProduct{
		ActiveWorkflowID: activeWorkflowID,
		ProductID:        productID,
		CurrentTask:      0,
		TaskInProgress:   false,
		RunIdentifier:    "",
	}
	return s.wpRepo.CreateWorkflowProductWithTx(tx, wp)
}

// RemoveProduct 从运行实例移除产品
// 最后一个成员被移除时实例随之删除
func (s *EngineService) RemoveProduct(ctx context.Context, activeWorkflowID, workflowProductID uint64) error {
	aw, err := s.awRepo.GetActiveWorkflowByID(ctx, activeWorkflowID)
	if err != nil {
		return err
	}
	if aw == nil {
		return fmt.Errorf("%w: 运行实例 %d", system.ErrObjectNotFound, activeWorkflowID)
	}

	wp, err := s.wpRepo.GetWorkflowProductByID(ctx, workflowProductID)
	if err != nil {
		return err
	}
	if wp == nil || wp.ActiveWorkflowID != aw.ID {
		return fmt.Errorf("%w: 产品进度游标 %d", system.ErrObjectNotFound, workflowProductID)
	}

	var events []Event
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.wpRepo.DeleteWorkflowProductWithTx(tx, wp.ID); err != nil {
			return err
		}
		events = append(events, Event{Operation: "remove_product", Before: *wp, After: nil})

		remaining, err := s.awRepo.CountProductsWithTx(tx, aw.ID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			if err := s.awRepo.DeleteActiveWorkflowWithTx(tx, aw.ID); err != nil {
				return err
			}
			events = append(events, Event{Operation: "remove_product", Before: *aw, After: nil})
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.fireHooks(ctx, events)
	return nil
}

// SwitchWorkflow 将产品移入另一个运行实例
// 目标为已有实例或为目标工作流新建的实例，二选一；源实例变空则删除
// 游标的current_task/task_in_progress特意保持不变，任务序列错位的风险由调用方承担
func (s *EngineService) SwitchWorkflow(ctx context.Context, activeWorkflowID uint64, req *wfModel.SwitchWorkflowRequest) error {
	if req == nil || req.WorkflowProductID == 0 {
		return fmt.Errorf("%w: 缺少产品进度游标ID", system.ErrInvalidRequest)
	}
	if (req.TargetWorkflowID == 0) == (req.TargetActiveWorkflowID == 0) {
		return fmt.Errorf("%w: 目标工作流与目标运行实例必须二选一", system.ErrInvalidRequest)
	}

	aw, err := s.awRepo.GetActiveWorkflowByID(ctx, activeWorkflowID)
	if err != nil {
		return err
	}
	if aw == nil {
		return fmt.Errorf("%w: 运行实例 %d", system.ErrObjectNotFound, activeWorkflowID)
	}

	wp, err := s.wpRepo.GetWorkflowProductByID(ctx, req.WorkflowProductID)
	if err != nil {
		return err
	}
	if wp == nil || wp.ActiveWorkflowID != aw.ID {
		return fmt.Errorf("%w: 产品进度游标 %d", system.ErrObjectNotFound, req.WorkflowProductID)
	}

	var events []Event
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		targetID := req.TargetActiveWorkflowID
		if targetID != 0 {
			if targetID == aw.ID {
				return fmt.Errorf("%w: 目标运行实例与当前实例相同", system.ErrInvalidRequest)
			}
			target, err := s.awRepo.GetActiveWorkflowByID(ctx, targetID)
			if err != nil {
				return err
			}
			if target == nil {
				return fmt.Errorf("%w: 运行实例 %d", system.ErrObjectNotFound, targetID)
			}
		} else {
			workflow, err := s.workflowRepo.GetWorkflowByID(ctx, req.TargetWorkflowID)
			if err != nil {
				return err
			}
			if workflow == nil {
				return fmt.Errorf("%w: 工作流定义 %d", system.ErrObjectNotFound, req.TargetWorkflowID)
			}
			var creatorID uint64
			if wp.Product != nil {
				creatorID = wp.Product.CreatedBy
			}
			target := &wfModel.ActiveWorkflow{
				WorkflowID: workflow.ID,
				Name:       workflow.Name,
				CreatedBy:  creatorID,
			}
			if err := s.awRepo.CreateActiveWorkflowWithTx(tx, target); err != nil {
				return err
			}
			targetID = target.ID
		}

		before := *wp
		err := s.wpRepo.UpdateWorkflowProductFieldsWithTx(tx, wp.ID, map[string]interface{}{
			"active_workflow_id": targetID,
		})
		if err != nil {
			return err
		}

		after := *wp
		after.ActiveWorkflowID = targetID
		events = append(events, Event{Operation: "switch_workflow", Before: before, After: after})

		remaining, err := s.awRepo.CountProductsWithTx(tx, aw.ID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			if err := s.awRepo.DeleteActiveWorkflowWithTx(tx, aw.ID); err != nil {
				return err
			}
			events = append(events, Event{Operation: "switch_workflow", Before: *aw, After: nil})
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.fireHooks(ctx, events)
	return nil
}
