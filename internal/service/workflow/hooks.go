/**
 * 工作流服务层:提交后钩子
 * @author: sun977
 * @date: 2025.10.21
 * @description: 状态变更的显式提交后钩子链，替代隐式信号派发
 * @func: 钩子在事务成功提交后按注册顺序同步调用，携带变更前后快照
 */
package workflow

import (
	"context"
)

// Event 状态变更事件
// Before/After 为变更前后的实体快照，删除时After为nil，创建时Before为nil
type Event struct {
	Operation     string      `json:"operation"`      // 操作名:start_task/complete_task/retry_task/add_product/remove_product/switch_workflow
	RunIdentifier string      `json:"run_identifier"` // 任务执行关联ID(无则为空)
	Before        interface{} `json:"before"`         // 变更前快照
	After         interface{} `json:"after"`          // 变更后快照
}

// Hook 提交后钩子
// 在事务提交成功后调用，钩子内的失败不回滚已提交的变更
type Hook func(ctx context.Context, event Event)

// RegisterHook 注册提交后钩子
// 非并发安全，应在应用装配阶段完成注册
func (s *EngineService) RegisterHook(hook Hook) {
	s.hooks = append(s.hooks, hook)
}

// fireHooks 逐个调用已注册钩子
func (s *EngineService) fireHooks(ctx context.Context, events []Event) {
	for _, event := range events {
		for _, hook := range s.hooks {
			hook(ctx, event)
		}
	}
}
