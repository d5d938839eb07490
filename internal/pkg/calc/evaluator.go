/**
 * 工具类:计算字段求值器
 * @author: sun977
 * @date: 2025.10.20
 * @description: 解析并求值带 {字段标签} 占位符的算术表达式
 * @func:
 * 	1.扫描表达式中的 {label} 占位符并用字段值替换
 * 	2.对替换后的算术表达式求值（+ - * / ^ 括号 一元负号）
 * 	3.任何解析/求值失败返回 NaN 哨兵值，不向调用方抛错
 */
package calc

import (
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// failureToken 占位符查不到字段值时替入的失败标记
// 替换后的表达式无法编译，整体求值结果退化为 NaN
const failureToken = "NaN"

// Evaluator 计算表达式求值器
// 纯函数语义：结果只取决于表达式和字段值映射，无副作用
type Evaluator struct {
	cache map[string]*vm.Program // 已编译表达式缓存，key 为替换后的表达式
	mu    sync.RWMutex
}

// NewEvaluator 创建求值器实例
func NewEvaluator() *Evaluator {
	return &Evaluator{
		cache: make(map[string]*vm.Program),
	}
}

// Evaluate 求值计算表达式
// expression 为模板中的计算串，values 为字段标签到数值的映射
// 失败策略：缺失标签、非法表达式、运行期错误一律返回 NaN
func (e *Evaluator) Evaluate(expression string, values map[string]float64) float64 {
	interpolated := e.interpolate(expression, values)

	program, err := e.compile(interpolated)
	if err != nil {
		return math.NaN()
	}

	output, err := expr.Run(program, nil)
	if err != nil {
		return math.NaN()
	}

	switch v := output.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return math.NaN()
	}
}

// interpolate 将 {label} 占位符替换为字段数值的字符串形式
// 未闭合的花括号原样保留，由后续编译阶段判定失败
func (e *Evaluator) interpolate(expression string, values map[string]float64) string {
	var sb strings.Builder
	rest := expression
	for {
		start := strings.Index(rest, "{")
		if start < 0 {
			sb.WriteString(rest)
			break
		}
		end := strings.Index(rest[start:], "}")
		if end < 0 {
			sb.WriteString(rest)
			break
		}
		label := rest[start+1 : start+end]
		sb.WriteString(rest[:start])
		if v, ok := values[label]; ok {
			sb.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		} else {
			sb.WriteString(failureToken)
		}
		rest = rest[start+end+1:]
	}
	return sb.String()
}

// compile 编译替换后的表达式，带读写锁保护的程序缓存
func (e *Evaluator) compile(source string) (*vm.Program, error) {
	e.mu.RLock()
	program, ok := e.cache[source]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if program, ok = e.cache[source]; ok {
		return program, nil
	}

	program, err := expr.Compile(source)
	if err != nil {
		return nil, err
	}
	e.cache[source] = program
	return program, nil
}
