/**
 * 工具类:计量单位换算
 * @author: sun977
 * @date: 2025.10.20
 * @description: 计量单位注册表与量纲换算服务
 * @func:
 * 	1.注册单位（符号、全称、量纲、到基准单位的换算系数）
 * 	2.同量纲单位之间的数值换算
 * 	3.跨量纲换算返回错误（致命校验错误，调用方不得继续扣减库存）
 */
package measure

import (
	"fmt"
	"strings"
)

// Dimension 量纲类型
type Dimension string

const (
	DimensionVolume Dimension = "volume" // 体积
	DimensionMass   Dimension = "mass"   // 质量
	DimensionCount  Dimension = "count"  // 计数
	DimensionTime   Dimension = "time"   // 时间
)

// Unit 单位定义
type Unit struct {
	Symbol    string    // 单位符号，如 ml
	Name      string    // 单位全称，如 milliliter，用于面向用户的提示信息
	Dimension Dimension // 量纲
	Factor    float64   // 换算到该量纲基准单位的系数
}

// Registry 单位注册表
// 按规范要求显式构造并注入，不使用包级隐藏单例
type Registry struct {
	units map[string]Unit
}

// NewRegistry 创建空的单位注册表
func NewRegistry() *Registry {
	return &Registry{units: make(map[string]Unit)}
}

// NewDefaultRegistry 创建带实验室常用单位的注册表
// 基准单位：体积=liter 质量=gram 计数=piece 时间=second
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	defaults := []Unit{
		{Symbol: "l", Name: "liter", Dimension: DimensionVolume, Factor: 1},
		{Symbol: "ml", Name: "milliliter", Dimension: DimensionVolume, Factor: 1e-3},
		{Symbol: "ul", Name: "microliter", Dimension: DimensionVolume, Factor: 1e-6},
		{Symbol: "kg", Name: "kilogram", Dimension: DimensionMass, Factor: 1e3},
		{Symbol: "g", Name: "gram", Dimension: DimensionMass, Factor: 1},
		{Symbol: "mg", Name: "milligram", Dimension: DimensionMass, Factor: 1e-3},
		{Symbol: "ug", Name: "microgram", Dimension: DimensionMass, Factor: 1e-6},
		{Symbol: "piece", Name: "piece", Dimension: DimensionCount, Factor: 1},
		{Symbol: "item", Name: "item", Dimension: DimensionCount, Factor: 1},
		{Symbol: "s", Name: "second", Dimension: DimensionTime, Factor: 1},
		{Symbol: "min", Name: "minute", Dimension: DimensionTime, Factor: 60},
		{Symbol: "h", Name: "hour", Dimension: DimensionTime, Factor: 3600},
	}
	for _, u := range defaults {
		r.Register(u)
	}
	return r
}

// Register 注册单位，同符号重复注册时覆盖旧定义
func (r *Registry) Register(u Unit) {
	r.units[strings.ToLower(u.Symbol)] = u
}

// Lookup 根据符号查找单位定义
func (r *Registry) Lookup(symbol string) (Unit, error) {
	u, ok := r.units[strings.ToLower(strings.TrimSpace(symbol))]
	if !ok {
		return Unit{}, fmt.Errorf("unknown measure %q", symbol)
	}
	return u, nil
}

// UnitName 返回单位全称，查不到时退回符号本身
// 用于拼接面向用户的库存不足提示
func (r *Registry) UnitName(symbol string) string {
	u, err := r.Lookup(symbol)
	if err != nil {
		return symbol
	}
	return u.Name
}

// Convert 将 amount 从 from 单位换算为 to 单位
// 跨量纲换算（如体积换时间）返回错误
func (r *Registry) Convert(amount float64, from, to string) (float64, error) {
	fromUnit, err := r.Lookup(from)
	if err != nil {
		return 0, err
	}
	toUnit, err := r.Lookup(to)
	if err != nil {
		return 0, err
	}
	if fromUnit.Dimension != toUnit.Dimension {
		return 0, fmt.Errorf("incompatible measures: cannot convert %s (%s) to %s (%s)",
			fromUnit.Symbol, fromUnit.Dimension, toUnit.Symbol, toUnit.Dimension)
	}
	return amount * fromUnit.Factor / toUnit.Factor, nil
}
