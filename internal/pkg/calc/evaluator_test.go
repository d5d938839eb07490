package calc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluator_Evaluate(t *testing.T) {
	e := NewEvaluator()

	values := map[string]float64{
		"volume":   2.5,
		"count":    4,
		"dilution": 0.5,
	}

	tests := []struct {
		name       string
		expression string
		want       float64
	}{
		{name: "plain arithmetic", expression: "1 + 2 * 3", want: 7},
		{name: "single field", expression: "{volume}", want: 2.5},
		{name: "field multiply", expression: "{volume} * {count}", want: 10},
		{name: "parentheses", expression: "({volume} + {dilution}) * 2", want: 6},
		{name: "division", expression: "{volume} / {dilution}", want: 5},
		{name: "power", expression: "2 ^ 3", want: 8},
		{name: "unary minus", expression: "-{dilution} + 1", want: 0.5},
		{name: "mixed", expression: "{count} * (1 - {dilution}) ^ 2", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Evaluate(tt.expression, values)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluator_FailureReturnsNaN(t *testing.T) {
	e := NewEvaluator()

	values := map[string]float64{"volume": 2.5}

	tests := []struct {
		name       string
		expression string
	}{
		{name: "missing label", expression: "{volume} + {missing}"},
		{name: "malformed expression", expression: "{volume} + * 2"},
		{name: "leftover token", expression: "{volume} ml"},
		{name: "empty expression", expression: ""},
		{name: "unclosed brace", expression: "{volume"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Evaluate(tt.expression, values)
			assert.True(t, math.IsNaN(got), "expected NaN, got %v", got)
		})
	}
}

func TestEvaluator_PureFunction(t *testing.T) {
	e := NewEvaluator()
	values := map[string]float64{"a": 3, "b": 4}

	// 同样输入重复求值结果一致（含缓存命中路径）
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 25.0, e.Evaluate("{a}^2 + {b}^2", values), 1e-9)
	}

	// values 不被修改
	assert.Len(t, values, 2)
}

func TestEvaluator_Interpolate(t *testing.T) {
	e := NewEvaluator()

	got := e.interpolate("{a} + {b}", map[string]float64{"a": 1.5})
	assert.Equal(t, "1.5 + NaN", got)
}
