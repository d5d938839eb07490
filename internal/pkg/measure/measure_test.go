package measure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_Convert(t *testing.T) {
	r := NewDefaultRegistry()

	tests := []struct {
		name   string
		amount float64
		from   string
		to     string
		want   float64
	}{
		{name: "ml to l", amount: 1500, from: "ml", to: "l", want: 1.5},
		{name: "l to ml", amount: 2, from: "l", to: "ml", want: 2000},
		{name: "same unit", amount: 7.5, from: "ml", to: "ml", want: 7.5},
		{name: "mg to g", amount: 250, from: "mg", to: "g", want: 0.25},
		{name: "hour to second", amount: 1.5, from: "h", to: "s", want: 5400},
		{name: "case insensitive", amount: 1, from: "ML", to: "l", want: 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Convert(tt.amount, tt.from, tt.to)
			assert.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestRegistry_ConvertIncompatible(t *testing.T) {
	r := NewDefaultRegistry()

	// 体积换时间属于跨量纲，必须报错
	_, err := r.Convert(1, "ml", "min")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "incompatible measures")
}

func TestRegistry_UnknownSymbol(t *testing.T) {
	r := NewDefaultRegistry()

	_, err := r.Convert(1, "gallon", "l")
	assert.Error(t, err)

	_, err = r.Lookup("parsec")
	assert.Error(t, err)
}

func TestRegistry_UnitName(t *testing.T) {
	r := NewDefaultRegistry()

	assert.Equal(t, "milliliter", r.UnitName("ml"))
	assert.Equal(t, "gram", r.UnitName("g"))
	// 未注册的符号原样返回
	assert.Equal(t, "bucket", r.UnitName("bucket"))
}

func TestRegistry_RegisterOverride(t *testing.T) {
	r := NewRegistry()
	r.Register(Unit{Symbol: "drop", Name: "drop", Dimension: DimensionVolume, Factor: 5e-5})
	r.Register(Unit{Symbol: "l", Name: "liter", Dimension: DimensionVolume, Factor: 1})

	got, err := r.Convert(20, "drop", "l")
	assert.NoError(t, err)
	assert.InDelta(t, 0.001, got, 1e-9)
}
