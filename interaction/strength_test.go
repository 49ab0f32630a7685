package interaction

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gbErrors "github.com/ezoic/glassbox/pkg/errors"
)

// fixtureShell builds a shell over a 2x3 regression grid with one
// unit-weight sample per cell and the given per-sample gradients, sample i
// sitting in cell (i%2, i/2).
func fixtureShell(t *testing.T, gradients []float64) *Shell {
	t.Helper()
	features := []FeatureRef{{BinCount: 2}, {BinCount: 3}}
	binCodes := [][]int{
		{0, 1, 0, 1, 0, 1},
		{0, 0, 1, 1, 2, 2},
	}
	ds, err := NewDataSet(0, features, binCodes, gradients, nil)
	require.NoError(t, err)
	core, err := NewCore(ds)
	require.NoError(t, err)
	shell, err := NewShell(core)
	require.NoError(t, err)
	return shell
}

func TestCalcStrengthValidation(t *testing.T) {
	shell := fixtureShell(t, []float64{1, 1, -1, -1, 2, -2})

	t.Run("nil shell is an illegal parameter", func(t *testing.T) {
		strength, err := CalcStrength(nil, []int{0, 1}, 0, 1)
		assert.ErrorIs(t, err, gbErrors.ErrIllegalParam)
		assert.Equal(t, IllegalGain, strength)
	})

	t.Run("empty feature list scores zero", func(t *testing.T) {
		strength, err := CalcStrength(shell, nil, 0, 1)
		require.NoError(t, err)
		assert.Equal(t, 0.0, strength)
	})

	t.Run("too many dimensions reports out of memory", func(t *testing.T) {
		indexes := make([]int, MaxDimensions+1)
		strength, err := CalcStrength(shell, indexes, 0, 1)
		assert.ErrorIs(t, err, gbErrors.ErrOutOfMemory)
		assert.Equal(t, IllegalGain, strength)
	})

	t.Run("negative feature index is illegal", func(t *testing.T) {
		strength, err := CalcStrength(shell, []int{-1, 1}, 0, 1)
		assert.ErrorIs(t, err, gbErrors.ErrIllegalParam)
		assert.Equal(t, IllegalGain, strength)
	})

	t.Run("out of range feature index is illegal", func(t *testing.T) {
		strength, err := CalcStrength(shell, []int{0, 2}, 0, 1)
		assert.ErrorIs(t, err, gbErrors.ErrIllegalParam)
		assert.Equal(t, IllegalGain, strength)
	})

	t.Run("single-bin feature scores zero", func(t *testing.T) {
		features := []FeatureRef{{BinCount: 1}, {BinCount: 3}}
		binCodes := [][]int{
			{0, 0, 0},
			{0, 1, 2},
		}
		ds, err := NewDataSet(0, features, binCodes, []float64{1, 2, 3}, nil)
		require.NoError(t, err)
		core, err := NewCore(ds)
		require.NoError(t, err)
		s, err := NewShell(core)
		require.NoError(t, err)

		strength, err := CalcStrength(s, []int{0, 1}, 0, 1)
		require.NoError(t, err)
		assert.Equal(t, 0.0, strength)
	})

	t.Run("zero samples scores zero", func(t *testing.T) {
		features := []FeatureRef{{BinCount: 2}, {BinCount: 3}}
		ds, err := NewDataSet(0, features, [][]int{{}, {}}, nil, nil)
		require.NoError(t, err)
		core, err := NewCore(ds)
		require.NoError(t, err)
		s, err := NewShell(core)
		require.NoError(t, err)

		strength, err := CalcStrength(s, []int{0, 1}, 0, 1)
		require.NoError(t, err)
		assert.Equal(t, 0.0, strength)
	})

	t.Run("one-class target scores zero", func(t *testing.T) {
		features := []FeatureRef{{BinCount: 2}, {BinCount: 2}}
		binCodes := [][]int{{0, 1}, {1, 0}}
		ds, err := NewDataSet(1, features, binCodes, []float64{0, 0}, []float64{0, 0})
		require.NoError(t, err)
		core, err := NewCore(ds)
		require.NoError(t, err)
		s, err := NewShell(core)
		require.NoError(t, err)

		strength, err := CalcStrength(s, []int{0, 1}, 0, 1)
		require.NoError(t, err)
		assert.Equal(t, 0.0, strength)
	})

	t.Run("three dimensions yield the illegal-gain sentinel", func(t *testing.T) {
		features := []FeatureRef{{BinCount: 2}, {BinCount: 2}, {BinCount: 2}}
		binCodes := [][]int{{0, 1}, {1, 0}, {0, 0}}
		ds, err := NewDataSet(0, features, binCodes, []float64{1, -1}, nil)
		require.NoError(t, err)
		core, err := NewCore(ds)
		require.NoError(t, err)
		s, err := NewShell(core)
		require.NoError(t, err)

		strength, err := CalcStrength(s, []int{0, 1, 2}, 0, 1)
		require.NoError(t, err)
		assert.Equal(t, IllegalGain, strength)
	})

	t.Run("unknown option bits are ignored", func(t *testing.T) {
		strength, err := CalcStrength(shell, []int{0, 1}, Options(0x80), 1)
		require.NoError(t, err)
		assert.Greater(t, strength, 0.0)
	})

	t.Run("min samples below one is clamped", func(t *testing.T) {
		want, err := CalcStrength(shell, []int{0, 1}, 0, 1)
		require.NoError(t, err)
		got, err := CalcStrength(shell, []int{0, 1}, 0, -5)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestCalcStrengthPairGain(t *testing.T) {
	t.Run("known grid normalizes the raw gain by total weight", func(t *testing.T) {
		shell := fixtureShell(t, []float64{1, 1, -1, -1, 2, -2})

		strength, err := CalcStrength(shell, []int{0, 1}, 0, 1)
		require.NoError(t, err)
		// best cut is after y bin 1: quadrant gains 0+0+4+4 = 8, over 6
		// samples of unit weight
		assert.InDelta(t, 8.0/6.0, strength, 1e-12)
	})

	t.Run("all-zero gradients score zero", func(t *testing.T) {
		shell := fixtureShell(t, []float64{0, 0, 0, 0, 0, 0})

		strength, err := CalcStrength(shell, []int{0, 1}, 0, 1)
		require.NoError(t, err)
		assert.Equal(t, 0.0, strength)
	})

	t.Run("unsatisfiable min samples scores zero", func(t *testing.T) {
		shell := fixtureShell(t, []float64{1, 1, -1, -1, 2, -2})

		strength, err := CalcStrength(shell, []int{0, 1}, 0, 100)
		require.NoError(t, err)
		assert.Equal(t, 0.0, strength)
	})

	t.Run("pure gain subtracts the parent term", func(t *testing.T) {
		shell := fixtureShell(t, []float64{1, 1, -1, -1, 2, -2})

		// the fixture's gradients sum to zero, so the parent partial gain
		// vanishes and pure equals unpure
		unpure, err := CalcStrength(shell, []int{0, 1}, 0, 1)
		require.NoError(t, err)
		pure, err := CalcStrength(shell, []int{0, 1}, OptionsPure, 1)
		require.NoError(t, err)
		assert.InDelta(t, unpure, pure, 1e-12)
	})

	t.Run("pure with no legal cut clamps to zero", func(t *testing.T) {
		shell := fixtureShell(t, []float64{1, 1, -1, -1, 2, -3})

		strength, err := CalcStrength(shell, []int{0, 1}, OptionsPure, 100)
		require.NoError(t, err)
		assert.Equal(t, 0.0, strength)
	})

	t.Run("reversed feature order scores the same", func(t *testing.T) {
		shell := fixtureShell(t, []float64{1, 1, -1, -1, 2, -2})

		forward, err := CalcStrength(shell, []int{0, 1}, 0, 1)
		require.NoError(t, err)
		backward, err := CalcStrength(shell, []int{1, 0}, 0, 1)
		require.NoError(t, err)
		assert.InDelta(t, forward, backward, 1e-12)
	})
}

func TestClassifyGain(t *testing.T) {
	t.Run("NaN becomes the sentinel", func(t *testing.T) {
		assert.Equal(t, IllegalGain, classifyGain(math.NaN()))
	})

	t.Run("positive infinity becomes the sentinel", func(t *testing.T) {
		assert.Equal(t, IllegalGain, classifyGain(math.Inf(1)))
	})

	t.Run("negative infinity becomes the sentinel", func(t *testing.T) {
		assert.Equal(t, IllegalGain, classifyGain(math.Inf(-1)))
	})

	t.Run("finite negatives clamp to zero", func(t *testing.T) {
		assert.Equal(t, 0.0, classifyGain(-1e-9))
		assert.Equal(t, 0.0, classifyGain(-1e300))
		assert.Equal(t, 0.0, classifyGain(-math.MaxFloat64))
	})

	t.Run("legal gains pass through", func(t *testing.T) {
		assert.Equal(t, 0.0, classifyGain(0))
		assert.Equal(t, 2.5, classifyGain(2.5))
		assert.Equal(t, math.MaxFloat64, classifyGain(math.MaxFloat64))
	})
}
