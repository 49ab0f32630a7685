package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	gbErrors "github.com/ezoic/glassbox/pkg/errors"
)

func TestNewDataSet(t *testing.T) {
	features := []FeatureRef{{BinCount: 2}, {BinCount: 3}}
	binCodes := [][]int{
		{0, 1, 0},
		{2, 1, 0},
	}

	t.Run("valid regression dataset", func(t *testing.T) {
		ds, err := NewDataSet(0, features, binCodes, []float64{1, 2, 3}, nil)
		require.NoError(t, err)

		assert.Equal(t, 3, ds.SampleCount())
		assert.Equal(t, 3.0, ds.TotalWeight())
		assert.Equal(t, 2, ds.FeatureCount())
		assert.Equal(t, 0, ds.ClassCount())
		assert.False(t, ds.Task().Classification)
	})

	t.Run("weights drive the total weight", func(t *testing.T) {
		ds, err := NewDataSet(0, features, binCodes, []float64{1, 2, 3}, nil,
			WithWeights([]float64{0.5, 1.5, 2.0}))
		require.NoError(t, err)
		assert.Equal(t, 4.0, ds.TotalWeight())
	})

	t.Run("all-zero weights fall back to counts", func(t *testing.T) {
		ds, err := NewDataSet(0, features, binCodes, []float64{1, 2, 3}, nil,
			WithWeights([]float64{0, 0, 0}))
		require.NoError(t, err)
		assert.Equal(t, 3.0, ds.TotalWeight())
	})

	t.Run("negative weights are rejected", func(t *testing.T) {
		_, err := NewDataSet(0, features, binCodes, []float64{1, 2, 3}, nil,
			WithWeights([]float64{1, -1, 1}))
		assert.Error(t, err)
	})

	t.Run("bin code out of range is rejected", func(t *testing.T) {
		bad := [][]int{
			{0, 2, 0}, // feature 0 has only 2 bins
			{0, 1, 0},
		}
		_, err := NewDataSet(0, features, bad, []float64{1, 2, 3}, nil)
		assert.Error(t, err)
	})

	t.Run("mismatched code lengths are rejected", func(t *testing.T) {
		bad := [][]int{
			{0, 1, 0},
			{0, 1},
		}
		_, err := NewDataSet(0, features, bad, []float64{1, 2, 3}, nil)
		var dimErr *gbErrors.DimensionError
		assert.ErrorAs(t, err, &dimErr)
	})

	t.Run("classification requires hessians", func(t *testing.T) {
		_, err := NewDataSet(2, features, binCodes, []float64{1, 2, 3}, nil)
		assert.Error(t, err)

		ds, err := NewDataSet(2, features, binCodes,
			[]float64{0.2, -0.8, 0.4}, []float64{0.16, 0.16, 0.24})
		require.NoError(t, err)
		assert.True(t, ds.Task().Classification)
		assert.Equal(t, 2, ds.ClassCount())
	})

	t.Run("regression rejects hessians", func(t *testing.T) {
		_, err := NewDataSet(0, features, binCodes, []float64{1, 2, 3}, []float64{1, 2, 3})
		assert.Error(t, err)
	})

	t.Run("multiclass gradient stride", func(t *testing.T) {
		grads := []float64{
			0.1, 0.2, 0.3,
			0.4, 0.5, 0.6,
			0.7, 0.8, 0.9,
		}
		hess := make([]float64, 9)
		ds, err := NewDataSet(3, features, binCodes, grads, hess)
		require.NoError(t, err)
		assert.Equal(t, 3, ds.SampleCount())
		assert.Equal(t, []float64{0.4, 0.5, 0.6}, ds.sampleGradients(1))
	})
}

func TestNewDataSetFromMatrix(t *testing.T) {
	t.Run("bins every column", func(t *testing.T) {
		X := mat.NewDense(6, 2, []float64{
			1, 10,
			2, 20,
			3, 30,
			4, 40,
			5, 50,
			6, 60,
		})
		grads := []float64{1, -1, 1, -1, 1, -1}

		ds, mappers, err := NewDataSetFromMatrix(0, X, grads, nil, 3)
		require.NoError(t, err)

		assert.Len(t, mappers, 2)
		assert.Equal(t, 6, ds.SampleCount())
		for i := 0; i < ds.FeatureCount(); i++ {
			assert.GreaterOrEqual(t, ds.Feature(i).BinCount, 2)
			assert.LessOrEqual(t, ds.Feature(i).BinCount, 3)
		}
	})

	t.Run("empty matrix is rejected", func(t *testing.T) {
		_, _, err := NewDataSetFromMatrix(0, &mat.Dense{}, nil, nil, 3)
		assert.ErrorIs(t, err, gbErrors.ErrEmptyData)
	})
}
