package interaction

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/glassbox/core/histogram"
	"github.com/ezoic/glassbox/pkg/errors"
)

// DataSet holds the binned samples an interaction query aggregates: one bin
// code per sample per feature, the model's current gradients (and hessians
// for classification), and optional sample weights.
type DataSet struct {
	features []FeatureRef
	// binCodes[iFeature][iSample] is the ordinal bin of a sample's value
	binCodes  [][]int
	gradients []float64 // sampleCount x scoreCount, row-major
	hessians  []float64 // sampleCount x scoreCount, classification only
	weights   []float64 // nil means unit weights

	sampleCount int
	totalWeight float64

	// classCount is the number of target classes, 0 for regression
	classCount int
	task       histogram.Task
}

// DataSetOption configures optional dataset fields.
type DataSetOption func(*DataSet)

// WithWeights sets per-sample weights. Weights must be non-negative; if they
// are all zero the dataset is treated as unweighted. When omitted every
// sample weighs 1.
func WithWeights(weights []float64) DataSetOption {
	return func(ds *DataSet) {
		ds.weights = weights
	}
}

// NewDataSet builds a dataset from binned feature codes. classCount is 0 for
// regression; for classification, hessians must be supplied alongside
// gradients. Gradients (and hessians) are row-major sampleCount x scoreCount.
func NewDataSet(classCount int, features []FeatureRef, binCodes [][]int,
	gradients, hessians []float64, opts ...DataSetOption) (*DataSet, error) {

	const op = "interaction.NewDataSet"

	if len(features) != len(binCodes) {
		return nil, errors.NewDimensionError(op, len(features), len(binCodes), 0)
	}
	var task histogram.Task
	if classCount == 0 {
		task = histogram.NewRegressionTask()
	} else {
		task = histogram.NewClassificationTask(classCount)
	}

	sampleCount := 0
	if len(gradients) > 0 {
		if len(gradients)%task.ScoreCount != 0 {
			return nil, errors.NewValueError(op, "gradient length is not a multiple of the score count")
		}
		sampleCount = len(gradients) / task.ScoreCount
	}
	for iFeature, codes := range binCodes {
		if len(codes) != sampleCount {
			return nil, errors.NewDimensionError(op, sampleCount, len(codes), iFeature)
		}
		binCount := features[iFeature].BinCount
		if binCount < 1 {
			return nil, errors.NewValueError(op, "feature bin count must be at least 1")
		}
		for _, code := range codes {
			if code < 0 || binCount <= code {
				return nil, errors.NewValueError(op, "bin code out of range for feature")
			}
		}
	}
	if task.Classification {
		if len(hessians) != len(gradients) {
			return nil, errors.NewDimensionError(op, len(gradients), len(hessians), 0)
		}
	} else if hessians != nil {
		return nil, errors.NewValueError(op, "hessians are only meaningful for classification")
	}

	ds := &DataSet{
		features:    features,
		binCodes:    binCodes,
		gradients:   gradients,
		hessians:    hessians,
		sampleCount: sampleCount,
		classCount:  classCount,
		task:        task,
	}
	for _, opt := range opts {
		opt(ds)
	}

	if ds.weights != nil {
		if len(ds.weights) != sampleCount {
			return nil, errors.NewDimensionError(op, sampleCount, len(ds.weights), 0)
		}
		total := 0.0
		for _, w := range ds.weights {
			if w < 0 {
				return nil, errors.NewValueError(op, "sample weights must be non-negative")
			}
			total += w
		}
		if total <= 0 && sampleCount > 0 {
			// all-zero weights carry no information; treat as unweighted so
			// the total stays strictly positive whenever samples exist
			ds.weights = nil
			total = float64(sampleCount)
		}
		ds.totalWeight = total
	} else {
		ds.totalWeight = float64(sampleCount)
	}
	return ds, nil
}

// NewDataSetFromMatrix bins a raw feature matrix with per-column quantile
// BinMappers and builds the dataset from the result. It returns the mappers
// so callers can bin future data consistently.
func NewDataSetFromMatrix(classCount int, X mat.Matrix, gradients, hessians []float64,
	maxBins int, opts ...DataSetOption) (*DataSet, []*BinMapper, error) {

	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return nil, nil, errors.Wrap(errors.ErrEmptyData, "interaction.NewDataSetFromMatrix")
	}

	features := make([]FeatureRef, cols)
	binCodes := make([][]int, cols)
	mappers := make([]*BinMapper, cols)
	column := make([]float64, rows)
	for iFeature := 0; iFeature < cols; iFeature++ {
		for iSample := 0; iSample < rows; iSample++ {
			column[iSample] = X.At(iSample, iFeature)
		}
		mapper := NewBinMapper(iFeature, column, maxBins)
		codes := make([]int, rows)
		for iSample, v := range column {
			codes[iSample] = mapper.FindBin(v)
		}
		mappers[iFeature] = mapper
		features[iFeature] = FeatureRef{BinCount: mapper.NumBins}
		binCodes[iFeature] = codes
	}

	ds, err := NewDataSet(classCount, features, binCodes, gradients, hessians, opts...)
	if err != nil {
		return nil, nil, err
	}
	return ds, mappers, nil
}

// SampleCount returns the number of samples.
func (ds *DataSet) SampleCount() int { return ds.sampleCount }

// TotalWeight returns the summed sample weight. It is strictly positive
// whenever the dataset holds any samples.
func (ds *DataSet) TotalWeight() float64 { return ds.totalWeight }

// FeatureCount returns the number of features.
func (ds *DataSet) FeatureCount() int { return len(ds.features) }

// Feature returns the descriptor of feature i.
func (ds *DataSet) Feature(i int) FeatureRef { return ds.features[i] }

// ClassCount returns the number of target classes, 0 for regression.
func (ds *DataSet) ClassCount() int { return ds.classCount }

// Task returns the histogram task descriptor for this dataset.
func (ds *DataSet) Task() histogram.Task { return ds.task }

// weight returns the weight of one sample.
func (ds *DataSet) weight(iSample int) float64 {
	if ds.weights == nil {
		return 1
	}
	return ds.weights[iSample]
}

// sampleGradients returns one sample's gradient vector.
func (ds *DataSet) sampleGradients(iSample int) []float64 {
	s := ds.task.ScoreCount
	return ds.gradients[iSample*s : (iSample+1)*s]
}

// sampleHessians returns one sample's hessian vector, nil for regression.
func (ds *DataSet) sampleHessians(iSample int) []float64 {
	if !ds.task.Classification {
		return nil
	}
	s := ds.task.ScoreCount
	return ds.hessians[iSample*s : (iSample+1)*s]
}
