package interaction

import (
	"math"

	"github.com/ezoic/glassbox/core/histogram"
	"github.com/ezoic/glassbox/pkg/errors"
	"github.com/ezoic/glassbox/pkg/log"
)

// Options is the bitset of interaction scoring options.
type Options uint64

const (
	// OptionsPure requests the impure-interaction-only component: the parent
	// partial gain is subtracted from the best pair gain at the end of
	// partitioning.
	OptionsPure Options = 0x1
)

// optionsKnown masks the recognized option bits.
const optionsKnown = OptionsPure

// IllegalGain is returned for candidates that could not be scored: pairs
// the engine does not handle and gains that overflowed. It is the most
// negative finite float64 rather than NaN or -Inf so that importance
// rankings order unscored candidates last without special cases.
const IllegalGain = -math.MaxFloat64

// cLogCalcStrengthParams rate-limits the process-wide parameter dump.
var cLogCalcStrengthParams = log.NewCounted(10)

// CalcStrength scores one interaction candidate: the average gain a
// two-dimensional partition of the given features would extract, normalized
// by the dataset's total sample weight.
//
// The returned strength is always either a non-negative finite gain, zero
// for degenerate-but-valid queries (no features, a single-bin feature, no
// samples, a one-class target), or IllegalGain for candidates the engine
// cannot score (groups of other than two significant dimensions, numeric
// overflow in the gain). Errors also carry IllegalGain as the value so an
// ignored error still reads as "skip this candidate".
//
// minSamplesChildSplit below 1 is clamped to 1. Unknown option bits are
// logged and ignored.
func CalcStrength(shell *Shell, featureIndexes []int, options Options,
	minSamplesChildSplit int) (float64, error) {

	logger := log.GetLoggerWithName("interaction")
	cLogCalcStrengthParams.Log(logger, "CalcStrength",
		"countDimensions", len(featureIndexes),
		"options", uint64(options),
		"minSamplesChildSplit", minSamplesChildSplit)

	if shell == nil {
		return IllegalGain, errors.Wrap(errors.ErrIllegalParam, "CalcStrength shell cannot be nil")
	}
	shell.cLogEnter.Log(logger, "entered CalcStrength")

	if options&^optionsKnown != 0 {
		logger.Error("CalcStrength options contains unknown flags, ignoring extras",
			"options", uint64(options))
		options &= optionsKnown
	}

	if minSamplesChildSplit < 1 {
		logger.Warn("CalcStrength minSamplesChildSplit can't be less than 1, adjusting to 1")
		minSamplesChildSplit = 1
	}

	if len(featureIndexes) == 0 {
		logger.Info("CalcStrength empty feature list")
		return 0, nil
	}
	if MaxDimensions < len(featureIndexes) {
		logger.Warn("CalcStrength dimension count too large and would cause out of memory condition")
		return IllegalGain, errors.Wrap(errors.ErrOutOfMemory, "CalcStrength dimension count")
	}

	core := shell.core
	ds := core.dataset

	group := &FeatureGroup{
		Indexes:               featureIndexes,
		Refs:                  make([]FeatureRef, len(featureIndexes)),
		SignificantDimensions: len(featureIndexes),
	}
	for i, iFeature := range featureIndexes {
		if iFeature < 0 {
			return IllegalGain, errors.Wrap(errors.ErrIllegalParam,
				"CalcStrength feature index cannot be negative")
		}
		if core.FeatureCount() <= iFeature {
			return IllegalGain, errors.Wrap(errors.ErrIllegalParam,
				"CalcStrength feature index must be less than the number of features")
		}
		ref := ds.Feature(iFeature)
		if ref.BinCount <= 1 {
			// a one-bin feature cannot interact with anything
			logger.Info("CalcStrength feature group contains a feature with only 1 bin")
			return 0, nil
		}
		group.Refs[i] = ref
	}

	if ds.SampleCount() == 0 {
		// with zero samples there is no basis to claim an interaction
		logger.Info("CalcStrength zero samples")
		return 0, nil
	}
	if ds.ClassCount() == 1 {
		logger.Info("CalcStrength target with 1 class perfectly predicts the target")
		return 0, nil
	}

	strength, err := calcStrengthInternal(shell, group, options, minSamplesChildSplit)
	if err != nil {
		logger.Warn("CalcStrength failed", "error", err)
		return IllegalGain, err
	}
	shell.cLogExit.Log(logger, "exited CalcStrength", "avgStrength", strength)
	return strength, nil
}

// calcStrengthInternal runs the sized query: bin, build totals, partition,
// normalize and classify the raw gain.
func calcStrengthInternal(shell *Shell, group *FeatureGroup, options Options,
	minSamplesChildSplit int) (float64, error) {

	logger := log.GetLoggerWithName("interaction")
	logger.Trace("entered calcStrengthInternal")

	ds := shell.core.dataset
	binCounts := group.BinCounts()
	if err := shell.arena.Size(binCounts, ds.Task()); err != nil {
		return IllegalGain, err
	}

	BinInteraction(&shell.arena, group, ds)
	histogram.TotalsBuild(&shell.arena, binCounts)

	if group.SignificantDimensions != 2 {
		// only pairs are handled; report the candidate as unscorable rather
		// than guess at a higher-order gain
		logger.Warn("calcStrengthInternal unsupported dimension count",
			"significantDimensions", group.SignificantDimensions)
		return IllegalGain, nil
	}

	logger.Trace("calcStrengthInternal starting bin sweep")
	bestGain := PartitionTwoDimensionalInteraction(&shell.arena, group, options, minSamplesChildSplit)

	// if totalWeight were below 1 the gain could overflow to +Inf, so divide
	// before classifying
	bestGain = classifyGain(bestGain / ds.TotalWeight())

	logger.Trace("exited calcStrengthInternal")
	return bestGain, nil
}

// classifyGain maps a raw normalized gain onto the legal output range:
// zero, a non-negative finite gain, or IllegalGain. NaN and infinities never
// escape to callers.
func classifyGain(bestGain float64) float64 {
	switch {
	case !(bestGain <= math.MaxFloat64):
		// NaN or +Inf: numerical overflow in the sweep
		return IllegalGain
	case bestGain < 0:
		// gain cannot legally be negative, but it can get here two ways:
		// float noise from subtracting the parent partial gain, or a pure
		// query with no legal cut at all, where the uncut partial gain was
		// zero before the parent term came off. Both read as "no
		// interaction"; anything below the finite range is an overflow.
		if -math.MaxFloat64 <= bestGain {
			return 0
		}
		return IllegalGain
	}
	return bestGain
}
