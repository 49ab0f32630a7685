// Command interactions ranks feature pairs of a dataset by interaction
// strength. Features and labels come from .npy matrices, so a Python
// training pipeline can hand its data straight over:
//
//	interactions -x features.npy -y labels.npy -bins 32 -top 20 -heatmap pairs.png
//
// Gradients are the cold-start gradients an outer boosting loop would
// produce on its first round: residuals against the label mean for
// regression, logistic gradients at the base rate for classification.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ezoic/glassbox/interaction"
	"github.com/ezoic/glassbox/pkg/log"
)

func main() {
	var (
		xPath       = flag.String("x", "", "path to the feature matrix (.npy, samples x features)")
		yPath       = flag.String("y", "", "path to the label vector (.npy)")
		weightsPath = flag.String("weights", "", "optional path to sample weights (.npy)")
		task        = flag.String("task", "auto", "target type: auto, regression or classification")
		maxBins     = flag.Int("bins", 32, "maximum bins per feature")
		minSamples  = flag.Int("min-samples", 1, "minimum samples per partition quadrant")
		pure        = flag.Bool("pure", false, "subtract the parent partial gain (impure component only)")
		top         = flag.Int("top", 20, "number of pairs to print")
		heatmap     = flag.String("heatmap", "", "optional path for a strength heatmap PNG")
		level       = flag.String("log-level", "warn", "log level")
	)
	flag.Parse()
	log.SetupLogger(*level)
	logger := log.GetLoggerWithName("interactions")

	if *xPath == "" || *yPath == "" {
		fmt.Fprintln(os.Stderr, "usage: interactions -x features.npy -y labels.npy [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	X := readNpy(*xPath)
	yMat := readNpy(*yPath)
	labels := flatten(yMat)
	rows, cols := X.Dims()
	if len(labels) != rows {
		logger.Error("label count does not match feature rows", "labels", len(labels), "rows", rows)
		os.Exit(1)
	}

	classCount := resolveTask(*task, labels)
	gradients, hessians := coldStartGradients(classCount, labels)

	var opts []interaction.DataSetOption
	if *weightsPath != "" {
		opts = append(opts, interaction.WithWeights(flatten(readNpy(*weightsPath))))
	}

	ds, _, err := interaction.NewDataSetFromMatrix(classCount, X, gradients, hessians, *maxBins, opts...)
	if err != nil {
		log.LogError(err, "building dataset")
		os.Exit(1)
	}
	core, err := interaction.NewCore(ds)
	if err != nil {
		log.LogError(err, "building core")
		os.Exit(1)
	}
	shell, err := interaction.NewShell(core)
	if err != nil {
		log.LogError(err, "building shell")
		os.Exit(1)
	}

	var options interaction.Options
	if *pure {
		options |= interaction.OptionsPure
	}

	type pair struct {
		i, j     int
		strength float64
	}
	pairs := make([]pair, 0, cols*(cols-1)/2)
	strengths := mat.NewDense(cols, cols, nil)
	for i := 0; i < cols; i++ {
		for j := i + 1; j < cols; j++ {
			s, err := interaction.CalcStrength(shell, []int{i, j}, options, *minSamples)
			if err != nil {
				log.LogError(err, fmt.Sprintf("scoring pair (%d,%d)", i, j))
				os.Exit(1)
			}
			pairs = append(pairs, pair{i: i, j: j, strength: s})
			if s != interaction.IllegalGain {
				strengths.Set(i, j, s)
				strengths.Set(j, i, s)
			}
		}
	}

	sort.Slice(pairs, func(a, b int) bool { return pairs[a].strength > pairs[b].strength })
	limit := *top
	if len(pairs) < limit {
		limit = len(pairs)
	}
	fmt.Printf("%-10s %-10s %s\n", "feature_a", "feature_b", "strength")
	for _, p := range pairs[:limit] {
		if p.strength == interaction.IllegalGain {
			fmt.Printf("%-10d %-10d unscored\n", p.i, p.j)
			continue
		}
		fmt.Printf("%-10d %-10d %.6g\n", p.i, p.j, p.strength)
	}

	if *heatmap != "" {
		if err := saveHeatmap(*heatmap, strengths); err != nil {
			log.LogError(err, "rendering heatmap")
			os.Exit(1)
		}
		logger.Info("wrote heatmap", "path", *heatmap)
	}
}

func readNpy(path string) *mat.Dense {
	f, err := os.Open(path)
	if err != nil {
		log.LogError(err, "opening "+path)
		os.Exit(1)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		log.LogError(err, "reading npy header of "+path)
		os.Exit(1)
	}
	m := &mat.Dense{}
	if err := r.Read(m); err != nil {
		log.LogError(err, "reading npy data of "+path)
		os.Exit(1)
	}
	return m
}

func flatten(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}

// resolveTask maps the -task flag to a class count (0 for regression). Auto
// detection treats small non-negative integer label sets as classes.
func resolveTask(task string, labels []float64) int {
	switch task {
	case "regression":
		return 0
	case "classification":
		return countClasses(labels)
	}
	maxLabel := 0.0
	for _, y := range labels {
		if y != math.Trunc(y) || y < 0 || y > 64 {
			return 0
		}
		if maxLabel < y {
			maxLabel = y
		}
	}
	return int(maxLabel) + 1
}

func countClasses(labels []float64) int {
	maxLabel := 0.0
	for _, y := range labels {
		if maxLabel < y {
			maxLabel = y
		}
	}
	return int(maxLabel) + 1
}

// coldStartGradients produces round-zero boosting gradients: residuals
// against the mean for regression, logistic gradients at the base rate for
// classification.
func coldStartGradients(classCount int, labels []float64) (gradients, hessians []float64) {
	n := len(labels)
	if classCount == 0 {
		mean := 0.0
		for _, y := range labels {
			mean += y
		}
		if n > 0 {
			mean /= float64(n)
		}
		gradients = make([]float64, n)
		for i, y := range labels {
			gradients[i] = mean - y
		}
		return gradients, nil
	}

	scoreCount := classCount
	if classCount == 2 {
		scoreCount = 1
	}
	base := make([]float64, scoreCount)
	for _, y := range labels {
		if classCount == 2 {
			base[0] += y
		} else {
			base[int(y)]++
		}
	}
	for k := range base {
		base[k] /= float64(n)
	}

	gradients = make([]float64, n*scoreCount)
	hessians = make([]float64, n*scoreCount)
	for i, y := range labels {
		for k := 0; k < scoreCount; k++ {
			p := base[k]
			target := 0.0
			if (classCount == 2 && y != 0) || (classCount > 2 && int(y) == k) {
				target = 1
			}
			gradients[i*scoreCount+k] = p - target
			hessians[i*scoreCount+k] = p * (1 - p)
		}
	}
	return gradients, hessians
}

// strengthGrid adapts a symmetric strength matrix to plotter.GridXYZ.
type strengthGrid struct{ m *mat.Dense }

func (g strengthGrid) Dims() (int, int)   { r, c := g.m.Dims(); return c, r }
func (g strengthGrid) X(c int) float64    { return float64(c) }
func (g strengthGrid) Y(r int) float64    { return float64(r) }
func (g strengthGrid) Z(c, r int) float64 { return g.m.At(r, c) }

func saveHeatmap(path string, strengths *mat.Dense) error {
	p := plot.New()
	p.Title.Text = "Pairwise interaction strength"
	p.X.Label.Text = "feature"
	p.Y.Label.Text = "feature"

	hm := plotter.NewHeatMap(strengthGrid{m: strengths}, palette.Heat(12, 1))
	p.Add(hm)
	return p.Save(6*vg.Inch, 6*vg.Inch, path)
}
