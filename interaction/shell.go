package interaction

import (
	"github.com/ezoic/glassbox/core/histogram"
	"github.com/ezoic/glassbox/pkg/errors"
	"github.com/ezoic/glassbox/pkg/log"
)

// Core bundles the immutable inputs of interaction scoring: the feature
// list, the binned dataset and the task descriptor. A core can back any
// number of shells.
type Core struct {
	dataset *DataSet
}

// NewCore wraps a dataset for interaction scoring.
func NewCore(dataset *DataSet) (*Core, error) {
	if dataset == nil {
		return nil, errors.NewValueError("interaction.NewCore", "dataset cannot be nil")
	}
	return &Core{dataset: dataset}, nil
}

// DataSet returns the backing dataset.
func (c *Core) DataSet() *DataSet { return c.dataset }

// FeatureCount returns the number of features available for grouping.
func (c *Core) FeatureCount() int { return c.dataset.FeatureCount() }

// Shell owns the mutable per-worker state of interaction scoring: the
// histogram arena, which is re-grown but never released between queries,
// and the rate-limited query loggers. A Shell is the handle callers pass to
// CalcStrength and must not be shared across goroutines; workers scoring
// candidates in parallel each hold their own shell over a shared core.
type Shell struct {
	core  *Core
	arena histogram.Arena

	cLogEnter *log.Counted
	cLogExit  *log.Counted
}

// shellLogRate is how many queries per shell log at info level before the
// enter/exit messages decay to debug.
const shellLogRate = 10

// NewShell creates a worker shell over a core.
func NewShell(core *Core) (*Shell, error) {
	if core == nil {
		return nil, errors.NewValueError("interaction.NewShell", "core cannot be nil")
	}
	return &Shell{
		core:      core,
		cLogEnter: log.NewCounted(shellLogRate),
		cLogExit:  log.NewCounted(shellLogRate),
	}, nil
}

// Core returns the shell's core.
func (s *Shell) Core() *Core { return s.core }
