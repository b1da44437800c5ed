package store

import "github.com/roach88/lockstep/internal/ir"

// Mode values for Run.Mode.
const (
	ModeLocal   = "local"
	ModeOffload = "offload"
)

// Run is one recorded session: a dataset and the algorithms sorting it.
type Run struct {
	ID            string           `json:"id"`
	Seed          string           `json:"seed"`
	Size          int              `json:"size"`
	InitialValues []int            `json:"initial_values"`
	Mode          string           `json:"mode"`
	Speed         int              `json:"speed"`
	Algorithms    []ir.AlgorithmID `json:"algorithms"`
	EngineVersion string           `json:"engine_version"`
	IRVersion     string           `json:"ir_version"`

	// CreatedSeq orders runs. Assigned by WriteRun.
	CreatedSeq int64 `json:"created_seq"`
}

// StepRecord is one stored step of one algorithm.
type StepRecord struct {
	RunID     string         `json:"run_id"`
	Algorithm ir.AlgorithmID `json:"algorithm"`
	Seq       int64          `json:"seq"`
	Tick      int64          `json:"tick"`
	Ops       []ir.Op        `json:"ops"`
	Done      bool           `json:"done"`
}

// Result returns the record as a StepResult.
func (r StepRecord) Result() ir.StepResult {
	return ir.StepResult{Ops: r.Ops, Done: r.Done}
}
