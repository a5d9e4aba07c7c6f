package qmcsim

// trace.go gathers a record of what happened at each stage of a simulation run,
// for post-run inspection.  Stage records carry the simulated time at which the
// stage started.

import (
	"os"
	"path"
	"strconv"

	"github.com/iti/evt/vrtime"
	"github.com/sugawarayuuta/sonnet"
	"gopkg.in/yaml.v3"
)

// StageTrace records the execution of one stage
type StageTrace struct {
	// position of the stage in the circuit as rewritten by mesh expansion
	Index int `json:"index" yaml:"index"`

	// simulated start time of the stage, in seconds
	Time float64 `json:"time" yaml:"time"`

	LocalGates  int `json:"localgates" yaml:"localgates"`
	RemoteGates int `json:"remotegates" yaml:"remotegates"`

	// number of admission rounds needed to execute the remote gates
	Rounds int `json:"rounds" yaml:"rounds"`

	Comms    int     `json:"comms" yaml:"comms"`
	Volume   int     `json:"volume" yaml:"volume"`
	CommTime float64 `json:"commtime" yaml:"commtime"`
	ExecTime float64 `json:"exectime" yaml:"exectime"`

	// Expanded is the number of stages the original stage was rewritten into, 0 if untouched
	Expanded int `json:"expanded,omitempty" yaml:"expanded,omitempty"`

	AncillasAllocated []string `json:"ancillasallocated,omitempty" yaml:"ancillasallocated,omitempty"`
	AncillasReleased  []string `json:"ancillasreleased,omitempty" yaml:"ancillasreleased,omitempty"`
}

// TraceManager gathers information about an execution of a circuit
type TraceManager struct {
	// experiment uses trace
	InUse bool `json:"inuse" yaml:"inuse"`

	// name of experiment
	ExpName string `json:"expname" yaml:"expname"`

	// all stage records for this experiment, in execution order
	Stages []StageTrace `json:"stages" yaml:"stages"`
}

// CreateTraceManager is a constructor.  It saves the name of the experiment
// and a flag indicating whether the trace manager is active.  By testing this
// flag we can inhibit the activity of gathering a trace when we don't want it,
// while embedding calls to its methods everywhere we need them when it is
func CreateTraceManager(expName string, active bool) *TraceManager {
	tm := new(TraceManager)
	tm.InUse = active
	tm.ExpName = expName
	tm.Stages = make([]StageTrace, 0)
	return tm
}

// Active tells the caller whether the Trace Manager is actively being used
func (tm *TraceManager) Active() bool {
	return tm != nil && tm.InUse
}

// AddStage stamps the record with the stage start time and stores it
func (tm *TraceManager) AddStage(vrt vrtime.Time, st StageTrace) {
	// return if we aren't using the trace manager
	if !tm.Active() {
		return
	}
	st.Time = vrt.Seconds()
	tm.Stages = append(tm.Stages, st)
}

// qubitNames is the string form of a list of qubits, for trace records
func qubitNames(qbs []Qubit) []string {
	if len(qbs) == 0 {
		return nil
	}
	names := make([]string, len(qbs))
	for idx, q := range qbs {
		names[idx] = q.String()
	}
	return names
}

// WriteToFile stores the TraceManager struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
// The return flag is false if the trace manager is inactive and nothing was written.
func (tm *TraceManager) WriteToFile(filename string) (bool, error) {
	if !tm.Active() {
		return false, nil
	}

	var bytes []byte
	var merr error
	pathExt := path.Ext(filename)
	if pathExt == ".json" || pathExt == ".JSON" {
		bytes, merr = sonnet.Marshal(*tm)
	} else {
		bytes, merr = yaml.Marshal(*tm)
	}
	if merr != nil {
		return false, merr
	}

	if werr := os.WriteFile(filename, bytes, 0o644); werr != nil {
		return false, werr
	}
	return true, nil
}

func (st StageTrace) String() string {
	return "stage " + strconv.Itoa(st.Index) + " at " + strconv.FormatFloat(st.Time, 'g', -1, 64) +
		"s: " + strconv.Itoa(st.LocalGates) + " local, " + strconv.Itoa(st.RemoteGates) + " remote in " +
		strconv.Itoa(st.Rounds) + " rounds, " + strconv.Itoa(st.Comms) + " comms"
}
