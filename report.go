package qmcsim

// report.go assembles the results of a run into a Report that can be written
// to file or rendered as text for the user.

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/sugawarayuuta/sonnet"
	"gopkg.in/yaml.v3"
)

// Utilization summarizes the fraction of core capacity in use over a run
type Utilization struct {
	Avg float64 `json:"avg" yaml:"avg"`
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Report is the serializable outcome of a run
type Report struct {
	Circuit           CircuitSummary    `json:"circuit" yaml:"circuit"`
	Architecture      ArchDesc          `json:"architecture" yaml:"architecture"`
	ExecutedGates     int               `json:"executed_gates" yaml:"executed_gates"`
	IntercoreComms    int               `json:"intercore_comms" yaml:"intercore_comms"`
	IntercoreVolume   int               `json:"intercore_volume" yaml:"intercore_volume"`
	AvgThroughput     float64           `json:"avg_throughput" yaml:"avg_throughput"`
	MaxThroughput     float64           `json:"max_throughput" yaml:"max_throughput"`
	Utilization       Utilization       `json:"utilization" yaml:"utilization"`
	CommunicationTime CommunicationTime `json:"communication_time" yaml:"communication_time"`
	ComputationTime   float64           `json:"computation_time" yaml:"computation_time"`
	FetchTime         float64           `json:"fetch_time" yaml:"fetch_time"`
	DecodeTime        float64           `json:"decode_time" yaml:"decode_time"`
	DispatchTime      float64           `json:"dispatch_time" yaml:"dispatch_time"`
	ExecutionTime     float64           `json:"execution_time" yaml:"execution_time"`
	Coherence         float64           `json:"coherence" yaml:"coherence"`

	// detailed breakdowns, present only when asked for
	Intercore              [][]int `json:"intercore,omitempty" yaml:"intercore,omitempty"`
	OperationsPerQubit     []int   `json:"operations_per_qubit,omitempty" yaml:"operations_per_qubit,omitempty"`
	TeleportationsPerQubit []int   `json:"teleportations_per_qubit,omitempty" yaml:"teleportations_per_qubit,omitempty"`

	// Fingerprint identifies the inputs of the run
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
}

// Report builds the report of a run of circuit that ended with the given cores
func (st *Statistics) Report(circuit *Circuit, cores *Cores, arch *Architecture, detailed bool) *Report {
	rpt := &Report{Circuit: circuit.Summary(), Architecture: arch.Desc(),
		ExecutedGates: st.ExecutedGates, IntercoreComms: st.IntercoreComms, IntercoreVolume: st.IntercoreVolume,
		AvgThroughput: st.AvgThroughput, MaxThroughput: st.MaxThroughput,
		CommunicationTime: st.CommunicationTime, ComputationTime: st.ComputationTime,
		FetchTime: st.FetchTime, DecodeTime: st.DecodeTime, DispatchTime: st.DispatchTime,
		ExecutionTime: st.ExecutionTime(), Coherence: st.Coherence()}

	history := cores.History()
	rpt.Utilization.Avg, rpt.Utilization.Min, rpt.Utilization.Max = CoreUtilization(history, arch.QubitsPerCore)

	if detailed {
		rpt.Intercore = IntercoreCommunications(history, cores.NumCores())
		rpt.OperationsPerQubit = OperationsPerQubit(circuit)
		rpt.TeleportationsPerQubit = TeleportationsPerQubit(circuit, history)
	}
	return rpt
}

// WriteToFile stores the Report struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (rpt *Report) WriteToFile(filename string) error {
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error

	if pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml" {
		bytes, merr = yaml.Marshal(*rpt)
	} else if pathExt == ".json" || pathExt == ".JSON" {
		bytes, merr = sonnet.Marshal(*rpt)
	} else {
		bytes = []byte(rpt.Text())
	}
	if merr != nil {
		return merr
	}
	return os.WriteFile(filename, bytes, 0o644)
}

// Text renders the report for reading
func (rpt *Report) Text() string {
	var sb strings.Builder
	sb.WriteString("*** Circuit ***\n")
	sb.WriteString(rpt.Circuit.String() + "\n\n")

	sb.WriteString("*** Statistics ***\n")
	fmt.Fprintf(&sb, "Executed gates: %d\n", rpt.ExecutedGates)
	fmt.Fprintf(&sb, "Intercore communications: %d\n", rpt.IntercoreComms)
	fmt.Fprintf(&sb, "Intercore traffic volume (bits): %d\n", rpt.IntercoreVolume)
	fmt.Fprintf(&sb, "Throughput (Mbps): %g avg, %g peak\n", rpt.AvgThroughput/1.0e6, rpt.MaxThroughput/1.0e6)
	fmt.Fprintf(&sb, "Core utilization: %g avg, %g min, %g max\n",
		rpt.Utilization.Avg, rpt.Utilization.Min, rpt.Utilization.Max)

	if rpt.Intercore != nil {
		sb.WriteString("Intercore communications (row is source, col is target):\n")
		for _, row := range rpt.Intercore {
			sb.WriteString(joinInts(row, " ") + "\n")
		}
	}
	if rpt.OperationsPerQubit != nil {
		sb.WriteString("Operations per qubit: " + joinInts(rpt.OperationsPerQubit, ", ") + "\n")
	}
	if rpt.TeleportationsPerQubit != nil {
		sb.WriteString("Teleportations per qubit: " + joinInts(rpt.TeleportationsPerQubit, ", ") + "\n")
	}

	sb.WriteString(rpt.CommunicationTime.String())
	fmt.Fprintf(&sb, "Computation time (s): %g\n", rpt.ComputationTime)
	fmt.Fprintf(&sb, "Fetch time (s): %g\n", rpt.FetchTime)
	fmt.Fprintf(&sb, "Decode time (s): %g\n", rpt.DecodeTime)
	fmt.Fprintf(&sb, "Dispatch time (s): %g\n", rpt.DispatchTime)
	fmt.Fprintf(&sb, "Execution time (s): %g\n", rpt.ExecutionTime)
	fmt.Fprintf(&sb, "Coherence (%%): %g\n", rpt.Coherence)
	return sb.String()
}

func joinInts(values []int, sep string) string {
	parts := make([]string, len(values))
	for idx, v := range values {
		parts[idx] = fmt.Sprint(v)
	}
	return strings.Join(parts, sep)
}
