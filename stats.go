package qmcsim

// stats.go accumulates the results of executing the stages of a circuit, and
// derives from the history of core occupancy the metrics that can only be
// computed once the run is over.

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// coherenceTime is the characteristic decoherence time constant, in seconds
const coherenceTime = 268e-6

// CommunicationTime splits the time of remote execution into its five phases
type CommunicationTime struct {
	EPR  float64 `json:"epr" yaml:"epr"`   // EPR pair generation
	Dist float64 `json:"dist" yaml:"dist"` // EPR pair distribution
	Pre  float64 `json:"pre" yaml:"pre"`   // pre-processing
	Clas float64 `json:"clas" yaml:"clas"` // classical transfer over the NoC
	Post float64 `json:"post" yaml:"post"` // post-processing
}

// Total sums the five phases
func (ct CommunicationTime) Total() float64 {
	return ct.EPR + ct.Dist + ct.Pre + ct.Clas + ct.Post
}

// Add accumulates another CommunicationTime into ct
func (ct *CommunicationTime) Add(other CommunicationTime) {
	ct.EPR += other.EPR
	ct.Dist += other.Dist
	ct.Pre += other.Pre
	ct.Clas += other.Clas
	ct.Post += other.Post
}

func (ct CommunicationTime) String() string {
	var sb strings.Builder
	sb.WriteString("Communication time (s):\n")
	fmt.Fprintf(&sb, "\tEPR generation: %g\n", ct.EPR)
	fmt.Fprintf(&sb, "\tEPR distribution: %g\n", ct.Dist)
	fmt.Fprintf(&sb, "\tpre-processing: %g\n", ct.Pre)
	fmt.Fprintf(&sb, "\tclassical transfer: %g\n", ct.Clas)
	fmt.Fprintf(&sb, "\tpost-processing: %g\n", ct.Post)
	fmt.Fprintf(&sb, "\ttotal: %g\n", ct.Total())
	return sb.String()
}

// Statistics holds the results of executing one stage, or the running totals over a circuit
type Statistics struct {
	ExecutedGates     int               `json:"executed_gates" yaml:"executed_gates"`
	IntercoreComms    int               `json:"intercore_comms" yaml:"intercore_comms"`
	IntercoreVolume   int               `json:"intercore_volume" yaml:"intercore_volume"`
	CommunicationTime CommunicationTime `json:"communication_time" yaml:"communication_time"`
	ComputationTime   float64           `json:"computation_time" yaml:"computation_time"`
	FetchTime         float64           `json:"fetch_time" yaml:"fetch_time"`
	DecodeTime        float64           `json:"decode_time" yaml:"decode_time"`
	DispatchTime      float64           `json:"dispatch_time" yaml:"dispatch_time"`

	// throughput samples, bits per second
	AvgThroughput float64 `json:"avg_throughput" yaml:"avg_throughput"`
	MaxThroughput float64 `json:"max_throughput" yaml:"max_throughput"`
	Samples       int     `json:"samples" yaml:"samples"`
}

// CreateStatistics is a constructor, all totals zero
func CreateStatistics() *Statistics {
	return new(Statistics)
}

// Update adds the results of one stage to the running totals, and takes th as a
// throughput sample if it is positive
func (st *Statistics) Update(stage *Statistics, th float64) {
	st.ExecutedGates += stage.ExecutedGates
	st.IntercoreComms += stage.IntercoreComms
	st.IntercoreVolume += stage.IntercoreVolume
	st.ComputationTime += stage.ComputationTime
	st.CommunicationTime.Add(stage.CommunicationTime)
	st.FetchTime += stage.FetchTime
	st.DecodeTime += stage.DecodeTime
	st.DispatchTime += stage.DispatchTime

	if th > 0.0 {
		st.MaxThroughput = math.Max(st.MaxThroughput, th)
		samples := float64(st.Samples)
		st.AvgThroughput = (samples*st.AvgThroughput)/(1+samples) + th/(samples+1)
		st.Samples += 1
	}
}

// ExecutionTime is the total of computation, communication, fetch, decode, and dispatch time
func (st *Statistics) ExecutionTime() float64 {
	return st.ComputationTime + st.CommunicationTime.Total() + st.FetchTime + st.DecodeTime + st.DispatchTime
}

// Coherence estimates the percentage of coherence left after the execution time has elapsed
func (st *Statistics) Coherence() float64 {
	return 100.0 * math.Exp(-st.ExecutionTime()/coherenceTime)
}

// IntercoreCommunications counts, for every ordered pair of distinct cores (s,d),
// the qubits found on s in one snapshot of the history and on d in the next.
// Element [s][d] of the result holds the count.
func IntercoreCommunications(history []CoreSnapshot, ncores int) [][]int {
	icc := make([][]int, ncores)
	for s := range icc {
		icc[s] = make([]int, ncores)
	}

	for idx := 0; idx+1 < len(history); idx++ {
		curr, next := history[idx], history[idx+1]
		for s := 0; s < ncores; s++ {
			for _, q := range curr[s] {
				d := next.CoreOf(q)
				if d >= 0 && d != s {
					icc[s][d] += 1
				}
			}
		}
	}
	return icc
}

// OperationsPerQubit counts, for every qubit of the circuit, the gates it belongs to
func OperationsPerQubit(circuit *Circuit) []int {
	opsqb := make([]int, circuit.NumQubits)
	for _, stage := range circuit.Stages {
		for _, g := range stage {
			for _, q := range g {
				if !q.IsAncilla() {
					opsqb[q.ID] += 1
				}
			}
		}
	}
	return opsqb
}

// TeleportationsPerQubit counts, for every qubit of the circuit, the consecutive
// snapshots of the history between which the qubit changed core
func TeleportationsPerQubit(circuit *Circuit, history []CoreSnapshot) []int {
	tpsqb := make([]int, circuit.NumQubits)
	for qb := range tpsqb {
		q := Real(qb)
		for idx := 0; idx+1 < len(history); idx++ {
			coreS, coreD := history[idx].CoreOf(q), history[idx+1].CoreOf(q)
			if coreS < 0 || coreD < 0 {
				invariantf("TeleportationsPerQubit", "qubit %s missing from the core history", q)
			}
			if coreS != coreD {
				tpsqb[qb] += 1
			}
		}
	}
	return tpsqb
}

// CoreUtilization computes the fraction of capacity used on each core in each
// snapshot of the history.  It returns the average over snapshots of the
// per-snapshot mean, and the smallest and largest fraction seen.
func CoreUtilization(history []CoreSnapshot, capacity int) (float64, float64, float64) {
	if len(history) == 0 || capacity < 1 {
		return 0.0, 0.0, 0.0
	}

	avgs := make([]float64, 0, len(history))
	mins := make([]float64, 0, len(history))
	maxs := make([]float64, 0, len(history))
	for _, snap := range history {
		if len(snap) == 0 {
			continue
		}
		util := make([]float64, len(snap))
		for coreID, qbs := range snap {
			util[coreID] = float64(len(qbs)) / float64(capacity)
		}
		avgs = append(avgs, stat.Mean(util, nil))
		mins = append(mins, floats.Min(util))
		maxs = append(maxs, floats.Max(util))
	}
	if len(avgs) == 0 {
		return 0.0, 0.0, 0.0
	}
	return stat.Mean(avgs, nil), floats.Min(mins), floats.Max(maxs)
}

func (st *Statistics) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Executed gates: %d\n", st.ExecutedGates)
	fmt.Fprintf(&sb, "Intercore communications: %d\n", st.IntercoreComms)
	fmt.Fprintf(&sb, "Intercore traffic volume (bits): %d\n", st.IntercoreVolume)
	fmt.Fprintf(&sb, "Throughput (Mbps): %g avg, %g peak\n", st.AvgThroughput/1.0e6, st.MaxThroughput/1.0e6)
	sb.WriteString(st.CommunicationTime.String())
	fmt.Fprintf(&sb, "Computation time (s): %g\n", st.ComputationTime)
	fmt.Fprintf(&sb, "Fetch time (s): %g\n", st.FetchTime)
	fmt.Fprintf(&sb, "Decode time (s): %g\n", st.DecodeTime)
	fmt.Fprintf(&sb, "Dispatch time (s): %g\n", st.DispatchTime)
	fmt.Fprintf(&sb, "Execution time (s): %g\n", st.ExecutionTime())
	fmt.Fprintf(&sb, "Coherence (%%): %g\n", st.Coherence())
	return sb.String()
}
