package qmcsim

// circuit.go holds the representation of a quantum circuit as an ordered
// sequence of stages, each stage a set of gates modeled as executing
// concurrently, together with the reader and writer for the circuit file format.
//
// The file format has one stage per line, each gate a parenthesized list of
// whitespace separated qubit numbers, e.g.
//
//	(0 1) (2) (3 4)
//	(1 2)

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// QubitKind tags a Qubit as belonging to the circuit or as an ancilla
// created by the simulator
type QubitKind int

const (
	RealQubit QubitKind = iota
	AncillaQubit
)

// Qubit identifies a qubit.  Real qubits are numbered from 0 in the circuit;
// ancilla qubits are numbered from 1 in the order the simulator creates them.
type Qubit struct {
	Kind QubitKind
	ID   int
}

// Real is a constructor for a circuit qubit
func Real(id int) Qubit {
	return Qubit{Kind: RealQubit, ID: id}
}

// Ancilla is a constructor for an ancilla qubit
func Ancilla(id int) Qubit {
	return Qubit{Kind: AncillaQubit, ID: id}
}

// IsAncilla is true for qubits created by the simulator
func (q Qubit) IsAncilla() bool {
	return q.Kind == AncillaQubit
}

func (q Qubit) String() string {
	if q.IsAncilla() {
		return "a" + strconv.Itoa(q.ID)
	}
	return strconv.Itoa(q.ID)
}

// compareQubits orders real qubits before ancillas, each group by id
func compareQubits(a, b Qubit) int {
	if a.Kind != b.Kind {
		return int(a.Kind) - int(b.Kind)
	}
	return a.ID - b.ID
}

// sortQubits sorts a list of qubits in place using compareQubits
func sortQubits(qbs []Qubit) {
	slices.SortFunc(qbs, compareQubits)
}

// Gate is the ordered list of qubits a gate operates on.  For two-qubit gates
// the convention is that the first qubit is the one moved to the second.
type Gate []Qubit

// NewGate builds a gate over real qubits
func NewGate(ids ...int) Gate {
	g := make(Gate, len(ids))
	for idx, id := range ids {
		g[idx] = Real(id)
	}
	return g
}

func (g Gate) String() string {
	parts := make([]string, len(g))
	for idx, q := range g {
		parts[idx] = q.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Stage is a set of gates modeled as executing concurrently.  The order of
// gates is significant: it fixes admission order and NoC queue positions.
type Stage []Gate

func (s Stage) String() string {
	parts := make([]string, len(s))
	for idx, g := range s {
		parts[idx] = g.String()
	}
	return strings.Join(parts, " ")
}

// cloneStage copies the stage and each of its gates
func cloneStage(s Stage) Stage {
	ns := make(Stage, len(s))
	for idx, g := range s {
		ns[idx] = slices.Clone(g)
	}
	return ns
}

// Circuit is an ordered sequence of stages over NumQubits real qubits,
// numbered 0 through NumQubits-1
type Circuit struct {
	Stages    []Stage
	NumQubits int
}

// CreateCircuit is a constructor.  The number of qubits is inferred
// from the largest qubit number referenced.
func CreateCircuit(stages []Stage) *Circuit {
	cc := &Circuit{Stages: stages}
	for _, stage := range stages {
		for _, g := range stage {
			for _, q := range g {
				if !q.IsAncilla() && q.ID+1 > cc.NumQubits {
					cc.NumQubits = q.ID + 1
				}
			}
		}
	}
	return cc
}

// NumGates counts the gates over all stages
func (cc *Circuit) NumGates() int {
	n := 0
	for _, stage := range cc.Stages {
		n += len(stage)
	}
	return n
}

// NumStages is the length of the circuit
func (cc *Circuit) NumStages() int {
	return len(cc.Stages)
}

// Clone returns a deep copy of the circuit
func (cc *Circuit) Clone() *Circuit {
	stages := make([]Stage, len(cc.Stages))
	for idx, stage := range cc.Stages {
		stages[idx] = cloneStage(stage)
	}
	return &Circuit{Stages: stages, NumQubits: cc.NumQubits}
}

// CircuitSummary describes the shape of a circuit
type CircuitSummary struct {
	Qubits int `json:"qubits" yaml:"qubits"`
	Gates  int `json:"gates" yaml:"gates"`
	Stages int `json:"stages" yaml:"stages"`

	// FanIn maps the number of gate inputs to the percentage of gates with that many
	FanIn map[int]float64 `json:"fanin" yaml:"fanin"`
}

// Summary computes the CircuitSummary of the circuit
func (cc *Circuit) Summary() CircuitSummary {
	cs := CircuitSummary{Qubits: cc.NumQubits, Gates: cc.NumGates(), Stages: cc.NumStages(),
		FanIn: make(map[int]float64)}

	if cs.Gates == 0 {
		return cs
	}

	for _, stage := range cc.Stages {
		for _, g := range stage {
			cs.FanIn[len(g)] += 1
		}
	}
	for fanin := range cs.FanIn {
		cs.FanIn[fanin] = cs.FanIn[fanin] * 100.0 / float64(cs.Gates)
	}
	return cs
}

func (cs CircuitSummary) String() string {
	fanins := make([]int, 0, len(cs.FanIn))
	for fanin := range cs.FanIn {
		fanins = append(fanins, fanin)
	}
	sort.Ints(fanins)

	dist := make([]string, 0, len(fanins))
	for _, fanin := range fanins {
		dist = append(dist, fmt.Sprintf("%d-input: %g%%", fanin, cs.FanIn[fanin]))
	}
	return fmt.Sprintf("qubits %d, gates %d, stages %d, distribution of gates: %s",
		cs.Qubits, cs.Gates, cs.Stages, strings.Join(dist, ", "))
}

// ReadCircuit reads and parses a circuit file.  If dict is non-empty it is
// parsed in place of the file contents.
func ReadCircuit(filename string, dict []byte) (*Circuit, error) {
	var err error
	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}
	return ParseCircuit(bytes.NewReader(dict))
}

// ParseCircuit reads the circuit format from r.  Empty lines are skipped.
// The smallest qubit number must be 0.
func ParseCircuit(r io.Reader) (*Circuit, error) {
	stages := make([]Stage, 0)
	minQubit := math.MaxInt
	maxQubit := math.MinInt

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo += 1
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}

		stage, err := parseStage(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		for _, g := range stage {
			for _, q := range g {
				minQubit = min(minQubit, q.ID)
				maxQubit = max(maxQubit, q.ID)
			}
		}
		stages = append(stages, stage)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(stages) == 0 {
		return nil, fmt.Errorf("circuit has no gates")
	}
	if minQubit != 0 {
		return nil, fmt.Errorf("qubits must start from 0, smallest is %d", minQubit)
	}

	return &Circuit{Stages: stages, NumQubits: maxQubit - minQubit + 1}, nil
}

// parseStage parses one line of the circuit format
func parseStage(line string) (Stage, error) {
	line = strings.ReplaceAll(line, "(", " ( ")
	line = strings.ReplaceAll(line, ")", " ) ")

	stage := make(Stage, 0)
	var g Gate
	open := false
	for _, tok := range strings.Fields(line) {
		switch tok {
		case "(":
			if open {
				return nil, fmt.Errorf("nested '('")
			}
			open = true
			g = make(Gate, 0, 2)
		case ")":
			if !open {
				return nil, fmt.Errorf("unbalanced ')'")
			}
			if len(g) == 0 {
				return nil, fmt.Errorf("empty gate")
			}
			stage = append(stage, g)
			open = false
		default:
			if !open {
				return nil, fmt.Errorf("qubit %s outside of a gate", tok)
			}
			id, err := strconv.Atoi(tok)
			if err != nil {
				return nil, fmt.Errorf("bad qubit number %q", tok)
			}
			g = append(g, Real(id))
		}
	}
	if open {
		return nil, fmt.Errorf("unterminated gate")
	}
	return stage, nil
}

// WriteTo emits the circuit in the file format read by ParseCircuit
func (cc *Circuit) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for _, stage := range cc.Stages {
		n, err := io.WriteString(w, stage.String()+"\n")
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// WriteToFile stores the circuit in the named file
func (cc *Circuit) WriteToFile(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	_, werr := cc.WriteTo(f)
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	return cerr
}
