package qmcsim

// mapping.go holds the assignment of qubits to cores.  The assignment is a
// partial function that the simulator keeps total over every real qubit and
// every live ancilla.

import (
	"fmt"
	"strings"

	"github.com/iti/rngstream"
)

// RandStream is the part of a random number stream the simulator draws from.
// *rngstream.RngStream satisfies it.
type RandStream interface {
	RandU01() float64
	RandInt(i, j int) int
}

// Mapping assigns qubits to cores
type Mapping struct {
	ncores     int
	qubit2core map[Qubit]int
}

// CreateMapping assigns nqubits circuit qubits to ncores cores following strategy.
// A random strategy draws from rng; a nil rng gets a fresh stream.  An unrecognized
// strategy is an invariant violation.
func CreateMapping(nqubits, ncores int, strategy MappingStrategy, rng RandStream) *Mapping {
	if ncores < 1 {
		invariantf("CreateMapping", "mapping onto %d cores", ncores)
	}

	var cores []int
	switch strategy {
	case SequentialMapping:
		cores = sequentialMapping(nqubits, ncores)
	case RandomMapping:
		if rng == nil {
			rng = rngstream.New("mapping")
		}
		cores = randomMapping(nqubits, ncores, rng)
	default:
		invariantf("CreateMapping", "invalid mapping type %d", int(strategy))
	}

	mp := &Mapping{ncores: ncores, qubit2core: make(map[Qubit]int, nqubits)}
	for qb, core := range cores {
		mp.qubit2core[Real(qb)] = core
	}
	return mp
}

// sequentialMapping places qubit i on core i mod ncores
func sequentialMapping(nqubits, ncores int) []int {
	cores := make([]int, nqubits)
	for qb := 0; qb < nqubits; qb++ {
		cores[qb] = qb % ncores
	}
	return cores
}

// randomMapping shuffles the sequential assignment, so the per-core loads
// are those of sequentialMapping while the placement of each qubit is random
func randomMapping(nqubits, ncores int, rng RandStream) []int {
	cores := sequentialMapping(nqubits, ncores)
	for idx := nqubits - 1; idx > 0; idx-- {
		jdx := rng.RandInt(0, idx)
		cores[idx], cores[jdx] = cores[jdx], cores[idx]
	}
	return cores
}

// IsMapped is true if the qubit is assigned to some core
func (mp *Mapping) IsMapped(q Qubit) bool {
	_, present := mp.qubit2core[q]
	return present
}

// CoreOf returns the core holding the qubit.  Asking for an unmapped qubit
// is an invariant violation.
func (mp *Mapping) CoreOf(q Qubit) int {
	core, present := mp.qubit2core[q]
	if !present {
		invariantf("Mapping.CoreOf", "qubit %s is not mapped", q)
	}
	return core
}

// NumCores is the number of cores qubits are mapped onto
func (mp *Mapping) NumCores() int {
	return mp.ncores
}

// Len is the number of mapped qubits
func (mp *Mapping) Len() int {
	return len(mp.qubit2core)
}

// Qubits lists the mapped qubits, real qubits first
func (mp *Mapping) Qubits() []Qubit {
	qbs := make([]Qubit, 0, len(mp.qubit2core))
	for q := range mp.qubit2core {
		qbs = append(qbs, q)
	}
	sortQubits(qbs)
	return qbs
}

// CoreLoads counts the mapped qubits per core
func (mp *Mapping) CoreLoads() []int {
	loads := make([]int, mp.ncores)
	for _, core := range mp.qubit2core {
		loads[core] += 1
	}
	return loads
}

func (mp *Mapping) assign(q Qubit, core int) {
	if core < 0 || core >= mp.ncores {
		invariantf("Mapping.assign", "core %d out of range for qubit %s", core, q)
	}
	mp.qubit2core[q] = core
}

func (mp *Mapping) remove(q Qubit) {
	delete(mp.qubit2core, q)
}

func (mp *Mapping) String() string {
	var sb strings.Builder
	for _, q := range mp.Qubits() {
		fmt.Fprintf(&sb, "qubit %s -> core %d\n", q, mp.qubit2core[q])
	}
	return sb.String()
}
