package qmcsim

// cores.go holds the qubit occupancy of every core, the allocation of
// ancilla qubits, and the history of occupancy snapshots the statistics
// are derived from after a run.

import (
	"fmt"
	"strings"
)

// CoreSnapshot is an immutable copy of the occupancy of every core.
// Element i lists the qubits resident on core i, sorted.
type CoreSnapshot [][]Qubit

// Contains is true if qubit q is resident on core coreID in the snapshot
func (cs CoreSnapshot) Contains(coreID int, q Qubit) bool {
	for _, rq := range cs[coreID] {
		if rq == q {
			return true
		}
	}
	return false
}

// CoreOf returns the core holding q in the snapshot, or -1
func (cs CoreSnapshot) CoreOf(q Qubit) int {
	for coreID := range cs {
		if cs.Contains(coreID, q) {
			return coreID
		}
	}
	return -1
}

// Cores holds the set of qubits resident on each core
type Cores struct {
	capacity       int
	cores          []map[Qubit]bool
	history        []CoreSnapshot
	ancillaCounter int
}

// CreateCores places the qubits of the mapping on the cores of the architecture.
// A core receiving more qubits than its capacity, or a circuit qubit without
// a core, is an invariant violation.
func CreateCores(arch *Architecture, mapping *Mapping) *Cores {
	cs := &Cores{capacity: arch.QubitsPerCore, cores: make([]map[Qubit]bool, arch.NumberOfCores),
		history: make([]CoreSnapshot, 0)}
	for idx := range cs.cores {
		cs.cores[idx] = make(map[Qubit]bool)
	}

	if mapping.NumCores() > arch.NumberOfCores {
		invariantf("CreateCores", "mapping uses %d cores, architecture has %d",
			mapping.NumCores(), arch.NumberOfCores)
	}

	qbs := mapping.Qubits()
	nqubits := 0
	for _, q := range qbs {
		if !q.IsAncilla() {
			nqubits += 1
		}
	}
	for qb := 0; qb < nqubits; qb++ {
		if !mapping.IsMapped(Real(qb)) {
			invariantf("CreateCores", "qubit %d is not mapped", qb)
		}
	}

	for _, q := range qbs {
		coreID := mapping.CoreOf(q)
		cs.cores[coreID][q] = true
		if len(cs.cores[coreID]) > cs.capacity {
			invariantf("CreateCores", "number of qubits mapped on core %d exceeds its capacity %d",
				coreID, cs.capacity)
		}
	}
	return cs
}

// NumCores is the number of cores
func (cs *Cores) NumCores() int {
	return len(cs.cores)
}

// Capacity is the number of qubits a core can hold
func (cs *Cores) Capacity() int {
	return cs.capacity
}

// Occupancy is the number of qubits resident on the core
func (cs *Cores) Occupancy(coreID int) int {
	return len(cs.cores[coreID])
}

// Contains is true if the qubit is resident on the core
func (cs *Cores) Contains(coreID int, q Qubit) bool {
	return cs.cores[coreID][q]
}

// Qubits lists the qubits resident on the core, sorted
func (cs *Cores) Qubits(coreID int) []Qubit {
	qbs := make([]Qubit, 0, len(cs.cores[coreID]))
	for q := range cs.cores[coreID] {
		qbs = append(qbs, q)
	}
	sortQubits(qbs)
	return qbs
}

// AllocateAncilla creates a new ancilla qubit on the core, recording it in
// both the cores and the mapping.  The flag is false, and nothing changes,
// if the core is full.
func (cs *Cores) AllocateAncilla(coreID int, mapping *Mapping) (Qubit, bool) {
	if len(cs.cores[coreID]) >= cs.capacity {
		return Qubit{}, false
	}

	cs.ancillaCounter += 1
	ancilla := Ancilla(cs.ancillaCounter)
	cs.cores[coreID][ancilla] = true
	mapping.assign(ancilla, coreID)
	return ancilla, true
}

// move transfers qubit q from core src to core dst
func (cs *Cores) move(q Qubit, src, dst int) {
	if !cs.cores[src][q] {
		invariantf("Cores.move", "qubit %s is not on core %d", q, src)
	}
	if len(cs.cores[dst]) >= cs.capacity {
		invariantf("Cores.move", "teleporting qubit %s exceeds the capacity %d of core %d",
			q, cs.capacity, dst)
	}
	delete(cs.cores[src], q)
	cs.cores[dst][q] = true
}

// release removes the qubit from its core and from the mapping
func (cs *Cores) release(q Qubit, mapping *Mapping) {
	coreID := mapping.CoreOf(q)
	delete(cs.cores[coreID], q)
	mapping.remove(q)
}

// Snapshot returns a deep copy of the occupancy of every core
func (cs *Cores) Snapshot() CoreSnapshot {
	snap := make(CoreSnapshot, len(cs.cores))
	for coreID := range cs.cores {
		snap[coreID] = cs.Qubits(coreID)
	}
	return snap
}

// SaveHistory appends a snapshot of the current occupancy to the history
func (cs *Cores) SaveHistory() {
	cs.history = append(cs.history, cs.Snapshot())
}

// History returns the snapshots saved so far, oldest first.  The snapshots must not be modified.
func (cs *Cores) History() []CoreSnapshot {
	return cs.history
}

func (cs *Cores) String() string {
	var sb strings.Builder
	for coreID := range cs.cores {
		fmt.Fprintf(&sb, "core %d:", coreID)
		for _, q := range cs.Qubits(coreID) {
			fmt.Fprintf(&sb, " %s", q)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
