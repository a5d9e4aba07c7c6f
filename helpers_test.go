package qmcsim

import (
	"errors"
	"math"
	"testing"

	"github.com/iti/rngstream"
)

// testArch builds a validated architecture, failing the test on error
func testArch(t *testing.T, meshX, meshY, qpc, ltm int, tt TeleportationType, dsm DstSelectionMode) *Architecture {
	t.Helper()
	ad := ArchDesc{MeshX: meshX, MeshY: meshY, LinkWidth: 1, QubitsPerCore: qpc, LTMPorts: ltm,
		TeleportationType: tt.String(), DstSelectionMode: dsm.String(),
		MappingType: SequentialMapping.String()}
	arch, err := ad.Transform()
	if err != nil {
		t.Fatalf("building architecture: %v", err)
	}
	return arch
}

func testParams() *Parameters {
	return &Parameters{GateDelay: 1e-6, EPRDelay: 1e-6, NoCClockTime: 1e-9,
		MemoryBandwidth: 1e9, BitsInstruction: 8, DecodeTimePerInstruction: 1e-9}
}

// testSimulation sets up a sequentially mapped simulation of circuit
func testSimulation(t *testing.T, circuit *Circuit, arch *Architecture) *Simulation {
	t.Helper()
	params := testParams()
	mapping := CreateMapping(circuit.NumQubits, arch.NumberOfCores, SequentialMapping, nil)
	cores := CreateCores(arch, mapping)
	return CreateSimulation(circuit, arch, BuildNoC(arch, params), params, mapping, cores)
}

// expectInvariant runs f and fails unless it panics with an *InvariantError
func expectInvariant(t *testing.T, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected an invariant violation")
		}
		if _, ok := r.(*InvariantError); !ok {
			t.Fatalf("expected *InvariantError, got %T: %v", r, r)
		}
	}()
	f()
}

func asInvariant(err error) (*InvariantError, bool) {
	var ie *InvariantError
	ok := errors.As(err, &ie)
	return ie, ok
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(math.Abs(a), math.Abs(b))
}

// seededStream returns a named stream reset to a seed built from seed,
// so streams with equal seeds draw the same values whatever their names
func seededStream(t *testing.T, name string, seed uint64) *rngstream.RngStream {
	t.Helper()
	rs := rngstream.New(name)
	if !rs.SetSeed([]uint64{seed, seed + 1, seed + 2, seed + 3, seed + 4, seed + 5}) {
		t.Fatalf("seed %d rejected", seed)
	}
	return rs
}
