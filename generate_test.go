package qmcsim

import (
	"testing"

	"github.com/iti/rngstream"
)

func TestGenerateCircuit(t *testing.T) {
	tests := []struct {
		name     string
		nqubits  int
		ngates   int
		gateProb []float64
	}{
		{"single qubit gates", 4, 10, []float64{1.0}},
		{"mixed fan-in", 16, 200, []float64{0.5, 0.3, 0.2}},
		{"two qubit gates on two qubits", 2, 5, []float64{0.0, 1.0}},
		{"one gate", 8, 1, []float64{0.25, 0.75}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc, err := GenerateCircuit(tt.nqubits, tt.ngates, tt.gateProb, rngstream.New(tt.name))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cc.NumQubits != tt.nqubits {
				t.Errorf("NumQubits = %d, want %d", cc.NumQubits, tt.nqubits)
			}
			if cc.NumGates() != tt.ngates {
				t.Errorf("%d gates, want %d", cc.NumGates(), tt.ngates)
			}

			for sdx, stage := range cc.Stages {
				if len(stage) == 0 {
					t.Errorf("stage %d is empty", sdx)
				}
				used := make(map[Qubit]bool)
				for _, g := range stage {
					if len(g) < 1 || len(g) > len(tt.gateProb) || tt.gateProb[len(g)-1] == 0.0 {
						t.Errorf("stage %d: gate %s has a fan-in that cannot be drawn", sdx, g)
					}
					for _, q := range g {
						if q.ID < 0 || q.ID >= tt.nqubits {
							t.Errorf("stage %d: qubit %s out of range", sdx, q)
						}
						if used[q] {
							t.Errorf("stage %d: qubit %s used twice", sdx, q)
						}
						used[q] = true
					}
				}
			}
		})
	}
}

func TestGenerateCircuitReproducible(t *testing.T) {
	first, err := GenerateCircuit(10, 50, []float64{0.6, 0.4}, seededStream(t, "first", 17))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := GenerateCircuit(10, 50, []float64{0.6, 0.4}, seededStream(t, "second", 17))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first.Stages) != len(second.Stages) {
		t.Fatalf("%d and %d stages from equally seeded streams", len(first.Stages), len(second.Stages))
	}
	for sdx := range first.Stages {
		if first.Stages[sdx].String() != second.Stages[sdx].String() {
			t.Fatalf("stage %d differs: %s and %s", sdx, first.Stages[sdx], second.Stages[sdx])
		}
	}
}

func TestGenerateCircuitErrors(t *testing.T) {
	tests := []struct {
		name     string
		nqubits  int
		ngates   int
		gateProb []float64
	}{
		{"no qubits", 0, 5, []float64{1.0}},
		{"no gates", 4, 0, []float64{1.0}},
		{"no probabilities", 4, 5, nil},
		{"fan-in beyond qubits", 2, 5, []float64{0.2, 0.3, 0.5}},
		{"negative probability", 4, 5, []float64{1.5, -0.5}},
		{"probabilities short of one", 4, 5, []float64{0.5, 0.4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := GenerateCircuit(tt.nqubits, tt.ngates, tt.gateProb, rngstream.New(tt.name)); err == nil {
				t.Errorf("invalid request accepted")
			}
		})
	}
}

func TestDrawNoRepetition(t *testing.T) {
	rng := rngstream.New("draw")
	for trial := 0; trial < 50; trial++ {
		drawn := drawNoRepetition(6, 4, rng)
		if len(drawn) != 4 {
			t.Fatalf("drew %d numbers, want 4", len(drawn))
		}
		for idx := 1; idx < len(drawn); idx++ {
			if drawn[idx] <= drawn[idx-1] {
				t.Fatalf("draw %v is not strictly increasing", drawn)
			}
		}
		if drawn[0] < 0 || drawn[3] > 5 {
			t.Fatalf("draw %v out of range", drawn)
		}
	}
}
