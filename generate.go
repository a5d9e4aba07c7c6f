package qmcsim

// generate.go builds random circuits for experiments.  The fan-in of each gate
// is drawn from a discrete distribution, and its qubits are drawn without
// repetition.  Gates are packed into a stage until one is drawn that shares a
// qubit with the stage; that closes the stage and the drawn gate is dropped.

import (
	"fmt"
	"math"

	"github.com/iti/rngstream"
	"golang.org/x/exp/slices"
)

// probTolerance bounds how far the fan-in probabilities may sum from 1
const probTolerance = 1e-6

// GenerateCircuit returns a random circuit of ngates gates over nqubits qubits.
// gateProb[i] is the probability of a gate having i+1 inputs.  A nil rng gets a fresh stream.
func GenerateCircuit(nqubits, ngates int, gateProb []float64, rng RandStream) (*Circuit, error) {
	if nqubits < 1 || ngates < 1 {
		return nil, fmt.Errorf("number of qubits (%d) and of gates (%d) must be positive", nqubits, ngates)
	}
	if len(gateProb) == 0 {
		return nil, fmt.Errorf("no fan-in probabilities")
	}
	if len(gateProb) > nqubits {
		return nil, fmt.Errorf("fan-in up to %d exceeds the %d qubits", len(gateProb), nqubits)
	}

	sum := 0.0
	for _, p := range gateProb {
		if p < 0.0 {
			return nil, fmt.Errorf("negative fan-in probability %g", p)
		}
		sum += p
	}
	if math.Abs(sum-1.0) > probTolerance {
		return nil, fmt.Errorf("sum of probabilities must be 1, is %g", sum)
	}

	if rng == nil {
		rng = rngstream.New("circuit")
	}

	stages := make([]Stage, 0)
	stage := make(Stage, 0)
	used := make(map[int]bool)
	gatecount := 0
	for gatecount < ngates {
		fanin := drawDiscrete(gateProb, rng) + 1
		qubits := drawNoRepetition(nqubits, fanin, rng)

		conflict := false
		for _, qb := range qubits {
			if used[qb] {
				conflict = true
				break
			}
		}

		if !conflict {
			stage = append(stage, NewGate(qubits...))
			gatecount += 1
			for _, qb := range qubits {
				used[qb] = true
			}
		}

		if conflict || gatecount == ngates {
			stages = append(stages, stage)
			stage = make(Stage, 0)
			used = make(map[int]bool)
		}
	}

	return &Circuit{Stages: stages, NumQubits: nqubits}, nil
}

// drawDiscrete returns i with probability prob[i]
func drawDiscrete(prob []float64, rng RandStream) int {
	u := rng.RandU01()
	cumulative := 0.0
	for idx, p := range prob {
		cumulative += p
		if u < cumulative {
			return idx
		}
	}
	// rounding left u past the last cumulative value
	for idx := len(prob) - 1; idx > 0; idx-- {
		if prob[idx] > 0.0 {
			return idx
		}
	}
	return 0
}

// drawNoRepetition returns size distinct numbers from [0,n), sorted
func drawNoRepetition(n, size int, rng RandStream) []int {
	numbers := make([]int, n)
	for idx := range numbers {
		numbers[idx] = idx
	}
	// partial Fisher-Yates, the first size positions are the draw
	for idx := 0; idx < size; idx++ {
		jdx := rng.RandInt(idx, n-1)
		numbers[idx], numbers[jdx] = numbers[jdx], numbers[idx]
	}
	drawn := slices.Clone(numbers[:size])
	slices.Sort(drawn)
	return drawn
}
