package qmcsim

// sim.go holds the simulation engine.  A circuit is executed stage by stage.
// For each stage the gates are split into local gates, whose qubits share a
// core, and remote gates, which need qubits teleported.  Local gates cost one
// gate delay.  Remote gates are admitted in rounds limited by the teleportation
// ports of every core; each round costs a gate delay, the five phases of
// teleportation, and the NoC time of the round's communications.  Every stage
// also pays for fetching, decoding, and dispatching its instructions.
//
// When teleportation is limited to adjacent cores, a remote gate whose qubits
// are further apart is rewritten into a chain of gates, each moving the source
// qubit one hop along the XY route to an ancilla allocated on the next core.
// The chains of the gates of a stage are interleaved into new stages which
// replace the original one in the circuit.

import (
	"fmt"
	"math"

	"github.com/iti/evt/vrtime"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// StageResult holds the outcome of executing one stage
type StageResult struct {
	Index      int
	Start      vrtime.Time
	Stats      Statistics
	Throughput float64 // 0 if the stage did not communicate
}

// stageInfo carries what executing a stage did, for traces and logs
type stageInfo struct {
	local, remote int
	rounds        int
	expanded      int
	allocated     []Qubit
	released      []Qubit
}

// Simulation holds the state of one run of a circuit on an architecture.
// Mapping and Cores are owned, and modified, by the run.
type Simulation struct {
	circuit *Circuit
	arch    *Architecture
	noc     *NoC
	params  *Parameters
	mapping *Mapping
	cores   *Cores

	// stages is the circuit as rewritten by mesh expansion
	stages []Stage

	// index of the next stage to execute
	next int

	stats   *Statistics
	results []StageResult
	trace   *TraceManager
}

// CreateSimulation is a constructor.  The circuit is copied, the
// mapping and cores are used and modified in place.
func CreateSimulation(circuit *Circuit, arch *Architecture, noc *NoC, params *Parameters,
	mapping *Mapping, cores *Cores) *Simulation {
	sim := &Simulation{circuit: circuit, arch: arch, noc: noc, params: params,
		mapping: mapping, cores: cores, stats: CreateStatistics(),
		results: make([]StageResult, 0, circuit.NumStages())}
	sim.stages = circuit.Clone().Stages
	return sim
}

// SetTrace attaches a trace manager that records every executed stage
func (sim *Simulation) SetTrace(tm *TraceManager) {
	sim.trace = tm
}

// Stages returns the circuit as executed, after any rewriting
func (sim *Simulation) Stages() []Stage {
	return sim.stages
}

// Results returns the outcome of each executed stage, in order
func (sim *Simulation) Results() []StageResult {
	return sim.results
}

// Statistics returns the running totals
func (sim *Simulation) Statistics() *Statistics {
	return sim.stats
}

// Run executes the whole circuit and returns the totals.  A violated invariant
// stops the run and is returned as an *InvariantError; the mapping and cores
// are then left as they were when the violation was found.
func (sim *Simulation) Run() (stats *Statistics, err error) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*InvariantError)
			if !ok {
				panic(r)
			}
			zap.L().Error("simulation aborted", zap.Error(ie))
			stats, err = nil, ie
		}
	}()

	// initial state of the cores
	sim.cores.SaveHistory()

	if err = sim.schedule(); err != nil {
		return nil, err
	}
	return sim.stats, nil
}

// Simulate executes circuit on the architecture, starting from the given
// mapping and cores, and returns the statistics of the run
func Simulate(circuit *Circuit, arch *Architecture, noc *NoC, params *Parameters,
	mapping *Mapping, cores *Cores) (*Statistics, error) {
	return CreateSimulation(circuit, arch, noc, params, mapping, cores).Run()
}

// step executes the stage at position idx, starting at simulated time start
func (sim *Simulation) step(idx int, start vrtime.Time) *Statistics {
	info := stageInfo{}
	if sim.arch.TeleportationType == MeshTeleport {
		info.expanded, info.allocated = sim.expandStage(idx)
	}

	stage := sim.stages[idx]
	stats := sim.executeStage(stage, &info)

	info.released = sim.freeUnusedAncillas(idx)
	sim.cores.SaveHistory()

	th := 0.0
	commTime := stats.CommunicationTime.Total()
	if commTime > 0.0 {
		th = sim.noc.Throughput(stats.IntercoreVolume, commTime)
	}
	sim.stats.Update(stats, th)
	sim.results = append(sim.results, StageResult{Index: idx, Start: start, Stats: *stats, Throughput: th})

	zap.L().Debug("stage executed", zap.Int("stage", idx), zap.Stringer("gates", stage),
		zap.Int("local", info.local), zap.Int("remote", info.remote), zap.Int("rounds", info.rounds),
		zap.Int("comms", stats.IntercoreComms), zap.Float64("seconds", stats.ExecutionTime()))

	if sim.trace.Active() {
		sim.trace.AddStage(start, StageTrace{Index: idx, LocalGates: info.local, RemoteGates: info.remote,
			Rounds: info.rounds, Comms: stats.IntercoreComms, Volume: stats.IntercoreVolume,
			CommTime: commTime, ExecTime: stats.ExecutionTime(), Expanded: info.expanded,
			AncillasAllocated: qubitNames(info.allocated), AncillasReleased: qubitNames(info.released)})
	}
	return stats
}

// isLocalGate is true if all the qubits of the gate are on one core
func (sim *Simulation) isLocalGate(g Gate) bool {
	if len(g) == 0 {
		invariantf("isLocalGate", "empty gate")
	}
	coreID := sim.mapping.CoreOf(g[0])
	for _, q := range g[1:] {
		if sim.mapping.CoreOf(q) != coreID {
			return false
		}
	}
	return true
}

// splitLocalRemoteGates partitions the gates of a stage, preserving their order
func (sim *Simulation) splitLocalRemoteGates(stage Stage) (Stage, Stage) {
	lgates := make(Stage, 0, len(stage))
	rgates := make(Stage, 0, len(stage))
	for _, g := range stage {
		if sim.isLocalGate(g) {
			lgates = append(lgates, g)
		} else {
			rgates = append(rgates, g)
		}
	}
	return lgates, rgates
}

// expandStage rewrites the stage at idx for mesh teleportation.  It returns the
// number of stages the stage was replaced by (0 when nothing changed) and the
// ancillas allocated for the chains.
func (sim *Simulation) expandStage(idx int) (int, []Qubit) {
	lgates, rgates := sim.splitLocalRemoteGates(sim.stages[idx])
	if len(rgates) == 0 {
		return 0, nil
	}

	allocated := make([]Qubit, 0)
	chains := make([]Stage, len(rgates))
	for gdx, g := range rgates {
		var ancillas []Qubit
		chains[gdx], ancillas = sim.splitRemoteGate(g)
		allocated = append(allocated, ancillas...)
	}
	seq := sequenceStages(lgates, chains)

	// the remote gates of the stage now precede its local gates
	rewritten := make([]Stage, 0, len(sim.stages)+len(seq)-1)
	rewritten = append(rewritten, sim.stages[:idx]...)
	rewritten = append(rewritten, seq...)
	rewritten = append(rewritten, sim.stages[idx+1:]...)
	sim.stages = rewritten

	if len(allocated) == 0 {
		return 0, nil
	}
	zap.L().Debug("stage expanded", zap.Int("stage", idx), zap.Int("stages", len(seq)),
		zap.Strings("ancillas", qubitNames(allocated)))
	return len(seq), allocated
}

// splitRemoteGate turns a remote two-qubit gate into a chain of gates between
// adjacent cores.  The first qubit is moved towards the core of the second along
// the XY route; every intermediate core receives a new ancilla, and the chain's
// last gate pairs the first qubit with the second.
func (sim *Simulation) splitRemoteGate(g Gate) (Stage, []Qubit) {
	if len(g) != 2 {
		invariantf("splitRemoteGate", "mesh teleportation of gate %s with %d qubits", g, len(g))
	}
	qsrc, qdst := g[0], g[1]
	srcCore, dstCore := sim.mapping.CoreOf(qsrc), sim.mapping.CoreOf(qdst)

	if sim.noc.Adjacent(srcCore, dstCore) {
		return Stage{slices.Clone(g)}, nil
	}

	route := sim.noc.XYPath(srcCore, dstCore)
	if len(route)-1 != sim.noc.HopDistance(srcCore, dstCore) {
		invariantf("splitRemoteGate", "route %v from core %d to core %d is not minimal", route, srcCore, dstCore)
	}

	chain := make(Stage, 0, len(route)-1)
	ancillas := make([]Qubit, 0, len(route)-2)
	for hop := 1; hop < len(route); hop++ {
		nextQubit := qdst
		if hop < len(route)-1 {
			ancilla, ok := sim.cores.AllocateAncilla(route[hop], sim.mapping)
			if !ok {
				invariantf("splitRemoteGate", "cannot allocate ancilla on core %d", route[hop])
			}
			ancillas = append(ancillas, ancilla)
			nextQubit = ancilla
		}
		chain = append(chain, Gate{qsrc, nextQubit})
	}
	return chain, ancillas
}

// sequenceStages interleaves the chains: stage k holds hop k of every chain
// long enough to have one.  The local gates join the first stage.
func sequenceStages(lgates Stage, chains []Stage) []Stage {
	if len(chains) == 0 {
		return []Stage{lgates}
	}

	maxLen := 0
	for _, chain := range chains {
		maxLen = max(maxLen, len(chain))
	}

	seq := make([]Stage, maxLen)
	for hop := 0; hop < maxLen; hop++ {
		seq[hop] = make(Stage, 0, len(chains))
		for _, chain := range chains {
			if hop < len(chain) {
				seq[hop] = append(seq[hop], chain[hop])
			}
		}
	}
	seq[0] = append(seq[0], lgates...)
	return seq
}

// executeStage computes the cost of executing the stage, moving the qubits of
// its remote gates as it goes
func (sim *Simulation) executeStage(stage Stage, info *stageInfo) *Statistics {
	if len(stage) == 0 {
		invariantf("executeStage", "empty stage")
	}
	lgates, rgates := sim.splitLocalRemoteGates(stage)
	info.local, info.remote = len(lgates), len(rgates)

	statsLocal := sim.localExecution(lgates)
	statsRemote := sim.remoteExecution(rgates, info)
	stats := mergeLocalRemote(statsLocal, statsRemote)

	stats.FetchTime = sim.fetchTime(stage)
	stats.DecodeTime = float64(len(stage)) * sim.params.DecodeTimePerInstruction
	stats.DispatchTime = sim.dispatchTime(stage)
	return stats
}

func (sim *Simulation) localExecution(lgates Stage) *Statistics {
	stats := CreateStatistics()
	if len(lgates) > 0 {
		stats.ComputationTime = sim.params.GateDelay
		stats.ExecutedGates = len(lgates)
	}
	return stats
}

// remoteExecution admits the remote gates in rounds.  At the start of a round
// every core has all its teleportation ports; a gate is admitted if, for each
// qubit it moves, the source and destination cores both have a port left.
// Gates not admitted wait for the next round.
func (sim *Simulation) remoteExecution(rgates Stage, info *stageInfo) *Statistics {
	stats := CreateStatistics()
	volume := sim.arch.QubitAddrBits()

	gates := rgates
	for len(gates) > 0 {
		info.rounds += 1
		ports := make([]int, sim.arch.NumberOfCores)
		for coreID := range ports {
			ports[coreID] = sim.arch.LTMPorts
		}

		admitted := make(Stage, 0, len(gates))
		deferred := make(Stage, 0)
		comms := make([]Communication, 0)
		for gdx, g := range gates {
			dstCore := sim.selectDestinationCore(g)
			tmpPorts, ok := sim.reservePorts(g, dstCore, ports)
			if !ok {
				if gdx == 0 {
					invariantf("remoteExecution", "gate %s cannot be admitted with %d teleportation ports per core",
						g, sim.arch.LTMPorts)
				}
				deferred = append(deferred, g)
				continue
			}

			// communications use the core of each qubit before it moves
			comms = append(comms, sim.gateCommunications(g, dstCore, volume)...)
			ports = tmpPorts
			admitted = append(admitted, g)
			sim.moveGate(g, dstCore)
		}

		stats.ExecutedGates += len(admitted)
		stats.IntercoreComms += len(comms)
		stats.IntercoreVolume += TotalVolume(comms)
		stats.CommunicationTime.Add(sim.communicationTime(comms))
		stats.ComputationTime += sim.params.GateDelay

		zap.L().Debug("admission round", zap.Int("round", info.rounds), zap.Int("admitted", len(admitted)),
			zap.Int("deferred", len(deferred)), zap.Int("comms", len(comms)))
		gates = deferred
	}
	return stats
}

// reservePorts returns a copy of ports with the ports the gate needs taken,
// and false if some core does not have them
func (sim *Simulation) reservePorts(g Gate, dstCore int, ports []int) ([]int, bool) {
	tmpPorts := slices.Clone(ports)
	for _, q := range g {
		srcCore := sim.mapping.CoreOf(q)
		if srcCore == dstCore {
			continue
		}
		if tmpPorts[srcCore] < 1 || tmpPorts[dstCore] < 1 {
			return nil, false
		}
		tmpPorts[srcCore] -= 1
		tmpPorts[dstCore] -= 1
	}
	return tmpPorts, true
}

// selectDestinationCore chooses the core a remote gate executes on.  With mesh
// teleportation or load independent selection it is the core of the gate's
// second qubit; otherwise it is the least occupied core among those holding
// the gate's qubits, the first found winning ties.
func (sim *Simulation) selectDestinationCore(g Gate) int {
	if len(g) < 2 {
		return sim.mapping.CoreOf(g[0])
	}
	if sim.arch.TeleportationType == MeshTeleport || sim.arch.DstSelectionMode == LoadIndependent {
		return sim.mapping.CoreOf(g[1])
	}

	selected := -1
	minQubits := math.MaxInt
	for _, q := range g {
		coreID := sim.mapping.CoreOf(q)
		if sim.cores.Occupancy(coreID) < minQubits {
			minQubits = sim.cores.Occupancy(coreID)
			selected = coreID
		}
	}
	return selected
}

// gateCommunications creates one communication for each qubit of the gate not on dstCore
func (sim *Simulation) gateCommunications(g Gate, dstCore, volume int) []Communication {
	comms := make([]Communication, 0, len(g))
	for _, q := range g {
		srcCore := sim.mapping.CoreOf(q)
		if srcCore != dstCore {
			comms = append(comms, Communication{Src: srcCore, Dst: dstCore, Volume: volume})
		}
	}
	return comms
}

// moveGate teleports every qubit of the gate to dstCore
func (sim *Simulation) moveGate(g Gate, dstCore int) {
	for _, q := range g {
		srcCore := sim.mapping.CoreOf(q)
		if srcCore != dstCore {
			sim.cores.move(q, srcCore, dstCore)
			sim.mapping.assign(q, dstCore)
		}
	}
}

func (sim *Simulation) communicationTime(comms []Communication) CommunicationTime {
	return CommunicationTime{
		EPR:  sim.params.EPRDelay,
		Dist: sim.params.DistDelay,
		Pre:  sim.params.PreDelay,
		Clas: sim.noc.CommunicationTime(comms),
		Post: sim.params.PostDelay,
	}
}

// mergeLocalRemote combines the two execution classes of a stage.  They are
// modeled as overlapping, so the computation time is the larger of the two.
func mergeLocalRemote(local, remote *Statistics) *Statistics {
	stats := CreateStatistics()
	stats.ExecutedGates = local.ExecutedGates + remote.ExecutedGates
	stats.IntercoreComms = remote.IntercoreComms
	stats.IntercoreVolume = remote.IntercoreVolume
	stats.CommunicationTime = remote.CommunicationTime
	stats.ComputationTime = math.Max(local.ComputationTime, remote.ComputationTime)
	return stats
}

// fetchTime is the time to read the stage's instructions from memory
func (sim *Simulation) fetchTime(stage Stage) float64 {
	addrBits := sim.arch.QubitAddrBits()
	bundle := 0
	for _, g := range stage {
		bundle += sim.params.BitsInstruction + len(g)*addrBits
	}
	return float64(bundle) / sim.params.MemoryBandwidth
}

// dispatchCommunications carries each instruction from the memory controller,
// attached to core 0, to the core of the gate's second qubit
func (sim *Simulation) dispatchCommunications(stage Stage) []Communication {
	laddrBits := sim.arch.LocalAddrBits()
	comms := make([]Communication, 0, len(stage))
	for _, g := range stage {
		target := g[0]
		if len(g) > 1 {
			target = g[1]
		}
		comms = append(comms, Communication{Src: 0, Dst: sim.mapping.CoreOf(target),
			Volume: sim.params.BitsInstruction + len(g)*laddrBits})
	}
	return comms
}

// dispatchTime is the time to deliver the stage's instructions.  The wired NoC
// adds a hop from the memory controller to core 0.
func (sim *Simulation) dispatchTime(stage Stage) float64 {
	comms := sim.dispatchCommunications(stage)
	total := TotalVolume(comms)
	if sim.noc.Wireless {
		return sim.noc.TransferTime(total)
	}
	return sim.noc.CommunicationTime(comms) + sim.noc.TransferTime(total)
}

// freeUnusedAncillas releases the ancillas of the stage at idx that no later
// stage refers to, and returns them
func (sim *Simulation) freeUnusedAncillas(idx int) []Qubit {
	ancillas := make(map[Qubit]bool)
	for _, g := range sim.stages[idx] {
		for _, q := range g {
			if q.IsAncilla() {
				ancillas[q] = true
			}
		}
	}

	for later := idx + 1; later < len(sim.stages) && len(ancillas) > 0; later++ {
		for _, g := range sim.stages[later] {
			for _, q := range g {
				delete(ancillas, q)
			}
		}
	}

	released := make([]Qubit, 0, len(ancillas))
	for q := range ancillas {
		released = append(released, q)
	}
	sortQubits(released)
	for _, q := range released {
		sim.cores.release(q, sim.mapping)
	}
	return released
}

func (sim *Simulation) String() string {
	return fmt.Sprintf("simulation of %d stages (%d executed) on %d cores",
		len(sim.stages), sim.next, sim.arch.NumberOfCores)
}
