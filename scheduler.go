package qmcsim

// scheduler.go drives a simulation run with the discrete-event manager.  The
// execution of a stage is an event; its handler computes the cost of the stage
// and schedules the execution of the next stage after that cost has elapsed,
// so the simulated clock reads the start time of each stage as it executes.

import (
	"fmt"

	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
)

// simHorizon bounds the simulated time of a run, in seconds. At the
// 1e10 ticks per second vrtime runs at, it must stay below 9.2e8 to fit int64 ticks.
const simHorizon = 9.0e8

// schedule runs every stage of the circuit through an event manager
func (sim *Simulation) schedule() error {
	if len(sim.stages) == 0 {
		return nil
	}

	evtMgr := evtm.New()
	evtMgr.Schedule(sim, 0, execStage, vrtime.SecondsToTime(0.0))
	evtMgr.Run(simHorizon)

	if sim.next < len(sim.stages) {
		return fmt.Errorf("simulation stopped at stage %d of %d, past the horizon of %g s",
			sim.next, len(sim.stages), simHorizon)
	}
	return nil
}

// execStage is the event handler executing one stage.  The context is the
// *Simulation, the data the index of the stage.
func execStage(evtMgr *evtm.EventManager, context any, data any) any {
	sim := context.(*Simulation)
	idx := data.(int)

	stats := sim.step(idx, evtMgr.CurrentTime())
	sim.next = idx + 1

	// mesh expansion may have lengthened the circuit during the step
	if sim.next < len(sim.stages) {
		evtMgr.Schedule(sim, sim.next, execStage, vrtime.SecondsToTime(stats.ExecutionTime()))
	}
	return nil
}
