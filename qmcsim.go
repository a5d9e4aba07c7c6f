package qmcsim

// qmcsim.go has code that builds an experiment from its description files
// and runs it.  An experiment is a circuit, the architecture it runs on, and
// the timing parameters of that architecture.

import (
	"errors"
	"path"
	"strings"

	"go.uber.org/zap"
)

// Override is a command-line replacement of one architecture or timing parameter
type Override struct {
	Name  string
	Value string
}

// Experiment bundles the inputs of a run and, once run, the state it left
type Experiment struct {
	Name    string
	Circuit *Circuit
	Arch    *Architecture
	Params  *Parameters
	NoC     *NoC
	Mapping *Mapping
	Cores   *Cores
	Trace   *TraceManager

	// Rng drives random mapping, a nil Rng gets a fresh stream
	Rng RandStream
}

// BuildExperiment loads the circuit, architecture, and parameters from the named files,
// applies the overrides in order, and builds the NoC.  Overrides are tried on the
// architecture first; names neither recognizes are logged and ignored.  Failures are
// reported as *LoadError, one per file that could not be used, joined in the order
// circuit, architecture, parameters.
func BuildExperiment(circuitFile, archFile, paramFile string, overrides []Override) (*Experiment, error) {
	var errs []error

	circuit, err := ReadCircuit(circuitFile, nil)
	if err != nil {
		errs = append(errs, &LoadError{Kind: "circuit", File: circuitFile, Err: err})
	}
	arch, err := ReadArchitecture(archFile, nil)
	if err != nil {
		errs = append(errs, &LoadError{Kind: "architecture", File: archFile, Err: err})
	}
	params, err := ReadParameters(paramFile, nil)
	if err != nil {
		errs = append(errs, &LoadError{Kind: "parameters", File: paramFile, Err: err})
	}
	if len(errs) > 0 {
		// the first failure decides the caller's exit status
		return nil, errors.Join(errs...)
	}

	for _, ovr := range overrides {
		if onArch, err := applyOverride(arch, params, ovr); err != nil {
			if onArch {
				return nil, &LoadError{Kind: "architecture", File: archFile, Err: err}
			}
			return nil, &LoadError{Kind: "parameters", File: paramFile, Err: err}
		}
	}

	if err = params.Validate(arch); err != nil {
		return nil, &LoadError{Kind: "parameters", File: paramFile, Err: err}
	}

	xp := &Experiment{Name: strings.TrimSuffix(path.Base(circuitFile), path.Ext(circuitFile)),
		Circuit: circuit, Arch: arch, Params: params}
	xp.NoC = BuildNoC(arch, params)
	return xp, nil
}

// applyOverride sets the named architecture attribute or, failing that, the named parameter.
// The flag is true if the name is an architecture attribute.
func applyOverride(arch *Architecture, params *Parameters, ovr Override) (bool, error) {
	err := arch.SetParam(ovr.Name, ovr.Value)
	if !IsUnknownParam(err) {
		if err == nil {
			zap.L().Info("architecture attribute set", zap.String("name", ovr.Name), zap.String("value", ovr.Value))
		}
		return true, err
	}

	err = params.SetParam(ovr.Name, ovr.Value)
	if IsUnknownParam(err) {
		zap.L().Warn("unrecognized parameter ignored", zap.String("name", ovr.Name))
		return false, nil
	}
	if err == nil {
		zap.L().Info("parameter set", zap.String("name", ovr.Name), zap.String("value", ovr.Value))
	}
	return false, err
}

// BuildNoC constructs the NoC of the architecture, wireless if the architecture says so
func BuildNoC(arch *Architecture, params *Parameters) *NoC {
	noc := CreateNoC(arch.MeshX, arch.MeshY, arch.LinkWidth, params.NoCClockTime, arch.QubitAddrBits())
	if arch.WirelessEnabled {
		noc.EnableWireless(params.WBitRate, arch.RadioChannels, params.TokenPassTime)
	}
	return noc
}

// Run maps the circuit onto the cores, simulates it, and reports the outcome.
// A violated invariant, during placement or simulation, is returned as an *InvariantError.
func (xp *Experiment) Run() (rpt *Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*InvariantError)
			if !ok {
				panic(r)
			}
			rpt, err = nil, ie
		}
	}()

	xp.Mapping = CreateMapping(xp.Circuit.NumQubits, xp.Arch.NumberOfCores, xp.Arch.MappingType, xp.Rng)
	xp.Cores = CreateCores(xp.Arch, xp.Mapping)
	zap.L().Debug("initial mapping", zap.Stringer("mapping", xp.Mapping))

	sim := CreateSimulation(xp.Circuit, xp.Arch, xp.NoC, xp.Params, xp.Mapping, xp.Cores)
	sim.SetTrace(xp.Trace)
	stats, err := sim.Run()
	if err != nil {
		return nil, err
	}

	rpt = stats.Report(xp.Circuit, xp.Cores, xp.Arch, xp.Params.StatsDetailed)
	rpt.Fingerprint, err = RunFingerprint(xp.Circuit, xp.Arch, xp.Params)
	if err != nil {
		return nil, err
	}
	return rpt, nil
}
