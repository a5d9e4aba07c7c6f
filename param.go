package qmcsim

import (
	"fmt"
	"os"
	"strings"
)

// Parameters holds the timing parameters of an experiment.  All times are in seconds,
// rates and bandwidths in bits per second.
type Parameters struct {
	GateDelay     float64 `json:"gate_delay" yaml:"gate_delay"`
	EPRDelay      float64 `json:"epr_delay" yaml:"epr_delay"`
	DistDelay     float64 `json:"dist_delay" yaml:"dist_delay"`
	PreDelay      float64 `json:"pre_delay" yaml:"pre_delay"`
	PostDelay     float64 `json:"post_delay" yaml:"post_delay"`
	NoCClockTime  float64 `json:"noc_clock_time" yaml:"noc_clock_time"`
	WBitRate      float64 `json:"wbit_rate" yaml:"wbit_rate"`
	TokenPassTime float64 `json:"token_pass_time" yaml:"token_pass_time"`

	// MemoryBandwidth is the instruction memory bandwidth
	MemoryBandwidth float64 `json:"memory_bandwidth" yaml:"memory_bandwidth"`

	// BitsInstruction is the number of bits encoding an instruction, operand addresses excluded
	BitsInstruction          int     `json:"bits_instruction" yaml:"bits_instruction"`
	DecodeTimePerInstruction float64 `json:"decode_time_per_instruction" yaml:"decode_time_per_instruction"`

	// StatsDetailed selects the per-core and per-qubit breakdowns in reports
	StatsDetailed bool `json:"stats_detailed" yaml:"stats_detailed"`
}

// CreateParameters is a constructor, all values zero
func CreateParameters() *Parameters {
	return new(Parameters)
}

// fields maps the configuration name of each parameter to its address
func (params *Parameters) fields() map[string]any {
	return map[string]any{
		"gate_delay":                  &params.GateDelay,
		"epr_delay":                   &params.EPRDelay,
		"dist_delay":                  &params.DistDelay,
		"pre_delay":                   &params.PreDelay,
		"post_delay":                  &params.PostDelay,
		"noc_clock_time":              &params.NoCClockTime,
		"wbit_rate":                   &params.WBitRate,
		"token_pass_time":             &params.TokenPassTime,
		"memory_bandwidth":            &params.MemoryBandwidth,
		"bits_instruction":            &params.BitsInstruction,
		"decode_time_per_instruction": &params.DecodeTimePerInstruction,
		"stats_detailed":              &params.StatsDetailed,
	}
}

// SetParam assigns the parameter with the given configuration name from its string encoding.
// An unrecognized name yields an error for which IsUnknownParam is true.
func (params *Parameters) SetParam(name, value string) error {
	return setField(params.fields(), name, value)
}

// Validate returns an error listing every parameter with a value the simulator cannot use
func (params *Parameters) Validate(arch *Architecture) error {
	errs := []error{}
	nonNegative := map[string]float64{"gate_delay": params.GateDelay, "epr_delay": params.EPRDelay,
		"dist_delay": params.DistDelay, "pre_delay": params.PreDelay, "post_delay": params.PostDelay,
		"decode_time_per_instruction": params.DecodeTimePerInstruction}

	for _, name := range knownNames(params.fields()) {
		v, present := nonNegative[name]
		if present && v < 0.0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, is %g", name, v))
		}
	}
	if params.BitsInstruction < 0 {
		errs = append(errs, fmt.Errorf("bits_instruction must not be negative, is %d", params.BitsInstruction))
	}
	if !(params.MemoryBandwidth > 0.0) {
		errs = append(errs, fmt.Errorf("memory_bandwidth must be positive, is %g", params.MemoryBandwidth))
	}
	if !(params.NoCClockTime > 0.0) {
		errs = append(errs, fmt.Errorf("noc_clock_time must be positive, is %g", params.NoCClockTime))
	}
	if arch != nil && arch.WirelessEnabled {
		if !(params.WBitRate > 0.0) {
			errs = append(errs, fmt.Errorf("wbit_rate must be positive with wireless enabled, is %g", params.WBitRate))
		}
		if params.TokenPassTime < 0.0 {
			errs = append(errs, fmt.Errorf("token_pass_time must not be negative, is %g", params.TokenPassTime))
		}
	}
	return ReportErrs(errs)
}

func (params *Parameters) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "gate delay (s): %g\n", params.GateDelay)
	fmt.Fprintf(&sb, "epr delay (s): %g\n", params.EPRDelay)
	fmt.Fprintf(&sb, "dist delay (s): %g\n", params.DistDelay)
	fmt.Fprintf(&sb, "pre delay (s): %g\n", params.PreDelay)
	fmt.Fprintf(&sb, "post delay (s): %g\n", params.PostDelay)
	fmt.Fprintf(&sb, "noc clock time (s): %g\n", params.NoCClockTime)
	fmt.Fprintf(&sb, "wbit rate (bps): %g\n", params.WBitRate)
	fmt.Fprintf(&sb, "token pass time (s): %g\n", params.TokenPassTime)
	fmt.Fprintf(&sb, "memory bandwidth (bps): %g\n", params.MemoryBandwidth)
	fmt.Fprintf(&sb, "bits instruction (bits): %d\n", params.BitsInstruction)
	fmt.Fprintf(&sb, "decode time per instruction (s): %g\n", params.DecodeTimePerInstruction)
	return sb.String()
}

// WriteToFile stores the Parameters struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name,
// any other extension gets the line-oriented 'name value' format.
func (params *Parameters) WriteToFile(filename string) error {
	return writeDesc(filename, params, params.fields())
}

// ReadParameters deserializes a byte slice holding a representation of a Parameters struct.
// If the input argument of dict (those bytes) is empty, the file whose name is given is read
// to acquire them.  The encoding is selected from the file name extension, as for ReadArchDesc.
func ReadParameters(filename string, dict []byte) (*Parameters, error) {
	var err error
	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	example := Parameters{}
	if err = decodeDesc(filename, dict, &example, example.fields()); err != nil {
		return nil, err
	}
	return &example, nil
}
