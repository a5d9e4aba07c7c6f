package qmcsim

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const xpArch = `mesh_x: 2
mesh_y: 2
link_width: 8
qubits_per_core: 2
ltm_ports: 1
mapping_type: sequential
`

const xpParams = `gate_delay 1e-6
epr_delay 1e-6
noc_clock_time 1e-9
memory_bandwidth 1e9
bits_instruction 8
decode_time_per_instruction 1e-9
stats_detailed true
`

// experimentFiles writes a circuit, architecture, and parameter file and returns their names
func experimentFiles(t *testing.T, circuit string) (string, string, string) {
	t.Helper()
	return writeTemp(t, "bell.qc", circuit), writeTemp(t, "arch.yaml", xpArch), writeTemp(t, "params.cfg", xpParams)
}

func loadErrorKind(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}

func TestBuildExperiment(t *testing.T) {
	cfile, afile, pfile := experimentFiles(t, "(0 1) (2 3)\n(1 2)\n")
	overrides := []Override{{Name: "ltm_ports", Value: "2"}, {Name: "gate_delay", Value: "2e-6"},
		{Name: "flux_capacitor", Value: "1"}}

	xp, err := BuildExperiment(cfile, afile, pfile, overrides)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if xp.Name != "bell" {
		t.Errorf("experiment name %q, want bell", xp.Name)
	}
	if xp.Arch.LTMPorts != 2 || xp.Params.GateDelay != 2e-6 {
		t.Errorf("overrides not applied: ltm_ports %d, gate_delay %g", xp.Arch.LTMPorts, xp.Params.GateDelay)
	}
	if xp.NoC.NumCores() != 4 || xp.NoC.QubitAddrBits != 3 || xp.NoC.Wireless {
		t.Errorf("unexpected NoC %+v", xp.NoC)
	}
}

func TestBuildExperimentErrors(t *testing.T) {
	cfile, afile, pfile := experimentFiles(t, "(0 1)\n")
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	badCircuit := writeTemp(t, "bad.qc", "(0 1\n")

	tests := []struct {
		name      string
		files     [3]string
		overrides []Override
		kind      string
	}{
		{"missing circuit", [3]string{missing, afile, pfile}, nil, "circuit"},
		{"malformed circuit", [3]string{badCircuit, afile, pfile}, nil, "circuit"},
		{"circuit reported first", [3]string{badCircuit, missing, missing}, nil, "circuit"},
		{"missing architecture", [3]string{cfile, missing, pfile}, nil, "architecture"},
		{"missing parameters", [3]string{cfile, afile, missing}, nil, "parameters"},
		{"malformed architecture override", [3]string{cfile, afile, pfile},
			[]Override{{Name: "mesh_x", Value: "wide"}}, "architecture"},
		{"malformed parameter override", [3]string{cfile, afile, pfile},
			[]Override{{Name: "epr_delay", Value: "soon"}}, "parameters"},
		{"invalid parameter override", [3]string{cfile, afile, pfile},
			[]Override{{Name: "noc_clock_time", Value: "0"}}, "parameters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildExperiment(tt.files[0], tt.files[1], tt.files[2], tt.overrides)
			if err == nil {
				t.Fatalf("experiment built from bad inputs")
			}
			if kind := loadErrorKind(err); kind != tt.kind {
				t.Errorf("load error kind %q, want %q (%v)", kind, tt.kind, err)
			}
		})
	}
}

func TestExperimentRun(t *testing.T) {
	cfile, afile, pfile := experimentFiles(t, "(0 1)\n(2)\n(0 3)\n")
	xp, err := BuildExperiment(cfile, afile, pfile, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	xp.Trace = CreateTraceManager(xp.Name, true)

	rpt, err := xp.Run()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rpt.ExecutedGates != 3 {
		t.Errorf("%d gates executed, want 3", rpt.ExecutedGates)
	}
	// qubit 0 moves to core 1, then on to core 3
	if rpt.IntercoreComms != 2 {
		t.Errorf("%d intercore communications, want 2", rpt.IntercoreComms)
	}
	if len(rpt.Fingerprint) != 64 {
		t.Errorf("fingerprint %q is not a hex SHA3-256 digest", rpt.Fingerprint)
	}
	if rpt.Intercore == nil || rpt.Intercore[1][3] != 1 || rpt.TeleportationsPerQubit[0] != 2 {
		t.Errorf("detailed statistics missing or wrong: %v %v", rpt.Intercore, rpt.TeleportationsPerQubit)
	}
	if len(xp.Trace.Stages) != 3 || xp.Trace.Stages[1].Time <= 0.0 {
		t.Errorf("trace %+v, want three stages, the second starting after time 0", xp.Trace.Stages)
	}

	for _, name := range []string{"report.yaml", "report.json", "report.txt"} {
		filename := filepath.Join(t.TempDir(), name)
		if err := rpt.WriteToFile(filename); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		content, err := os.ReadFile(filename)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !strings.Contains(string(content), "intercore") && !strings.Contains(string(content), "Intercore") {
			t.Errorf("%s lacks the intercore communications:\n%s", name, content)
		}
	}
}

func TestExperimentRunInvariant(t *testing.T) {
	// both gates pull a qubit onto core 1, which already holds two
	cfile, afile, pfile := experimentFiles(t, "(0 1) (2 5)\n")
	xp, err := BuildExperiment(cfile, afile, pfile, []Override{{Name: "ltm_ports", Value: "4"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = xp.Run()
	if _, ok := asInvariant(err); !ok {
		t.Errorf("capacity violation gave %v, want an *InvariantError", err)
	}
}
