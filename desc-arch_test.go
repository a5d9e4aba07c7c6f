package qmcsim

import (
	"os"
	"path/filepath"
	"testing"
)

const archYAML = `mesh_x: 2
mesh_y: 3
link_width: 16
qubits_per_core: 4
ltm_ports: 2
teleportation_type: mesh
dst_selection_mode: load-aware
mapping_type: sequential
`

const archJSON = `{"mesh_x": 2, "mesh_y": 3, "link_width": 16, "qubits_per_core": 4, "ltm_ports": 2,
 "teleportation_type": "1", "dst_selection_mode": "1", "mapping_type": "1"}`

const archLines = `# 2x3 mesh
mesh_x 2
mesh_y 3
link_width 16
qubits_per_core 4
ltm_ports 2
teleportation_type 1
dst_selection_mode load-aware
mapping_type 1
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", filename, err)
	}
	return filename
}

func TestReadArchitecture(t *testing.T) {
	tests := []struct {
		file    string
		content string
	}{
		{"arch.yaml", archYAML},
		{"arch.json", archJSON},
		{"arch.cfg", archLines},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			arch, err := ReadArchitecture(writeTemp(t, tt.file, tt.content), nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if arch.MeshX != 2 || arch.MeshY != 3 || arch.NumberOfCores != 6 {
				t.Errorf("mesh %dx%d with %d cores, want 2x3 with 6", arch.MeshX, arch.MeshY, arch.NumberOfCores)
			}
			if arch.LinkWidth != 16 || arch.QubitsPerCore != 4 || arch.LTMPorts != 2 {
				t.Errorf("unexpected attributes %+v", arch)
			}
			if arch.TeleportationType != MeshTeleport || arch.DstSelectionMode != LoadAware ||
				arch.MappingType != SequentialMapping {
				t.Errorf("enumerations %s %s %s, want mesh load-aware sequential",
					arch.TeleportationType, arch.DstSelectionMode, arch.MappingType)
			}
		})
	}
}

func TestReadArchitectureFromBytes(t *testing.T) {
	// dict takes the place of the file, which need not exist
	arch, err := ReadArchitecture("inline.yaml", []byte(archYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if arch.NumberOfCores != 6 {
		t.Errorf("%d cores, want 6", arch.NumberOfCores)
	}
}

func TestReadArchitectureErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		unknown bool
	}{
		{"unknown line attribute", "arch.cfg", archLines + "warp_drive 1\n", true},
		{"unknown json attribute", "arch.json", `{"mesh_x": 2, "warp_drive": 1}`, true},
		{"unknown yaml attribute", "arch.yaml", archYAML + "warp_drive: 1\n", false},
		{"malformed line", "arch.cfg", "mesh_x\n", false},
		{"bad integer", "arch.cfg", "mesh_x two\n", false},
		{"zero mesh", "arch.cfg", "mesh_x 0\nmesh_y 1\nlink_width 1\nqubits_per_core 1\nltm_ports 1\n", false},
		{"wireless without channels", "arch.yaml", archYAML + "wireless_enabled: true\nradio_channels: 0\n", false},
		{"unknown teleportation type", "arch.cfg",
			"mesh_x 1\nmesh_y 1\nlink_width 1\nqubits_per_core 1\nltm_ports 1\nteleportation_type warp\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadArchitecture(writeTemp(t, tt.file, tt.content), nil)
			if err == nil {
				t.Fatalf("invalid description accepted")
			}
			if IsUnknownParam(err) != tt.unknown {
				t.Errorf("IsUnknownParam(%v) = %t, want %t", err, IsUnknownParam(err), tt.unknown)
			}
		})
	}
}

func TestAddressBits(t *testing.T) {
	tests := []struct {
		meshX, meshY, qpc int
		qubitBits         int
		localBits         int
	}{
		{2, 2, 4, 4, 2},
		{2, 2, 3, 4, 2},
		{2, 2, 2, 3, 1},
		{1, 1, 1, 0, 0},
		{4, 4, 10, 8, 4},
	}
	for _, tt := range tests {
		arch := testArch(t, tt.meshX, tt.meshY, tt.qpc, 1, AllToAll, LoadIndependent)
		if arch.QubitAddrBits() != tt.qubitBits {
			t.Errorf("%dx%d, %d per core: QubitAddrBits = %d, want %d",
				tt.meshX, tt.meshY, tt.qpc, arch.QubitAddrBits(), tt.qubitBits)
		}
		if arch.LocalAddrBits() != tt.localBits {
			t.Errorf("%d per core: LocalAddrBits = %d, want %d", tt.qpc, arch.LocalAddrBits(), tt.localBits)
		}
	}
}

func TestArchitectureSetParam(t *testing.T) {
	arch := testArch(t, 2, 2, 4, 1, AllToAll, LoadIndependent)

	if err := arch.SetParam("mesh_x", "4"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if arch.MeshX != 4 || arch.NumberOfCores != 8 {
		t.Errorf("after override mesh_x=%d with %d cores, want 4 with 8", arch.MeshX, arch.NumberOfCores)
	}

	if err := arch.SetParam("teleportation_type", "mesh"); err != nil || arch.TeleportationType != MeshTeleport {
		t.Errorf("setting teleportation_type: %v, type %s", err, arch.TeleportationType)
	}

	if err := arch.SetParam("qubits_per_core", "0"); err == nil {
		t.Errorf("zero qubits_per_core accepted")
	}
	if arch.QubitsPerCore != 4 {
		t.Errorf("failed override changed qubits_per_core to %d", arch.QubitsPerCore)
	}

	if err := arch.SetParam("warp_drive", "1"); !IsUnknownParam(err) {
		t.Errorf("unknown name gave %v", err)
	}
}

func TestArchDescWriteToFile(t *testing.T) {
	arch := testArch(t, 3, 2, 5, 2, MeshTeleport, LoadAware)
	for _, name := range []string{"arch.yaml", "arch.json", "arch.cfg"} {
		t.Run(name, func(t *testing.T) {
			filename := filepath.Join(t.TempDir(), name)
			desc := arch.Desc()
			if err := desc.WriteToFile(filename); err != nil {
				t.Fatalf("WriteToFile: %v", err)
			}
			back, err := ReadArchitecture(filename, nil)
			if err != nil {
				t.Fatalf("ReadArchitecture: %v", err)
			}
			if *back != *arch {
				t.Errorf("read back %+v, want %+v", back, arch)
			}
		})
	}
}

func TestEnumerationsFromStr(t *testing.T) {
	if tt, err := TeleportationTypeFromStr("0"); err != nil || tt != AllToAll {
		t.Errorf("code 0 gave %s, %v", tt, err)
	}
	if dsm, err := DstSelectionModeFromStr(""); err != nil || dsm != LoadIndependent {
		t.Errorf("empty mode gave %s, %v", dsm, err)
	}
	if ms, err := MappingStrategyFromStr("Random"); err != nil || ms != RandomMapping {
		t.Errorf("'Random' gave %s, %v", ms, err)
	}
	if _, err := MappingStrategyFromStr("2"); err == nil {
		t.Errorf("mapping code 2 accepted")
	}
}
