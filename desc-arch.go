package qmcsim

// file desc-arch.go holds structs, methods, and data structures supporting
// the description of a multi-core quantum architecture: the serializable
// ArchDesc read from and written to file, and the validated Architecture
// the simulator runs against.

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// TeleportationType selects which pairs of cores a single teleportation may connect
type TeleportationType int

const (
	AllToAll TeleportationType = iota
	MeshTeleport
)

// DstSelectionMode selects the core a remote gate executes on
type DstSelectionMode int

const (
	LoadIndependent DstSelectionMode = iota
	LoadAware
)

// MappingStrategy selects the initial qubit to core assignment.  The numeric
// codes are those of the line-oriented configuration format.
type MappingStrategy int

const (
	RandomMapping MappingStrategy = iota
	SequentialMapping
)

// TeleportationTypeFromStr accepts either the numeric code or the name.
// An empty string selects code 0, as do the other FromStr functions.
func TeleportationTypeFromStr(tt string) (TeleportationType, error) {
	switch strings.ToLower(strings.TrimSpace(tt)) {
	case "", "0", "all-to-all", "alltoall", "a2a":
		return AllToAll, nil
	case "1", "mesh":
		return MeshTeleport, nil
	}
	return AllToAll, fmt.Errorf("unknown teleportation_type %q", tt)
}

func (tt TeleportationType) String() string {
	switch tt {
	case AllToAll:
		return "all-to-all"
	case MeshTeleport:
		return "mesh"
	}
	return "unknown"
}

// DstSelectionModeFromStr accepts either the numeric code or the name
func DstSelectionModeFromStr(dsm string) (DstSelectionMode, error) {
	switch strings.ToLower(strings.TrimSpace(dsm)) {
	case "", "0", "load-independent", "independent":
		return LoadIndependent, nil
	case "1", "load-aware", "aware":
		return LoadAware, nil
	}
	return LoadIndependent, fmt.Errorf("unknown dst_selection_mode %q", dsm)
}

func (dsm DstSelectionMode) String() string {
	switch dsm {
	case LoadIndependent:
		return "load-independent"
	case LoadAware:
		return "load-aware"
	}
	return "unknown"
}

// MappingStrategyFromStr accepts either the numeric code or the name
func MappingStrategyFromStr(ms string) (MappingStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(ms)) {
	case "", "0", "random":
		return RandomMapping, nil
	case "1", "sequential":
		return SequentialMapping, nil
	}
	return RandomMapping, fmt.Errorf("unknown mapping_type %q", ms)
}

func (ms MappingStrategy) String() string {
	switch ms {
	case RandomMapping:
		return "random"
	case SequentialMapping:
		return "sequential"
	}
	return "unknown"
}

// errUnknownParam is returned by SetParam methods for names they do not recognize
var errUnknownParam = errors.New("unrecognized parameter")

// IsUnknownParam reports whether err was caused by an unrecognized parameter name
func IsUnknownParam(err error) bool {
	return errors.Is(err, errUnknownParam)
}

// ArchDesc is the serializable description of an architecture.  The
// enumerations are carried as strings holding either the name or the numeric code.
type ArchDesc struct {
	MeshX             int    `json:"mesh_x" yaml:"mesh_x"`
	MeshY             int    `json:"mesh_y" yaml:"mesh_y"`
	LinkWidth         int    `json:"link_width" yaml:"link_width"`
	QubitsPerCore     int    `json:"qubits_per_core" yaml:"qubits_per_core"`
	LTMPorts          int    `json:"ltm_ports" yaml:"ltm_ports"`
	RadioChannels     int    `json:"radio_channels" yaml:"radio_channels"`
	WirelessEnabled   bool   `json:"wireless_enabled" yaml:"wireless_enabled"`
	TeleportationType string `json:"teleportation_type" yaml:"teleportation_type"`
	DstSelectionMode  string `json:"dst_selection_mode" yaml:"dst_selection_mode"`
	MappingType       string `json:"mapping_type" yaml:"mapping_type"`
}

// fields maps the configuration name of each ArchDesc attribute to its address
func (ad *ArchDesc) fields() map[string]any {
	return map[string]any{
		"mesh_x":             &ad.MeshX,
		"mesh_y":             &ad.MeshY,
		"link_width":         &ad.LinkWidth,
		"qubits_per_core":    &ad.QubitsPerCore,
		"ltm_ports":          &ad.LTMPorts,
		"radio_channels":     &ad.RadioChannels,
		"wireless_enabled":   &ad.WirelessEnabled,
		"teleportation_type": &ad.TeleportationType,
		"dst_selection_mode": &ad.DstSelectionMode,
		"mapping_type":       &ad.MappingType,
	}
}

// Set assigns the attribute with the given configuration name from its string encoding
func (ad *ArchDesc) Set(name, value string) error {
	return setField(ad.fields(), name, value)
}

// Transform validates the description and produces the Architecture it describes
func (ad *ArchDesc) Transform() (*Architecture, error) {
	errs := []error{}
	positive := func(name string, v int) {
		if v < 1 {
			errs = append(errs, fmt.Errorf("%s must be positive, is %d", name, v))
		}
	}
	positive("mesh_x", ad.MeshX)
	positive("mesh_y", ad.MeshY)
	positive("link_width", ad.LinkWidth)
	positive("qubits_per_core", ad.QubitsPerCore)
	positive("ltm_ports", ad.LTMPorts)
	if ad.WirelessEnabled {
		positive("radio_channels", ad.RadioChannels)
	}

	arch := &Architecture{MeshX: ad.MeshX, MeshY: ad.MeshY, LinkWidth: ad.LinkWidth,
		QubitsPerCore: ad.QubitsPerCore, LTMPorts: ad.LTMPorts, RadioChannels: ad.RadioChannels,
		WirelessEnabled: ad.WirelessEnabled}

	var err error
	arch.TeleportationType, err = TeleportationTypeFromStr(ad.TeleportationType)
	errs = append(errs, err)
	arch.DstSelectionMode, err = DstSelectionModeFromStr(ad.DstSelectionMode)
	errs = append(errs, err)
	arch.MappingType, err = MappingStrategyFromStr(ad.MappingType)
	errs = append(errs, err)

	if rerr := ReportErrs(errs); rerr != nil {
		return nil, rerr
	}
	arch.updateDerived()
	return arch, nil
}

// WriteToFile stores the ArchDesc struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name,
// any other extension gets the line-oriented 'name value' format.
func (ad *ArchDesc) WriteToFile(filename string) error {
	return writeDesc(filename, ad, ad.fields())
}

// Architecture is the validated, static description of the machine being simulated
type Architecture struct {
	MeshX, MeshY      int
	LinkWidth         int // bits per NoC cycle on each link
	QubitsPerCore     int
	LTMPorts          int // teleportation ports per core per admission round
	RadioChannels     int
	NumberOfCores     int // derived, MeshX*MeshY
	WirelessEnabled   bool
	TeleportationType TeleportationType
	DstSelectionMode  DstSelectionMode
	MappingType       MappingStrategy
}

func (arch *Architecture) updateDerived() {
	arch.NumberOfCores = arch.MeshX * arch.MeshY
}

// TotalQubits is the number of physical qubits over all cores
func (arch *Architecture) TotalQubits() int {
	return arch.QubitsPerCore * arch.NumberOfCores
}

// QubitAddrBits is the number of bits needed to address any physical qubit
func (arch *Architecture) QubitAddrBits() int {
	return addrBits(arch.TotalQubits())
}

// LocalAddrBits is the number of bits needed to address a qubit within a core
func (arch *Architecture) LocalAddrBits() int {
	return addrBits(arch.QubitsPerCore)
}

// addrBits is ceil(log2(n)), 0 for n <= 1
func addrBits(n int) int {
	if n <= 1 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(n))))
}

// Desc returns the serializable description of the architecture
func (arch *Architecture) Desc() ArchDesc {
	return ArchDesc{MeshX: arch.MeshX, MeshY: arch.MeshY, LinkWidth: arch.LinkWidth,
		QubitsPerCore: arch.QubitsPerCore, LTMPorts: arch.LTMPorts, RadioChannels: arch.RadioChannels,
		WirelessEnabled:   arch.WirelessEnabled,
		TeleportationType: arch.TeleportationType.String(),
		DstSelectionMode:  arch.DstSelectionMode.String(),
		MappingType:       arch.MappingType.String()}
}

// SetParam overrides one attribute, named as in the configuration file.  The
// architecture is left unchanged if the result does not validate.
func (arch *Architecture) SetParam(name, value string) error {
	ad := arch.Desc()
	if err := ad.Set(name, value); err != nil {
		return err
	}
	narch, err := ad.Transform()
	if err != nil {
		return err
	}
	*arch = *narch
	return nil
}

func (arch *Architecture) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "mesh_x x mesh_y: %dx%d\n", arch.MeshX, arch.MeshY)
	fmt.Fprintf(&sb, "qubits_per_core: %d (total physical qubits: %d)\n", arch.QubitsPerCore, arch.TotalQubits())
	fmt.Fprintf(&sb, "ltm_ports: %d\n", arch.LTMPorts)
	fmt.Fprintf(&sb, "teleportation_type: %s\n", arch.TeleportationType)
	fmt.Fprintf(&sb, "dst_selection_mode: %s\n", arch.DstSelectionMode)
	fmt.Fprintf(&sb, "wireless_enabled: %t\n", arch.WirelessEnabled)
	if arch.WirelessEnabled {
		fmt.Fprintf(&sb, "\tradio_channels: %d\n", arch.RadioChannels)
	}
	fmt.Fprintf(&sb, "mapping_type: %s\n", arch.MappingType)
	return sb.String()
}

// ReadArchDesc deserializes a byte slice holding a representation of an ArchDesc struct.
// If the input argument of dict (those bytes) is empty, the file whose name is given is read
// to acquire them.  The encoding (yaml, json, or 'name value' lines) is selected from the
// extension of the file name.  Unrecognized attribute names are errors.
func ReadArchDesc(filename string, dict []byte) (*ArchDesc, error) {
	var err error
	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	example := ArchDesc{}
	if err = decodeDesc(filename, dict, &example, example.fields()); err != nil {
		return nil, err
	}
	return &example, nil
}

// ReadArchitecture reads an architecture description and validates it
func ReadArchitecture(filename string, dict []byte) (*Architecture, error) {
	ad, err := ReadArchDesc(filename, dict)
	if err != nil {
		return nil, err
	}
	return ad.Transform()
}

// descFormat names the encoding selected by a file name extension
type descFormat int

const (
	lineFormat descFormat = iota
	yamlFormat
	jsonFormat
)

func formatOf(filename string) descFormat {
	switch path.Ext(filename) {
	case ".yaml", ".YAML", ".yml":
		return yamlFormat
	case ".json", ".JSON":
		return jsonFormat
	}
	return lineFormat
}

// decodeDesc fills in 'example' from dict, using the encoding selected by
// the file name. fields holds the addresses of the attributes of 'example'
// keyed by their configuration names.
func decodeDesc(filename string, dict []byte, example any, fields map[string]any) error {
	switch formatOf(filename) {
	case yamlFormat:
		dec := yaml.NewDecoder(bytes.NewReader(dict))
		dec.KnownFields(true)
		err := dec.Decode(example)
		if err == io.EOF {
			return nil
		}
		return err

	case jsonFormat:
		// reject attribute names the struct does not carry
		keys := make(map[string]any)
		if err := sonnet.Unmarshal(dict, &keys); err != nil {
			return err
		}
		for key := range keys {
			if _, present := fields[key]; !present {
				return fmt.Errorf("%w: '%s'", errUnknownParam, key)
			}
		}
		return sonnet.Unmarshal(dict, example)
	}

	pairs, err := readNameValueLines(dict)
	if err != nil {
		return err
	}
	for _, pair := range pairs {
		if err := setField(fields, pair[0], pair[1]); err != nil {
			return err
		}
	}
	return nil
}

// readNameValueLines splits the line-oriented format into (name, value) pairs.
// Empty lines and lines starting with '#' are skipped.
func readNameValueLines(dict []byte) ([][2]string, error) {
	pairs := make([][2]string, 0)
	scanner := bufio.NewScanner(bytes.NewReader(dict))
	lineNo := 0
	for scanner.Scan() {
		lineNo += 1
		pieces := strings.Fields(scanner.Text())
		if len(pieces) == 0 || strings.HasPrefix(pieces[0], "#") {
			continue
		}
		if len(pieces) != 2 {
			return nil, fmt.Errorf("line %d: expected 'name value', found %q", lineNo, scanner.Text())
		}
		pairs = append(pairs, [2]string{pieces[0], pieces[1]})
	}
	return pairs, scanner.Err()
}

// setField parses value according to the type of the attribute named and assigns it
func setField(fields map[string]any, name, value string) error {
	ptr, present := fields[name]
	if !present {
		return fmt.Errorf("%w: '%s' (known: %s)", errUnknownParam, name,
			strings.Join(knownNames(fields), " "))
	}

	var err error
	switch fp := ptr.(type) {
	case *int:
		var v int
		v, err = strconv.Atoi(value)
		if err == nil {
			*fp = v
		}
	case *float64:
		var v float64
		v, err = strconv.ParseFloat(value, 64)
		if err == nil {
			*fp = v
		}
	case *bool:
		var v bool
		v, err = strconv.ParseBool(value)
		if err == nil {
			*fp = v
		}
	case *string:
		*fp = value
	default:
		panic(fmt.Errorf("attribute %s has unsupported type %T", name, ptr))
	}

	if err != nil {
		return fmt.Errorf("bad value %q for %s: %w", value, name, err)
	}
	return nil
}

// fieldValue returns the string encoding of the attribute at ptr
func fieldValue(ptr any) string {
	switch fp := ptr.(type) {
	case *int:
		return strconv.Itoa(*fp)
	case *float64:
		return strconv.FormatFloat(*fp, 'g', -1, 64)
	case *bool:
		return strconv.FormatBool(*fp)
	case *string:
		return *fp
	}
	panic(fmt.Errorf("unsupported attribute type %T", ptr))
}

// writeDesc serializes desc to filename, choosing the encoding from the extension
func writeDesc(filename string, desc any, fields map[string]any) error {
	var bytes []byte
	var merr error

	switch formatOf(filename) {
	case yamlFormat:
		bytes, merr = yaml.Marshal(desc)
	case jsonFormat:
		bytes, merr = sonnet.Marshal(desc)
	default:
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		lines := make([]string, 0, len(names))
		for _, name := range names {
			lines = append(lines, name+" "+fieldValue(fields[name]))
		}
		bytes = []byte(strings.Join(lines, "\n") + "\n")
	}
	if merr != nil {
		return merr
	}

	return os.WriteFile(filename, bytes, 0o644)
}

// knownNames lists the configuration names in fields, sorted
func knownNames(fields map[string]any) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
