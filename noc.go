package qmcsim

// noc.go contains code and data structures supporting the computation of the
// time a batch of concurrent communications needs to cross the network-on-chip
// connecting the cores.
//
// The wired NoC is a rectangular mesh with XY routing.  Each communication is
// moved one link at a time; a link is held by one communication at a time, for
// ceil(volume/link_width) clock cycles, and communications wanting the same link
// wait in a FIFO in the order they asked for it.  A global clock advances to the
// next release cycle queued anywhere, and the batch is done when every
// communication has reached its destination core.
//
// The wireless NoC has no contention model.  Each transfer waits on average for
// half a token ring, spread over the radio channels, and then transmits at the
// radio bit rate; the transfers of a batch are summed.

import (
	"fmt"
	"math"
	"strings"
)

// Communication is the transfer of volume bits from core Src to core Dst
type Communication struct {
	Src    int `json:"src" yaml:"src"`
	Dst    int `json:"dst" yaml:"dst"`
	Volume int `json:"volume" yaml:"volume"`
}

// TotalVolume sums the volume of a batch of communications
func TotalVolume(comms []Communication) int {
	volume := 0
	for _, comm := range comms {
		volume += comm.Volume
	}
	return volume
}

// HopRecord notes that communication CommID crossed the link From->To,
// releasing it at clock cycle Release
type HopRecord struct {
	CommID  int
	From    int
	To      int
	Release int
}

// NoC holds the parameters of the network-on-chip
type NoC struct {
	MeshX, MeshY  int
	LinkWidth     int     // bits crossing a link per clock cycle
	ClockPeriod   float64 // seconds
	QubitAddrBits int

	Wireless      bool
	WBitRate      float64
	RadioChannels int
	TokenPassTime float64

	topo *meshTopo
}

// CreateNoC is a constructor for a wired NoC on a meshX x meshY mesh
func CreateNoC(meshX, meshY, linkWidth int, clockPeriod float64, qubitAddrBits int) *NoC {
	if meshX < 1 || meshY < 1 || linkWidth < 1 {
		invariantf("CreateNoC", "mesh %dx%d with link width %d", meshX, meshY, linkWidth)
	}
	return &NoC{MeshX: meshX, MeshY: meshY, LinkWidth: linkWidth, ClockPeriod: clockPeriod,
		QubitAddrBits: qubitAddrBits, topo: buildMeshTopo(meshX, meshY)}
}

// EnableWireless switches the NoC to the wireless model
func (noc *NoC) EnableWireless(bitRate float64, channels int, tokenPassTime float64) {
	if channels < 1 {
		invariantf("NoC.EnableWireless", "%d radio channels", channels)
	}
	noc.Wireless = true
	noc.WBitRate = bitRate
	noc.RadioChannels = channels
	noc.TokenPassTime = tokenPassTime
}

// NumCores is the number of cores on the mesh
func (noc *NoC) NumCores() int {
	return noc.MeshX * noc.MeshY
}

// LinkTraversalCycles is the number of clock cycles a message of volume bits holds a link
func (noc *NoC) LinkTraversalCycles(volume int) int {
	return int(math.Ceil(float64(volume) / float64(noc.LinkWidth)))
}

// TransferTime is the time to move volume bits point to point: a single link
// crossing for the wired NoC, a token wait plus transmission for the wireless one
func (noc *NoC) TransferTime(volume int) float64 {
	if !noc.Wireless {
		return float64(volume) / (float64(noc.LinkWidth) / noc.ClockPeriod)
	}
	nodes := noc.NumCores()
	avgTokenWait := float64(nodes/2) * noc.TokenPassTime / float64(noc.RadioChannels)
	return avgTokenWait + float64(volume)/noc.WBitRate
}

// CommunicationTime is the time, in seconds, for the batch of concurrent
// communications to drain, under whichever model the NoC uses
func (noc *NoC) CommunicationTime(comms []Communication) float64 {
	if noc.Wireless {
		return noc.wirelessTime(comms)
	}
	cycles, _ := noc.WiredCycles(comms)
	return float64(cycles) * noc.ClockPeriod
}

func (noc *NoC) wirelessTime(comms []Communication) float64 {
	ctime := 0.0
	for _, comm := range comms {
		ctime += noc.TransferTime(comm.Volume)
	}
	return ctime
}

// WiredCycles computes the number of clock cycles the batch needs to drain on
// the wired mesh, and the record of every link crossing, in the order they happened.
// Communications are identified by their index in comms; a communication with
// Src == Dst needs no link and drains at once.
func (noc *NoC) WiredCycles(comms []Communication) (int, []HopRecord) {
	hops := make([]HopRecord, 0)
	position := make([]int, len(comms))
	pending := make([]int, 0, len(comms))
	for commID, comm := range comms {
		position[commID] = comm.Src
		if comm.Src != comm.Dst {
			pending = append(pending, commID)
		}
	}

	lo := createLinkOccupation()
	clock := 0
	for len(pending) > 0 {
		stillPending := pending[:0]
		for _, commID := range pending {
			here, dst := position[commID], comms[commID].Dst
			next := noc.RoutingXY(here, dst)
			lnk := link{from: here, to: next}

			le, advanced := lo.request(lnk, commID, clock, noc.LinkTraversalCycles(comms[commID].Volume))
			if advanced {
				hops = append(hops, HopRecord{CommID: commID, From: here, To: next, Release: le.release})
				position[commID] = next
				if next == dst {
					continue
				}
			}
			stillPending = append(stillPending, commID)
		}
		pending = stillPending

		if !lo.empty() {
			clock = lo.nextClockCycle()
		}
	}
	return clock, hops
}

// Throughput is volume bits over elapsed seconds
func (noc *NoC) Throughput(volume int, elapsed float64) float64 {
	return float64(volume) / elapsed
}

func (noc *NoC) String() string {
	var sb strings.Builder
	if !noc.Wireless {
		sb.WriteString("*** NoC ***\n")
		fmt.Fprintf(&sb, "mesh_x x mesh_y: %dx%d\n", noc.MeshX, noc.MeshY)
		fmt.Fprintf(&sb, "clock period (s): %g\n", noc.ClockPeriod)
		fmt.Fprintf(&sb, "link width (bits): %d\n", noc.LinkWidth)
	} else {
		sb.WriteString("*** WiNoC ***\n")
		fmt.Fprintf(&sb, "bit rate (bps): %g\n", noc.WBitRate)
		fmt.Fprintf(&sb, "radio channels: %d\n", noc.RadioChannels)
		fmt.Fprintf(&sb, "token pass time (s): %g\n", noc.TokenPassTime)
	}
	return sb.String()
}
