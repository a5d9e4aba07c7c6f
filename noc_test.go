package qmcsim

import (
	"testing"
)

func manhattan(noc *NoC, a, b int) int {
	xa, ya := noc.CoreXY(a)
	xb, yb := noc.CoreXY(b)
	dx, dy := xa-xb, ya-yb
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

func TestRoutingXYStepsTowardsDestination(t *testing.T) {
	noc := CreateNoC(3, 4, 4, 1e-9, 4)
	for src := 0; src < noc.NumCores(); src++ {
		for dst := 0; dst < noc.NumCores(); dst++ {
			next := noc.RoutingXY(src, dst)
			if src == dst {
				if next != src {
					t.Errorf("RoutingXY(%d,%d) = %d, want to stay", src, dst, next)
				}
				continue
			}
			if !noc.Adjacent(src, next) {
				t.Errorf("RoutingXY(%d,%d) = %d, not adjacent to %d", src, dst, next, src)
			}
			if manhattan(noc, next, dst) != manhattan(noc, src, dst)-1 {
				t.Errorf("RoutingXY(%d,%d) = %d does not get closer", src, dst, next)
			}
		}
	}
}

func TestRoutingXYAlignsXFirst(t *testing.T) {
	noc := CreateNoC(3, 3, 4, 1e-9, 4)
	// core 0 is (0,0), core 8 is (2,2)
	route := noc.XYPath(0, 8)
	want := []int{0, 1, 2, 5, 8}
	if len(route) != len(want) {
		t.Fatalf("route %v, want %v", route, want)
	}
	for idx := range want {
		if route[idx] != want[idx] {
			t.Fatalf("route %v, want %v", route, want)
		}
	}
}

func TestXYPathIsMinimal(t *testing.T) {
	noc := CreateNoC(4, 3, 4, 1e-9, 4)
	for src := 0; src < noc.NumCores(); src++ {
		for dst := 0; dst < noc.NumCores(); dst++ {
			route := noc.XYPath(src, dst)
			if len(route)-1 != noc.HopDistance(src, dst) {
				t.Errorf("route %d->%d has %d hops, shortest is %d", src, dst, len(route)-1, noc.HopDistance(src, dst))
			}
		}
	}
}

func TestWiredQueueOnSharedLink(t *testing.T) {
	noc := CreateNoC(2, 1, 4, 1e-9, 4)
	comms := []Communication{{Src: 0, Dst: 1, Volume: 8}, {Src: 0, Dst: 1, Volume: 8}}

	cycles, hops := noc.WiredCycles(comms)
	if cycles != 4 {
		t.Errorf("cycles = %d, want 4", cycles)
	}
	if len(hops) != 2 {
		t.Fatalf("%d hops, want 2", len(hops))
	}
	if hops[0].CommID != 0 || hops[0].Release != 2 {
		t.Errorf("first hop %+v, want communication 0 released at 2", hops[0])
	}
	if hops[1].CommID != 1 || hops[1].Release != hops[0].Release+2 {
		t.Errorf("second hop %+v, want communication 1 released 2 cycles after the first", hops[1])
	}
	if ct := noc.CommunicationTime(comms); !almostEqual(ct, 4e-9) {
		t.Errorf("communication time = %g, want 4e-9", ct)
	}
}

func TestWiredCycles(t *testing.T) {
	tests := []struct {
		name   string
		meshX  int
		meshY  int
		comms  []Communication
		cycles int
	}{
		{"empty batch", 2, 2, nil, 0},
		{"self communication", 2, 2, []Communication{{Src: 3, Dst: 3, Volume: 64}}, 0},
		{"two hops", 3, 1, []Communication{{Src: 0, Dst: 2, Volume: 4}}, 2},
		{"partial link cycle rounds up", 2, 1, []Communication{{Src: 0, Dst: 1, Volume: 5}}, 2},
		{"opposite directions do not contend", 2, 1,
			[]Communication{{Src: 0, Dst: 1, Volume: 8}, {Src: 1, Dst: 0, Volume: 8}}, 2},
		{"self communication adds nothing", 2, 1,
			[]Communication{{Src: 0, Dst: 1, Volume: 8}, {Src: 1, Dst: 1, Volume: 8}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			noc := CreateNoC(tt.meshX, tt.meshY, 4, 1e-9, 4)
			cycles, _ := noc.WiredCycles(tt.comms)
			if cycles != tt.cycles {
				t.Errorf("cycles = %d, want %d", cycles, tt.cycles)
			}
		})
	}
}

func TestWiredCyclesDeterministic(t *testing.T) {
	noc := CreateNoC(4, 4, 3, 1e-9, 6)
	comms := make([]Communication, 0)
	for idx := 0; idx < 24; idx++ {
		comms = append(comms, Communication{Src: (idx * 7) % 16, Dst: (idx*5 + 3) % 16, Volume: 1 + idx%9})
	}

	first, firstHops := noc.WiredCycles(comms)
	for run := 0; run < 5; run++ {
		cycles, hops := noc.WiredCycles(comms)
		if cycles != first || len(hops) != len(firstHops) {
			t.Fatalf("run %d: %d cycles, %d hops; first run %d cycles, %d hops",
				run, cycles, len(hops), first, len(firstHops))
		}
		for idx := range hops {
			if hops[idx] != firstHops[idx] {
				t.Fatalf("run %d: hop %d = %+v, first run %+v", run, idx, hops[idx], firstHops[idx])
			}
		}
	}
}

func TestEveryCommunicationDrains(t *testing.T) {
	noc := CreateNoC(3, 3, 2, 1e-9, 5)
	comms := []Communication{{Src: 0, Dst: 8, Volume: 3}, {Src: 6, Dst: 2, Volume: 2}, {Src: 4, Dst: 4, Volume: 1}}

	_, hops := noc.WiredCycles(comms)
	arrived := make(map[int]int)
	for _, hop := range hops {
		arrived[hop.CommID] = hop.To
	}
	for commID, comm := range comms {
		if comm.Src == comm.Dst {
			continue
		}
		if arrived[commID] != comm.Dst {
			t.Errorf("communication %d ended on core %d, want %d", commID, arrived[commID], comm.Dst)
		}
	}
}

func TestTransferTime(t *testing.T) {
	noc := CreateNoC(2, 2, 4, 1e-9, 3)
	if tt := noc.TransferTime(8); !almostEqual(tt, 2e-9) {
		t.Errorf("wired transfer time = %g, want 2e-9", tt)
	}

	noc.EnableWireless(1e9, 2, 1e-9)
	// half of 4 cores, over 2 channels, plus 10 bits at 1 Gbps
	if tt := noc.TransferTime(10); !almostEqual(tt, 1e-9+1e-8) {
		t.Errorf("wireless transfer time = %g, want 1.1e-8", tt)
	}

	comms := []Communication{{Src: 0, Dst: 3, Volume: 10}, {Src: 1, Dst: 2, Volume: 10}}
	if ct := noc.CommunicationTime(comms); !almostEqual(ct, 2*(1e-9+1e-8)) {
		t.Errorf("wireless communication time = %g, want the sum of transfers", ct)
	}
}

func TestLinkOccupation(t *testing.T) {
	lo := createLinkOccupation()
	lnk := link{from: 0, to: 1}

	if _, advanced := lo.request(lnk, 0, 0, 2); advanced {
		t.Errorf("communication advanced on joining an idle link")
	}
	if le, _ := lo.request(lnk, 1, 0, 3); le.release != 5 {
		t.Errorf("second communication releases at %d, want 5", le.release)
	}
	if lo.nextClockCycle() != 2 {
		t.Errorf("next clock cycle = %d, want 2", lo.nextClockCycle())
	}
	if _, advanced := lo.request(lnk, 1, 2, 3); advanced {
		t.Errorf("communication advanced behind another")
	}
	if _, advanced := lo.request(lnk, 0, 2, 2); !advanced {
		t.Errorf("head communication did not advance at its release")
	}
	if _, advanced := lo.request(lnk, 1, 5, 3); !advanced {
		t.Errorf("second communication did not advance at its release")
	}
	if !lo.empty() {
		t.Errorf("drained link still present: %s", lo)
	}
}
