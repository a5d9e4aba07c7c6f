package qmcsim

// link.go holds the occupation state of the NoC links used while computing
// the time of one batch of communications.  Every directed link in use has a
// FIFO of the communications waiting to cross it, each with the clock cycle at
// which it releases the link.  A link with an empty FIFO is dropped.

import (
	"fmt"
	"math"
	"strings"
)

// link is a directed link between adjacent cores
type link struct {
	from, to int
}

// linkEntry is a communication queued on a link
type linkEntry struct {
	commID  int
	release int // clock cycle at which the communication has crossed the link
}

// linkQueue is the FIFO of communications on one link
type linkQueue struct {
	entries []linkEntry
}

func (lq *linkQueue) push(commID, release int) {
	lq.entries = append(lq.entries, linkEntry{commID: commID, release: release})
}

func (lq *linkQueue) contains(commID int) bool {
	for _, le := range lq.entries {
		if le.commID == commID {
			return true
		}
	}
	return false
}

func (lq *linkQueue) head() linkEntry {
	return lq.entries[0]
}

func (lq *linkQueue) tail() linkEntry {
	return lq.entries[len(lq.entries)-1]
}

func (lq *linkQueue) pop() linkEntry {
	var le linkEntry
	le, lq.entries = lq.entries[0], lq.entries[1:]
	return le
}

func (lq *linkQueue) empty() bool {
	return len(lq.entries) == 0
}

// linkOccupation holds the queue of every link in use
type linkOccupation struct {
	links map[link]*linkQueue
}

func createLinkOccupation() *linkOccupation {
	return &linkOccupation{links: make(map[link]*linkQueue)}
}

// request is called for a communication wanting to cross lnk at clock cycle 'clock',
// needing 'cycles' cycles to do so.  A communication not yet queued on the link joins
// the tail, releasing the link 'cycles' after its predecessor does (or after 'clock'
// on an idle link).  A queued communication advances when it heads the queue and its
// release cycle has been reached; the returned flag reports that it advanced.
func (lo *linkOccupation) request(lnk link, commID, clock, cycles int) (linkEntry, bool) {
	lq, present := lo.links[lnk]
	if !present {
		lq = new(linkQueue)
		lq.push(commID, clock+cycles)
		lo.links[lnk] = lq
		return lq.tail(), false
	}

	if !lq.contains(commID) {
		// a link present in the table has a non-empty queue
		if lq.empty() {
			panic(fmt.Errorf("link %d->%d present with empty queue", lnk.from, lnk.to))
		}
		lq.push(commID, lq.tail().release+cycles)
		return lq.tail(), false
	}

	head := lq.head()
	if head.commID != commID || clock < head.release {
		return head, false
	}

	lq.pop()
	if lq.empty() {
		delete(lo.links, lnk)
	}
	return head, true
}

func (lo *linkOccupation) empty() bool {
	return len(lo.links) == 0
}

// nextClockCycle is the smallest release cycle queued on any link
func (lo *linkOccupation) nextClockCycle() int {
	minCC := math.MaxInt
	for _, lq := range lo.links {
		for _, le := range lq.entries {
			minCC = min(minCC, le.release)
		}
	}
	return minCC
}

func (lo *linkOccupation) String() string {
	rtn := []string{}
	for lnk, lq := range lo.links {
		elements := []string{}
		for _, le := range lq.entries {
			elements = append(elements, fmt.Sprintf("(%d,%d)", le.commID, le.release))
		}
		rtn = append(rtn, fmt.Sprintf("%d->%d: %s", lnk.from, lnk.to, strings.Join(elements, " ")))
	}
	return strings.Join(rtn, "; ")
}
