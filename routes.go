package qmcsim

// routes.go provides the mesh topology of the NoC and the functions that route
// across it.  Cores are numbered row by row, core id = y*MeshX + x.
//
// Routing is XY: a step in x until the x coordinates agree, then steps in y.
// The mesh is also held as a gonum graph, which answers adjacency questions
// and, through shortest-path trees, the minimal hop distance between cores
// that an XY route must match.

import (
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// meshTopo is the graph representation of a MeshX x MeshY mesh
type meshTopo struct {
	meshX, meshY int
	graph        *simple.UndirectedGraph

	// cachedSP saves the result of computing shortest-path trees, keyed by the tree's root core
	cachedSP map[int]path.Shortest
}

// buildMeshTopo creates the graph with a node per core and an edge between
// every pair of cores that differ by one in exactly one coordinate
func buildMeshTopo(meshX, meshY int) *meshTopo {
	mt := &meshTopo{meshX: meshX, meshY: meshY, graph: simple.NewUndirectedGraph(),
		cachedSP: make(map[int]path.Shortest)}

	for id := 0; id < meshX*meshY; id++ {
		mt.graph.AddNode(simple.Node(id))
	}

	for y := 0; y < meshY; y++ {
		for x := 0; x < meshX; x++ {
			here := int64(y*meshX + x)
			if x+1 < meshX {
				mt.graph.SetEdge(simple.Edge{F: simple.Node(here), T: simple.Node(here + 1)})
			}
			if y+1 < meshY {
				mt.graph.SetEdge(simple.Edge{F: simple.Node(here), T: simple.Node(here + int64(meshX))})
			}
		}
	}
	return mt
}

// adjacent is true if a link joins the two cores
func (mt *meshTopo) adjacent(a, b int) bool {
	return mt.graph.HasEdgeBetween(int64(a), int64(b))
}

// getSPTree returns the shortest path tree rooted in core 'from'.  If the tree
// is found in the cache it is returned, if not it is computed, saved, and returned.
func (mt *meshTopo) getSPTree(from int) path.Shortest {
	spTree, present := mt.cachedSP[from]
	if present {
		return spTree
	}

	spTree = path.DijkstraFrom(mt.graph.Node(int64(from)), mt.graph)
	mt.cachedSP[from] = spTree
	return spTree
}

// hopDistance is the minimum number of links between the two cores
func (mt *meshTopo) hopDistance(src, dst int) int {
	if src == dst {
		return 0
	}
	// a tree rooted at dst serves by symmetry
	if spTree, present := mt.cachedSP[dst]; present {
		return int(spTree.WeightTo(int64(src)))
	}
	return int(mt.getSPTree(src).WeightTo(int64(dst)))
}

// CoreXY returns the mesh coordinates of a core
func (noc *NoC) CoreXY(coreID int) (int, int) {
	return coreID % noc.MeshX, coreID / noc.MeshX
}

// CoreID returns the core at the given mesh coordinates
func (noc *NoC) CoreID(x, y int) int {
	return y*noc.MeshX + x
}

// RoutingXY returns the next core on the XY route from src towards dst.
// It returns src when src == dst.
func (noc *NoC) RoutingXY(src, dst int) int {
	x, y := noc.CoreXY(src)
	xd, yd := noc.CoreXY(dst)

	if x < xd {
		x++
	} else if x > xd {
		x--
	} else if y < yd {
		y++
	} else if y > yd {
		y--
	}
	return noc.CoreID(x, y)
}

// XYPath returns the sequence of cores an XY route visits, src and dst included
func (noc *NoC) XYPath(src, dst int) []int {
	route := []int{src}
	here := src
	for here != dst {
		here = noc.RoutingXY(here, dst)
		route = append(route, here)
	}
	return route
}

// Adjacent is true if a link joins the two cores
func (noc *NoC) Adjacent(a, b int) bool {
	return noc.topo.adjacent(a, b)
}

// HopDistance is the minimum number of links between the two cores
func (noc *NoC) HopDistance(src, dst int) int {
	return noc.topo.hopDistance(src, dst)
}
