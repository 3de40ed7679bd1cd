package netana

// graph.go provides the network the analysis runs over.  The analysis only needs
// the Network interface: the vertex set, the edges leaving each vertex with their
// distance and capacity, and for every (current vertex, destination) pair a ranked
// list of neighbours to forward to.  Topology implements Network on top of the gonum
// graph packages, which compute the all-pairs shortest distances the rankings come from.
//
// Links are undirected, so a link between a and b is represented by the two edges
// (a,b) and (b,a), with the same distance and the same number of wavelengths.

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ErrTopology is returned for malformed topologies
var ErrTopology = errors.New("malformed topology")

// Edge is a directed edge between two vertices
type Edge struct {
	From int `json:"from" yaml:"from"`
	To   int `json:"to" yaml:"to"`
}

func (e Edge) String() string {
	return fmt.Sprintf("(%d, %d)", e.From, e.To)
}

// edgeLess orders edges by source, then target
func edgeLess(a, b Edge) bool {
	if a.From != b.From {
		return a.From < b.From
	}
	return a.To < b.To
}

func sortEdges(edges []Edge) {
	slices.SortFunc(edges, func(a, b Edge) int {
		switch {
		case edgeLess(a, b):
			return -1
		case edgeLess(b, a):
			return 1
		}
		return 0
	})
}

// Prefs ranks the neighbours of a vertex as next hops toward Dest.
// Neighbours are ordered by the length of the shortest route through them.  Class
// counts the leading neighbours whose route is shorter than twice the best one;
// those are the preferred next hops.  Class is 0 when Dest cannot be reached.
type Prefs struct {
	Dest      int   `json:"dest" yaml:"dest"`
	Class     int   `json:"class" yaml:"class"`
	Neighbors []int `json:"neighbors" yaml:"neighbors"`
}

// Preferred returns the next hops a packet may use
func (pf Prefs) Preferred() []int {
	return pf.Neighbors[:pf.Class]
}

// Reachable is true when some neighbour leads to Dest
func (pf Prefs) Reachable() bool {
	return pf.Class > 0
}

// Network is the view of the graph the analysis consumes
type Network interface {
	// Vertices lists vertex ids in ascending order
	Vertices() []int

	// OutEdges lists the edges leaving j, ordered by target
	OutEdges(j int) []Edge

	// Distance is the length of edge e
	Distance(e Edge) int

	// Capacity is the number of packets edge e carries per slot
	Capacity(e Edge) int

	// OutputCapacity is the sum of the capacities of the edges leaving j
	OutputCapacity(j int) int

	// Prefs ranks the next hops at j toward dest
	Prefs(j, dest int) Prefs
}

// Topology is a Network built from named nodes and links
type Topology struct {
	Name string

	names    map[int]string
	ids      map[string]int
	vertices []int
	out      map[int][]Edge
	dist     map[Edge]int
	capac    map[Edge]int

	connGraph *simple.WeightedUndirectedGraph
	spTree    path.AllShortest
	prefs     map[int]map[int]Prefs
	completed bool
}

// CreateTopology is a constructor
func CreateTopology(name string) *Topology {
	tp := new(Topology)
	tp.Name = name
	tp.names = make(map[int]string)
	tp.ids = make(map[string]int)
	tp.vertices = []int{}
	tp.out = make(map[int][]Edge)
	tp.dist = make(map[Edge]int)
	tp.capac = make(map[Edge]int)
	tp.connGraph = simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	return tp
}

// AddNode adds a vertex with the given name and returns its id.  Ids are handed out
// in order of addition, starting at 0.  Adding a known name returns its id.
func (tp *Topology) AddNode(name string) int {
	id, present := tp.ids[name]
	if present {
		return id
	}
	id = len(tp.vertices)
	tp.ids[name] = id
	tp.names[id] = name
	tp.vertices = append(tp.vertices, id)
	tp.out[id] = []Edge{}
	tp.connGraph.AddNode(simple.Node(id))
	tp.completed = false
	return id
}

// AddLink joins two named nodes by a link of the given distance and number of wavelengths
func (tp *Topology) AddLink(a, b string, distance, wavelengths int) error {
	ida, presentA := tp.ids[a]
	idb, presentB := tp.ids[b]
	if !presentA || !presentB {
		return fmt.Errorf("link %s-%s names an unknown node: %w", a, b, ErrTopology)
	}
	if ida == idb {
		return fmt.Errorf("link %s-%s is a loop: %w", a, b, ErrTopology)
	}
	if distance <= 0 || wavelengths <= 0 {
		return fmt.Errorf("link %s-%s needs positive distance and wavelengths: %w", a, b, ErrTopology)
	}
	if _, present := tp.dist[Edge{From: ida, To: idb}]; present {
		return fmt.Errorf("link %s-%s given twice: %w", a, b, ErrTopology)
	}

	for _, e := range []Edge{{From: ida, To: idb}, {From: idb, To: ida}} {
		tp.dist[e] = distance
		tp.capac[e] = wavelengths
		tp.out[e.From] = append(tp.out[e.From], e)
		sortEdges(tp.out[e.From])
	}
	weightedEdge := simple.WeightedEdge{F: simple.Node(ida), T: simple.Node(idb), W: float64(distance)}
	tp.connGraph.SetWeightedEdge(weightedEdge)
	tp.completed = false
	return nil
}

// Complete computes the all-pairs shortest distances and the next-hop rankings.
// It must be called after the last node or link is added.
func (tp *Topology) Complete() {
	tp.spTree = path.DijkstraAllPaths(tp.connGraph)
	tp.prefs = make(map[int]map[int]Prefs)
	for _, j := range tp.vertices {
		tp.prefs[j] = make(map[int]Prefs)
		for _, i := range tp.vertices {
			tp.prefs[j][i] = tp.makePrefs(j, i)
		}
	}
	tp.completed = true
}

// makePrefs ranks the neighbours of j by the length of the route through them to dest
func (tp *Topology) makePrefs(j, dest int) Prefs {
	type ranked struct {
		nbr  int
		cost float64
	}
	nbrs := []ranked{}
	for _, e := range tp.out[j] {
		cost := float64(tp.dist[e]) + tp.spTree.Weight(int64(e.To), int64(dest))
		nbrs = append(nbrs, ranked{nbr: e.To, cost: cost})
	}
	slices.SortStableFunc(nbrs, func(a, b ranked) int {
		switch {
		case a.cost < b.cost:
			return -1
		case a.cost > b.cost:
			return 1
		}
		return 0
	})

	pf := Prefs{Dest: dest, Neighbors: make([]int, len(nbrs))}
	for idx, r := range nbrs {
		pf.Neighbors[idx] = r.nbr
	}
	if len(nbrs) == 0 || math.IsInf(nbrs[0].cost, 1) {
		return pf
	}
	threshold := 2 * nbrs[0].cost
	for _, r := range nbrs {
		if r.cost < threshold {
			pf.Class += 1
		}
	}
	return pf
}

// Vertices lists vertex ids in ascending order
func (tp *Topology) Vertices() []int {
	return slices.Clone(tp.vertices)
}

// OutEdges lists the edges leaving j, ordered by target
func (tp *Topology) OutEdges(j int) []Edge {
	return slices.Clone(tp.out[j])
}

// Edges lists every directed edge, ordered by source then target
func (tp *Topology) Edges() []Edge {
	edges := []Edge{}
	for _, j := range tp.vertices {
		edges = append(edges, tp.out[j]...)
	}
	return edges
}

// Distance is the length of edge e, 0 if there is no such edge
func (tp *Topology) Distance(e Edge) int {
	return tp.dist[e]
}

// Capacity is the number of wavelengths of edge e, 0 if there is no such edge
func (tp *Topology) Capacity(e Edge) int {
	return tp.capac[e]
}

// OutputCapacity is the sum of the wavelengths of the edges leaving j
func (tp *Topology) OutputCapacity(j int) int {
	v := 0
	for _, e := range tp.out[j] {
		v += tp.capac[e]
	}
	return v
}

// Prefs returns the ranking of next hops at j toward dest
func (tp *Topology) Prefs(j, dest int) Prefs {
	if !tp.completed {
		tp.Complete()
	}
	return tp.prefs[j][dest]
}

// ShortestDistance returns the length of the shortest route from src to dst,
// and false if there is none
func (tp *Topology) ShortestDistance(src, dst int) (int, bool) {
	if !tp.completed {
		tp.Complete()
	}
	w := tp.spTree.Weight(int64(src), int64(dst))
	if math.IsInf(w, 1) {
		return 0, false
	}
	return int(w), true
}

// ID returns the id of the named node
func (tp *Topology) ID(name string) (int, bool) {
	id, present := tp.ids[name]
	return id, present
}

// NodeName returns the name of node id
func (tp *Topology) NodeName(id int) string {
	return tp.names[id]
}

// EdgeName renders an edge with node names
func (tp *Topology) EdgeName(e Edge) string {
	return fmt.Sprintf("(%s, %s)", tp.names[e.From], tp.names[e.To])
}

// Components returns the connected components, largest first, each listing
// vertex ids in ascending order
func (tp *Topology) Components() [][]int {
	comps := [][]int{}
	for _, nodes := range topo.ConnectedComponents(tp.connGraph) {
		comps = append(comps, convertNodeSeq(nodes))
	}
	for _, comp := range comps {
		slices.Sort(comp)
	}
	slices.SortStableFunc(comps, func(a, b []int) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return a[0] - b[0]
	})
	return comps
}

// Connected is true when every vertex can reach every other
func (tp *Topology) Connected() bool {
	return len(tp.Components()) <= 1
}

// convertNodeSeq extracts vertex ids from a sequence of graph nodes
func convertNodeSeq(nsQ []graph.Node) []int {
	rtn := []int{}
	for _, node := range nsQ {
		rtn = append(rtn, int(node.ID()))
	}
	return rtn
}

// Route returns the vertices of a shortest route from src to dst, both included,
// and nil if dst cannot be reached
func (tp *Topology) Route(src, dst int) []int {
	if !tp.completed {
		tp.Complete()
	}
	nodes, _, _ := tp.spTree.Between(int64(src), int64(dst))
	if len(nodes) == 0 {
		return nil
	}
	return convertNodeSeq(nodes)
}

// ShowPath returns a line naming the nodes of a shortest route from src to dst
// and its distance, or stating that there is no route
func (tp *Topology) ShowPath(src, dst int) string {
	head := fmt.Sprintf("From %s to %s", tp.names[src], tp.names[dst])
	route := tp.Route(src, dst)
	if route == nil {
		return head + " doesn't exist."
	}
	names := make([]string, len(route))
	for idx, id := range route {
		names[idx] = tp.names[id]
	}
	d, _ := tp.ShortestDistance(src, dst)
	return fmt.Sprintf("%s: %s, distance = %d", head, strings.Join(names, " -> "), d)
}
