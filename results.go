package netana

// results.go reduces the presence and trajectory matrices of a solution to the
// quantities reported about a run: link loads, admitted and delivered traffic,
// per-destination distance polynomials at a node or on a link, and the routing
// probabilities the packets actually followed.

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// DPMatrix maps (destination, source) to a distance polynomial
type DPMatrix map[int]map[int]DistPoly

func (dpm DPMatrix) add(dest, src int, p DistPoly) error {
	_, present := dpm[dest]
	if !present {
		dpm[dest] = make(map[int]DistPoly)
	}
	return AddDistInto(dpm[dest], src, p)
}

// LinkLoads returns, per edge, the mean number of packets crossing it per slot
// divided by its capacity
func LinkLoads(net Network, ptm TrajectoryMatrix) map[Edge]float64 {
	ll := make(map[Edge]float64)
	for _, pt := range iterDemands(ptm) {
		for _, links := range pt {
			for e, p := range links {
				ll[e] += MeanOf(p)
			}
		}
	}
	for e := range ll {
		ll[e] /= float64(net.Capacity(e))
	}
	return ll
}

// iterDemands flattens a trajectory matrix into its demands
func iterDemands(ptm TrajectoryMatrix) []PacketTrajectory {
	pts := []PacketTrajectory{}
	for _, dest := range sortedKeys(ptm) {
		for _, src := range sortedKeys(ptm[dest]) {
			pts = append(pts, ptm[dest][src])
		}
	}
	return pts
}

// AverageLoad is the mean of the loads given, 0 when there are none
func AverageLoad(ll map[Edge]float64) float64 {
	if len(ll) == 0 {
		return 0
	}
	sum := 0.0
	for _, load := range ll {
		sum += load
	}
	return sum / float64(len(ll))
}

// AdmittedTraffic returns, per demand, the polynomial of packets admitted at the source
func AdmittedTraffic(ppm PresenceMatrix) (DPMatrix, error) {
	at := make(DPMatrix)
	for _, dest := range sortedKeys(ppm) {
		for _, src := range sortedKeys(ppm[dest]) {
			hop0, present := ppm[dest][src][0]
			if !present {
				return nil, fmt.Errorf("demand %d -> %d has no admission hop: %w", src, dest, ErrInvalidParameter)
			}
			p, present := hop0[src]
			if !present {
				return nil, fmt.Errorf("demand %d -> %d not admitted at its source: %w", src, dest, ErrInvalidParameter)
			}
			if err := at.add(dest, src, p); err != nil {
				return nil, err
			}
		}
	}
	return at, nil
}

// DeliveredTraffic returns, per demand, the polynomial of packets reaching the
// destination, summed over hops
func DeliveredTraffic(ppm PresenceMatrix) (DPMatrix, error) {
	dt := make(DPMatrix)
	for _, dest := range sortedKeys(ppm) {
		for _, src := range sortedKeys(ppm[dest]) {
			pp := ppm[dest][src]
			for _, hop := range sortedKeys(pp) {
				p, present := pp[hop][dest]
				if !present {
					continue
				}
				if err := dt.add(dest, src, p); err != nil {
					return nil, err
				}
			}
		}
	}
	return dt, nil
}

// NodeDistPoly sums the polynomials of packets for dest present at node j, over all
// sources and hops.  Packets just admitted (hop 0) count only if admitted is true.
func NodeDistPoly(j, dest int, ppm PresenceMatrix, bound int, admitted bool) (DistPoly, error) {
	d := CreatePoly[Distribution](bound)
	for _, src := range sortedKeys(ppm[dest]) {
		pp := ppm[dest][src]
		for _, hop := range sortedKeys(pp) {
			if hop == 0 && !admitted {
				continue
			}
			p, present := pp[hop][j]
			if !present {
				continue
			}
			if err := d.AddFrom(p, combineDist); err != nil {
				return DistPoly{}, err
			}
		}
	}
	return d, nil
}

// LinkDistPoly sums the polynomials of packets for dest crossing edge e, over all
// sources and hops
func LinkDistPoly(e Edge, dest int, ptm TrajectoryMatrix, bound int) (DistPoly, error) {
	d := CreatePoly[Distribution](bound)
	for _, src := range sortedKeys(ptm[dest]) {
		pt := ptm[dest][src]
		for _, hop := range sortedKeys(pt) {
			p, present := pt[hop][e]
			if !present {
				continue
			}
			if err := d.AddFrom(p, combineDist); err != nil {
				return DistPoly{}, err
			}
		}
	}
	return d, nil
}

// EmpiricalEdgeProbs returns the routing probabilities at j implied by a solution:
// the rate of packets for each destination crossing each edge out of j, divided by
// the rate of packets for that destination present at j
func EmpiricalEdgeProbs(net Network, j int, ppm PresenceMatrix, ptm TrajectoryMatrix, bound int) (EdgeProbsMap, error) {
	rpd := make(map[int]float64)
	for _, dest := range net.Vertices() {
		dp, err := NodeDistPoly(j, dest, ppm, bound, true)
		if err != nil {
			return nil, err
		}
		if rate := MeanOf(dp); rate != 0 {
			rpd[dest] = rate
		}
	}

	probs := make(EdgeProbsMap)
	for _, dest := range net.Vertices() {
		for _, e := range net.OutEdges(j) {
			dp, err := LinkDistPoly(e, dest, ptm, bound)
			if err != nil {
				return nil, err
			}
			rate := MeanOf(dp)
			if rate == 0 {
				continue
			}
			_, present := probs[dest]
			if !present {
				probs[dest] = make(EdgeProbs)
			}
			probs[dest][e] = rate
		}
	}
	for dest, ep := range probs {
		ep.Scale(1.0 / rpd[dest])
	}
	return probs, nil
}

// AdmittedDistro returns the distribution of packets of demand (src, dest) admitted
// per slot, NoMass if the demand carries no traffic
func AdmittedDistro(ppm PresenceMatrix, src, dest int) (Distribution, error) {
	pp, present := ppm.Get(dest, src)
	if !present {
		return NoDistro(), nil
	}
	hop0, present := pp[0]
	if !present {
		return Distribution{}, fmt.Errorf("demand %d -> %d has no admission hop: %w", src, dest, ErrInvalidParameter)
	}
	p, present := hop0[src]
	if !present || p.Len() != 1 {
		return Distribution{}, fmt.Errorf("demand %d -> %d admission is not a single term: %w", src, dest, ErrInvalidParameter)
	}
	d, present := p.Coef(0)
	if !present {
		return Distribution{}, fmt.Errorf("demand %d -> %d admission has travelled: %w", src, dest, ErrInvalidParameter)
	}
	return d, nil
}

// LinkLoadRecord is one line of the link load report
type LinkLoadRecord struct {
	From        string  `csv:"from" json:"from" yaml:"from"`
	To          string  `csv:"to" json:"to" yaml:"to"`
	Distance    int     `csv:"distance" json:"distance" yaml:"distance"`
	Wavelengths int     `csv:"wavelengths" json:"wavelengths" yaml:"wavelengths"`
	Load        float64 `csv:"load" json:"load" yaml:"load"`
}

// LinkLoadRecords lists the load of every edge of tp, unused edges at 0
func LinkLoadRecords(tp *Topology, ll map[Edge]float64) []LinkLoadRecord {
	records := []LinkLoadRecord{}
	for _, e := range tp.Edges() {
		records = append(records, LinkLoadRecord{From: tp.NodeName(e.From), To: tp.NodeName(e.To),
			Distance: tp.Distance(e), Wavelengths: tp.Capacity(e), Load: ll[e]})
	}
	return records
}

// WriteLinkLoadsCSV writes link load records to the named csv file
func WriteLinkLoadsCSV(records []LinkLoadRecord, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(&records, f)
}

// DemandRecord reports one demand of a run
type DemandRecord struct {
	Src       string  `json:"src" yaml:"src"`
	Dst       string  `json:"dst" yaml:"dst"`
	Requested float64 `json:"requested" yaml:"requested"`
	Admitted  float64 `json:"admitted" yaml:"admitted"`
	Delivered float64 `json:"delivered" yaml:"delivered"`
}

// Summary reports the outcome of a run
type Summary struct {
	Topology    string           `json:"topology" yaml:"topology"`
	Passes      int              `json:"passes" yaml:"passes"`
	Steps       int              `json:"steps" yaml:"steps"`
	Demands     []DemandRecord   `json:"demands" yaml:"demands"`
	Links       []LinkLoadRecord `json:"links" yaml:"links"`
	AverageLoad float64          `json:"averageload" yaml:"averageload"`
	Failures    []string         `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Summarize builds the report of a solution over the demands of dl
func Summarize(tp *Topology, dl *DemandList, sol *Solution, steps int, failures error) (*Summary, error) {
	delivered, err := DeliveredTraffic(sol.Presence)
	if err != nil {
		return nil, err
	}
	dl.SetAccepted(sol.ATM)

	sum := &Summary{Topology: tp.Name, Passes: sol.Pass, Steps: steps}
	for _, dmd := range dl.Demands {
		rec := DemandRecord{Src: dmd.Src, Dst: dmd.Dst, Requested: dmd.RequestedRate, Admitted: dmd.AcceptedRate}
		if p, present := delivered[dmd.DstID][dmd.SrcID]; present {
			rec.Delivered = MeanOf(p)
		}
		sum.Demands = append(sum.Demands, rec)
	}
	ll := LinkLoads(tp, sol.Trajectory)
	sum.Links = LinkLoadRecords(tp, ll)
	sum.AverageLoad = AverageLoad(ll)
	for _, ne := range NodeErrors(failures) {
		sum.Failures = append(sum.Failures, fmt.Sprintf("%s: %s", tp.NodeName(ne.Node), ne.Error()))
	}
	return sum, nil
}

// WriteToFile stores the summary, as yaml or json according to the file extension
func (sum *Summary) WriteToFile(filename string) error {
	return writeDesc(*sum, filename)
}
