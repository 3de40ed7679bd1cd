package netana

import (
	"fmt"
)

// Demand is a stream of packets offered at Src for Dst, at a mean rate per slot
type Demand struct {
	DemandID int
	Src      string
	Dst      string
	SrcID    int
	DstID    int

	// RequestedRate is the offered rate, AcceptedRate the rate the analysis admits
	RequestedRate float64
	AcceptedRate  float64
}

// DemandList holds demands in the order they were added
type DemandList struct {
	Demands []*Demand
	byPair  map[Edge]*Demand
}

// CreateDemandList is a constructor
func CreateDemandList() *DemandList {
	return &DemandList{Demands: []*Demand{}, byPair: make(map[Edge]*Demand)}
}

// CreateDemand resolves a demand between named nodes of tp.  The rate must be positive,
// and source and destination distinct.
func CreateDemand(tp *Topology, srcDev, dstDev string, requestRate float64) (*Demand, error) {
	if !(requestRate > 0) {
		return nil, fmt.Errorf("demand %s -> %s at rate %v: %w", srcDev, dstDev, requestRate, ErrZeroRate)
	}
	srcID, present := tp.ID(srcDev)
	if !present {
		return nil, fmt.Errorf("demand source %s is not a node: %w", srcDev, ErrTopology)
	}
	dstID, present := tp.ID(dstDev)
	if !present {
		return nil, fmt.Errorf("demand destination %s is not a node: %w", dstDev, ErrTopology)
	}
	if srcID == dstID {
		return nil, fmt.Errorf("demand %s -> %s loops: %w", srcDev, dstDev, ErrInvalidParameter)
	}

	dmd := new(Demand)
	dmd.Src = srcDev
	dmd.Dst = dstDev
	dmd.SrcID = srcID
	dmd.DstID = dstID
	dmd.RequestedRate = requestRate
	return dmd, nil
}

// AddDemand creates a demand and appends it.  A second demand between the same pair
// of nodes is refused.
func (dl *DemandList) AddDemand(tp *Topology, srcDev, dstDev string, requestRate float64) (*Demand, error) {
	dmd, err := CreateDemand(tp, srcDev, dstDev, requestRate)
	if err != nil {
		return nil, err
	}
	pair := Edge{From: dmd.SrcID, To: dmd.DstID}
	if _, present := dl.byPair[pair]; present {
		return nil, fmt.Errorf("demand %s -> %s given twice: %w", srcDev, dstDev, ErrInvalidParameter)
	}
	dmd.DemandID = len(dl.Demands)
	dl.Demands = append(dl.Demands, dmd)
	dl.byPair[pair] = dmd
	return dmd, nil
}

// TrafficMatrix returns the demands as a matrix keyed by (destination, source)
func (dl *DemandList) TrafficMatrix() (FPMatrix, error) {
	tm := make(FPMatrix)
	for _, dmd := range dl.Demands {
		if err := tm.Set(dmd.DstID, dmd.SrcID, dmd.RequestedRate); err != nil {
			return nil, err
		}
	}
	return tm, nil
}

// SetAccepted fills in AcceptedRate from an admitted traffic matrix.  Demands with
// no entry in atm admit nothing.
func (dl *DemandList) SetAccepted(atm FPMatrix) {
	for _, dmd := range dl.Demands {
		rate, _ := atm.Get(dmd.DstID, dmd.SrcID)
		dmd.AcceptedRate = rate
	}
}
