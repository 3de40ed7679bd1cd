package netana

import (
	"errors"
	"fmt"
)

// RateRecord is a rate attached to a (source, destination) pair of node names
type RateRecord struct {
	Src  string  `json:"src" yaml:"src"`
	Dst  string  `json:"dst" yaml:"dst"`
	Rate float64 `json:"rate" yaml:"rate"`
}

// PassRecord condenses one pass of the analysis
type PassRecord struct {
	Pass        int                `json:"pass" yaml:"pass"`
	Steps       int                `json:"steps" yaml:"steps"`
	Admitted    []RateRecord       `json:"admitted" yaml:"admitted"`
	Rho         map[string]float64 `json:"rho" yaml:"rho"`
	AverageLoad float64            `json:"averageload" yaml:"averageload"`
	MaxLoad     float64            `json:"maxload" yaml:"maxload"`
}

// TraceManager gathers a PassRecord for every pass of a run.  When it is not
// active its methods do nothing, so calls to it can stay in place while tracing
// is off.
type TraceManager struct {
	// run uses trace
	InUse bool `json:"inuse" yaml:"inuse"`

	// name of the run
	ExpName string `json:"expname" yaml:"expname"`

	// text name associated with each node id
	NameByID map[int]string `json:"namebyid" yaml:"namebyid"`

	// one record per pass, in pass order
	Passes []PassRecord `json:"passes" yaml:"passes"`
}

// CreateTraceManager is a constructor.  It saves the name of the run
// and a flag indicating whether the trace manager is active.
func CreateTraceManager(expName string, active bool) *TraceManager {
	trm := new(TraceManager)
	trm.InUse = active
	trm.ExpName = expName
	trm.NameByID = make(map[int]string)
	trm.Passes = []PassRecord{}
	return trm
}

// Active tells the caller whether the TraceManager is actively being used
func (trm *TraceManager) Active() bool {
	return trm.InUse
}

// AddNames fills the id -> name dictionary from a topology
func (trm *TraceManager) AddNames(tp *Topology) {
	if !trm.InUse {
		return
	}
	for _, id := range tp.Vertices() {
		trm.NameByID[id] = tp.NodeName(id)
	}
}

// AddPass condenses a solution into a PassRecord and stores it
func (trm *TraceManager) AddPass(net Network, sol *Solution) {
	if !trm.InUse {
		return
	}
	rec := PassRecord{Pass: sol.Pass, Steps: sol.Steps, Admitted: []RateRecord{},
		Rho: make(map[string]float64)}
	for _, dest := range sortedKeys(sol.ATM) {
		for _, src := range sortedKeys(sol.ATM[dest]) {
			rec.Admitted = append(rec.Admitted, RateRecord{Src: trm.name(src), Dst: trm.name(dest),
				Rate: sol.ATM[dest][src]})
		}
	}
	for j, rho := range sol.Rho {
		rec.Rho[trm.name(j)] = rho
	}
	ll := LinkLoads(net, sol.Trajectory)
	rec.AverageLoad = AverageLoad(ll)
	for _, load := range ll {
		rec.MaxLoad = max(rec.MaxLoad, load)
	}
	trm.Passes = append(trm.Passes, rec)
}

// Observer returns a PassObserver that records every pass of an Analyzer
func (trm *TraceManager) Observer(net Network) PassObserver {
	return func(sol *Solution) {
		trm.AddPass(net, sol)
	}
}

func (trm *TraceManager) name(id int) string {
	name, present := trm.NameByID[id]
	if !present {
		return fmt.Sprintf("%d", id)
	}
	return name
}

// WriteToFile stores the trace to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (trm *TraceManager) WriteToFile(filename string) error {
	if !trm.InUse {
		return errors.New("trace manager not in use")
	}
	return writeDesc(*trm, filename)
}
