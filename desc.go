package netana

// desc.go holds the serializable descriptions a run starts from: the topology
// (named nodes, links with a distance and a number of wavelengths) and the traffic
// (demands between named nodes, each with a mean rate).  Descriptions are written
// and read as yaml, json or toml, chosen by the extension of the file name.

import (
	"fmt"
)

// LinkDesc describes an undirected link
type LinkDesc struct {
	A           string `json:"a" yaml:"a" toml:"a"`
	B           string `json:"b" yaml:"b" toml:"b"`
	Distance    int    `json:"distance" yaml:"distance" toml:"distance"`
	Wavelengths int    `json:"wavelengths" yaml:"wavelengths" toml:"wavelengths"`
}

// TopoDesc describes a topology
type TopoDesc struct {
	// Name is an identifier for this topology
	Name string `json:"name" yaml:"name" toml:"name"`

	// Nodes lists node names; node ids follow this order
	Nodes []string `json:"nodes" yaml:"nodes" toml:"nodes"`

	Links []LinkDesc `json:"links" yaml:"links" toml:"links"`
}

// CreateTopoDesc is an initialization constructor.
// Its output struct has methods for integrating data.
func CreateTopoDesc(name string) *TopoDesc {
	td := new(TopoDesc)
	td.Name = name
	td.Nodes = []string{}
	td.Links = []LinkDesc{}
	return td
}

// AddNode appends a node name
func (td *TopoDesc) AddNode(name string) {
	td.Nodes = append(td.Nodes, name)
}

// AddLink appends a link
func (td *TopoDesc) AddLink(a, b string, distance, wavelengths int) {
	td.Links = append(td.Links, LinkDesc{A: a, B: b, Distance: distance, Wavelengths: wavelengths})
}

// WriteToFile stores the TopoDesc struct to the file whose name is given.
// Serialization is selected based on the extension of this name.
func (td *TopoDesc) WriteToFile(filename string) error {
	return writeDesc(*td, filename)
}

// ReadTopoDesc deserializes a byte slice holding a representation of a TopoDesc struct.
// If the input argument of dict (those bytes) is empty, the file whose name is given is read
// to acquire them.
func ReadTopoDesc(filename string, dict []byte) (*TopoDesc, error) {
	td := TopoDesc{}
	if err := readDesc(filename, dict, &td); err != nil {
		return nil, err
	}
	return &td, nil
}

// Build creates the Topology described, with shortest paths and next-hop rankings computed
func (td *TopoDesc) Build() (*Topology, error) {
	tp := CreateTopology(td.Name)
	for _, name := range td.Nodes {
		if _, present := tp.ID(name); present {
			return nil, fmt.Errorf("node %s listed twice: %w", name, ErrTopology)
		}
		tp.AddNode(name)
	}
	for _, ld := range td.Links {
		if err := tp.AddLink(ld.A, ld.B, ld.Distance, ld.Wavelengths); err != nil {
			return nil, err
		}
	}
	tp.Complete()
	return tp, nil
}

// DemandDesc describes a demand from Src to Dst with mean rate Rate
type DemandDesc struct {
	Src  string  `json:"src" yaml:"src" toml:"src"`
	Dst  string  `json:"dst" yaml:"dst" toml:"dst"`
	Rate float64 `json:"rate" yaml:"rate" toml:"rate"`
}

// TrafficDesc describes the demands offered to a topology
type TrafficDesc struct {
	Name    string       `json:"name" yaml:"name" toml:"name"`
	Demands []DemandDesc `json:"demands" yaml:"demands" toml:"demands"`
}

// CreateTrafficDesc is an initialization constructor
func CreateTrafficDesc(name string) *TrafficDesc {
	trd := new(TrafficDesc)
	trd.Name = name
	trd.Demands = []DemandDesc{}
	return trd
}

// AddDemand appends a demand
func (trd *TrafficDesc) AddDemand(src, dst string, rate float64) {
	trd.Demands = append(trd.Demands, DemandDesc{Src: src, Dst: dst, Rate: rate})
}

// WriteToFile stores the TrafficDesc struct to the file whose name is given
func (trd *TrafficDesc) WriteToFile(filename string) error {
	return writeDesc(*trd, filename)
}

// ReadTrafficDesc deserializes a TrafficDesc from dict, or from the named file when dict is empty
func ReadTrafficDesc(filename string, dict []byte) (*TrafficDesc, error) {
	trd := TrafficDesc{}
	if err := readDesc(filename, dict, &trd); err != nil {
		return nil, err
	}
	return &trd, nil
}

// Build resolves the demands against a topology
func (trd *TrafficDesc) Build(tp *Topology) (*DemandList, error) {
	dl := CreateDemandList()
	for _, dd := range trd.Demands {
		if _, err := dl.AddDemand(tp, dd.Src, dd.Dst, dd.Rate); err != nil {
			return nil, err
		}
	}
	return dl, nil
}
