package netana

import (
	"fmt"

	"go.uber.org/multierr"
)

// Stage names the step of an analysis pass in which a node failed
type Stage string

const (
	StageAdmission Stage = "admission"
	StageRouting   Stage = "routing"
	StagePropagate Stage = "propagate"
	StageInput     Stage = "input"
)

// NodeError reports a failure of the analysis at one node.  Results already
// computed for other nodes are unaffected.
type NodeError struct {
	Node  int
	Stage Stage
	Err   error
}

func (ne *NodeError) Error() string {
	return fmt.Sprintf("node %d, %s: %v", ne.Node, ne.Stage, ne.Err)
}

func (ne *NodeError) Unwrap() error {
	return ne.Err
}

// NodeErrors lists the NodeErrors held in an error built with multierr
func NodeErrors(err error) []*NodeError {
	nes := []*NodeError{}
	for _, e := range multierr.Errors(err) {
		if ne, ok := e.(*NodeError); ok {
			nes = append(nes, ne)
		}
	}
	return nes
}
