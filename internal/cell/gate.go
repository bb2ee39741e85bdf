package cell

import "fmt"

// Gate indexes one of the four column blocks of a parameter group.
type Gate int

// Gate blocks in storage order.
const (
	GateInput Gate = iota
	GateForget
	GateCandidate
	GateOutput
)

// NumGates is the number of column blocks per parameter group.
const NumGates = 4

// Gates lists all gates in storage order.
var Gates = [NumGates]Gate{GateInput, GateForget, GateCandidate, GateOutput}

// Valid reports whether g is one of the four gates.
func (g Gate) Valid() bool {
	return g >= GateInput && g <= GateOutput
}

func (g Gate) String() string {
	switch g {
	case GateInput:
		return "i"
	case GateForget:
		return "f"
	case GateCandidate:
		return "c"
	case GateOutput:
		return "o"
	default:
		return fmt.Sprintf("gate(%d)", int(g))
	}
}

// Group names a gate-partitioned parameter group.
type Group int

// Parameter groups.
const (
	GroupInputKernel Group = iota
	GroupRecurrentKernel
	GroupBias
)

func (g Group) String() string {
	switch g {
	case GroupInputKernel:
		return "kernel"
	case GroupRecurrentKernel:
		return "recurrent_kernel"
	case GroupBias:
		return "bias"
	default:
		return fmt.Sprintf("group(%d)", int(g))
	}
}
