package cell

// Options configures the activation functions bound to a Cell.
type Options struct {
	// GateActivation squashes the input, forget and output gates, and is
	// reused on the new cell state before the output gate is applied.
	// Default: HardSigmoid
	GateActivation Activation

	// CandidateActivation squashes the candidate memory.
	// Default: Tanh
	CandidateActivation Activation
}

// Option is a functional option for configuring a Cell
type Option func(*Options)

// WithGateActivation sets the gate activation
func WithGateActivation(a Activation) Option {
	return func(o *Options) {
		o.GateActivation = a
	}
}

// WithCandidateActivation sets the candidate activation
func WithCandidateActivation(a Activation) Option {
	return func(o *Options) {
		o.CandidateActivation = a
	}
}

// DefaultOptions returns the hard_sigmoid / tanh configuration.
func DefaultOptions() Options {
	return Options{
		GateActivation:      HardSigmoid,
		CandidateActivation: Tanh,
	}
}
