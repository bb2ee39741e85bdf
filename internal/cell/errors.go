package cell

import "errors"

var (
	// ErrInvalidDimension reports a non-positive input size or unit count.
	ErrInvalidDimension = errors.New("cell: invalid dimension")

	// ErrInvalidGateIndex reports a gate outside {input, forget, candidate, output}.
	ErrInvalidGateIndex = errors.New("cell: invalid gate index")

	// ErrBiasUnavailable reports a bias access on a store built without bias.
	ErrBiasUnavailable = errors.New("cell: bias unavailable")

	// ErrShapeMismatch reports an input, state or buffer whose length disagrees
	// with the store dimensions.
	ErrShapeMismatch = errors.New("cell: shape mismatch")

	// ErrUnknownGroup reports a parameter group that does not exist.
	ErrUnknownGroup = errors.New("cell: unknown parameter group")

	// ErrNilStore reports a cell bound to no parameter store.
	ErrNilStore = errors.New("cell: nil parameter store")

	// ErrUnknownActivation reports an activation name that is not recognised.
	ErrUnknownActivation = errors.New("cell: unknown activation")
)
