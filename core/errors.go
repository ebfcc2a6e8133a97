package core

import (
	"errors"
)

// Failure taxonomy of the simulation and optimization core. Every failure is
// returned to the caller; nothing is substituted with defaults or partial
// results. Callers match with errors.Is.
var (
	ErrInvalidQubitIndex       = errors.New("invalid qubit index")
	ErrUnknownGateName         = errors.New("unknown gate name")
	ErrMalformedParameterSet   = errors.New("malformed parameter set")
	ErrNonNormalizedInputState = errors.New("non-normalized input state")
	ErrNonFiniteCostValue      = errors.New("non-finite cost value")
	ErrOptimizerDivergence     = errors.New("optimizer divergence")
)

// NormTolerance is the allowed deviation of a state vector's squared norm
// from 1 before it is rejected as ErrNonNormalizedInputState.
const NormTolerance = 1e-9
