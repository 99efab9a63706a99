package domain

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is returned when a series has fewer than two price
// observations, or when an aligned window has no rows left. It applies to a
// single series or instrument; batch callers report it per instrument and
// keep going.
var ErrInsufficientData = errors.New("insufficient data")

// ErrSingularDesign is returned by the dense estimator when the design
// matrix (with constant column) is exactly rank-deficient. The estimator
// raises rather than silently returning a least-norm solution.
var ErrSingularDesign = errors.New("singular design matrix")

// PriceRetrievalError wraps any failure from the external price provider
// (transport, authentication, parsing, unknown ticker). The analysis core
// never interprets or recovers from it; it propagates to the caller
// unchanged, tagged with the ticker that failed.
type PriceRetrievalError struct {
	Ticker string
	Err    error
}

func (e *PriceRetrievalError) Error() string {
	return fmt.Sprintf("price retrieval failed for %s: %v", e.Ticker, e.Err)
}

func (e *PriceRetrievalError) Unwrap() error { return e.Err }
