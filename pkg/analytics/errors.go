package analytics

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrSingularCovariance is the SingularCovariance condition: the feature
	// covariance matrix cannot be inverted, so Mahalanobis distances are
	// undefined. Callers fall back to Euclidean distance or abort; the run
	// never proceeds with undefined numeric output.
	ErrSingularCovariance = errors.New("covariance matrix is singular")

	// ErrComponentFailed wraps a component failure surfaced in strict mode.
	ErrComponentFailed = errors.New("analysis component failed")
)

// AnalysisError provides structured error information for analysis runs.
type AnalysisError struct {
	Op        string // Operation that failed (e.g. "CalculateNetworkMetrics")
	Component string // Component name (e.g. "centrality", "anomaly")
	Cause     error
}

// Error implements the error interface.
func (e *AnalysisError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("%s [%s]: %v", e.Op, e.Component, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *AnalysisError) Unwrap() error {
	return e.Cause
}
