package render

import "github.com/pkg/errors"

var (
	// ErrInvalidGeometry reports a zero, negative, or unrepresentable
	// plane dimension or position.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrCycleDetected reports a reparent that would make a plane its
	// own descendant.
	ErrCycleDetected = errors.New("reparent would create a cycle")

	// ErrRootPlane reports an attempt to destroy, reparent, or restack
	// the root plane.
	ErrRootPlane = errors.New("operation not permitted on the root plane")
)
