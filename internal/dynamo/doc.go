// Package dynamo provides the shared primitives of the mission simulator.
//
// The package defines the error kinds raised while configuring and
// evaluating flight segments, and the flat vector type handed to root
// finders:
//
//   - [Vector]: packed unknown/residual values
//   - [ShapeError]: pack/unpack or row-expansion size mismatches
//   - [LookupError]: a Step or Process addressed by an absent name
//   - [ConfigurationError]: degrees of freedom do not match active controls
//   - [ConvergenceError]: the solver exhausted its budget (recoverable)
//   - [PhysicsError]: an external collaborator failed inside a Step
//
// Every typed error unwraps to one of the package sentinels, so callers
// can match on kind with errors.Is:
//
//	if errors.Is(err, dynamo.ErrConfiguration) {
//		// fix the segment definition
//	}
package dynamo
