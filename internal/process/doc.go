// Package process provides ordered, mutable computation pipelines.
//
// A [Stage] is anything with a name that maps an input to an output. Two
// variants exist:
//
//   - [Step]: wraps one function; [NoOp] returns its input unchanged
//   - [Process]: an ordered list of stages, itself a Stage
//
// Because a Process is a Stage, pipelines nest to any depth. Stages are
// addressed by name (dotted for nested processes, e.g. "iterate.forces")
// or by function identity, and can be inserted, replaced, disabled or
// removed after construction:
//
//	p := process.New[Frame]("iterate",
//		process.NewStep("atmosphere", atmosphere),
//		process.NewStep("forces", forces),
//	)
//	_ = p.Disable("atmosphere")   // same position, identity output
//	out, err := p.Run(ctx, in)
//
// Every stage output of the most recent run is cached for inspection.
// Processes are not safe for concurrent use.
package process
