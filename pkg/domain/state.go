package domain

// RunState is the lifecycle state of a nested sampling run.
type RunState string

const (
	StateUninitialized RunState = "uninitialized" // constructed, no ensemble yet
	StateInitialized   RunState = "initialized"   // ensemble populated, best cached
	StateIterating     RunState = "iterating"     // inside the replacement loop
	StateTerminated    RunState = "terminated"    // posterior complete
)
