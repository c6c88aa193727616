//nolint:revive // types is a common Go package naming convention
package types

// ResourceSet is the resource reservation handed to the scheduler with
// a spawn. Opaque to construction; the core only threads it through.
type ResourceSet struct {
	// CPU is the number of CPUs to reserve.
	CPU float64
	// MemoryMB is the RAM reservation in megabytes.
	MemoryMB float64
}

// DefaultResourceSet is applied when a builder sets no resource set.
var DefaultResourceSet = ResourceSet{CPU: 1, MemoryMB: 250}

// Spawn is the fully resolved executable unit handed to an executor.
// Construction guarantees it is well-formed; executing it, and every
// failure mode of execution, is the executor's problem.
type Spawn struct {
	// Args is the full argument vector, including the executable as
	// Args[0]. Values are final: spilling has already been applied.
	Args []string
	// Env maps variable names to verbatim values. No shell
	// interpretation: empty values, spaces, and colons pass through
	// untouched.
	Env map[string]string
	// Inputs are the files that must be materialized before execution.
	// Manifest artifacts from manifest-only runfiles suppliers are not
	// listed here.
	Inputs []*Artifact
	// Outputs are the files the spawn must produce.
	Outputs []*Artifact
	// Resources is the reservation hint for the scheduler.
	Resources ResourceSet
	// ExecutionInfo carries opaque execution hints such as "local".
	ExecutionInfo map[string]string
}
