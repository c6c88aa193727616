package types

// Version is the canonical project version.
// All components (CLI, descriptor contract, export layout) share this
// version per the lockstep versioning policy.
//
// This version is authoritative. Contract docs must reference this constant.
const Version = "0.4.0"
