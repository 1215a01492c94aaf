package types

// Version is the canonical project version.
// The CLI, the run_completed event contract and the archive layout share it.
const Version = "0.3.0"

// ContractVersion is the version stamped on published run_completed events.
// Lockstep with Version.
const ContractVersion = Version
