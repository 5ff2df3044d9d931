// Package domain defines the core value types shared by the bnshell binding layer.
//
// Nothing in this package talks to a belief-network engine. It holds the values that
// cross the boundary between the shell, the binding handles and the engine client.
//
// # Distributions
//
// Distribution is an engine-computed probability distribution as it arrives over the wire:
// a class name, the engine's own human-readable rendering, and the raw parameters. The
// binding never interprets distributions; it caches and prints them.
//
// # Naming
//
// NameInfo parses remote names of the form "network", "host/network",
// "host:port/network" and "host:port/network.variable". The canonical form
// "host:port/network" keys the reference table of a remote context.
//
// # Errors
//
// The error taxonomy (ErrAttributeNotFound, ErrEvidenceTypeMismatch, ErrNotFoundInOwner,
// ErrRemoteLookupFailure, ErrParseFailure) is shared by every layer. Engine errors arrive
// as *RemoteError values which unwrap to the matching sentinel.
//
// # Journal and snapshots
//
// JournalEntry and SessionSummary describe what a shell session imported and which
// evidence it assigned. NetworkSnapshot is the exportable view of a bound network.
package domain
