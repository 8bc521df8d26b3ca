// Package tasks orchestrates library analysis and playlist reconciliation with
// real-time progress reporting.
//
// # Core Operations
//
// The [LibraryEngine] drives four stages:
//
//  1. [LibraryEngine.Analyze] : Build a fresh catalog snapshot
//     - Fetches the saved-track library from the service
//     - Derives genre tags per track via rate-limited artist lookups
//  2. [LibraryEngine.RemoveDuplicates] : Execute reviewed duplicate removals
//     - One delete per removable track, retried on transient failure
//     - Partial-failure tolerant; reports per-track outcomes
//  3. [LibraryEngine.Plan] : Compute the minimal additive mutation set
//     - Discovers managed playlists by template match
//     - Emits create-playlist or add-missing-tracks mutations per category
//     - Idempotent: an already-synced category emits nothing
//  4. [LibraryEngine.Execute] : Apply a plan
//     - Chunks track additions to the service's per-call limit
//     - Continues past failed mutations and reports per-mutation outcomes
//
// Removal and execution are externally visible and irreversible, so both run
// only on plans the caller has already surfaced for review. Progress updates
// are emitted via channels for non-blocking status reporting to CLI/UI layers.
package tasks
