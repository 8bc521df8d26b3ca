// Package catalog builds immutable snapshots of a saved-track library and
// detects duplicate entries.
//
// A snapshot is rebuilt in full on every analysis pass. [Build] derives each
// track's genre tag set from its artists via a caller-supplied lookup, and
// [FindDuplicates] groups tracks that share a case-insensitive (title, artist)
// identity. Duplicate identity is independent of remote track ids since
// duplicate saves get distinct ids.
package catalog
