// Package rules holds the user-editable categorization rule set and applies it
// to library snapshots.
//
// A rule set is an ordered list of category → keyword rules. Classification
// scans rules in order and assigns the first category whose keywords match any
// of a track's genre tags by case-insensitive substring containment; tracks
// matching no rule get the reserved fallback category. Rule order is
// correctness-critical, so rules are kept as a slice and never round-tripped
// through an unordered map.
//
// The package also owns the playlist naming and description templates. A
// template contains exactly one "{}" placeholder; [Template.Format] substitutes
// a category label and [Template.Extract] inverts it when recognizing managed
// playlists.
package rules
