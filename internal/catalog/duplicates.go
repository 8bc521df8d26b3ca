package catalog

import "sort"

// DuplicateGroup is a set of tracks sharing one duplicate identity, in
// discovery order.
type DuplicateGroup struct {
	Key    Key
	Tracks []Track
}

// Resolve splits the group into the single retained track and the removable
// remainder.
//
// The retained track is the earliest added; ties keep the first-seen track.
func (g DuplicateGroup) Resolve() (retained Track, removable []Track) {
	sorted := make([]Track, len(g.Tracks))
	copy(sorted, g.Tracks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AddedAt.Before(sorted[j].AddedAt)
	})
	return sorted[0], sorted[1:]
}

// FindDuplicates groups catalog entries by duplicate identity and returns only
// groups containing more than one track.
//
// Groups are ordered by first discovery in the catalog, and tracks within a
// group keep catalog order. Exact case-insensitive equality only; no fuzzy
// matching.
func FindDuplicates(tracks []Track) []DuplicateGroup {
	byKey := make(map[Key]int)
	var groups []DuplicateGroup

	for _, track := range tracks {
		key := track.Key()
		if idx, ok := byKey[key]; ok {
			groups[idx].Tracks = append(groups[idx].Tracks, track)
			continue
		}
		byKey[key] = len(groups)
		groups = append(groups, DuplicateGroup{Key: key, Tracks: []Track{track}})
	}

	var duplicates []DuplicateGroup
	for _, group := range groups {
		if len(group.Tracks) > 1 {
			duplicates = append(duplicates, group)
		}
	}
	return duplicates
}
