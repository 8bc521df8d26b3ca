package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/desertthunder/shelf/internal/catalog"
	"github.com/desertthunder/shelf/internal/shared"
)

// CategorizedTrack is a catalog entry with its assigned category.
type CategorizedTrack struct {
	catalog.Track
	Category string `json:"category"`
}

// CategorizedCatalog is the result of classifying a snapshot. Manual
// reassignments are tracked separately so they survive reclassification.
type CategorizedCatalog struct {
	Tracks    []CategorizedTrack
	overrides map[string]string // track id -> category
}

// MatchCategory returns the category for a genre tag set: the first rule, in
// order, with at least one keyword contained case-insensitively in at least
// one tag. Pure function of its inputs.
func MatchCategory(genres []string, ruleList []CategoryRule) string {
	for _, rule := range ruleList {
		for _, tag := range genres {
			lowered := strings.ToLower(tag)
			for _, keyword := range rule.Keywords {
				if strings.Contains(lowered, strings.ToLower(keyword)) {
					return rule.Category
				}
			}
		}
	}
	return FallbackCategory
}

// Categorize assigns a category to every track in the snapshot.
func Categorize(tracks []catalog.Track, ruleList []CategoryRule) *CategorizedCatalog {
	categorized := make([]CategorizedTrack, len(tracks))
	for i, track := range tracks {
		categorized[i] = CategorizedTrack{
			Track:    track,
			Category: MatchCategory(track.Genres, ruleList),
		}
	}
	return &CategorizedCatalog{
		Tracks:    categorized,
		overrides: make(map[string]string),
	}
}

// Override reassigns one track's category. The new category may be any rule
// label, the fallback, or an entirely new label. Only the category changes;
// identity fields are never touched.
func (c *CategorizedCatalog) Override(trackID, category string) error {
	if category == "" {
		return fmt.Errorf("%w: empty category", shared.ErrInvalidArgument)
	}
	for i := range c.Tracks {
		if c.Tracks[i].ID == trackID {
			c.Tracks[i].Category = category
			c.overrides[trackID] = category
			return nil
		}
	}
	return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID)
}

// Reclassify re-runs classification against a (possibly updated) rule list
// while preserving manual overrides. Call [CategorizedCatalog.DiscardOverrides]
// first to start from scratch.
func (c *CategorizedCatalog) Reclassify(ruleList []CategoryRule) {
	for i := range c.Tracks {
		if override, ok := c.overrides[c.Tracks[i].ID]; ok {
			c.Tracks[i].Category = override
			continue
		}
		c.Tracks[i].Category = MatchCategory(c.Tracks[i].Genres, ruleList)
	}
}

// DiscardOverrides drops all manual reassignments.
func (c *CategorizedCatalog) DiscardOverrides() {
	c.overrides = make(map[string]string)
}

// Categories returns every category present, sorted, fallback last.
func (c *CategorizedCatalog) Categories() []string {
	seen := make(map[string]struct{})
	var labels []string
	hasFallback := false
	for _, track := range c.Tracks {
		if track.Category == FallbackCategory {
			hasFallback = true
			continue
		}
		if _, ok := seen[track.Category]; !ok {
			seen[track.Category] = struct{}{}
			labels = append(labels, track.Category)
		}
	}
	sort.Strings(labels)
	if hasFallback {
		labels = append(labels, FallbackCategory)
	}
	return labels
}

// ByCategory returns tracks grouped by category, preserving catalog order
// within each group.
func (c *CategorizedCatalog) ByCategory() map[string][]CategorizedTrack {
	grouped := make(map[string][]CategorizedTrack)
	for _, track := range c.Tracks {
		grouped[track.Category] = append(grouped[track.Category], track)
	}
	return grouped
}

// TrackIDs returns the ids of all tracks assigned the given category, in
// catalog order.
func (c *CategorizedCatalog) TrackIDs(category string) []string {
	var ids []string
	for _, track := range c.Tracks {
		if track.Category == category {
			ids = append(ids, track.ID)
		}
	}
	return ids
}
