package rules

import (
	"errors"
	"testing"

	"github.com/desertthunder/shelf/internal/catalog"
	"github.com/desertthunder/shelf/internal/shared"
)

func TestMatchCategory(t *testing.T) {
	ruleList := DefaultRules()

	tests := []struct {
		name   string
		genres []string
		want   string
	}{
		{name: "exact keyword", genres: []string{"rock"}, want: "Rock"},
		{name: "substring match", genres: []string{"indie rock"}, want: "Rock"},
		{name: "case insensitive", genres: []string{"Hard Rock"}, want: "Rock"},
		{name: "first matching rule wins", genres: []string{"electronic rock"}, want: "Rock"},
		{name: "later tag matches earlier rule", genres: []string{"swing", "metal"}, want: "Rock"},
		{name: "second rule", genres: []string{"melodic house"}, want: "EDM"},
		{name: "multi word keyword", genres: []string{"east coast hip hop"}, want: "Hip Hop"},
		{name: "no match falls back", genres: []string{"polka"}, want: FallbackCategory},
		{name: "empty tag set falls back", genres: nil, want: FallbackCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchCategory(tt.genres, ruleList)
			if got != tt.want {
				t.Errorf("MatchCategory(%v) = %q, want %q", tt.genres, got, tt.want)
			}

			// Classification is pure: the same inputs always agree
			if again := MatchCategory(tt.genres, ruleList); again != got {
				t.Errorf("MatchCategory(%v) not deterministic: %q then %q", tt.genres, got, again)
			}
		})
	}
}

func snapshotFixture() []catalog.Track {
	return []catalog.Track{
		{ID: "t1", Title: "Riff", Artist: "Band", Genres: []string{"grunge"}},
		{ID: "t2", Title: "Drop", Artist: "DJ", Genres: []string{"techno"}},
		{ID: "t3", Title: "Mystery", Artist: "Unknown"},
		{ID: "t4", Title: "Encore", Artist: "Band", Genres: []string{"punk"}},
	}
}

func TestCategorize(t *testing.T) {
	categorized := Categorize(snapshotFixture(), DefaultRules())

	want := map[string]string{"t1": "Rock", "t2": "EDM", "t3": FallbackCategory, "t4": "Rock"}
	for _, track := range categorized.Tracks {
		if track.Category != want[track.ID] {
			t.Errorf("Categorize() %s = %q, want %q", track.ID, track.Category, want[track.ID])
		}
	}

	labels := categorized.Categories()
	if len(labels) != 3 {
		t.Fatalf("Categories() = %v, want 3 labels", labels)
	}
	if labels[len(labels)-1] != FallbackCategory {
		t.Errorf("Categories() should put the fallback last, got %v", labels)
	}

	if ids := categorized.TrackIDs("Rock"); len(ids) != 2 || ids[0] != "t1" || ids[1] != "t4" {
		t.Errorf("TrackIDs(Rock) = %v, want [t1 t4] in catalog order", ids)
	}
}

func TestCategorizedCatalog_Override(t *testing.T) {
	categorized := Categorize(snapshotFixture(), DefaultRules())

	if err := categorized.Override("t3", "Ambient"); err != nil {
		t.Fatalf("Override() error = %v", err)
	}

	if err := categorized.Override("missing", "Rock"); !errors.Is(err, shared.ErrTrackNotFound) {
		t.Errorf("Override(missing) error = %v, want ErrTrackNotFound", err)
	}
	if err := categorized.Override("t1", ""); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("Override(empty) error = %v, want ErrInvalidArgument", err)
	}

	// Overrides survive reclassification against new rules
	categorized.Reclassify([]CategoryRule{{Category: "Loud", Keywords: []string{"grunge", "punk", "techno"}}})

	for _, track := range categorized.Tracks {
		switch track.ID {
		case "t3":
			if track.Category != "Ambient" {
				t.Errorf("Reclassify() dropped override: t3 = %q", track.Category)
			}
		case "t1", "t2", "t4":
			if track.Category != "Loud" {
				t.Errorf("Reclassify() %s = %q, want Loud", track.ID, track.Category)
			}
		}
	}

	// Discarding overrides restores rule-based assignment
	categorized.DiscardOverrides()
	categorized.Reclassify(DefaultRules())
	for _, track := range categorized.Tracks {
		if track.ID == "t3" && track.Category != FallbackCategory {
			t.Errorf("DiscardOverrides() t3 = %q, want %q", track.Category, FallbackCategory)
		}
	}
}

func TestCategorizedCatalog_ByCategory(t *testing.T) {
	categorized := Categorize(snapshotFixture(), DefaultRules())
	grouped := categorized.ByCategory()

	if len(grouped["Rock"]) != 2 {
		t.Errorf("ByCategory()[Rock] = %d tracks, want 2", len(grouped["Rock"]))
	}
	if grouped["Rock"][0].ID != "t1" {
		t.Errorf("ByCategory() should preserve catalog order, got %q first", grouped["Rock"][0].ID)
	}
	if len(grouped[FallbackCategory]) != 1 {
		t.Errorf("ByCategory()[%s] = %d tracks, want 1", FallbackCategory, len(grouped[FallbackCategory]))
	}
}
