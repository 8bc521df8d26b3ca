package formatter

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/shelf/internal/catalog"
	"github.com/desertthunder/shelf/internal/rules"
	"github.com/desertthunder/shelf/internal/shared"
	libtest "github.com/desertthunder/shelf/internal/testing"
)

func categorizedFixture() *rules.CategorizedCatalog {
	ruleList := []rules.CategoryRule{
		{Category: "Rock", Keywords: []string{"rock"}},
		{Category: "EDM", Keywords: []string{"house", "techno"}},
	}
	tracks := []catalog.Track{
		{ID: "t1", Title: "Even Flow", Artist: "Pearl Jam", Genres: []string{"grunge", "rock"},
			AddedAt: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{ID: "t2", Title: "Strobe", Artist: "deadmau5", Genres: []string{"progressive house"},
			AddedAt: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)},
		{ID: "t3", Title: "Untagged", Artist: "Nobody",
			AddedAt: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
	}
	return rules.Categorize(tracks, ruleList)
}

func TestExporters(t *testing.T) {
	categorized := categorizedFixture()

	t.Run("CatalogToCSV", func(t *testing.T) {
		data, err := CatalogToCSV(categorized)
		if err != nil {
			t.Fatalf("CatalogToCSV() error = %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 4 {
			t.Fatalf("expected header + 3 records, got %d lines", len(lines))
		}
		if lines[0] != "ID,Title,Artist,Category,Genres,AddedAt" {
			t.Errorf("unexpected header: %s", lines[0])
		}
		if !strings.Contains(lines[1], "t1,Even Flow,Pearl Jam,Rock,grunge; rock,2024-01-05T00:00:00Z") {
			t.Errorf("unexpected first record: %s", lines[1])
		}
		if !strings.Contains(lines[3], "Other") {
			t.Errorf("untagged track should fall back to Other: %s", lines[3])
		}
	})

	t.Run("CatalogToMarkdown", func(t *testing.T) {
		data, err := CatalogToMarkdown(categorized)
		if err != nil {
			t.Fatalf("CatalogToMarkdown() error = %v", err)
		}
		report := string(data)

		if !strings.Contains(report, "# Library Categories") {
			t.Error("expected report title")
		}
		if !strings.Contains(report, "**Tracks**: 3") {
			t.Error("expected track count")
		}
		for _, section := range []string{"## EDM (1)", "## Rock (1)", "## Other (1)"} {
			if !strings.Contains(report, section) {
				t.Errorf("expected section %q in report", section)
			}
		}
		if !strings.Contains(report, "1. Pearl Jam - Even Flow (grunge, rock)") {
			t.Error("expected numbered track line with genres")
		}

		// Fallback section renders after every rule category.
		if strings.Index(report, "## Other") < strings.Index(report, "## Rock") {
			t.Error("fallback section should come last")
		}
	})

	t.Run("ToCatalogJSON", func(t *testing.T) {
		data, err := ToCatalogJSON(categorized)
		if err != nil {
			t.Fatalf("ToCatalogJSON() error = %v", err)
		}
		report := string(data)

		if !strings.Contains(report, `"category": "Rock"`) {
			t.Error("expected category field in JSON")
		}
		if !strings.Contains(report, `"id": "t2"`) {
			t.Error("expected track id in JSON")
		}
	})
}

func TestDuplicatesToText(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		report := string(DuplicatesToText(nil))
		if report != "No duplicates found.\n" {
			t.Errorf("unexpected empty report: %q", report)
		}
	})

	t.Run("Marks Retained Copy", func(t *testing.T) {
		groups := catalog.FindDuplicates([]catalog.Track{
			{ID: "dup", Title: "Dreams", Artist: "Fleetwood Mac",
				AddedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
			{ID: "orig", Title: "dreams ", Artist: "fleetwood mac",
				AddedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		})
		if len(groups) != 1 {
			t.Fatalf("expected 1 duplicate group, got %d", len(groups))
		}

		report := string(DuplicatesToText(groups))
		if !strings.Contains(report, "Duplicate groups: 1") {
			t.Error("expected group count")
		}
		if !strings.Contains(report, "keep   orig (added 2023-01-01)") {
			t.Errorf("expected earliest copy kept, got:\n%s", report)
		}
		if !strings.Contains(report, "remove dup (added 2024-05-01)") {
			t.Errorf("expected later copy removable, got:\n%s", report)
		}
	})
}

func TestWriteCatalogExport(t *testing.T) {
	categorized := categorizedFixture()

	tests := []struct {
		name       string
		format     string
		path       string
		wantPath   string
		wantInFile string
	}{
		{"csv with explicit path", "csv", "out.csv", "out.csv", "ID,Title,Artist"},
		{"csv default path", "csv", "", "library_categories.csv", "ID,Title,Artist"},
		{"markdown default path", "markdown", "", "library_categories.md", "# Library Categories"},
		{"json default path", "json", "", "library_categories.json", `"category"`},
		{"empty format means json", "", "", "library_categories.json", `"category"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			wd := libtest.MustGetwd(t)
			libtest.MustChdir(t, dir)
			defer libtest.MustChdir(t, wd)

			written, err := WriteCatalogExport(categorized, tt.format, tt.path)
			if err != nil {
				t.Fatalf("WriteCatalogExport() error = %v", err)
			}
			if written != tt.wantPath {
				t.Errorf("WriteCatalogExport() path = %s, want %s", written, tt.wantPath)
			}

			libtest.AssertFileExists(t, filepath.Join(dir, tt.wantPath))
			content := libtest.MustReadFile(t, filepath.Join(dir, tt.wantPath))
			if !strings.Contains(content, tt.wantInFile) {
				t.Errorf("expected %q in written file", tt.wantInFile)
			}
		})
	}

	t.Run("Unknown Format", func(t *testing.T) {
		_, err := WriteCatalogExport(categorized, "xml", "")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag for unknown format, got %v", err)
		}
	})
}
