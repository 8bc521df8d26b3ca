// package formatter provides functions to export analysis results to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/desertthunder/shelf/internal/catalog"
	"github.com/desertthunder/shelf/internal/rules"
	"github.com/desertthunder/shelf/internal/shared"
)

// CatalogToCSV converts a categorized snapshot to CSV with columns: ID, Title, Artist, Category, Genres, AddedAt
func CatalogToCSV(categorized *rules.CategorizedCatalog) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Category", "Genres", "AddedAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range categorized.Tracks {
		record := []string{
			track.ID,
			track.Title,
			track.Artist,
			track.Category,
			strings.Join(track.Genres, "; "),
			track.AddedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// CatalogToMarkdown converts a categorized snapshot to Markdown, one section per category
func CatalogToMarkdown(categorized *rules.CategorizedCatalog) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Library Categories\n\n")
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(categorized.Tracks)))

	grouped := categorized.ByCategory()
	for _, category := range categorized.Categories() {
		tracks := grouped[category]
		buf.WriteString(fmt.Sprintf("## %s (%d)\n\n", category, len(tracks)))
		for i, track := range tracks {
			genrePart := ""
			if track.HasGenres() {
				genrePart = fmt.Sprintf(" (%s)", strings.Join(track.Genres, ", "))
			}
			buf.WriteString(fmt.Sprintf("%d. %s - %s%s\n", i+1, track.Artist, track.Title, genrePart))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// DuplicatesToText renders duplicate groups as a plain text report, marking
// which copy is retained.
func DuplicatesToText(groups []catalog.DuplicateGroup) []byte {
	var buf bytes.Buffer

	if len(groups) == 0 {
		buf.WriteString("No duplicates found.\n")
		return buf.Bytes()
	}

	buf.WriteString(fmt.Sprintf("Duplicate groups: %d\n\n", len(groups)))
	for _, group := range groups {
		retained, removable := group.Resolve()
		buf.WriteString(fmt.Sprintf("%q by %s:\n", group.Key.Title, group.Key.Artist))
		buf.WriteString(fmt.Sprintf("  keep   %s (added %s)\n", retained.ID, retained.AddedAt.Format("2006-01-02")))
		for _, track := range removable {
			buf.WriteString(fmt.Sprintf("  remove %s (added %s)\n", track.ID, track.AddedAt.Format("2006-01-02")))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// ToCatalogJSON generates a JSON representation of a categorized snapshot.
func ToCatalogJSON(categorized *rules.CategorizedCatalog) ([]byte, error) {
	return shared.MarshalJSON(categorized.Tracks, true)
}

// WriteCatalogExport writes a categorized snapshot to the given path in the
// requested format (csv, markdown, json).
func WriteCatalogExport(categorized *rules.CategorizedCatalog, format, path string) (string, error) {
	var data []byte
	var err error

	switch format {
	case "csv":
		if path == "" {
			path = "library_categories.csv"
		}
		data, err = CatalogToCSV(categorized)
	case "markdown":
		if path == "" {
			path = "library_categories.md"
		}
		data, err = CatalogToMarkdown(categorized)
	case "json", "":
		if path == "" {
			path = "library_categories.json"
		}
		data, err = ToCatalogJSON(categorized)
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}

	if err != nil {
		return "", fmt.Errorf("failed to generate export: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}
