package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/shelf/internal/catalog"
)

var (
	_ list.Item = categoryItem{}
	_ list.Item = trackItem{}
	_ list.Item = groupItem{}
)

// categoryItem wraps a genre category to implement [list.Item].
type categoryItem struct {
	name  string
	count int
}

func (i categoryItem) FilterValue() string { return i.name }
func (i categoryItem) Title() string       { return i.name }
func (i categoryItem) Description() string {
	return fmt.Sprintf("%d tracks", i.count)
}

// trackItem wraps [catalog.Track] to implement [list.Item].
type trackItem struct {
	track catalog.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.Artist
	if len(i.track.Genres) > 0 {
		desc = fmt.Sprintf("%s • %s", desc, strings.Join(i.track.Genres, ", "))
	}
	return desc
}

// groupItem wraps [catalog.DuplicateGroup] to implement [list.Item].
type groupItem struct {
	group catalog.DuplicateGroup
}

func (i groupItem) FilterValue() string { return i.group.Key.Title }
func (i groupItem) Title() string {
	return fmt.Sprintf("%s - %s", i.group.Key.Artist, i.group.Key.Title)
}
func (i groupItem) Description() string {
	return fmt.Sprintf("%d copies, %d removable", len(i.group.Tracks), len(i.group.Tracks)-1)
}
