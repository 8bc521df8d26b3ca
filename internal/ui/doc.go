// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for library organization:
//  1. [AnalyzeView] : Fetch the saved-track library and resolve genres
//  2. [DuplicateListView] : Review duplicate groups and optionally clean them up
//  3. [CategoryListView] : Browse categorized tracks by genre bucket
//  4. [TrackListView] : Inspect the tracks inside a category or duplicate group
//  5. [ConfirmView] : Confirm playlist reconciliation
//  6. [SyncView] : Monitor real-time progress updates
//  7. [ResultView] : Display created playlists and added track counts
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the LibraryEngine, providing non-blocking status reporting during long operations.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
