package ui

import (
	"github.com/desertthunder/shelf/internal/catalog"
	"github.com/desertthunder/shelf/internal/tasks"
)

// analyzeDoneMsg carries the library snapshot after the fetch completes.
type analyzeDoneMsg struct {
	snapshot []catalog.Track
	err      error
}

// cleanupDoneMsg carries the outcome of a duplicate removal pass.
type cleanupDoneMsg struct {
	result *tasks.RemovalResult
	err    error
}

type progressUpdateMsg tasks.ProgressUpdate

// syncCompleteMsg carries the executed reconciliation plan.
type syncCompleteMsg struct {
	result *tasks.ExecuteResult
	err    error
}
