package ports

import (
	"context"

	"github.com/kirillkom/file-organizer/internal/core/domain"
)

// FileProcessor runs one file through extraction, analysis, classification
// and placement. Failures are reported in the returned outcome.
type FileProcessor interface {
	Process(ctx context.Context, path string) domain.Outcome
}

// EventDispatcher accepts file events from the backfill scan and the live watcher.
type EventDispatcher interface {
	Submit(event domain.FileEvent) bool
}
