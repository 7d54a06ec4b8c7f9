package ports

import (
	"context"

	"github.com/kirillkom/file-organizer/internal/core/domain"
)

// TextExtractor reads a bounded text snippet from a file. Unsupported
// extensions yield "" and a nil error.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// TagAnalyzer derives candidate keyword tags from extracted text.
type TagAnalyzer interface {
	Analyze(text string) []string
}

// FileLabeler turns a tag set into a classification label using the remote model.
type FileLabeler interface {
	Label(ctx context.Context, tags []string) (string, error)
}

// TagStore reads and writes the tag list persisted alongside a file.
type TagStore interface {
	ReadTags(path string) ([]string, error)
	WriteTags(path string, tags []string) error
}

// FileMover relocates a file into a destination directory and returns the new path.
type FileMover interface {
	Move(ctx context.Context, source, destinationDir string) (string, error)
}

// EventSource emits notifications for entries of one watched directory.
// Backfill lists what is already there when watching starts.
type EventSource interface {
	Watch(ctx context.Context, dir string) (<-chan domain.FileEvent, error)
	Backfill(ctx context.Context, dir string) ([]domain.FileEvent, error)
	Close() error
}

// PlacementPublisher announces completed moves to interested consumers.
type PlacementPublisher interface {
	PublishPlacement(ctx context.Context, event domain.PlacementEvent) error
}

// PipelineObserver receives pipeline lifecycle signals, typically for metrics.
type PipelineObserver interface {
	ObserveEvent(source domain.EventSource, decision string)
	StartFile()
	FinishFile(outcome domain.Outcome)
}
