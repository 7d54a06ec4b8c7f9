package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/file-organizer/internal/core/domain"
	"github.com/kirillkom/file-organizer/internal/core/ports"
)

// ProcessFileUseCase runs a single file through extraction, tagging,
// classification and placement.
type ProcessFileUseCase struct {
	extractor ports.TextExtractor
	analyzer  ports.TagAnalyzer
	labeler   ports.FileLabeler
	tags      ports.TagStore
	mover     ports.FileMover
	publisher ports.PlacementPublisher
	schema    *domain.OrganizationSchema
	mapping   domain.CategoryMapping
	logger    *slog.Logger
}

func NewProcessFileUseCase(
	extractor ports.TextExtractor,
	analyzer ports.TagAnalyzer,
	labeler ports.FileLabeler,
	tags ports.TagStore,
	mover ports.FileMover,
	publisher ports.PlacementPublisher,
	schema *domain.OrganizationSchema,
	mapping domain.CategoryMapping,
	logger *slog.Logger,
) *ProcessFileUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessFileUseCase{
		extractor: extractor,
		analyzer:  analyzer,
		labeler:   labeler,
		tags:      tags,
		mover:     mover,
		publisher: publisher,
		schema:    schema,
		mapping:   mapping,
		logger:    logger,
	}
}

// Process never panics or returns an error: every failure is folded into the
// outcome and the file is left where it was.
func (uc *ProcessFileUseCase) Process(ctx context.Context, path string) domain.Outcome {
	start := time.Now()
	logger := uc.logger.With("path", path, "run_id", uuid.NewString())
	logger.Debug("file_observed", "stage", domain.StageObserved)

	file := domain.NewWatchedFile(path)
	outcome := uc.run(ctx, file, logger)
	outcome.Path = path
	outcome.Duration = time.Since(start)

	switch outcome.Stage {
	case domain.StageFailed:
		logger.Error("file_failed",
			"stage", outcome.FailedStage,
			"error_kind", domain.ErrorKind(outcome.Err),
			"error", outcome.Err,
		)
	case domain.StageMoved:
		logger.Info("file_moved",
			"stage", outcome.Stage,
			"destination", outcome.Destination,
			"label", outcome.Label,
			"tags", outcome.Tags,
			"duration_ms", outcome.Duration.Milliseconds(),
		)
	default:
		logger.Info("file_"+string(outcome.Stage), "stage", outcome.Stage, "tags", outcome.Tags)
	}
	return outcome
}

func (uc *ProcessFileUseCase) run(ctx context.Context, file *domain.WatchedFile, logger *slog.Logger) domain.Outcome {
	text, err := uc.extractText(ctx, file)
	if err != nil {
		return failed(domain.StageExtracting, err)
	}
	if text == "" {
		return domain.Outcome{Stage: domain.StageSkippedNoText}
	}
	file.Text = text
	logger.Debug("text_extracted", "stage", domain.StageExtracted, "chars", len(text))

	file.Tags = uc.analyze(file.Text)
	if len(file.Tags) == 0 {
		return domain.Outcome{Stage: domain.StageSkippedNoText}
	}

	file.ExistingTags = uc.readExistingTags(file.Path, logger)
	if len(file.ExistingTags) > 0 && domain.SameTags(file.ExistingTags, file.Tags) {
		return domain.Outcome{Stage: domain.StageUnchanged, Tags: file.Tags}
	}

	label, err := uc.classify(ctx, file.Tags)
	if err != nil {
		return failed(domain.StageClassifying, err)
	}
	file.Label = label

	placement := domain.Resolve(file.Label, uc.schema, uc.mapping)
	if placement.Fallback != domain.FallbackNone {
		logger.Info("placement_fallback",
			"stage", domain.StageResolving,
			"label", placement.Label,
			"reason", placement.Fallback,
			"destination", placement.Directory,
		)
	}

	destination, err := uc.move(ctx, file.Path, placement.Directory)
	if err != nil {
		return domain.Outcome{
			Stage:       domain.StageFailed,
			FailedStage: domain.StageMoving,
			Label:       placement.Label,
			Tags:        file.Tags,
			Err:         err,
		}
	}

	uc.recordTags(destination, file.Tags, logger)

	if destination == file.Path {
		return domain.Outcome{Stage: domain.StageUnchanged, Destination: destination, Label: placement.Label, Tags: file.Tags}
	}

	uc.publish(ctx, file, placement, destination, logger)
	return domain.Outcome{
		Stage:       domain.StageMoved,
		Destination: destination,
		Label:       placement.Label,
		Tags:        file.Tags,
	}
}

func (uc *ProcessFileUseCase) extractText(ctx context.Context, file *domain.WatchedFile) (string, error) {
	text, err := uc.extractor.Extract(ctx, file.Path)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (uc *ProcessFileUseCase) analyze(text string) []string {
	return domain.NormalizeTags(uc.analyzer.Analyze(text))
}

// readExistingTags treats an unreadable tag record as absent.
func (uc *ProcessFileUseCase) readExistingTags(path string, logger *slog.Logger) []string {
	existing, err := uc.tags.ReadTags(path)
	if err != nil {
		logger.Debug("tags_read_failed", "stage", domain.StageAnalyzing, "error", err)
		return nil
	}
	return existing
}

func (uc *ProcessFileUseCase) classify(ctx context.Context, tags []string) (string, error) {
	label, err := uc.labeler.Label(ctx, tags)
	if err != nil {
		return "", fmt.Errorf("classify tags: %w", err)
	}
	return label, nil
}

func (uc *ProcessFileUseCase) move(ctx context.Context, source, destinationDir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", domain.WrapError(domain.ErrTemporary, "move file", fmt.Errorf("shutdown in progress: %w", err))
	}
	destination, err := uc.mover.Move(ctx, source, destinationDir)
	if err != nil {
		return "", fmt.Errorf("move file: %w", err)
	}
	return destination, nil
}

func (uc *ProcessFileUseCase) recordTags(path string, tags []string, logger *slog.Logger) {
	if err := uc.tags.WriteTags(path, tags); err != nil {
		logger.Warn("tags_write_failed", "destination", path, "error", err)
	}
}

func (uc *ProcessFileUseCase) publish(ctx context.Context, file *domain.WatchedFile, placement domain.Placement, destination string, logger *slog.Logger) {
	if uc.publisher == nil {
		return
	}
	event := domain.PlacementEvent{
		Source:      file.Path,
		Destination: destination,
		Category:    placement.Category,
		Subcategory: placement.Subcategory,
		Label:       placement.Label,
		Tags:        file.Tags,
		Fallback:    placement.Fallback != domain.FallbackNone,
		PlacedAt:    time.Now().UTC(),
	}
	// announced even during shutdown; the move is done
	if err := uc.publisher.PublishPlacement(context.WithoutCancel(ctx), event); err != nil {
		logger.Warn("placement_publish_failed", "destination", destination, "error", err)
	}
}

func failed(stage domain.Stage, err error) domain.Outcome {
	return domain.Outcome{Stage: domain.StageFailed, FailedStage: stage, Err: err}
}
