package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kirillkom/file-organizer/internal/core/domain"
)

type extractorFake struct {
	text map[string]string
	err  error
}

func (f *extractorFake) Extract(_ context.Context, path string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text[path], nil
}

type analyzerFake struct {
	tags []string
}

func (f *analyzerFake) Analyze(text string) []string {
	if text == "" {
		return []string{}
	}
	return f.tags
}

type labelerFake struct {
	mu    sync.Mutex
	label string
	err   error
	calls int
}

func (f *labelerFake) Label(context.Context, []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.label, nil
}

func (f *labelerFake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// tagStoreFake stands in for extended attributes; moves carry tags along.
type tagStoreFake struct {
	mu      sync.Mutex
	tags    map[string][]string
	readErr error
}

func newTagStoreFake() *tagStoreFake {
	return &tagStoreFake{tags: make(map[string][]string)}
}

func (f *tagStoreFake) ReadTags(path string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.tags[path], nil
}

func (f *tagStoreFake) WriteTags(path string, tags []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tags[path] = append([]string(nil), tags...)
	return nil
}

type moverFake struct {
	mu    sync.Mutex
	err   error
	moves []string
	files map[string]bool
}

func newMoverFake(paths ...string) *moverFake {
	m := &moverFake{files: make(map[string]bool)}
	for _, p := range paths {
		m.files[p] = true
	}
	return m
}

func (f *moverFake) Move(_ context.Context, source, destinationDir string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if !f.files[source] {
		return "", domain.NewMoveError(domain.ErrSourceVanished, source, destinationDir, nil)
	}
	if filepath.Dir(source) == destinationDir {
		return source, nil
	}
	target := filepath.Join(destinationDir, filepath.Base(source))
	delete(f.files, source)
	f.files[target] = true
	f.moves = append(f.moves, target)
	return target, nil
}

func (f *moverFake) Moves() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.moves...)
}

type publisherFake struct {
	events []domain.PlacementEvent
	err    error
}

func (f *publisherFake) PublishPlacement(_ context.Context, event domain.PlacementEvent) error {
	f.events = append(f.events, event)
	return f.err
}

type processFixture struct {
	extractor *extractorFake
	labeler   *labelerFake
	tags      *tagStoreFake
	mover     *moverFake
	publisher *publisherFake
	uc        *ProcessFileUseCase
}

func testSchema(t *testing.T) *domain.OrganizationSchema {
	t.Helper()
	schema, err := domain.NewOrganizationSchema(domain.DefaultCategory, "/dl/misc", map[string]map[string]string{
		"documents": {"work": "/docs/work", "personal": "/docs/personal", "finance": "/docs/finance"},
	})
	if err != nil {
		t.Fatalf("NewOrganizationSchema() error = %v", err)
	}
	return schema
}

func newProcessFixture(t *testing.T, path, text, label string, tags []string) *processFixture {
	t.Helper()
	f := &processFixture{
		extractor: &extractorFake{text: map[string]string{path: text}},
		labeler:   &labelerFake{label: label},
		tags:      newTagStoreFake(),
		mover:     newMoverFake(path),
		publisher: &publisherFake{},
	}
	f.uc = NewProcessFileUseCase(
		f.extractor,
		&analyzerFake{tags: tags},
		f.labeler,
		f.tags,
		f.mover,
		f.publisher,
		testSchema(t),
		domain.DefaultCategoryMapping(),
		nil,
	)
	return f
}

func TestProcessMovesWorkDocument(t *testing.T) {
	f := newProcessFixture(t, "/dl/agenda.txt", "project meeting agenda", "Work", []string{"project meeting", "agenda"})

	outcome := f.uc.Process(context.Background(), "/dl/agenda.txt")

	if outcome.Stage != domain.StageMoved {
		t.Fatalf("expected moved, got %s (%v)", outcome.Stage, outcome.Err)
	}
	if outcome.Destination != "/docs/work/agenda.txt" {
		t.Fatalf("unexpected destination %q", outcome.Destination)
	}
	if outcome.Label != "work" {
		t.Fatalf("expected normalized label work, got %q", outcome.Label)
	}
	if got := f.tags.tags["/docs/work/agenda.txt"]; !domain.SameTags(got, []string{"project meeting", "agenda"}) {
		t.Fatalf("tags not recorded on destination: %v", got)
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0].Subcategory != "work" || f.publisher.events[0].Fallback {
		t.Fatalf("unexpected placement events: %+v", f.publisher.events)
	}
}

func TestProcessIsIdempotentOnMovedFile(t *testing.T) {
	f := newProcessFixture(t, "/dl/agenda.txt", "project meeting agenda", "work", []string{"project meeting", "agenda"})
	first := f.uc.Process(context.Background(), "/dl/agenda.txt")
	if first.Stage != domain.StageMoved {
		t.Fatalf("expected first run to move, got %s", first.Stage)
	}

	f.extractor.text[first.Destination] = "project meeting agenda"
	second := f.uc.Process(context.Background(), first.Destination)

	if second.Stage != domain.StageUnchanged {
		t.Fatalf("expected unchanged, got %s", second.Stage)
	}
	if len(f.mover.Moves()) != 1 {
		t.Fatalf("expected exactly one move, got %v", f.mover.Moves())
	}
	if f.labeler.Calls() != 1 {
		t.Fatalf("classification must be skipped for unchanged tags, got %d calls", f.labeler.Calls())
	}
}

func TestProcessWithoutTagRecordStillConverges(t *testing.T) {
	f := newProcessFixture(t, "/dl/agenda.txt", "project meeting agenda", "work", []string{"agenda"})
	f.tags.readErr = errors.New("xattr unsupported")

	first := f.uc.Process(context.Background(), "/dl/agenda.txt")
	f.extractor.text[first.Destination] = "project meeting agenda"
	second := f.uc.Process(context.Background(), first.Destination)

	if second.Stage != domain.StageUnchanged || second.Destination != first.Destination {
		t.Fatalf("expected unchanged at %s, got %+v", first.Destination, second)
	}
	if len(f.mover.Moves()) != 1 {
		t.Fatalf("expected one move, got %v", f.mover.Moves())
	}
}

func TestProcessLeavesFileWhenServiceUnreachable(t *testing.T) {
	f := newProcessFixture(t, "/dl/agenda.txt", "project meeting agenda", "", []string{"agenda"})
	f.labeler.err = domain.NewClassificationServiceError(domain.ErrServiceUnreachable, "generate", errors.New("connection refused"))

	outcome := f.uc.Process(context.Background(), "/dl/agenda.txt")

	if !outcome.Failed() || outcome.FailedStage != domain.StageClassifying {
		t.Fatalf("expected failure at classifying, got %+v", outcome)
	}
	if !errors.Is(outcome.Err, domain.ErrServiceUnreachable) {
		t.Fatalf("expected unreachable, got %v", outcome.Err)
	}
	if len(f.mover.Moves()) != 0 || !f.mover.files["/dl/agenda.txt"] {
		t.Fatalf("file must stay in place")
	}
}

func TestProcessUnknownLabelGoesToMisc(t *testing.T) {
	f := newProcessFixture(t, "/dl/x.txt", "holiday snaps", "vacation", []string{"holiday"})

	outcome := f.uc.Process(context.Background(), "/dl/x.txt")

	if outcome.Destination != "/dl/misc/x.txt" {
		t.Fatalf("expected misc destination, got %+v", outcome)
	}
	if len(f.publisher.events) != 1 || !f.publisher.events[0].Fallback {
		t.Fatalf("expected fallback placement event, got %+v", f.publisher.events)
	}
}

func TestProcessSkipsEmptyText(t *testing.T) {
	f := newProcessFixture(t, "/dl/archive.zip", "", "work", []string{"x"})

	outcome := f.uc.Process(context.Background(), "/dl/archive.zip")

	if outcome.Stage != domain.StageSkippedNoText {
		t.Fatalf("expected skipped_no_text, got %s", outcome.Stage)
	}
	if f.labeler.Calls() != 0 || len(f.mover.Moves()) != 0 {
		t.Fatalf("nothing should run after empty extraction")
	}
}

func TestProcessExtractionFailure(t *testing.T) {
	f := newProcessFixture(t, "/dl/gone.pdf", "", "work", nil)
	f.extractor.err = domain.NewExtractionError(domain.ErrFileNotFound, "/dl/gone.pdf", nil)

	outcome := f.uc.Process(context.Background(), "/dl/gone.pdf")

	if outcome.FailedStage != domain.StageExtracting || domain.ErrorKind(outcome.Err) != "not_found" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
}

func TestProcessMoveFailureKeepsLabel(t *testing.T) {
	f := newProcessFixture(t, "/dl/a.txt", "invoice", "finance", []string{"invoice"})
	f.mover.err = domain.NewMoveError(domain.ErrDestinationUnwritable, "/dl/a.txt", "/docs/finance", errors.New("read-only"))

	outcome := f.uc.Process(context.Background(), "/dl/a.txt")

	if outcome.FailedStage != domain.StageMoving || outcome.Label != "finance" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if len(f.publisher.events) != 0 {
		t.Fatalf("nothing must be published for a failed move")
	}
}

func TestProcessDoesNotMoveAfterShutdown(t *testing.T) {
	f := newProcessFixture(t, "/dl/a.txt", "invoice", "finance", []string{"invoice"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := f.uc.Process(ctx, "/dl/a.txt")

	if outcome.FailedStage != domain.StageMoving || !errors.Is(outcome.Err, context.Canceled) {
		t.Fatalf("expected move to be refused, got %+v", outcome)
	}
	if len(f.mover.Moves()) != 0 {
		t.Fatalf("move must not start after shutdown")
	}
}

func TestProcessPublishFailureDoesNotFailRun(t *testing.T) {
	f := newProcessFixture(t, "/dl/a.txt", "invoice", "finance", []string{"invoice"})
	f.publisher.err = errors.New("nats down")

	outcome := f.uc.Process(context.Background(), "/dl/a.txt")

	if outcome.Stage != domain.StageMoved {
		t.Fatalf("expected moved, got %+v", outcome)
	}
}
