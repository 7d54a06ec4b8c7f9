package domain

import (
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// MaxTags bounds the candidate tag set of a file.
const MaxTags = 10

type Stage string

const (
	StageObserved      Stage = "observed"
	StageExtracting    Stage = "extracting"
	StageExtracted     Stage = "extracted"
	StageSkippedNoText Stage = "skipped_no_text"
	StageAnalyzing     Stage = "analyzing"
	StageClassifying   Stage = "classifying"
	StageResolving     Stage = "resolving"
	StageMoving        Stage = "moving"
	StageMoved         Stage = "moved"
	StageUnchanged     Stage = "unchanged"
	StageFailed        Stage = "failed"
)

func (s Stage) Terminal() bool {
	switch s {
	case StageSkippedNoText, StageMoved, StageUnchanged, StageFailed:
		return true
	default:
		return false
	}
}

// WatchedFile is the subject of one pipeline run. Only Path survives the run;
// everything else is recomputed each time.
type WatchedFile struct {
	Path         string
	Extension    string
	Text         string
	Tags         []string
	ExistingTags []string
	Label        string
}

func NewWatchedFile(path string) *WatchedFile {
	return &WatchedFile{
		Path:      path,
		Extension: strings.ToLower(filepath.Ext(path)),
	}
}

// Outcome is the terminal result of a pipeline run.
type Outcome struct {
	Path        string
	Stage       Stage
	FailedStage Stage
	Destination string
	Label       string
	Tags        []string
	Err         error
	Duration    time.Duration
}

func (o Outcome) Failed() bool {
	return o.Stage == StageFailed
}

type EventSource string

const (
	SourceBackfill EventSource = "backfill"
	SourceLive     EventSource = "live"
)

// FileEvent is a creation or modification notification for one entry of the
// watched directory.
type FileEvent struct {
	Path        string
	IsDirectory bool
	Source      EventSource
}

// PlacementEvent is published after a file has been moved.
type PlacementEvent struct {
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory"`
	Label       string    `json:"label"`
	Tags        []string  `json:"tags"`
	Fallback    bool      `json:"fallback"`
	PlacedAt    time.Time `json:"placed_at"`
}

// NormalizeTags trims, drops empties and duplicates, and caps the set at MaxTags.
// The order of first appearance is kept.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}

// SameTags reports set equality, ignoring order and case.
func SameTags(a, b []string) bool {
	left := tagSet(a)
	right := tagSet(b)
	if len(left) != len(right) {
		return false
	}
	for tag := range left {
		if _, ok := right[tag]; !ok {
			return false
		}
	}
	return true
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			set[tag] = struct{}{}
		}
	}
	return set
}

// JoinTags renders tags as the comma separated list stored in file metadata.
func JoinTags(tags []string) string {
	return strings.Join(NormalizeTags(tags), ",")
}

// SplitTags parses a comma separated tag list.
func SplitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return NormalizeTags(strings.Split(raw, ","))
}

// SortedTags returns a sorted copy, handy for stable log output.
func SortedTags(tags []string) []string {
	out := append([]string(nil), tags...)
	sort.Strings(out)
	return out
}
