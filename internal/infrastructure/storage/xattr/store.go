package xattr

import (
	"strings"

	"github.com/kirillkom/file-organizer/internal/core/domain"
)

const DefaultAttribute = "user.organizer.tags"

// Store keeps a file's tags in one extended attribute as a comma-separated
// list. Platforms or filesystems without extended attributes report
// ErrUnsupported, which callers treat as "no tags recorded".
type Store struct {
	attribute string
}

func New(attribute string) *Store {
	attribute = strings.TrimSpace(attribute)
	if attribute == "" {
		attribute = DefaultAttribute
	}
	return &Store{attribute: attribute}
}

func (s *Store) Attribute() string {
	return s.attribute
}

// ReadTags returns the recorded tags, or nil when the file carries none.
func (s *Store) ReadTags(path string) ([]string, error) {
	raw, err := getAttr(path, s.attribute)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return domain.SplitTags(string(raw)), nil
}

func (s *Store) WriteTags(path string, tags []string) error {
	return setAttr(path, s.attribute, []byte(domain.JoinTags(tags)))
}
