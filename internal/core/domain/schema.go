package domain

import (
	"errors"
	"sort"
	"strings"
)

const (
	DefaultCategory = "documents"
	MiscSubcategory = "misc"
)

// OrganizationSchema maps category -> subcategory -> destination directory.
// It is built once at startup and never mutated afterwards.
type OrganizationSchema struct {
	category   string
	miscDir    string
	categories map[string]map[string]string
}

// NewOrganizationSchema copies the given tables. category is the fixed
// top-level category consulted by the resolver; miscDir is the single
// fallback for every unresolved label.
func NewOrganizationSchema(category, miscDir string, categories map[string]map[string]string) (*OrganizationSchema, error) {
	miscDir = strings.TrimSpace(miscDir)
	if miscDir == "" {
		return nil, WrapError(ErrInvalidInput, "build schema", errors.New("misc directory is required"))
	}
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = DefaultCategory
	}

	copied := make(map[string]map[string]string, len(categories))
	for name, subs := range categories {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		inner := make(map[string]string, len(subs))
		for sub, dir := range subs {
			sub = strings.ToLower(strings.TrimSpace(sub))
			if sub == "" {
				continue
			}
			inner[sub] = strings.TrimSpace(dir)
		}
		copied[name] = inner
	}

	return &OrganizationSchema{
		category:   category,
		miscDir:    miscDir,
		categories: copied,
	}, nil
}

func (s *OrganizationSchema) Category() string { return s.category }

func (s *OrganizationSchema) MiscDir() string { return s.miscDir }

// Lookup returns the configured directory for (category, subcategory).
// An entry that exists but is empty reports ok=false.
func (s *OrganizationSchema) Lookup(category, subcategory string) (string, bool) {
	subs, ok := s.categories[strings.ToLower(category)]
	if !ok {
		return "", false
	}
	dir, ok := subs[strings.ToLower(subcategory)]
	if !ok || dir == "" {
		return "", false
	}
	return dir, true
}

// Directories lists every configured destination plus the misc directory,
// sorted and without duplicates.
func (s *OrganizationSchema) Directories() []string {
	seen := map[string]struct{}{s.miscDir: {}}
	out := []string{s.miscDir}
	for _, subs := range s.categories {
		for _, dir := range subs {
			if dir == "" {
				continue
			}
			if _, ok := seen[dir]; ok {
				continue
			}
			seen[dir] = struct{}{}
			out = append(out, dir)
		}
	}
	sort.Strings(out)
	return out
}

// CategoryMapping maps a lowercase classification label to a subcategory.
// Labels without an entry resolve to MiscSubcategory.
type CategoryMapping struct {
	entries map[string]string
}

func NewCategoryMapping(entries map[string]string) CategoryMapping {
	copied := make(map[string]string, len(entries))
	for label, sub := range entries {
		label = strings.ToLower(strings.TrimSpace(label))
		sub = strings.ToLower(strings.TrimSpace(sub))
		if label == "" || sub == "" {
			continue
		}
		copied[label] = sub
	}
	return CategoryMapping{entries: copied}
}

// DefaultCategoryMapping is the label table the organizer ships with.
func DefaultCategoryMapping() CategoryMapping {
	return NewCategoryMapping(map[string]string{
		"work":        "work",
		"personal":    "personal",
		"finance":     "finance",
		"photos":      "photos",
		"screenshots": "screenshots",
		"misc":        "misc",
	})
}

func (m CategoryMapping) Subcategory(label string) (string, bool) {
	sub, ok := m.entries[label]
	return sub, ok
}

// Labels returns the known labels in sorted order.
func (m CategoryMapping) Labels() []string {
	out := make([]string, 0, len(m.entries))
	for label := range m.entries {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

func (m CategoryMapping) Len() int { return len(m.entries) }
