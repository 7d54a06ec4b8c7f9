package domain

import (
	"strings"
	"unicode"
)

type FallbackReason string

const (
	FallbackNone        FallbackReason = ""
	FallbackMappingMiss FallbackReason = "mapping_miss"
	FallbackSchemaMiss  FallbackReason = "schema_miss"
)

// Placement is where a classified file belongs.
type Placement struct {
	Label       string
	Category    string
	Subcategory string
	Directory   string
	Fallback    FallbackReason
}

// Resolve maps a classification label to a destination directory. It never
// fails: a label the mapping does not know and a subcategory the schema does
// not configure both land in the misc directory.
func Resolve(label string, schema *OrganizationSchema, mapping CategoryMapping) Placement {
	normalized := NormalizeLabel(label)
	placement := Placement{
		Label:    normalized,
		Category: schema.Category(),
	}

	sub, ok := mapping.Subcategory(normalized)
	if !ok {
		placement.Subcategory = MiscSubcategory
		placement.Directory = schema.MiscDir()
		placement.Fallback = FallbackMappingMiss
		return placement
	}
	placement.Subcategory = sub

	dir, ok := schema.Lookup(schema.Category(), sub)
	if !ok {
		placement.Directory = schema.MiscDir()
		placement.Fallback = FallbackSchemaMiss
		return placement
	}
	placement.Directory = dir
	return placement
}

// NormalizeLabel lowercases a model answer and strips surrounding whitespace,
// quotes and punctuation ("Work." -> "work").
func NormalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	return strings.TrimFunc(label, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || r == '`'
	})
}
