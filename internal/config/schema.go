package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/file-organizer/internal/core/domain"
)

// SchemaFile is the optional YAML overlay named by SCHEMA_FILE.
//
//	category: documents
//	misc: /home/me/Downloads/misc
//	categories:
//	  documents:
//	    work: /home/me/Documents/Work
//	mapping:
//	  invoice: finance
type SchemaFile struct {
	Category   string                       `yaml:"category"`
	Misc       string                       `yaml:"misc"`
	Categories map[string]map[string]string `yaml:"categories"`
	Mapping    map[string]string            `yaml:"mapping"`
}

func LoadSchemaFile(path string) (*SchemaFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	var file SchemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse schema file", err)
	}
	return &file, nil
}

// BuildSchema assembles the organization schema and category mapping from
// the environment, with the schema file, when configured, layered on top.
func BuildSchema(cfg Config) (*domain.OrganizationSchema, domain.CategoryMapping, error) {
	category := cfg.Category
	misc := cfg.MiscPath
	categories := copyDestinations(cfg.Destinations)
	defaults := domain.DefaultCategoryMapping()
	mapping := make(map[string]string, defaults.Len())
	for _, label := range defaults.Labels() {
		sub, _ := defaults.Subcategory(label)
		mapping[label] = sub
	}

	if strings.TrimSpace(cfg.SchemaFile) != "" {
		file, err := LoadSchemaFile(cfg.SchemaFile)
		if err != nil {
			return nil, domain.CategoryMapping{}, err
		}
		if file.Category != "" {
			category = file.Category
		}
		if file.Misc != "" {
			misc = file.Misc
		}
		for cat, subs := range file.Categories {
			cat = strings.ToLower(strings.TrimSpace(cat))
			if categories[cat] == nil {
				categories[cat] = map[string]string{}
			}
			for sub, dir := range subs {
				categories[cat][strings.ToLower(strings.TrimSpace(sub))] = dir
			}
		}
		labels := make([]string, 0, len(file.Mapping))
		for label := range file.Mapping {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			mapping[strings.ToLower(strings.TrimSpace(label))] = file.Mapping[label]
		}
	}

	schema, err := domain.NewOrganizationSchema(category, misc, categories)
	if err != nil {
		return nil, domain.CategoryMapping{}, err
	}
	return schema, domain.NewCategoryMapping(mapping), nil
}

func copyDestinations(in map[string]map[string]string) map[string]map[string]string {
	out := make(map[string]map[string]string, len(in))
	for cat, subs := range in {
		inner := make(map[string]string, len(subs))
		for sub, dir := range subs {
			inner[sub] = dir
		}
		out[cat] = inner
	}
	return out
}
