package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source is one brochure listed in the sources file
type Source struct {
	ID   string `yaml:"id"`
	Path string `yaml:"path"`
	Link string `yaml:"link"`
}

// SourcesFile is the YAML document read by the ingest command:
//
//	sources:
//	  - id: dubai-hills
//	    path: brochures/dubai-hills.pdf
//	    link: https://example.com/dubai-hills.pdf
type SourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads a sources file. Relative paths are resolved against the
// file's directory and a missing id defaults to the file name without extension.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var file SourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	base := filepath.Dir(path)
	seen := make(map[string]bool, len(file.Sources))
	sources := make([]Source, 0, len(file.Sources))
	for i, s := range file.Sources {
		if strings.TrimSpace(s.Path) == "" {
			return nil, fmt.Errorf("source %d: path is required", i+1)
		}
		if !filepath.IsAbs(s.Path) {
			s.Path = filepath.Join(base, s.Path)
		}
		if s.ID == "" {
			s.ID = SourceID(s.Path)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("source %d: duplicate id %q", i+1, s.ID)
		}
		seen[s.ID] = true
		sources = append(sources, s)
	}
	return sources, nil
}

// SourceID derives a source identifier from a file name
func SourceID(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
