package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// feedsDocument is the mapping form of the feeds file: `feeds: [...]`.
type feedsDocument struct {
	Feeds []string `yaml:"feeds"`
}

// LoadFeeds reads the configured feed list. The file is either a bare list of
// URLs (YAML or JSON) or a mapping with a `feeds` key. Blank entries and
// duplicates are dropped; order is preserved.
func LoadFeeds(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feeds file %s: %w", path, err)
	}
	return ParseFeeds(data)
}

// ParseFeeds decodes a feeds document already in memory.
func ParseFeeds(data []byte) ([]string, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse feeds: %w", err)
	}
	if len(node.Content) == 0 {
		return []string{}, nil
	}

	var raw []string
	switch root := node.Content[0]; root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode feed list: %w", err)
		}
	case yaml.MappingNode:
		var doc feedsDocument
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode feeds mapping: %w", err)
		}
		raw = doc.Feeds
	default:
		return nil, fmt.Errorf("parse feeds: expected a list or a mapping with a feeds key")
	}

	seen := make(map[string]struct{}, len(raw))
	feeds := make([]string, 0, len(raw))
	for _, u := range raw {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		feeds = append(feeds, u)
	}
	return feeds, nil
}
