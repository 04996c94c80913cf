// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package manifest

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// parseYAML decodes the YAML manifest variant. The document is walked as a
// yaml.Node tree rather than into a map so scene declaration order is kept.
func parseYAML(path string, src []byte) ([]sceneEntry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("parse manifest %s: empty document", path)
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse manifest %s: top level must be a mapping", path)
	}

	// Unwrap the nested form: a single top-level `scenes` mapping.
	if len(root.Content) == 2 && root.Content[0].Value == "scenes" && root.Content[1].Kind == yaml.MappingNode {
		root = root.Content[1]
	}

	entries := make([]sceneEntry, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		count, err := countFromNode(name, root.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("manifest %s: %w", path, err)
		}
		entries = append(entries, sceneEntry{name: name, count: count})
	}
	return entries, nil
}

func countFromNode(scene string, node *yaml.Node) (int, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		count := len(node.Content)
		return count, checkCount(scene, count)
	case yaml.ScalarNode:
		count, err := strconv.Atoi(node.Value)
		if err != nil {
			return 0, fmt.Errorf("scene %q declares cases %q: %w", scene, node.Value, ErrMalformedCaseCount)
		}
		return count, checkCount(scene, count)
	default:
		return 0, fmt.Errorf("scene %q: %w", scene, ErrMalformedCaseCount)
	}
}
