package apl

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadRotation loads a rotation file relative to baseDir, resolving imports.
// Imported prepull and rotation entries come before the importing file's own.
func LoadRotation(baseDir, relPath string) (*File, error) {
	seen := map[string]bool{}
	return loadRecursive(baseDir, relPath, seen)
}

// ParseRotation parses a single rotation document. Imports are not resolved.
func ParseRotation(data []byte) (*File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

func loadRecursive(baseDir, relPath string, seen map[string]bool) (*File, error) {
	normalized := filepath.Clean(relPath)
	if seen[normalized] {
		return nil, fmt.Errorf("rotation import cycle detected at %s", normalized)
	}
	seen[normalized] = true

	fullPath := filepath.Join(baseDir, normalized)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, err
	}

	file, err := ParseRotation(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", relPath, err)
	}

	// Resolve imports depth-first.
	var prepull, rotation []ActionDefinition
	for _, imp := range file.Imports {
		child, err := loadRecursive(baseDir, imp, seen)
		if err != nil {
			return nil, err
		}
		prepull = append(prepull, child.Prepull...)
		rotation = append(rotation, child.Rotation...)
		for k, v := range child.Variables {
			if file.Variables == nil {
				file.Variables = map[string]any{}
			}
			if _, ok := file.Variables[k]; !ok {
				file.Variables[k] = v
			}
		}
	}
	file.Prepull = append(prepull, file.Prepull...)
	file.Rotation = append(rotation, file.Rotation...)

	seen[normalized] = false
	return file, nil
}
