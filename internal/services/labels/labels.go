// Package labels provides the ordered class labels the model's output vector maps onto.
package labels

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"weatherclassifier/internal/logger"
	"weatherclassifier/internal/model"
)

// Fallback is used when the training data root is missing.
var Fallback = []string{"Mưa", "Nắng", "Tuyết"}

// Set is an ordered list of class labels. Position i names model output i.
type Set struct {
	Names      []string
	IsFallback bool
	Source     string
}

// Static builds a Set from a literal list, kept in the given order.
func Static(names ...string) Set {
	return Set{Names: append([]string(nil), names...), Source: "static"}
}

// FromDirectory lists the category directories under root and sorts them.
// When root does not exist the built-in Fallback list is used and a warning is logged.
func FromDirectory(root string, log *logger.Logger) (Set, error) {
	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		if log != nil {
			log.Warning("Class label directory %s not found, using fallback labels %v", root, Fallback)
		}
		return Set{Names: append([]string(nil), Fallback...), IsFallback: true, Source: "fallback"}, nil
	}
	if err != nil {
		return Set{}, fmt.Errorf("failed to read class label directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	if len(names) == 0 {
		return Set{}, fmt.Errorf("%w: no class directories under %s", model.ErrInvalidArgument, root)
	}

	sort.Strings(names)
	return Set{Names: names, Source: root}, nil
}

// Len returns the number of labels.
func (s Set) Len() int {
	return len(s.Names)
}
