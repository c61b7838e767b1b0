package labels

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"weatherclassifier/internal/logger"
	"weatherclassifier/internal/model"
)

func newTestLogger(t *testing.T) (*logger.Logger, string) {
	t.Helper()
	dir := t.TempDir()
	l, err := logger.New(dir)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l, dir
}

func TestFromDirectory_SortsCategoryDirectories(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"Tuyết", "Mưa", "Nắng", ".cache"} {
		if err := os.Mkdir(filepath.Join(root, name), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "README.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	l, _ := newTestLogger(t)
	set, err := FromDirectory(root, l)
	if err != nil {
		t.Fatalf("FromDirectory failed: %v", err)
	}

	expected := []string{"Mưa", "Nắng", "Tuyết"}
	if !reflect.DeepEqual(set.Names, expected) {
		t.Errorf("Expected %v, got %v", expected, set.Names)
	}
	if set.IsFallback {
		t.Error("Expected live labels, not fallback")
	}
}

func TestFromDirectory_MissingRootUsesFallbackAndWarns(t *testing.T) {
	l, logDir := newTestLogger(t)

	set, err := FromDirectory(filepath.Join(t.TempDir(), "missing"), l)
	if err != nil {
		t.Fatalf("FromDirectory failed: %v", err)
	}
	if !set.IsFallback {
		t.Error("Expected fallback flag to be set")
	}
	if !reflect.DeepEqual(set.Names, Fallback) {
		t.Errorf("Expected fallback labels %v, got %v", Fallback, set.Names)
	}

	set.Names[0] = "mutated"
	if Fallback[0] == "mutated" {
		t.Error("Fallback list must not be shared with returned sets")
	}

	data, err := os.ReadFile(filepath.Join(logDir, logger.WarningFile))
	if err != nil {
		t.Fatalf("Failed to read warning log: %v", err)
	}
	if !strings.Contains(string(data), "fallback labels") {
		t.Errorf("Expected fallback warning in log, got %q", string(data))
	}
}

func TestFromDirectory_EmptyRoot(t *testing.T) {
	_, err := FromDirectory(t.TempDir(), nil)
	if !errors.Is(err, model.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestStatic_KeepsOrder(t *testing.T) {
	set := Static("Sun", "Rain")
	if !reflect.DeepEqual(set.Names, []string{"Sun", "Rain"}) || set.Len() != 2 {
		t.Errorf("Unexpected static set: %+v", set)
	}
}
