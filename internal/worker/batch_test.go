package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mvickers/citecheck/internal/model"
)

// MockAnalyzer implements the Analyzer interface
type MockAnalyzer struct {
	ShouldError bool
}

func (m *MockAnalyzer) AnalyzeFile(ctx context.Context, path string) (*model.DocumentReport, error) {
	time.Sleep(10 * time.Millisecond) // Simulate work
	if m.ShouldError {
		return nil, errors.New("analyze error")
	}
	return &model.DocumentReport{Source: path}, nil
}

func TestBatchProcessor_ProcessPaths(t *testing.T) {
	analyzer := &MockAnalyzer{}
	processor := NewBatchProcessor(analyzer, 2)

	paths := []string{"brief-a.txt", "brief-b.txt", "brief-c.txt"}
	results := processor.ProcessPaths(context.Background(), paths)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	for _, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Path, res.Error)
		}
		if res.Report == nil {
			t.Error("expected report for successful analysis")
		}
	}
}

func TestBatchProcessor_ProcessPaths_Error(t *testing.T) {
	analyzer := &MockAnalyzer{ShouldError: true}
	processor := NewBatchProcessor(analyzer, 2)

	results := processor.ProcessPaths(context.Background(), []string{"missing.txt"})

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Error == nil {
		t.Error("expected error, got nil")
	}
	if results[0].Report != nil {
		t.Error("expected nil report on error")
	}
}

func TestBatchProcessor_ProcessPaths_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockAnalyzer{}, 2)

	results := processor.ProcessPaths(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestReadPathsFromFile(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "docs.txt")

	content := "brief-a.txt\n# comment\n\nbrief-b.txt\nbrief-a.txt\n"
	if err := os.WriteFile(listPath, []byte(content), 0644); err != nil {
		t.Fatalf("write list: %v", err)
	}

	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		t.Fatalf("ReadPathsFromFile failed: %v", err)
	}

	// Comments, blanks, and duplicates removed
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %d: %v", len(paths), paths)
	}
	if paths[0] != "brief-a.txt" || paths[1] != "brief-b.txt" {
		t.Errorf("unexpected paths: %v", paths)
	}
}

func TestReadPathsFromFile_Missing(t *testing.T) {
	_, err := ReadPathsFromFile("/nonexistent/list.txt")
	if err == nil {
		t.Error("expected error for missing file")
	}
}
