package mediasort

import (
	"path/filepath"
	"testing"
)

func TestValidateSourceDir(t *testing.T) {
	tmpDir := t.TempDir()

	stats := NewFileStats()
	if err := stats.ValidateSourceDir(tmpDir); err != nil {
		t.Errorf("Expected no error for writable directory, got: %v", err)
	}
}

func TestValidateSourceDir_Nonexistent(t *testing.T) {
	stats := NewFileStats()
	if err := stats.ValidateSourceDir("/nonexistent/directory"); err == nil {
		t.Error("Expected error for nonexistent directory")
	}
}

func TestValidateSourceDir_File(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := createTestFile(t, tmpDir, "file.txt", "content")

	stats := NewFileStats()
	if err := stats.ValidateSourceDir(filePath); err == nil {
		t.Error("Expected error when source is a regular file")
	}
}

func TestGetFileCount(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "a.jpg", "a")
	createTestFile(t, tmpDir, "b.jpg", "b")
	createTestFile(t, filepath.Join(tmpDir, "nested"), "c.jpg", "c")

	stats := NewFileStats()
	count, err := stats.GetFileCount(tmpDir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 files, got %d", count)
	}
}

func TestGetFileCount_SkipsDotFiles(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "visible.jpg", "v")
	createTestFile(t, tmpDir, ".hidden", "h")
	createTestFile(t, filepath.Join(tmpDir, ".hiddendir"), "inside.jpg", "i")

	stats := NewFileStats()
	count, err := stats.GetFileCount(tmpDir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 file, got %d", count)
	}
}

func TestGetFileCount_EmptyDir(t *testing.T) {
	stats := NewFileStats()
	count, err := stats.GetFileCount(t.TempDir())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 files, got %d", count)
	}
}

func TestGetFileCount_NonexistentDir(t *testing.T) {
	stats := NewFileStats()
	if _, err := stats.GetFileCount("/nonexistent/directory"); err == nil {
		t.Error("Expected error for nonexistent directory")
	}
}
