package mediasort

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConflictResolver_Decide_NoCollision(t *testing.T) {
	tmpDir := t.TempDir()
	source := createTestFile(t, tmpDir, "photo.jpg", "content")
	destDir := filepath.Join(tmpDir, "dest")

	resolver := NewConflictResolver()
	decision := resolver.Decide(source, destDir, false)

	if decision.Action != Move {
		t.Errorf("Expected Move, got %v", decision.Action)
	}
	if decision.Duplicate {
		t.Error("Expected no duplicate flag without a collision")
	}
}

func TestConflictResolver_Decide_NoCollision_WithForce(t *testing.T) {
	tmpDir := t.TempDir()
	source := createTestFile(t, tmpDir, "photo.jpg", "content")
	destDir := filepath.Join(tmpDir, "dest")
	if err := os.MkdirAll(destDir, 0755); err != nil {
		t.Fatalf("Failed to create dest dir: %v", err)
	}

	resolver := NewConflictResolver()
	decision := resolver.Decide(source, destDir, true)

	if decision.Action != Move {
		t.Errorf("Expected Move regardless of force, got %v", decision.Action)
	}
}

func TestConflictResolver_Decide_CollisionWithoutForce_IdenticalContent(t *testing.T) {
	tmpDir := t.TempDir()
	source := createTestFile(t, tmpDir, "photo.jpg", "same content")
	destDir := filepath.Join(tmpDir, "dest")
	createTestFile(t, destDir, "photo.jpg", "same content")

	resolver := NewConflictResolver()
	decision := resolver.Decide(source, destDir, false)

	if decision.Action != SkipReport {
		t.Errorf("Expected SkipReport, got %v", decision.Action)
	}
	if !decision.Duplicate {
		t.Error("Expected duplicate flag")
	}
	if !decision.HashesEqual {
		t.Error("Expected hashes to be equal")
	}

	// Report-only branch: both files untouched.
	assertFileExists(t, source)
	assertFileExists(t, filepath.Join(destDir, "photo.jpg"))
}

func TestConflictResolver_Decide_CollisionWithoutForce_DifferentContent(t *testing.T) {
	tmpDir := t.TempDir()
	source := createTestFile(t, tmpDir, "photo.jpg", "source content")
	destDir := filepath.Join(tmpDir, "dest")
	createTestFile(t, destDir, "photo.jpg", "different content")

	resolver := NewConflictResolver()
	decision := resolver.Decide(source, destDir, false)

	if decision.Action != SkipReport {
		t.Errorf("Expected SkipReport, got %v", decision.Action)
	}
	if decision.HashesEqual {
		t.Error("Expected hashes to differ")
	}
}

func TestConflictResolver_Decide_CollisionWithForce_IdenticalContent(t *testing.T) {
	tmpDir := t.TempDir()
	source := createTestFile(t, tmpDir, "photo.jpg", "same content")
	destDir := filepath.Join(tmpDir, "dest")
	createTestFile(t, destDir, "photo.jpg", "same content")

	resolver := NewConflictResolver()
	decision := resolver.Decide(source, destDir, true)

	if decision.Action != OverwriteDeleteSource {
		t.Errorf("Expected OverwriteDeleteSource, got %v", decision.Action)
	}
	if !decision.HashesEqual {
		t.Error("Expected hashes to be equal")
	}
}

func TestConflictResolver_Decide_CollisionWithForce_DifferentContent(t *testing.T) {
	tmpDir := t.TempDir()
	source := createTestFile(t, tmpDir, "photo.jpg", "source content")
	destDir := filepath.Join(tmpDir, "dest")
	createTestFile(t, destDir, "photo.jpg", "different content")

	resolver := NewConflictResolver()
	decision := resolver.Decide(source, destDir, true)

	if decision.Action != RenameAndMove {
		t.Errorf("Expected RenameAndMove, got %v", decision.Action)
	}
	if decision.NewName != "photo_1.jpg" {
		t.Errorf("Expected photo_1.jpg, got %q", decision.NewName)
	}
}

func TestConflictResolver_Decide_RenameSuffixEscalates(t *testing.T) {
	tmpDir := t.TempDir()
	source := createTestFile(t, tmpDir, "photo.jpg", "source content")
	destDir := filepath.Join(tmpDir, "dest")
	createTestFile(t, destDir, "photo.jpg", "different content")
	createTestFile(t, destDir, "photo_1.jpg", "also different")
	createTestFile(t, destDir, "photo_2.jpg", "again different")

	resolver := NewConflictResolver()
	decision := resolver.Decide(source, destDir, true)

	if decision.Action != RenameAndMove {
		t.Errorf("Expected RenameAndMove, got %v", decision.Action)
	}
	if decision.NewName != "photo_3.jpg" {
		t.Errorf("Expected photo_3.jpg, got %q", decision.NewName)
	}
}

func TestConflictResolver_Decide_SameFile(t *testing.T) {
	tmpDir := t.TempDir()
	destDir := filepath.Join(tmpDir, "dest")
	source := createTestFile(t, destDir, "photo.jpg", "only copy")

	// Source already sits in the destination directory: never delete the
	// only copy, even with force.
	resolver := NewConflictResolver()
	decision := resolver.Decide(source, destDir, true)

	if decision.Action != SkipReport {
		t.Errorf("Expected SkipReport, got %v", decision.Action)
	}
	if !decision.SamePath {
		t.Error("Expected SamePath flag")
	}
	assertFileExists(t, source)
}

func TestConflictResolver_Decide_SourceVanished(t *testing.T) {
	tmpDir := t.TempDir()
	destDir := filepath.Join(tmpDir, "dest")
	createTestFile(t, destDir, "photo.jpg", "content")

	resolver := NewConflictResolver()
	decision := resolver.Decide(filepath.Join(tmpDir, "photo.jpg"), destDir, true)

	if decision.Action != Fail {
		t.Errorf("Expected Fail, got %v", decision.Action)
	}
	if decision.Cause == nil {
		t.Error("Expected a cause on failure")
	}
	if !decision.Duplicate {
		t.Error("Expected duplicate flag to survive the failure")
	}
}

func TestHashFile(t *testing.T) {
	tmpDir := t.TempDir()
	fileA := createTestFile(t, tmpDir, "a.jpg", "identical")
	fileB := createTestFile(t, tmpDir, "b.jpg", "identical")
	fileC := createTestFile(t, tmpDir, "c.jpg", "different")

	hashA, err := hashFile(fileA)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	hashB, err := hashFile(fileB)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	hashC, err := hashFile(fileC)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if hashA != hashB {
		t.Errorf("Expected identical hashes, got %s and %s", hashA, hashB)
	}
	if hashA == hashC {
		t.Error("Expected different hashes for different content")
	}
}

func TestHashFile_NonexistentFile(t *testing.T) {
	if _, err := hashFile("/nonexistent/file.jpg"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}
