package checksum

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSumStable(t *testing.T) {
	a := Sum([]byte("anchor"))
	if a != Sum([]byte("anchor")) {
		t.Fatal("digest not stable")
	}
	if a == Sum([]byte("anchor2")) {
		t.Fatal("different inputs share a digest")
	}
	if len(a) != 64 {
		t.Errorf("len = %d, want 64", len(a))
	}
}

func TestFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := File(p)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if got != Sum([]byte("{}")) {
		t.Errorf("File digest mismatch")
	}
	if _, err := File(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
