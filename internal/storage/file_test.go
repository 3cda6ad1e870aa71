package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/starford/anchor/internal/apperr"
	"github.com/starford/anchor/internal/models"
)

func tempFile(t *testing.T) *File {
	t.Helper()
	f, err := NewFile(filepath.Join(t.TempDir(), "Anchor", DefaultFileName), nil)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	return f
}

func sampleRefs() []models.Reference {
	desc := "main repo"
	created := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	return []models.Reference{
		{
			ID:            "b",
			ReferenceName: "Project X",
			AbsolutePath:  "/Users/x/proj",
			Type:          models.TypeFolder,
			Status:        models.StatusActive,
			Tags:          []string{"work", "go"},
			Description:   &desc,
			CreatedAt:     models.NewTimestamp(created),
			LastOpenedAt:  models.NewTimestamp(created.Add(time.Hour)),
			Pinned:        true,
		},
		{
			ID:            "a",
			ReferenceName: "notes.txt",
			AbsolutePath:  "/Users/x/notes.txt",
			Type:          models.TypeFile,
			Status:        models.StatusIdea,
			Tags:          []string{},
			CreatedAt:     models.NewTimestamp(created),
			LastOpenedAt:  models.NewTimestamp(created),
		},
	}
}

func TestLoadAll_MissingFile(t *testing.T) {
	f := tempFile(t)
	refs, err := f.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if refs == nil || len(refs) != 0 {
		t.Errorf("refs = %#v, want empty non-nil", refs)
	}
}

func TestLoadAll_EmptyAndCorrupt(t *testing.T) {
	cases := map[string]string{
		"empty":      "",
		"whitespace": "  \n\t",
		"garbage":    "{not json",
		"wrong type": `{"references": 42}`,
		"array":      `[1,2,3]`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			f := tempFile(t)
			if err := os.MkdirAll(filepath.Dir(f.Path()), 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(f.Path(), []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			refs, err := f.LoadAll()
			if err != nil {
				t.Fatalf("LoadAll: %v", err)
			}
			if len(refs) != 0 {
				t.Errorf("len = %d, want 0", len(refs))
			}
		})
	}
}

func TestSaveAllCreatesDirectory(t *testing.T) {
	f := tempFile(t)
	if err := f.SaveAll(sampleRefs()); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	if _, err := os.Stat(f.Path()); err != nil {
		t.Fatalf("data file missing: %v", err)
	}
}

func TestRoundTripPreservesOrderAndFields(t *testing.T) {
	f := tempFile(t)
	want := sampleRefs()
	if err := f.SaveAll(want); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	got, err := f.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", got, want)
	}

	first, _ := os.ReadFile(f.Path())
	if err := f.SaveAll(got); err != nil {
		t.Fatalf("SaveAll again: %v", err)
	}
	second, _ := os.ReadFile(f.Path())
	if string(first) != string(second) {
		t.Error("saveAll(loadAll()) changed file content")
	}
}

// existingFile is laid out the way earlier releases wrote data.json:
// millisecond and offset timestamps, empty timestamps, no trailing newline.
const existingFile = `{
  "references": [
    {
      "id": "1",
      "referenceName": "Project X",
      "absolutePath": "/Users/x/proj",
      "type": "folder",
      "status": "active",
      "tags": [],
      "description": null,
      "createdAt": "2024-05-01T10:00:00.000Z",
      "lastOpenedAt": "2024-05-02T08:30:00.123456+00:00",
      "pinned": false
    },
    {
      "id": "2",
      "referenceName": "notes.md",
      "absolutePath": "/Users/x/notes.md",
      "type": "file",
      "status": "idea",
      "tags": [
        "go",
        "cli"
      ],
      "description": "notes & <drafts>",
      "createdAt": "",
      "lastOpenedAt": "",
      "pinned": true
    }
  ]
}`

func TestRoundTripExistingFileIsByteIdentical(t *testing.T) {
	f := tempFile(t)
	if err := os.MkdirAll(filepath.Dir(f.Path()), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(f.Path(), []byte(existingFile), 0o644); err != nil {
		t.Fatal(err)
	}

	refs, err := f.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("loaded %d references, want 2", len(refs))
	}
	if refs[0].CreatedAt.String() != "2024-05-01T10:00:00.000Z" || !refs[1].CreatedAt.IsZero() {
		t.Errorf("timestamps = %q, %q", refs[0].CreatedAt, refs[1].CreatedAt)
	}

	if err := f.SaveAll(refs); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	got, err := os.ReadFile(f.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != existingFile {
		t.Fatalf("round trip changed the file:\n%s", got)
	}
	matches, _ := filepath.Glob(f.Path() + ".corrupt-*")
	if len(matches) != 0 {
		t.Errorf("file was treated as corrupt: %v", matches)
	}
}

func TestLoadAllKeepsRecordsWithOddTimestamps(t *testing.T) {
	f := tempFile(t)
	if err := os.MkdirAll(filepath.Dir(f.Path()), 0o755); err != nil {
		t.Fatal(err)
	}
	content := `{"references":[
	  {"id":"1","referenceName":"a","absolutePath":"/a","type":"folder","status":"active","tags":[],"description":null,"createdAt":"yesterday","lastOpenedAt":null,"pinned":false},
	  {"id":"2","referenceName":"b","absolutePath":"/b","type":"file","status":"paused","tags":[],"description":null,"createdAt":"2024-05-01T10:00:00+02:00","lastOpenedAt":"2024-05-01T10:00:00+02:00","pinned":false}
	]}`
	if err := os.WriteFile(f.Path(), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	refs, err := f.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("loaded %d references, want 2", len(refs))
	}
	if refs[0].CreatedAt.String() != "yesterday" {
		t.Errorf("createdAt = %q", refs[0].CreatedAt)
	}
	if _, ok := refs[1].CreatedAt.Time(); !ok {
		t.Errorf("offset timestamp should parse: %q", refs[1].CreatedAt)
	}
}

func TestSaveAllPrettyPrintsExternalNames(t *testing.T) {
	f := tempFile(t)
	if err := f.SaveAll(sampleRefs()); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(f.Path())
	s := string(data)
	for _, key := range []string{
		`"references"`, `"id"`, `"referenceName"`, `"absolutePath"`, `"type"`, `"status"`,
		`"tags"`, `"description"`, `"createdAt"`, `"lastOpenedAt"`, `"pinned"`,
	} {
		if !strings.Contains(s, key) {
			t.Errorf("missing key %s", key)
		}
	}
	if !strings.Contains(s, "\n  \"references\": [") {
		t.Errorf("not pretty-printed:\n%s", s)
	}
	if !strings.Contains(s, `"description": null`) {
		t.Error("nil description should encode as null")
	}
}

func TestSaveAllNilTagsEncodeAsArray(t *testing.T) {
	f := tempFile(t)
	refs := sampleRefs()[:1]
	refs[0].Tags = nil
	if err := f.SaveAll(refs); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(f.Path())
	if !strings.Contains(string(data), `"tags": []`) {
		t.Errorf("nil tags not encoded as []:\n%s", data)
	}
	if refs[0].Tags != nil {
		t.Error("SaveAll mutated the caller's slice")
	}
}

func TestSaveAllPreservesCorruptFile(t *testing.T) {
	f := tempFile(t)
	f.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	_ = os.MkdirAll(filepath.Dir(f.Path()), 0o755)
	if err := os.WriteFile(f.Path(), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := f.SaveAll(sampleRefs()); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	backups, _ := filepath.Glob(f.Path() + ".corrupt-*")
	if len(backups) != 1 {
		t.Fatalf("backups = %v, want 1", backups)
	}
	old, _ := os.ReadFile(backups[0])
	if string(old) != "{broken" {
		t.Errorf("backup content = %q", old)
	}
	refs, _ := f.LoadAll()
	if len(refs) != 2 {
		t.Errorf("len = %d after save", len(refs))
	}
}

func TestSaveAllValidFileNotBackedUp(t *testing.T) {
	f := tempFile(t)
	_ = f.SaveAll(sampleRefs())
	_ = f.SaveAll(sampleRefs()[:1])
	backups, _ := filepath.Glob(f.Path() + ".corrupt-*")
	if len(backups) != 0 {
		t.Errorf("unexpected backups: %v", backups)
	}
}

func TestSaveAllNoLeftoverTempFiles(t *testing.T) {
	f := tempFile(t)
	if err := f.SaveAll(sampleRefs()); err != nil {
		t.Fatal(err)
	}
	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(f.Path()), tmpPattern))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestSaveAllDirectoryFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := NewFile(filepath.Join(blocker, "Anchor", DefaultFileName), nil)
	if err != nil {
		t.Fatal(err)
	}
	err = f.SaveAll(sampleRefs())
	if !errors.Is(err, apperr.ErrIO) {
		t.Fatalf("err = %v, want ErrIO", err)
	}
}

func TestIsOwnWrite(t *testing.T) {
	f := tempFile(t)
	if f.IsOwnWrite([]byte("{}")) {
		t.Error("nothing written yet")
	}
	_ = f.SaveAll(sampleRefs())
	data, _ := os.ReadFile(f.Path())
	if !f.IsOwnWrite(data) {
		t.Error("expected own write")
	}
	if f.IsOwnWrite(append(data, ' ')) {
		t.Error("modified content reported as own write")
	}
}

func TestNewFile_EmptyPath(t *testing.T) {
	if _, err := NewFile("", nil); err == nil {
		t.Error("expected error for empty path")
	}
}
