package index

import (
	"os"
	"slices"
	"testing"
	"time"

	"github.com/starford/anchor/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "anchor-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ref(id, name, path string, status models.Status, pinned bool, tags ...string) models.Reference {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return models.Reference{
		ID:            id,
		ReferenceName: name,
		AbsolutePath:  path,
		Type:          models.TypeFolder,
		Status:        status,
		Tags:          tags,
		CreatedAt:     models.NewTimestamp(now),
		LastOpenedAt:  models.NewTimestamp(now),
		Pinned:        pinned,
	}
}

func sampleRefs() []models.Reference {
	return []models.Reference{
		ref("1", "zeta", "/work/zeta", models.StatusActive, false, "go"),
		ref("2", "Alpha", "/work/alpha", models.StatusArchived, false, "rust"),
		ref("3", "beta", "/home/beta", models.StatusIdea, true, "go", "cli"),
		ref("4", "gamma", "/work/gamma", models.StatusActive, false),
	}
}

func mustSync(t *testing.T, db *DB, refs []models.Reference) {
	t.Helper()
	if err := Sync(db, refs, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM refs`).Scan(&count); err != nil {
		t.Fatalf("refs table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	r := ref("a", "Hello", "/tmp/hello", models.StatusActive, false, "x")
	if err := db.UpsertReference(0, r); err != nil {
		t.Fatalf("UpsertReference: %v", err)
	}
	cs, err := db.GetChecksum("a")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != RowChecksum(0, r) {
		t.Errorf("checksum = %q, want %q", cs, RowChecksum(0, r))
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestDeleteReference(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertReference(0, ref("d", "Delete", "/d", models.StatusActive, false))

	if err := db.DeleteReference("d"); err != nil {
		t.Fatalf("DeleteReference: %v", err)
	}
	if cs, _ := db.GetChecksum("d"); cs != "" {
		t.Errorf("deleted reference still has checksum %q", cs)
	}
}

func TestSearch_DisplayOrder(t *testing.T) {
	db := testDB(t)
	mustSync(t, db, sampleRefs())

	got, err := db.Search(Query{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// pinned beta, then active gamma/zeta by name, then archived Alpha.
	want := []string{"3", "4", "1", "2"}
	if !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestSearch_Filters(t *testing.T) {
	db := testDB(t)
	mustSync(t, db, sampleRefs())

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"name case-insensitive", Query{Text: "ALPHA"}, []string{"2"}},
		{"path substring", Query{Text: "/work/"}, []string{"4", "1", "2"}},
		{"tag text", Query{Text: "rus"}, []string{"2"}},
		{"status", Query{Status: models.StatusActive}, []string{"4", "1"}},
		{"tag exact", Query{Tag: "go"}, []string{"3", "1"}},
		{"tag exact no partial", Query{Tag: "g"}, []string{}},
		{"combined", Query{Text: "work", Tag: "go"}, []string{"1"}},
		{"like wildcard escaped", Query{Text: "%"}, []string{}},
		{"limit", Query{Limit: 2}, []string{"3", "4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Search(tt.q)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSync_RemovesStaleAndUpdatesChanged(t *testing.T) {
	db := testDB(t)
	refs := sampleRefs()
	mustSync(t, db, refs)

	refs[0].ReferenceName = "renamed"
	refs = refs[:3]
	mustSync(t, db, refs)

	n, err := db.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
	got, _ := db.Search(Query{Text: "renamed"})
	if !slices.Equal(got, []string{"1"}) {
		t.Errorf("renamed search = %v", got)
	}
	if cs, _ := db.GetChecksum("4"); cs != "" {
		t.Error("stale reference still indexed")
	}
}

func TestSync_SkipsUnchanged(t *testing.T) {
	db := testDB(t)
	refs := sampleRefs()
	mustSync(t, db, refs)

	before, _ := db.AllChecksums()
	mustSync(t, db, refs)
	after, _ := db.AllChecksums()

	if len(before) != len(after) {
		t.Fatalf("checksum sets differ: %v vs %v", before, after)
	}
	for id, cs := range before {
		if after[id] != cs {
			t.Errorf("checksum for %s changed on no-op sync", id)
		}
	}
}
