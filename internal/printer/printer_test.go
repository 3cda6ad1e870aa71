package printer

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/starford/anchor/internal/models"
)

func init() {
	color.NoColor = true
}

func sample() []models.Reference {
	return []models.Reference{
		{ID: "1", ReferenceName: "anchor", AbsolutePath: "/src/anchor", Type: models.TypeFolder, Status: models.StatusActive, Tags: []string{"go", "cli"}, Pinned: true},
		{ID: "2", ReferenceName: "notes.md", AbsolutePath: "/docs/notes.md", Type: models.TypeFile, Status: models.StatusArchived, Tags: []string{}},
	}
}

func TestReferencesTable(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf}

	if err := p.References(sample()); err != nil {
		t.Fatalf("References: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	checks := []struct {
		line int
		want string
	}{
		{0, "NAME"},
		{1, "*"},
		{1, "anchor"},
		{1, "go,cli"},
		{2, "archived"},
		{2, "/docs/notes.md"},
	}
	for _, c := range checks {
		if !strings.Contains(lines[c.line], c.want) {
			t.Errorf("line %d %q missing %q", c.line, lines[c.line], c.want)
		}
	}
}

func TestReferencesEmpty(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf}

	if err := p.References(nil); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "no references\n" {
		t.Errorf("output = %q", got)
	}
}

func TestReferencesJSON(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf, JSON: true}

	if err := p.References(sample()); err != nil {
		t.Fatal(err)
	}

	var got models.StorageFile
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.References) != 2 || got.References[0].ReferenceName != "anchor" {
		t.Errorf("references = %+v", got.References)
	}
}

func TestStatusLabelUnknown(t *testing.T) {
	if got := StatusLabel(models.Status("weird")); got != "weird" {
		t.Errorf("StatusLabel = %q", got)
	}
}
