package dictionary

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/japaniel/wordlens/pkg/vocab"
)

func sample() vocab.Vocab {
	return vocab.Vocab{
		"apple":      {Translation: "苹果", PartOfSpeech: "noun", Count: 3, AddedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		"well-known": {Translation: "著名的", Count: 0, AddedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func TestExportLoadRoundTrip(t *testing.T) {
	for _, format := range []string{FormatJSON, FormatYAML, FormatTOML} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Export(&buf, sample(), format); err != nil {
				t.Fatalf("Export failed: %v", err)
			}
			got, err := Load(&buf, format)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			want := sample()
			if len(got) != len(want) {
				t.Fatalf("expected %d words, got %d", len(want), len(got))
			}
			for w, e := range want {
				g := got[w]
				if g.Translation != e.Translation || g.PartOfSpeech != e.PartOfSpeech || g.Count != e.Count || !g.AddedAt.Equal(e.AddedAt) {
					t.Errorf("%s: got %+v, want %+v", w, g, e)
				}
			}
		})
	}
}

func TestExportJSONLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, sample(), FormatJSON); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`"words"`, `"translation": "苹果"`, `"pos": "noun"`, `"count": 3`} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %s:\n%s", want, out)
		}
	}
}

func TestLoadBareMappingAndInvalidKeys(t *testing.T) {
	in := `{"Apple": {"translation": "苹果", "count": 2}, "not a word": {"translation": "x"}, "pear": {"translation": "梨", "count": -4}}`
	got, err := Load(strings.NewReader(in), FormatJSON)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 words, got %v", got)
	}
	if got["apple"].Count != 2 {
		t.Errorf("keys should be lowercased, got %+v", got)
	}
	if got["pear"].Count != 0 {
		t.Errorf("negative counts should reset to 0, got %d", got["pear"].Count)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(strings.NewReader("{not json"), FormatJSON); err == nil {
		t.Error("expected error for malformed json")
	}
	if _, err := Load(strings.NewReader("{}"), "toml"); err == nil {
		t.Error("expected error for unknown format")
	}
	if err := Export(&bytes.Buffer{}, sample(), "toml"); err == nil {
		t.Error("expected export error for unknown format")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "words.yml")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := Export(f, sample(), FormatFromPath(path)); err != nil {
		t.Fatal(err)
	}
	f.Close()

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if got["apple"].Translation != "苹果" {
		t.Errorf("unexpected entry %+v", got["apple"])
	}
	if FormatFromPath("x.json") != FormatJSON || FormatFromPath("x.YAML") != FormatYAML || FormatFromPath("x.toml") != FormatTOML {
		t.Error("FormatFromPath mismatch")
	}
}

func TestLoadBareTOML(t *testing.T) {
	in := `[apple]
translation = "苹果"
pos = "noun"
count = 2

["Not A Word"]
translation = "x"
`
	got, err := Load(strings.NewReader(in), FormatTOML)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 1 || got["apple"].Count != 2 || got["apple"].PartOfSpeech != "noun" {
		t.Errorf("unexpected result %+v", got)
	}
}
