package extract

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// TestStreamFromDir verifies directory mode emits one JSON array across all
// files, in filename order, tagging each object with its source file.
func TestStreamFromDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("b.html", `<h1>Second</h1>`)
	write("a.html", `<h1>First</h1>`)
	write("broken.bin", "\x00\x01") // parses as HTML with no matches; must not break the stream

	s := &Schema{Fields: []Field{{Selector: "h1", Type: "text", Name: "title"}}}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := StreamFromDir(&buf, dir, s, enc); err != nil {
		t.Fatalf("StreamFromDir: %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not a json array: %v; out=%s", err, buf.String())
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 objects, got %#v", got)
	}
	if got[0]["title"] != "First" || got[0]["source_file"] != "a.html" {
		t.Fatalf("unexpected first object: %#v", got[0])
	}
	if got[1]["title"] != "Second" || got[1]["source_file"] != "b.html" {
		t.Fatalf("unexpected second object: %#v", got[1])
	}
}

// TestStreamFromDir_RecordMode verifies one file can emit multiple records.
func TestStreamFromDir_RecordMode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	body := `<div class="rec"><span>A</span></div><div class="rec"><span>B</span></div>`
	if err := os.WriteFile(filepath.Join(dir, "page.html"), []byte(body), 0o600); err != nil {
		t.Fatalf("write page: %v", err)
	}

	s := &Schema{
		BaseSelector: ".rec",
		Fields:       []Field{{Selector: "span", Type: "text", Name: "v"}},
	}

	var buf bytes.Buffer
	if err := StreamFromDir(&buf, dir, s, json.NewEncoder(&buf)); err != nil {
		t.Fatalf("StreamFromDir: %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not a json array: %v; out=%s", err, buf.String())
	}
	if len(got) != 2 || got[0]["v"] != "A" || got[1]["v"] != "B" {
		t.Fatalf("unexpected records: %#v", got)
	}
}

// TestStreamFromDir_MissingDir verifies the error path for an unreadable
// directory.
func TestStreamFromDir_MissingDir(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := &Schema{Fields: []Field{{Selector: "h1", Name: "title"}}}
	if err := StreamFromDir(&buf, filepath.Join(t.TempDir(), "nope"), s, json.NewEncoder(&buf)); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
