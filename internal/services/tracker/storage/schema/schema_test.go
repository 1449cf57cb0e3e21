package schema

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultDeclaresTrackerTables(t *testing.T) {
	t.Parallel()

	doc, err := Default()
	if err != nil {
		t.Fatalf("default declarations: %v", err)
	}
	tables := doc.Tables()
	for table, want := range map[string]string{
		"players":         "Player",
		"game_templates":  "GameTemplate",
		"game_extensions": "GameExtension",
		"game_sessions":   "GameSession",
	} {
		if got := tables[table]; got != want {
			t.Fatalf("tables[%s] = %q, want %q", table, got, want)
		}
	}
	extension, ok := doc.Lookup("GameExtension")
	if !ok || len(extension.Fields) != 8 {
		t.Fatalf("GameExtension = %+v, %v", extension, ok)
	}
}

func TestParseTrimsAndRejectsDuplicates(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte("types:\n  - name: ' Widget '\n    table: widgets\n    fields: [' id ', '', name]\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	widget, ok := doc.Lookup("Widget")
	if !ok || len(widget.Fields) != 2 || widget.Fields[0] != "id" {
		t.Fatalf("widget = %+v", widget)
	}

	if _, err := Parse([]byte("types:\n  - name: A\n  - name: A\n")); err == nil {
		t.Fatal("expected duplicate error")
	}
	if _, err := Parse([]byte("types:\n  - table: a\n")); err == nil {
		t.Fatal("expected missing name error")
	}
	if _, err := Parse([]byte("types: [")); err == nil {
		t.Fatal("expected yaml error")
	}
}

func TestLoadReadsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "types.yaml")
	if err := os.WriteFile(path, []byte("types:\n  - name: Player\n    table: players\n    fields: [id]\n"), 0o600); err != nil {
		t.Fatalf("write declarations: %v", err)
	}
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(doc.Types) != 1 {
		t.Fatalf("types = %+v", doc.Types)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected missing file error")
	}
}
