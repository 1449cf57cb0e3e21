package catalog

import (
	"testing"
	"testing/fstest"
)

func TestLoadEmbeddedHasExpectedLocales(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	if !bundle.HasLocale(BaseLocale) {
		t.Fatalf("expected base locale %s", BaseLocale)
	}
	if !bundle.HasLocale("pt-BR") {
		t.Fatalf("expected locale pt-BR")
	}
	base := bundle.NamespaceMessages(BaseLocale, "dashboard")
	if len(base) == 0 {
		t.Fatal("expected en-US dashboard messages")
	}
	for _, locale := range bundle.Locales() {
		messages := bundle.NamespaceMessages(locale, "dashboard")
		for key := range base {
			if _, ok := messages[key]; !ok {
				t.Fatalf("locale %s missing %q", locale, key)
			}
		}
	}
}

func TestLocalesListsBaseFirst(t *testing.T) {
	t.Parallel()

	locales := Default().Locales()
	if len(locales) < 2 || locales[0] != BaseLocale {
		t.Fatalf("locales = %v, want %s first", locales, BaseLocale)
	}
}

func TestLoadFromFSRejectsInvalidFiles(t *testing.T) {
	t.Parallel()

	base := &fstest.MapFile{Data: []byte("locale: \"en-US\"\nnamespace: \"dashboard\"\nmessages:\n  \"dashboard.title\": \"playlog\"\n")}
	tests := []struct {
		name  string
		files fstest.MapFS
	}{
		{name: "empty", files: fstest.MapFS{}},
		{name: "missing base", files: fstest.MapFS{
			"locales/pt-BR/dashboard.yaml": {Data: []byte("locale: \"pt-BR\"\nnamespace: \"dashboard\"\nmessages:\n  \"dashboard.title\": \"x\"\n")},
		}},
		{name: "locale mismatch", files: fstest.MapFS{
			"locales/en-US/dashboard.yaml": base,
			"locales/pt-BR/dashboard.yaml": {Data: []byte("locale: \"en-US\"\nnamespace: \"dashboard\"\nmessages:\n  \"dashboard.title\": \"x\"\n")},
		}},
		{name: "namespace mismatch", files: fstest.MapFS{
			"locales/en-US/web.yaml": base,
		}},
		{name: "key outside namespace", files: fstest.MapFS{
			"locales/en-US/dashboard.yaml": {Data: []byte("locale: \"en-US\"\nnamespace: \"dashboard\"\nmessages:\n  \"web.title\": \"x\"\n")},
		}},
		{name: "no messages", files: fstest.MapFS{
			"locales/en-US/dashboard.yaml": {Data: []byte("locale: \"en-US\"\nnamespace: \"dashboard\"\n")},
		}},
		{name: "malformed yaml", files: fstest.MapFS{
			"locales/en-US/dashboard.yaml": {Data: []byte("locale: [\n")},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := LoadFromFS(tt.files); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{header: "", want: BaseLocale, ok: false},
		{header: "pt-BR,pt;q=0.9,en;q=0.8", want: "pt-BR", ok: true},
		{header: "en-GB", want: BaseLocale, ok: true},
		{header: "ja", want: BaseLocale, ok: false},
	}
	for _, tt := range tests {
		got, ok := Default().Match(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("Match(%q) = %q, %v, want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMessageFallsBackToBaseLocale(t *testing.T) {
	t.Parallel()

	bundle, err := LoadFromFS(fstest.MapFS{
		"locales/en-US/dashboard.yaml": {Data: []byte("locale: \"en-US\"\nnamespace: \"dashboard\"\nmessages:\n  \"dashboard.title\": \"playlog\"\n  \"dashboard.games\": \"Games\"\n")},
		"locales/pt-BR/dashboard.yaml": {Data: []byte("locale: \"pt-BR\"\nnamespace: \"dashboard\"\nmessages:\n  \"dashboard.games\": \"Jogos\"\n")},
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := bundle.Text("pt-BR", "dashboard.games"); got != "Jogos" {
		t.Fatalf("games = %q, want %q", got, "Jogos")
	}
	if got := bundle.Text("pt-BR", "dashboard.title"); got != "playlog" {
		t.Fatalf("title = %q, want %q", got, "playlog")
	}
	if got := bundle.Text("pt-BR", "dashboard.missing"); got != "dashboard.missing" {
		t.Fatalf("missing = %q, want key", got)
	}
}
