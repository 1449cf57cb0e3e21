package i18n

import "testing"

func TestGetCatalogFallback(t *testing.T) {
	base := GetCatalog("en-US")
	if base == nil {
		t.Fatal("expected base catalog")
	}
	if fallback := GetCatalog("missing-locale"); fallback != base {
		t.Fatal("expected fallback to en-US catalog")
	}
	if empty := GetCatalog(""); empty != base {
		t.Fatal("expected empty locale to use en-US catalog")
	}
}

func TestGetCatalogLanguageFallback(t *testing.T) {
	custom := NewCatalog("pt", map[Code]string{CodeNotFound: "Não encontrado"})
	RegisterCatalog(custom)
	if got := GetCatalog("pt-BR"); got != custom {
		t.Fatal("expected language catalog for regional locale")
	}
	if got := GetCatalog("pt-br"); got != custom {
		t.Fatal("expected lowercase region to resolve like pt-BR")
	}
	if got := custom.Format(CodeNotFound, nil); got != "Não encontrado" {
		t.Fatalf("message = %q, want %q", got, "Não encontrado")
	}
	if got := custom.Format(CodeAlreadyExists, nil); got != "Already exists" {
		t.Fatalf("missing code = %q, want base locale message", got)
	}
}

func TestRegisterCatalogIgnoresNil(t *testing.T) {
	base := GetCatalog(BaseLocale)
	RegisterCatalog(nil)
	if GetCatalog(BaseLocale) != base {
		t.Fatal("expected base catalog unchanged")
	}
}

func TestFormatFallbacks(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "hello {{.Name}}",
	})

	if cat.Format("unknown", nil) != "unknown" {
		t.Fatal("expected code fallback when template missing")
	}
	if cat.Format("code", nil) != "hello <no value>" {
		t.Fatal("expected template to render missing metadata")
	}
}

func TestFormatTemplateErrorFallback(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "{{ if .Name }}",
	})
	if cat.Format("code", map[string]string{"Name": "X"}) != "{{ if .Name }}" {
		t.Fatal("expected template fallback on parse error")
	}
}

func TestFormatBaseMessages(t *testing.T) {
	got := GetCatalog(BaseLocale).Format(CodeSessionPlayerCount, map[string]string{
		"Game": "Root", "Min": "2", "Max": "4", "Count": "6",
	})
	if got != "Root is played by 2 to 4 players, got 6" {
		t.Fatalf("message = %q", got)
	}
}
