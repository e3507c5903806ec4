package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("type_mismatch", nil); msg == "type_mismatch" || msg == "" {
		t.Fatalf("expected a human message, got %q", msg)
	}

	SetLanguage("ja")
	if msg := T("type_mismatch", nil); msg == "type mismatch" {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

func TestTranslator_UnknownCodeEchoes(t *testing.T) {
	if msg := T("no_such_code", nil); msg != "no_such_code" {
		t.Fatalf("unknown codes echo the code itself, got %q", msg)
	}
}

type prefixTranslator struct{}

func (prefixTranslator) Message(code string, data map[string]string) string {
	return "custom:" + code
}

func TestTranslator_SetTranslator(t *testing.T) {
	SetTranslator(prefixTranslator{})
	if msg := T("missing_field", nil); msg != "custom:missing_field" {
		t.Fatalf("custom translator not applied, got %q", msg)
	}

	// nil restores the built-in english dictionary
	SetTranslator(nil)
	if msg := T("missing_field", nil); msg != "required field missing" {
		t.Fatalf("expected the built-in message back, got %q", msg)
	}
}
