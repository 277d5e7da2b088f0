package textutil

import (
	"reflect"
	"testing"
)

func TestNormalize_StripsDiacriticsAndCase(t *testing.T) {
	cases := map[string]string{
		"Satisfação":            "satisfacao",
		"  MUNÍCIPES  ":         "municipes",
		"análise de satisfação": "analise de satisfacao",
		"João da Silva":         "joao da silva",
		"plain ascii":           "plain ascii",
	}

	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("  Mostrar   análise  de Satisfação ")
	want := []string{"mostrar", "analise", "de", "satisfacao"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens() = %v, want %v", got, want)
	}
}

func TestIsNameLike(t *testing.T) {
	if IsNameLike("a") {
		t.Error("single rune should not be name-like")
	}
	if IsNameLike("42") {
		t.Error("digits only should not be name-like")
	}
	if !IsNameLike("jo") {
		t.Error("two letters should be name-like")
	}
	if !IsNameLike("silva2") {
		t.Error("letters with digits should be name-like")
	}
}

func TestNormalizeYesNo(t *testing.T) {
	cases := map[string]string{
		"Sim": "yes", "SIM": "yes", "não": "no", "nao": "no",
		"yes": "yes", "no": "no", "s": "yes", "N": "no",
		"true": "yes", "0": "no", "": "", "talvez": "",
	}

	for in, want := range cases {
		if got := NormalizeYesNo(in); got != want {
			t.Errorf("NormalizeYesNo(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContainsAny(t *testing.T) {
	normalized := Normalize("Quantos munícipes responderam?")
	if !ContainsAny(normalized, []string{"quantos", "total de"}) {
		t.Error("expected match on 'quantos'")
	}
	if ContainsAny(normalized, []string{"pizza"}) {
		t.Error("unexpected match on 'pizza'")
	}
}
