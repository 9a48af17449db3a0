package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinCatalog(t *testing.T) {
	c := Builtin()
	list := c.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 builtin profiles, got %d", len(list))
	}
	if list[0].ID != "smart_shy" || list[0].Name != "Athena" {
		t.Fatalf("unexpected first profile: %#v", list[0])
	}
	for _, p := range list {
		if p.Temperature <= 0 || p.MaxTokens <= 0 {
			t.Fatalf("profile %s missing style defaults: %#v", p.ID, p)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Builtin().Lookup("nope")
	if !errors.Is(err, ErrUnknownProfile) {
		t.Fatalf("expected ErrUnknownProfile, got %v", err)
	}
}

func TestNewCatalogValidation(t *testing.T) {
	cases := []struct {
		name     string
		profiles []Profile
	}{
		{"empty", nil},
		{"blank id", []Profile{{ID: " ", Name: "A", System: "s"}}},
		{"blank system", []Profile{{ID: "a", Name: "A", System: " "}}},
		{"duplicate id", []Profile{
			{ID: "a", Name: "A", System: "s"},
			{ID: "a", Name: "B", System: "s"},
		}},
		{"temperature out of range", []Profile{{ID: "a", Name: "A", System: "s", Temperature: 3}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewCatalog(tc.profiles); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestNewCatalogDefaultsStyle(t *testing.T) {
	c, err := NewCatalog([]Profile{{ID: "a", Name: "A", System: "s", Temperature: 0.4}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, err := c.Lookup("a")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if p.TopP != 1 || p.MaxTokens != 300 {
		t.Fatalf("style defaults not applied: %#v", p)
	}
}

func TestDefaultFallsBackToFirst(t *testing.T) {
	c := Builtin()
	if got := c.Default("missing"); got.ID != "smart_shy" {
		t.Fatalf("unexpected fallback profile: %s", got.ID)
	}
	if got := c.Default("rude_arrogant"); got.ID != "rude_arrogant" {
		t.Fatalf("unexpected preferred profile: %s", got.ID)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.json")
	payload := `[{"id":"calm","name":"Calm","system":"You are calm.","temperature":0.3,"top_p":0.9,"max_tokens":200}]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	c, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !c.Has("calm") {
		t.Fatal("loaded catalog missing profile")
	}

	if _, err := LoadFromFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("expected read error")
	}
}
