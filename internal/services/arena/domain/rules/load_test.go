package rules

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedRulesMatchDefault(t *testing.T) {
	table, err := LoadYAML(bytes.NewReader(DefaultYAML()))
	if err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}
	want := Default()
	for _, ct := range AllTypes {
		got, _ := table.Profile(ct)
		wantProfile, _ := want.Profile(ct)
		if got != wantProfile {
			t.Fatalf("embedded %s = %+v, want %+v", ct, got, wantProfile)
		}
	}
}

func TestLoadYAMLRejectsUnknownFields(t *testing.T) {
	doc := strings.Replace(string(DefaultYAML()), "    attack: 20\n    weakness: water", "    attack: 20\n    speed: 3\n    weakness: water", 1)
	if _, err := LoadYAML(strings.NewReader(doc)); err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestLoadYAMLRejectsEmptyDocument(t *testing.T) {
	if _, err := LoadYAML(strings.NewReader("")); err == nil {
		t.Fatal("expected empty document error")
	}
}

func TestLoadYAMLValidates(t *testing.T) {
	doc := "creatures:\n  fire:\n    hp: 100\n    attack: 20\n"
	_, err := LoadYAML(strings.NewReader(doc))
	if err == nil || !strings.Contains(err.Error(), "missing profile") {
		t.Fatalf("err = %v, want missing profile", err)
	}
}

func TestLoadFile(t *testing.T) {
	t.Run("empty path uses default", func(t *testing.T) {
		table, err := LoadFile("")
		if err != nil {
			t.Fatalf("LoadFile: %v", err)
		}
		if p, _ := table.Profile(Fire); p.Strength != Earth {
			t.Fatalf("fire strength = %s, want earth", p.Strength)
		}
	})

	t.Run("custom file", func(t *testing.T) {
		doc := strings.ReplaceAll(string(DefaultYAML()), "attack: 20", "attack: 30")
		path := filepath.Join(t.TempDir(), "rules.yaml")
		if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
			t.Fatalf("write rules: %v", err)
		}
		table, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile: %v", err)
		}
		if p, _ := table.Profile(Air); p.Attack != 30 {
			t.Fatalf("air attack = %d, want 30", p.Attack)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Fatal("expected open error")
		}
	})
}
