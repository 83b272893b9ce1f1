package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func (s *sample) Validate() error {
	if s.Count < 0 {
		return errors.New("count must not be negative")
	}
	return nil
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "wiki")
	path := filepath.Join(t.TempDir(), "c.yaml")
	_ = os.WriteFile(path, []byte("name: ${SAMPLE_NAME}\ncount: 3\n"), 0o644)

	var s sample
	if err := Load(path, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "wiki" || s.Count != 3 {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_Validates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	_ = os.WriteFile(path, []byte("count: -1\n"), 0o644)
	var s sample
	if err := Load(path, &s); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadIfExists_Missing(t *testing.T) {
	s := sample{Name: "default"}
	found, err := LoadIfExists(filepath.Join(t.TempDir(), "none.yaml"), &s)
	if err != nil {
		t.Fatalf("LoadIfExists: %v", err)
	}
	if found || s.Name != "default" {
		t.Errorf("found=%v s=%+v", found, s)
	}

	s.Count = -5
	if _, err := LoadIfExists(filepath.Join(t.TempDir(), "none.yaml"), &s); err == nil {
		t.Error("missing file must still validate the defaults")
	}
}
