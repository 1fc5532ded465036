package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	valid bool
}

func (s *sample) Validate() error {
	if s.Port == 0 {
		return errors.New("port required")
	}
	s.valid = true
	return nil
}

func TestParseExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "lectern")
	s := &sample{Port: 1}
	if err := Parse([]byte("name: ${SAMPLE_NAME}\n"), s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "lectern" || s.Port != 1 || !s.valid {
		t.Errorf("sample = %+v", s)
	}
}

func TestParseRunsValidator(t *testing.T) {
	err := Parse([]byte("name: x\n"), &sample{})
	if err == nil || !strings.Contains(err.Error(), "port required") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadOptionalMissingFile(t *testing.T) {
	s := &sample{Port: 8080}
	if err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), s); err != nil {
		t.Fatal(err)
	}
	if !s.valid {
		t.Error("defaults not validated")
	}
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), s); err == nil {
		t.Error("Load should fail for a missing file")
	}
}

func TestLoadOptionalReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("port: 9000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := &sample{}
	if err := LoadOptional(path, s); err != nil {
		t.Fatal(err)
	}
	if s.Port != 9000 {
		t.Errorf("port = %d", s.Port)
	}
}
