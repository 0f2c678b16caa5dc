package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := s.Get()
	if got.ModelProvider != DefaultModelProvider || got.IsRag {
		t.Fatalf("unexpected defaults: %+v", got)
	}
	// Load no crea el archivo hasta el primer cambio.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected settings file not created on load")
	}
}

func TestStore_PersistsChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetModelProvider("gpt-4o"); err != nil {
		t.Fatalf("set model: %v", err)
	}
	if err := s.SetIsRag(true); err != nil {
		t.Fatalf("set rag: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := reloaded.Get()
	if got.ModelProvider != "gpt-4o" || !got.IsRag {
		t.Fatalf("expected persisted settings, got %+v", got)
	}
}

func TestStore_EmptyProviderFallsBackToDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetModelProvider(""); err != nil {
		t.Fatalf("set model: %v", err)
	}
	if got := s.Get().ModelProvider; got != DefaultModelProvider {
		t.Fatalf("expected default provider, got %q", got)
	}
}

func TestLoad_CorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for corrupt settings file")
	}
}
