package tenant

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dialcoach/dialcoach/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "config.json"))
}

func TestLoad_EmptyDirCreatesDefaults(t *testing.T) {
	s := newTestStore(t)

	cfg, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Company.Name == "" {
		t.Error("Expected default company name")
	}
	if cfg.Settings.CallTimeoutSec == 0 {
		t.Error("Expected default call timeout")
	}
	if _, err := os.Stat(s.path); err != nil {
		t.Errorf("Expected config file to be created: %v", err)
	}
}

func TestSaveThenLoad_MergesOntoDefaults(t *testing.T) {
	s := newTestStore(t)

	// Simulate an old saved config that only knows about the company name.
	sparse := []byte(`{"company":{"name":"X"}}`)
	if err := os.WriteFile(s.path, sparse, 0o644); err != nil {
		t.Fatalf("Write sparse config: %v", err)
	}

	cfg, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Company.Name != "X" {
		t.Errorf("Expected saved name X to win, got %q", cfg.Company.Name)
	}
	if cfg.Settings.CallTimeoutSec != DefaultConfig().Settings.CallTimeoutSec {
		t.Errorf("Expected untouched default callTimeout to survive, got %d", cfg.Settings.CallTimeoutSec)
	}
	if cfg.Company.Phone != DefaultConfig().Company.Phone {
		t.Errorf("Expected default phone to survive, got %q", cfg.Company.Phone)
	}
}

func TestSave_ReturnsFalseOnUnwritablePath(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "dir-as-file"))
	if err := os.MkdirAll(s.path, 0o755); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	if ok := s.Save(DefaultConfig()); ok {
		t.Error("Expected Save to report failure when path is a directory")
	}
}

func TestMerge_ArraysAreAtomic(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	var partial map[string]any
	if err := json.Unmarshal([]byte(`{"company":{"services":["Only one"]}}`), &partial); err != nil {
		t.Fatalf("Unmarshal partial: %v", err)
	}

	cfg, err := s.Merge(partial)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if len(cfg.Company.Services) != 1 || cfg.Company.Services[0] != "Only one" {
		t.Errorf("Expected array replaced atomically, got %v", cfg.Company.Services)
	}
	if cfg.Company.Name != DefaultConfig().Company.Name {
		t.Errorf("Expected sibling keys untouched, got %q", cfg.Company.Name)
	}
}

func TestMergeIntelligence_Accumulates(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.MergeIntelligence(map[string]any{"competitors": []any{"Acme"}}); err != nil {
		t.Fatalf("MergeIntelligence failed: %v", err)
	}
	cfg, err := s.MergeIntelligence(map[string]any{"tone": "friendly"})
	if err != nil {
		t.Fatalf("MergeIntelligence failed: %v", err)
	}

	if cfg.ExtractedIntelligence["tone"] != "friendly" {
		t.Errorf("Expected tone fact, got %v", cfg.ExtractedIntelligence)
	}
	if _, ok := cfg.ExtractedIntelligence["competitors"]; !ok {
		t.Errorf("Expected earlier facts to survive, got %v", cfg.ExtractedIntelligence)
	}
}

func TestApplyCompanyData_ReplacesProfile(t *testing.T) {
	s := newTestStore(t)

	cfg, err := s.ApplyCompanyData(domain.CompanyProfile{Name: "Scraped Co"}, map[string]any{"source": "website"})
	if err != nil {
		t.Fatalf("ApplyCompanyData failed: %v", err)
	}
	if cfg.Company.Name != "Scraped Co" {
		t.Errorf("Expected company replaced, got %q", cfg.Company.Name)
	}
	if cfg.ExtractedIntelligence["source"] != "website" {
		t.Errorf("Expected intelligence folded in, got %v", cfg.ExtractedIntelligence)
	}

	// The replacement must survive a fresh load.
	reloaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if reloaded.Company.Name != "Scraped Co" {
		t.Errorf("Expected persisted company, got %q", reloaded.Company.Name)
	}
}
