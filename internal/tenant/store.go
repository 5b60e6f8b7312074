// Package tenant provides the JSON-file-backed tenant configuration store.
package tenant

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dialcoach/dialcoach/internal/domain"
)

// Store persists the single tenant-wide configuration record to a JSON file.
// All read-modify-write cycles hold the store mutex, so concurrent admin
// edits within this process cannot clobber each other.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store backed by path. The parent directory is created
// on first save/load.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the configuration file, deep-merging it onto the hard-coded
// defaults so newly added default fields appear even in old saved configs.
// If the file does not exist, the defaults are persisted and returned.
func (s *Store) Load() (*domain.TenantConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() (*domain.TenantConfig, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		cfg := DefaultConfig()
		if !s.saveLocked(cfg) {
			return nil, fmt.Errorf("persist default config to %s", s.path)
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var saved map[string]any
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	merged := deepMerge(toMap(DefaultConfig()), saved)
	cfg, err := fromMap(merged)
	if err != nil {
		return nil, fmt.Errorf("decode merged config: %w", err)
	}
	return cfg, nil
}

// Save serializes cfg and overwrites the backing file. It returns false and
// logs on any I/O error rather than propagating it; callers check the bool.
func (s *Store) Save(cfg *domain.TenantConfig) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(cfg)
}

func (s *Store) saveLocked(cfg *domain.TenantConfig) bool {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		slog.Error("Failed to create config directory", "path", s.path, "error", err)
		return false
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		slog.Error("Failed to serialize config", "error", err)
		return false
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		slog.Error("Failed to write config file", "path", s.path, "error", err)
		return false
	}
	return true
}

// Update applies fn to the current configuration and persists the result,
// all under the store mutex.
func (s *Store) Update(fn func(cfg *domain.TenantConfig)) (*domain.TenantConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	fn(cfg)
	if !s.saveLocked(cfg) {
		return nil, fmt.Errorf("persist config to %s", s.path)
	}
	return cfg, nil
}

// Merge deep-merges a partial config (as decoded JSON) onto the stored one
// and persists the result. Used by the admin update-config endpoint.
func (s *Store) Merge(partial map[string]any) (*domain.TenantConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	merged, err := fromMap(deepMerge(toMap(cfg), partial))
	if err != nil {
		return nil, fmt.Errorf("decode merged config: %w", err)
	}
	if !s.saveLocked(merged) {
		return nil, fmt.Errorf("persist config to %s", s.path)
	}
	return merged, nil
}

// ApplyCompanyData replaces the company profile with scraped company data and
// persists. Intelligence extracted during scraping is folded in as well.
func (s *Store) ApplyCompanyData(company domain.CompanyProfile, intelligence map[string]any) (*domain.TenantConfig, error) {
	return s.Update(func(cfg *domain.TenantConfig) {
		cfg.Company = company
		foldIntelligence(cfg, intelligence)
	})
}

// MergeIntelligence accumulates facts mined from a transcript or website into
// extractedIntelligence without touching the rest of the config.
func (s *Store) MergeIntelligence(facts map[string]any) (*domain.TenantConfig, error) {
	return s.Update(func(cfg *domain.TenantConfig) {
		foldIntelligence(cfg, facts)
	})
}

func foldIntelligence(cfg *domain.TenantConfig, facts map[string]any) {
	if len(facts) == 0 {
		return
	}
	if cfg.ExtractedIntelligence == nil {
		cfg.ExtractedIntelligence = make(map[string]any)
	}
	cfg.ExtractedIntelligence = deepMerge(cfg.ExtractedIntelligence, facts)
}

// deepMerge merges src onto dst recursively. Values from src win on key
// conflicts at every nesting level; arrays are atomic, not merged element-wise.
func deepMerge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := out[k].(map[string]any)
		if srcIsMap && dstIsMap {
			out[k] = deepMerge(dstMap, srcMap)
			continue
		}
		out[k] = v
	}
	return out
}

func toMap(cfg *domain.TenantConfig) map[string]any {
	data, err := json.Marshal(cfg)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{}
	}
	return m
}

func fromMap(m map[string]any) (*domain.TenantConfig, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var cfg domain.TenantConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
