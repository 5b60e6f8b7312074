// Package scenario provides the JSON-file-backed scenario repository.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dialcoach/dialcoach/internal/domain"
	"github.com/dialcoach/dialcoach/internal/template"
)

// CompanySource supplies the tenant configuration used to resolve template
// tokens in scenario text.
type CompanySource interface {
	Load() (*domain.TenantConfig, error)
}

// Repository is a flat JSON-array CRUD store for training scenarios. Every
// mutation rewrites the whole file under the repository mutex.
type Repository struct {
	mu      sync.Mutex
	path    string
	company CompanySource
}

// NewRepository creates a repository backed by path. The seed scenarios are
// written on first use when the file is absent.
func NewRepository(path string, company CompanySource) *Repository {
	return &Repository{path: path, company: company}
}

// List returns all scenarios with situation and customerBackground resolved
// against the tenant's company context. The systemPrompt field is left
// unresolved; it is only needed at call-creation time.
func (r *Repository) List() ([]domain.Scenario, error) {
	r.mu.Lock()
	scenarios, err := r.loadLocked()
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	ctx, err := r.companyContext()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Scenario, len(scenarios))
	for i, s := range scenarios {
		out[i] = resolved(s, ctx)
	}
	return out, nil
}

// Get returns one scenario by ID with its templates resolved.
func (r *Repository) Get(id string) (*domain.Scenario, error) {
	r.mu.Lock()
	scenarios, err := r.loadLocked()
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	for _, s := range scenarios {
		if s.ID == id {
			ctx, err := r.companyContext()
			if err != nil {
				return nil, err
			}
			res := resolved(s, ctx)
			return &res, nil
		}
	}
	return nil, fmt.Errorf("scenario %s: %w", id, domain.ErrNotFound)
}

// Create validates and stores a new custom scenario. The ID is derived from
// the current epoch millis, which is not collision-proof under rapid
// concurrent creation.
func (r *Repository) Create(s domain.Scenario) (*domain.Scenario, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	scenarios, err := r.loadLocked()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s.ID = fmt.Sprintf("custom-%d", now.UnixMilli())
	s.IsCustom = true
	s.CreatedAt = now
	s.UpdatedAt = now

	scenarios = append(scenarios, s)
	if err := r.saveLocked(scenarios); err != nil {
		return nil, err
	}
	return &s, nil
}

// Update shallow-merges patch onto the stored scenario and stamps updatedAt.
// Patch keys use the scenario's JSON field names; id and timestamps cannot be
// patched.
func (r *Repository) Update(id string, patch map[string]any) (*domain.Scenario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	scenarios, err := r.loadLocked()
	if err != nil {
		return nil, err
	}

	for i, s := range scenarios {
		if s.ID != id {
			continue
		}
		merged, err := applyPatch(s, patch)
		if err != nil {
			return nil, err
		}
		merged.ID = s.ID
		merged.CreatedAt = s.CreatedAt
		merged.UpdatedAt = time.Now()
		scenarios[i] = *merged
		if err := r.saveLocked(scenarios); err != nil {
			return nil, err
		}
		return merged, nil
	}
	return nil, fmt.Errorf("scenario %s: %w", id, domain.ErrNotFound)
}

// Delete removes a scenario by ID.
func (r *Repository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	scenarios, err := r.loadLocked()
	if err != nil {
		return err
	}

	for i, s := range scenarios {
		if s.ID == id {
			scenarios = append(scenarios[:i], scenarios[i+1:]...)
			return r.saveLocked(scenarios)
		}
	}
	return fmt.Errorf("scenario %s: %w", id, domain.ErrNotFound)
}

func (r *Repository) companyContext() (map[string]any, error) {
	cfg, err := r.company.Load()
	if err != nil {
		return nil, fmt.Errorf("load company context: %w", err)
	}
	return template.Context("company", cfg.Company), nil
}

func resolved(s domain.Scenario, ctx map[string]any) domain.Scenario {
	s.Situation = template.Process(s.Situation, ctx)
	s.CustomerBackground = template.Process(s.CustomerBackground, ctx)
	return s
}

// applyPatch shallow-merges patch onto s through its JSON form, so a patch
// key replaces the whole field (persona included) rather than merging into it.
func applyPatch(s domain.Scenario, patch map[string]any) (*domain.Scenario, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode scenario: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	for k, v := range patch {
		m[k] = v
	}
	data, err = json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode patched scenario: %w", err)
	}
	var out domain.Scenario
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: patch does not fit scenario shape", domain.ErrValidation)
	}
	return &out, nil
}

func (r *Repository) loadLocked() ([]domain.Scenario, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		seeds := SeedScenarios()
		if err := r.saveLocked(seeds); err != nil {
			return nil, err
		}
		return seeds, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read scenarios file: %w", err)
	}

	var scenarios []domain.Scenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("parse scenarios file: %w", err)
	}
	return scenarios, nil
}

func (r *Repository) saveLocked(scenarios []domain.Scenario) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create scenarios directory: %w", err)
	}
	data, err := json.MarshalIndent(scenarios, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize scenarios: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write scenarios file: %w", err)
	}
	return nil
}
