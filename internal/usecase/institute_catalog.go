package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/timertimertimer/kfudao/internal/domain/models"
)

// InstituteCatalog caches institute names and faculties
type InstituteCatalog struct {
	repo InstituteRepository
	log  *slog.Logger

	mu        sync.Mutex
	names     map[string]string
	loaded    bool
	faculties map[string][]string
}

// NewInstituteCatalog creates an empty catalog
func NewInstituteCatalog(repo InstituteRepository, log *slog.Logger) *InstituteCatalog {
	return &InstituteCatalog{
		repo:      repo,
		log:       log.With("component", "InstituteCatalog"),
		faculties: make(map[string][]string),
	}
}

// Load fetches institute names once
func (c *InstituteCatalog) Load(ctx context.Context) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		names, err := c.repo.ListInstitutes(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load institutes: %w", err)
		}
		c.names = names
		c.loaded = true
	}
	return maps.Clone(c.names), nil
}

// Institutes returns the loaded names, empty before Load
func (c *InstituteCatalog) Institutes() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.names == nil {
		return map[string]string{}
	}
	return maps.Clone(c.names)
}

// Abbreviations returns the loaded abbreviations sorted
func (c *InstituteCatalog) Abbreviations() []string {
	return slices.Sorted(maps.Keys(c.Institutes()))
}

// Faculties fetches the faculties of one institute on first use
func (c *InstituteCatalog) Faculties(ctx context.Context, abbreviation string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if faculties, ok := c.faculties[abbreviation]; ok {
		return slices.Clone(faculties), nil
	}

	faculties, err := c.repo.GetFaculties(ctx, abbreviation)
	if err != nil {
		return nil, fmt.Errorf("failed to load faculties for %s: %w", abbreviation, err)
	}
	c.faculties[abbreviation] = faculties
	return slices.Clone(faculties), nil
}

// Seed writes institutes to the document database and drops the cache
func (c *InstituteCatalog) Seed(ctx context.Context, institutes []models.Institute) (int, error) {
	written := 0
	for i := range institutes {
		inst := institutes[i]
		if inst.Abbreviation == "" {
			return written, fmt.Errorf("institute %q has no abbreviation", inst.Name)
		}
		if err := c.repo.SaveInstitute(ctx, &inst); err != nil {
			return written, fmt.Errorf("failed to save institute %s: %w", inst.Abbreviation, err)
		}
		written++
	}

	c.mu.Lock()
	c.names = nil
	c.loaded = false
	c.faculties = make(map[string][]string)
	c.mu.Unlock()

	c.log.Info("institutes seeded", "count", written)
	return written, nil
}
