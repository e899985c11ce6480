package services

import (
	"context"

	"github.com/riserecover/server/models"
	"github.com/riserecover/server/store"
	"github.com/riserecover/server/utils"
)

// ResourceService reads and replaces the admin-editable resource configuration.
type ResourceService struct {
	store *store.Store
}

// NewResourceService creates a ResourceService.
func NewResourceService(s *store.Store) *ResourceService {
	return &ResourceService{store: s}
}

// Get returns the current configuration.
func (s *ResourceService) Get(ctx context.Context) (models.ResourceConfig, error) {
	return s.store.Config(ctx)
}

// Save replaces the whole configuration. Entries left without a name after stripping
// markup are dropped.
func (s *ResourceService) Save(ctx context.Context, c models.ResourceConfig) (models.ResourceConfig, error) {
	clean := models.ResourceConfig{
		EmergencyContacts: []models.EmergencyContact{},
		HerbalRemedies:    []models.Remedy{},
	}
	for _, ec := range c.EmergencyContacts {
		ec.Name, ec.Number = utils.StripTags(ec.Name), utils.StripTags(ec.Number)
		if ec.Name != "" {
			clean.EmergencyContacts = append(clean.EmergencyContacts, ec)
		}
	}
	for _, r := range c.HerbalRemedies {
		r.Name, r.Description = utils.StripTags(r.Name), utils.StripTags(r.Description)
		if r.Name != "" {
			clean.HerbalRemedies = append(clean.HerbalRemedies, r)
		}
	}
	if err := s.store.SaveConfig(ctx, clean); err != nil {
		return models.ResourceConfig{}, err
	}
	return clean, nil
}
