package services

import (
	"context"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/models"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/ports"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/errors"
)

// EntitySources dispatches reads to the source table of each entity type
type EntitySources map[models.EntityType]ports.EntitySource

// NewEntitySources indexes sources by the type they serve
func NewEntitySources(sources ...ports.EntitySource) EntitySources {
	out := make(EntitySources, len(sources))
	for _, s := range sources {
		out[s.Type()] = s
	}
	return out
}

// Exists reports whether the record is present in its source table
func (s EntitySources) Exists(ctx context.Context, orgID string, t models.EntityType, id string) (bool, error) {
	src, ok := s[t]
	if !ok {
		return false, errors.NewValidationError("entity_type", "unsupported entity type '"+string(t)+"'")
	}
	e, err := src.FindByID(ctx, orgID, id)
	if err != nil {
		return false, err
	}
	return e != nil, nil
}

// IDs returns the set of live record ids of one type
func (s EntitySources) IDs(ctx context.Context, orgID string, t models.EntityType) (map[string]bool, error) {
	src, ok := s[t]
	if !ok {
		return nil, errors.NewValidationError("entity_type", "unsupported entity type '"+string(t)+"'")
	}
	all, err := src.FindAll(ctx, orgID)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(all))
	for _, e := range all {
		ids[e.EntityID()] = true
	}
	return ids, nil
}
