package models

import (
	"strings"

	"github.com/rhinontech/rhinontech-platform-sub002/pkg/errors"
)

// EntityType is the closed set of record kinds a pipeline can track
type EntityType string

const (
	EntityPeople    EntityType = "people"
	EntityCompany   EntityType = "company"
	EntityDeal      EntityType = "deal"
	EntityCustomers EntityType = "default_customers"
)

// AllEntityTypes lists every EntityType in a stable order
var AllEntityTypes = []EntityType{EntityPeople, EntityCompany, EntityDeal, EntityCustomers}

// Valid reports whether t is one of the known entity types
func (t EntityType) Valid() bool {
	switch t {
	case EntityPeople, EntityCompany, EntityDeal, EntityCustomers:
		return true
	}
	return false
}

func (t EntityType) String() string {
	return string(t)
}

// ParseEntityType converts a caller supplied string into an EntityType.
// Plural route forms ("companies", "deals", "customers") are accepted.
func ParseEntityType(s string) (EntityType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "people", "person":
		return EntityPeople, nil
	case "company", "companies":
		return EntityCompany, nil
	case "deal", "deals":
		return EntityDeal, nil
	case "default_customers", "customers", "customer":
		return EntityCustomers, nil
	}
	return "", errors.NewValidationError("entity_type", "unknown entity type '"+s+"'")
}
