package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rhinontech/rhinontech-platform-sub002/pkg/utils"
)

// Pipeline is a named, ordered set of stages tracking one entity type.
// Stages are persisted as a single JSON document on the pipeline row.
type Pipeline struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	ViewID         string     `json:"view_id"`
	Name           string     `json:"name"`
	ManageType     EntityType `json:"manage_type"`
	Stages         []Stage    `json:"stages"`
	// StageSeq is the highest stage id ever allocated in this pipeline
	StageSeq  int       `json:"-"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stage is one Kanban column
type Stage struct {
	ID       int         `json:"id"`
	Name     string      `json:"name"`
	Color    string      `json:"color"`
	Order    int         `json:"order"`
	Entities []EntityRef `json:"entities"`
}

// EntityRef places one business record inside a stage
type EntityRef struct {
	EntityID   string     `json:"entity_id"`
	EntityType EntityType `json:"entity_type"`
	Sort       int        `json:"sort"`
}

// Matches reports whether the ref points at (entityType, entityID)
func (r EntityRef) Matches(entityType EntityType, entityID string) bool {
	return r.EntityType == entityType && r.EntityID == entityID
}

// StageInput is a caller supplied stage definition. ID is nil for new stages.
type StageInput struct {
	ID    *int   `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Order int    `json:"order"`
}

// Stored documents may predate strict typing: ids, orders and sorts can
// arrive as numeric strings and entity ids as numbers.

type rawStage struct {
	ID       interface{}       `json:"id"`
	Name     string            `json:"name"`
	Color    string            `json:"color"`
	Order    interface{}       `json:"order"`
	Entities []json.RawMessage `json:"entities"`
}

// UnmarshalJSON decodes a stage tolerating loosely typed legacy documents
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw rawStage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := coerceInt("stage id", raw.ID)
	if err != nil {
		return err
	}
	order, err := coerceInt("stage order", raw.Order)
	if err != nil {
		return err
	}

	s.ID = id
	s.Name = raw.Name
	s.Color = raw.Color
	s.Order = order
	s.Entities = nil
	if raw.Entities != nil {
		s.Entities = make([]EntityRef, 0, len(raw.Entities))
		for _, item := range raw.Entities {
			var ref EntityRef
			if err := json.Unmarshal(item, &ref); err != nil {
				return err
			}
			s.Entities = append(s.Entities, ref)
		}
	}
	return nil
}

type rawEntityRef struct {
	EntityID   interface{} `json:"entity_id"`
	EntityType string      `json:"entity_type"`
	Sort       interface{} `json:"sort"`
}

// UnmarshalJSON decodes a ref tolerating numeric entity ids
func (r *EntityRef) UnmarshalJSON(data []byte) error {
	var raw rawEntityRef
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	sort, err := coerceInt("entity sort", raw.Sort)
	if err != nil {
		return err
	}

	r.EntityID = utils.ToString(raw.EntityID)
	r.EntityType = EntityType(raw.EntityType)
	r.Sort = sort
	return nil
}

type rawStageInput struct {
	ID    interface{} `json:"id"`
	Name  string      `json:"name"`
	Color string      `json:"color"`
	Order interface{} `json:"order"`
}

// UnmarshalJSON accepts numeric strings for id and order
func (s *StageInput) UnmarshalJSON(data []byte) error {
	var raw rawStageInput
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.ID = nil
	if raw.ID != nil && raw.ID != "" {
		id, err := coerceInt("stage id", raw.ID)
		if err != nil {
			return err
		}
		s.ID = &id
	}
	order, err := coerceInt("stage order", raw.Order)
	if err != nil {
		return err
	}
	s.Name = raw.Name
	s.Color = raw.Color
	s.Order = order
	return nil
}

func coerceInt(field string, v interface{}) (int, error) {
	if v == nil {
		return 0, nil
	}
	n, err := utils.ToInt(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}
	return n, nil
}

// PipelineMembership describes where an entity currently sits in one pipeline
type PipelineMembership struct {
	PipelineID   string `json:"pipeline_id"`
	PipelineName string `json:"pipeline_name"`
	ViewID       string `json:"view_id"`
	StageID      int    `json:"stage_id"`
	StageName    string `json:"stage_name"`
}
