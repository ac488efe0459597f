package models

// Board is a pipeline rendered as Kanban columns
type Board struct {
	PipelineID string        `json:"pipeline_id"`
	Pipeline   string        `json:"pipeline"`
	ManageType EntityType    `json:"manage_type"`
	Columns    []BoardColumn `json:"columns"`
}

// BoardColumn is one stage with its joined cards
type BoardColumn struct {
	StageID    int         `json:"stage_id"`
	StageName  string      `json:"stage_name"`
	StageColor string      `json:"stage_color"`
	Order      int         `json:"order"`
	Entities   []BoardCard `json:"entities"`
}

// BoardCard is an entity ref joined to its record. Data is nil for a
// dangling ref whose record no longer exists.
type BoardCard struct {
	EntityID   string      `json:"entity_id"`
	EntityType EntityType  `json:"entity_type"`
	Sort       int         `json:"sort"`
	Data       interface{} `json:"data"`
}

// PersonCard is a person with its company attached
type PersonCard struct {
	*People
	Company *Company `json:"company"`
}

// DealCard is a deal with its contact and company attached
type DealCard struct {
	*Deal
	Contact *People  `json:"contact"`
	Company *Company `json:"company"`
}

// CustomerCard is a customer with convenience fields projected from custom_data
type CustomerCard struct {
	*Customer
	Name  string `json:"name"`
	Phone string `json:"phone"`
}
