package models

import "time"

// Group is a user-facing collection of records of one type. Each group owns
// a pipeline view and a table view.
type Group struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	Name           string     `json:"name"`
	ManageType     EntityType `json:"manage_type"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Views          []View     `json:"views,omitempty"`
}

// View is a rendering of a group, either "pipeline" or "table"
type View struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	GroupID        string    `json:"group_id"`
	Name           string    `json:"name"`
	ViewType       string    `json:"view_type"`
	PipelineID     string    `json:"pipeline_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
