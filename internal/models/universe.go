package models

import "time"

// Universe represents a tenant-like grouping that courses are assigned to
type Universe struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UniverseShortInfo represents a universe with only ID and Name
type UniverseShortInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// UniverseAssignment represents the link between a course and a universe
type UniverseAssignment struct {
	ID         int               `json:"id"`
	CourseID   int               `json:"courseId"`
	Universe   UniverseShortInfo `json:"universe"`
	AssignedAt time.Time         `json:"assignedAt"`
}

// CreateUniverseRequest represents a request to create a universe
type CreateUniverseRequest struct {
	Name string `json:"name" validate:"required,notblank,max=255" example:"Retail"`
}

// UpdateUniverseRequest represents a request to rename a universe
type UpdateUniverseRequest struct {
	Name string `json:"name" validate:"required,notblank,max=255" example:"Wholesale"`
}
