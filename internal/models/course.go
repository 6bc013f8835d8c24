package models

import "time"

// Course represents an e-learning course (the top-level aggregate)
type Course struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	CoverImage  string    `json:"coverImage"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CourseListItem represents a course in list responses
type CourseListItem struct {
	Course
	UniverseAssignments []UniverseAssignment `json:"universeAssignments"`
}

// CourseDetail represents a course with its full structure
type CourseDetail struct {
	Course
	Steps               []Step               `json:"steps"`
	UniverseAssignments []UniverseAssignment `json:"universeAssignments"`
}

// Step represents an ordered step of a course
type Step struct {
	ID         int         `json:"id"`
	CourseID   int         `json:"courseId"`
	Title      string      `json:"title"`
	OrderIndex int         `json:"orderIndex"`
	StepBlocks []StepBlock `json:"stepBlocks"`
}

// StepBlock represents a block placed in a step at a given position
type StepBlock struct {
	ID         int   `json:"id"`
	StepID     int   `json:"stepId"`
	OrderIndex int   `json:"orderIndex"`
	Block      Block `json:"block"`
}

// CourseSpec is the full desired state of a course, used both for create and for replace
type CourseSpec struct {
	Title       string     `json:"title" validate:"required,notblank,max=255" example:"Safety"`
	Description *string    `json:"description,omitempty" example:"Workplace safety basics"`
	CoverImage  string     `json:"coverImage" validate:"required,notblank,max=2048" example:"https://cdn.example.com/cover.png"`
	Steps       []StepSpec `json:"steps" validate:"required,min=1,dive"`
	UniverseIDs []int      `json:"universeIds" validate:"dive,min=1,max=2147483647"`
}

// StepSpec describes one step of a CourseSpec
type StepSpec struct {
	Title      string          `json:"title" validate:"required,notblank,max=255" example:"Intro"`
	OrderIndex int             `json:"orderIndex" validate:"min=1,max=2147483647" example:"1"`
	StepBlocks []StepBlockSpec `json:"stepBlocks" validate:"required,min=1,dive"`
}

// StepBlockSpec places a block in a step.
//
// Exactly one of ExistingBlockID and NewBlock must be set.
type StepBlockSpec struct {
	OrderIndex      int                 `json:"orderIndex" validate:"min=1,max=2147483647" example:"1"`
	ExistingBlockID *int                `json:"existingBlockId,omitempty" validate:"omitempty,min=1,max=2147483647" example:"12"`
	NewBlock        *CreateBlockRequest `json:"newBlock,omitempty"`
}

// CourseWriteResult is returned by create and update
type CourseWriteResult struct {
	ID      int    `json:"id" example:"1"`
	Message string `json:"message" example:"E-learning created successfully"`
}

// CourseStructureStats describes what a replace or delete is about to remove
type CourseStructureStats struct {
	Steps       int
	StepBlocks  int
	Assignments int
}

// PreparedBlock is a step-block whose new block content has already been built
type PreparedBlock struct {
	OrderIndex      int
	ExistingBlockID *int
	NewBlock        *Block
}

// PreparedStep is a validated step ready to be written
type PreparedStep struct {
	Title      string
	OrderIndex int
	Blocks     []PreparedBlock
}

// PreparedCourse is a validated CourseSpec ready to be written in one transaction
type PreparedCourse struct {
	Title       string
	Description *string
	CoverImage  string
	Steps       []PreparedStep
	UniverseIDs []int
}
