package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Block represents an independently owned, reusable content block
type Block struct {
	ID          int          `json:"id"`
	Type        BlockType    `json:"type"`
	Headline    string       `json:"headline"`
	Description *string      `json:"description"`
	Content     BlockContent `json:"content" swaggertype:"object"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// UnmarshalJSON decodes the content according to the sibling type field
func (b *Block) UnmarshalJSON(data []byte) error {
	type blockAlias Block
	aux := struct {
		*blockAlias
		Content json.RawMessage `json:"content"`
	}{blockAlias: (*blockAlias)(b)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Content) == 0 || string(aux.Content) == "null" {
		b.Content = nil
		return nil
	}

	content, err := DecodeBlockContent(b.Type, aux.Content)
	if err != nil {
		return fmt.Errorf("failed to decode block %d: %w", b.ID, err)
	}
	b.Content = content
	return nil
}

// BlockListItem represents a block in list responses together with its usage count
type BlockListItem struct {
	Block
	UsageCount int `json:"usageCount"`
}

// UnmarshalJSON decodes the block and its usage count, the embedded Block decoder would drop the count
func (b *BlockListItem) UnmarshalJSON(data []byte) error {
	if err := b.Block.UnmarshalJSON(data); err != nil {
		return err
	}

	var aux struct {
		UsageCount int `json:"usageCount"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	b.UsageCount = aux.UsageCount
	return nil
}

// CreateBlockRequest represents a request to create a block.
//
// It is also used for blocks authored inline in a course specification.
type CreateBlockRequest struct {
	Type        BlockType `json:"type" validate:"required" example:"video"`
	Headline    string    `json:"headline" validate:"required,notblank,max=255" example:"Welcome"`
	Description *string   `json:"description,omitempty" example:"Short introduction"`
	BlockContentFields
}

// UpdateBlockRequest represents a request to update a block (partial update).
//
// If Type or any type-specific field is set, the whole content is rebuilt.
type UpdateBlockRequest struct {
	Type        *BlockType `json:"type,omitempty" example:"image"`
	Headline    *string    `json:"headline,omitempty" validate:"omitempty,notblank,max=255" example:"Welcome"`
	Description *string    `json:"description,omitempty"`
	BlockContentFields
}

// RebuildsContent reports whether the request replaces the block content
func (r *UpdateBlockRequest) RebuildsContent() bool {
	return r.Type != nil || !r.BlockContentFields.IsEmpty()
}

// DeleteBlockCheck holds the data needed to decide whether a block can be deleted
type DeleteBlockCheck struct {
	Headline   string
	UsageCount int
}
