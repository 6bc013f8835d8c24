package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coursebuilder/backend/internal/apperrors"
)

// BlockType represents the type of a content block
type BlockType string

const (
	BlockTypeVideo            BlockType = "video"
	BlockTypeImage            BlockType = "image"
	BlockTypeInteractiveTabs  BlockType = "interactive_tabs"
	BlockTypeFlipCards        BlockType = "flip_cards"
	BlockTypeFeedbackActivity BlockType = "feedback_activity"
)

// BlockTypes lists every supported block type
var BlockTypes = []BlockType{
	BlockTypeVideo,
	BlockTypeImage,
	BlockTypeInteractiveTabs,
	BlockTypeFlipCards,
	BlockTypeFeedbackActivity,
}

// IsValid reports whether t is one of the supported block types
func (t BlockType) IsValid() bool {
	for _, known := range BlockTypes {
		if t == known {
			return true
		}
	}
	return false
}

// BlockContent is the type-specific payload of a block.
//
// Implemented by VideoContent, ImageContent, InteractiveTabsContent, FlipCardsContent
// and FeedbackActivityContent only.
type BlockContent interface {
	// Type returns the block type the payload belongs to
	Type() BlockType
	sealed()
}

// VideoContent is the payload of a video block
type VideoContent struct {
	VideoURL string `json:"videoUrl"`
}

// ImageContent is the payload of an image block
type ImageContent struct {
	ImageURLs []string `json:"imageUrls"`
}

// Tab is a single tab of an interactive tabs block
type Tab struct {
	Title       string  `json:"title" example:"Overview"`
	Description *string `json:"description,omitempty"`
	ContentURL  string  `json:"contentUrl" example:"https://cdn.example.com/tab.png"`
}

// InteractiveTabsContent is the payload of an interactive tabs block
type InteractiveTabsContent struct {
	Tabs []Tab `json:"tabs"`
}

// Card is a single card of a flip cards block
type Card struct {
	Front string `json:"front" example:"Question"`
	Back  string `json:"back" example:"Answer"`
}

// FlipCardsContent is the payload of a flip cards block
type FlipCardsContent struct {
	Cards []Card `json:"cards"`
}

// FeedbackActivityContent is the payload of a feedback activity block
type FeedbackActivityContent struct {
	Question string `json:"question"`
}

func (VideoContent) Type() BlockType            { return BlockTypeVideo }
func (ImageContent) Type() BlockType            { return BlockTypeImage }
func (InteractiveTabsContent) Type() BlockType  { return BlockTypeInteractiveTabs }
func (FlipCardsContent) Type() BlockType        { return BlockTypeFlipCards }
func (FeedbackActivityContent) Type() BlockType { return BlockTypeFeedbackActivity }

func (VideoContent) sealed()            {}
func (ImageContent) sealed()            {}
func (InteractiveTabsContent) sealed()  {}
func (FlipCardsContent) sealed()        {}
func (FeedbackActivityContent) sealed() {}

// BlockContentFields holds the type-specific fields of a block request.
//
// Exactly the fields of the declared type must be set, see BuildBlockContent.
type BlockContentFields struct {
	VideoURL  *string  `json:"videoUrl,omitempty" example:"https://cdn.example.com/intro.mp4"`
	ImageURLs []string `json:"imageUrls,omitempty"`
	Tabs      []Tab    `json:"tabs,omitempty"`
	Cards     []Card   `json:"cards,omitempty"`
	Question  *string  `json:"question,omitempty"`
}

// IsEmpty reports whether no type-specific field is set
func (f BlockContentFields) IsEmpty() bool {
	return len(f.presentFields()) == 0
}

// presentFields returns json names of the fields that are set
func (f BlockContentFields) presentFields() []string {
	var fields []string
	if f.VideoURL != nil {
		fields = append(fields, "videoUrl")
	}
	if f.ImageURLs != nil {
		fields = append(fields, "imageUrls")
	}
	if f.Tabs != nil {
		fields = append(fields, "tabs")
	}
	if f.Cards != nil {
		fields = append(fields, "cards")
	}
	if f.Question != nil {
		fields = append(fields, "question")
	}
	return fields
}

// contentFieldByType maps each block type to the only request field it accepts
var contentFieldByType = map[BlockType]string{
	BlockTypeVideo:            "videoUrl",
	BlockTypeImage:            "imageUrls",
	BlockTypeInteractiveTabs:  "tabs",
	BlockTypeFlipCards:        "cards",
	BlockTypeFeedbackActivity: "question",
}

// BuildBlockContent builds the payload for blockType from the request fields.
//
// It fails with a validation error when the type is unknown, when the field required by the type
// is missing or empty, or when a field that belongs to another type is set.
func BuildBlockContent(blockType BlockType, fields BlockContentFields) (BlockContent, error) {
	allowed, ok := contentFieldByType[blockType]
	if !ok {
		return nil, fmt.Errorf("%w: invalid block type %q", apperrors.ErrValidation, blockType)
	}

	for _, field := range fields.presentFields() {
		if field != allowed {
			return nil, fmt.Errorf("%w: field %s is not allowed for block type %s", apperrors.ErrValidation, field, blockType)
		}
	}

	switch blockType {
	case BlockTypeVideo:
		if fields.VideoURL == nil || strings.TrimSpace(*fields.VideoURL) == "" {
			return nil, missingContentField(blockType, "videoUrl")
		}
		return VideoContent{VideoURL: *fields.VideoURL}, nil

	case BlockTypeImage:
		if len(fields.ImageURLs) == 0 {
			return nil, missingContentField(blockType, "imageUrls")
		}
		for i, url := range fields.ImageURLs {
			if strings.TrimSpace(url) == "" {
				return nil, fmt.Errorf("%w: imageUrls[%d] must not be empty", apperrors.ErrValidation, i)
			}
		}
		return ImageContent{ImageURLs: fields.ImageURLs}, nil

	case BlockTypeInteractiveTabs:
		if len(fields.Tabs) == 0 {
			return nil, missingContentField(blockType, "tabs")
		}
		for i, tab := range fields.Tabs {
			if strings.TrimSpace(tab.Title) == "" || strings.TrimSpace(tab.ContentURL) == "" {
				return nil, fmt.Errorf("%w: tabs[%d] requires title and contentUrl", apperrors.ErrValidation, i)
			}
		}
		return InteractiveTabsContent{Tabs: fields.Tabs}, nil

	case BlockTypeFlipCards:
		if len(fields.Cards) == 0 {
			return nil, missingContentField(blockType, "cards")
		}
		for i, card := range fields.Cards {
			if strings.TrimSpace(card.Front) == "" || strings.TrimSpace(card.Back) == "" {
				return nil, fmt.Errorf("%w: cards[%d] requires front and back", apperrors.ErrValidation, i)
			}
		}
		return FlipCardsContent{Cards: fields.Cards}, nil

	default: // BlockTypeFeedbackActivity
		if fields.Question == nil || strings.TrimSpace(*fields.Question) == "" {
			return nil, missingContentField(blockType, "question")
		}
		return FeedbackActivityContent{Question: *fields.Question}, nil
	}
}

func missingContentField(blockType BlockType, field string) error {
	return fmt.Errorf("%w: block type %s requires %s", apperrors.ErrValidation, blockType, field)
}

// DecodeBlockContent decodes a stored JSON payload for the given type.
//
// Unknown fields are rejected so a payload never silently changes shape.
func DecodeBlockContent(blockType BlockType, raw []byte) (BlockContent, error) {
	var content BlockContent
	switch blockType {
	case BlockTypeVideo:
		content = &VideoContent{}
	case BlockTypeImage:
		content = &ImageContent{}
	case BlockTypeInteractiveTabs:
		content = &InteractiveTabsContent{}
	case BlockTypeFlipCards:
		content = &FlipCardsContent{}
	case BlockTypeFeedbackActivity:
		content = &FeedbackActivityContent{}
	default:
		return nil, fmt.Errorf("unknown block type %q", blockType)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(content); err != nil {
		return nil, fmt.Errorf("failed to decode %s block content: %w", blockType, err)
	}

	// return values, not pointers, so callers can type switch on one form
	switch c := content.(type) {
	case *VideoContent:
		return *c, nil
	case *ImageContent:
		return *c, nil
	case *InteractiveTabsContent:
		return *c, nil
	case *FlipCardsContent:
		return *c, nil
	default:
		return *c.(*FeedbackActivityContent), nil
	}
}
