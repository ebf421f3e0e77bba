package commands

import (
	"thoughtgraph/pkg/utils"
)

// CreateThoughtCommand creates a thought. An empty ID asks for a generated one.
// With SuggestTitle set and no Title, the title is derived from the content.
type CreateThoughtCommand struct {
	ID           string   `json:"id" validate:"omitempty,thoughtid"`
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Tags         []string `json:"tags" validate:"dive,tagid"`
	References   []string `json:"references" validate:"dive,thoughtid"`
	SuggestTitle bool     `json:"suggest_title"`
}

// Validate validates the command
func (c CreateThoughtCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// UpdateThoughtCommand edits a thought. Nil fields are left unchanged;
// Tags are added to the current set, or replace it when ReplaceTags is true.
type UpdateThoughtCommand struct {
	ID          string   `json:"id" validate:"required,thoughtid"`
	Title       *string  `json:"title,omitempty"`
	Content     *string  `json:"content,omitempty"`
	Tags        []string `json:"tags,omitempty" validate:"dive,tagid"`
	ReplaceTags bool     `json:"replace_tags"`
}

// Validate validates the command
func (c UpdateThoughtCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DeleteThoughtCommand deletes a thought and every reference touching it
type DeleteThoughtCommand struct {
	ID string `json:"id" validate:"required,thoughtid"`
}

// Validate validates the command
func (c DeleteThoughtCommand) Validate() error {
	return utils.ValidateStruct(c)
}
