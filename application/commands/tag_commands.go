package commands

import "thoughtgraph/pkg/utils"

// AddTagCommand creates a tag explicitly
type AddTagCommand struct {
	ID          string `json:"id" validate:"required,tagid"`
	Description string `json:"description"`
}

// Validate validates the command
func (c AddTagCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DescribeTagCommand sets or replaces a tag's description
type DescribeTagCommand struct {
	ID          string `json:"id" validate:"required,tagid"`
	Description string `json:"description"`
}

// Validate validates the command
func (c DescribeTagCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DeleteTagCommand deletes a tag and detaches it everywhere
type DeleteTagCommand struct {
	ID string `json:"id" validate:"required,tagid"`
}

// Validate validates the command
func (c DeleteTagCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// AttachTagCommand adds a tag to a thought
type AttachTagCommand struct {
	ThoughtID string `json:"thought_id" validate:"required,thoughtid"`
	TagID     string `json:"tag_id" validate:"required,tagid"`
}

// Validate validates the command
func (c AttachTagCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DetachTagCommand removes a tag from a thought
type DetachTagCommand struct {
	ThoughtID string `json:"thought_id" validate:"required,thoughtid"`
	TagID     string `json:"tag_id" validate:"required,tagid"`
}

// Validate validates the command
func (c DetachTagCommand) Validate() error {
	return utils.ValidateStruct(c)
}
