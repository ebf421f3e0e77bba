package commands

import "thoughtgraph/pkg/utils"

// AddReferenceCommand creates or re-annotates a manual reference
type AddReferenceCommand struct {
	From  string `json:"from" validate:"required,thoughtid"`
	To    string `json:"to" validate:"required,thoughtid"`
	Notes string `json:"notes"`
}

// Validate validates the command
func (c AddReferenceCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// RemoveReferenceCommand deletes a reference, manual or auto
type RemoveReferenceCommand struct {
	From string `json:"from" validate:"required,thoughtid"`
	To   string `json:"to" validate:"required,thoughtid"`
}

// Validate validates the command
func (c RemoveReferenceCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// RescanReferencesCommand re-derives auto references for one thought,
// or for all of them when ID is empty
type RescanReferencesCommand struct {
	ID string `json:"id" validate:"omitempty,thoughtid"`
}

// Validate validates the command
func (c RescanReferencesCommand) Validate() error {
	return utils.ValidateStruct(c)
}
