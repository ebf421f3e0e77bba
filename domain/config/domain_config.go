package config

import "fmt"

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Thought constraints
	MaxTitleLength    int
	MaxContentLength  int
	MaxTagsPerThought int

	// Tag constraints
	MaxDescriptionLength int

	// Reference constraints
	MaxNotesLength int

	// Tag policy: when true, attaching or creating with an unknown tag id
	// creates the tag instead of failing with NotFound.
	ImplicitTagCreation bool

	// VerifyInvariants runs a full graph consistency check after every command.
	VerifyInvariants bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// Thought constraints
		MaxTitleLength:    200,
		MaxContentLength:  100000,
		MaxTagsPerThought: 32,

		// Tag constraints
		MaxDescriptionLength: 500,

		// Reference constraints
		MaxNotesLength: 1000,

		ImplicitTagCreation: true,
		VerifyInvariants:    false,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	return DefaultDomainConfig()
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Catch index drift early while developing
	config.VerifyInvariants = true

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development", "test":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	limits := map[string]int{
		"MaxTitleLength":       c.MaxTitleLength,
		"MaxContentLength":     c.MaxContentLength,
		"MaxTagsPerThought":    c.MaxTagsPerThought,
		"MaxDescriptionLength": c.MaxDescriptionLength,
		"MaxNotesLength":       c.MaxNotesLength,
	}
	for name, v := range limits {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	return nil
}
