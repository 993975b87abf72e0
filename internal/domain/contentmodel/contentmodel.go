// Package contentmodel defines content models, the per-environment schema
// definitions that are copied when an environment is cloned.
package contentmodel

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/ContentForge/internal/domain"
	"github.com/Strob0t/ContentForge/internal/domain/environment"
	"github.com/Strob0t/ContentForge/internal/domain/tenant"
)

const MaxModelIDLength = 100

// Model is a content model stored inside one environment.
type Model struct {
	ID            string          `json:"id"`
	ModelID       string          `json:"modelId"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Fields        json.RawMessage `json:"fields"`
	EnvironmentID string          `json:"environment"`
	CreatedOn     time.Time       `json:"createdOn"`
	CreatedBy     tenant.Ref      `json:"createdBy"`
}

// CreateRequest holds the fields accepted when creating a content model.
type CreateRequest struct {
	ModelID     string          `json:"modelId,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Fields      json.RawMessage `json:"fields,omitempty"`
}

// ResolveModelID returns the explicit model id normalised, or the slugified name.
func (r CreateRequest) ResolveModelID() string {
	if strings.TrimSpace(r.ModelID) != "" {
		return environment.Slugify(r.ModelID)
	}
	return environment.Slugify(r.Name)
}

// Validate checks the input shape and defaults Fields to an empty list.
func (r *CreateRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if len([]rune(r.Name)) > environment.MaxNameLength {
		return fmt.Errorf("name must be at most %d characters: %w", environment.MaxNameLength, domain.ErrValidation)
	}
	if len([]rune(r.Description)) > environment.MaxDescriptionLength {
		return fmt.Errorf("description must be at most %d characters: %w", environment.MaxDescriptionLength, domain.ErrValidation)
	}
	id := r.ResolveModelID()
	if id == "" || len(id) > MaxModelIDLength {
		return fmt.Errorf("modelId must be 1-%d slug characters: %w", MaxModelIDLength, domain.ErrValidation)
	}
	if len(r.Fields) == 0 {
		r.Fields = json.RawMessage("[]")
	} else if !json.Valid(r.Fields) {
		return fmt.Errorf("fields must be valid JSON: %w", domain.ErrValidation)
	}
	return nil
}
